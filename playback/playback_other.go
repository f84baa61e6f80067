//go:build !linux

package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

func NewPlayer() (Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: malgo: %v", ErrPlaybackFailed, err)
	}
	return &malgoPlayer{ctx: ctx}, nil
}

type malgoPlayer struct {
	ctx *malgo.AllocatedContext
	wg  sync.WaitGroup
}

func (p *malgoPlayer) Load(path string) (Sound, error) {
	c, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return &malgoSound{player: p, clip: c}, nil
}

func (p *malgoPlayer) Close() {
	p.wg.Wait()
	p.ctx.Uninit()
	p.ctx.Free()
}

type malgoSound struct {
	player *malgoPlayer
	clip   *clip
}

func (s *malgoSound) Duration() time.Duration { return s.clip.duration() }

func (s *malgoSound) Unload() {}

func (s *malgoSound) Play() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = uint32(s.clip.sampleRate)

	samples := s.clip.samples
	var pos int
	var mu sync.Mutex
	done := make(chan struct{})
	var doneOnce sync.Once

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			mu.Lock()
			p := pos
			pos += int(frameCount)
			mu.Unlock()
			for i := 0; i < int(frameCount); i++ {
				var v int16
				if p+i < len(samples) {
					v = samples[p+i]
				}
				out[i*2] = byte(v)
				out[i*2+1] = byte(v >> 8)
			}
			if p >= len(samples) {
				doneOnce.Do(func() { close(done) })
			}
		},
	}

	dev, err := malgo.InitDevice(s.player.ctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("%w: malgo playback: %v", ErrPlaybackFailed, err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("%w: malgo start: %v", ErrPlaybackFailed, err)
	}

	s.player.wg.Add(1)
	go func() {
		defer s.player.wg.Done()
		select {
		case <-done:
		case <-time.After(s.clip.duration() + 2*time.Second):
		}
		dev.Stop()
		dev.Uninit()
	}()
	return nil
}
