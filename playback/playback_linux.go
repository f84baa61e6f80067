//go:build linux

package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

func NewPlayer() (Player, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("%w: pulse: %v", ErrPlaybackFailed, err)
	}
	return &pulsePlayer{client: c}, nil
}

type pulsePlayer struct {
	client *pulse.Client
	wg     sync.WaitGroup
}

func (p *pulsePlayer) Load(path string) (Sound, error) {
	c, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return &pulseSound{player: p, clip: c}, nil
}

func (p *pulsePlayer) Close() {
	p.wg.Wait()
	p.client.Close()
}

type pulseSound struct {
	player *pulsePlayer
	clip   *clip
}

func (s *pulseSound) Duration() time.Duration { return s.clip.duration() }

func (s *pulseSound) Unload() {}

func (s *pulseSound) Play() error {
	samples := s.clip.samples
	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})

	stream, err := s.player.client.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(s.clip.sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		return fmt.Errorf("%w: pulse playback: %v", ErrPlaybackFailed, err)
	}

	// Drain in the background so the sample loop never waits on audio.
	s.player.wg.Add(1)
	go func() {
		defer s.player.wg.Done()
		stream.Start()
		stream.Drain()
		stream.Stop()
		stream.Close()
	}()
	return nil
}
