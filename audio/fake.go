package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
	"time"
)

const (
	// WAVHeaderSize is the canonical RIFF header length for the PCM16
	// files the fake replays.
	WAVHeaderSize = 44

	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
	fakeSampleRate    = 16000
)

// FakeContext replays a WAV file through the capture interface in real
// time, then feeds silence until stopped. Used by -test mode and tests.
type FakeContext struct {
	pcm  []byte
	loop bool
}

func NewFakeContext(wavPath string, loop bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) <= WAVHeaderSize {
		return nil, fmt.Errorf("wav too short: %s", wavPath)
	}
	return &FakeContext{pcm: data[WAVHeaderSize:], loop: loop}, nil
}

// NewFakeContextTone builds a context whose capture produces a steady tone
// at the given dBFS level. Handy for exercising the metering path without
// fixture files.
func NewFakeContextTone(levelDB float64, duration time.Duration) *FakeContext {
	n := int(duration.Seconds() * fakeSampleRate)
	amp := math.Pow(10, levelDB/20) * 32767 * math.Sqrt2 // sine RMS = peak/sqrt(2)
	if amp > 32767 {
		amp = 32767
	}
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(amp * math.Sin(2*math.Pi*440*float64(i)/fakeSampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, loop: f.loop}, nil
}

type FakeCapture struct {
	pcm  []byte
	loop bool

	mu        sync.Mutex
	cb        DataCallback
	stopCh    chan struct{}
	feedDone  chan struct{}
	audioDone chan struct{}
	doneOnce  sync.Once
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

// AudioDone closes once the file content has been fully replayed and the
// capture has switched to feeding silence. Never closes in loop mode.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.audioDone == nil {
		f.audioDone = make(chan struct{})
	}
	return f.audioDone
}

func (f *FakeCapture) markAudioDone() {
	f.mu.Lock()
	if f.audioDone == nil {
		f.audioDone = make(chan struct{})
	}
	ch := f.audioDone
	f.mu.Unlock()
	f.doneOnce.Do(func() { close(ch) })
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopCh != nil {
		return nil
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame
	interval := time.Duration(fakeFrameSize) * time.Second / fakeSampleRate

	go func(stop, done chan struct{}) {
		defer close(done)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-stop:
				return
			case <-time.After(interval):
			}

			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if cb == nil {
				continue
			}

			if pos >= len(f.pcm) && f.loop {
				pos = 0
			}
			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				pos = end
				cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
			} else {
				f.markAudioDone()
				cb(silence, fakeFrameSize)
			}
		}
	}(f.stopCh, f.feedDone)

	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stopCh, f.feedDone
	f.stopCh, f.feedDone = nil, nil
	f.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (f *FakeCapture) Close() {
	f.Stop()
}
