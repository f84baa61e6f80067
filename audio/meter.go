package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// Meter accumulates 16-bit mono PCM and reports the loudness of everything
// written since the previous reading as a single dBFS value. The RMS to
// dBFS conversion happens here and only here; downstream code works in
// dBFS throughout.
type Meter struct {
	mu         sync.Mutex
	sumSquares float64
	samples    int
}

func (m *Meter) Write(data []byte) {
	if len(data) < 2 {
		return
	}
	m.mu.Lock()
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(s) / 32768.0
		m.sumSquares += normalized * normalized
	}
	m.samples += len(data) / 2
	m.mu.Unlock()
}

// LevelDB drains the accumulator and returns the dBFS level of the drained
// window. Returns FloorDB when nothing was written or the window is silent.
func (m *Meter) LevelDB() float64 {
	m.mu.Lock()
	sum, n := m.sumSquares, m.samples
	m.sumSquares, m.samples = 0, 0
	m.mu.Unlock()

	if n == 0 {
		return FloorDB
	}
	rms := math.Sqrt(sum / float64(n))
	if rms <= 0 {
		return FloorDB
	}
	db := 20 * math.Log10(rms)
	if db < FloorDB {
		db = FloorDB
	}
	return db
}

// MeterStream adapts a CaptureDevice into a SampleSource: it feeds the
// capture callback into a Meter and emits one Sample per poll interval.
type MeterStream struct {
	dev      CaptureDevice
	interval time.Duration
	meter    Meter

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewMeterStream(dev CaptureDevice, interval time.Duration) *MeterStream {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &MeterStream{dev: dev, interval: interval}
}

func (s *MeterStream) Start(onSample func(Sample)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	s.dev.SetCallback(func(data []byte, _ uint32) {
		s.meter.Write(data)
	})
	if err := s.dev.Start(); err != nil {
		s.dev.ClearCallback()
		return WrapStartError(err)
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func(stop chan struct{}, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				onSample(Sample{Capturing: true, LevelDB: s.meter.LevelDB(), Time: now})
			}
		}
	}(s.stop, s.done)
	return nil
}

// Stop halts sample delivery and releases the capture stream. Safe to call
// more than once.
func (s *MeterStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
	s.dev.Stop()
	s.dev.ClearCallback()
}
