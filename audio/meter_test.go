package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

func sinePCM(levelDB float64, samples int) []byte {
	amp := math.Pow(10, levelDB/20) * 32767 * math.Sqrt2
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		s := int16(amp * math.Sin(2*math.Pi*440*float64(i)/16000))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func TestMeterSilenceIsFloor(t *testing.T) {
	var m Meter
	m.Write(make([]byte, 4096))
	if got := m.LevelDB(); got != FloorDB {
		t.Errorf("silence level = %v, want %v", got, FloorDB)
	}
}

func TestMeterEmptyIsFloor(t *testing.T) {
	var m Meter
	if got := m.LevelDB(); got != FloorDB {
		t.Errorf("empty meter level = %v, want %v", got, FloorDB)
	}
}

func TestMeterToneLevel(t *testing.T) {
	for _, want := range []float64{-30, -15, -6} {
		var m Meter
		m.Write(sinePCM(want, 16000))
		got := m.LevelDB()
		if math.Abs(got-want) > 1.0 {
			t.Errorf("tone at %v dBFS metered as %v", want, got)
		}
	}
}

func TestMeterDrainsOnRead(t *testing.T) {
	var m Meter
	m.Write(sinePCM(-10, 8000))
	m.LevelDB()
	if got := m.LevelDB(); got != FloorDB {
		t.Errorf("second read = %v, want floor after drain", got)
	}
}

func TestMeterStreamEmitsSamples(t *testing.T) {
	ctx := NewFakeContextTone(-10, 2*time.Second)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	stream := NewMeterStream(dev, 50*time.Millisecond)
	got := make(chan Sample, 64)
	if err := stream.Start(func(s Sample) { got <- s }); err != nil {
		t.Fatal(err)
	}
	defer stream.Stop()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-got:
			if !s.Capturing {
				t.Fatal("sample not marked capturing")
			}
			if s.LevelDB > FloorDB+1 {
				return // heard the tone
			}
		case <-deadline:
			t.Fatal("no non-silent sample within deadline")
		}
	}
}

func TestMeterStreamStopIdempotent(t *testing.T) {
	ctx := NewFakeContextTone(-10, time.Second)
	dev, _ := ctx.NewCapture(nil, CaptureConfig{})
	stream := NewMeterStream(dev, 50*time.Millisecond)
	if err := stream.Start(func(Sample) {}); err != nil {
		t.Fatal(err)
	}
	stream.Stop()
	stream.Stop()
}

func TestWrapStartErrorKinds(t *testing.T) {
	if WrapStartError(nil) != nil {
		t.Error("nil error should stay nil")
	}
	err := WrapStartError(errors.New("pulse: access denied"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("access denied not tagged as permission: %v", err)
	}
	err = WrapStartError(errors.New("device lost"))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("generic failure not tagged as capture failure: %v", err)
	}
	if errors.Is(err, ErrPermissionDenied) {
		t.Errorf("generic failure wrongly tagged as permission: %v", err)
	}
}
