package audio

import (
	"errors"
	"time"
)

// Capture errors. Start failures wrap exactly one of these so callers can
// tell a refused microphone apart from a broken one.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrCaptureFailed    = errors.New("audio capture failed")
)

// FloorDB is the metering floor reported for pure silence.
const FloorDB = -160.0

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// Sample is one metering reading delivered to the monitor at the poll
// interval.
type Sample struct {
	Capturing bool
	LevelDB   float64
	Time      time.Time
}

// SampleSource delivers periodic metering samples. Callbacks are invoked
// serially from a single goroutine; Stop blocks until delivery has ceased.
type SampleSource interface {
	Start(onSample func(Sample)) error
	Stop()
}
