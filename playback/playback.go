// Package playback loads user-recorded calming sounds and plays them
// through the default output device. Playback is fire-and-forget: Play
// returns once the sound has been handed to the output stream.
package playback

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrPlaybackFailed = errors.New("playback failed")

type Sound interface {
	// Play starts playback asynchronously. Overlapping plays of the same
	// sound restart it.
	Play() error
	Duration() time.Duration
	Unload()
}

type Player interface {
	Load(path string) (Sound, error)
	Close()
}

// clip is a decoded recording: 16-bit mono PCM at its native rate.
type clip struct {
	samples    []int16
	sampleRate int
}

func (c *clip) duration() time.Duration {
	if c.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.samples)) * time.Second / time.Duration(c.sampleRate)
}

// FileDuration decodes a recording just far enough to report its length.
// Used when registering a calming sound, before any player exists.
func FileDuration(path string) (time.Duration, error) {
	c, err := decodeFile(path)
	if err != nil {
		return 0, err
	}
	return c.duration(), nil
}

func decodeFile(path string) (*clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".flac":
		return decodeFLAC(path)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrPlaybackFailed, filepath.Ext(path))
	}
}
