package detect

import (
	"time"

	"github.com/google/uuid"
)

// BarkEvent is one detected loudness spike. Immutable once appended to a
// session; events disappear only through the store's bulk clear.
type BarkEvent struct {
	ID          string
	Time        time.Time
	LevelDB     float64 // raw sample, dBFS
	Level       int     // 1-based threshold index
	SoundPlayed bool
	RecordingID string // calming recording used, when one played
}

// Session is one continuous monitoring run. Owned by the monitor while
// active; handed to report.Summarize after close.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Active    bool
	Events    []BarkEvent
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		Active:    true,
	}
}

func (s *Session) append(ev BarkEvent) {
	s.Events = append(s.Events, ev)
}

func (s *Session) close(now time.Time) {
	s.EndedAt = now
	s.Active = false
}

// SoundsPlayed counts events whose calming response actually fired.
func (s *Session) SoundsPlayed() int {
	n := 0
	for _, ev := range s.Events {
		if ev.SoundPlayed {
			n++
		}
	}
	return n
}
