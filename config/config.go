// Package config holds the barkd settings: the ordered bark threshold
// levels, the response cooldown, and the sensitivity multiplier. The
// invariant throughout is that threshold values strictly increase with
// level index; it is enforced at load and at every mutation, so readers
// can index levels 1-based without checking.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ThresholdLevel is one configured loudness boundary, in dBFS.
type ThresholdLevel struct {
	ID    string  `toml:"id"`
	Name  string  `toml:"name"`
	Value float64 `toml:"value"`
}

type Settings struct {
	Thresholds      []ThresholdLevel `toml:"thresholds"`
	CooldownSeconds int              `toml:"cooldown_seconds"`
	Sensitivity     float64          `toml:"sensitivity"`
}

const (
	DefaultCooldownSeconds = 15
	DefaultSensitivity     = 1.0
	MaxSensitivity         = 4.0
)

func DefaultSettings() Settings {
	return Settings{
		Thresholds: []ThresholdLevel{
			{ID: "1", Name: "Gentle Woof", Value: -30},
			{ID: "2", Name: "Big Bark", Value: -15},
		},
		CooldownSeconds: DefaultCooldownSeconds,
		Sensitivity:     DefaultSensitivity,
	}
}

// Validate reports the first structural problem, or nil.
func (s *Settings) Validate() error {
	seen := make(map[string]bool, len(s.Thresholds))
	for i, th := range s.Thresholds {
		if th.ID == "" {
			return fmt.Errorf("threshold %d: empty id", i)
		}
		if seen[th.ID] {
			return fmt.Errorf("threshold %d: duplicate id %q", i, th.ID)
		}
		seen[th.ID] = true
		if i > 0 && th.Value <= s.Thresholds[i-1].Value {
			return fmt.Errorf("threshold %q: value %.1f does not exceed previous level's %.1f",
				th.ID, th.Value, s.Thresholds[i-1].Value)
		}
	}
	if s.CooldownSeconds <= 0 {
		return fmt.Errorf("cooldown_seconds must be positive, got %d", s.CooldownSeconds)
	}
	if s.Sensitivity <= 0 || s.Sensitivity > MaxSensitivity {
		return fmt.Errorf("sensitivity must be in (0, %g], got %g", MaxSensitivity, s.Sensitivity)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without racing readers.
func (s Settings) Clone() Settings {
	out := s
	out.Thresholds = make([]ThresholdLevel, len(s.Thresholds))
	copy(out.Thresholds, s.Thresholds)
	return out
}

// AddThreshold inserts a new level at the sorted position for value.
// Rejected when the value collides with an existing level.
func (s *Settings) AddThreshold(name string, value float64) (ThresholdLevel, error) {
	for _, th := range s.Thresholds {
		if th.Value == value {
			return ThresholdLevel{}, fmt.Errorf("a level with value %.1f already exists (%q)", value, th.Name)
		}
	}
	th := ThresholdLevel{ID: uuid.NewString(), Name: name, Value: value}
	s.Thresholds = append(s.Thresholds, th)
	sort.Slice(s.Thresholds, func(i, j int) bool {
		return s.Thresholds[i].Value < s.Thresholds[j].Value
	})
	return th, nil
}

// RemoveThreshold deletes the level with the given id. Levels above it
// shift down by one; ordering is preserved by construction.
func (s *Settings) RemoveThreshold(id string) error {
	for i, th := range s.Thresholds {
		if th.ID == id {
			s.Thresholds = append(s.Thresholds[:i], s.Thresholds[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no threshold with id %q", id)
}

// SetThresholdValue changes one level's boundary. Rejected when the new
// value would break strict ordering against its neighbours.
func (s *Settings) SetThresholdValue(id string, value float64) error {
	idx := -1
	for i, th := range s.Thresholds {
		if th.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no threshold with id %q", id)
	}
	if idx > 0 && value <= s.Thresholds[idx-1].Value {
		return fmt.Errorf("value %.1f must exceed level below (%.1f)", value, s.Thresholds[idx-1].Value)
	}
	if idx < len(s.Thresholds)-1 && value >= s.Thresholds[idx+1].Value {
		return fmt.Errorf("value %.1f must stay below level above (%.1f)", value, s.Thresholds[idx+1].Value)
	}
	s.Thresholds[idx].Value = value
	return nil
}

// SetCooldown updates the response cooldown. The interval must exceed the
// longest calming recording so a sound never outlives its own gate; pass
// zero when no recordings exist yet.
func (s *Settings) SetCooldown(seconds int, longestRecording time.Duration) error {
	if seconds <= 0 {
		return fmt.Errorf("cooldown must be positive, got %d", seconds)
	}
	if longestRecording > 0 && float64(seconds) <= longestRecording.Seconds() {
		return fmt.Errorf("cooldown %ds must exceed the longest calming sound (%.1fs)",
			seconds, longestRecording.Seconds())
	}
	s.CooldownSeconds = seconds
	return nil
}

func (s *Settings) SetSensitivity(k float64) error {
	if k <= 0 || k > MaxSensitivity {
		return fmt.Errorf("sensitivity must be in (0, %g], got %g", MaxSensitivity, k)
	}
	s.Sensitivity = k
	return nil
}
