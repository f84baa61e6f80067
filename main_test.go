package main

import (
	"strings"
	"testing"
	"time"

	"barkd/config"
	"barkd/detect"
)

func TestSettingsLineText(t *testing.T) {
	line := settingsLineText(config.DefaultSettings())

	for _, want := range []string{"Gentle Woof -30.0 dB", "Big Bark -15.0 dB", "cooldown: 15s", "sensitivity: 1.0"} {
		if !strings.Contains(line, want) {
			t.Errorf("settings line %q missing %q", line, want)
		}
	}
}

func TestDeviceLineText(t *testing.T) {
	if got := deviceLineText(nil); got != "mic: system default" {
		t.Errorf("nil device: got %q", got)
	}
}

func TestTUIModelCountsBarks(t *testing.T) {
	var m tuiModel
	for i := 0; i < maxRecent+4; i++ {
		ev := detect.BarkEvent{Time: time.Now(), Level: 1, LevelDB: -20, SoundPlayed: i%2 == 0}
		next, _ := m.Update(BarkMsg{Event: ev})
		m = next.(tuiModel)
	}

	if m.barkCount != maxRecent+4 {
		t.Errorf("barkCount = %d, want %d", m.barkCount, maxRecent+4)
	}
	if m.soundsPlayed != (maxRecent+4+1)/2 {
		t.Errorf("soundsPlayed = %d", m.soundsPlayed)
	}
	if len(m.recent) != maxRecent {
		t.Errorf("recent kept %d lines, want %d", len(m.recent), maxRecent)
	}
}

func TestTUIModelLevelSmoothing(t *testing.T) {
	m := tuiModel{db: -60}

	next, _ := m.Update(LevelMsg{Level: 2, DB: -10})
	m = next.(tuiModel)
	if m.db != -10 {
		t.Errorf("rising level should jump, got %.1f", m.db)
	}

	next, _ = m.Update(LevelMsg{Level: 0, DB: -60})
	m = next.(tuiModel)
	if m.db <= -60 || m.db >= -10 {
		t.Errorf("falling level should decay gradually, got %.1f", m.db)
	}
}

func TestTUIModelStopResets(t *testing.T) {
	m := tuiModel{listening: true, db: -12, level: 2, cooldown: 8}

	next, _ := m.Update(ListeningMsg{On: false})
	m = next.(tuiModel)
	if m.listening || m.level != 0 || m.cooldown != 0 {
		t.Errorf("stop should reset live state: %+v", m)
	}
}
