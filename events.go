package main

import (
	"fmt"
	"os"
	"time"

	"barkd/detect"
)

// tuiObserver forwards monitor callbacks to the Bubble Tea program.
// Callbacks arrive on the sample loop; tea.Program.Send is non-blocking
// so the loop is never held up by rendering.
type tuiObserver struct{}

func (tuiObserver) BarkDetected(ev detect.BarkEvent) {
	tuiSend(BarkMsg{Event: ev})
}

func (tuiObserver) LevelChanged(level int, db float64) {
	tuiSend(LevelMsg{Level: level, DB: db})
}

func (tuiObserver) CooldownTick(remaining float64) {
	tuiSend(CooldownMsg{Remaining: remaining})
}

// consoleObserver prints detections to stdout. Used headless and in
// -test mode, where there is no TUI to receive messages.
type consoleObserver struct{}

func (consoleObserver) BarkDetected(ev detect.BarkEvent) {
	responded := ""
	if ev.SoundPlayed {
		responded = " (calming sound played)"
	}
	fmt.Fprintf(os.Stdout, "%s bark level %d at %.1f dB%s\n",
		ev.Time.Format(time.TimeOnly), ev.Level, ev.LevelDB, responded)
}

func (consoleObserver) LevelChanged(int, float64) {}
func (consoleObserver) CooldownTick(float64)      {}
