package detect

import "time"

// Cooldown gates how often a calming response may fire. It only measures
// elapsed time against the configured interval; the settings surface is
// responsible for choosing an interval longer than any calming sound.
type Cooldown struct {
	last time.Time // zero means never triggered
}

// Remaining returns how long until the gate opens, clamped to >= 0.
func (c *Cooldown) Remaining(now time.Time, interval time.Duration) time.Duration {
	if c.last.IsZero() {
		return 0
	}
	rem := interval - now.Sub(c.last)
	if rem < 0 {
		return 0
	}
	return rem
}

// CanTrigger reports whether the gate is open.
func (c *Cooldown) CanTrigger(now time.Time, interval time.Duration) bool {
	return c.Remaining(now, interval) == 0
}

// Trigger records a fired response at the given instant.
func (c *Cooldown) Trigger(now time.Time) {
	c.last = now
}

// Reset forgets the last trigger. Called when monitoring starts so a new
// session never inherits a previous session's gate.
func (c *Cooldown) Reset() {
	c.last = time.Time{}
}
