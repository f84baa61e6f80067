package detect

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"barkd/audio"
	"barkd/config"
	"barkd/log"
	"barkd/playback"
)

// Recording describes a calming sound registered for a severity level.
type Recording struct {
	ID       string
	Name     string
	Path     string
	Level    int
	Duration time.Duration
}

// Observer receives monitor callbacks. All methods are invoked
// synchronously from the sample loop; implementations must not block.
type Observer interface {
	BarkDetected(ev BarkEvent)
	LevelChanged(level int, db float64)
	CooldownTick(remaining float64)
}

// Options wires the monitor to its collaborators. Settings is read once
// per sample so edits take effect mid-session.
type Options struct {
	Source     audio.SampleSource
	Player     playback.Player
	Settings   func() config.Settings
	Recordings func() []Recording
	Observer   Observer

	// Diagnostics only.
	DeviceName   string
	PollInterval time.Duration
}

// Monitor drives the detection loop: sample in, classify, gate, respond,
// record. At most one run is live per Monitor; Start tears down any
// previous run before acquiring resources, and Stop is idempotent.
type Monitor struct {
	opts Options

	mu  sync.Mutex
	run *run
}

type loadedSound struct {
	sound       playback.Sound
	recordingID string
}

type run struct {
	source   audio.SampleSource
	sounds   map[int]loadedSound
	cooldown Cooldown
	session  *Session
}

func NewMonitor(opts Options) *Monitor {
	return &Monitor{opts: opts}
}

// Start begins a listening session. A run already in progress is stopped
// and its session discarded first; a restart is a control transfer, not
// a leak. Fatal errors (microphone refused or broken) leave the monitor
// idle.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.run != nil {
		log.Warn("start while listening: replacing active run")
		m.stopLocked()
	}

	r := &run{
		source:  m.opts.Source,
		sounds:  make(map[int]loadedSound),
		session: newSession(time.Now()),
	}
	r.cooldown.Reset()

	// Preload calming sounds. A level without a loadable recording still
	// gets detected; it just responds with silence.
	if m.opts.Recordings != nil {
		for _, rec := range m.opts.Recordings() {
			sound, err := m.opts.Player.Load(rec.Path)
			if err != nil {
				log.Warnf("loading calming sound for level %d: %v", rec.Level, err)
				continue
			}
			r.sounds[rec.Level] = loadedSound{sound: sound, recordingID: rec.ID}
		}
	}

	if err := r.source.Start(func(s audio.Sample) { m.handleSample(r, s) }); err != nil {
		r.unloadSounds()
		return fmt.Errorf("start listening: %w", err)
	}

	m.run = r
	log.SessionStart(r.session.ID, m.opts.DeviceName, int(m.opts.PollInterval/time.Millisecond))
	return nil
}

// Stop ends the active session and returns it, closed, for aggregation.
// Returns nil when nothing was running. Sample delivery has ceased and
// all capture and playback resources are released before Stop returns.
func (m *Monitor) Stop() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

// Listening reports whether a run is active.
func (m *Monitor) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run != nil
}

// ActiveSession returns the live session, or nil. The caller must treat
// it as read-only; the monitor owns it until Stop.
func (m *Monitor) ActiveSession() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil {
		return nil
	}
	return m.run.session
}

func (m *Monitor) stopLocked() *Session {
	if m.run == nil {
		return nil
	}
	r := m.run
	m.run = nil

	// Source.Stop blocks until the last sample callback has returned, so
	// the session and sounds are safe to touch afterwards.
	r.source.Stop()
	r.unloadSounds()
	r.session.close(time.Now())
	log.SessionEnd(r.session.ID, len(r.session.Events), r.session.SoundsPlayed())
	return r.session
}

func (r *run) unloadSounds() {
	for _, ls := range r.sounds {
		ls.sound.Unload()
	}
	r.sounds = nil
}

// handleSample is the per-tick body. It never panics out: a bad sample is
// logged and the loop moves on.
func (m *Monitor) handleSample(r *run, sample audio.Sample) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("sample handler: %v", rec)
		}
	}()

	if !sample.Capturing {
		return
	}

	settings := m.opts.Settings()
	interval := time.Duration(settings.CooldownSeconds) * time.Second

	// Cooldown state is reported every tick so the UI can count down even
	// while nothing is barking.
	remaining := r.cooldown.Remaining(sample.Time, interval)
	if m.opts.Observer != nil {
		m.opts.Observer.CooldownTick(remaining.Seconds())
	}

	level := Classify(sample.LevelDB, settings.Thresholds, settings.Sensitivity)
	if m.opts.Observer != nil {
		m.opts.Observer.LevelChanged(level, sample.LevelDB)
	}

	if level == 0 || remaining > 0 {
		return
	}

	ev := BarkEvent{
		ID:      uuid.NewString(),
		Time:    sample.Time,
		LevelDB: sample.LevelDB,
		Level:   level,
	}

	if ls, ok := r.sounds[level]; ok {
		if err := ls.sound.Play(); err != nil {
			log.Warnf("calming sound for level %d: %v", level, err)
		} else {
			ev.SoundPlayed = true
			ev.RecordingID = ls.recordingID
			r.cooldown.Trigger(sample.Time)
		}
	}

	r.session.append(ev)
	log.Bark(ev.Level, ev.LevelDB, ev.SoundPlayed)
	if m.opts.Observer != nil {
		m.opts.Observer.BarkDetected(ev)
	}
}
