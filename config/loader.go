package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"barkd/log"
)

// Loader owns the settings file. A corrupt or missing file recovers to
// DefaultSettings. Configuration trouble is logged, never fatal, and the
// in-memory settings are always valid.
type Loader struct {
	path string

	mu       sync.RWMutex
	settings Settings
	onChange []func(Settings)

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewLoader(path string) *Loader {
	return &Loader{path: path, settings: DefaultSettings()}
}

func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "barkd", "settings.toml"), nil
}

// Load reads and validates the settings file. Recovery policy: anything
// wrong with the file substitutes the built-in defaults.
func (l *Loader) Load() Settings {
	s, err := loadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("settings: %v, using defaults", err)
		}
		s = DefaultSettings()
	}
	l.mu.Lock()
	l.settings = s
	l.mu.Unlock()
	return s.Clone()
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Settings returns a copy of the current settings. Cheap enough to call
// once per sample tick.
func (l *Loader) Settings() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings.Clone()
}

// OnChange registers a callback invoked after every successful reload or
// save.
func (l *Loader) OnChange(fn func(Settings)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Save validates, writes atomically, and updates the in-memory settings.
func (l *Loader) Save(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}
	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return err
	}

	l.mu.Lock()
	l.settings = s.Clone()
	callbacks := append([]func(Settings){}, l.onChange...)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(s.Clone())
	}
	return nil
}

// Watch reloads the settings whenever the file changes on disk.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("settings watcher: %w", err)
	}
	l.watcher = watcher
	l.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-l.done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != l.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				s := l.Load()
				log.Info("settings reloaded")
				l.mu.RLock()
				callbacks := append([]func(Settings){}, l.onChange...)
				l.mu.RUnlock()
				for _, fn := range callbacks {
					fn(s.Clone())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("settings watcher: %v", err)
			}
		}
	}()
	return nil
}

// CloseWatch stops the file watcher. No-op when Watch was never started.
func (l *Loader) CloseWatch() {
	if l.watcher == nil {
		return
	}
	close(l.done)
	l.watcher.Close()
	l.watcher = nil
}
