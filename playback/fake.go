package playback

import (
	"sync"
	"time"
)

// FakePlayer records loads and plays for tests and -test mode.
type FakePlayer struct {
	mu       sync.Mutex
	loaded   []string
	failLoad map[string]error
	failPlay map[string]error
	plays    []string
	unloads  int
}

func NewFakePlayer() *FakePlayer {
	return &FakePlayer{
		failLoad: make(map[string]error),
		failPlay: make(map[string]error),
	}
}

// FailLoad makes subsequent Load calls for path return err.
func (p *FakePlayer) FailLoad(path string, err error) {
	p.mu.Lock()
	p.failLoad[path] = err
	p.mu.Unlock()
}

// FailPlay makes Play on the sound loaded from path return err.
func (p *FakePlayer) FailPlay(path string, err error) {
	p.mu.Lock()
	p.failPlay[path] = err
	p.mu.Unlock()
}

func (p *FakePlayer) Load(path string) (Sound, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failLoad[path]; err != nil {
		return nil, err
	}
	p.loaded = append(p.loaded, path)
	return &fakeSound{player: p, path: path}, nil
}

func (p *FakePlayer) Close() {}

func (p *FakePlayer) Plays() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.plays))
	copy(out, p.plays)
	return out
}

func (p *FakePlayer) Loaded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.loaded))
	copy(out, p.loaded)
	return out
}

func (p *FakePlayer) Unloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unloads
}

type fakeSound struct {
	player *FakePlayer
	path   string
}

func (s *fakeSound) Play() error {
	s.player.mu.Lock()
	defer s.player.mu.Unlock()
	if err := s.player.failPlay[s.path]; err != nil {
		return err
	}
	s.player.plays = append(s.player.plays, s.path)
	return nil
}

func (s *fakeSound) Duration() time.Duration { return 2 * time.Second }

func (s *fakeSound) Unload() {
	s.player.mu.Lock()
	s.player.unloads++
	s.player.mu.Unlock()
}
