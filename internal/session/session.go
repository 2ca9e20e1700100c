package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/device"
	"ttsd/internal/engine"
)

// Session is the process-wide owner of the model engine.
type Session struct {
	gate      *gate
	factory   engine.Factory
	profile   device.Profile
	defaults  engine.ModelPaths
	languages []string
	maxWait   time.Duration
	log       zerolog.Logger
	publisher EventPublisher
	startTime time.Time

	// mu guards the fields below for readers. Writers additionally hold
	// the gate, so a handle is only replaced while nobody is using it.
	mu           sync.RWMutex
	state        State
	cur          *Handle
	generation   uint64
	lastErr      string
	loadsTotal   uint64
	loadFailures uint64
}

// Profile returns the active device profile the engine is built for.
func (s *Session) Profile() device.Profile { return s.profile }

// Ready reports whether an engine is loaded.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur != nil
}

// Current returns the loaded handle, or nil.
func (s *Session) Current() *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Generation returns the generation of the loaded handle; 0 if none.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Languages returns the language set of the loaded model, or the configured
// fallback set while unloaded.
func (s *Session) Languages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur != nil && len(s.cur.Languages) > 0 {
		return slices.Clone(s.cur.Languages)
	}
	return slices.Clone(s.languages)
}

// Close releases the engine. It waits for the current gate holder.
func (s *Session) Close() error {
	release, err := s.gate.acquire(context.Background(), 0)
	if err != nil {
		return err
	}
	defer release()
	s.mu.Lock()
	cur := s.cur
	s.cur = nil
	s.state = StateUnloaded
	s.mu.Unlock()
	if cur == nil {
		return nil
	}
	s.publisher.Publish(Event{Name: "session_closed", Generation: cur.Generation})
	return cur.Engine.Close()
}
