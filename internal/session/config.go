package session

import (
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/device"
	"ttsd/internal/engine"
)

// Config encapsulates everything a Session needs. The session never reads
// process state (environment, flags) on its own.
type Config struct {
	Factory engine.Factory
	Profile device.Profile
	// Defaults is consulted only when no explicit paths are given and no
	// engine is loaded yet.
	Defaults engine.ModelPaths
	// Languages is reported until an engine provides its own set.
	Languages []string
	// MaxWait bounds the time spent queueing for the gate; 0 waits forever.
	MaxWait   time.Duration
	Logger    *zerolog.Logger
	Publisher EventPublisher
}

// New constructs a Session from Config, applying defaults for unset fields.
func New(cfg Config) *Session {
	s := &Session{
		gate:      newGate(),
		factory:   cfg.Factory,
		profile:   cfg.Profile,
		defaults:  cfg.Defaults.Clone(),
		languages: append([]string(nil), cfg.Languages...),
		maxWait:   cfg.MaxWait,
		state:     StateUnloaded,
		publisher: cfg.Publisher,
		startTime: time.Now(),
	}
	if s.factory == nil {
		s.factory = engine.Unavailable{}
	}
	if s.profile.Kind == "" {
		s.profile = device.CPU()
	}
	if len(s.languages) == 0 {
		s.languages = append([]string(nil), engine.DefaultLanguages...)
	}
	if s.maxWait < 0 {
		s.maxWait = 0
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "session").Logger()
	} else {
		s.log = zerolog.Nop()
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	return s
}
