package session

import (
	"context"
	"slices"
	"time"

	"ttsd/internal/apperr"
	"ttsd/internal/engine"
)

// EnsureLoaded returns a handle for paths, loading or reloading as needed.
//
//   - paths given and different from the active paths: load a new engine,
//     swap it in only after construction succeeds, bump the generation.
//   - paths nil and an engine loaded: return the current handle.
//   - paths nil and nothing loaded: load the configured defaults, or fail
//     with a configuration error when there are none.
//
// Loads go through the exclusive gate and wait for any in-flight user.
func (s *Session) EnsureLoaded(ctx context.Context, paths *engine.ModelPaths) (*Handle, error) {
	if paths == nil {
		if h := s.Current(); h != nil {
			return h, nil
		}
	}
	release, err := s.gate.acquire(ctx, s.maxWait)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.ensureLocked(context.WithoutCancel(ctx), paths)
}

// Reload switches the session to paths. It is a no-op when paths are
// already active.
func (s *Session) Reload(ctx context.Context, paths engine.ModelPaths) (*Handle, error) {
	return s.EnsureLoaded(ctx, &paths)
}

// ensureLocked must be called with the gate held.
func (s *Session) ensureLocked(ctx context.Context, paths *engine.ModelPaths) (*Handle, error) {
	cur := s.Current()
	var target engine.ModelPaths
	switch {
	case paths != nil:
		if !paths.Complete() {
			return nil, apperr.Validation("model_paths", "both gpt_model_path and sovits_model_path are required")
		}
		target = paths.Clone()
		if target.Aux == nil {
			target.Aux = slices.Clone(s.defaults.Aux)
		}
		if cur != nil && cur.Paths.Equal(target) {
			return cur, nil
		}
	case cur != nil:
		return cur, nil
	default:
		if !s.defaults.Complete() {
			return nil, apperr.Configuration("no model paths configured: set GPT_MODEL_PATH and SOVITS_MODEL_PATH or load models explicitly")
		}
		target = s.defaults.Clone()
	}
	return s.load(ctx, cur, target)
}

// load constructs an engine for target and swaps it in. On failure the
// previous handle, if any, stays active.
func (s *Session) load(ctx context.Context, prev *Handle, target engine.ModelPaths) (*Handle, error) {
	startTs := time.Now()
	transient := StateLoading
	if prev != nil {
		transient = StateReloading
	}
	s.mu.Lock()
	s.state = transient
	s.mu.Unlock()
	s.log.Info().Str("event", "load_start").Str("state", string(transient)).
		Str("gpt", target.Decoder).Str("sovits", target.Vocoder).Str("device", s.profile.String()).Msg("loading models")
	s.publisher.Publish(Event{Name: "load_start", Fields: map[string]any{"gpt": target.Decoder, "sovits": target.Vocoder}})

	eng, err := s.factory.New(ctx, target, s.profile)
	if err != nil {
		s.mu.Lock()
		s.loadFailures++
		s.lastErr = err.Error()
		if prev != nil {
			s.state = StateReady
		} else {
			s.state = StateUnloaded
		}
		s.mu.Unlock()
		loadsTotal.WithLabelValues("error").Inc()
		s.log.Error().Str("event", "load_failed").Err(err).Bool("kept_previous", prev != nil).Msg("model load failed")
		s.publisher.Publish(Event{Name: "load_failed", Fields: map[string]any{"error": err.Error(), "kept_previous": prev != nil}})
		if apperr.KindOf(err) == apperr.KindUnavailable {
			return nil, err
		}
		return nil, apperr.ModelLoad(err)
	}

	h := &Handle{Engine: eng, Paths: target, Profile: s.profile, Languages: eng.Languages()}
	s.mu.Lock()
	s.generation++
	h.Generation = s.generation
	s.cur = h
	s.state = StateReady
	s.lastErr = ""
	s.loadsTotal++
	s.mu.Unlock()
	loadsTotal.WithLabelValues("ok").Inc()
	generationGauge.Set(float64(h.Generation))
	loadSeconds.Observe(time.Since(startTs).Seconds())

	// The gate is held, so nothing can still be using the previous engine.
	if prev != nil {
		if cerr := prev.Engine.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Uint64("generation", prev.Generation).Msg("closing previous engine")
		}
	}
	s.log.Info().Str("event", "load_ready").Uint64("generation", h.Generation).
		Dur("dur", time.Since(startTs)).Msg("models loaded")
	s.publisher.Publish(Event{Name: "load_ready", Generation: h.Generation, Fields: map[string]any{
		"gpt": target.Decoder, "sovits": target.Vocoder, "dur_ms": int(time.Since(startTs) / time.Millisecond),
	}})
	return h, nil
}
