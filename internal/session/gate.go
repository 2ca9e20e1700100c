package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"ttsd/internal/apperr"
	"ttsd/internal/engine"
)

// errTooBusy signals that the gate could not be acquired within MaxWait.
var errTooBusy = errors.New("session busy: timed out waiting for the model")

// gate is the single exclusive-access gate of the process.
type gate struct {
	sem      *semaphore.Weighted
	waiting  atomic.Int64
	inflight atomic.Int64
}

func newGate() *gate { return &gate{sem: semaphore.NewWeighted(1)} }

// acquire blocks until the gate is held or ctx ends. A non-zero maxWait
// bounds the queueing time. Returns a release func to be deferred.
func (g *gate) acquire(ctx context.Context, maxWait time.Duration) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	waitCtx := ctx
	if maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}
	g.waiting.Add(1)
	gateWaiting.Inc()
	err := g.sem.Acquire(waitCtx, 1)
	g.waiting.Add(-1)
	gateWaiting.Dec()
	if err != nil {
		if ctx.Err() != nil {
			return func() {}, ctx.Err()
		}
		return func() {}, apperr.RateLimited(errTooBusy.Error())
	}
	g.inflight.Add(1)
	start := time.Now()
	return func() {
		gateHoldSeconds.Observe(time.Since(start).Seconds())
		g.inflight.Add(-1)
		g.sem.Release(1)
	}, nil
}

// WithExclusiveAccess ensures the engine (loading it from paths, or from the
// configured defaults when nothing is loaded) and runs fn while holding the
// gate. No two fns ever run concurrently. Once the gate is held, fn runs to
// completion even if ctx is canceled; the caller decides whether to discard
// the result.
func (s *Session) WithExclusiveAccess(ctx context.Context, paths *engine.ModelPaths, fn func(ctx context.Context, h *Handle) error) error {
	release, err := s.gate.acquire(ctx, s.maxWait)
	if err != nil {
		return err
	}
	defer release()
	work := context.WithoutCancel(ctx)
	h, err := s.ensureLocked(work, paths)
	if err != nil {
		return err
	}
	return fn(work, h)
}
