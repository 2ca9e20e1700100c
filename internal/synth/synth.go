// Package synth turns a synthesis request into encoded audio: it validates
// the request, stages reference audio, runs the engine under the session's
// exclusive gate and aggregates the output.
package synth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/apperr"
	"ttsd/internal/device"
	"ttsd/internal/engine"
	"ttsd/internal/session"
	"ttsd/internal/staging"
)

// Executor is the part of the model session the orchestrator needs.
type Executor interface {
	WithExclusiveAccess(ctx context.Context, paths *engine.ModelPaths, fn func(ctx context.Context, h *session.Handle) error) error
	Languages() []string
	Profile() device.Profile
}

// Options configures an Orchestrator.
type Options struct {
	Session   Executor
	Stager    *staging.Stager
	Aggregate Aggregation
	Logger    *zerolog.Logger
}

// Orchestrator runs synthesis requests.
type Orchestrator struct {
	exec      Executor
	stager    *staging.Stager
	aggregate Aggregation
	log       zerolog.Logger
}

// New builds an Orchestrator. Session and Stager are required.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{exec: opts.Session, stager: opts.Stager, aggregate: opts.Aggregate, log: zerolog.Nop()}
	if o.aggregate == "" {
		o.aggregate = AggregateLast
	}
	if opts.Logger != nil {
		o.log = opts.Logger.With().Str("component", "synth").Logger()
	}
	return o
}

// Languages returns the language set requests are validated against.
func (o *Orchestrator) Languages() []string { return o.exec.Languages() }

// Synthesize validates req, stages its reference audio, runs the engine
// exclusively and returns the aggregated audio. Files staged for the
// request are removed before it returns, whatever the outcome.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) (res Result, err error) {
	defer func() { requestsTotal.WithLabelValues(outcome(err)).Inc() }()

	if err := req.Validate(o.exec.Languages()); err != nil {
		return Result{}, err
	}

	batch := o.stager.NewBatch()
	defer func() {
		if cerr := batch.Cleanup(); cerr != nil {
			o.log.Warn().Err(cerr).Msg("cleanup staged files")
		}
	}()
	staged, err := batch.StageAll(req.inputs()...)
	if err != nil {
		return Result{}, err
	}
	aux := make([]string, 0, len(staged)-1)
	for _, r := range staged[1:] {
		aux = append(aux, r.Path)
	}
	params := req.params(staged[0].Path, aux, o.exec.Profile().Accelerated())

	err = o.exec.WithExclusiveAccess(ctx, req.ModelPaths(), func(ctx context.Context, h *session.Handle) error {
		// the handle may be fresher than the set checked above
		if len(h.Languages) > 0 {
			if err := req.CheckLanguages(h.Languages); err != nil {
				return err
			}
		}
		start := time.Now()
		stream, err := h.Engine.Synthesize(ctx, params)
		if err != nil {
			return engineError("synthesis failed", err)
		}
		defer stream.Close()
		rate, samples, err := collect(stream, o.aggregate)
		inferenceSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		res = Result{SampleRate: rate, Samples: samples, Generation: h.Generation}
		return nil
	})
	if err != nil {
		o.log.Debug().Err(err).Str("kind", string(apperr.KindOf(err))).Msg("synthesis failed")
		return Result{}, err
	}
	audioSeconds.Observe(res.Duration())
	o.log.Info().Uint64("generation", res.Generation).Int("sample_rate", res.SampleRate).
		Float64("duration_s", res.Duration()).Int("aux_refs", len(aux)).Msg("synthesized")
	return res, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return string(apperr.KindOf(err))
}
