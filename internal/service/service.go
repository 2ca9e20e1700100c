// Package service composes the model session, the synthesis orchestrator
// and the weights registry into the operations the HTTP layer exposes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"ttsd/internal/apperr"
	"ttsd/internal/common/fsutil"
	"ttsd/internal/engine"
	"ttsd/internal/registry"
	"ttsd/internal/session"
	"ttsd/internal/synth"
	"ttsd/pkg/types"
)

// ModelVersion is the model family tag reported by /metadata.
const ModelVersion = "v2ProPlus"

// Config wires a Service.
type Config struct {
	Session      *session.Session
	Orchestrator *synth.Orchestrator
	WeightsDir   string
	// Half is the process-wide half-precision decision.
	Half   bool
	Logger *zerolog.Logger
}

// Service implements httpapi.Service.
type Service struct {
	sess       *session.Session
	orch       *synth.Orchestrator
	weightsDir string
	half       bool
	log        zerolog.Logger
}

// New returns a Service.
func New(cfg Config) *Service {
	s := &Service{sess: cfg.Session, orch: cfg.Orchestrator, weightsDir: cfg.WeightsDir, half: cfg.Half, log: zerolog.Nop()}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "service").Logger()
	}
	return s
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool { return s.sess.Ready() }

// Status reports the session state.
func (s *Service) Status() types.StatusResponse { return s.sess.Status() }

// Metadata describes the device, precision and accepted inputs.
func (s *Service) Metadata() types.MetadataResponse {
	langs := s.sess.Languages()
	return types.MetadataResponse{
		Version:          ModelVersion,
		Device:           s.sess.Profile().String(),
		IsHalf:           s.half,
		TextLanguages:    langs,
		PromptLanguages:  langs,
		TextSplitMethods: synth.SplitMethods(),
	}
}

// Models lists weight files under the weights directory.
func (s *Service) Models() (types.ModelsResponse, error) {
	res, err := registry.Scan(s.weightsDir)
	if err != nil {
		return types.ModelsResponse{}, apperr.Internal("scan weights", err)
	}
	return res, nil
}

// LoadModels switches the session to the requested weights. Missing files
// are rejected before the session is touched.
func (s *Service) LoadModels(ctx context.Context, req types.LoadModelsRequest) (types.LoadModelsResponse, error) {
	checks := []struct{ field, path string }{
		{"gpt_model_path", req.GPTModelPath},
		{"sovits_model_path", req.SoVITSModelPath},
	}
	for _, c := range checks {
		if c.path == "" {
			return types.LoadModelsResponse{}, apperr.Validation(c.field, "%s is required", c.field)
		}
		if err := fsutil.RegularFile(c.path); err != nil {
			if errors.Is(err, fsutil.ErrIsDir) {
				return types.LoadModelsResponse{}, apperr.Validation(c.field, "%s is a directory: %s", c.field, c.path)
			}
			return types.LoadModelsResponse{}, apperr.NotFound(c.field, "%s not found: %s", c.field, c.path)
		}
	}
	h, err := s.sess.Reload(ctx, engine.ModelPaths{Decoder: req.GPTModelPath, Vocoder: req.SoVITSModelPath})
	if err != nil {
		return types.LoadModelsResponse{}, err
	}
	return types.LoadModelsResponse{
		Success:    true,
		Message:    fmt.Sprintf("Models loaded successfully: GPT=%s, SoVITS=%s", req.GPTModelPath, req.SoVITSModelPath),
		Generation: h.Generation,
	}, nil
}

// Synthesize runs one synthesis request.
func (s *Service) Synthesize(ctx context.Context, req types.SynthesisRequest) (types.SynthesisResponse, error) {
	res, err := s.orch.Synthesize(ctx, synth.FromAPI(req))
	if err != nil {
		return types.SynthesisResponse{}, err
	}
	out, err := res.Response()
	if err != nil {
		return types.SynthesisResponse{}, apperr.Internal("encode audio", err)
	}
	return out, nil
}

// Autoload loads the configured default weights, if any. Failure is logged
// and returned; the service keeps running and retries on first use.
func (s *Service) Autoload(ctx context.Context, defaults engine.ModelPaths) error {
	if !defaults.Complete() {
		s.log.Info().Msg("no default model paths configured; waiting for /load_models")
		return nil
	}
	h, err := s.sess.EnsureLoaded(ctx, nil)
	if err != nil {
		s.log.Error().Err(err).Str("gpt", defaults.Decoder).Str("sovits", defaults.Vocoder).Msg("startup model load failed")
		return err
	}
	s.log.Info().Uint64("generation", h.Generation).Msg("startup model load complete")
	return nil
}
