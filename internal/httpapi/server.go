package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ttsd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Ready() bool
	Status() types.StatusResponse
	Metadata() types.MetadataResponse
	Models() (types.ModelsResponse, error)
	LoadModels(ctx context.Context, req types.LoadModelsRequest) (types.LoadModelsResponse, error)
	Synthesize(ctx context.Context, req types.SynthesisRequest) (types.SynthesisResponse, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}

	r.Get("/health", h.health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})
	r.Get("/metadata", h.metadata)
	r.Get("/status", h.status)
	r.Get("/models", h.models)
	r.Post("/load_models", h.loadModels)
	r.Group(func(r chi.Router) {
		if rateLimitRPS > 0 {
			r.Use(newClientLimiter(rateLimitRPS, rateLimitBurst).middleware)
		}
		r.Post("/tts", h.tts)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// health godoc
// @Summary      Liveness probe
// @Tags         ops
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
}

// metadata godoc
// @Summary      Device, precision and accepted inputs
// @Tags         synthesis
// @Produce      json
// @Success      200  {object}  types.MetadataResponse
// @Router       /metadata [get]
func (h *handlers) metadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Metadata())
}

// status godoc
// @Summary      Model session state
// @Tags         ops
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// models godoc
// @Summary      List weight files
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Models()
	if err != nil {
		status := writeError(w, err)
		requestEvent(r, requestLogLevel(r), status).Err(err).Msg("models")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// loadModels godoc
// @Summary      Load decoder and vocoder weights
// @Description  Waits for in-flight synthesis, then swaps the model. The previous model stays active when loading fails.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request  body      types.LoadModelsRequest  true  "Weights"
// @Success      200      {object}  types.LoadModelsResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /load_models [post]
func (h *handlers) loadModels(w http.ResponseWriter, r *http.Request) {
	lvl := requestLogLevel(r)
	start := time.Now()
	var req types.LoadModelsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.LoadModels(ctx, req)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status := writeError(w, contextError(err))
		requestEvent(r, lvl, status).Err(err).Dur("dur", time.Since(start)).Msg("load_models end")
		return
	}
	writeJSON(w, http.StatusOK, resp)
	requestEvent(r, lvl, http.StatusOK).
		Str("gpt", req.GPTModelPath).
		Str("sovits", req.SoVITSModelPath).
		Uint64("generation", resp.Generation).
		Dur("dur", time.Since(start)).
		Msg("load_models end")
}

// tts godoc
// @Summary      Synthesize speech
// @Description  Clones the voice of the reference audio and returns a base64 WAV.
// @Tags         synthesis
// @Accept       json
// @Produce      json
// @Param        request  body      types.SynthesisRequest  true  "Synthesis request"
// @Success      200      {object}  types.SynthesisResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /tts [post]
func (h *handlers) tts(w http.ResponseWriter, r *http.Request) {
	lvl := requestLogLevel(r)
	start := time.Now()
	var req types.SynthesisRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	debugEvent(r, lvl).
		Int("text_len", len(req.Text)).
		Bool("inline_reference", req.ReferenceAudio != nil).
		Int("aux_references", len(req.AuxiliaryReferenceAudios)).
		Msg("tts start")
	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := h.svc.Synthesize(ctx, req)
	if err != nil {
		// Client disconnected; nobody is left to read an error.
		if r.Context().Err() != nil {
			return
		}
		status := writeError(w, contextError(err))
		requestEvent(r, lvl, status).Err(err).Dur("dur", time.Since(start)).Msg("tts end")
		return
	}
	writeJSON(w, http.StatusOK, resp)
	requestEvent(r, lvl, http.StatusOK).
		Int("sample_rate", resp.SampleRate).
		Float64("audio_seconds", resp.DurationSeconds).
		Dur("dur", time.Since(start)).
		Msg("tts end")
}

// requestContext joins the server base context with the request context
// and applies the configured request timeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if requestTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, requestTimeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

type statusErr struct {
	msg  string
	code int
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.code }

// contextError turns bare timeout and shutdown errors into statuses.
func contextError(err error) error {
	var he HTTPError
	if errors.As(err, &he) {
		return err
	}
	switch {
	case serverBaseCtx.Err() != nil:
		return statusErr{msg: "server shutting down", code: http.StatusServiceUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return statusErr{msg: "request timed out", code: http.StatusGatewayTimeout}
	}
	return err
}

// decodeJSON enforces the content type and body limit, then decodes into v.
// It writes the error response itself and reports whether to continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
