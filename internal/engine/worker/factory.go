package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/apperr"
	"ttsd/internal/device"
	"ttsd/internal/engine"
	"ttsd/internal/session"
)

// Config selects and tunes the worker.
type Config struct {
	// Bin is the worker executable spawned per load. Ignored when URL is set.
	Bin string
	// Args are prepended to the generated arguments.
	Args []string
	// Env is appended to the inherited environment of the worker.
	Env []string
	// URL of an already running worker.
	URL string

	Host      string
	PortStart int
	PortEnd   int

	ReadyTimeout   time.Duration
	RequestTimeout time.Duration
	ConnectTimeout time.Duration

	Logger    *zerolog.Logger
	Publisher session.EventPublisher
}

// Factory builds worker-backed engines.
type Factory struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	pub  session.EventPublisher
}

// NewFactory applies defaults and returns a Factory.
func NewFactory(cfg Config) *Factory {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 120 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	f := &Factory{
		cfg: cfg,
		// No client timeout: synthesis streams are bounded by request contexts.
		http: &http.Client{Transport: tr, Timeout: 0},
		log:  zerolog.Nop(),
		pub:  cfg.Publisher,
	}
	if cfg.Logger != nil {
		f.log = cfg.Logger.With().Str("component", "worker").Logger()
	}
	if f.pub == nil {
		f.pub = session.EventPublisher(nopPublisher{})
	}
	return f
}

type nopPublisher struct{}

func (nopPublisher) Publish(session.Event) {}

// Configured reports whether the factory can produce engines at all.
func (f *Factory) Configured() bool { return f.cfg.URL != "" || f.cfg.Bin != "" }

// New starts (or connects to) a worker for paths and waits until it serves.
func (f *Factory) New(ctx context.Context, paths engine.ModelPaths, profile device.Profile) (engine.Engine, error) {
	if !f.Configured() {
		return nil, apperr.Unavailable("no synthesis worker configured: set worker.bin or worker.url")
	}
	var (
		proc *process
		base = f.cfg.URL
	)
	if base == "" {
		p, err := f.spawn(ctx, paths, profile)
		if err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, apperr.Unavailable(fmt.Sprintf("worker binary %q not found", f.cfg.Bin))
			}
			return nil, err
		}
		proc, base = p, p.baseURL
	} else if err := f.waitHealthy(ctx, base, nil); err != nil {
		return nil, err
	}

	c := &client{base: base, http: f.http, timeout: f.cfg.RequestTimeout, log: f.log}
	if proc == nil {
		// a shared worker is told which weights and device to serve
		if err := c.load(ctx, newLoadRequest(paths, profile), f.cfg.ReadyTimeout); err != nil {
			return nil, err
		}
		f.pub.Publish(session.Event{Name: "worker_load", Fields: map[string]any{
			"url": base, "gpt_model_path": paths.Decoder, "sovits_model_path": paths.Vocoder, "device": profile.String(),
		}})
	}
	info, err := c.info(ctx)
	if err != nil {
		if proc != nil {
			proc.stop(f.log)
		}
		return nil, fmt.Errorf("worker info: %w", err)
	}
	langs := info.Languages
	if len(langs) == 0 {
		langs = engine.DefaultLanguages
	}
	f.log.Info().Str("url", base).Strs("languages", langs).Int("sample_rate", info.SampleRate).
		Str("device", profile.String()).Msg("worker ready")
	return &Engine{client: c, proc: proc, languages: langs, log: f.log, pub: f.pub}, nil
}

// Engine is a loaded worker.
type Engine struct {
	client    *client
	proc      *process
	languages []string
	log       zerolog.Logger
	pub       session.EventPublisher
}

func (e *Engine) Synthesize(ctx context.Context, p engine.Params) (engine.Stream, error) {
	return e.client.synthesize(ctx, p)
}

func (e *Engine) Languages() []string { return e.languages }

// URL returns the base URL of the worker.
func (e *Engine) URL() string { return e.client.base }

// Close stops a spawned worker and drops idle connections.
func (e *Engine) Close() error {
	if e.proc != nil {
		e.proc.stop(e.log)
		e.pub.Publish(session.Event{Name: "worker_stop", Fields: map[string]any{"pid": e.proc.pid}})
	}
	e.client.http.CloseIdleConnections()
	return nil
}

var _ engine.Factory = (*Factory)(nil)
var _ engine.Engine = (*Engine)(nil)
