// Package app assembles the service from a resolved configuration: device
// detection, the engine factory, the model session, the stager, the
// orchestrator and the HTTP handler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"ttsd/internal/config"
	"ttsd/internal/device"
	"ttsd/internal/engine"
	"ttsd/internal/engine/worker"
	"ttsd/internal/httpapi"
	"ttsd/internal/service"
	"ttsd/internal/session"
	"ttsd/internal/staging"
	"ttsd/internal/synth"
)

// Options override collaborators that are otherwise built from config.
type Options struct {
	// Prober replaces the nvidia-smi prober.
	Prober device.Prober
	// Factory replaces the worker engine factory.
	Factory engine.Factory
}

// App is a wired service.
type App struct {
	Config  config.Config
	Devices device.Report
	Session *session.Session
	Service *service.Service
	Handler http.Handler

	nc  *nats.Conn
	log zerolog.Logger
}

// Build wires the service. cfg must already carry defaults and env overrides.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger, opts Options) (*App, error) {
	agg, err := synth.ParseAggregation(cfg.Synthesis.Aggregate)
	if err != nil {
		return nil, err
	}

	prober := opts.Prober
	if prober == nil {
		prober = device.NvidiaSMIProber{Bin: cfg.Device.SMIBin}
	}
	rep := device.Detect(ctx, prober, device.Options{ForceCPU: cfg.Device.ForceCPU, Pin: cfg.DevicePin()})
	rep.Log(log)

	a := &App{Config: cfg, Devices: rep, log: log}

	var pub session.EventPublisher
	if cfg.Events.NATSURL != "" {
		nc, err := nats.Connect(cfg.Events.NATSURL,
			nats.Name("ttsd"),
			nats.Timeout(5*time.Second),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return nil, fmt.Errorf("connect nats %s: %w", cfg.Events.NATSURL, err)
		}
		a.nc = nc
		pub = session.NewNATSPublisher(nc, cfg.Events.Subject, log)
		log.Info().Str("url", cfg.Events.NATSURL).Str("subject", cfg.Events.Subject).Msg("publishing session events")
	}

	factory := opts.Factory
	if factory == nil {
		factory = newFactory(cfg, log, pub)
	}

	a.Session = session.New(session.Config{
		Factory:   factory,
		Profile:   rep.Active,
		Defaults:  cfg.DefaultModelPaths(),
		Languages: cfg.Synthesis.Languages,
		MaxWait:   cfg.Synthesis.MaxWait.Duration,
		Logger:    &log,
		Publisher: pub,
	})
	orch := synth.New(synth.Options{
		Session:   a.Session,
		Stager:    staging.New(cfg.ScratchDir, &log),
		Aggregate: agg,
		Logger:    &log,
	})
	a.Service = service.New(service.Config{
		Session:      a.Session,
		Orchestrator: orch,
		WeightsDir:   cfg.WeightsDir,
		Half:         rep.Half,
		Logger:       &log,
	})

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.HTTP.RequestLog)
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetRequestTimeout(cfg.HTTP.Timeout.Duration)
	httpapi.SetCORSOptions(cfg.HTTP.CORS.Enabled, cfg.HTTP.CORS.Origins, cfg.HTTP.CORS.Methods, cfg.HTTP.CORS.Headers)
	httpapi.SetRateLimit(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
	httpapi.SetBaseContext(ctx)
	a.Handler = httpapi.NewMux(a.Service)
	return a, nil
}

func newFactory(cfg config.Config, log zerolog.Logger, pub session.EventPublisher) engine.Factory {
	wf := worker.NewFactory(worker.Config{
		Bin:            cfg.Worker.Bin,
		Args:           cfg.Worker.Args,
		Env:            cfg.Worker.Env,
		URL:            cfg.Worker.URL,
		Host:           cfg.Worker.Host,
		PortStart:      cfg.Worker.PortStart,
		PortEnd:        cfg.Worker.PortEnd,
		ReadyTimeout:   cfg.Worker.ReadyTimeout.Duration,
		RequestTimeout: cfg.Worker.RequestTimeout.Duration,
		Logger:         &log,
		Publisher:      pub,
	})
	if !wf.Configured() {
		log.Warn().Msg("no synthesis worker configured (worker.bin or worker.url); synthesis will report unavailable")
		return engine.Unavailable{Reason: "no synthesis worker configured"}
	}
	return wf
}

// Autoload loads the configured default weights. Failure is logged and
// otherwise ignored; the next request retries.
func (a *App) Autoload(ctx context.Context) {
	_ = a.Service.Autoload(ctx, a.Config.DefaultModelPaths())
}

// Close releases the engine and the event connection.
func (a *App) Close() error {
	err := a.Session.Close()
	if a.nc != nil {
		if derr := a.nc.Drain(); derr != nil && !errors.Is(derr, nats.ErrConnectionClosed) {
			err = errors.Join(err, derr)
		}
	}
	return err
}
