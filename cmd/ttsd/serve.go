package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ttsd/internal/app"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP service",
		Example: "  ttsd serve --config ttsd.yaml\n  ttsd serve --worker-url http://127.0.0.1:9900 --gpt-model g.ckpt --sovits-model s.pth",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address (default :9880)")
	f.String("scratch-dir", "", "Directory for staged reference audio")
	f.String("gpt-model", "", "Default decoder weights (.ckpt); GPT_MODEL_PATH")
	f.String("sovits-model", "", "Default vocoder weights (.pth); SOVITS_MODEL_PATH")
	f.String("bert-model", "", "Text encoder weights passed to the worker")
	f.String("hubert-model", "", "Speech SSL encoder weights passed to the worker")
	f.String("worker-bin", "", "Synthesis worker executable, spawned per model load")
	f.String("worker-url", "", "URL of an already running synthesis worker")
	f.String("worker-args", "", "Comma-separated extra worker arguments")
	f.Duration("ready-timeout", 0, "How long to wait for a spawned worker to become healthy")
	f.String("aggregate", "", "Fragment aggregation: last|concat")
	f.String("languages", "", "Comma-separated language tags accepted before a model reports its own")
	f.Duration("max-wait", 0, "Maximum time a request queues for the model (0 waits)")
	f.Int64("max-body-bytes", 0, "Maximum request body size (default 32MiB)")
	f.Duration("timeout", 0, "Per-request timeout for /tts and /load_models (0 disables)")
	f.Bool("cors-enabled", false, "Enable CORS")
	f.String("cors-origins", "", "Comma-separated allowed origins (default * when enabled)")
	f.Float64("rate-limit-rps", 0, "Per-client /tts requests per second (0 disables)")
	f.Int("rate-limit-burst", 0, "Per-client /tts burst")
	f.String("nats-url", "", "Publish session events to this NATS server")
	f.String("request-log", "", "Default per-request log level: off|error|info|debug")
	return cmd
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := opts.log
	a, err := app.Build(ctx, opts.cfg, log, app.Options{Prober: opts.prober})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	go a.Autoload(ctx)

	srv := &http.Server{
		Addr:              opts.cfg.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", opts.cfg.Addr).
			Str("weights_dir", opts.cfg.WeightsDir).
			Str("scratch_dir", opts.cfg.ScratchDir).
			Str("device", a.Devices.Active.String()).
			Msg("ttsd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
