package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ttsd/internal/config"
	"ttsd/internal/device"
)

// rootOptions is filled by the persistent pre-run and read by subcommands.
type rootOptions struct {
	configPath string
	lookupEnv  config.LookupFunc
	// prober replaces nvidia-smi; tests only.
	prober device.Prober

	cfg config.Config
	log zerolog.Logger
}

func buildRootCmd() *cobra.Command {
	return buildRootCmdWith(&rootOptions{lookupEnv: os.LookupEnv})
}

func buildRootCmdWith(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "ttsd",
		Short:         "Speech synthesis service with a single exclusive model session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (.yaml, .yml, .toml, .json); defaults to TTSD_CONFIG")
	pf.String("log-level", "", "Log level: debug|info|warn|error (defaults TTSD_LOG_LEVEL or info)")
	pf.String("log-format", "", "Log format: json|console")
	pf.String("weights-dir", "", "Directory holding GPT_weights_v2ProPlus and SoVITS_weights_v2ProPlus")
	pf.Bool("force-cpu", false, "Skip accelerator detection and run on the CPU")
	pf.Int("device-index", -1, "Pin the accelerator index (-1 lets the selector choose)")
	pf.String("nvidia-smi", "", "Path to the nvidia-smi binary")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, opts)
		if err != nil {
			return err
		}
		log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		opts.cfg = cfg
		opts.log = log
		return nil
	}

	root.AddCommand(newServeCmd(opts), newDevicesCmd(opts), newModelsCmd(opts))
	return root
}

// resolveConfig layers file, environment and flags, in that order.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	lookup := opts.lookupEnv
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	path := opts.configPath
	if path == "" {
		path, _ = lookup("TTSD_CONFIG")
	}
	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	cfg.Defaults()
	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over cfg. Flags a command does not
// define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	strs := map[string]*string{
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
		"weights-dir":  &cfg.WeightsDir,
		"nvidia-smi":   &cfg.Device.SMIBin,
		"addr":         &cfg.Addr,
		"scratch-dir":  &cfg.ScratchDir,
		"gpt-model":    &cfg.Models.GPT,
		"sovits-model": &cfg.Models.SoVITS,
		"bert-model":   &cfg.Models.BERT,
		"hubert-model": &cfg.Models.HuBERT,
		"worker-bin":   &cfg.Worker.Bin,
		"worker-url":   &cfg.Worker.URL,
		"aggregate":    &cfg.Synthesis.Aggregate,
		"nats-url":     &cfg.Events.NATSURL,
		"request-log":  &cfg.HTTP.RequestLog,
	}
	for name, dst := range strs {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	lists := map[string]*[]string{
		"worker-args":  &cfg.Worker.Args,
		"languages":    &cfg.Synthesis.Languages,
		"cors-origins": &cfg.HTTP.CORS.Origins,
	}
	for name, dst := range lists {
		if fs.Changed(name) {
			v, err := fs.GetString(name)
			if err != nil {
				return err
			}
			*dst = splitCSV(v)
		}
	}
	durations := map[string]*time.Duration{
		"max-wait":      &cfg.Synthesis.MaxWait.Duration,
		"timeout":       &cfg.HTTP.Timeout.Duration,
		"ready-timeout": &cfg.Worker.ReadyTimeout.Duration,
	}
	for name, dst := range durations {
		if fs.Changed(name) {
			v, err := fs.GetDuration(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	if fs.Changed("force-cpu") {
		v, _ := fs.GetBool("force-cpu")
		cfg.Device.ForceCPU = v
	}
	if fs.Changed("device-index") {
		v, _ := fs.GetInt("device-index")
		if v < 0 {
			cfg.Device.Index = nil
		} else {
			cfg.Device.Index = &v
		}
	}
	if fs.Changed("cors-enabled") {
		v, _ := fs.GetBool("cors-enabled")
		cfg.HTTP.CORS.Enabled = v
	}
	if fs.Changed("max-body-bytes") {
		v, _ := fs.GetInt64("max-body-bytes")
		cfg.HTTP.MaxBodyBytes = v
	}
	if fs.Changed("rate-limit-rps") {
		v, _ := fs.GetFloat64("rate-limit-rps")
		cfg.HTTP.RateLimit.RPS = v
	}
	if fs.Changed("rate-limit-burst") {
		v, _ := fs.GetInt("rate-limit-burst")
		cfg.HTTP.RateLimit.Burst = v
	}
	return nil
}

// newLogger builds the root logger.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	switch strings.ToLower(format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want json or console", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "ttsd").Logger(), nil
}

// splitCSV splits a comma-separated flag value, dropping blanks.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
