// Package config defines the service configuration: file loading, defaults
// and the environment overrides read once at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ttsd/internal/common/fsutil"
	"ttsd/internal/engine"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel   string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format" toml:"log_format"`
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir" toml:"scratch_dir"`
	WeightsDir string `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`

	Models    Models    `json:"models" yaml:"models" toml:"models"`
	Device    Device    `json:"device" yaml:"device" toml:"device"`
	Worker    Worker    `json:"worker" yaml:"worker" toml:"worker"`
	Synthesis Synthesis `json:"synthesis" yaml:"synthesis" toml:"synthesis"`
	HTTP      HTTP      `json:"http" yaml:"http" toml:"http"`
	Events    Events    `json:"events" yaml:"events" toml:"events"`
}

// Models are the default weights, used when a request names none.
type Models struct {
	GPT    string `json:"gpt" yaml:"gpt" toml:"gpt"`
	SoVITS string `json:"sovits" yaml:"sovits" toml:"sovits"`
	BERT   string `json:"bert" yaml:"bert" toml:"bert"`
	HuBERT string `json:"hubert" yaml:"hubert" toml:"hubert"`
}

// Device controls device selection.
type Device struct {
	ForceCPU bool `json:"force_cpu" yaml:"force_cpu" toml:"force_cpu"`
	// Index pins the active accelerator; nil lets the selector choose.
	Index *int `json:"index" yaml:"index" toml:"index"`
	// SMIBin overrides the nvidia-smi executable.
	SMIBin string `json:"nvidia_smi" yaml:"nvidia_smi" toml:"nvidia_smi"`
}

// Worker configures the synthesis worker process or endpoint.
type Worker struct {
	Bin            string   `json:"bin" yaml:"bin" toml:"bin"`
	Args           []string `json:"args" yaml:"args" toml:"args"`
	Env            []string `json:"env" yaml:"env" toml:"env"`
	URL            string   `json:"url" yaml:"url" toml:"url"`
	Host           string   `json:"host" yaml:"host" toml:"host"`
	PortStart      int      `json:"port_start" yaml:"port_start" toml:"port_start"`
	PortEnd        int      `json:"port_end" yaml:"port_end" toml:"port_end"`
	ReadyTimeout   Duration `json:"ready_timeout" yaml:"ready_timeout" toml:"ready_timeout"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
}

// Synthesis tunes the request orchestrator and the session gate.
type Synthesis struct {
	// Aggregate is "last" or "concat".
	Aggregate string   `json:"aggregate" yaml:"aggregate" toml:"aggregate"`
	Languages []string `json:"languages" yaml:"languages" toml:"languages"`
	// MaxWait bounds queueing for the model; 0 waits indefinitely.
	MaxWait Duration `json:"max_wait" yaml:"max_wait" toml:"max_wait"`
}

// HTTP configures the transport.
type HTTP struct {
	MaxBodyBytes int64     `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	Timeout      Duration  `json:"timeout" yaml:"timeout" toml:"timeout"`
	CORS         CORS      `json:"cors" yaml:"cors" toml:"cors"`
	RateLimit    RateLimit `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	// RequestLog is the default per-request log level: off, error, info, debug.
	RequestLog string `json:"request_log" yaml:"request_log" toml:"request_log"`
}

// CORS mirrors the options passed to go-chi/cors.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// RateLimit is a per-client token bucket on /tts. RPS 0 disables it.
type RateLimit struct {
	RPS   float64 `json:"rps" yaml:"rps" toml:"rps"`
	Burst int     `json:"burst" yaml:"burst" toml:"burst"`
}

// Events configures lifecycle event publishing.
type Events struct {
	NATSURL string `json:"nats_url" yaml:"nats_url" toml:"nats_url"`
	Subject string `json:"subject" yaml:"subject" toml:"subject"`
}

// Default values.
const (
	DefaultAddr         = ":9880"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultMaxBodyBytes = 32 << 20
	DefaultReadyTimeout = 120 * time.Second
	DefaultEventSubject = "ttsd.session"
)

// Defaults fills zero values. It is idempotent.
func (c *Config) Defaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.ScratchDir == "" {
		c.ScratchDir = filepath.Join(os.TempDir(), "ttsd")
	}
	if c.WeightsDir == "" {
		c.WeightsDir = "."
	}
	if c.Worker.Host == "" {
		c.Worker.Host = "127.0.0.1"
	}
	if c.Worker.ReadyTimeout.Duration == 0 {
		c.Worker.ReadyTimeout.Duration = DefaultReadyTimeout
	}
	if c.Synthesis.Aggregate == "" {
		c.Synthesis.Aggregate = "last"
	}
	if c.HTTP.RequestLog == "" {
		c.HTTP.RequestLog = "info"
	}
	if c.HTTP.MaxBodyBytes == 0 {
		c.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.HTTP.CORS.Enabled && len(c.HTTP.CORS.Origins) == 0 {
		c.HTTP.CORS.Origins = []string{"*"}
	}
	if c.HTTP.RateLimit.RPS > 0 && c.HTTP.RateLimit.Burst <= 0 {
		c.HTTP.RateLimit.Burst = 1
	}
	if c.Events.Subject == "" {
		c.Events.Subject = DefaultEventSubject
	}
}

// ExpandPaths expands a leading ~ in every filesystem path.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{
		&c.ScratchDir, &c.WeightsDir,
		&c.Models.GPT, &c.Models.SoVITS, &c.Models.BERT, &c.Models.HuBERT,
		&c.Worker.Bin,
	} {
		v, err := fsutil.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Synthesis.Aggregate {
	case "", "last", "concat":
	default:
		return fmt.Errorf("synthesis.aggregate: unknown policy %q (want last or concat)", c.Synthesis.Aggregate)
	}
	if (c.Models.GPT == "") != (c.Models.SoVITS == "") {
		return fmt.Errorf("models: gpt and sovits must be set together")
	}
	if c.Worker.PortStart > 0 && c.Worker.PortEnd < c.Worker.PortStart {
		return fmt.Errorf("worker: port_end %d below port_start %d", c.Worker.PortEnd, c.Worker.PortStart)
	}
	if c.HTTP.RateLimit.RPS < 0 {
		return fmt.Errorf("http.rate_limit.rps must not be negative")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes must not be negative")
	}
	return nil
}

// DefaultModelPaths returns the configured default weights.
func (c Config) DefaultModelPaths() engine.ModelPaths {
	p := engine.ModelPaths{Decoder: c.Models.GPT, Vocoder: c.Models.SoVITS}
	for _, aux := range []string{c.Models.BERT, c.Models.HuBERT} {
		if aux != "" {
			p.Aux = append(p.Aux, aux)
		}
	}
	return p
}

// DevicePin returns the pinned accelerator index, or -1.
func (c Config) DevicePin() int {
	if c.Device.Index == nil {
		return -1
	}
	return *c.Device.Index
}

// Duration is a time.Duration read from strings such as "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
