package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/config"
	"ttsd/internal/device"
	"ttsd/internal/registry"
	"ttsd/pkg/types"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func run(t *testing.T, opts *rootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := buildRootCmdWith(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ttsd.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfigLayering(t *testing.T) {
	path := writeConfig(t, `
addr: ":7000"
weights_dir: /from/file
synthesis:
  aggregate: concat
  max_wait: 2s
`)
	opts := &rootOptions{
		lookupEnv: envMap(map[string]string{
			"TTSD_CONFIG":       path,
			"TTSD_ADDR":         ":7100",
			"GPT_MODEL_PATH":    "/env/g.ckpt",
			"SOVITS_MODEL_PATH": "/env/s.pth",
		}),
		prober: device.StaticProber{},
	}
	// devices is cheap to run and triggers the same resolution as serve
	if _, err := run(t, opts, "devices", "--weights-dir", "/from/flag"); err != nil {
		t.Fatalf("run: %v", err)
	}
	cfg := opts.cfg
	if cfg.Addr != ":7100" {
		t.Fatalf("env should override file: %q", cfg.Addr)
	}
	if cfg.WeightsDir != "/from/flag" {
		t.Fatalf("flag should override file: %q", cfg.WeightsDir)
	}
	if cfg.Synthesis.Aggregate != "concat" || cfg.Synthesis.MaxWait.Duration != 2*time.Second {
		t.Fatalf("file values lost: %+v", cfg.Synthesis)
	}
	if cfg.Models.GPT != "/env/g.ckpt" || cfg.Models.SoVITS != "/env/s.pth" {
		t.Fatalf("legacy env names not applied: %+v", cfg.Models)
	}
}

func TestServeFlagsOverride(t *testing.T) {
	cmd := buildRootCmdWith(&rootOptions{})
	serve, _, err := cmd.Find([]string{"serve"})
	if err != nil {
		t.Fatal(err)
	}
	if err := serve.ParseFlags([]string{
		"--worker-args=--fp16, --quiet",
		"--cors-enabled",
		"--max-wait", "250ms",
		"--device-index", "1",
		"--rate-limit-rps", "2.5",
		"--aggregate", "concat",
	}); err != nil {
		t.Fatal(err)
	}
	var c config.Config
	if err := applyFlags(serve, &c); err != nil {
		t.Fatal(err)
	}
	if len(c.Worker.Args) != 2 || c.Worker.Args[1] != "--quiet" {
		t.Fatalf("worker args: %v", c.Worker.Args)
	}
	if !c.HTTP.CORS.Enabled || c.Synthesis.MaxWait.Duration != 250*time.Millisecond {
		t.Fatalf("http/synthesis: %+v %+v", c.HTTP, c.Synthesis)
	}
	if c.Device.Index == nil || *c.Device.Index != 1 {
		t.Fatalf("device index: %v", c.Device.Index)
	}
	if c.HTTP.RateLimit.RPS != 2.5 || c.Synthesis.Aggregate != "concat" {
		t.Fatalf("rate limit / aggregate: %+v %q", c.HTTP.RateLimit, c.Synthesis.Aggregate)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	opts := &rootOptions{prober: device.StaticProber{}}
	_, err := run(t, opts, "devices", "--log-level", "loud")
	if err == nil || !strings.Contains(err.Error(), "log level") {
		t.Fatalf("expected log level error, got %v", err)
	}
	path := writeConfig(t, "models:\n  gpt: /only/decoder.ckpt\n")
	_, err = run(t, opts, "devices", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDevicesCommand(t *testing.T) {
	opts := &rootOptions{prober: device.StaticProber{
		{Index: 0, Name: "NVIDIA GeForce GTX 1660", Capability: 7.5, MemoryBytes: 6 << 30},
		{Index: 1, Name: "NVIDIA A100", Capability: 8.0, MemoryBytes: 40 << 30},
	}}
	out, err := run(t, opts, "devices")
	if err != nil {
		t.Fatal(err)
	}
	var rep device.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("json: %v\n%s", err, out)
	}
	if rep.Active.Index != 1 || rep.Active.Precision != device.FP16 || !rep.Half {
		t.Fatalf("unexpected report: %+v", rep)
	}

	out, err = run(t, opts, "devices", "--force-cpu")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"kind": "cpu"`) {
		t.Fatalf("force-cpu ignored: %s", out)
	}
}

func TestModelsCommand(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		filepath.Join(registry.DecoderDir, "voice-e10.ckpt"),
		filepath.Join(registry.DecoderDir, "voice-e2.ckpt"),
		filepath.Join(registry.VocoderDir, "voice_e4.pth"),
	} {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("w"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	opts := &rootOptions{}
	out, err := run(t, opts, "models", "--weights-dir", root, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res types.ModelsResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(res.Decoders) != 2 || res.Decoders[0].Name != registry.DecoderDir+"/voice-e2.ckpt" {
		t.Fatalf("decoders not naturally sorted: %+v", res.Decoders)
	}

	out, err = run(t, opts, "models", "--weights-dir", root)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "sovits") || !strings.Contains(out, "voice_e4.pth") {
		t.Fatalf("table output: %s", out)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"service":"ttsd"`) {
		t.Fatalf("output: %s", buf.String())
	}
	if log.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("level: %v", log.GetLevel())
	}
	if _, err := newLogger(&buf, "info", "xml"); err == nil {
		t.Fatalf("unknown format accepted")
	}
	buf.Reset()
	clog, err := newLogger(&buf, "info", "console")
	if err != nil {
		t.Fatal(err)
	}
	clog.Info().Msg("hello console")
	if strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("console writer not used: %s", buf.String())
	}
}
