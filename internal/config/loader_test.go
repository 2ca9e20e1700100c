package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
scratch_dir: /var/tmp/ttsd
models:
  gpt: /w/g.ckpt
  sovits: /w/s.pth
device:
  force_cpu: true
  index: 1
worker:
  bin: /opt/ttsd-worker
  args: [serve, --threads, "4"]
  ready_timeout: 45s
synthesis:
  aggregate: concat
http:
  max_body_bytes: 1024
  rate_limit:
    rps: 2.5
    burst: 3
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ScratchDir != "/var/tmp/ttsd" || cfg.Models.GPT != "/w/g.ckpt" || cfg.Models.SoVITS != "/w/s.pth" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.Device.ForceCPU || cfg.DevicePin() != 1 {
		t.Fatalf("device: %+v", cfg.Device)
	}
	if cfg.Worker.Bin != "/opt/ttsd-worker" || len(cfg.Worker.Args) != 3 || cfg.Worker.ReadyTimeout.Duration != 45*time.Second {
		t.Fatalf("worker: %+v", cfg.Worker)
	}
	if cfg.Synthesis.Aggregate != "concat" || cfg.HTTP.MaxBodyBytes != 1024 || cfg.HTTP.RateLimit.RPS != 2.5 || cfg.HTTP.RateLimit.Burst != 3 {
		t.Fatalf("synthesis/http: %+v %+v", cfg.Synthesis, cfg.HTTP)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","weights_dir":"/m","worker":{"url":"http://127.0.0.1:9000","request_timeout":"2m"},"events":{"nats_url":"nats://localhost:4222"}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.WeightsDir != "/m" || cfg.Worker.URL != "http://127.0.0.1:9000" || cfg.Worker.RequestTimeout.Duration != 2*time.Minute {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Events.NATSURL != "nats://localhost:4222" {
		t.Fatalf("events: %+v", cfg.Events)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nlog_level=\"debug\"\n[synthesis]\nlanguages=[\"en\",\"zh\"]\nmax_wait=\"5s\"\n[http.cors]\nenabled=true\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.LogLevel != "debug" || len(cfg.Synthesis.Languages) != 2 || cfg.Synthesis.MaxWait.Duration != 5*time.Second {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.HTTP.CORS.Enabled {
		t.Fatalf("cors not enabled")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	p = writeTempFile(t, d, "dur.yaml", "worker:\n  ready_timeout: soon\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
