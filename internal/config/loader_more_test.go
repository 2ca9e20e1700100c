package config

import (
	"strings"
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/ttsd.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	d := t.TempDir()
	cases := map[string]string{
		"typo.yaml": "models:\n  gtp: /w/g.ckpt\n",
		"typo.json": `{"weights_dir":"/m","scratch":"/tmp"}`,
		"typo.toml": "[worker]\nbinary=\"/opt/w\"\n",
	}
	for name, body := range cases {
		p := writeTempFile(t, d, name, body)
		_, err := Load(p)
		if err == nil {
			t.Fatalf("%s: expected unknown key error", name)
		}
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: error should name the file: %v", name, err)
		}
	}
}

func TestLoad_EmptyYAMLIsZeroConfig(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "" || cfg.Models.GPT != "" {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoad_InvalidSyntax(t *testing.T) {
	d := t.TempDir()
	for name, body := range map[string]string{
		"bad.yaml": "addr: :9880\n: broken\n",
		"bad.json": `{ "addr": ":9880", "weights_dir": }`,
		"bad.toml": "addr=:9880\nweights_dir\n",
	} {
		if _, err := Load(writeTempFile(t, d, name, body)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}
