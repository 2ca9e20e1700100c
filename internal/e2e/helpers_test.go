package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"ttsd/internal/app"
	"ttsd/internal/config"
	"ttsd/internal/device"
	"ttsd/internal/engine"
	"ttsd/internal/engine/worker"
)

// fakeWorker speaks the worker protocol and records what it was asked.
type fakeWorker struct {
	srv *httptest.Server

	health atomic.Int64
	synths atomic.Int64

	mu     sync.Mutex
	params []engine.Params
	// refExisted records whether the staged reference was on disk during
	// the call.
	refExisted []bool
	loads      []worker.LoadRequest
	// rejectLoads makes /load answer 500.
	rejectLoads atomic.Bool

	// entered receives one value per /synthesize call when non-nil; the
	// handler then waits on release.
	entered chan struct{}
	release chan struct{}
}

func newFakeWorker(t *testing.T) *fakeWorker {
	t.Helper()
	w := &fakeWorker{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(rw http.ResponseWriter, r *http.Request) {
		w.health.Add(1)
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /load", func(rw http.ResponseWriter, r *http.Request) {
		var lr worker.LoadRequest
		if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if w.rejectLoads.Load() {
			http.Error(rw, "cannot read "+lr.SoVITSModelPath, http.StatusInternalServerError)
			return
		}
		w.mu.Lock()
		w.loads = append(w.loads, lr)
		w.mu.Unlock()
	})
	mux.HandleFunc("GET /info", func(rw http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(rw).Encode(map[string]any{"languages": []string{"en", "zh", "ja"}, "sample_rate": 32000})
	})
	mux.HandleFunc("POST /synthesize", func(rw http.ResponseWriter, r *http.Request) {
		w.synths.Add(1)
		var p engine.Params
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		_, statErr := os.Stat(p.RefAudioPath)
		w.mu.Lock()
		w.params = append(w.params, p)
		w.refExisted = append(w.refExisted, statErr == nil)
		w.mu.Unlock()
		if w.entered != nil {
			w.entered <- struct{}{}
			<-w.release
		}
		rw.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(rw)
		_ = enc.Encode(pcmLine(32000, 8000, 1))
		_ = enc.Encode(pcmLine(32000, 16000, 2))
	})
	w.srv = httptest.NewServer(mux)
	t.Cleanup(w.srv.Close)
	return w
}

func (w *fakeWorker) lastParams(t *testing.T) (engine.Params, bool) {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.params) == 0 {
		t.Fatalf("worker never called")
	}
	return w.params[len(w.params)-1], w.refExisted[len(w.refExisted)-1]
}

// loaded returns the weights of every accepted /load call.
func (w *fakeWorker) loaded() []worker.LoadRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]worker.LoadRequest(nil), w.loads...)
}

func pcmLine(rate, n int, v int16) map[string]any {
	buf := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return map[string]any{"sample_rate": rate, "dtype": "int16", "channels": 1, "pcm": base64.StdEncoding.EncodeToString(buf)}
}

type stack struct {
	srv     *httptest.Server
	app     *app.App
	scratch string
}

// newStack wires the whole service against cfg. Zero values get defaults.
func newStack(t *testing.T, cfg config.Config) *stack {
	t.Helper()
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(t.TempDir(), "scratch")
	}
	if cfg.WeightsDir == "" {
		cfg.WeightsDir = t.TempDir()
	}
	cfg.HTTP.RequestLog = "off"
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	a, err := app.Build(ctx, cfg, zerolog.Nop(), app.Options{Prober: device.StaticProber{}})
	if err != nil {
		cancel()
		t.Fatalf("build: %v", err)
	}
	srv := httptest.NewServer(a.Handler)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
		cancel()
	})
	return &stack{srv: srv, app: a, scratch: cfg.ScratchDir}
}

func (s *stack) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.srv.URL+path, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func (s *stack) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(s.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

// scratchFiles lists what is left in the scratch directory.
func (s *stack) scratchFiles(t *testing.T) []string {
	t.Helper()
	ents, err := os.ReadDir(s.scratch)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func writeWeights(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var out []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
			t.Fatalf("write temp weights %s: %v", p, err)
		}
		out = append(out, p)
	}
	return out
}

func refAudio() string { return base64.StdEncoding.EncodeToString([]byte("RIFF....WAVEfmt ")) }
