package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ttsd/internal/device"
	"ttsd/internal/engine"
)

// fakeEngine records its construction paths and whether it was closed.
type fakeEngine struct {
	paths  engine.ModelPaths
	closed atomic.Bool
}

func (e *fakeEngine) Synthesize(ctx context.Context, p engine.Params) (engine.Stream, error) {
	if e.closed.Load() {
		return nil, errors.New("engine used after close")
	}
	return engine.NewSliceStream(engine.Fragment{SampleRate: 16000, PCM16: []int16{1, 2, 3}}), nil
}

func (e *fakeEngine) Languages() []string { return []string{"en", "zh"} }

func (e *fakeEngine) Close() error {
	e.closed.Store(true)
	return nil
}

// fakeFactory builds fakeEngines; failFor makes construction fail for a decoder path.
type fakeFactory struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]error
	delay   time.Duration
	built   []*fakeEngine
}

func (f *fakeFactory) New(ctx context.Context, paths engine.ModelPaths, profile device.Profile) (engine.Engine, error) {
	f.mu.Lock()
	f.calls++
	err := f.failFor[paths.Decoder]
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	e := &fakeEngine{paths: paths.Clone()}
	f.mu.Lock()
	f.built = append(f.built, e)
	f.mu.Unlock()
	return e, nil
}

func (f *fakeFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	pathsA = engine.ModelPaths{Decoder: "a.ckpt", Vocoder: "a.pth"}
	pathsB = engine.ModelPaths{Decoder: "b.ckpt", Vocoder: "b.pth"}
)

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
