package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttsd/internal/apperr"
	"ttsd/internal/device"
	"ttsd/internal/engine"
)

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, device.CPU(), s.Profile())
	assert.Equal(t, engine.DefaultLanguages, s.Languages())
	assert.False(t, s.Ready())
	assert.Equal(t, StateUnloaded, s.Snapshot().State)
}

func TestEnsureLoadedWithoutPathsIsConfigurationError(t *testing.T) {
	f := &fakeFactory{}
	s := New(Config{Factory: f})
	_, err := s.EnsureLoaded(testCtx(t), nil)
	require.True(t, apperr.IsConfiguration(err), "got %v", err)
	assert.Equal(t, 0, f.Calls())
	assert.Equal(t, StateUnloaded, s.Snapshot().State)
}

func TestEnsureLoadedUsesDefaultsOnce(t *testing.T) {
	f := &fakeFactory{}
	pub := NewMemoryPublisher()
	s := New(Config{Factory: f, Defaults: pathsA, Publisher: pub})
	h, err := s.EnsureLoaded(testCtx(t), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Generation)
	assert.True(t, h.Paths.Equal(pathsA))
	assert.Equal(t, []string{"en", "zh"}, s.Languages())

	h2, err := s.EnsureLoaded(testCtx(t), nil)
	require.NoError(t, err)
	assert.Same(t, h, h2)
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, []string{"load_start", "load_ready"}, pub.Names())
}

func TestReloadSwapsAndClosesPrevious(t *testing.T) {
	f := &fakeFactory{}
	s := New(Config{Factory: f})
	hA, err := s.Reload(testCtx(t), pathsA)
	require.NoError(t, err)
	hB, err := s.Reload(testCtx(t), pathsB)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), hB.Generation)
	assert.True(t, hA.Engine.(*fakeEngine).closed.Load())
	assert.False(t, hB.Engine.(*fakeEngine).closed.Load())
	assert.Same(t, hB, s.Current())

	// Same paths again: no reload.
	hB2, err := s.Reload(testCtx(t), pathsB)
	require.NoError(t, err)
	assert.Same(t, hB, hB2)
	assert.Equal(t, 2, f.Calls())
}

func TestReloadFailureKeepsPrevious(t *testing.T) {
	f := &fakeFactory{failFor: map[string]error{"b.ckpt": errors.New("corrupt checkpoint")}}
	pub := NewMemoryPublisher()
	s := New(Config{Factory: f, Publisher: pub})
	hA, err := s.Reload(testCtx(t), pathsA)
	require.NoError(t, err)

	_, err = s.Reload(testCtx(t), pathsB)
	require.True(t, apperr.IsModelLoad(err), "got %v", err)
	assert.Contains(t, err.Error(), "corrupt checkpoint")

	snap := s.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Same(t, hA, s.Current())
	assert.False(t, hA.Engine.(*fakeEngine).closed.Load())
	assert.Equal(t, uint64(1), s.Status().LoadFailuresTotal)
	assert.Contains(t, pub.Names(), "load_failed")
}

func TestFailedFirstLoadIsNotCached(t *testing.T) {
	f := &fakeFactory{failFor: map[string]error{"a.ckpt": errors.New("oom")}}
	s := New(Config{Factory: f, Defaults: pathsA})
	_, err := s.EnsureLoaded(testCtx(t), nil)
	require.True(t, apperr.IsModelLoad(err))
	assert.Equal(t, StateUnloaded, s.Snapshot().State)

	f.mu.Lock()
	f.failFor = nil
	f.mu.Unlock()
	h, err := s.EnsureLoaded(testCtx(t), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Generation)
	assert.Equal(t, 2, f.Calls())
}

func TestIncompletePathsRejected(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}})
	_, err := s.Reload(testCtx(t), engine.ModelPaths{Decoder: "a.ckpt"})
	require.True(t, apperr.IsValidation(err))
}

func TestUnavailableFactoryKeepsKind(t *testing.T) {
	s := New(Config{Defaults: pathsA})
	_, err := s.EnsureLoaded(testCtx(t), nil)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestExclusiveAccessNeverOverlaps(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}, Defaults: pathsA})
	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithExclusiveAccess(testCtx(t), nil, func(ctx context.Context, h *Handle) error {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestReloadNeverObservedHalfSwapped(t *testing.T) {
	f := &fakeFactory{delay: 2 * time.Millisecond}
	s := New(Config{Factory: f})
	_, err := s.Reload(testCtx(t), pathsA)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := s.WithExclusiveAccess(testCtx(t), nil, func(ctx context.Context, h *Handle) error {
					fe := h.Engine.(*fakeEngine)
					if !fe.paths.Equal(h.Paths) {
						t.Errorf("handle paths %v but engine built from %v", h.Paths, fe.paths)
					}
					if fe.closed.Load() {
						t.Errorf("generation %d engine closed while in use", h.Generation)
					}
					if h.Generation == 1 && !h.Paths.Equal(pathsA) || h.Generation == 2 && !h.Paths.Equal(pathsB) {
						t.Errorf("generation %d with paths %v", h.Generation, h.Paths)
					}
					_, err := h.Engine.Synthesize(ctx, engine.Params{})
					return err
				})
				assert.NoError(t, err)
			}
		}()
	}
	time.Sleep(5 * time.Millisecond)
	hB, err := s.Reload(testCtx(t), pathsB)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	close(stop)
	wg.Wait()
	assert.Equal(t, uint64(2), hB.Generation)
}

func TestCanceledWaiterLeavesQueue(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}, Defaults: pathsA})
	entered := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_ = s.WithExclusiveAccess(context.Background(), nil, func(ctx context.Context, h *Handle) error {
			close(entered)
			<-unblock
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var ran atomic.Bool
	go func() {
		done <- s.WithExclusiveAccess(ctx, nil, func(ctx context.Context, h *Handle) error {
			ran.Store(true)
			return nil
		})
	}()
	require.Eventually(t, func() bool { return s.Status().Waiting == 1 }, time.Second, time.Millisecond)
	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	close(unblock)
	assert.False(t, ran.Load())
	require.Eventually(t, func() bool { return s.Status().Inflight == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(0), s.Status().Waiting)
}

func TestHolderRunsToCompletionAfterCancel(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}, Defaults: pathsA})
	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithExclusiveAccess(ctx, nil, func(work context.Context, h *Handle) error {
		cancel()
		if work.Err() != nil {
			return work.Err()
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMaxWaitReportsBusy(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}, Defaults: pathsA, MaxWait: 10 * time.Millisecond})
	entered := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		_ = s.WithExclusiveAccess(context.Background(), nil, func(ctx context.Context, h *Handle) error {
			close(entered)
			<-unblock
			return nil
		})
	}()
	<-entered
	defer close(unblock)
	err := s.WithExclusiveAccess(testCtx(t), nil, func(ctx context.Context, h *Handle) error { return nil })
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(err))
}

func TestCloseReleasesEngine(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}})
	h, err := s.Reload(testCtx(t), pathsA)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.True(t, h.Engine.(*fakeEngine).closed.Load())
	assert.False(t, s.Ready())
}

func TestStatusReportsActivePaths(t *testing.T) {
	s := New(Config{Factory: &fakeFactory{}, Profile: device.Profile{Kind: device.KindAccelerator, Index: 1, Precision: device.FP16}})
	_, err := s.Reload(testCtx(t), pathsB)
	require.NoError(t, err)
	st := s.Status()
	assert.Equal(t, "ready", st.State)
	assert.Equal(t, "b.ckpt", st.GPTModelPath)
	assert.Equal(t, "cuda:1", st.Device)
	assert.Equal(t, "fp16", st.Precision)
	assert.Equal(t, uint64(1), st.LoadsTotal)
}

func TestExplicitPathsInheritConfiguredAux(t *testing.T) {
	f := &fakeFactory{}
	defaults := engine.ModelPaths{Decoder: "a.ckpt", Vocoder: "a.pth", Aux: []string{"bert", "hubert"}}
	s := New(Config{Factory: f, Defaults: defaults})
	h, err := s.EnsureLoaded(testCtx(t), nil)
	require.NoError(t, err)

	// Same weights without aux paths must not trigger a reload.
	h2, err := s.Reload(testCtx(t), pathsA)
	require.NoError(t, err)
	assert.Same(t, h, h2)
	assert.Equal(t, 1, f.Calls())

	hB, err := s.Reload(testCtx(t), pathsB)
	require.NoError(t, err)
	assert.Equal(t, []string{"bert", "hubert"}, hB.Paths.Aux)
}
