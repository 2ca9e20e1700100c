package worker

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ttsd/internal/device"
	"ttsd/internal/engine"
	"ttsd/internal/session"
)

const stderrTailBytes = 4096

// process is one spawned worker.
type process struct {
	cmd     *exec.Cmd
	pid     int
	baseURL string
	stderr  *tailBuffer
	done    chan struct{}
	waitErr error
	once    sync.Once
}

// workerArgs renders the command line for paths on profile.
func workerArgs(extra []string, paths engine.ModelPaths, profile device.Profile, host string, port int) []string {
	args := append([]string(nil), extra...)
	args = append(args,
		"--gpt-model", paths.Decoder,
		"--sovits-model", paths.Vocoder,
	)
	for _, a := range paths.Aux {
		args = append(args, "--aux-model", a)
	}
	args = append(args,
		"--device", profile.String(),
		"--precision", string(profile.Precision),
		"--host", host,
		"--port", strconv.Itoa(port),
	)
	return args
}

func (f *Factory) spawn(ctx context.Context, paths engine.ModelPaths, profile device.Profile) (*process, error) {
	host := f.cfg.Host
	var (
		port int
		err  error
	)
	if f.cfg.PortStart > 0 && f.cfg.PortEnd >= f.cfg.PortStart {
		port, err = pickPortInRange(host, f.cfg.PortStart, f.cfg.PortEnd)
	} else {
		port, err = pickFreePort(host)
	}
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(f.cfg.Bin, workerArgs(f.cfg.Args, paths, profile, host, port)...)
	cmd.Env = append(os.Environ(), f.cfg.Env...)
	tail := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	p := &process{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		baseURL: fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port))),
		stderr:  tail,
		done:    make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	f.log.Info().Str("event", "spawn_start").Int("pid", p.pid).Str("url", p.baseURL).
		Str("gpt", paths.Decoder).Str("sovits", paths.Vocoder).Msg("worker started")
	f.pub.Publish(session.Event{Name: "worker_start", Fields: map[string]any{"pid": p.pid, "url": p.baseURL}})

	if err := f.waitHealthy(ctx, p.baseURL, p); err != nil {
		p.stop(f.log)
		f.pub.Publish(session.Event{Name: "worker_failed", Fields: map[string]any{"pid": p.pid, "error": err.Error()}})
		return nil, err
	}
	return p, nil
}

// waitHealthy polls /health until it answers 2xx, the ready timeout passes,
// ctx ends, or the spawned process p (when non-nil) exits.
func (f *Factory) waitHealthy(ctx context.Context, base string, p *process) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ReadyTimeout)
	defer cancel()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var exited <-chan struct{}
	if p != nil {
		exited = p.done
	}
	for {
		if f.healthy(ctx, base) {
			return nil
		}
		select {
		case <-exited:
			if p.waitErr != nil {
				return fmt.Errorf("worker exited early: %v; stderr tail: %s", p.waitErr, p.stderr.String())
			}
			return fmt.Errorf("worker exited before ready: %s", base)
		case <-ctx.Done():
			return fmt.Errorf("worker not ready at %s: %w", base, ctx.Err())
		case <-tick.C:
		}
	}
}

func (f *Factory) healthy(ctx context.Context, base string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// stop sends SIGTERM and kills the worker if it has not exited after two
// seconds. Safe to call more than once.
func (p *process) stop(log zerolog.Logger) {
	p.once.Do(func() {
		_ = p.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			_ = p.cmd.Process.Kill()
			<-p.done
		}
		log.Info().Str("event", "spawn_stop").Int("pid", p.pid).Msg("worker stopped")
	})
}

func pickPortInRange(host string, start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
