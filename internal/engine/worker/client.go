package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ttsd/internal/device"
	"ttsd/internal/engine"
)

type client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// Info is the worker's self-description.
type Info struct {
	Languages  []string `json:"languages"`
	SampleRate int      `json:"sample_rate"`
}

func (c *client) info(ctx context.Context) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/info", nil)
	if err != nil {
		return Info{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("decode info: %w", err)
	}
	return info, nil
}

// LoadRequest asks a running worker to switch to a set of weights on a
// device. The worker answers 2xx only once the new model serves.
type LoadRequest struct {
	GPTModelPath    string   `json:"gpt_model_path"`
	SoVITSModelPath string   `json:"sovits_model_path"`
	AuxPaths        []string `json:"aux_paths,omitempty"`
	Device          string   `json:"device"`
	Precision       string   `json:"precision"`
}

func newLoadRequest(paths engine.ModelPaths, profile device.Profile) LoadRequest {
	return LoadRequest{
		GPTModelPath:    paths.Decoder,
		SoVITSModelPath: paths.Vocoder,
		AuxPaths:        paths.Aux,
		Device:          profile.String(),
		Precision:       string(profile.Precision),
	}
}

func (c *client) load(ctx context.Context, lr LoadRequest, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	body, err := json.Marshal(lr)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/load", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("worker load request: %w", err)
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return fmt.Errorf("worker load %s: %w", lr.GPTModelPath, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *client) synthesize(ctx context.Context, p engine.Params) (engine.Stream, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	body, err := json.Marshal(p)
	if err != nil {
		cancel()
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/synthesize", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("X-Request-ID", reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("worker request: %w", err)
	}
	if err := statusError(resp); err != nil {
		_ = resp.Body.Close()
		cancel()
		return nil, err
	}
	c.log.Debug().Str("request_id", reqID).Int("text_len", len(p.Text)).Msg("worker synthesis started")
	return newStream(resp.Body, cancel), nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("worker http error: %s: %s", resp.Status, bytes.TrimSpace(b))
}
