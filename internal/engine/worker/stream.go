package worker

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"ttsd/internal/engine"
)

// fragmentLine is one NDJSON line of a /synthesize response.
type fragmentLine struct {
	SampleRate int    `json:"sample_rate"`
	Dtype      string `json:"dtype"`
	Channels   int    `json:"channels"`
	PCM        string `json:"pcm"`
	Error      string `json:"error"`
}

// stream decodes fragments lazily from a response body.
type stream struct {
	body   io.ReadCloser
	dec    *json.Decoder
	cancel context.CancelFunc
	n      int
	done   bool
}

func newStream(body io.ReadCloser, cancel context.CancelFunc) *stream {
	return &stream{body: body, dec: json.NewDecoder(body), cancel: cancel}
}

func (s *stream) Next() (engine.Fragment, error) {
	if s.done {
		return engine.Fragment{}, io.EOF
	}
	var line fragmentLine
	if err := s.dec.Decode(&line); err != nil {
		s.done = true
		if errors.Is(err, io.EOF) {
			return engine.Fragment{}, io.EOF
		}
		return engine.Fragment{}, fmt.Errorf("decode fragment %d: %w", s.n+1, err)
	}
	s.n++
	if line.Error != "" {
		s.done = true
		return engine.Fragment{}, fmt.Errorf("worker: %s", line.Error)
	}
	return decodeFragment(line)
}

func (s *stream) Close() error {
	s.done = true
	err := s.body.Close()
	s.cancel()
	return err
}

func decodeFragment(line fragmentLine) (engine.Fragment, error) {
	raw, err := base64.StdEncoding.DecodeString(line.PCM)
	if err != nil {
		return engine.Fragment{}, fmt.Errorf("fragment pcm: %w", err)
	}
	ch := line.Channels
	if ch <= 0 {
		ch = 1
	}
	f := engine.Fragment{SampleRate: line.SampleRate, Channels: ch}
	switch line.Dtype {
	case "", "int16":
		if len(raw)%2 != 0 {
			return engine.Fragment{}, fmt.Errorf("int16 fragment has odd length %d", len(raw))
		}
		f.PCM16 = make([]int16, len(raw)/2)
		for i := range f.PCM16 {
			f.PCM16[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case "float32":
		if len(raw)%4 != 0 {
			return engine.Fragment{}, fmt.Errorf("float32 fragment length %d not a multiple of 4", len(raw))
		}
		f.Float = make([]float32, len(raw)/4)
		for i := range f.Float {
			f.Float[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	default:
		return engine.Fragment{}, fmt.Errorf("unsupported dtype %q", line.Dtype)
	}
	return f, nil
}
