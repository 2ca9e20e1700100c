package synth

import (
	"errors"
	"fmt"
	"io"
	"math"

	"ttsd/internal/apperr"
	"ttsd/internal/engine"
)

// Aggregation decides how a multi-fragment stream becomes one result.
type Aggregation string

const (
	// AggregateLast keeps only the final fragment.
	AggregateLast Aggregation = "last"
	// AggregateConcat joins every fragment in order.
	AggregateConcat Aggregation = "concat"
)

// ParseAggregation accepts "last" (or empty) and "concat".
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(s) {
	case "", AggregateLast:
		return AggregateLast, nil
	case AggregateConcat:
		return AggregateConcat, nil
	}
	return "", fmt.Errorf("unknown aggregation %q (want last or concat)", s)
}

// collect drains stream and aggregates its fragments into mono int16
// samples.
func collect(stream engine.Stream, policy Aggregation) (int, []int16, error) {
	var (
		rate    int
		samples []int16
		n       int
	)
	for {
		frag, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, nil, engineError("read engine output", err)
		}
		n++
		if frag.SampleRate <= 0 {
			return 0, nil, apperr.Internal("engine output", fmt.Errorf("fragment %d has sample rate %d", n, frag.SampleRate))
		}
		pcm := normalize(frag)
		switch policy {
		case AggregateConcat:
			if rate != 0 && frag.SampleRate != rate {
				return 0, nil, apperr.Internal("engine output", fmt.Errorf("sample rate changed from %d to %d", rate, frag.SampleRate))
			}
			samples = append(samples, pcm...)
		default:
			samples = pcm
		}
		rate = frag.SampleRate
	}
	if n == 0 || len(samples) == 0 {
		return 0, nil, apperr.NoAudioProduced()
	}
	return rate, samples, nil
}

// normalize flattens a fragment to int16 samples. Integer buffers are
// copied; float buffers are truncated toward zero and clamped.
func normalize(f engine.Fragment) []int16 {
	if f.PCM16 != nil {
		out := make([]int16, len(f.PCM16))
		copy(out, f.PCM16)
		return out
	}
	out := make([]int16, len(f.Float))
	for i, v := range f.Float {
		out[i] = toInt16(float64(v))
	}
	return out
}

func toInt16(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(math.Trunc(v))
}

// engineError keeps categorized errors and wraps anything else as internal.
func engineError(msg string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(msg, err)
}
