package synth

import (
	"encoding/base64"

	"ttsd/internal/wav"
	"ttsd/pkg/types"
)

// Result is the synthesized audio of one request.
type Result struct {
	SampleRate int
	Samples    []int16
	// Generation of the engine that produced the audio.
	Generation uint64
}

// Duration returns the length in seconds.
func (r Result) Duration() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// WAV encodes the samples as a mono 16-bit PCM WAV container.
func (r Result) WAV() ([]byte, error) { return wav.EncodeBytes(r.SampleRate, r.Samples) }

// Response builds the transport body with base64 WAV audio.
func (r Result) Response() (types.SynthesisResponse, error) {
	b, err := r.WAV()
	if err != nil {
		return types.SynthesisResponse{}, err
	}
	return types.SynthesisResponse{
		SampleRate:      r.SampleRate,
		AudioBase64:     base64.StdEncoding.EncodeToString(b),
		DurationSeconds: r.Duration(),
	}, nil
}
