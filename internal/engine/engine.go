// Package engine defines the boundary to the speech synthesis model. The
// model (token decoder plus vocoder) is an external collaborator; this
// package only describes how it is constructed and driven.
package engine

import (
	"context"
	"io"
	"slices"

	"ttsd/internal/device"
)

// ModelPaths identifies the weights an engine is built from. Two values
// are equal exactly when a reload is unnecessary.
type ModelPaths struct {
	Decoder string   `json:"gpt_model_path" yaml:"gpt_model_path" toml:"gpt_model_path"`
	Vocoder string   `json:"sovits_model_path" yaml:"sovits_model_path" toml:"sovits_model_path"`
	Aux     []string `json:"aux_paths,omitempty" yaml:"aux_paths,omitempty" toml:"aux_paths,omitempty"`
}

// Complete reports whether both required weight paths are set.
func (p ModelPaths) Complete() bool { return p.Decoder != "" && p.Vocoder != "" }

// Equal compares every path, auxiliary encoders included.
func (p ModelPaths) Equal(o ModelPaths) bool {
	return p.Decoder == o.Decoder && p.Vocoder == o.Vocoder && slices.Equal(p.Aux, o.Aux)
}

// Clone returns a copy that shares no backing storage.
func (p ModelPaths) Clone() ModelPaths {
	p.Aux = slices.Clone(p.Aux)
	return p
}

// DefaultLanguages is the language set of the v2 model family, used until
// a loaded engine reports its own.
var DefaultLanguages = []string{"auto", "auto_yue", "en", "zh", "ja", "yue", "ko", "all_zh", "all_ja", "all_yue", "all_ko"}

// Params is the parameter bag handed to the engine for one synthesis.
type Params struct {
	Text              string   `json:"text"`
	TextLang          string   `json:"text_lang"`
	RefAudioPath      string   `json:"ref_audio_path"`
	AuxRefAudioPaths  []string `json:"aux_ref_audio_paths"`
	PromptText        string   `json:"prompt_text"`
	PromptLang        string   `json:"prompt_lang"`
	TopK              int      `json:"top_k"`
	TopP              float64  `json:"top_p"`
	Temperature       float64  `json:"temperature"`
	TextSplitMethod   string   `json:"text_split_method"`
	BatchSize         int      `json:"batch_size"`
	BatchThreshold    float64  `json:"batch_threshold"`
	SpeedFactor       float64  `json:"speed_factor"`
	SplitBucket       bool     `json:"split_bucket"`
	FragmentInterval  float64  `json:"fragment_interval"`
	Seed              int64    `json:"seed"`
	ParallelInfer     bool     `json:"parallel_infer"`
	RepetitionPenalty float64  `json:"repetition_penalty"`
	SampleSteps       int      `json:"sample_steps"`
	ReturnFragment    bool     `json:"return_fragment"`
}

// Fragment is one (sample rate, buffer) pair emitted by the engine. Exactly
// one of PCM16 and Float is populated. Multi-channel buffers are
// interleaved frame by frame.
type Fragment struct {
	SampleRate int
	Channels   int
	PCM16      []int16
	Float      []float32
}

// Len returns the number of scalar samples in the buffer.
func (f Fragment) Len() int {
	if f.PCM16 != nil {
		return len(f.PCM16)
	}
	return len(f.Float)
}

// Stream is a lazy, finite, non-restartable sequence of fragments. Next
// returns io.EOF after the last fragment.
type Stream interface {
	Next() (Fragment, error)
	Close() error
}

// Engine is a loaded model instance. It is not safe for concurrent use;
// callers serialize access through the session gate.
type Engine interface {
	Synthesize(ctx context.Context, p Params) (Stream, error)
	// Languages lists the language tags the loaded model accepts.
	Languages() []string
	Close() error
}

// Factory constructs engines. Construction may be slow and may fail.
type Factory interface {
	New(ctx context.Context, paths ModelPaths, profile device.Profile) (Engine, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, paths ModelPaths, profile device.Profile) (Engine, error)

func (f FactoryFunc) New(ctx context.Context, paths ModelPaths, profile device.Profile) (Engine, error) {
	return f(ctx, paths, profile)
}

// SliceStream serves a fixed list of fragments. Useful for engines that
// produce their whole output at once, and for tests.
type SliceStream struct {
	frags []Fragment
	pos   int
}

func NewSliceStream(frags ...Fragment) *SliceStream { return &SliceStream{frags: frags} }

func (s *SliceStream) Next() (Fragment, error) {
	if s.pos >= len(s.frags) {
		return Fragment{}, io.EOF
	}
	f := s.frags[s.pos]
	s.pos++
	return f, nil
}

func (s *SliceStream) Close() error { return nil }
