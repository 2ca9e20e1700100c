package synth

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"ttsd/internal/apperr"
	"ttsd/internal/engine"
	"ttsd/internal/staging"
	"ttsd/pkg/types"
)

// Request defaults, matching the service's public contract.
const (
	DefaultTextLanguage      = "auto"
	DefaultPromptLanguage    = "zh"
	DefaultSplitMethod       = "none"
	DefaultTopK              = 20
	DefaultTopP              = 0.6
	DefaultTemperature       = 0.6
	DefaultBatchSize         = 1
	DefaultBatchThreshold    = 0.75
	DefaultSpeed             = 1.0
	DefaultPause             = 0.3
	DefaultSeed              = -1
	DefaultRepetitionPenalty = 1.35
	DefaultSampleSteps       = 32
)

// splitMethods maps public segmentation names to engine method names.
var splitMethods = map[string]string{
	"none":            "cut0",
	"sentences":       "cut1",
	"balanced":        "cut2",
	"zh_punctuation":  "cut3",
	"en_punctuation":  "cut4",
	"all_punctuation": "cut5",
}

// SplitMethods returns the accepted segmentation names in engine order.
func SplitMethods() []string {
	names := make([]string, 0, len(splitMethods))
	for name := range splitMethods {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int { return strings.Compare(splitMethods[a], splitMethods[b]) })
	return names
}

// Request is one synthesis request with defaults applied.
type Request struct {
	Text           string
	TextLanguage   string
	PromptText     string
	PromptLanguage string

	ReferenceAudio     string // base64
	ReferenceAudioPath string
	AuxiliaryAudios    []string // base64

	GPTModelPath    string
	SoVITSModelPath string

	TopK              int
	TopP              float64
	Temperature       float64
	RepetitionPenalty float64
	SplitMethod       string
	BatchSize         int
	BatchThreshold    float64
	Speed             float64
	Pause             float64
	Seed              int64
	SampleSteps       int
	// ParallelInfer nil means "an accelerator is active".
	ParallelInfer *bool
}

// NewRequest returns a request with only text set and every other field at
// its default.
func NewRequest(text string) Request {
	return Request{
		Text:              text,
		TextLanguage:      DefaultTextLanguage,
		PromptLanguage:    DefaultPromptLanguage,
		TopK:              DefaultTopK,
		TopP:              DefaultTopP,
		Temperature:       DefaultTemperature,
		RepetitionPenalty: DefaultRepetitionPenalty,
		SplitMethod:       DefaultSplitMethod,
		BatchSize:         DefaultBatchSize,
		BatchThreshold:    DefaultBatchThreshold,
		Speed:             DefaultSpeed,
		Pause:             DefaultPause,
		Seed:              DefaultSeed,
		SampleSteps:       DefaultSampleSteps,
	}
}

// FromAPI converts a decoded request body, filling omitted fields with
// defaults. It performs no validation.
func FromAPI(in types.SynthesisRequest) Request {
	r := NewRequest(in.Text)
	set(&r.ReferenceAudio, in.ReferenceAudio)
	set(&r.ReferenceAudioPath, in.ReferenceAudioPath)
	set(&r.GPTModelPath, in.GPTModelPath)
	set(&r.SoVITSModelPath, in.SoVITSModelPath)
	set(&r.TextLanguage, in.TextLanguage)
	set(&r.PromptText, in.PromptText)
	set(&r.PromptLanguage, in.PromptLanguage)
	set(&r.TopK, in.TopK)
	set(&r.TopP, in.TopP)
	set(&r.Temperature, in.Temperature)
	set(&r.SplitMethod, in.TextSplitMethod)
	set(&r.BatchSize, in.BatchSize)
	set(&r.BatchThreshold, in.BatchThreshold)
	set(&r.Speed, in.Speed)
	set(&r.Pause, in.Pause)
	set(&r.Seed, in.Seed)
	set(&r.RepetitionPenalty, in.RepetitionPenalty)
	set(&r.SampleSteps, in.SampleSteps)
	if in.ParallelInfer != nil {
		v := *in.ParallelInfer
		r.ParallelInfer = &v
	}
	r.AuxiliaryAudios = slices.Clone(in.AuxiliaryReferenceAudios)
	return r
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks the request against languages, the set the active model
// accepts. It has no side effects and touches no files. A request that
// names its own weights skips the language check here; CheckLanguages runs
// once those weights are loaded.
func (r Request) Validate(languages []string) error {
	if strings.TrimSpace(r.Text) == "" {
		return apperr.Validation("text", "text must not be empty")
	}
	if r.ModelPaths() == nil {
		if err := r.CheckLanguages(languages); err != nil {
			return err
		}
	}
	if _, ok := splitMethods[r.SplitMethod]; !ok {
		return apperr.Validation("text_split_method", "unsupported text_split_method %q; options: %s", r.SplitMethod, strings.Join(SplitMethods(), ", "))
	}
	checks := []struct {
		field    string
		v        float64
		min, max float64
	}{
		{"top_k", float64(r.TopK), 1, 100},
		{"top_p", r.TopP, 0, 1},
		{"temperature", r.Temperature, 0, 1},
		{"batch_size", float64(r.BatchSize), 1, 4},
		{"batch_threshold", r.BatchThreshold, 0.1, 1.5},
		{"speed", r.Speed, 0.3, 2.0},
		{"pause", r.Pause, 0, 1},
		{"repetition_penalty", r.RepetitionPenalty, 0.5, 2.5},
		{"sample_steps", float64(r.SampleSteps), 4, 128},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.min || c.v > c.max {
			return apperr.Validation(c.field, "%s must be between %s and %s", c.field, num(c.min), num(c.max))
		}
	}
	hasInline, hasPath := r.ReferenceAudio != "", r.ReferenceAudioPath != ""
	switch {
	case hasInline && hasPath:
		return apperr.Validation("reference_audio", "provide only one of reference_audio or reference_audio_path")
	case !hasInline && !hasPath:
		return apperr.Validation("reference_audio", "either reference_audio or reference_audio_path must be provided")
	}
	if (r.GPTModelPath == "") != (r.SoVITSModelPath == "") {
		return apperr.Validation("gpt_model_path", "gpt_model_path and sovits_model_path must be given together")
	}
	return nil
}

// CheckLanguages reports a validation error when the text or prompt
// language is not in languages.
func (r Request) CheckLanguages(languages []string) error {
	if !slices.Contains(languages, r.TextLanguage) {
		return apperr.Validation("text_language", "unsupported text_language %q; valid options: %s", r.TextLanguage, sortedList(languages))
	}
	if !slices.Contains(languages, r.PromptLanguage) {
		return apperr.Validation("prompt_language", "unsupported prompt_language %q; valid options: %s", r.PromptLanguage, sortedList(languages))
	}
	return nil
}

// ModelPaths returns the request's model override, or nil.
func (r Request) ModelPaths() *engine.ModelPaths {
	if r.GPTModelPath == "" || r.SoVITSModelPath == "" {
		return nil
	}
	return &engine.ModelPaths{Decoder: r.GPTModelPath, Vocoder: r.SoVITSModelPath}
}

// inputs lists what must be staged: the reference first, then auxiliaries.
func (r Request) inputs() []staging.Input {
	ins := make([]staging.Input, 0, 1+len(r.AuxiliaryAudios))
	if r.ReferenceAudioPath != "" {
		ins = append(ins, staging.Path("reference_audio_path", r.ReferenceAudioPath))
	} else {
		ins = append(ins, staging.Inline("reference_audio", r.ReferenceAudio))
	}
	for i, a := range r.AuxiliaryAudios {
		ins = append(ins, staging.Inline(fmt.Sprintf("auxiliary_reference_audios[%d]", i), a))
	}
	return ins
}

// params builds the engine parameter bag from staged paths.
func (r Request) params(ref string, aux []string, accelerated bool) engine.Params {
	parallel := accelerated
	if r.ParallelInfer != nil {
		parallel = *r.ParallelInfer
	}
	if aux == nil {
		aux = []string{}
	}
	return engine.Params{
		Text:              r.Text,
		TextLang:          r.TextLanguage,
		RefAudioPath:      ref,
		AuxRefAudioPaths:  aux,
		PromptText:        r.PromptText,
		PromptLang:        r.PromptLanguage,
		TopK:              r.TopK,
		TopP:              r.TopP,
		Temperature:       r.Temperature,
		TextSplitMethod:   splitMethods[r.SplitMethod],
		BatchSize:         r.BatchSize,
		BatchThreshold:    r.BatchThreshold,
		SpeedFactor:       r.Speed,
		SplitBucket:       true,
		FragmentInterval:  r.Pause,
		Seed:              r.Seed,
		ParallelInfer:     parallel,
		RepetitionPenalty: r.RepetitionPenalty,
		SampleSteps:       r.SampleSteps,
		ReturnFragment:    false,
	}
}

func sortedList(xs []string) string {
	s := slices.Clone(xs)
	slices.Sort(s)
	return strings.Join(s, ", ")
}

func num(f float64) string { return fmt.Sprintf("%g", f) }
