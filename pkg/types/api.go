package types

// SynthesisRequest is the body of POST /tts. Pointer fields distinguish
// "omitted" from zero so defaults can be applied.
type SynthesisRequest struct {
	// Target text to be synthesized.
	// example: Hello there, nice to meet you.
	Text string `json:"text" example:"Hello there, nice to meet you."`
	// Base64-encoded reference audio (mono WAV recommended). Mutually exclusive with reference_audio_path.
	ReferenceAudio *string `json:"reference_audio,omitempty"`
	// Path to a reference audio file readable by the server.
	// example: /srv/refs/narrator.wav
	ReferenceAudioPath *string `json:"reference_audio_path,omitempty" example:"/srv/refs/narrator.wav"`
	// Optional decoder weights; requires sovits_model_path as well.
	GPTModelPath *string `json:"gpt_model_path,omitempty"`
	// Optional vocoder weights; requires gpt_model_path as well.
	SoVITSModelPath *string `json:"sovits_model_path,omitempty"`
	// Language of the target text.
	// example: en
	TextLanguage *string `json:"text_language,omitempty" example:"en"`
	// Transcript of the reference audio; empty when unknown.
	PromptText *string `json:"prompt_text,omitempty"`
	// Language of the prompt text.
	// example: zh
	PromptLanguage *string `json:"prompt_language,omitempty" example:"zh"`
	// Additional base64-encoded reference audios for tone fusion.
	AuxiliaryReferenceAudios []string `json:"auxiliary_reference_audios,omitempty"`
	// Sampling top_k for the decoder (1-100).
	// example: 20
	TopK *int `json:"top_k,omitempty" example:"20"`
	// Sampling top_p for the decoder (0-1).
	// example: 0.6
	TopP *float64 `json:"top_p,omitempty" example:"0.6"`
	// Sampling temperature (0-1).
	// example: 0.6
	Temperature *float64 `json:"temperature,omitempty" example:"0.6"`
	// Text split heuristic: none, sentences, balanced, zh_punctuation, en_punctuation, all_punctuation.
	// example: none
	TextSplitMethod *string `json:"text_split_method,omitempty" example:"none"`
	// Batch size for decoding segments (1-4).
	// example: 1
	BatchSize *int `json:"batch_size,omitempty" example:"1"`
	// Bucket threshold for batching segments (0.1-1.5).
	// example: 0.75
	BatchThreshold *float64 `json:"batch_threshold,omitempty" example:"0.75"`
	// Playback speed factor (0.3-2.0).
	// example: 1.0
	Speed *float64 `json:"speed,omitempty" example:"1.0"`
	// Pause in seconds between segments (0-1).
	// example: 0.3
	Pause *float64 `json:"pause,omitempty" example:"0.3"`
	// Random seed; -1 picks a random seed per request.
	// example: -1
	Seed *int64 `json:"seed,omitempty" example:"-1"`
	// Override for parallel inference; defaults to accelerator availability.
	ParallelInfer *bool `json:"parallel_infer,omitempty"`
	// Repetition penalty for the decoder (0.5-2.5).
	// example: 1.35
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty" example:"1.35"`
	// Diffusion sample steps for the vocoder (4-128).
	// example: 32
	SampleSteps *int `json:"sample_steps,omitempty" example:"32"`
}

// SynthesisResponse is returned by POST /tts.
type SynthesisResponse struct {
	// Sample rate of the encoded audio in Hz.
	// example: 32000
	SampleRate int `json:"sample_rate" example:"32000"`
	// Base64-encoded mono 16-bit PCM WAV.
	AudioBase64 string `json:"audio_base64"`
	// Duration of the audio in seconds.
	// example: 2.5
	DurationSeconds float64 `json:"duration_seconds" example:"2.5"`
}

// MetadataResponse is returned by GET /metadata.
type MetadataResponse struct {
	// Model family tag.
	// example: v2ProPlus
	Version string `json:"version" example:"v2ProPlus"`
	// Active inference device.
	// example: cuda:0
	Device string `json:"device" example:"cuda:0"`
	// Whether half precision is the process default.
	// example: true
	IsHalf bool `json:"is_half" example:"true"`
	// Accepted text_language values.
	TextLanguages []string `json:"text_languages"`
	// Accepted prompt_language values.
	PromptLanguages []string `json:"prompt_languages"`
	// Accepted text_split_method values.
	TextSplitMethods []string `json:"text_split_methods"`
}

// LoadModelsRequest is the body of POST /load_models.
type LoadModelsRequest struct {
	// Decoder weights (.ckpt).
	// example: /srv/weights/GPT_weights_v2ProPlus/narrator-e15.ckpt
	GPTModelPath string `json:"gpt_model_path" example:"/srv/weights/GPT_weights_v2ProPlus/narrator-e15.ckpt"`
	// Vocoder weights (.pth).
	// example: /srv/weights/SoVITS_weights_v2ProPlus/narrator_e8_s200.pth
	SoVITSModelPath string `json:"sovits_model_path" example:"/srv/weights/SoVITS_weights_v2ProPlus/narrator_e8_s200.pth"`
}

// LoadModelsResponse is returned by POST /load_models.
type LoadModelsResponse struct {
	// example: true
	Success bool `json:"success" example:"true"`
	// Human readable outcome.
	Message string `json:"message"`
	// Generation of the session after the load.
	// example: 2
	Generation uint64 `json:"generation" example:"2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unsupported text_language 'xx'
	Error string `json:"error" example:"unsupported text_language 'xx'"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Stable error category.
	// example: validation
	Kind string `json:"kind,omitempty" example:"validation"`
	// Offending request field, when known.
	// example: text_language
	Field string `json:"field,omitempty" example:"text_language"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Session lifecycle state (unloaded, loading, ready, reloading).
	// example: ready
	State string `json:"state" example:"ready"`
	// Generation of the loaded engine; 0 before the first load.
	// example: 1
	Generation uint64 `json:"generation" example:"1"`
	// Active decoder weights.
	GPTModelPath string `json:"gpt_model_path,omitempty"`
	// Active vocoder weights.
	SoVITSModelPath string `json:"sovits_model_path,omitempty"`
	// Active inference device.
	// example: cuda:0
	Device string `json:"device" example:"cuda:0"`
	// Precision of the active device.
	// example: fp16
	Precision string `json:"precision" example:"fp16"`
	// Requests waiting for the exclusive gate.
	// example: 0
	Waiting int64 `json:"waiting" example:"0"`
	// Operations holding the gate (0 or 1).
	// example: 1
	Inflight int64 `json:"inflight" example:"1"`
	// Successful loads since start.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Failed loads since start.
	// example: 0
	LoadFailuresTotal uint64 `json:"load_failures_total" example:"0"`
	// Last load error, if any.
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: ok
	Status string `json:"status" example:"ok"`
}
