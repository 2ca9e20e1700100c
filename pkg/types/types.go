package types

// WeightFile is a discoverable decoder or vocoder weight file on disk.
type WeightFile struct {
	// File name relative to the weights directory.
	// example: GPT_weights_v2ProPlus/narrator-e15.ckpt
	Name string `json:"name" example:"GPT_weights_v2ProPlus/narrator-e15.ckpt"`
	// Absolute path to the weight file.
	// example: /srv/weights/GPT_weights_v2ProPlus/narrator-e15.ckpt
	Path string `json:"path" example:"/srv/weights/GPT_weights_v2ProPlus/narrator-e15.ckpt"`
	// Size in bytes.
	// example: 155000000
	SizeBytes int64 `json:"size_bytes" example:"155000000"`
}

// ModelsResponse wraps the weight files returned by GET /models.
type ModelsResponse struct {
	// Decoder (GPT) weights, natural sort order.
	Decoders []WeightFile `json:"gpt_models"`
	// Vocoder (SoVITS) weights, natural sort order.
	Vocoders []WeightFile `json:"sovits_models"`
}
