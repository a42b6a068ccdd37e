package domain

// PipelineConfig holds chunking and retrieval tuning shared by ingestion and query paths.
type PipelineConfig struct {
	MaxTokens          int
	OverlapTokens      int
	MinChunkChars      int
	MaxChunkChars      int
	TopK               int
	DiversityThreshold float32
}

// DefaultPipelineConfig returns the defaults the pipeline was calibrated with.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxTokens:          700,
		OverlapTokens:      100,
		MinChunkChars:      200,
		MaxChunkChars:      8000,
		TopK:               6,
		DiversityThreshold: 0.85,
	}
}
