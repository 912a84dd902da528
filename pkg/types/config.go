// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ModelConfig holds shared settings for calls to the language model endpoint.
type ModelConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for transient failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-request HTTP timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RequestsPerMinute is the endpoint's request-rate ceiling. The
	// orchestrator paces all extraction calls to stay under it
	// (default 60; 0 uses the default).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// ChunkingConfig holds the windowing parameters for document text.
type ChunkingConfig struct {
	// Size is the target character count per chunk (default 3000).
	Size int `json:"size" yaml:"size"`

	// Overlap is the character count shared with the previous chunk
	// (default 500). Must be smaller than Size.
	Overlap int `json:"overlap" yaml:"overlap"`

	// MaxChunksPerDocument caps how many chunks of each document are sent
	// to the model. Zero means no cap.
	MaxChunksPerDocument int `json:"max_chunks_per_document" yaml:"max_chunks_per_document"`
}

// StoreConfig holds settings for the initiative database.
type StoreConfig struct {
	// Path is the SQLite database file (default "database/dx-index.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	// DataDir is the directory scanned for report PDFs (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// OutputDir receives JSON artifacts and raw-extraction audit files
	// (default "outputs").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// EmitJSON controls whether per-document and consolidated JSON
	// artifacts are written.
	EmitJSON bool `json:"emit_json" yaml:"emit_json"`

	// SimilarityThreshold is the token-overlap ratio at or above which two
	// candidates from adjacent chunks are treated as the same initiative
	// (default 0.9; exact matches always dedupe).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	Chunking ChunkingConfig `json:"chunking" yaml:"chunking"`
	Model    ModelConfig    `json:"model" yaml:"model"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}
