// Package config holds application settings for the 10-K drafting assistant.
// Settings are loaded from a YAML file when present, with coded defaults so
// the pipeline runs without any config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config contains all tunable settings for the drafting pipeline.
type Config struct {
	// Storage paths
	DataDir      string `yaml:"data_dir"`      // Root for downloaded filings
	DocumentsDir string `yaml:"documents_dir"` // Subdirectory for raw HTML

	// Chunking / retrieval
	ChunkSize    int `yaml:"chunk_size"`    // Max chunk length in characters
	ChunkOverlap int `yaml:"chunk_overlap"` // Overlap between adjacent chunks
	TopK         int `yaml:"top_k"`         // Chunks retrieved per generation query

	// Fetcher politeness: minimum delay between outbound requests
	RequestDelayMs int `yaml:"request_delay_ms"`

	// Model settings
	LLMModel       string `yaml:"llm_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	// Metrics the MD&A generator treats as required before drafting.
	// Checked against parsed financial data; uncovered entries become
	// clarification questions.
	RequiredMetrics []string `yaml:"required_metrics"`

	// Companies supported by the CLI (ticker -> display name)
	Companies map[string]string `yaml:"companies"`

	// HTTP server
	APIAddr string `yaml:"api_addr"`
}

// Default returns the coded defaults, mirroring the constants the system was
// tuned with.
func Default() *Config {
	return &Config{
		DataDir:        "data",
		DocumentsDir:   "10k_filings",
		ChunkSize:      1000,
		ChunkOverlap:   200,
		TopK:           5,
		RequestDelayMs: 100,
		LLMModel:       "gemini-2.0-flash-exp",
		EmbeddingModel: "text-embedding-004",
		RequiredMetrics: []string{
			"Total Revenue",
			"Net Income",
			"Cash Flow from Operations",
		},
		Companies: map[string]string{
			"NVDA": "NVIDIA Corporation",
			"MSFT": "Microsoft Corporation",
			"KO":   "The Coca-Cola Company",
			"NKE":  "Nike, Inc.",
			"AMZN": "Amazon.com, Inc.",
			"DASH": "DoorDash, Inc.",
			"TJX":  "The TJX Companies, Inc.",
			"DRI":  "Darden Restaurants, Inc.",
			"UBER": "Uber Technologies, Inc.",
		},
		APIAddr: ":8080",
	}
}

// Load reads settings from the given YAML file, layering them over defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// FilingsDir returns the directory where downloaded filings are cached,
// creating it if necessary.
func (c *Config) FilingsDir() (string, error) {
	dir := filepath.Join(c.DataDir, c.DocumentsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create documents dir: %w", err)
	}
	return dir, nil
}
