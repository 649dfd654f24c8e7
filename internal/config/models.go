package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelsConfig holds the per-variant parameters loaded from
// configs/models.yaml.
type ModelsConfig struct {
	Models map[string]ModelParams `yaml:"models"`
}

type ModelParams struct {
	Enabled      bool `yaml:"enabled"`
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
	TopK         int  `yaml:"top_k"`
	MaxTokens    int  `yaml:"max_tokens"`
}

func LoadModelsConfig() (*ModelsConfig, error) {
	path := os.Getenv("MODELS_CONFIG_PATH")
	if path == "" {
		path = "configs/models.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ModelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyModelDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyModelDefaults(cfg *ModelsConfig) {
	for id, params := range cfg.Models {
		if params.ChunkSize == 0 {
			params.ChunkSize = 1500
		}
		if params.ChunkOverlap == 0 {
			params.ChunkOverlap = 50
		}
		if params.TopK == 0 {
			params.TopK = 5
		}
		if params.MaxTokens == 0 {
			params.MaxTokens = 2000
		}
		cfg.Models[id] = params
	}
}

func (c *ModelsConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}
	for id, params := range c.Models {
		if params.ChunkOverlap >= params.ChunkSize {
			return fmt.Errorf("model %s: chunk_overlap must be smaller than chunk_size", id)
		}
	}
	return nil
}

// Params returns the configuration for one instance id.
func (c *ModelsConfig) Params(instanceID string) (ModelParams, error) {
	params, ok := c.Models[instanceID]
	if !ok {
		return ModelParams{}, fmt.Errorf("model %s not configured", instanceID)
	}
	if !params.Enabled {
		return ModelParams{}, fmt.Errorf("model %s is disabled in config", instanceID)
	}
	return params, nil
}
