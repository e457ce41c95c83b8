package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for the demo CLI. Secret values support
// ${VAR} expansion so the file can stay checked in while keys live in the
// environment (or a .env file).
type Config struct {
	Provider ProviderSection `yaml:"provider"`
	Model    string          `yaml:"model"`
	Search   SearchSection   `yaml:"search"`
}

type ProviderSection struct {
	Kind       string `yaml:"kind"` // openai | azure | ollama | hosted
	APIKey     string `yaml:"api_key"`
	Host       string `yaml:"host"`
	APIVersion string `yaml:"api_version"`
	LicenseKey string `yaml:"license_key"`
	InstanceID string `yaml:"instance_id"`
}

type SearchSection struct {
	Engine         string `yaml:"engine"` // duckduckgo | brave | combined
	BraveAPIKey    string `yaml:"brave_api_key"`
	FetchTopResult bool   `yaml:"fetch_top_result"`
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Provider.Kind == "" {
		return nil, fmt.Errorf("config: provider.kind is required")
	}
	return &cfg, nil
}
