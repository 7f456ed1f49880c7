package discovery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/uimap/axdriver"
	"github.com/hazyhaar/uimap/explore"
	"github.com/hazyhaar/uimap/similarity"
)

// Config is the top-level discovery configuration.
type Config struct {
	// BaseURL is the entry point of the UI under discovery. Required.
	BaseURL string `yaml:"base_url"`

	// SeedPath is an optional previously exported graph to seed from.
	SeedPath string `yaml:"seed_path"`

	// OutPath receives the exported graph JSON. Default: "uimap.json".
	OutPath string `yaml:"out_path"`

	// DBPath is the run history database. Default: "uimap.db".
	DBPath string `yaml:"db_path"`

	// Threshold overrides the match threshold. Default: 0.80.
	Threshold float64 `yaml:"threshold"`

	// Weights overrides the scorer weights; zero value keeps defaults.
	Weights similarity.Weights `yaml:"weights"`

	Explore explore.Config  `yaml:"explore"`
	Browser axdriver.Config `yaml:"browser"`

	// HTTPAddr enables the read-only HTTP API when non-empty.
	HTTPAddr string `yaml:"http_addr"`
}

func (c *Config) defaults() {
	if c.OutPath == "" {
		c.OutPath = "uimap.json"
	}
	if c.DBPath == "" {
		c.DBPath = "uimap.db"
	}
	if c.Threshold <= 0 {
		c.Threshold = similarity.DefaultThreshold
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("discovery: base_url is required")
	}
	if c.Threshold > 1 {
		return fmt.Errorf("discovery: threshold %v out of range", c.Threshold)
	}
	return nil
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("discovery: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("discovery: parse config: %w", err)
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
