package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/yomitori/yomitori/internal/engine"
)

type Config struct {
	Log    LogConfig     `toml:"log"`
	Region RegionConfig  `toml:"region"`
	Engine engine.Config `toml:"engine"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// RegionConfig describes the captured screen region in pixels and the
// capture cadence. A zero-size region means "derive from the input".
type RegionConfig struct {
	X          float64 `toml:"x"`
	Y          float64 `toml:"y"`
	Width      float64 `toml:"width"`
	Height     float64 `toml:"height"`
	IntervalMs int     `toml:"interval_ms"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Region: RegionConfig{
			IntervalMs: 500,
		},
		Engine: engine.DefaultConfig(),
	}
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, return defaults
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}

	return config, nil
}
