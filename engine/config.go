package engine

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the engine's weft.toml configuration.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Mappings MappingsConfig `toml:"mappings"`
}

// EngineConfig tunes the engine itself.
type EngineConfig struct {
	// Verbosity is the commonlog verbosity passed to the backend by
	// the embedding program (0 = quiet, higher = chattier).
	Verbosity int `toml:"verbosity"`
	// ProbeCacheSize bounds the probe-result cache; 0 means default.
	ProbeCacheSize int `toml:"probe-cache-size"`
}

// MappingsConfig locates the mapping database.
type MappingsConfig struct {
	// File is the TOML mapping source.
	File string `toml:"file"`
	// Cache is the compiled CBOR cache path; empty disables caching.
	Cache string `toml:"cache"`
	// Database is a sqlite mapping store; when set it wins over File.
	Database string `toml:"database"`
}

// LoadConfig parses a weft.toml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engine: cannot read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("engine: parse error in %s: %w", path, err)
	}
	return &cfg, nil
}
