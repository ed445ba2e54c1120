package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EngineFile is the file name looked up in the config directories.
const EngineFile = "engine.yaml"

// LoadEngine loads the engine configuration.
// Search order: customPath -> ~/.tidepool/configs/engine.yaml -> ./configs/engine.yaml -> embedded default
// Files are applied over the built-in defaults, so they only need the keys they change.
func LoadEngine(customPath string) (Engine, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Engine{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := ParseEngine(data)
		if err != nil {
			return Engine{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(EngineFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := ParseEngine(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", EngineFile)); err == nil {
		if cfg, err := ParseEngine(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := ParseEngine(defaultEngineYAML)
	if err != nil {
		return DefaultEngineConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// ParseEngine decodes YAML over the defaults and validates the result.
func ParseEngine(data []byte) (Engine, error) {
	cfg := DefaultEngineConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Engine{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Engine{}, err
	}
	return cfg, nil
}

func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tidepool", "configs", filename)
}
