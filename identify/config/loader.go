package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads and validates configuration from a YAML file.
// An empty path yields a config built entirely from defaults and environment.
func LoadConfig(path string) (*MusicIDConfig, error) {
	config := &MusicIDConfig{Version: "1.0"}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Configuration file not found: %s", path),
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Error reading configuration file: %v", err),
			}
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Error parsing YAML file: %v", err),
			}
		}
	}

	applyEnvironment(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvironment overlays credentials from a .env file and the process
// environment on top of file values. Environment wins over the file.
func applyEnvironment(config *MusicIDConfig) {
	_ = godotenv.Load()

	if key := os.Getenv("ACOUSTID_API_KEY"); key != "" {
		config.Identify.APIKey = key
	}
	if id := os.Getenv("SPOTIFY_CLIENT_ID"); id != "" {
		config.Enrich.ClientID = id
	}
	if secret := os.Getenv("SPOTIFY_CLIENT_SECRET"); secret != "" {
		config.Enrich.ClientSecret = secret
	}
}
