package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Provider: ProviderConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "llama-3.1-8b-instant",
			TimeoutSeconds: 60,
		},
		Auth: AuthConfig{
			SessionTTLHours: 24,
		},
		Storage: StorageConfig{
			Store: "sqlite",
			Path:  "data/8berries.db",
		},
		Uploads: UploadsConfig{
			Dir: "uploads",
		},
		Logging: LoggingConfig{
			Level: "info",
			Style: "pretty",
		},
	}
}
