// Package config loads and validates the YAML configuration.
package config

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Provider ProviderConfig `yaml:"provider,omitempty"`
	Auth     AuthConfig     `yaml:"auth,omitempty"`
	Storage  StorageConfig  `yaml:"storage,omitempty"`
	Uploads  UploadsConfig  `yaml:"uploads,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int    `yaml:"port,omitempty"`
	Host    string `yaml:"host,omitempty"`
	BaseURL string `yaml:"baseUrl,omitempty"` // external URL, used for OAuth redirects
}

// ProviderConfig configures the completion provider.
type ProviderConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR}
	Model          string `yaml:"model,omitempty"`
	MaxTokens      int    `yaml:"maxTokens,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// AuthConfig configures login sessions and Google OAuth.
type AuthConfig struct {
	SessionTTLHours    int    `yaml:"sessionTtlHours,omitempty"`
	SecureCookies      bool   `yaml:"secureCookies,omitempty"`
	GoogleClientID     string `yaml:"googleClientId,omitempty"`
	GoogleClientSecret string `yaml:"googleClientSecret,omitempty"` // supports ${ENV_VAR}
}

// StorageConfig selects the session/credential backend.
type StorageConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
	Path  string `yaml:"path,omitempty"`
}

// UploadsConfig configures file upload storage.
type UploadsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	Style string `yaml:"style,omitempty"` // "pretty" | "json"
}
