package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Storage.Store != "" && !slices.Contains(validStores, cfg.Storage.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "storage.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Storage.Store),
		})
	}
	if cfg.Storage.Store == "sqlite" && cfg.Storage.Path == "" {
		issues = append(issues, ValidationIssue{
			Path:    "storage.path",
			Message: "required when storage.store is sqlite",
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validStyles := []string{"pretty", "json"}
	if cfg.Logging.Style != "" && !slices.Contains(validStyles, cfg.Logging.Style) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.style",
			Message: fmt.Sprintf("must be one of %v, got %q", validStyles, cfg.Logging.Style),
		})
	}

	if cfg.Provider.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "provider.timeoutSeconds",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Provider.TimeoutSeconds),
		})
	}

	// Google login needs both halves of the client credential.
	if (cfg.Auth.GoogleClientID == "") != (cfg.Auth.GoogleClientSecret == "") {
		issues = append(issues, ValidationIssue{
			Path:    "auth.googleClientId",
			Message: "googleClientId and googleClientSecret must be set together",
		})
	}

	return issues
}
