package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadSettings
const (
	EnvStrict    = "PLANFORGE_STRICT"
	EnvLogLevel  = "PLANFORGE_LOG_LEVEL"
	EnvLogFormat = "PLANFORGE_LOG_FORMAT"
	EnvAddr      = "PLANFORGE_ADDR"
	EnvCORS      = "PLANFORGE_CORS_ALLOW_ORIGINS"
)

// Settings are the process-level knobs shared by the CLI and the preview server
type Settings struct {
	Strict    bool
	LogLevel  string
	LogFormat string
	Addr      string

	// CORSOrigins enables CORS on the preview server when non-empty
	CORSOrigins []string
}

// DefaultSettings returns strict compilation, info-level human-readable logging and the local preview address
func DefaultSettings() Settings {
	return Settings{
		Strict:    true,
		LogLevel:  "info",
		LogFormat: "human",
		Addr:      "127.0.0.1:8080",
	}
}

// LoadSettings reads settings from the environment after loading the given
// dotenv files. Missing files are skipped; variables already set in the
// environment win over file values.
func LoadSettings(envFiles ...string) (Settings, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Settings{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	s := DefaultSettings()
	if v, ok := os.LookupEnv(EnvStrict); ok && strings.TrimSpace(v) != "" {
		strict, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", EnvStrict, err)
		}
		s.Strict = strict
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		switch strings.ToLower(v) {
		case "human", "json":
			s.LogFormat = strings.ToLower(v)
		default:
			return Settings{}, fmt.Errorf("%s: unknown log format %q", EnvLogFormat, v)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		s.Addr = v
	}
	if origins := strings.Fields(os.Getenv(EnvCORS)); len(origins) > 0 {
		s.CORSOrigins = origins
	}
	return s, nil
}
