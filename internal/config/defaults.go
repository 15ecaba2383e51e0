package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns ~/.smartdocq, falling back to the current
// directory when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".smartdocq"
	}
	return filepath.Join(home, ".smartdocq")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBase:        "http://localhost:8080",
		DataDir:        DefaultDataDir(),
		TimeoutSeconds: 60,
		Voice: VoiceConfig{
			Language: "en-US",
		},
		Share: ShareConfig{
			ServePort: 7070,
		},
	}
}
