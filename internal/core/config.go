package core

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// Config is the session state persisted between invocations.
// An empty Config means the client is not logged in.
type Config struct {
	ServerURL   string `json:"serverUrl,omitempty"`
	OrgName     string `json:"orgName,omitempty"`
	BaseURL     string `json:"baseURL,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	UserID      ID     `json:"userId,omitzero"`
	Username    string `json:"username,omitempty"`
	ExpiresIn   int64  `json:"expiresIn,omitempty"`
}

// Authorized reports whether the session carries an access token.
func (c *Config) Authorized() bool {
	return c != nil && c.AccessToken != ""
}

// DefaultConfigPath returns ~/.aiq/config.json.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".aiq", "config.json"), nil
}

// LoadConfig reads the session config. A missing file yields an empty config;
// an unreadable JSON document is logged and treated the same way.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := ReadJSON(path, &config); err != nil {
		if errors.Is(err, ErrCorrupt) {
			slog.Warn("ignoring corrupt config", "path", path, "error", err)
			return &Config{}, nil
		}
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the session config to disk.
func SaveConfig(path string, config Config) error {
	return WriteJSON(path, config)
}

// ClearConfig replaces the stored session with an empty object.
func ClearConfig(path string) error {
	return WriteJSON(path, struct{}{})
}
