// Package config handles XDG configuration directory and file paths.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "taskman"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// APIURLEnv overrides the API base URL.
	APIURLEnv = "TASKMAN_API_URL"

	// DefaultAPIURL is used when no override is configured.
	DefaultAPIURL = "http://localhost:8000"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the Task Manager API.
	APIURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskman or $HOME/.config/taskman.
// If apiURL is empty, uses TASKMAN_API_URL or the default.
func New(configDir, apiURL string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	if apiURL == "" {
		apiURL = DefaultAPIEndpoint()
	}
	return &Config{Dir: dir, APIURL: apiURL}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultAPIEndpoint returns the API base URL from the environment or the default.
func DefaultAPIEndpoint() string {
	if url := os.Getenv(APIURLEnv); url != "" {
		return url
	}
	return DefaultAPIURL
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads and parses the stored token.
// Returns nil with no error if no token is stored.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// SaveToken persists a token to the token file with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// RemoveToken deletes the token file. Missing file is not an error.
func (c *Config) RemoveToken() error {
	err := os.Remove(c.TokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
