package client

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is used when neither the settings file nor the environment names a server
const DefaultAPIURL = "http://localhost:8080"

// APIURLEnv overrides the api_url setting
const APIURLEnv = "RECIPEBOOK_API_URL"

// Settings is the client configuration file
type Settings struct {
	APIURL   string `yaml:"api_url"`
	StateDir string `yaml:"state_dir"`
}

// DefaultSettings points at a local server and keeps state under the user config directory
func DefaultSettings() Settings {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return Settings{
		APIURL:   DefaultAPIURL,
		StateDir: filepath.Join(dir, "recipebook"),
	}
}

// DefaultSettingsPath is <state dir>/config.yaml of the default settings
func DefaultSettingsPath() string {
	return filepath.Join(DefaultSettings().StateDir, "config.yaml")
}

// LoadSettings reads path, filling gaps with defaults. A missing file is not an error.
func LoadSettings(fs afero.Fs, path string) (Settings, error) {
	s := DefaultSettings()

	data, err := afero.ReadFile(fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("read settings: %w", err)
	default:
		var fromFile Settings
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
		}
		if fromFile.APIURL != "" {
			s.APIURL = fromFile.APIURL
		}
		if fromFile.StateDir != "" {
			s.StateDir = fromFile.StateDir
		}
	}

	if v := os.Getenv(APIURLEnv); v != "" {
		s.APIURL = v
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks that the API URL is absolute http(s)
func (s Settings) Validate() error {
	u, err := url.Parse(s.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", s.APIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an absolute http(s) URL", s.APIURL)
	}
	if s.StateDir == "" {
		return errors.New("state_dir must not be empty")
	}
	return nil
}

// SaveSettings writes s as YAML
func SaveSettings(fs afero.Fs, path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0o600)
}
