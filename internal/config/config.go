package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds all configurable blockrec settings.
type Config struct {
	DefaultSpeed int    `json:"default_speed"`
	MaxEvents    int    `json:"max_events"`
	OutputDir    string `json:"output_dir"`
	Locale       string `json:"locale"`
	ShareDB      string `json:"share_db"`  // "" → data dir
	ShareURL     string `json:"share_url"` // server for share push/pull
	DefaultBoard string `json:"default_board"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultSpeed: 1,
		MaxEvents:    10000,
		OutputDir:    ".",
		Locale:       "en-US",
		ShareURL:     "http://localhost:8080",
		DefaultBoard: "uno",
	}
}

// Dir returns the blockrec config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "blockrec"), nil
}

// LoadGlobal reads ~/.config/blockrec/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .blockrecconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".blockrecconfig", false)
}

func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, c := range []*Config{global, project} {
		if c == nil {
			continue
		}
		if c.DefaultSpeed > 0 {
			result.DefaultSpeed = c.DefaultSpeed
		}
		if c.MaxEvents > 0 {
			result.MaxEvents = c.MaxEvents
		}
		if c.OutputDir != "" {
			result.OutputDir = c.OutputDir
		}
		if c.Locale != "" {
			result.Locale = c.Locale
		}
		if c.ShareDB != "" {
			result.ShareDB = c.ShareDB
		}
		if c.ShareURL != "" {
			result.ShareURL = c.ShareURL
		}
		if c.DefaultBoard != "" {
			result.DefaultBoard = c.DefaultBoard
		}
	}
	return result
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
