// Package config loads service settings from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultPort = 5000

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Predict   PredictConfig   `yaml:"predict"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Stream         bool          `yaml:"stream"`
}

// ArtifactsConfig points at the fitted model files. Empty file names fall back
// to the standard names under Dir.
type ArtifactsConfig struct {
	Dir          string `yaml:"dir"`
	Features     string `yaml:"features"`
	Scaler       string `yaml:"scaler"`
	LabelEncoder string `yaml:"label_encoder"`
	Model        string `yaml:"model"`
	ModelType    string `yaml:"model_type"`
	Watch        bool   `yaml:"watch"`
}

type PredictConfig struct {
	MissingPolicy string `yaml:"missing_policy"`
	CacheSize     int    `yaml:"cache_size"`
}

// HistoryConfig enables the prediction history store when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           DefaultPort,
			Timeout:        30 * time.Second,
			MaxBodyBytes:   1 << 20,
			AllowedOrigins: []string{"*"},
			Stream:         true,
		},
		Artifacts: ArtifactsConfig{
			Dir:       "model",
			ModelType: "dense",
		},
		Predict: PredictConfig{
			MissingPolicy: "zero",
			CacheSize:     1024,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.HTTP.Port = port
	}
	c.Artifacts.Dir = getEnv("ARTIFACT_DIR", c.Artifacts.Dir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.History.Path = getEnv("HISTORY_DB", c.History.Path)
	return nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http max_body_bytes must be positive")
	}
	if c.Predict.CacheSize < 0 {
		return errors.New("predict cache_size must not be negative")
	}
	return nil
}

// ArtifactFile resolves one artifact path: explicit name if set, else def under Dir.
// Relative explicit names are resolved against Dir too.
func (a ArtifactsConfig) ArtifactFile(name, def string) string {
	if name == "" {
		name = def
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
