package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/internal/viewport"
	"github.com/rendis/flowviz/pkg/schema"
)

// Config holds all flowviz configuration.
// Priority: env vars > settings.json > defaults. Command-line flags
// override the result per command.
type Config struct {
	LogLevel        string  `json:"log_level"`
	Classifier      string  `json:"classifier"`
	RulesPath       string  `json:"rules_path,omitempty"`
	FitPadding      float64 `json:"fit_padding"`
	ContainerWidth  float64 `json:"container_width"`
	ContainerHeight float64 `json:"container_height"`
	MinZoom         float64 `json:"min_zoom"`
	MaxZoom         float64 `json:"max_zoom"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:        "info",
		Classifier:      extract.ModePattern,
		FitPadding:      viewport.DefaultConfig.FitPadding,
		ContainerWidth:  1024,
		ContainerHeight: 768,
		MinZoom:         viewport.DefaultConfig.MinZoom,
		MaxZoom:         viewport.DefaultConfig.MaxZoom,
	}
}

func flowvizDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowviz"
	}
	return filepath.Join(home, ".flowviz")
}

func settingsPath() string {
	return filepath.Join(flowvizDir(), "settings.json")
}

// loadConfig layers settings from path (missing is fine, unreadable or
// malformed is not) and FLOWVIZ_* env vars over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings.json.
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, schema.NewErrorf(schema.ErrCodeConfig, "parsing settings %s", path).WithCause(err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return cfg, schema.NewErrorf(schema.ErrCodeConfig, "reading settings %s", path).WithCause(err)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWVIZ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWVIZ_CLASSIFIER"); v != "" {
		cfg.Classifier = v
	}
	if v := os.Getenv("FLOWVIZ_RULES_PATH"); v != "" {
		cfg.RulesPath = v
	}
	envFloat("FLOWVIZ_FIT_PADDING", &cfg.FitPadding)
	envFloat("FLOWVIZ_CONTAINER_WIDTH", &cfg.ContainerWidth)
	envFloat("FLOWVIZ_CONTAINER_HEIGHT", &cfg.ContainerHeight)
	envFloat("FLOWVIZ_MIN_ZOOM", &cfg.MinZoom)
	envFloat("FLOWVIZ_MAX_ZOOM", &cfg.MaxZoom)

	return cfg, cfg.validate()
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c Config) validate() error {
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		return schema.NewErrorf(schema.ErrCodeConfig, "invalid zoom bounds [%g, %g]", c.MinZoom, c.MaxZoom)
	}
	if c.FitPadding < 0 {
		return schema.NewErrorf(schema.ErrCodeConfig, "fit_padding must not be negative, got %g", c.FitPadding)
	}
	return nil
}

// viewportConfig derives the viewport tuning from the configuration.
func (c Config) viewportConfig() viewport.Config {
	vc := viewport.DefaultConfig
	vc.MinZoom = c.MinZoom
	vc.MaxZoom = c.MaxZoom
	vc.FitPadding = c.FitPadding
	return vc
}

func (c Config) container() viewport.Size {
	return viewport.Size{Width: c.ContainerWidth, Height: c.ContainerHeight}
}

// writeSettings persists cfg as settings.json, refusing to overwrite an
// existing file unless force is set.
func writeSettings(path string, cfg Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
