// Package config loads the YAML configuration file and watches it for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "a11y-probe.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the on-disk configuration.
type Config struct {
	CaptureDir          string  `yaml:"capture_dir"`
	AnnotateScreenshots bool    `yaml:"annotate_screenshots"`
	ScreenshotScale     float64 `yaml:"screenshot_scale"`
	Log                 Log     `yaml:"log"`
	Timing              Timing  `yaml:"timing"`
	Gesture             Gesture `yaml:"gesture"`
	Bridge              Bridge  `yaml:"bridge"`
	Store               Store   `yaml:"store"`
	Workers             int     `yaml:"workers"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Timing bounds the wait protocols.
type Timing struct {
	TransitionTimeout time.Duration `yaml:"transition_timeout"`
	IdleThreshold     time.Duration `yaml:"idle_threshold"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	PollInterval      time.Duration `yaml:"poll_interval"`
}

type Gesture struct {
	MinPosition float64       `yaml:"min_position"`
	MaxPosition float64       `yaml:"max_position"`
	Duration    time.Duration `yaml:"duration"`
}

// Bridge configures the websocket endpoint device agents connect to.
type Bridge struct {
	Listen         string        `yaml:"listen"`
	Path           string        `yaml:"path"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Store configures the episode ledger. An empty path disables it.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CaptureDir:      "./captures",
		ScreenshotScale: 1.0,
		Log:             Log{Level: "info", Format: "console"},
		Timing: Timing{
			TransitionTimeout: 3 * time.Second,
			IdleThreshold:     time.Second,
			IdleTimeout:       10 * time.Second,
			PollInterval:      20 * time.Millisecond,
		},
		Gesture: Gesture{MinPosition: 100, MaxPosition: 1000, Duration: 200 * time.Millisecond},
		Bridge: Bridge{
			Listen:         "127.0.0.1:7300",
			Path:           "/agent",
			ConnectTimeout: 30 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Workers: 4,
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.CaptureDir == "":
		return fmt.Errorf("%w: capture_dir is required", ErrInvalid)
	case c.ScreenshotScale <= 0 || c.ScreenshotScale > 1:
		return fmt.Errorf("%w: screenshot_scale must be in (0, 1], got %g", ErrInvalid, c.ScreenshotScale)
	case c.Timing.TransitionTimeout <= 0:
		return fmt.Errorf("%w: timing.transition_timeout must be positive", ErrInvalid)
	case c.Timing.IdleThreshold <= 0:
		return fmt.Errorf("%w: timing.idle_threshold must be positive", ErrInvalid)
	case c.Timing.IdleTimeout < c.Timing.IdleThreshold:
		return fmt.Errorf("%w: timing.idle_timeout must not be shorter than idle_threshold", ErrInvalid)
	case c.Timing.PollInterval <= 0:
		return fmt.Errorf("%w: timing.poll_interval must be positive", ErrInvalid)
	case c.Gesture.MinPosition < 0 || c.Gesture.MaxPosition <= c.Gesture.MinPosition:
		return fmt.Errorf("%w: gesture positions need 0 <= min_position < max_position", ErrInvalid)
	case c.Gesture.Duration <= 0:
		return fmt.Errorf("%w: gesture.duration must be positive", ErrInvalid)
	case c.Bridge.Listen == "":
		return fmt.Errorf("%w: bridge.listen is required", ErrInvalid)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalid)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json", ErrInvalid)
	}
	return nil
}
