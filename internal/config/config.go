// Package config loads the host runner configuration using koanf.
// Precedence: environment (XCLOCK_ prefix) > YAML file > compiled defaults.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read by Load.
// XCLOCK_DISPLAY_WIDTH maps to display.width.
const EnvPrefix = "XCLOCK_"

// ClockLayout is the format of clock.fixed.
const ClockLayout = "15:04:05"

const (
	maxDimension = 2048
	maxScale     = 16
	maxHz        = 1000
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the host runner configuration.
type Config struct {
	Display  DisplayConfig  `koanf:"display"`
	Face     FaceConfig     `koanf:"face"`
	Headless HeadlessConfig `koanf:"headless"`
	Clock    ClockConfig    `koanf:"clock"`
	Log      LogConfig      `koanf:"log"`
}

// DisplayConfig sizes the host framebuffer and window.
type DisplayConfig struct {
	Width  int `koanf:"width"`
	Height int `koanf:"height"`
	Scale  int `koanf:"scale"` // window pixels per framebuffer pixel
}

// FaceConfig holds hex colors ("#rrggbb", "#rgb", with optional alpha).
type FaceConfig struct {
	Foreground string `koanf:"foreground"`
	Background string `koanf:"background"`
}

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz    int    `koanf:"hz"`
	Ticks uint64 `koanf:"ticks"` // 0 runs until interrupted
}

// ClockConfig pins the wall clock. Empty Fixed uses system time.
type ClockConfig struct {
	Fixed string `koanf:"fixed"`
}

// LogConfig sets the host process log level: debug, info, warn or error.
type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:  144,
			Height: 168,
			Scale:  3,
		},
		Face: FaceConfig{
			Foreground: "#000000",
			Background: "#ffffff",
		},
		Headless: HeadlessConfig{
			Hz: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Default returns the compiled defaults.
func Default() *Config {
	return defaults()
}

// Load reads the configuration like Read and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers the YAML file at path (skipped when empty) and then the
// environment on top of the compiled defaults. The result is not validated:
// callers applying their own overrides call Validate afterwards.
func Read(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if path != "" {
		if err := k.Load(file.Provider(path), yamlParser{}); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and parses every string-typed value once.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Width > maxDimension {
		return fmt.Errorf("%w: display.width %d", ErrInvalid, c.Display.Width)
	}
	if c.Display.Height <= 0 || c.Display.Height > maxDimension {
		return fmt.Errorf("%w: display.height %d", ErrInvalid, c.Display.Height)
	}
	if c.Display.Scale <= 0 || c.Display.Scale > maxScale {
		return fmt.Errorf("%w: display.scale %d", ErrInvalid, c.Display.Scale)
	}
	if c.Headless.Hz <= 0 || c.Headless.Hz > maxHz {
		return fmt.Errorf("%w: headless.hz %d", ErrInvalid, c.Headless.Hz)
	}
	if _, _, err := c.Colors(); err != nil {
		return err
	}
	if _, _, err := c.FixedTime(time.Time{}); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Colors returns the parsed face foreground and background.
func (c *Config) Colors() (fg, bg color.RGBA, err error) {
	if fg, err = ParseColor(c.Face.Foreground); err != nil {
		return fg, bg, fmt.Errorf("%w: face.foreground: %v", ErrInvalid, err)
	}
	if bg, err = ParseColor(c.Face.Background); err != nil {
		return fg, bg, fmt.Errorf("%w: face.background: %v", ErrInvalid, err)
	}
	return fg, bg, nil
}

// FixedTime returns clock.fixed on the date of day, in day's location.
// ok is false when clock.fixed is empty.
func (c *Config) FixedTime(day time.Time) (t time.Time, ok bool, err error) {
	if c.Clock.Fixed == "" {
		return time.Time{}, false, nil
	}
	hms, err := time.Parse(ClockLayout, c.Clock.Fixed)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: clock.fixed %q", ErrInvalid, c.Clock.Fixed)
	}
	loc := day.Location()
	y, m, d := day.Date()
	return time.Date(y, m, d, hms.Hour(), hms.Minute(), hms.Second(), 0, loc), true, nil
}

// SlogLevel maps log.level onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
}

// ParseColor parses a hex color.
func ParseColor(s string) (color.RGBA, error) {
	c, err := gg.ParseHex(strings.TrimSpace(s))
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}
