// Package config loads editor settings from YAML and validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TFMV/graphsketch/ids"
	"github.com/TFMV/graphsketch/render"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	// same spellings the canvas accepts
	_ = validate.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		_, err := render.ParseColor(fl.Field().String())
		return err == nil
	})
}

// Config holds all editor settings
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Canvas      CanvasConfig      `yaml:"canvas"`
	Interaction InteractionConfig `yaml:"interaction"`
	Traversal   TraversalConfig   `yaml:"traversal"`
	Layout      LayoutConfig      `yaml:"layout"`
	Server      ServerConfig      `yaml:"server"`
}

// LogConfig selects the log level, format and destination. An empty File
// discards logs in the interactive editor.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json auto"`
	File   string `yaml:"file"`
}

// CanvasConfig holds drawing defaults
type CanvasConfig struct {
	NodeSize         float64 `yaml:"node_size" validate:"gt=0"`
	NodeColor        string  `yaml:"node_color" validate:"color"`
	PlaceholderColor string  `yaml:"placeholder_color" validate:"color"`
	EdgeColor        string  `yaml:"edge_color" validate:"color"`
	Background       string  `yaml:"background" validate:"color"`
	Padding          float64 `yaml:"padding" validate:"gte=0,lt=0.5"`
	HitRadius        int     `yaml:"hit_radius" validate:"gte=0,lte=5"`
}

// InteractionConfig tunes gesture recognition. The tolerance box is in
// graph units, so its size on screen shrinks as the graph spreads out. A
// press on a node in the terminal resolves at the node's own position and
// is not affected.
type InteractionConfig struct {
	ToleranceX        float64       `yaml:"tolerance_x" validate:"gt=0"`
	ToleranceY        float64       `yaml:"tolerance_y" validate:"gt=0"`
	DoubleClickWindow time.Duration `yaml:"double_click_window" validate:"gt=0"`
	IDScheme          string        `yaml:"id_scheme" validate:"oneof=separate uuid counter"`
}

// TraversalConfig tunes the breadth-first walk
type TraversalConfig struct {
	VisitedColor string        `yaml:"visited_color" validate:"color"`
	StepInterval time.Duration `yaml:"step_interval" validate:"gte=0"`
	ResetLogs    bool          `yaml:"reset_logs"`
}

// LayoutConfig tunes the arrange command
type LayoutConfig struct {
	Iterations int     `yaml:"iterations" validate:"gt=0,lte=100000"`
	Jitter     float64 `yaml:"jitter" validate:"gte=0,lte=1"`
	Seed       int64   `yaml:"seed"`
}

// ServerConfig enables the read-only HTTP view when Addr is set
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Canvas: CanvasConfig{
			NodeSize:         20,
			NodeColor:        "#999999",
			PlaceholderColor: "rgba(0, 0, 0)",
			EdgeColor:        "#cccccc",
			Background:       "#f8f8f8",
			Padding:          0.1,
			HitRadius:        1,
		},
		Interaction: InteractionConfig{
			ToleranceX:        0.05,
			ToleranceY:        0.05,
			DoubleClickWindow: 400 * time.Millisecond,
			IDScheme:          ids.SchemeSeparate,
		},
		Traversal: TraversalConfig{
			VisitedColor: "green",
			StepInterval: 300 * time.Millisecond,
			ResetLogs:    true,
		},
		Layout: LayoutConfig{Iterations: 200, Seed: 1},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse overlays YAML data onto cfg and validates the result
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}
	return cfg.Validate()
}

// Validate checks every setting
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Marshal renders the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// formatValidationError reports the first failing field in a readable form
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s (got %v)", field, e.Param(), e.Value())
		case "gte":
			return fmt.Errorf("%s: must be at least %s (got %v)", field, e.Param(), e.Value())
		case "lt":
			return fmt.Errorf("%s: must be less than %s (got %v)", field, e.Param(), e.Value())
		case "lte":
			return fmt.Errorf("%s: must not exceed %s (got %v)", field, e.Param(), e.Value())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s] (got %q)", field, e.Param(), e.Value())
		case "color":
			return fmt.Errorf("%s: unknown color %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
