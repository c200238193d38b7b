// Package config loads hilight's highlight rules from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lumetta/hilight/pkg/ansi"
	"github.com/lumetta/hilight/pkg/highlight"
)

// Config holds all configuration for hilight.
type Config struct {
	// Default color, used by rules and CLI patterns that do not name one.
	DefaultFg *int `yaml:"default_fg" env:"HILIGHT_DEFAULT_FG"`
	DefaultBg *int `yaml:"default_bg" env:"HILIGHT_DEFAULT_BG"`

	// NoColor passes text through unchanged.
	NoColor bool `yaml:"no_color" env:"HILIGHT_NO_COLOR"`

	// Highlight rules, applied in order.
	Rules []Rule `yaml:"rules"`
}

// Rule associates one regular expression with a color. A rule without fg
// and bg uses the default color. The zero value of Disabled keeps the rule
// active, so a hand-written rules file needs no boilerplate.
type Rule struct {
	Name     string         `yaml:"name"`
	Regex    string         `yaml:"regex"`
	Fg       *int           `yaml:"fg"`
	Bg       *int           `yaml:"bg"`
	Disabled bool           `yaml:"disabled"`
	compiled *regexp.Regexp `yaml:"-"`
}

// CompiledRegex returns the compiled regular expression, nil until Load
// has compiled the rule.
func (r *Rule) CompiledRegex() *regexp.Regexp {
	return r.compiled
}

// SetCompiledRegex sets the compiled regular expression.
func (r *Rule) SetCompiledRegex(re *regexp.Regexp) {
	r.compiled = re
}

// Color returns the rule's color; the zero Color when the rule names no
// channel.
func (r *Rule) Color() ansi.Color {
	return colorOf(r.Fg, r.Bg)
}

// DefaultColor returns the configured default color.
func (c *Config) DefaultColor() ansi.Color {
	return colorOf(c.DefaultFg, c.DefaultBg)
}

func colorOf(fg, bg *int) ansi.Color {
	switch {
	case fg != nil && bg != nil:
		return ansi.FgBg(uint8(*fg), uint8(*bg))
	case fg != nil:
		return ansi.Fg(uint8(*fg))
	case bg != nil:
		return ansi.Bg(uint8(*bg))
	default:
		return ansi.Color{}
	}
}

// DefaultConfig returns the default configuration: no rules, color on, and
// a plain white default foreground.
func DefaultConfig() *Config {
	white := 7
	return &Config{
		DefaultFg: &white,
	}
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := compileRules(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getConfigPath returns the config file path.
func getConfigPath() string {
	// Check for explicit config path
	if path := os.Getenv("HILIGHT_CONFIG"); path != "" {
		return path
	}

	// Check XDG config directory
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hilight", "config.yaml")
	}

	// Fall back to home directory
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "hilight", "config.yaml")
	}

	return ""
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	// #nosec G304 - The config file path comes from trusted sources (env var or standard locations)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv loads configuration overrides from environment variables.
// NO_COLOR is honored alongside HILIGHT_NO_COLOR.
func loadFromEnv(cfg *Config) error {
	if fg := os.Getenv("HILIGHT_DEFAULT_FG"); fg != "" {
		n, err := strconv.Atoi(fg)
		if err != nil {
			return fmt.Errorf("invalid HILIGHT_DEFAULT_FG: %w", err)
		}
		cfg.DefaultFg = &n
	}

	if bg := os.Getenv("HILIGHT_DEFAULT_BG"); bg != "" {
		n, err := strconv.Atoi(bg)
		if err != nil {
			return fmt.Errorf("invalid HILIGHT_DEFAULT_BG: %w", err)
		}
		cfg.DefaultBg = &n
	}

	if noColor := os.Getenv("HILIGHT_NO_COLOR"); noColor != "" {
		switch noColor {
		case "true", "1", "yes":
			cfg.NoColor = true
		case "false", "0", "no":
			cfg.NoColor = false
		default:
			return fmt.Errorf("invalid HILIGHT_NO_COLOR value: %q (use true/false)", noColor)
		}
	}

	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}

	return nil
}

// compileRules compiles every active rule's regular expression.
func compileRules(cfg *Config) error {
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if rule.Disabled || rule.Regex == "" {
			continue
		}
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			perr := &highlight.PatternError{Pattern: rule.Regex, Err: err}
			if rule.Name != "" {
				return fmt.Errorf("rule %q: %w", rule.Name, perr)
			}
			return perr
		}
		rule.SetCompiledRegex(re)
	}
	return nil
}

// validate checks the color ranges. The ansi package passes values through
// unchecked; the config boundary is where out-of-range input is rejected.
func validate(cfg *Config) error {
	if err := checkRange("default_fg", cfg.DefaultFg); err != nil {
		return err
	}
	if err := checkRange("default_bg", cfg.DefaultBg); err != nil {
		return err
	}

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		name := rule.Name
		if name == "" {
			name = fmt.Sprintf("rule %d", i)
		}
		if err := checkRange(name+" fg", rule.Fg); err != nil {
			return err
		}
		if err := checkRange(name+" bg", rule.Bg); err != nil {
			return err
		}
	}

	return nil
}

func checkRange(field string, n *int) error {
	if n == nil {
		return nil
	}
	if *n < 0 || *n > 255 {
		return fmt.Errorf("%s must be in 0-255, got %d", field, *n)
	}
	return nil
}
