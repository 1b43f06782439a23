// Package config loads and saves the cinspect TOML settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/cinspect/internal/model"
)

// ClaudeDirEnv overrides the Claude Code data directory, matching the
// variable Claude Code itself honors.
const ClaudeDirEnv = "CLAUDE_CONFIG_DIR"

// Config holds all cinspect configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Filter     FilterConfig     `toml:"filter"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	PageSize  int    `toml:"page_size"`
}

// FilterConfig holds the session list filter applied at startup. An absent
// max bound is unbounded; max_tokens = 0 matches only sessions without tokens.
type FilterConfig struct {
	MinMessages     int64  `toml:"min_messages"`
	MaxMessages     *int64 `toml:"max_messages,omitempty"`
	MinTokens       int64  `toml:"min_tokens,omitempty"`
	MaxTokens       *int64 `toml:"max_tokens,omitempty"`
	MinInputTokens  int64  `toml:"min_input_tokens,omitempty"`
	MaxInputTokens  *int64 `toml:"max_input_tokens,omitempty"`
	MinOutputTokens int64  `toml:"min_output_tokens,omitempty"`
	MaxOutputTokens *int64 `toml:"max_output_tokens,omitempty"`
	Branch          string `toml:"branch,omitempty"`
	StartDate       string `toml:"start_date,omitempty"`
	EndDate         string `toml:"end_date,omitempty"`
}

// ServerConfig holds settings for `cinspect serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	Watch        bool   `toml:"watch"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	def := model.DefaultFilter()
	return Config{
		General: GeneralConfig{
			PageSize: 20,
		},
		Filter: FilterConfig{
			MinMessages: def.Messages.Min,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8788",
			Watch:        true,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ToFilter converts the configured bounds into a list filter.
func (f FilterConfig) ToFilter() model.Filter {
	return model.Filter{
		Messages:     model.Range{Min: f.MinMessages, Max: f.MaxMessages},
		TotalTokens:  model.Range{Min: f.MinTokens, Max: f.MaxTokens},
		InputTokens:  model.Range{Min: f.MinInputTokens, Max: f.MaxInputTokens},
		OutputTokens: model.Range{Min: f.MinOutputTokens, Max: f.MaxOutputTokens},
		Branch:       f.Branch,
		StartDate:    f.StartDate,
		EndDate:      f.EndDate,
	}
}

// FilterConfigFrom is the inverse of ToFilter.
func FilterConfigFrom(f model.Filter) FilterConfig {
	return FilterConfig{
		MinMessages:     f.Messages.Min,
		MaxMessages:     f.Messages.Max,
		MinTokens:       f.TotalTokens.Min,
		MaxTokens:       f.TotalTokens.Max,
		MinInputTokens:  f.InputTokens.Min,
		MaxInputTokens:  f.InputTokens.Max,
		MinOutputTokens: f.OutputTokens.Min,
		MaxOutputTokens: f.OutputTokens.Max,
		Branch:          f.Branch,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
	}
}

// Validate rejects settings that would fail later at query time.
func (c Config) Validate() error {
	if c.General.PageSize < 0 {
		return fmt.Errorf("general.page_size must not be negative, got %d", c.General.PageSize)
	}
	if err := c.Filter.ToFilter().Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return nil
}

// ResolveClaudeDir picks the data directory: flag, then environment, then
// config file, then ~/.claude.
func (c Config) ResolveClaudeDir(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(ClaudeDirEnv); env != "" {
		return env
	}
	if c.General.ClaudeDir != "" {
		return c.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cinspect")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cinspect")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path over the defaults.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parsing config: unknown key %q", undecoded[0].String())
	}

	return cfg, cfg.Validate()
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
