// Package config provides Viper-backed configuration loading for
// mudgate: the proxy's listen/dial addresses, TLS pinning, charset,
// output format, and logging settings, realized as a typed wrapper
// over github.com/spf13/viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ListenConfig holds the client-facing listener settings.
type ListenConfig struct {
	Addr string `mapstructure:"addr"`
}

// UpstreamConfig holds the MUD-facing dial settings, including the
// TLS common-name pin.
type UpstreamConfig struct {
	Addr             string        `mapstructure:"addr"`
	TLS              bool          `mapstructure:"tls"`
	PinnedCommonName string        `mapstructure:"pinned_common_name"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
}

// DecoderConfig holds the values the decoder's handshake and output
// assembler need: the requested charset and the rendering format.
type DecoderConfig struct {
	Charset string `mapstructure:"charset"`
	Format  string `mapstructure:"format"`
}

// LoggingConfig holds the logger's level and encoder settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScriptingConfig points at the Lua init file populating the command
// registry.
type ScriptingConfig struct {
	InitFile string `mapstructure:"init_file"`
}

// GUIConfig toggles the optional Bubble Tea sink.
type GUIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is mudgate's top-level configuration.
type Config struct {
	Listen    ListenConfig    `mapstructure:"listen"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Decoder   DecoderConfig   `mapstructure:"decoder"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	GUI       GUIConfig       `mapstructure:"gui"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen.addr", "127.0.0.1:4242")

	v.SetDefault("upstream.addr", "mume.org:443")
	v.SetDefault("upstream.tls", true)
	v.SetDefault("upstream.pinned_common_name", "mume.org")
	v.SetDefault("upstream.dial_timeout", "15s")

	v.SetDefault("decoder.charset", "US-ASCII")
	v.SetDefault("decoder.format", "normal")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("scripting.init_file", "")
	v.SetDefault("gui.enabled", false)
}

// Load reads configuration from path (if non-empty), layering in
// MUDGATE_-prefixed environment overrides and the defaults above, then
// validates and clamps range-violating values rather than failing the
// whole config.
func Load(path string) (Config, []string, error) {
	v := viper.New()
	v.SetEnvPrefix("MUDGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	warnings := cfg.clamp()
	return cfg, warnings, nil
}

// clamp replaces out-of-range settings with a safe default, returning
// one warning message per clamp applied.
func (c *Config) clamp() []string {
	var warnings []string

	if _, err := parseFormat(c.Decoder.Format); err != nil {
		warnings = append(warnings, fmt.Sprintf("decoder.format %q invalid, using %q", c.Decoder.Format, "normal"))
		c.Decoder.Format = "normal"
	}

	if c.Upstream.DialTimeout <= 0 {
		warnings = append(warnings, "upstream.dial_timeout must be positive, using 15s")
		c.Upstream.DialTimeout = 15 * time.Second
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		warnings = append(warnings, fmt.Sprintf("logging.level %q invalid, using %q", c.Logging.Level, "info"))
		c.Logging.Level = "info"
	}

	return warnings
}

// parseFormat validates the configured output format name without
// importing internal/decoder, avoiding an import cycle between config
// and the components it configures.
func parseFormat(s string) (string, error) {
	switch s {
	case "normal", "tintin", "raw":
		return s, nil
	default:
		return "", fmt.Errorf("config: unknown format %q", s)
	}
}
