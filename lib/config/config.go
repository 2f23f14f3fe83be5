// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for Plateforge binaries.
type Config struct {
	// Template configures the plate template source and batch limits.
	Template TemplateConfig `yaml:"template"`

	// Bot configures the chat front-end.
	Bot BotConfig `yaml:"bot"`

	// HTTP configures the VIP list API server.
	HTTP HTTPConfig `yaml:"http"`

	// Store configures VIP list persistence.
	Store StoreConfig `yaml:"store"`
}

// TemplateConfig configures the template source and batch limits.
type TemplateConfig struct {
	// URL is the location the template archive is fetched from, once
	// per batch. Required for generation.
	URL string `yaml:"url"`

	// MaxUnits caps the per-batch unit count a caller may request.
	// Default: 200. Must stay within [1, 200].
	MaxUnits int `yaml:"max_units"`

	// CompressionLevel is the flate level for packed archives,
	// -2 (huffman-only) through 9 (best). Default: -1 (the flate
	// default level).
	CompressionLevel int `yaml:"compression_level"`
}

// BotConfig configures the chat front-end.
type BotConfig struct {
	// APIBaseURL is the base URL of the bot HTTP API.
	// Default: https://api.telegram.org
	APIBaseURL string `yaml:"api_base_url"`

	// TokenFile is the path to the file holding the bot API token,
	// or "-" to read it from stdin. When empty, the token is
	// prompted for on the terminal.
	TokenFile string `yaml:"token_file"`

	// SessionTTLMinutes is how long an idle conversation keeps its
	// collected selections before expiring. Default: 30.
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`

	// PollTimeoutSeconds is the long-poll hold time for update
	// fetching. Default: 30.
	PollTimeoutSeconds int `yaml:"poll_timeout_seconds"`
}

// HTTPConfig configures the VIP list API server.
type HTTPConfig struct {
	// Address is the TCP listen address. Default: 127.0.0.1:8790.
	// External access requires a reverse proxy.
	Address string `yaml:"address"`

	// AdminCodeFile is the path to the file holding the shared admin
	// code that gates mutating VIP list operations.
	AdminCodeFile string `yaml:"admin_code_file"`
}

// StoreConfig configures VIP list persistence.
type StoreConfig struct {
	// Path is the snapshot file location.
	// Default: ${HOME}/.plateforge/viplist.snap
	Path string `yaml:"path"`

	// Encrypt enables at-rest encryption of the snapshot using a key
	// derived from the admin code.
	Encrypt bool `yaml:"encrypt"`
}

// Default returns a Config with development defaults. Loading a file
// overlays values onto these.
func Default() *Config {
	return &Config{
		Template: TemplateConfig{
			MaxUnits:         200,
			CompressionLevel: -1,
		},
		Bot: BotConfig{
			APIBaseURL:         "https://api.telegram.org",
			SessionTTLMinutes:  30,
			PollTimeoutSeconds: 30,
		},
		HTTP: HTTPConfig{
			Address: "127.0.0.1:8790",
		},
		Store: StoreConfig{
			Path: "${HOME}/.plateforge/viplist.snap",
		},
	}
}

// Load reads configuration from the file named by the PLATEFORGE_CONFIG
// environment variable. When the variable is unset, defaults are
// returned unchanged. There is no other discovery — configuration comes
// from exactly one declared place.
func Load() (*Config, error) {
	path := os.Getenv("PLATEFORGE_CONFIG")
	if path == "" {
		config := Default()
		config.expandPaths()
		return config, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	config.expandPaths()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks bounds on numeric settings. String settings are
// validated where they are consumed (a missing template URL is a
// generation-time failure, not a startup failure).
func (c *Config) Validate() error {
	if c.Template.MaxUnits < 1 || c.Template.MaxUnits > 200 {
		return fmt.Errorf("template.max_units must be within [1, 200], got %d", c.Template.MaxUnits)
	}
	if c.Template.CompressionLevel < -2 || c.Template.CompressionLevel > 9 {
		return fmt.Errorf("template.compression_level must be within [-2, 9], got %d", c.Template.CompressionLevel)
	}
	if c.Bot.SessionTTLMinutes < 1 {
		return fmt.Errorf("bot.session_ttl_minutes must be positive, got %d", c.Bot.SessionTTLMinutes)
	}
	if c.Bot.PollTimeoutSeconds < 1 {
		return fmt.Errorf("bot.poll_timeout_seconds must be positive, got %d", c.Bot.PollTimeoutSeconds)
	}
	return nil
}

// expandPaths performs ${VAR} and ${VAR:-default} expansion on path
// fields. No other environment variables override config values.
func (c *Config) expandPaths() {
	c.Bot.TokenFile = expandVariables(c.Bot.TokenFile)
	c.HTTP.AdminCodeFile = expandVariables(c.HTTP.AdminCodeFile)
	c.Store.Path = expandVariables(c.Store.Path)
}

// variablePattern matches ${VAR} and ${VAR:-default}.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

func expandVariables(value string) string {
	return variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		if resolved, ok := os.LookupEnv(groups[1]); ok {
			return resolved
		}
		return groups[2]
	})
}
