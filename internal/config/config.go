// Package config loads the client configuration from an HCL file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjack/internal/protocol"
)

// Surfaces the client can draw on
const (
	FrontendTerminal = "terminal"
	FrontendWindow   = "window"
)

// Config represents the complete client configuration. Every block is
// optional; missing values take the defaults.
type Config struct {
	Server *ServerConnection `hcl:"server,block"`
	Player *PlayerSettings   `hcl:"player,block"`
	Assets *AssetSettings    `hcl:"assets,block"`
	UI     *UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL               string `hcl:"url,optional"`
	Table             string `hcl:"table,optional"`
	ConnectTimeout    int    `hcl:"connect_timeout,optional"`
	ReconnectAttempts int    `hcl:"reconnect_attempts,optional"`
	ReconnectDelay    int    `hcl:"reconnect_delay,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name string `hcl:"name,optional"`
}

// AssetSettings controls where card images and sounds come from. With no
// base URL and no directory, assets are fetched from the game server.
type AssetSettings struct {
	BaseURL     string `hcl:"base_url,optional"`
	Dir         string `hcl:"dir,optional"`
	MaxRetries  int    `hcl:"max_retries,optional"`
	BackoffMS   int    `hcl:"backoff_ms,optional"`
	Concurrency int    `hcl:"concurrency,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	Frontend     string `hcl:"frontend,optional"`
	LogLevel     string `hcl:"log_level,optional"`
	LogFile      string `hcl:"log_file,optional"`
	NoColor      bool   `hcl:"no_color,optional"`
	Bell         bool   `hcl:"bell,optional"`
	RoundResetMS int    `hcl:"round_reset_ms,optional"`
	// Keys binds single keys to play actions, e.g. { h = "hit" }
	Keys map[string]string `hcl:"keys,optional"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConnection{
			URL:               "http://localhost:5000",
			Table:             "table1",
			ConnectTimeout:    10,
			ReconnectAttempts: 0,
			ReconnectDelay:    2,
		},
		Player: &PlayerSettings{
			Name: "",
		},
		Assets: &AssetSettings{
			MaxRetries:  5,
			BackoffMS:   1000,
			Concurrency: 8,
		},
		UI: &UISettings{
			Frontend:     FrontendTerminal,
			LogLevel:     "warn",
			LogFile:      "blackjack-client.log",
			RoundResetMS: 2000,
			Keys:         DefaultKeys(),
		},
	}
}

// DefaultKeys returns the stock action key bindings
func DefaultKeys() map[string]string {
	return map[string]string{
		"h": string(protocol.Hit),
		"s": string(protocol.Stand),
		"d": string(protocol.Double),
		"p": string(protocol.Split),
	}
}

// Load loads configuration from an HCL file. A missing file gives the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults back-fills zero values from DefaultConfig
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server == nil {
		c.Server = defaults.Server
	}
	if c.Player == nil {
		c.Player = defaults.Player
	}
	if c.Assets == nil {
		c.Assets = defaults.Assets
	}
	if c.UI == nil {
		c.UI = defaults.UI
	}

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.Table == "" {
		c.Server.Table = defaults.Server.Table
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if c.Server.ReconnectDelay == 0 {
		c.Server.ReconnectDelay = defaults.Server.ReconnectDelay
	}

	if c.Assets.MaxRetries == 0 {
		c.Assets.MaxRetries = defaults.Assets.MaxRetries
	}
	if c.Assets.BackoffMS == 0 {
		c.Assets.BackoffMS = defaults.Assets.BackoffMS
	}
	if c.Assets.Concurrency == 0 {
		c.Assets.Concurrency = defaults.Assets.Concurrency
	}

	if c.UI.Frontend == "" {
		c.UI.Frontend = defaults.UI.Frontend
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
	if c.UI.RoundResetMS == 0 {
		c.UI.RoundResetMS = defaults.UI.RoundResetMS
	}
	if len(c.UI.Keys) == 0 {
		c.UI.Keys = defaults.UI.Keys
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server URL: %q", c.Server.URL)
	}

	if c.Server.Table == "" {
		return fmt.Errorf("table is required")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}

	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if c.Assets.BaseURL != "" && c.Assets.Dir != "" {
		return fmt.Errorf("assets base_url and dir are mutually exclusive")
	}

	if c.Assets.MaxRetries <= 0 {
		return fmt.Errorf("asset retries must be positive")
	}

	if c.Assets.BackoffMS <= 0 {
		return fmt.Errorf("asset backoff must be positive")
	}

	if c.Assets.Concurrency <= 0 {
		return fmt.Errorf("asset concurrency must be positive")
	}

	if c.UI.RoundResetMS <= 0 {
		return fmt.Errorf("round reset delay must be positive")
	}

	switch c.UI.Frontend {
	case FrontendTerminal, FrontendWindow:
	default:
		return fmt.Errorf("invalid frontend: %s", c.UI.Frontend)
	}

	if _, err := log.ParseLevel(c.UI.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	for key, token := range c.UI.Keys {
		r, size := utf8.DecodeRuneInString(key)
		if size == 0 || size != len(key) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return fmt.Errorf("invalid key %q: must be a single non-digit character", key)
		}
		if !slices.Contains(protocol.KnownActions, protocol.ParseAction(token)) {
			return fmt.Errorf("key %q is bound to unknown action %q", key, token)
		}
	}

	return nil
}

// ActionKeys returns the key bindings as play actions
func (c *Config) ActionKeys() map[string]protocol.ActionKind {
	keys := make(map[string]protocol.ActionKind, len(c.UI.Keys))
	for key, token := range c.UI.Keys {
		keys[key] = protocol.ParseAction(token)
	}
	return keys
}

// PlayerName returns the configured player id, generating one when unset
// and remembering it for later calls
func (c *Config) PlayerName() string {
	if c.Player.Name == "" {
		c.Player.Name = "P" + strings.ToUpper(uuid.NewString()[:6])
	}
	return c.Player.Name
}

// AssetBase returns the asset base URL, defaulting to the server URL
func (c *Config) AssetBase() string {
	if c.Assets.BaseURL != "" {
		return c.Assets.BaseURL
	}
	return c.Server.URL
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.UI.LogLevel)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// ConnectTimeout returns the dial timeout
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// ReconnectDelay returns the pause before each reconnect attempt
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Server.ReconnectDelay) * time.Second
}

// Backoff returns the pause between asset load passes
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Assets.BackoffMS) * time.Millisecond
}

// RoundReset returns how long round results stay on screen
func (c *Config) RoundReset() time.Duration {
	return time.Duration(c.UI.RoundResetMS) * time.Millisecond
}
