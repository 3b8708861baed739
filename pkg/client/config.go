package client

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatwire/chatwire-go/pkg/auth"
	"github.com/chatwire/chatwire-go/pkg/connection"
	"github.com/chatwire/chatwire-go/pkg/heartbeat"
	"github.com/chatwire/chatwire-go/pkg/log"
	"github.com/chatwire/chatwire-go/pkg/session"
	"github.com/chatwire/chatwire-go/pkg/transport"
)

// Authentication strategy names accepted in Config.AuthStrategy.
const (
	StrategyQR             = "qr"
	StrategyPairing        = "pairing"
	StrategySessionRestore = "session-restore"
)

// DefaultBridgeURL is the default bridge process endpoint.
const DefaultBridgeURL = "ws://127.0.0.1:8799/channel"

// Config configures a Client.
type Config struct {
	// SessionName keys the persisted session (default "default").
	SessionName string `yaml:"session_name"`

	// SessionDir is where session state is stored
	// (default "~/.chatwire/sessions").
	SessionDir string `yaml:"session_dir"`

	// BridgeURL is the bridge WebSocket endpoint.
	BridgeURL string `yaml:"bridge_url"`

	// PhoneNumber is the account phone number, required by the
	// pairing-code strategy.
	PhoneNumber string `yaml:"phone_number"`

	// AuthStrategy selects the authentication flow:
	// qr, pairing, or session-restore (default).
	AuthStrategy string `yaml:"auth_strategy"`

	// DisableAutoReconnect turns automatic reconnection off.
	// Reconnection is on by default.
	DisableAutoReconnect bool `yaml:"disable_auto_reconnect"`

	// MaxReconnectAttempts bounds automatic reconnection (default 10).
	MaxReconnectAttempts uint `yaml:"max_reconnect_attempts"`

	// ReconnectInterval is the backoff base delay (default 5s).
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`

	// HeartbeatInterval is the liveness probe interval (default 30s).
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// AuthTimeout bounds one authentication attempt (default 120s).
	AuthTimeout time.Duration `yaml:"auth_timeout"`

	// QRPollInterval is how often the QR payload is polled during
	// authentication (default 5s).
	QRPollInterval time.Duration `yaml:"qr_poll_interval"`

	// StatusPollInterval is how often the auth status is polled
	// during authentication (default 2s).
	StatusPollInterval time.Duration `yaml:"status_poll_interval"`

	// RateLimitPerMinute caps sends per target per minute (0 = off).
	RateLimitPerMinute uint `yaml:"rate_limit_per_minute"`

	// RateLimitPerHour caps sends per target per hour (0 = off).
	RateLimitPerHour uint `yaml:"rate_limit_per_hour"`

	// RateLimitPerDay caps sends per target per day (0 = off).
	RateLimitPerDay uint `yaml:"rate_limit_per_day"`

	// Logger receives client log events (default NoopLogger).
	Logger log.Logger `yaml:"-"`

	// Transport overrides the bridge transport. Meant for tests;
	// nil uses a WebSocket bridge at BridgeURL.
	Transport transport.Transport `yaml:"-"`

	// Store overrides the session store. Nil uses a file store
	// under SessionDir.
	Store session.Store `yaml:"-"`
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		SessionName:          "default",
		BridgeURL:            DefaultBridgeURL,
		AuthStrategy:         StrategySessionRestore,
		MaxReconnectAttempts: connection.DefaultMaxAttempts,
		ReconnectInterval:    connection.DefaultBaseDelay,
		HeartbeatInterval:    heartbeat.DefaultInterval,
		AuthTimeout:          auth.DefaultTimeout,
		QRPollInterval:       auth.DefaultQRPollInterval,
		StatusPollInterval:   auth.DefaultStatusPollInterval,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.AuthStrategy {
	case StrategyQR, StrategyPairing, StrategySessionRestore:
	default:
		return fmt.Errorf("unknown auth strategy %q", c.AuthStrategy)
	}
	if c.AuthStrategy == StrategyPairing && c.PhoneNumber == "" {
		return fmt.Errorf("auth strategy %q requires a phone number", StrategyPairing)
	}
	return nil
}

// applyDefaults fills in zero values for configs built by hand.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.SessionName == "" {
		c.SessionName = defaults.SessionName
	}
	if c.SessionDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.SessionDir = home + "/.chatwire/sessions"
		} else {
			c.SessionDir = ".chatwire/sessions"
		}
	}
	if c.BridgeURL == "" {
		c.BridgeURL = defaults.BridgeURL
	}
	if c.AuthStrategy == "" {
		c.AuthStrategy = defaults.AuthStrategy
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = defaults.ReconnectInterval
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if c.AuthTimeout == 0 {
		c.AuthTimeout = defaults.AuthTimeout
	}
	if c.QRPollInterval == 0 {
		c.QRPollInterval = defaults.QRPollInterval
	}
	if c.StatusPollInterval == 0 {
		c.StatusPollInterval = defaults.StatusPollInterval
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}
