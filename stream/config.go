package stream

import (
	"fmt"
	"net/url"
	"time"

	"github.com/c360/dashstream/errors"
)

// Default configuration values applied by withDefaults for fields left at
// their zero value.
const (
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultDataBufferSize       = 1000
	DefaultUpdateFrequency      = 1 * time.Second
)

// Config holds the caller-supplied configuration for a Client.
type Config struct {
	// Endpoint is the URL of the remote data feed. Required. The scheme
	// must match the transport kind: ws/wss for persistent-socket,
	// http/https for push-stream and polling.
	Endpoint string `json:"endpoint"`

	// Source selects the transport kind. Defaults to persistent-socket.
	Source Transport `json:"source"`

	// ReconnectInterval is the flat delay between reconnection attempts
	// for socket and push transports. The delay is fixed, not a backoff
	// schedule. Defaults to 5s.
	ReconnectInterval time.Duration `json:"reconnect_interval"`

	// MaxReconnectAttempts bounds how many retries are scheduled after
	// consecutive failures before the client gives up. Left zero at
	// construction it defaults to 10. A patch applied later may set it to
	// zero, which means give up after the first failure.
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`

	// HeartbeatInterval is the keepalive send interval on the
	// persistent-socket transport. Defaults to 30s.
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`

	// DataBufferSize caps the ring buffer of recent records. Defaults to
	// 1000.
	DataBufferSize int `json:"data_buffer_size"`

	// UpdateFrequency is the polling interval. Used only by the polling
	// transport. Defaults to 1s.
	UpdateFrequency time.Duration `json:"update_frequency"`

	// BatchSize is the default record count asked for by RequestData when
	// a request does not set its own. Zero leaves the count to the server.
	BatchSize int `json:"batch_size,omitempty"`

	// EnableCompression negotiates permessage-deflate on the
	// persistent-socket transport.
	EnableCompression bool `json:"enable_compression,omitempty"`
}

// DefaultConfig returns a configuration with all defaults applied. The
// endpoint must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		Source:               TransportPersistentSocket,
		ReconnectInterval:    DefaultReconnectInterval,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		HeartbeatInterval:    DefaultHeartbeatInterval,
		DataBufferSize:       DefaultDataBufferSize,
		UpdateFrequency:      DefaultUpdateFrequency,
	}
}

// withDefaults fills zero-valued fields with their defaults. Zero always
// means unset here, so a literal zero cannot be configured for the
// defaulted fields; BatchSize and EnableCompression keep their zero
// values.
func (c Config) withDefaults() Config {
	if c.Source == "" {
		c.Source = TransportPersistentSocket
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.DataBufferSize == 0 {
		c.DataBufferSize = DefaultDataBufferSize
	}
	if c.UpdateFrequency == 0 {
		c.UpdateFrequency = DefaultUpdateFrequency
	}
	return c
}

// Validate checks the configuration. It is called by New and after every
// merge in UpdateConfig, so a stored configuration is always valid.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "endpoint is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "parse endpoint URL")
	}

	switch c.Source {
	case TransportPersistentSocket:
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return errors.WrapInvalid(
				fmt.Errorf("scheme %q not usable for %s", u.Scheme, c.Source),
				"Config", "Validate", "check endpoint scheme")
		}
	case TransportPushStream, TransportPolling:
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.WrapInvalid(
				fmt.Errorf("scheme %q not usable for %s", u.Scheme, c.Source),
				"Config", "Validate", "check endpoint scheme")
		}
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown transport kind %q", c.Source),
			"Config", "Validate", "check transport kind")
	}

	if c.ReconnectInterval <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("reconnect interval must be positive, got %v", c.ReconnectInterval),
			"Config", "Validate", "check reconnect interval")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("max reconnect attempts must not be negative, got %d", c.MaxReconnectAttempts),
			"Config", "Validate", "check max reconnect attempts")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("heartbeat interval must be positive, got %v", c.HeartbeatInterval),
			"Config", "Validate", "check heartbeat interval")
	}
	if c.DataBufferSize <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("data buffer size must be positive, got %d", c.DataBufferSize),
			"Config", "Validate", "check data buffer size")
	}
	if c.UpdateFrequency <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("update frequency must be positive, got %v", c.UpdateFrequency),
			"Config", "Validate", "check update frequency")
	}
	if c.BatchSize < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("batch size must not be negative, got %d", c.BatchSize),
			"Config", "Validate", "check batch size")
	}
	return nil
}

// ConfigPatch is a merge-patch of Config. Nil fields leave the current
// value untouched. Used by UpdateConfig and UpdateStreamConfig.
type ConfigPatch struct {
	Endpoint             *string        `json:"endpoint,omitempty"`
	Source               *Transport     `json:"source,omitempty"`
	ReconnectInterval    *time.Duration `json:"reconnect_interval,omitempty"`
	MaxReconnectAttempts *int           `json:"max_reconnect_attempts,omitempty"`
	HeartbeatInterval    *time.Duration `json:"heartbeat_interval,omitempty"`
	DataBufferSize       *int           `json:"data_buffer_size,omitempty"`
	UpdateFrequency      *time.Duration `json:"update_frequency,omitempty"`
	BatchSize            *int           `json:"batch_size,omitempty"`
	EnableCompression    *bool          `json:"enable_compression,omitempty"`
}

// applyTo merges the patch onto a copy of the given configuration.
func (p ConfigPatch) applyTo(cfg Config) Config {
	if p.Endpoint != nil {
		cfg.Endpoint = *p.Endpoint
	}
	if p.Source != nil {
		cfg.Source = *p.Source
	}
	if p.ReconnectInterval != nil {
		cfg.ReconnectInterval = *p.ReconnectInterval
	}
	if p.MaxReconnectAttempts != nil {
		cfg.MaxReconnectAttempts = *p.MaxReconnectAttempts
	}
	if p.HeartbeatInterval != nil {
		cfg.HeartbeatInterval = *p.HeartbeatInterval
	}
	if p.DataBufferSize != nil {
		cfg.DataBufferSize = *p.DataBufferSize
	}
	if p.UpdateFrequency != nil {
		cfg.UpdateFrequency = *p.UpdateFrequency
	}
	if p.BatchSize != nil {
		cfg.BatchSize = *p.BatchSize
	}
	if p.EnableCompression != nil {
		cfg.EnableCompression = *p.EnableCompression
	}
	return cfg
}
