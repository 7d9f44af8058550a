package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/c360/dashstream/relay"
	"github.com/c360/dashstream/stream"
)

// Config represents the complete application configuration: platform
// identity, the stream client, the optional NATS relay, and the
// telemetry servers.
type Config struct {
	Platform  PlatformConfig  `json:"platform"`
	Stream    stream.Config   `json:"stream"`
	Relay     relay.Config    `json:"relay"`
	NATS      NATSConfig      `json:"nats"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate before updating
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	// Use JSON marshaling/unmarshaling for deep copy
	data, err := json.Marshal(c)
	if err != nil {
		// Fallback to shallow copy if marshaling fails
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		// Fallback to shallow copy if unmarshaling fails
		copied := *c
		return &copied
	}

	return &clone
}

// PlatformConfig defines the identity of this client instance. Org and
// ID become parts of relay subjects and log attributes, so both must be
// NATS-subject safe.
type PlatformConfig struct {
	Org         string `json:"org"`                   // Organization namespace (e.g., "c360")
	ID          string `json:"id"`                    // Deployment identifier (e.g., "ops-dashboard")
	InstanceID  string `json:"instance_id,omitempty"` // e.g., "west-1", "dev-local"
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
}

// NATSConfig defines the connection to the NATS broker the relay
// publishes to. Enabled false leaves the relay out of the process
// entirely; the stream client runs on its own.
type NATSConfig struct {
	Enabled       bool          `json:"enabled"`
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty"`
}

// TelemetryConfig controls the metrics and health HTTP servers.
type TelemetryConfig struct {
	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPort    int    `json:"metrics_port,omitempty"`
	MetricsPath    string `json:"metrics_path,omitempty"`
	HealthEnabled  bool   `json:"health_enabled"`
	HealthPort     int    `json:"health_port,omitempty"`
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	// Validate and normalize org
	if c.Platform.Org == "" {
		return errors.New("platform.org is required")
	}

	// Normalize org to lowercase
	c.Platform.Org = strings.ToLower(c.Platform.Org)

	// Validate org is NATS-subject compatible
	if !isValidNATSSubjectPart(c.Platform.Org) {
		return fmt.Errorf(
			"platform.org '%s' is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Platform.Org,
		)
	}

	if c.Platform.ID == "" {
		return errors.New("platform.id is required")
	}
	if !isValidNATSSubjectPart(c.Platform.ID) {
		return fmt.Errorf(
			"platform.id '%s' is not valid for NATS subjects (must be alphanumeric with dots, dashes, underscores)",
			c.Platform.ID,
		)
	}

	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream configuration: %w", err)
	}

	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay configuration: %w", err)
	}

	if err := c.validateNATS(); err != nil {
		return fmt.Errorf("nats configuration: %w", err)
	}

	if err := c.validateTelemetry(); err != nil {
		return fmt.Errorf("telemetry configuration: %w", err)
	}

	return nil
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// validateNATS validates the broker connection settings. Everything is
// skipped while the relay is disabled so a stream-only deployment needs
// no nats section at all.
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if len(c.NATS.URLs) == 0 {
		return errors.New("urls is required when nats is enabled")
	}
	for i, u := range c.NATS.URLs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("urls[%d] is empty", i)
		}
	}

	if c.NATS.MaxReconnects < -1 {
		return fmt.Errorf("max_reconnects must be -1 (unlimited) or higher, got %d", c.NATS.MaxReconnects)
	}
	if c.NATS.ReconnectWait < 0 {
		return fmt.Errorf("reconnect_wait must not be negative, got %v", c.NATS.ReconnectWait)
	}

	if c.NATS.TLS.Enabled {
		if c.NATS.TLS.CertFile == "" {
			return errors.New("tls.cert_file is required when TLS is enabled")
		}
		if c.NATS.TLS.KeyFile == "" {
			return errors.New("tls.key_file is required when TLS is enabled")
		}

		// Check if cert file exists
		if _, err := os.Stat(c.NATS.TLS.CertFile); err != nil {
			return fmt.Errorf("tls.cert_file: %w", err)
		}

		// Check if key file exists
		if _, err := os.Stat(c.NATS.TLS.KeyFile); err != nil {
			return fmt.Errorf("tls.key_file: %w", err)
		}

		if c.NATS.TLS.CAFile != "" {
			if _, err := os.Stat(c.NATS.TLS.CAFile); err != nil {
				return fmt.Errorf("tls.ca_file: %w", err)
			}
		}
	}

	return nil
}

// validateTelemetry validates the metrics and health server settings
func (c *Config) validateTelemetry() error {
	if c.Telemetry.MetricsEnabled {
		if err := validatePort("metrics_port", c.Telemetry.MetricsPort); err != nil {
			return err
		}
		if c.Telemetry.MetricsPath != "" && !strings.HasPrefix(c.Telemetry.MetricsPath, "/") {
			return fmt.Errorf("metrics_path must start with '/', got %q", c.Telemetry.MetricsPath)
		}
	}

	if c.Telemetry.HealthEnabled {
		if err := validatePort("health_port", c.Telemetry.HealthPort); err != nil {
			return err
		}
	}

	if c.Telemetry.MetricsEnabled && c.Telemetry.HealthEnabled &&
		c.Telemetry.MetricsPort == c.Telemetry.HealthPort {
		return fmt.Errorf("metrics_port and health_port must differ, both are %d", c.Telemetry.MetricsPort)
	}

	return nil
}

// validatePort checks a port is in the valid TCP range
func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// SaveToFile saves the configuration to a JSON or YAML file depending
// on the path extension. YAML output goes through a JSON round-trip so
// both formats use the same snake_case keys.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		jsonData, merr := json.Marshal(c)
		if merr != nil {
			return merr
		}
		var asMap map[string]any
		if uerr := json.Unmarshal(jsonData, &asMap); uerr != nil {
			return uerr
		}
		data, err = yaml.Marshal(asMap)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	// Use secure file writing with validation
	return safeWriteFile(path, data)
}

// GetOrg returns the organization from platform config
func (c *Config) GetOrg() string {
	return c.Platform.Org
}

// GetPlatform returns the platform identifier (prefer instance_id over id)
func (c *Config) GetPlatform() string {
	if c.Platform.InstanceID != "" {
		return c.Platform.InstanceID
	}
	return c.Platform.ID
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
