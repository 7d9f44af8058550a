package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/pkg/buffer"
)

// Default configuration values applied by withDefaults for fields left at
// their zero value.
const (
	DefaultSubject        = "dashstream.updates"
	DefaultQueueSize      = 1024
	DefaultPublishRetries = 3
	DefaultRetryDelay     = 250 * time.Millisecond
)

// Queue overflow policies.
const (
	OnFullDropOldest = "drop_oldest"
	OnFullDropNewest = "drop_newest"
)

// Config holds the caller-supplied configuration for a Relay.
type Config struct {
	// Subject is the broker subject prefix. Each published message goes to
	// <subject>.<kind>, so consumers subscribe to e.g.
	// dashstream.updates.insert or dashstream.updates.>.
	Subject string `json:"subject"`

	// QueueSize caps the delivery queue between the stream subscriber and
	// the publishing worker. Defaults to 1024.
	QueueSize int `json:"queue_size"`

	// OnFull selects what a full queue does with new envelopes:
	// drop_oldest evicts the queue head, drop_newest discards the arrival.
	// Defaults to drop_oldest so consumers see the freshest data.
	OnFull string `json:"on_full"`

	// PublishRetries caps the publish attempts per message before it is
	// dropped and counted. Defaults to 3.
	PublishRetries int `json:"publish_retries"`

	// RetryDelay is the flat delay between publish attempts. Defaults to
	// 250ms.
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Subject:        DefaultSubject,
		QueueSize:      DefaultQueueSize,
		OnFull:         OnFullDropOldest,
		PublishRetries: DefaultPublishRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

// withDefaults fills zero-valued fields with their defaults.
func (c Config) withDefaults() Config {
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.OnFull == "" {
		c.OnFull = OnFullDropOldest
	}
	if c.PublishRetries == 0 {
		c.PublishRetries = DefaultPublishRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Subject == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"Config", "Validate", "subject is required")
	}
	// The prefix becomes part of a publish subject, so wildcard tokens and
	// whitespace are not usable.
	if strings.ContainsAny(c.Subject, " \t*>") {
		return errors.WrapInvalid(
			fmt.Errorf("subject %q contains wildcard or whitespace", c.Subject),
			"Config", "Validate", "check subject")
	}
	if strings.HasPrefix(c.Subject, ".") || strings.HasSuffix(c.Subject, ".") {
		return errors.WrapInvalid(
			fmt.Errorf("subject %q has an empty token", c.Subject),
			"Config", "Validate", "check subject")
	}
	if c.QueueSize <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("queue size must be positive, got %d", c.QueueSize),
			"Config", "Validate", "check queue size")
	}
	if c.OnFull != OnFullDropOldest && c.OnFull != OnFullDropNewest {
		return errors.WrapInvalid(
			fmt.Errorf("unknown overflow policy %q", c.OnFull),
			"Config", "Validate", "check overflow policy")
	}
	if c.PublishRetries < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("publish retries must not be negative, got %d", c.PublishRetries),
			"Config", "Validate", "check publish retries")
	}
	if c.RetryDelay <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("retry delay must be positive, got %v", c.RetryDelay),
			"Config", "Validate", "check retry delay")
	}
	return nil
}

// overflowPolicy maps the configured policy name onto the buffer package's
// policy type.
func (c Config) overflowPolicy() buffer.OverflowPolicy {
	if c.OnFull == OnFullDropNewest {
		return buffer.DropNewest
	}
	return buffer.DropOldest
}
