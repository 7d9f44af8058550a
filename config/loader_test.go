package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/dashstream/relay"
	"github.com/c360/dashstream/stream"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

// Test loading config from JSON file
func TestLoader_LoadJSON(t *testing.T) {
	configFile := writeConfigFile(t, "config.json", `{
		"platform": {
			"org": "c360",
			"id": "ops-dashboard",
			"environment": "prod"
		},
		"stream": {
			"endpoint": "wss://feeds.example.com/live",
			"source": "persistent-socket",
			"max_reconnect_attempts": 5
		},
		"nats": {
			"enabled": true,
			"urls": ["nats://localhost:4222", "nats://localhost:4223"],
			"max_reconnects": 10,
			"reconnect_wait": "5s"
		}
	}`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify loaded values
	assert.Equal(t, "ops-dashboard", cfg.Platform.ID)
	assert.Equal(t, "prod", cfg.Platform.Environment)
	assert.Equal(t, "wss://feeds.example.com/live", cfg.Stream.Endpoint)
	assert.Equal(t, 5, cfg.Stream.MaxReconnectAttempts)
	assert.True(t, cfg.NATS.Enabled)
	assert.Len(t, cfg.NATS.URLs, 2)
	assert.Equal(t, 10, cfg.NATS.MaxReconnects)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
}

// Test loading config from YAML file
func TestLoader_LoadYAML(t *testing.T) {
	configFile := writeConfigFile(t, "config.yaml", `
platform:
  org: c360
  id: ops-dashboard
stream:
  endpoint: https://feeds.example.com/poll
  source: polling
  update_frequency: 2s
relay:
  subject: c360.dashboards
  queue_size: 512
  on_full: drop_newest
`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, "ops-dashboard", cfg.Platform.ID)
	assert.Equal(t, stream.TransportPolling, cfg.Stream.Source)
	assert.Equal(t, 2*time.Second, cfg.Stream.UpdateFrequency)
	assert.Equal(t, "c360.dashboards", cfg.Relay.Subject)
	assert.Equal(t, 512, cfg.Relay.QueueSize)
	assert.Equal(t, relay.OnFullDropNewest, cfg.Relay.OnFull)
}

// Test default values
func TestLoader_Defaults(t *testing.T) {
	// Minimal config with missing fields
	configFile := writeConfigFile(t, "config.json", `{
		"platform": {
			"org": "c360",
			"id": "minimal"
		},
		"stream": {
			"endpoint": "wss://feeds.example.com/live"
		}
	}`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	// Check defaults were applied
	assert.Equal(t, "dev", cfg.Platform.Environment)                        // default environment
	assert.Equal(t, stream.TransportPersistentSocket, cfg.Stream.Source)    // default transport
	assert.Equal(t, stream.DefaultReconnectInterval, cfg.Stream.ReconnectInterval)
	assert.Equal(t, stream.DefaultDataBufferSize, cfg.Stream.DataBufferSize)
	assert.Equal(t, relay.DefaultSubject, cfg.Relay.Subject)                // default relay subject
	assert.Equal(t, relay.DefaultQueueSize, cfg.Relay.QueueSize)
	assert.False(t, cfg.NATS.Enabled)                                       // relay off by default
	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.NATS.URLs)       // default URL
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)                             // default infinite reconnects
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)                  // default wait
	assert.True(t, cfg.Telemetry.MetricsEnabled)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
	assert.Equal(t, "/metrics", cfg.Telemetry.MetricsPath)
	assert.True(t, cfg.Telemetry.HealthEnabled)
	assert.Equal(t, 8081, cfg.Telemetry.HealthPort)
}

// Duration fields accept Go duration strings in both formats
func TestLoader_DurationStrings(t *testing.T) {
	configFile := writeConfigFile(t, "config.json", `{
		"platform": {"org": "c360", "id": "durations"},
		"stream": {
			"endpoint": "wss://feeds.example.com/live",
			"reconnect_interval": "250ms",
			"heartbeat_interval": "1m",
			"update_frequency": "1.5s"
		},
		"relay": {"retry_delay": "100ms"}
	}`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Stream.ReconnectInterval)
	assert.Equal(t, time.Minute, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Stream.UpdateFrequency)
	assert.Equal(t, 100*time.Millisecond, cfg.Relay.RetryDelay)
}

// ${NAME} placeholders expand from the environment before parsing
func TestLoader_EnvExpansion(t *testing.T) {
	_ = os.Setenv("TEST_FEED_ENDPOINT", "wss://feeds.example.com/live")
	_ = os.Setenv("TEST_NATS_PASSWORD", "hunter2")
	defer func() {
		_ = os.Unsetenv("TEST_FEED_ENDPOINT")
		_ = os.Unsetenv("TEST_NATS_PASSWORD")
	}()

	configFile := writeConfigFile(t, "config.yaml", `
platform:
  org: c360
  id: expansion
stream:
  endpoint: ${TEST_FEED_ENDPOINT}
nats:
  enabled: true
  urls: ["nats://localhost:4222"]
  password: ${TEST_NATS_PASSWORD}
`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	assert.Equal(t, "wss://feeds.example.com/live", cfg.Stream.Endpoint)
	assert.Equal(t, "hunter2", cfg.NATS.Password)
}

// Unset placeholders expand to empty, caught by validation when the
// field was required
func TestLoader_EnvExpansionUnset(t *testing.T) {
	_ = os.Unsetenv("TEST_UNSET_ENDPOINT")

	configFile := writeConfigFile(t, "config.json", `{
		"platform": {"org": "c360", "id": "unset"},
		"stream": {"endpoint": "${TEST_UNSET_ENDPOINT}"}
	}`)

	loader := NewLoader()
	loader.EnableValidation(true)

	_, err := loader.LoadFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}

// Test environment variable overrides
func TestLoader_EnvOverrides(t *testing.T) {
	// Set environment variables
	_ = os.Setenv("DASHSTREAM_PLATFORM_ID", "env-dashboard")
	_ = os.Setenv("DASHSTREAM_STREAM_ENDPOINT", "wss://env.example.com/live")
	_ = os.Setenv("DASHSTREAM_NATS_URLS", "nats://server1:4222,nats://server2:4222")
	_ = os.Setenv("DASHSTREAM_NATS_USERNAME", "testuser")
	defer func() {
		_ = os.Unsetenv("DASHSTREAM_PLATFORM_ID")
		_ = os.Unsetenv("DASHSTREAM_STREAM_ENDPOINT")
		_ = os.Unsetenv("DASHSTREAM_NATS_URLS")
		_ = os.Unsetenv("DASHSTREAM_NATS_USERNAME")
	}()

	// Base config
	configFile := writeConfigFile(t, "config.json", `{
		"platform": {
			"org": "c360",
			"id": "file-dashboard",
			"environment": "prod"
		},
		"stream": {"endpoint": "wss://file.example.com/live"}
	}`)

	loader := NewLoader()
	cfg, err := loader.LoadFile(configFile)
	require.NoError(t, err)

	// Env vars should override the file
	assert.Equal(t, "env-dashboard", cfg.Platform.ID)
	assert.Equal(t, "wss://env.example.com/live", cfg.Stream.Endpoint)
	assert.Equal(t, []string{"nats://server1:4222", "nats://server2:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "testuser", cfg.NATS.Username)

	// File value should remain when no env override
	assert.Equal(t, "prod", cfg.Platform.Environment)
}

// Test merging configuration layers, last wins
func TestLoader_Layers(t *testing.T) {
	base := writeConfigFile(t, "base.json", `{
		"platform": {"org": "c360", "id": "base"},
		"stream": {
			"endpoint": "wss://feeds.example.com/live",
			"max_reconnect_attempts": 3
		},
		"nats": {"username": "base-user"}
	}`)

	override := writeConfigFile(t, "override.yaml", `
platform:
  id: production
stream:
  source: push-stream
  endpoint: https://feeds.example.com/push
nats:
  enabled: true
`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Platform.ID)                    // from override
	assert.Equal(t, "c360", cfg.Platform.Org)                         // from base
	assert.Equal(t, stream.TransportPushStream, cfg.Stream.Source)    // from override
	assert.Equal(t, "https://feeds.example.com/push", cfg.Stream.Endpoint)
	assert.Equal(t, 3, cfg.Stream.MaxReconnectAttempts)               // from base
	assert.True(t, cfg.NATS.Enabled)                                  // from override
	assert.Equal(t, "base-user", cfg.NATS.Username)                   // from base
}

// Test validation wired into the loader
func TestLoader_Validation(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantError string
	}{
		{
			name: "missing org",
			config: `{
				"platform": {"id": "dashboard"},
				"stream": {"endpoint": "wss://feeds.example.com/live"}
			}`,
			wantError: "platform.org is required",
		},
		{
			name: "missing platform ID",
			config: `{
				"platform": {"org": "c360"},
				"stream": {"endpoint": "wss://feeds.example.com/live"}
			}`,
			wantError: "platform.id is required",
		},
		{
			name: "scheme transport mismatch",
			config: `{
				"platform": {"org": "c360", "id": "dashboard"},
				"stream": {
					"endpoint": "wss://feeds.example.com/live",
					"source": "polling"
				}
			}`,
			wantError: "not usable for",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := writeConfigFile(t, "config.json", tt.config)

			loader := NewLoader()
			loader.EnableValidation(true)

			_, err := loader.LoadFile(configFile)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestLoader_RejectsUnknownExtension(t *testing.T) {
	configFile := writeConfigFile(t, "config.txt", `{}`)

	loader := NewLoader()
	_, err := loader.LoadFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only JSON and YAML")
}

func TestLoader_RejectsPathTraversal(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadFile("../../outside/config.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal not allowed")
}

func TestLoader_RejectsDeepJSON(t *testing.T) {
	deep := strings.Repeat(`{"a":`, 101) + "1" + strings.Repeat("}", 101)
	configFile := writeConfigFile(t, "config.json", deep)

	loader := NewLoader()
	_, err := loader.LoadFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting too deep")
}
