package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/dashstream/relay"
	"github.com/c360/dashstream/stream"
)

// envVarPattern matches ${NAME} placeholders. Bare $NAME is left alone
// so dollar signs in values do not need escaping.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  "DASHSTREAM",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := l.getDefaults()

	// Load each layer and merge using map-based approach
	for _, path := range l.layers {
		rawConfig, err := l.loadRaw(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = l.mergeFromMap(cfg, rawConfig)
	}

	// Apply environment overrides
	l.applyEnvOverrides(cfg)

	// Validate if enabled
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getDefaults returns default configuration
func (l *Loader) getDefaults() *Config {
	return &Config{
		Platform: PlatformConfig{
			Environment: "dev",
		},
		Stream: stream.DefaultConfig(),
		Relay:  relay.DefaultConfig(),
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			MetricsPort:    9090,
			MetricsPath:    "/metrics",
			HealthEnabled:  true,
			HealthPort:     8081,
		},
	}
}

// loadRaw loads a configuration file as a map. The format follows the
// extension: .yaml/.yml parse as YAML, everything else as JSON. Both
// formats use the same snake_case keys because YAML documents are
// re-marshaled through JSON during merging.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	// Use secure file reading with validation
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand ${ENV_VAR} placeholders before parsing
	data, err = expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	} else {
		// Validate JSON depth to prevent DoS
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &rawConfig); err != nil {
			return nil, err
		}
	}

	// Convert duration strings
	l.parseDurations(rawConfig)

	return rawConfig, nil
}

// isYAMLPath reports whether a config path selects the YAML parser
func isYAMLPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// expandEnvVars replaces ${NAME} placeholders with the value of the
// named environment variable. Unset variables expand to the empty
// string, which validation catches later if the field was required.
func expandEnvVars(data []byte) ([]byte, error) {
	var expandErr error
	expanded := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(match[2 : len(match)-1])
		value := os.Getenv(name)
		if err := validateEnvVar(name, value); err != nil && expandErr == nil {
			expandErr = err
		}
		return []byte(value)
	})
	if expandErr != nil {
		return nil, expandErr
	}
	return expanded, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	// Marshal the base config to JSON then to map
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	// Deep merge the maps
	mergedMap := l.deepMergeMaps(baseMap, override)

	// Convert back to Config
	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)

	// Copy base values
	for k, v := range base {
		result[k] = v
	}

	// Override with values from override map
	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		// Otherwise, override takes precedence
		result[k] = v
	}

	return result
}

// parseDurations converts duration strings to nanoseconds for json unmarshaling
func (l *Loader) parseDurations(data map[string]any) {
	convertDurationKeys(data, "stream",
		"reconnect_interval", "heartbeat_interval", "update_frequency")
	convertDurationKeys(data, "relay", "retry_delay")
	convertDurationKeys(data, "nats", "reconnect_wait")
}

// convertDurationKeys rewrites duration strings under a config section
// into nanosecond integers so time.Duration fields unmarshal cleanly
func convertDurationKeys(data map[string]any, section string, keys ...string) {
	m, ok := data[section].(map[string]any)
	if !ok {
		return
	}
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				m[key] = d.Nanoseconds()
			}
		}
	}
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) {
	// Platform overrides
	if val := os.Getenv(l.envPrefix + "_PLATFORM_ORG"); val != "" {
		cfg.Platform.Org = val
	}
	if val := os.Getenv(l.envPrefix + "_PLATFORM_ID"); val != "" {
		cfg.Platform.ID = val
	}
	if val := os.Getenv(l.envPrefix + "_ENVIRONMENT"); val != "" {
		cfg.Platform.Environment = val
	}

	// Stream overrides
	if val := os.Getenv(l.envPrefix + "_STREAM_ENDPOINT"); val != "" {
		cfg.Stream.Endpoint = val
	}
	if val := os.Getenv(l.envPrefix + "_STREAM_SOURCE"); val != "" {
		cfg.Stream.Source = stream.Transport(val)
	}

	// Relay overrides
	if val := os.Getenv(l.envPrefix + "_RELAY_SUBJECT"); val != "" {
		cfg.Relay.Subject = val
	}

	// NATS overrides
	if val := os.Getenv(l.envPrefix + "_NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := os.Getenv(l.envPrefix + "_NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := os.Getenv(l.envPrefix + "_NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}
}
