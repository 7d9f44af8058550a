// Package config provides configuration management for DashStream
// deployments.
//
// This package handles loading, validation, and thread-safe access to
// application configuration from JSON or YAML files and environment
// variables.
//
// # Core Components
//
// Config: Main configuration structure containing platform identity,
// the stream client settings, the optional NATS relay, broker
// connection details, and telemetry server settings.
//
// SafeConfig: Thread-safe wrapper using RWMutex and deep cloning to
// prevent concurrent access issues and accidental mutations.
//
// Loader: Loads configuration with layer merging (base + overrides),
// ${ENV_VAR} placeholder expansion, and environment variable overrides
// for flexible deployment scenarios.
//
// CheckSchema / CheckSchemaFile: Validate a raw configuration document
// against the embedded JSON Schema, catching typo'd keys and
// wrong-typed values before the process starts.
//
// # Basic Usage
//
// Loading configuration from files with layer merging:
//
//	loader := config.NewLoader()
//	loader.AddLayer("config/base.yaml")
//	loader.AddLayer("config/production.yaml") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # File Formats
//
// The parser follows the file extension: .yaml and .yml load as YAML,
// everything else as JSON. Both formats use the same snake_case keys,
// and duration fields accept Go duration strings:
//
//	platform:
//	  org: c360
//	  id: ops-dashboard
//	stream:
//	  endpoint: wss://feeds.example.com/live
//	  source: persistent-socket
//	  reconnect_interval: 5s
//	nats:
//	  enabled: true
//	  urls: ["nats://localhost:4222"]
//
// # Thread-Safe Access
//
// SafeConfig ensures thread-safe access to configuration:
//
//	safeConfig := config.NewSafeConfig(cfg)
//
//	// Read config (deep copy returned, safe to use)
//	current := safeConfig.Get()
//
//	// Replace config atomically (validated first)
//	if err := safeConfig.Update(next); err != nil {
//		log.Printf("rejected config update: %v", err)
//	}
//
// # Environment Variables
//
// Files may embed ${NAME} placeholders, expanded before parsing:
//
//	nats:
//	  password: ${NATS_PASSWORD}
//
// A fixed set of DASHSTREAM_* variables overrides the merged result:
//
//	# Override the feed endpoint
//	export DASHSTREAM_STREAM_ENDPOINT="wss://feeds.example.com/live"
//
//	# Override NATS URLs (comma-separated)
//	export DASHSTREAM_NATS_URLS="nats://server1:4222,nats://server2:4222"
//
// # Layer Merging
//
// Configuration layers are merged with last-wins semantics:
//
//	base.json:
//	  {"platform": {"org": "c360", "id": "dev"}}
//
//	production.json:
//	  {"platform": {"id": "prod"}}
//
//	Result:
//	  {"platform": {"org": "c360", "id": "prod"}}
//
// # Security
//
// The package includes security validation:
//   - File size limits (10MB max) to prevent memory exhaustion
//   - JSON depth validation (100 levels max) to prevent DoS attacks
//   - Path validation to prevent directory traversal
//   - Regular file checks (no symlinks or device files)
package config
