package config

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON Schema for a full configuration document.
// additionalProperties is false throughout so typo'd keys surface as
// schema violations instead of silently falling back to defaults.
// Duration fields accept Go duration strings ("250ms", "1h30m") or raw
// nanosecond integers.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "DashStream configuration",
  "type": "object",
  "additionalProperties": false,
  "required": ["platform", "stream"],
  "properties": {
    "platform": {
      "type": "object",
      "additionalProperties": false,
      "required": ["org", "id"],
      "properties": {
        "org": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9._-]+$"},
        "id": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9._-]+$"},
        "instance_id": {"type": "string"},
        "environment": {"type": "string"}
      }
    },
    "stream": {
      "type": "object",
      "additionalProperties": false,
      "required": ["endpoint"],
      "properties": {
        "endpoint": {"type": "string", "minLength": 1},
        "source": {"type": "string", "enum": ["persistent-socket", "push-stream", "polling"]},
        "reconnect_interval": {"$ref": "#/definitions/duration"},
        "max_reconnect_attempts": {"type": "integer", "minimum": 0},
        "heartbeat_interval": {"$ref": "#/definitions/duration"},
        "data_buffer_size": {"type": "integer", "minimum": 1},
        "update_frequency": {"$ref": "#/definitions/duration"},
        "batch_size": {"type": "integer", "minimum": 0},
        "enable_compression": {"type": "boolean"}
      }
    },
    "relay": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "subject": {"type": "string", "minLength": 1},
        "queue_size": {"type": "integer", "minimum": 1},
        "on_full": {"type": "string", "enum": ["drop_oldest", "drop_newest"]},
        "publish_retries": {"type": "integer", "minimum": 0},
        "retry_delay": {"$ref": "#/definitions/duration"}
      }
    },
    "nats": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "urls": {
          "type": "array",
          "minItems": 1,
          "items": {"type": "string", "minLength": 1}
        },
        "max_reconnects": {"type": "integer", "minimum": -1},
        "reconnect_wait": {"$ref": "#/definitions/duration"},
        "username": {"type": "string"},
        "password": {"type": "string"},
        "token": {"type": "string"},
        "tls": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": {"type": "boolean"},
            "cert_file": {"type": "string"},
            "key_file": {"type": "string"},
            "ca_file": {"type": "string"}
          }
        }
      }
    },
    "telemetry": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "metrics_enabled": {"type": "boolean"},
        "metrics_port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "metrics_path": {"type": "string", "pattern": "^/"},
        "health_enabled": {"type": "boolean"},
        "health_port": {"type": "integer", "minimum": 1, "maximum": 65535}
      }
    }
  },
  "definitions": {
    "duration": {
      "oneOf": [
        {"type": "integer", "minimum": 0},
        {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"}
      ]
    }
  }
}`

// CheckSchema validates a raw JSON configuration document against the
// embedded schema. It returns one message per violation, or nil when
// the document conforms. An error means the check itself could not run.
func CheckSchema(data []byte) ([]string, error) {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return issues, nil
}

// CheckSchemaFile reads a configuration file and validates it against
// the embedded schema. YAML files are converted to JSON first so both
// formats share one schema. ${ENV_VAR} placeholders are expanded the
// same way Load expands them.
func CheckSchemaFile(path string) ([]string, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	data, err = expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	if isYAMLPath(path) {
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return nil, err
		}
	}

	return CheckSchema(data)
}
