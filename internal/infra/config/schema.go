package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

const configSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "unityHost": {"type": "string"},
    "unityPort": {"type": "integer"},
    "mcpPort": {"type": "integer"},
    "connectionTimeout": {"type": "number"},
    "bufferSize": {"type": "integer"},
    "logLevel": {"type": "string"},
    "logFormat": {"type": "string"},
    "maxRetries": {"type": "integer"},
    "retryDelay": {"type": "number"},
    "observability": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "listenAddress": {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

// validateConfigSchema rejects override files with unknown keys or
// mistyped values before viper decodes them, so typos surface as errors
// instead of silently falling back to defaults.
func validateConfigSchema(expanded string) error {
	schemaOnce.Do(func() {
		var schema jsonschema.Schema
		if err := json.Unmarshal([]byte(configSchemaJSON), &schema); err != nil {
			schemaErr = err
			return
		}
		resolvedSchema, schemaErr = schema.Resolve(nil)
	})
	if schemaErr != nil {
		return fmt.Errorf("config schema: %w", schemaErr)
	}

	var decoded any
	if err := yaml.Unmarshal([]byte(expanded), &decoded); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if decoded == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees JSON value types.
	buf, err := json.Marshal(decoded)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(buf, &normalized); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := resolvedSchema.Validate(normalized); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
