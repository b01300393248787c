package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "years": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "label"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string", "minLength": 1},
          "short_label": {"type": "string"},
          "description": {"type": "string"},
          "matches": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "branches": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "label"],
              "additionalProperties": false,
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "label": {"type": "string", "minLength": 1},
                "matches": {"type": "array", "items": {"type": "string", "minLength": 1}}
              }
            }
          }
        }
      }
    },
    "trimesters": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "label"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "label": {"type": "string", "minLength": 1}
        }
      }
    },
    "exam_types": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "label"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string", "minLength": 1},
          "singular": {"type": "string"},
          "icon": {"type": "string"}
        }
      }
    },
    "bac_branches": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label", "level_id"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string", "minLength": 1},
          "level_id": {"type": "string", "minLength": 1}
        }
      }
    },
    "default_trimester": {"type": "integer", "minimum": 1},
    "default_exam_type": {"type": "string", "minLength": 1},
    "general_branch_label": {"type": "string"},
    "empty_state_message": {"type": "string"}
  }
}`

// LoadFile reads a YAML taxonomy override. Sections missing from the file
// keep their built-in defaults. An empty path yields the defaults.
func LoadFile(path string) (*Taxonomy, error) {
	if path == "" {
		return New(DefaultConfig())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Parse validates YAML against the taxonomy schema and overlays it on the
// defaults.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse taxonomy yaml: %w", err)
	}
	if doc == nil {
		return cfg, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return Config{}, fmt.Errorf("validate taxonomy: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Config{}, fmt.Errorf("invalid taxonomy: %s", strings.Join(msgs, "; "))
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode taxonomy: %w", err)
	}
	return cfg, nil
}
