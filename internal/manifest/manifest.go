// Package manifest loads the YAML gallery manifest describing the images
// the demo renders, including optional high-resolution replacements.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schema constrains a manifest document before it is trusted.
const schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["images"],
  "additionalProperties": false,
  "properties": {
    "images": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["source"],
        "additionalProperties": false,
        "properties": {
          "source": {"type": "string", "minLength": 1},
          "alt": {"type": "string"},
          "kind": {"enum": ["image", "vector", "container", "image-role"]},
          "replacement": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "source": {"type": "string", "minLength": 1},
              "srcset": {"type": "string"},
              "sizes": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

// Replacement describes an optional higher-resolution asset.
type Replacement struct {
	Source    string `yaml:"source"`
	SourceSet string `yaml:"srcset"`
	Sizes     string `yaml:"sizes"`
}

// Image is one gallery entry.
type Image struct {
	Source      string       `yaml:"source"`
	Alt         string       `yaml:"alt"`
	Kind        string       `yaml:"kind"`
	Replacement *Replacement `yaml:"replacement"`
}

// Manifest is the full gallery description.
type Manifest struct {
	Images []Image `yaml:"images"`
}

var compiled = jsonschema.MustCompileString("gallery.schema.json", schema)

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates manifest bytes against the schema and decodes them.
func Parse(data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest YAML: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON-native types.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize manifest: %w", err)
	}
	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return nil, fmt.Errorf("normalize manifest: %w", err)
	}
	if err := compiled.Validate(instance); err != nil {
		return nil, fmt.Errorf("validate manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
