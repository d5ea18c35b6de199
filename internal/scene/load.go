package scene

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scene.schema.json
var schemaSource string

const schemaURL = "akgeom://scene.schema.json"

// ErrInvalidScene is returned when a document fails schema validation.
var ErrInvalidScene = errors.New("invalid scene document")

var schema = jsonschema.MustCompileString(schemaURL, schemaSource)

// Validate checks raw YAML against the scene schema.
func Validate(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// Round trip through JSON so the validator sees JSON types.
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return nil
}

// Parse validates and decodes a scene document.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	return doc, nil
}

// LoadFile reads and parses a scene document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
