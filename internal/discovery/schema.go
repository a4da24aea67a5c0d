package discovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaResource = "ucp-discovery.json"

// Violation is one schema failure in a discovery document.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	if v.Location == "" {
		return v.Message
	}
	return v.Location + ": " + v.Message
}

// ValidationError lists every violation found in a discovery document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%d violation(s): %s", len(parts), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDiscoveryFile
}

// Schema returns the JSON Schema of the discovery file format.
func Schema() ([]byte, error) {
	reflector := invopop.Reflector{ExpandedStruct: true, Anonymous: true}
	data, err := json.MarshalIndent(reflector.Reflect(&fileDocument{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal discovery schema: %w", err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	data, err := Schema()
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add discovery schema: %w", err)
	}
	return compiler.Compile(schemaResource)
})

// Validate checks a YAML discovery document against Schema and reports every
// violation at once. Parse stops at the first problem.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDiscoveryFile, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	// Round-trip through JSON so the validator sees JSON types only.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDiscoveryFile, err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDiscoveryFile, err)
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %w", ErrInvalidDiscoveryFile, err)
	}
	return &ValidationError{Violations: flatten(ve)}
}

func flatten(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{Location: ve.InstanceLocation, Message: ve.Message}}
	}
	var out []Violation
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
