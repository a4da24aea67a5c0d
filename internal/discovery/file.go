package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"ucphost/internal/capability"
)

// ErrInvalidDiscoveryFile is returned for discovery files that cannot be used.
var ErrInvalidDiscoveryFile = errors.New("invalid discovery file")

// fileDocument carries json tags for schema reflection.
type fileDocument struct {
	Units []fileUnit `json:"units,omitempty" yaml:"units"`
}

type fileUnit struct {
	ID           string                       `json:"id" yaml:"id" jsonschema:"minLength=1"`
	Business     *capability.BusinessIdentity `json:"business,omitempty" yaml:"business"`
	REST         bool                         `json:"rest,omitempty" yaml:"rest"`
	Provider     bool                         `json:"provider,omitempty" yaml:"provider"`
	Capabilities []capability.Descriptor      `json:"capabilities,omitempty" yaml:"capabilities"`
}

// LoadFile reads a YAML discovery file.
func LoadFile(path string) (*StaticFeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read discovery file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML discovery document. Unknown fields are rejected.
// Capability versions are validated when the registry is built.
func Parse(data []byte) (*StaticFeed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc fileDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDiscoveryFile, err)
	}

	feed := NewStaticFeed()
	seen := make(map[string]struct{}, len(doc.Units))
	for i, u := range doc.Units {
		if u.ID == "" {
			return nil, fmt.Errorf("%w: unit %d has no id", ErrInvalidDiscoveryFile, i)
		}
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("%w: unit %s listed twice", ErrInvalidDiscoveryFile, u.ID)
		}
		seen[u.ID] = struct{}{}

		feed.Add(capability.Record{
			UnitID:             u.ID,
			Business:           u.Business,
			Capabilities:       u.Capabilities,
			TransportReachable: u.REST,
			PrimaryProvider:    u.Provider,
		})
	}
	return feed, nil
}
