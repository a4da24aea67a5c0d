// Package capability holds the capability model and the host's capability registry.
//
// A capability is a named, versioned unit of protocol functionality such as
// dev.ucp.shopping.checkout. The registry is built once at startup from a
// discovery feed and is read-only afterwards.
package capability

import "regexp"

// versionPattern is the only accepted capability version format.
var versionPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Descriptor describes one declared capability.
type Descriptor struct {
	// Name is the reverse-DNS capability name and the registry key.
	Name string `json:"name" yaml:"name"`
	// Version is a YYYY-MM-DD date string.
	Version string `json:"version" yaml:"version" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$"`
	Spec    string `json:"spec,omitempty" yaml:"spec,omitempty"`
	Schema  string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Extends names the parent capability, if any.
	Extends string `json:"extends,omitempty" yaml:"extends,omitempty"`
}

// BusinessIdentity is the merchant-of-record a host represents.
type BusinessIdentity struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version" jsonschema:"pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$"`
}

// ValidVersion reports whether v matches YYYY-MM-DD.
func ValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}
