// Package manifest renders the host's discovery document served at
// /.well-known/ucp.
package manifest

import (
	"errors"
	"strings"

	"ucphost/internal/capability"
	"ucphost/internal/payment"
)

// ShoppingService is the service key under "services".
const ShoppingService = "dev.ucp.shopping"

// ServiceSpec documents the shopping service.
const ServiceSpec = "https://ucp.dev/specification/overview"

// Transport schemas advertised for the shopping service.
const (
	RESTSchema = "https://ucp.dev/services/shopping/rest.openapi.json"
	MCPSchema  = "https://ucp.dev/services/shopping/mcp.openrpc.json"
	A2ASchema  = "https://ucp.dev/services/shopping/a2a.json"
)

// Transport paths relative to the host base URL.
const (
	RESTPath    = "/ucp/v1"
	MCPPath     = "/ucp/mcp"
	JSONRPCPath = "/ucp/jsonrpc"
)

// ErrNoBusinessIdentity is returned when the host declares no business.
var ErrNoBusinessIdentity = errors.New("no business identity declared")

// Document is the discovery manifest.
type Document struct {
	UCP Body `json:"ucp"`
}

// Body is the "ucp" block of the manifest.
type Body struct {
	Version      string             `json:"version"`
	Services     map[string]Service `json:"services"`
	Capabilities []Capability       `json:"capabilities"`
	Payment      *Payment           `json:"payment,omitempty"`
}

// Service lists one service's version and per-transport endpoints.
type Service struct {
	Version string    `json:"version"`
	Spec    string    `json:"spec"`
	REST    *Endpoint `json:"rest,omitempty"`
	MCP     *Endpoint `json:"mcp,omitempty"`
	A2A     *Endpoint `json:"a2a,omitempty"`
}

// Endpoint is a transport binding.
type Endpoint struct {
	Endpoint string `json:"endpoint"`
	Schema   string `json:"schema,omitempty"`
}

// Capability is a capability as rendered in the manifest.
type Capability struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Spec    string `json:"spec,omitempty"`
	Schema  string `json:"schema,omitempty"`
}

// Payment lists the payment handlers the business accepts.
type Payment struct {
	Handlers []payment.Declaration `json:"handlers"`
}

// Transports selects the optional bindings. REST is always served.
type Transports struct {
	MCP bool
	A2A bool
}

// TransportEndpoints holds the endpoint of each enabled binding.
type TransportEndpoints struct {
	REST Endpoint
	MCP  *Endpoint
	A2A  *Endpoint
}

// Endpoints derives the transport endpoints from the host base URL.
func Endpoints(baseURL string, enabled Transports) TransportEndpoints {
	base := strings.TrimRight(baseURL, "/")
	out := TransportEndpoints{
		REST: Endpoint{Endpoint: base + RESTPath, Schema: RESTSchema},
	}
	if enabled.MCP {
		out.MCP = &Endpoint{Endpoint: base + MCPPath, Schema: MCPSchema}
	}
	if enabled.A2A {
		out.A2A = &Endpoint{Endpoint: base + JSONRPCPath, Schema: A2ASchema}
	}
	return out
}

// Builder renders manifests from the capability and payment registries.
type Builder struct {
	registry  *capability.Registry
	payments  *payment.Registry
	endpoints TransportEndpoints
}

// NewBuilder creates a builder. payments may be nil.
func NewBuilder(registry *capability.Registry, payments *payment.Registry, endpoints TransportEndpoints) *Builder {
	return &Builder{registry: registry, payments: payments, endpoints: endpoints}
}

// Build renders the manifest. It returns ErrNoBusinessIdentity when the
// registry holds no business identity.
func (b *Builder) Build() (*Document, error) {
	identity, ok := b.registry.BusinessIdentity()
	if !ok {
		return nil, ErrNoBusinessIdentity
	}

	rest := b.endpoints.REST
	service := Service{
		Version: identity.Version,
		Spec:    ServiceSpec,
		REST:    &rest,
		MCP:     b.endpoints.MCP,
		A2A:     b.endpoints.A2A,
	}

	descriptors := b.registry.All()
	capabilities := make([]Capability, 0, len(descriptors))
	for _, d := range descriptors {
		capabilities = append(capabilities, Capability{
			Name:    d.Name,
			Version: d.Version,
			Spec:    d.Spec,
			Schema:  d.Schema,
		})
	}

	doc := &Document{UCP: Body{
		Version:      identity.Version,
		Services:     map[string]Service{ShoppingService: service},
		Capabilities: capabilities,
	}}
	if b.payments != nil {
		if decls := b.payments.Declarations(); len(decls) > 0 {
			doc.UCP.Payment = &Payment{Handlers: decls}
		}
	}
	return doc, nil
}
