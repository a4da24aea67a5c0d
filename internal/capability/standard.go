package capability

// Standard capability names.
const (
	Checkout        = "dev.ucp.shopping.checkout"
	Order           = "dev.ucp.shopping.order"
	IdentityLinking = "dev.ucp.common.identity_linking"
)

// StandardVersion is the canonical version of the standard capability set.
const StandardVersion = "2026-01-11"

// Standard returns the baseline capabilities implied by implementing the
// primary capability-provider surface.
func Standard() []Descriptor {
	return []Descriptor{
		{
			Name:    Checkout,
			Version: StandardVersion,
			Spec:    "https://ucp.dev/specification/checkout",
			Schema:  "https://ucp.dev/schemas/shopping/checkout.json",
		},
		{
			Name:    Order,
			Version: StandardVersion,
			Spec:    "https://ucp.dev/specification/order",
			Schema:  "https://ucp.dev/schemas/shopping/order.json",
		},
		{
			Name:    IdentityLinking,
			Version: StandardVersion,
			Spec:    "https://ucp.dev/specification/identity-linking",
			Schema:  "https://ucp.dev/schemas/common/identity_linking.json",
		},
	}
}
