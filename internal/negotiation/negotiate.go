// Package negotiation computes the capability set a platform and this
// business agree on.
//
// The core rule is deliberately simple: a platform capability matches the
// first business capability with the same name whose version is not older
// than the platform's, and the platform's descriptor is kept. Versions are
// YYYY-MM-DD strings so lexicographic order is chronological order.
//
// Around the core the package fetches and caches platform profiles announced
// in the UCP-Agent request header and stores the negotiated result in the
// request context.
package negotiation

import (
	"ucphost/internal/capability"
	"ucphost/internal/payment"
)

// IsCompatible reports whether a platform requiring platformVersion can use a
// business offering businessVersion.
func IsCompatible(platformVersion, businessVersion string) bool {
	return platformVersion <= businessVersion
}

// Negotiate returns the platform capabilities matched by the business, in
// platform order. Unmatched platform capabilities are dropped.
func Negotiate(platform, business []capability.Descriptor) []capability.Descriptor {
	return intersect(platform, business, func(d capability.Descriptor) (string, string) {
		return d.Name, d.Version
	})
}

// NegotiateHandlers applies the same rule to payment handler declarations.
func NegotiateHandlers(platform, business []payment.Declaration) []payment.Declaration {
	return intersect(platform, business, func(d payment.Declaration) (string, string) {
		return d.Name, d.Version
	})
}

func intersect[T any](platform, business []T, key func(T) (name, version string)) []T {
	out := make([]T, 0, len(platform))
	for _, p := range platform {
		pName, pVersion := key(p)
		for _, b := range business {
			bName, bVersion := key(b)
			if bName == pName && IsCompatible(pVersion, bVersion) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
