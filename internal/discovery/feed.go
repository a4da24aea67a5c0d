// Package discovery supplies capability discovery feeds.
//
// Units are registered explicitly, either in code with StaticFeed.Add or
// from a YAML discovery file:
//
//	units:
//	  - id: merchant
//	    business: {name: Example Store, version: "2026-01-11"}
//	  - id: checkout-service
//	    rest: true
//	    provider: true
//	  - id: loyalty
//	    rest: true
//	    capabilities:
//	      - {name: com.example.loyalty, version: "2026-01-05"}
package discovery

import (
	"ucphost/internal/capability"
)

// StaticFeed is a discovery feed built by explicit registration.
type StaticFeed struct {
	records []capability.Record
}

// NewStaticFeed creates a feed holding records in order.
func NewStaticFeed(records ...capability.Record) *StaticFeed {
	f := &StaticFeed{}
	for _, rec := range records {
		f.Add(rec)
	}
	return f
}

// Add appends a record. Feeds are filled before the registry is built.
func (f *StaticFeed) Add(rec capability.Record) {
	f.records = append(f.records, rec)
}

// Records returns the records in registration order.
func (f *StaticFeed) Records() []capability.Record {
	out := make([]capability.Record, len(f.records))
	copy(out, f.records)
	return out
}

// BusinessRecord declares the host's business identity.
func BusinessRecord(unitID string, identity capability.BusinessIdentity) capability.Record {
	return capability.Record{UnitID: unitID, Business: &identity}
}

// ProviderRecord describes a unit implementing the primary
// capability-provider surface and served over REST.
func ProviderRecord(unitID string) capability.Record {
	return capability.Record{
		UnitID:             unitID,
		TransportReachable: true,
		PrimaryProvider:    true,
	}
}
