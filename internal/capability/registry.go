package capability

import "sort"

// Record is one entry of a discovery feed: a declaring unit and what it declares.
type Record struct {
	// UnitID identifies the declaring unit (a component, service or handler set).
	UnitID string
	// Business is set when the unit declares the host's business identity.
	Business *BusinessIdentity
	// Capabilities declared by the unit.
	Capabilities []Descriptor
	// TransportReachable reports whether the unit is served by the mandatory REST binding.
	TransportReachable bool
	// PrimaryProvider reports whether the unit implements the primary capability-provider surface.
	PrimaryProvider bool
}

// Feed yields discovery records in a stable order.
type Feed interface {
	Records() []Record
}

// Registry is the authoritative set of capability descriptors for a host.
// It is immutable after Build and safe for concurrent reads.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
	business    *BusinessIdentity
	provider    string
}

// Build validates the feed and constructs the registry in a single pass.
// Any returned error is a *ConfigError and is fatal for the host.
func Build(feed Feed) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	businesses := make(map[string]struct{})
	providers := make(map[string]struct{})

	var records []Record
	if feed != nil {
		records = feed.Records()
	}

	for _, rec := range records {
		if rec.Business != nil {
			businesses[rec.UnitID] = struct{}{}
			identity := *rec.Business
			r.business = &identity
		}
		if rec.PrimaryProvider {
			providers[rec.UnitID] = struct{}{}
			r.provider = rec.UnitID
		}
		for _, d := range rec.Capabilities {
			if !ValidVersion(d.Version) {
				return nil, configError(ErrInvalidVersionFormat, "capability %s declares version %q", d.Name, d.Version)
			}
			if !rec.TransportReachable {
				return nil, configError(ErrTransportRequirementViolated, "unit %s declares capability %s but is not reachable over REST", rec.UnitID, d.Name)
			}
			r.put(d)
		}
	}

	if len(businesses) > 1 {
		return nil, configError(ErrMultipleBusinessIdentities, "declared by units %v", sortedKeys(businesses))
	}
	if len(providers) > 1 {
		return nil, configError(ErrMultipleCapabilityProviders, "implemented by units %v", sortedKeys(providers))
	}

	if r.business != nil && r.provider != "" {
		for _, d := range Standard() {
			r.put(d)
		}
	}
	return r, nil
}

// put upserts a descriptor; the last writer for a name wins but keeps the
// position of the first registration.
func (r *Registry) put(d Descriptor) {
	if _, exists := r.descriptors[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.descriptors[d.Name] = d
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// All returns every descriptor in first-registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

// BusinessIdentity returns the detected business identity, if any.
func (r *Registry) BusinessIdentity() (BusinessIdentity, bool) {
	if r.business == nil {
		return BusinessIdentity{}, false
	}
	return *r.business, true
}

// ProviderUnit returns the unit implementing the primary capability-provider surface.
func (r *Registry) ProviderUnit() (string, bool) {
	return r.provider, r.provider != ""
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
