package payment

import "sort"

// Registry maps handler names to handlers.
//
// Registration happens once at startup before traffic is accepted; concurrent
// Register calls must be serialized by the caller. Reads need no locking.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under name. A later registration for the same name replaces
// the earlier one.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// All returns a copy of the name -> handler mapping.
func (r *Registry) All() map[string]Handler {
	out := make(map[string]Handler, len(r.handlers))
	for name, h := range r.handlers {
		out[name] = h
	}
	return out
}

// Declarations returns every handler declaration sorted by registered name.
func (r *Registry) Declarations() []Declaration {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Declaration, 0, len(names))
	for _, name := range names {
		decl := r.handlers[name].Declaration()
		if decl.Name == "" {
			decl.Name = name
		}
		out = append(out, decl)
	}
	return out
}
