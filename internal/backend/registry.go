package backend

import "strings"

// Registry holds the known variants in priority order together with the
// result of probing them. Probing happens once, in NewRegistry; a Registry
// is immutable afterwards and safe for concurrent use.
type Registry struct {
	variants  []Variant
	available []Variant
}

// NewRegistry probes each variant and records which ones are available.
func NewRegistry(variants ...Variant) *Registry {
	r := &Registry{variants: variants}
	for _, v := range variants {
		if v.Available() {
			r.available = append(r.available, v)
		}
	}
	return r
}

// Default returns the first available variant.
func (r *Registry) Default() (Variant, bool) {
	if len(r.available) == 0 {
		return nil, false
	}
	return r.available[0], true
}

// Names returns the names of all known variants in priority order.
func (r *Registry) Names() []string {
	return names(r.variants)
}

// AvailableNames returns the names of the available variants in priority
// order.
func (r *Registry) AvailableNames() []string {
	return names(r.available)
}

// New creates a backend from the default variant. It returns ErrNoBackend
// when nothing is available and creates nothing in that case.
func (r *Registry) New(req Request, onExit func()) (Backend, error) {
	v, ok := r.Default()
	if !ok {
		return nil, ErrNoBackend
	}
	return v.New(req, onExit), nil
}

// Prefer moves the variant called name to the front of variants. The order
// of the others is kept. Unknown names leave the order unchanged.
func Prefer(name string, variants []Variant) []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if strings.EqualFold(v.Name(), name) {
			out = append(out, v)
		}
	}
	for _, v := range variants {
		if !strings.EqualFold(v.Name(), name) {
			out = append(out, v)
		}
	}
	return out
}

func names(variants []Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Name()
	}
	return out
}
