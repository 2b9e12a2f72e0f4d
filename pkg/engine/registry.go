package engine

import (
	"slices"

	"github.com/charlie0129/vnacal/pkg/calibration"
)

// Registry maps method names, and their aliases, to factories.
type Registry struct {
	factories map[string]calibration.Factory
	aliases   map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]calibration.Factory{},
		aliases:   map[string]string{},
	}
}

// DefaultRegistry knows every built-in method.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(calibration.MethodSOL, func(in calibration.Inputs) calibration.Method {
		return calibration.NewOnePort(in)
	}, "sol")
	r.Register(calibration.MethodSOLT, func(in calibration.Inputs) calibration.Method {
		return calibration.NewSOLT(in)
	})
	r.Register(calibration.MethodLRRM, func(in calibration.Inputs) calibration.Method {
		return calibration.NewLRRM(in)
	})
	r.Register(calibration.MethodMTRL, func(in calibration.Inputs) calibration.Method {
		return calibration.NewMultilineTRL(in)
	}, "mtrl")
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f calibration.Factory, aliases ...string) {
	r.factories[name] = f
	for _, a := range aliases {
		r.aliases[a] = name
	}
}

// Resolve returns the canonical name and factory of name or one of its
// aliases.
func (r *Registry) Resolve(name string) (string, calibration.Factory, error) {
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	f, ok := r.factories[name]
	if !ok {
		return "", nil, &calibration.UnknownMethodError{Method: name}
	}
	return name, f, nil
}

// Names returns the canonical method names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
