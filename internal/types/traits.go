package types

// Builtin trait names usable as generic bounds.
const (
	TraitEq      = "Eq"
	TraitOrd     = "Ord"
	TraitClone   = "Clone"
	TraitDisplay = "Display"
	TraitNumeric = "Numeric"
	TraitAdd     = "Add"
)

// Registry answers whether a type satisfies a trait bound. Primitive
// impls are built in; user struct and enum declarations register
// structural impls for Clone and Eq during declaration collection.
type Registry struct {
	impls map[string]map[string]bool // trait -> primitive name -> present
}

// NewRegistry builds a registry with the built-in primitive impls.
func NewRegistry() *Registry {
	r := &Registry{impls: make(map[string]map[string]bool)}

	numerics := []Primitive{I32, I64, F32, F64}
	for _, p := range numerics {
		r.add(TraitEq, p)
		r.add(TraitOrd, p)
		r.add(TraitClone, p)
		r.add(TraitDisplay, p)
		r.add(TraitNumeric, p)
		r.add(TraitAdd, p)
	}

	r.add(TraitEq, Bool)
	r.add(TraitClone, Bool)
	r.add(TraitDisplay, Bool)

	r.add(TraitEq, String)
	r.add(TraitOrd, String)
	r.add(TraitClone, String)
	r.add(TraitDisplay, String)
	r.add(TraitAdd, String)

	r.add(TraitEq, Unit)
	r.add(TraitClone, Unit)

	return r
}

func (r *Registry) add(trait string, p Primitive) {
	m := r.impls[trait]
	if m == nil {
		m = make(map[string]bool)
		r.impls[trait] = m
	}
	m[string(p)] = true
}

// IsKnownTrait reports whether name is a recognized trait.
func IsKnownTrait(name string) bool {
	switch name {
	case TraitEq, TraitOrd, TraitClone, TraitDisplay, TraitNumeric, TraitAdd:
		return true
	}
	return false
}

// Satisfies reports whether t implements trait. Unknown satisfies every
// trait, keeping gradual typing from producing spurious bound errors.
// Rigid parameters satisfy a trait only when bounds declares it.
func (r *Registry) Satisfies(t Type, trait string, bounds map[string][]string) bool {
	switch t := t.(type) {
	case Unknown:
		return true
	case Var:
		// Still unconstrained after solving; treat like Unknown rather
		// than inventing a failure the program never forced.
		return true
	case Primitive:
		return r.impls[trait][string(t)]
	case Param:
		for _, b := range bounds[t.Name] {
			if b == trait {
				return true
			}
		}
		return false
	case Array:
		// Arrays derive Clone, Eq and Ord structurally from the element.
		switch trait {
		case TraitClone, TraitEq, TraitOrd:
			return r.Satisfies(t.Elem, trait, bounds)
		}
		return false
	case Tuple:
		switch trait {
		case TraitClone, TraitEq:
			for _, e := range t.Elems {
				if !r.Satisfies(e, trait, bounds) {
					return false
				}
			}
			return true
		}
		return false
	case Named:
		// User types derive Clone and Eq; richer impls are out of scope.
		return trait == TraitClone || trait == TraitEq
	default:
		return false
	}
}
