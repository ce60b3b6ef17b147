package types

// scope is a lexical scope in the chain walked during constraint
// generation. Lookups climb toward the file scope at the root.
type scope struct {
	parent *scope
	vars   map[string]Type
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]Type)}
}

func (s *scope) define(name string, t Type) {
	s.vars[name] = t
}

func (s *scope) lookup(name string) (Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// names collects every visible binding, nearest scope first. Used to rank
// suggestions for unbound identifiers.
func (s *scope) names() []string {
	var out []string
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.vars {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
