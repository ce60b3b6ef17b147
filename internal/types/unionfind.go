package types

import "fmt"

// UnionFind tracks equivalence classes of inference variables with path
// compression and union by rank. Each class may carry at most one bound
// type; binding conflicts surface as unification errors, never panics.
type UnionFind struct {
	parent  []int
	rank    []uint8
	binding []Type // nil when the class is unbound

	maxVars int
}

// NewUnionFind creates a union-find structure holding at most maxVars
// variables.
func NewUnionFind(maxVars int) *UnionFind {
	return &UnionFind{maxVars: maxVars}
}

// Fresh allocates a new unbound inference variable. It fails once the
// variable budget is spent; the caller converts that into a resource-limit
// diagnostic.
func (u *UnionFind) Fresh() (Var, error) {
	if len(u.parent) >= u.maxVars {
		return Var{}, fmt.Errorf("type variable count exceeds maximum %d", u.maxVars)
	}
	id := len(u.parent)
	u.parent = append(u.parent, id)
	u.rank = append(u.rank, 0)
	u.binding = append(u.binding, nil)
	return Var{ID: id}, nil
}

// Len returns the number of allocated variables.
func (u *UnionFind) Len() int { return len(u.parent) }

// Find returns the representative of id, compressing the path on the way.
func (u *UnionFind) Find(id int) int {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		u.parent[id], id = root, u.parent[id]
	}
	return root
}

// Binding returns the type bound to the class of id, or nil.
func (u *UnionFind) Binding(id int) Type {
	return u.binding[u.Find(id)]
}

// Bind attaches a type to the class of id. The class must be unbound; the
// unifier merges bindings before calling.
func (u *UnionFind) Bind(id int, t Type) {
	u.binding[u.Find(id)] = t
}

// Union merges the classes of a and b by rank. If both classes carry
// bindings the caller must have unified them already; the surviving root
// keeps one of the two equal bindings.
func (u *UnionFind) Union(a, b int) {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return
	}

	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	// ra is now the deeper (or equal) root and survives.
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	if u.binding[ra] == nil {
		u.binding[ra] = u.binding[rb]
	}
	u.binding[rb] = nil
}

// Resolve replaces every bound inference variable in t by its binding,
// recursively. Unbound variables stay as their representative Var so
// callers can detect them.
func (u *UnionFind) Resolve(t Type) Type {
	switch t := t.(type) {
	case Var:
		root := u.Find(t.ID)
		if b := u.binding[root]; b != nil {
			return u.Resolve(b)
		}
		return Var{ID: root}
	case Function:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = u.Resolve(p)
		}
		ret := t.Return
		if ret != nil {
			ret = u.Resolve(ret)
		}
		return Function{Params: params, Return: ret}
	case Array:
		return Array{Elem: u.Resolve(t.Elem)}
	case Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = u.Resolve(e)
		}
		return Tuple{Elems: elems}
	case Named:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = u.Resolve(a)
		}
		return Named{Name: t.Name, Args: args}
	case Range:
		return Range{Elem: u.Resolve(t.Elem)}
	default:
		return t
	}
}
