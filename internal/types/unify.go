package types

import "fmt"

// unifyErrorKind distinguishes the two ways unification fails.
type unifyErrorKind int

const (
	unifyMismatch unifyErrorKind = iota
	unifyOccurs
)

type unifyError struct {
	kind unifyErrorKind
	a, b Type
}

func (e *unifyError) Error() string {
	if e.kind == unifyOccurs {
		return fmt.Sprintf("cannot construct infinite type: %s occurs in %s", e.a, e.b)
	}
	return fmt.Sprintf("type mismatch: expected %s, found %s", e.a, e.b)
}

// Unify makes a and b equal under the union-find structure, binding
// variables as needed. The gradual Unknown type unifies with anything
// without binding, so missing information never cascades into errors.
func Unify(u *UnionFind, a, b Type) error {
	a = shallowResolve(u, a)
	b = shallowResolve(u, b)

	if _, ok := a.(Unknown); ok {
		return nil
	}
	if _, ok := b.(Unknown); ok {
		return nil
	}

	av, aIsVar := a.(Var)
	bv, bIsVar := b.(Var)

	switch {
	case aIsVar && bIsVar:
		u.Union(av.ID, bv.ID)
		return nil
	case aIsVar:
		return bindVar(u, av, b)
	case bIsVar:
		return bindVar(u, bv, a)
	}

	switch a := a.(type) {
	case Primitive:
		if b, ok := b.(Primitive); ok && a == b {
			return nil
		}
	case Param:
		if b, ok := b.(Param); ok && a.Name == b.Name {
			return nil
		}
	case Function:
		bf, ok := b.(Function)
		if !ok || len(a.Params) != len(bf.Params) {
			break
		}
		for i := range a.Params {
			if err := Unify(u, a.Params[i], bf.Params[i]); err != nil {
				return err
			}
		}
		ar, br := a.Return, bf.Return
		if ar == nil {
			ar = Unit
		}
		if br == nil {
			br = Unit
		}
		return Unify(u, ar, br)
	case Array:
		if b, ok := b.(Array); ok {
			return Unify(u, a.Elem, b.Elem)
		}
	case Tuple:
		bt, ok := b.(Tuple)
		if !ok || len(a.Elems) != len(bt.Elems) {
			break
		}
		for i := range a.Elems {
			if err := Unify(u, a.Elems[i], bt.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case Named:
		bn, ok := b.(Named)
		if !ok || a.Name != bn.Name || len(a.Args) != len(bn.Args) {
			break
		}
		for i := range a.Args {
			if err := Unify(u, a.Args[i], bn.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case Range:
		if b, ok := b.(Range); ok {
			return Unify(u, a.Elem, b.Elem)
		}
	}

	return &unifyError{kind: unifyMismatch, a: a, b: b}
}

// bindVar binds v to t after the occurs check.
func bindVar(u *UnionFind, v Var, t Type) error {
	if occurs(u, v.ID, t) {
		return &unifyError{kind: unifyOccurs, a: v, b: t}
	}
	u.Bind(v.ID, t)
	return nil
}

// shallowResolve follows variable bindings one level so the unifier sees
// through already-solved variables without deep-copying.
func shallowResolve(u *UnionFind, t Type) Type {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		b := u.Binding(v.ID)
		if b == nil {
			return Var{ID: u.Find(v.ID)}
		}
		t = b
	}
}

// occurs reports whether the class of id appears in t. Binding in that
// case would create an infinite type.
func occurs(u *UnionFind, id int, t Type) bool {
	root := u.Find(id)
	switch t := shallowResolve(u, t).(type) {
	case Var:
		return u.Find(t.ID) == root
	case Function:
		for _, p := range t.Params {
			if occurs(u, root, p) {
				return true
			}
		}
		return t.Return != nil && occurs(u, root, t.Return)
	case Array:
		return occurs(u, root, t.Elem)
	case Tuple:
		for _, e := range t.Elems {
			if occurs(u, root, e) {
				return true
			}
		}
		return false
	case Named:
		for _, a := range t.Args {
			if occurs(u, root, a) {
				return true
			}
		}
		return false
	case Range:
		return occurs(u, root, t.Elem)
	default:
		return false
	}
}

// IsMismatch reports whether err is a structural mismatch (as opposed to
// an occurs-check failure).
func IsMismatch(err error) bool {
	ue, ok := err.(*unifyError)
	return ok && ue.kind == unifyMismatch
}

// IsOccurs reports whether err is an occurs-check failure.
func IsOccurs(err error) bool {
	ue, ok := err.(*unifyError)
	return ok && ue.kind == unifyOccurs
}
