package types

import (
	"fmt"
	"strings"
)

// Type is the semantic type representation used by inference and
// monomorphization. Types are immutable values; inference state lives in
// the union-find structure, never on the types themselves.
type Type interface {
	String() string
	typeNode()
}

// Primitive is a built-in scalar type.
type Primitive string

const (
	I32    Primitive = "i32"
	I64    Primitive = "i64"
	F32    Primitive = "f32"
	F64    Primitive = "f64"
	Bool   Primitive = "bool"
	String Primitive = "string"
	Unit   Primitive = "unit"
)

func (p Primitive) String() string { return string(p) }
func (Primitive) typeNode()        {}

// Var is an inference variable. ID indexes into the union-find structure.
type Var struct {
	ID int
}

func (v Var) String() string { return fmt.Sprintf("?%d", v.ID) }
func (Var) typeNode()        {}

// Param is a rigid generic type parameter, opaque inside the generic
// function that declares it. Monomorphization substitutes it away.
type Param struct {
	Name string
}

func (p Param) String() string { return p.Name }
func (Param) typeNode()        {}

// Unknown is the gradual type. It unifies with anything without binding,
// so missing annotations degrade checking locally instead of failing it.
type Unknown struct{}

func (Unknown) String() string { return "?" }
func (Unknown) typeNode()      {}

// Function is a function type.
type Function struct {
	Params []Type
	Return Type
}

func (f Function) String() string {
	var sb strings.Builder
	sb.WriteString("fn(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(")")
	if f.Return != nil {
		sb.WriteString(" -> ")
		sb.WriteString(f.Return.String())
	}
	return sb.String()
}
func (Function) typeNode() {}

// Array is a dynamically sized array type.
type Array struct {
	Elem Type
}

func (a Array) String() string { return "[" + a.Elem.String() + "]" }
func (Array) typeNode()        {}

// Tuple is a fixed-arity tuple type, used by tuple patterns.
type Tuple struct {
	Elems []Type
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (Tuple) typeNode() {}

// Named is a user-declared nominal type, optionally applied to generic
// arguments: Option<i32>, Pair<K, V>.
type Named struct {
	Name string
	Args []Type
}

func (n Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return n.Name + "<" + strings.Join(parts, ", ") + ">"
}
func (Named) typeNode() {}

// Range is the element type of start..end expressions.
type Range struct {
	Elem Type
}

func (r Range) String() string { return "Range<" + r.Elem.String() + ">" }
func (Range) typeNode()        {}

// Equal reports structural equality of two fully resolved types. Inference
// variables compare by identity; callers normally resolve first.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Primitive:
		b, ok := b.(Primitive)
		return ok && a == b
	case Var:
		b, ok := b.(Var)
		return ok && a.ID == b.ID
	case Param:
		b, ok := b.(Param)
		return ok && a.Name == b.Name
	case Unknown:
		_, ok := b.(Unknown)
		return ok
	case Function:
		bf, ok := b.(Function)
		if !ok || len(a.Params) != len(bf.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], bf.Params[i]) {
				return false
			}
		}
		return Equal(a.Return, bf.Return)
	case Array:
		ba, ok := b.(Array)
		return ok && Equal(a.Elem, ba.Elem)
	case Tuple:
		bt, ok := b.(Tuple)
		if !ok || len(a.Elems) != len(bt.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case Named:
		bn, ok := b.(Named)
		if !ok || a.Name != bn.Name || len(a.Args) != len(bn.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], bn.Args[i]) {
				return false
			}
		}
		return true
	case Range:
		br, ok := b.(Range)
		return ok && Equal(a.Elem, br.Elem)
	}
	return false
}

// Substitute replaces rigid type parameters by name. Used when
// instantiating generic signatures and when monomorphization rewrites
// generic bodies.
func Substitute(t Type, subst map[string]Type) Type {
	switch t := t.(type) {
	case Param:
		if repl, ok := subst[t.Name]; ok {
			return repl
		}
		return t
	case Function:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Substitute(p, subst)
		}
		ret := t.Return
		if ret != nil {
			ret = Substitute(ret, subst)
		}
		return Function{Params: params, Return: ret}
	case Array:
		return Array{Elem: Substitute(t.Elem, subst)}
	case Tuple:
		elems := make([]Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = Substitute(e, subst)
		}
		return Tuple{Elems: elems}
	case Named:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = Substitute(a, subst)
		}
		return Named{Name: t.Name, Args: args}
	case Range:
		return Range{Elem: Substitute(t.Elem, subst)}
	default:
		return t
	}
}

// HasVars reports whether the type still mentions an inference variable.
func HasVars(t Type) bool {
	switch t := t.(type) {
	case Var:
		return true
	case Function:
		for _, p := range t.Params {
			if HasVars(p) {
				return true
			}
		}
		return t.Return != nil && HasVars(t.Return)
	case Array:
		return HasVars(t.Elem)
	case Tuple:
		for _, e := range t.Elems {
			if HasVars(e) {
				return true
			}
		}
		return false
	case Named:
		for _, a := range t.Args {
			if HasVars(a) {
				return true
			}
		}
		return false
	case Range:
		return HasVars(t.Elem)
	default:
		return false
	}
}
