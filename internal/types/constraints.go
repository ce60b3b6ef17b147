package types

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// MaxTypeVars bounds the number of inference variables a single file may
// allocate, and MaxConstraints the number of constraints. Both guard
// against pathological inputs; real programs sit orders of magnitude
// below them.
const (
	MaxTypeVars    = 50_000
	MaxConstraints = 100_000
)

// EqualConstraint requires two types to unify. Reason carries a short
// phrase describing where the requirement came from, used in diagnostics.
type EqualConstraint struct {
	Left, Right Type
	Node        ast.NodeID
	Span        lexer.Span
	Reason      string
}

// BoundConstraint requires a type to implement a trait. Checked after
// equality constraints have been solved, against the resolved type.
type BoundConstraint struct {
	Type  Type
	Trait string
	Node  ast.NodeID
	Span  lexer.Span
}

// InstantiationRequest records a call to a generic function together with
// the concrete type arguments inferred at the call site. Monomorphization
// consumes these.
type InstantiationRequest struct {
	CallSite ast.NodeID
	Callee   string
	TypeArgs []Type
	Span     lexer.Span
}
