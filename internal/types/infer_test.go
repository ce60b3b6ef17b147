package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/parser"
)

func inferSource(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	p := parser.New(src)
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors")
	return NewInferencer(opts...).Infer(file)
}

func TestInferIdentityGeneric(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: i32 = identity(5);
    let b: string = identity("hello");
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)
	require.Len(t, res.Instantiations, 2)

	var args []string
	for _, inst := range res.Instantiations {
		require.Equal(t, "identity", inst.Callee)
		require.Len(t, inst.TypeArgs, 1)
		args = append(args, inst.TypeArgs[0].String())
	}
	require.ElementsMatch(t, []string{"i32", "string"}, args)
}

func TestNoLeakedVariablesInTypedProgram(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: i32 = identity(5);
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)
	for id, typ := range res.Types {
		require.False(t, HasVars(typ), "node %d leaked a type variable: %s", id, typ)
	}
}

func TestLetMismatchSingleError(t *testing.T) {
	src := `
fn main() {
    let x: i32 = "hello";
    let y = x + 1;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1, "one annotation mismatch must not cascade")

	err := res.Errors[0]
	require.Equal(t, ErrTypeMismatch, err.Kind)
	require.Contains(t, err.Message, "i32")
	require.Contains(t, err.Message, "string")
	require.Equal(t, 3, err.Span.Line)
}

func TestMultipleIndependentErrorsAllSurface(t *testing.T) {
	src := `
fn main() {
    let a: i32 = "one";
    let b: bool = 2;
    let c: string = false;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 3)
	for _, err := range res.Errors {
		require.Equal(t, ErrTypeMismatch, err.Kind)
	}
}

func TestUnboundIdentifierSuggestion(t *testing.T) {
	src := `
fn main() {
    let count = 1;
    let x = connt + 1;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)

	err := res.Errors[0]
	require.Equal(t, ErrUnboundIdent, err.Kind)
	require.Contains(t, err.Message, "connt")
	require.Contains(t, err.Help, "count")
}

func TestUnsatisfiedBound(t *testing.T) {
	src := `
fn main() {
    let cmp = true < false;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)

	err := res.Errors[0]
	require.Equal(t, ErrUnsatisfiedBound, err.Kind)
	require.Contains(t, err.Message, "bool")
	require.Contains(t, err.Message, "Ord")
}

func TestGenericBoundPropagatedToCallSite(t *testing.T) {
	src := `
fn smallest<T: Ord>(a: T, b: T) -> T {
    if a < b { a } else { b }
}

fn main() {
    let ok = smallest(1, 2);
    let bad = smallest(true, false);
}
`
	res := inferSource(t, src)
	require.NotEmpty(t, res.Errors)
	for _, err := range res.Errors {
		require.Equal(t, ErrUnsatisfiedBound, err.Kind)
		require.Contains(t, err.Message, "bool")
	}
}

func TestStructBoundEnforcedAtConstruction(t *testing.T) {
	src := `
struct Sorted<T: Ord> {
    value: T,
}

fn main() {
    let s = Sorted { value: true };
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)
	require.Equal(t, ErrUnsatisfiedBound, res.Errors[0].Kind)
}

func TestGradualUnannotatedParam(t *testing.T) {
	src := `
fn bump(x) -> i32 { x + 1 }

fn main() {
    let n: i32 = bump(41);
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors, "missing annotations degrade gracefully, not fatally")
}

func TestUnknownAnnotationOptsOutOfChecking(t *testing.T) {
	src := `
fn main() {
    let x: unknown = 5;
    let y: string = x;
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors, "an unknown annotation unifies with anything")
}

func TestBareGenericFunctionReference(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let f = identity;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, "identity")
}

func TestEnumConstructorAndMatch(t *testing.T) {
	src := `
enum Option<T> {
    Some(T),
    None,
}

fn main() {
    let o = Option::Some(5);
    let v: i32 = match o {
        Option::Some(x) => x,
        Option::None => 0,
    };
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)

	// One request per construction or pattern that names the generic
	// enum: Some(5), Option::Some(x), Option::None.
	require.Len(t, res.Instantiations, 3)
	for _, inst := range res.Instantiations {
		require.Equal(t, "Option", inst.Callee)
		require.Len(t, inst.TypeArgs, 1)
		require.Equal(t, "i32", inst.TypeArgs[0].String())
	}
}

func TestMatchArmTypesMustAgree(t *testing.T) {
	src := `
fn main() {
    let v = match 1 {
        0 => "zero",
        _ => 1,
    };
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)
	require.Equal(t, ErrTypeMismatch, res.Errors[0].Kind)
}

func TestArrayPatternBindsElementType(t *testing.T) {
	src := `
fn main() {
    let xs = [1, 2, 3];
    let n: i32 = match xs {
        [first, _, _] => first,
        _ => 0,
    };
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)
}

func TestArrayPatternElementMismatch(t *testing.T) {
	src := `
fn main() {
    let xs = ["a", "b"];
    let n: i32 = match xs {
        [first, _] => first,
    };
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)
	require.Equal(t, ErrTypeMismatch, res.Errors[0].Kind)
}

func TestStructFieldAccess(t *testing.T) {
	src := `
struct Point {
    x: i32,
    y: i32,
}

fn main() {
    let p = Point { x: 1, y: 2 };
    let a: i32 = p.x;
    let b = p.z;
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)

	err := res.Errors[0]
	require.Contains(t, err.Message, `"z"`)
	require.Contains(t, err.Message, `"Point"`)
}

func TestStructLiteralMissingField(t *testing.T) {
	src := `
struct Point {
    x: i32,
    y: i32,
}

fn main() {
    let p = Point { x: 1 };
}
`
	res := inferSource(t, src)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0].Message, `"y"`)
}

func TestOccursCheckRejectsInfiniteType(t *testing.T) {
	uf := NewUnionFind(16)
	v, err := uf.Fresh()
	require.NoError(t, err)

	uerr := Unify(uf, v, Array{Elem: v})
	require.Error(t, uerr)
	require.True(t, IsOccurs(uerr))
}

func TestUnknownUnifiesWithoutBinding(t *testing.T) {
	uf := NewUnionFind(16)
	v, err := uf.Fresh()
	require.NoError(t, err)

	require.NoError(t, Unify(uf, Unknown{}, I32))
	require.NoError(t, Unify(uf, v, Unknown{}))
	// Unifying with Unknown must not have committed v to anything.
	require.Nil(t, uf.Binding(v.ID))
	require.NoError(t, Unify(uf, v, String))
	require.Equal(t, String, uf.Resolve(v))
}

func TestTypeVariableCeiling(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a = identity(1);
    let b = identity(2);
    let c = identity(3);
    let d = identity(4);
}
`
	res := inferSource(t, src, WithLimits(2, 0))
	require.NotEmpty(t, res.Errors)

	found := false
	for _, err := range res.Errors {
		if err.Kind == ErrTypeResourceLimit {
			found = true
			require.Contains(t, err.Message, "type variable")
		}
	}
	require.True(t, found, "expected a resource-limit error")
}

func TestConstraintCeiling(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("fn main() {\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("    let v = 1 + 2;\n")
	}
	sb.WriteString("}\n")

	res := inferSource(t, sb.String(), WithLimits(0, 10))
	require.NotEmpty(t, res.Errors)
	require.Equal(t, ErrTypeResourceLimit, res.Errors[0].Kind)
	// The limit aborts the stage; it must not repeat per constraint.
	limitErrs := 0
	for _, err := range res.Errors {
		if err.Kind == ErrTypeResourceLimit {
			limitErrs++
		}
	}
	require.Equal(t, 1, limitErrs)
}

func TestInstantiationDedupNotDoneHere(t *testing.T) {
	// Inference reports every call site; deduplication is the
	// monomorphizer's job via its memo table.
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a = identity(1);
    let b = identity(2);
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)
	require.Len(t, res.Instantiations, 2)

	sites := map[ast.NodeID]bool{}
	for _, inst := range res.Instantiations {
		require.Equal(t, "i32", inst.TypeArgs[0].String())
		sites[inst.CallSite] = true
	}
	require.Len(t, sites, 2, "each call site keeps its own request")
}

func TestForLoopOverRangeAndArray(t *testing.T) {
	src := `
fn main() {
    let mut total = 0;
    for i in 0..10 {
        total = total + i;
    }
    for s in ["a", "b"] {
        let t: string = s;
    }
}
`
	res := inferSource(t, src)
	require.Empty(t, res.Errors)
}
