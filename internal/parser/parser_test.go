package parser

import (
	"strings"
	"testing"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
)

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	for _, err := range p.Errors() {
		t.Errorf("parser error: %s at %d:%d", err.Message, err.Span.Line, err.Span.Column)
	}
	if len(p.Errors()) > 0 {
		t.FailNow()
	}
}

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	p := New(src)
	file := p.ParseFile()
	checkParserErrors(t, p)
	return file
}

// parseTailExpr parses src as the tail expression of a wrapper function.
func parseTailExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	file := parseFile(t, "fn t() { "+src+" }")
	fn := file.Decls[0].(*ast.FnDecl)
	if fn.Body.Tail == nil {
		t.Fatalf("no tail expression parsed from %q", src)
	}
	return fn.Body.Tail
}

func TestParseFnDecl(t *testing.T) {
	file := parseFile(t, `
fn add(x: i32, y: i32) -> i32 {
	x + y
}
`)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(file.Decls))
	}
	fn, ok := file.Decls[0].(*ast.FnDecl)
	if !ok {
		t.Fatalf("expected *ast.FnDecl, got %T", file.Decls[0])
	}
	if fn.Name.Name != "add" {
		t.Errorf("wrong name: %q", fn.Name.Name)
	}
	if fn.IsGeneric() {
		t.Error("add must not be generic")
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if typ, ok := fn.Params[0].Type.(*ast.NamedType); !ok || typ.Name.Name != "i32" {
		t.Errorf("wrong first param type: %+v", fn.Params[0].Type)
	}
	if ret, ok := fn.ReturnType.(*ast.NamedType); !ok || ret.Name.Name != "i32" {
		t.Errorf("wrong return type: %+v", fn.ReturnType)
	}
	if _, ok := fn.Body.Tail.(*ast.InfixExpr); !ok {
		t.Errorf("expected infix tail, got %T", fn.Body.Tail)
	}
}

func TestParseGenericFnDecl(t *testing.T) {
	file := parseFile(t, `
fn identity<T>(x: T) -> T {
	x
}

fn largest<T: Ord>(items: [T]) -> T where T: Clone {
	items[0]
}
`)
	if len(file.Decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(file.Decls))
	}

	identity := file.Decls[0].(*ast.FnDecl)
	if !identity.IsGeneric() || len(identity.TypeParams) != 1 {
		t.Fatalf("identity: wrong type params: %+v", identity.TypeParams)
	}
	if identity.TypeParams[0].Name.Name != "T" || len(identity.TypeParams[0].Bounds) != 0 {
		t.Errorf("identity: unexpected bounds: %+v", identity.TypeParams[0])
	}

	largest := file.Decls[1].(*ast.FnDecl)
	tp := largest.TypeParams[0]
	if tp.Name.Name != "T" {
		t.Fatalf("largest: wrong type param name %q", tp.Name.Name)
	}
	// Inline bound plus where-clause bound, merged in order.
	if len(tp.Bounds) != 2 || tp.Bounds[0].Name != "Ord" || tp.Bounds[1].Name != "Clone" {
		t.Errorf("largest: bounds not merged: %+v", tp.Bounds)
	}
	if _, ok := largest.Params[0].Type.(*ast.ArrayType); !ok {
		t.Errorf("largest: expected array param type, got %T", largest.Params[0].Type)
	}
}

func TestWhereClauseUndeclaredParam(t *testing.T) {
	p := New("fn f<T>(x: T) -> T where U: Clone { x }")
	p.ParseFile()
	errs := p.Errors()
	if len(errs) == 0 || !strings.Contains(errs[0].Message, "undeclared type parameter") {
		t.Fatalf("expected undeclared-type-parameter error, got %+v", errs)
	}
}

func TestParseStructDecl(t *testing.T) {
	file := parseFile(t, `
struct Pair<K: Ord, V> {
	key: K,
	value: V,
}
`)
	st := file.Decls[0].(*ast.StructDecl)
	if st.Name.Name != "Pair" {
		t.Errorf("wrong name: %q", st.Name.Name)
	}
	if len(st.TypeParams) != 2 || st.TypeParams[0].Bounds[0].Name != "Ord" {
		t.Errorf("wrong type params: %+v", st.TypeParams)
	}
	if len(st.Fields) != 2 || st.Fields[1].Name.Name != "value" {
		t.Errorf("wrong fields: %+v", st.Fields)
	}
}

func TestParseEnumDecl(t *testing.T) {
	file := parseFile(t, `
enum Option<T> {
	None,
	Some(T),
}
`)
	en := file.Decls[0].(*ast.EnumDecl)
	if en.Name.Name != "Option" || len(en.Variants) != 2 {
		t.Fatalf("wrong enum: %+v", en)
	}
	if len(en.Variants[0].Fields) != 0 {
		t.Errorf("None must carry no payload: %+v", en.Variants[0])
	}
	if len(en.Variants[1].Fields) != 1 {
		t.Errorf("Some must carry one payload: %+v", en.Variants[1])
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"-a * b", "((-a) * b)"},
		{"!ok == false", "((!ok) == false)"},
		{"a + b % c", "(a + (b % c))"},
		{"a < b == c < d", "((a < b) == (c < d))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a = b = c", "(a = (b = c))"},
		{"f(1, 2 + 3)", "f(1, (2 + 3))"},
		{"xs[i + 1]", "xs[(i + 1)]"},
		{"p.x + p.y", "(p.x + p.y)"},
		{"-f(x)", "(-f(x))"},
		{"v?", "v?"},
		{"0..n + 1", "0..(n + 1)"},
		{"Option::None", "Option::None"},
		{"Option::Some(5)", "Option::Some(5)"},
	}

	for _, tt := range tests {
		expr := parseTailExpr(t, tt.input)
		if got := ast.PrintExpr(expr); got != tt.expected {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestParseLetStmt(t *testing.T) {
	file := parseFile(t, `
fn t() {
	let x = 1;
	let mut y: i32 = 2;
	let z: _ = x;
}
`)
	fn := file.Decls[0].(*ast.FnDecl)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fn.Body.Stmts))
	}

	first := fn.Body.Stmts[0].(*ast.LetStmt)
	if first.Mutable || first.Type != nil || first.Name.Name != "x" {
		t.Errorf("wrong first let: %+v", first)
	}

	second := fn.Body.Stmts[1].(*ast.LetStmt)
	if !second.Mutable {
		t.Error("second let must be mutable")
	}
	if typ, ok := second.Type.(*ast.NamedType); !ok || typ.Name.Name != "i32" {
		t.Errorf("wrong second let type: %+v", second.Type)
	}

	third := fn.Body.Stmts[2].(*ast.LetStmt)
	if _, ok := third.Type.(*ast.InferType); !ok {
		t.Errorf("expected infer type annotation, got %T", third.Type)
	}
}

func TestBlockTailVersusStatement(t *testing.T) {
	file := parseFile(t, `
fn t() -> i32 {
	compute();
	if flag {
		log();
	}
	42
}
`)
	fn := file.Decls[0].(*ast.FnDecl)
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body.Stmts))
	}
	if _, ok := fn.Body.Stmts[1].(*ast.ExprStmt).Expr.(*ast.IfExpr); !ok {
		t.Errorf("expected standalone if statement, got %T", fn.Body.Stmts[1])
	}
	if lit, ok := fn.Body.Tail.(*ast.IntegerLit); !ok || lit.Text != "42" {
		t.Errorf("expected integer tail, got %+v", fn.Body.Tail)
	}
}

func TestMatchGuardPreserved(t *testing.T) {
	expr := parseTailExpr(t, `match x {
		true if limit > 0 => 1,
		false => 2,
		_ => 3,
	}`)

	m := expr.(*ast.MatchExpr)
	if len(m.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(m.Arms))
	}
	if m.Arms[0].Guard == nil {
		t.Fatal("guard must be preserved on the first arm")
	}
	if _, ok := m.Arms[0].Guard.(*ast.InfixExpr); !ok {
		t.Errorf("expected infix guard, got %T", m.Arms[0].Guard)
	}
	if m.Arms[1].Guard != nil || m.Arms[2].Guard != nil {
		t.Error("guards must only exist where written")
	}
	if _, ok := m.Arms[2].Pattern.(*ast.WildcardPattern); !ok {
		t.Errorf("expected wildcard pattern, got %T", m.Arms[2].Pattern)
	}
}

func TestMatchPatterns(t *testing.T) {
	expr := parseTailExpr(t, `match v {
		0 | 1 | 2 => 0,
		Option::Some(x) => x,
		None => 1,
		other => other,
	}`)

	m := expr.(*ast.MatchExpr)

	or := m.Arms[0].Pattern.(*ast.OrPattern)
	if len(or.Alts) != 3 {
		t.Errorf("expected 3 alternatives, got %d", len(or.Alts))
	}

	variant := m.Arms[1].Pattern.(*ast.VariantPattern)
	if len(variant.Path) != 2 || variant.Path[0].Name != "Option" || variant.Path[1].Name != "Some" {
		t.Errorf("wrong variant path: %+v", variant.Path)
	}
	if len(variant.Elems) != 1 {
		t.Fatalf("expected 1 payload pattern, got %d", len(variant.Elems))
	}
	if _, ok := variant.Elems[0].(*ast.BindingPattern); !ok {
		t.Errorf("expected binding payload, got %T", variant.Elems[0])
	}

	// Capitalized bare name is a variant reference, not a binding.
	if bare, ok := m.Arms[2].Pattern.(*ast.VariantPattern); !ok || len(bare.Path) != 1 {
		t.Errorf("expected bare variant pattern, got %+v", m.Arms[2].Pattern)
	}

	if _, ok := m.Arms[3].Pattern.(*ast.BindingPattern); !ok {
		t.Errorf("expected binding pattern, got %T", m.Arms[3].Pattern)
	}
}

func TestDestructuringPatterns(t *testing.T) {
	expr := parseTailExpr(t, `match v {
		(a, b, _) => a,
		[first, _, last] => first,
		[] => 0,
	}`)

	m := expr.(*ast.MatchExpr)

	tup := m.Arms[0].Pattern.(*ast.TuplePattern)
	if len(tup.Elems) != 3 {
		t.Errorf("expected 3 tuple elements, got %d", len(tup.Elems))
	}
	if _, ok := tup.Elems[2].(*ast.WildcardPattern); !ok {
		t.Errorf("expected wildcard element, got %T", tup.Elems[2])
	}

	arr := m.Arms[1].Pattern.(*ast.ArrayPattern)
	if len(arr.Elems) != 3 {
		t.Fatalf("expected 3 array elements, got %d", len(arr.Elems))
	}
	if b, ok := arr.Elems[0].(*ast.BindingPattern); !ok || b.Name.Name != "first" {
		t.Errorf("expected binding 'first', got %+v", arr.Elems[0])
	}

	empty := m.Arms[2].Pattern.(*ast.ArrayPattern)
	if len(empty.Elems) != 0 {
		t.Errorf("expected empty array pattern, got %d elements", len(empty.Elems))
	}
}

func TestOrPatternRejectsBindings(t *testing.T) {
	p := New("fn t() { match x { y | 3 => 1, _ => 0 } }")
	p.ParseFile()

	found := false
	for _, err := range p.Errors() {
		if err.Code == diag.CodeParseInvalidPattern {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected invalid-pattern error, got %+v", p.Errors())
	}
}

func TestStructLiteralDisambiguation(t *testing.T) {
	// In a condition, ident { is the body block; elsewhere it is a literal.
	expr := parseTailExpr(t, "if ready { 1 } else { 2 }")
	ifExpr := expr.(*ast.IfExpr)
	if _, ok := ifExpr.Cond.(*ast.Ident); !ok {
		t.Errorf("condition must stay a bare identifier, got %T", ifExpr.Cond)
	}

	file := parseFile(t, `
fn t() {
	let p = Point { x: 1, y: if ready { Point { x: 0, y: 0 } } else { origin } };
}
`)
	let := file.Decls[0].(*ast.FnDecl).Body.Stmts[0].(*ast.LetStmt)
	lit, ok := let.Value.(*ast.StructLit)
	if !ok {
		t.Fatalf("expected struct literal, got %T", let.Value)
	}
	if lit.Name.Name != "Point" || len(lit.Fields) != 2 {
		t.Errorf("wrong struct literal: %+v", lit)
	}
	// Struct literals are re-enabled inside nested brace contexts.
	nested := lit.Fields[1].Value.(*ast.IfExpr)
	if _, ok := nested.Then.Tail.(*ast.StructLit); !ok {
		t.Errorf("expected nested struct literal, got %T", nested.Then.Tail)
	}
}

func TestRecursionLimit(t *testing.T) {
	depth := 64
	src := "fn t() { " + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth) + " }"

	p := New(src, WithMaxDepth(16))
	p.ParseFile()

	limitErrs := 0
	for _, err := range p.Errors() {
		if err.Code == diag.CodeParseRecursionLimit {
			limitErrs++
		}
	}
	if limitErrs != 1 {
		t.Fatalf("expected exactly one recursion-limit error, got %d: %+v", limitErrs, p.Errors())
	}
}

func TestRecoveryKeepsLaterDecls(t *testing.T) {
	p := New(`
fn broken( { }

fn ok() -> i32 {
	1
}
`)
	file := p.ParseFile()

	if len(p.Errors()) == 0 {
		t.Fatal("expected parse errors for the broken declaration")
	}
	found := false
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Name.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Fatalf("recovery lost the healthy declaration: %+v", file.Decls)
	}
}

func TestDocCommentAttachment(t *testing.T) {
	file := parseFile(t, `
/// Returns its argument unchanged.
/// Works for any type.
fn identity<T>(x: T) -> T { x }

fn undocumented() { }
`)
	fn := file.Decls[0].(*ast.FnDecl)
	want := "Returns its argument unchanged.\nWorks for any type."
	if fn.Doc != want {
		t.Errorf("wrong doc text: %q", fn.Doc)
	}
	if file.Decls[1].(*ast.FnDecl).Doc != "" {
		t.Errorf("doc leaked onto undocumented decl: %q", file.Decls[1].(*ast.FnDecl).Doc)
	}
}

func TestNodeIDsUniqueAndDense(t *testing.T) {
	file := parseFile(t, `
fn fib(n: i32) -> i32 {
	if n < 2 {
		n
	} else {
		fib(n - 1) + fib(n - 2)
	}
}
`)
	seen := make(map[ast.NodeID]bool)
	ast.Walk(file, func(n ast.Node) bool {
		id := n.ID()
		if id == ast.NoID {
			t.Errorf("node %T has no ID", n)
			return true
		}
		if seen[id] {
			t.Errorf("duplicate node ID %d on %T", id, n)
		}
		seen[id] = true
		return true
	})
	if len(seen) < 10 {
		t.Fatalf("suspiciously few nodes walked: %d", len(seen))
	}
}

func TestLexerDiagnosticsFlowThrough(t *testing.T) {
	p := New(`fn t() { let s = "unterminated; }`)
	p.ParseFile()
	ds := p.Diagnostics()
	if len(ds) == 0 {
		t.Fatal("expected diagnostics")
	}
	if ds[0].Stage != diag.StageLexer {
		t.Errorf("lexical diagnostics must come first, got %+v", ds[0])
	}
}
