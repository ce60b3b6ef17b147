package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

func TestCompileCleanProgram(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: i32 = identity(5);
    let b: string = identity("hello");
}
`
	res := Compile("main.cin", src, Config{})
	require.False(t, res.HasErrors(), "diagnostics: %+v", res.Diagnostics)
	require.NotNil(t, res.Specialized)
	require.Equal(t, 2, res.Stats.Specialized)

	for _, d := range res.Specialized.Decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			require.False(t, fn.IsGeneric())
		}
	}
	printed := ast.Print(res.Specialized)
	require.Contains(t, printed, "identity$i32")
	require.Contains(t, printed, "identity$string")
}

func TestCompileSpecializesGenericTypes(t *testing.T) {
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
	res := Compile("main.cin", src, Config{})
	require.False(t, res.HasErrors(), "diagnostics: %+v", res.Diagnostics)
	require.NotNil(t, res.Specialized)

	for _, d := range res.Specialized.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			require.False(t, decl.IsGeneric())
		case *ast.StructDecl:
			require.Empty(t, decl.TypeParams)
		case *ast.EnumDecl:
			require.Empty(t, decl.TypeParams)
		}
	}
	require.Contains(t, ast.Print(res.Specialized), "Option$i32")
}

func TestSpecializedOutputFullyTyped(t *testing.T) {
	src := `
fn identity<T>(x: T) -> T { x }

fn main() {
    let a: i32 = identity(5);
}
`
	res := Compile("main.cin", src, Config{})
	require.False(t, res.HasErrors(), "diagnostics: %+v", res.Diagnostics)
	require.NotNil(t, res.Specialized)

	// Code generation consumes the specialized tree, so every expression
	// in it needs a resolved type, including the freshly cloned
	// specialization bodies. Idents double as declaration names and are
	// checked through the body tail below.
	ast.Walk(res.Specialized, func(n ast.Node) bool {
		if _, ok := n.(ast.Expr); !ok {
			return true
		}
		if _, ok := n.(*ast.Ident); ok {
			return true
		}
		typ, ok := res.Types[n.ID()]
		require.True(t, ok, "%T node %d has no resolved type", n, n.ID())
		require.False(t, types.HasVars(typ), "node %d: %s", n.ID(), typ)
		return true
	})

	var spec *ast.FnDecl
	for _, d := range res.Specialized.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Name.Name == "identity$i32" {
			spec = fn
		}
	}
	require.NotNil(t, spec)
	require.Equal(t, types.I32, res.Types[spec.Body.ID()])
	require.Equal(t, types.I32, res.Types[spec.Body.Tail.ID()])
}

func TestDiagnosticsAggregateAcrossStages(t *testing.T) {
	// One lexical error (unterminated string) and one syntactic error
	// (missing semicolon) in a single unit.
	src := "fn main() {\n    let a = 1\n    let b = \"oops;\n}\n"
	res := Compile("broken.cin", src, Config{})
	require.True(t, res.HasErrors())

	stages := map[diag.Stage]bool{}
	for _, d := range res.Diagnostics {
		stages[d.Stage] = true
	}
	require.True(t, stages[diag.StageLexer], "expected a lexer diagnostic")
	require.True(t, stages[diag.StageParser], "expected a parser diagnostic")
}

func TestTypeErrorsSkipMonomorphization(t *testing.T) {
	src := `
fn main() {
    let x: i32 = "hello";
}
`
	res := Compile("main.cin", src, Config{})
	require.True(t, res.HasErrors())
	require.Nil(t, res.Specialized)

	count := 0
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeTypeMismatch {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestShowManyErrors(t *testing.T) {
	src := `
fn main() {
    let a: i32 = "one";
    let b: bool = 2;
    let c = missing;
}
`
	res := Compile("main.cin", src, Config{})

	errs := 0
	for _, d := range res.Diagnostics {
		if d.Severity == diag.SeverityError {
			errs++
		}
	}
	require.Equal(t, 3, errs, "every independent error surfaces in one run")
}

func TestResourceLimitAbortsStageNotProcess(t *testing.T) {
	src := strings.Repeat("let x = 1;\n", 64)
	res := Compile("big.cin", "fn main() {\n"+src+"}\n", Config{
		Limits: lexer.Limits{MaxTokens: 50},
	})
	require.True(t, res.HasErrors())

	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeLexResourceLimit {
			found = true
		}
	}
	require.True(t, found, "expected a resource-limit diagnostic, got %+v", res.Diagnostics)
}

func TestStrictSecurityRejectsConfusables(t *testing.T) {
	src := "fn main() {\n    let data = 1;\n    let dаta = 2;\n}\n" // second has Cyrillic а
	strict := Compile("strict.cin", src, Config{
		Security: &lexer.SecurityConfig{Level: lexer.SecurityStrict, DetectConfusables: true},
	})
	require.True(t, strict.HasErrors())

	permissive := Compile("permissive.cin", src, Config{
		Security: &lexer.SecurityConfig{Level: lexer.SecurityPermissive},
	})
	for _, d := range permissive.Diagnostics {
		require.NotEqual(t, diag.CodeLexUnicodeConfusable, d.Code)
	}
}

func TestExplicitSecurityConfigHonoredVerbatim(t *testing.T) {
	src := "fn main() {\n    let data = 1;\n    let dаta = 2;\n}\n" // second has Cyrillic а

	// A deliberately constructed zero config has detection off and must
	// stay off; only a nil Security falls back to the defaults.
	zero := Compile("zero.cin", src, Config{Security: &lexer.SecurityConfig{}})
	for _, d := range zero.Diagnostics {
		require.NotEqual(t, diag.CodeLexUnicodeConfusable, d.Code)
	}

	def := Compile("default.cin", src, Config{})
	found := false
	for _, d := range def.Diagnostics {
		if d.Code == diag.CodeLexUnicodeConfusable {
			found = true
		}
	}
	require.True(t, found, "nil security must use the warning defaults")
}
