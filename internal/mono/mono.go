// Package mono eliminates generic polymorphism: every (generic
// definition, concrete type arguments) pair demanded by inference or by
// a type annotation becomes one named specialization, call and
// construction sites are retargeted to it, and the generic originals are
// dropped so later stages never see an unspecialized definition.
package mono

import (
	"fmt"
	"sort"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

// DefaultMaxSpecializations caps how many specializations one file may
// produce. Recursive generic structures can otherwise demand unbounded
// expansion.
const DefaultMaxSpecializations = 10_000

// Stats reports what the work queue did. Reused counts memo hits, the
// primary deduplication mechanism.
type Stats struct {
	Requested   int
	Specialized int
	Reused      int
}

// Error is a monomorphization failure. Internal consistency violations
// indicate a pipeline bug upstream, not a user error.
type Error struct {
	Code    diag.Code
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string { return e.Message }

// ToDiagnostic converts the error for rendering.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageMono,
		Severity: diag.SeverityError,
		Code:     e.Code,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Option configures the engine.
type Option func(*engine)

// WithMaxSpecializations overrides the specialization ceiling.
func WithMaxSpecializations(n int) Option {
	return func(e *engine) {
		if n > 0 {
			e.maxSpecs = n
		}
	}
}

type workItem struct {
	callee string
	args   []types.Type
	span   lexer.Span
}

type specialization struct {
	mangled string
	decl    ast.Decl
}

type engine struct {
	generics     map[string]*ast.FnDecl
	genericTypes map[string]ast.Decl            // generic struct and enum declarations
	bounds       map[string]map[string][]string // declaration -> type param -> traits
	registry     *types.Registry
	reqBySite    map[ast.NodeID]types.InstantiationRequest
	srcTypes     map[ast.NodeID]types.Type
	outTypes     map[ast.NodeID]types.Type

	queue []workItem
	memo  map[string]bool
	specs []specialization

	stats    Stats
	errors   []*Error
	fatal    bool
	maxSpecs int
	nextID   ast.NodeID
}

// Monomorphize specializes every generic instantiation the program
// demands and returns a new file with no generic definitions, plus the
// type table for that file: every cloned node inside a specialization
// maps to the type of its original with the type parameters substituted,
// so code generation sees only concrete types. nodeTypes is the
// inference side table for the input file. The input is never mutated;
// running twice on the same input produces identical output.
func Monomorphize(file *ast.File, reqs []types.InstantiationRequest, nodeTypes map[ast.NodeID]types.Type, opts ...Option) (*ast.File, map[ast.NodeID]types.Type, Stats, []*Error) {
	e := &engine{
		generics:     make(map[string]*ast.FnDecl),
		genericTypes: make(map[string]ast.Decl),
		bounds:       make(map[string]map[string][]string),
		registry:     types.NewRegistry(),
		reqBySite:    make(map[ast.NodeID]types.InstantiationRequest, len(reqs)),
		srcTypes:     nodeTypes,
		outTypes:     make(map[ast.NodeID]types.Type, len(nodeTypes)),
		memo:         make(map[string]bool),
		maxSpecs:     DefaultMaxSpecializations,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.index(file)
	for _, req := range reqs {
		e.reqBySite[req.CallSite] = req
		if !hasParams(req.TypeArgs) {
			e.enqueue(req.Callee, req.TypeArgs, req.Span)
		}
	}

	e.drain()
	out := e.cloneTopLevel(file)
	// Cloning annotations can demand type specializations that no
	// construction site requested, e.g. a parameter typed Option<i32>
	// in a file that never builds one.
	e.drain()

	sorted := append([]specialization(nil), e.specs...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].mangled < sorted[b].mangled })
	for _, s := range sorted {
		out.Decls = append(out.Decls, s.decl)
	}
	return out, e.outTypes, e.stats, e.errors
}

// recordType carries the original node's inferred type over to its
// clone, substituting type parameters when cloning inside a generic
// body.
func (e *engine) recordType(clone, orig ast.NodeID, subst map[string]types.Type) {
	t, ok := e.srcTypes[orig]
	if !ok {
		return
	}
	if subst != nil {
		t = types.Substitute(t, subst)
	}
	e.outTypes[clone] = t
}

// index records generic declarations, their bounds, and the highest node
// ID in use so specialized bodies get fresh, non-colliding IDs.
func (e *engine) index(file *ast.File) {
	var maxID ast.NodeID
	ast.Walk(file, func(n ast.Node) bool {
		if n.ID() > maxID {
			maxID = n.ID()
		}
		return true
	})
	e.nextID = maxID

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FnDecl:
			if !d.IsGeneric() {
				continue
			}
			e.generics[d.Name.Name] = d
			e.bounds[d.Name.Name] = boundsOf(d.TypeParams)
		case *ast.StructDecl:
			if len(d.TypeParams) == 0 {
				continue
			}
			e.genericTypes[d.Name.Name] = d
			e.bounds[d.Name.Name] = boundsOf(d.TypeParams)
		case *ast.EnumDecl:
			if len(d.TypeParams) == 0 {
				continue
			}
			e.genericTypes[d.Name.Name] = d
			e.bounds[d.Name.Name] = boundsOf(d.TypeParams)
		}
	}
}

func boundsOf(tps []*ast.TypeParam) map[string][]string {
	bounds := make(map[string][]string)
	for _, tp := range tps {
		for _, b := range tp.Bounds {
			bounds[tp.Name.Name] = append(bounds[tp.Name.Name], b.Name)
		}
	}
	return bounds
}

func (e *engine) freshID() ast.NodeID {
	e.nextID++
	return e.nextID
}

func (e *engine) addError(code diag.Code, msg string, span lexer.Span) {
	e.errors = append(e.errors, &Error{Code: code, Message: msg, Span: span})
}

// enqueue adds a request to the work queue unless the engine has already
// failed or the queue itself has grown past the specialization ceiling.
func (e *engine) enqueue(callee string, args []types.Type, span lexer.Span) {
	if e.fatal {
		return
	}
	if len(e.queue) > e.maxSpecs {
		e.fatal = true
		e.addError(diag.CodeMonoInstantiationLimit,
			fmt.Sprintf("instantiation queue exceeds maximum %d", e.maxSpecs), span)
		return
	}
	e.queue = append(e.queue, workItem{callee: callee, args: args, span: span})
}

// drain processes the work queue: memo hit reuses the existing
// specialization, miss clones the generic body with its parameters
// substituted. Cloning may enqueue further work for nested generic calls.
func (e *engine) drain() {
	for len(e.queue) > 0 && !e.fatal {
		item := e.queue[0]
		e.queue = e.queue[1:]
		e.stats.Requested++

		mangled := Mangle(item.callee, item.args)
		if e.memo[mangled] {
			e.stats.Reused++
			continue
		}

		if e.stats.Specialized >= e.maxSpecs {
			e.fatal = true
			e.addError(diag.CodeMonoInstantiationLimit,
				fmt.Sprintf("specialization count exceeds maximum %d", e.maxSpecs), item.span)
			return
		}

		var tps []*ast.TypeParam
		if fn, ok := e.generics[item.callee]; ok {
			tps = fn.TypeParams
		} else if td, ok := e.genericTypes[item.callee]; ok {
			tps = typeParamsOf(td)
		} else {
			e.fatal = true
			e.addError(diag.CodeMonoInternal,
				fmt.Sprintf("instantiation request for %q, which is not a generic definition", item.callee), item.span)
			return
		}
		if len(item.args) != len(tps) {
			e.fatal = true
			e.addError(diag.CodeMonoInternal,
				fmt.Sprintf("instantiation of %q carries %d type argument(s), declaration has %d",
					item.callee, len(item.args), len(tps)), item.span)
			return
		}
		if !e.checkBounds(item, tps) {
			return
		}

		subst := make(map[string]types.Type, len(item.args))
		for j, tp := range tps {
			subst[tp.Name.Name] = item.args[j]
		}

		c := &cloner{eng: e, subst: subst}
		var decl ast.Decl
		if fn, ok := e.generics[item.callee]; ok {
			sd := c.fnDecl(fn)
			sd.Name.Name = mangled
			sd.TypeParams = nil
			decl = sd
		} else {
			switch td := e.genericTypes[item.callee].(type) {
			case *ast.StructDecl:
				sd := c.structDecl(td)
				sd.Name.Name = mangled
				sd.TypeParams = nil
				decl = sd
			case *ast.EnumDecl:
				sd := c.enumDecl(td)
				sd.Name.Name = mangled
				sd.TypeParams = nil
				decl = sd
			}
		}

		e.memo[mangled] = true
		e.specs = append(e.specs, specialization{mangled: mangled, decl: decl})
		e.stats.Specialized++
	}
}

func typeParamsOf(d ast.Decl) []*ast.TypeParam {
	switch d := d.(type) {
	case *ast.StructDecl:
		return d.TypeParams
	case *ast.EnumDecl:
		return d.TypeParams
	default:
		return nil
	}
}

// checkBounds re-validates the declaration's trait bounds against the
// concrete arguments. Inference already enforced them, so a violation
// here is a contract breach between the two stages.
func (e *engine) checkBounds(item workItem, tps []*ast.TypeParam) bool {
	bounds := e.bounds[item.callee]
	for j, tp := range tps {
		for _, trait := range bounds[tp.Name.Name] {
			if e.registry.Satisfies(item.args[j], trait, nil) {
				continue
			}
			e.fatal = true
			e.addError(diag.CodeMonoInternal,
				fmt.Sprintf("type %s does not implement %s, required by %q; the type checker should have rejected this",
					item.args[j], trait, item.callee), item.span)
			return false
		}
	}
	return true
}

// cloneTopLevel copies the non-generic declarations with call,
// construction, and annotation sites retargeted at their
// specializations. Generic originals are dropped.
func (e *engine) cloneTopLevel(file *ast.File) *ast.File {
	out := &ast.File{Filename: file.Filename}
	out.SetID(file.ID())
	out.SetSpan(file.Span())

	c := &cloner{eng: e}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FnDecl:
			if d.IsGeneric() {
				continue
			}
			out.Decls = append(out.Decls, c.fnDecl(d))
		case *ast.StructDecl:
			if len(d.TypeParams) > 0 {
				continue
			}
			out.Decls = append(out.Decls, c.structDecl(d))
		case *ast.EnumDecl:
			if len(d.TypeParams) > 0 {
				continue
			}
			out.Decls = append(out.Decls, c.enumDecl(d))
		default:
			out.Decls = append(out.Decls, decl)
		}
	}
	return out
}

func hasParams(args []types.Type) bool {
	for _, a := range args {
		if containsParam(a) {
			return true
		}
	}
	return false
}

func containsParam(t types.Type) bool {
	switch t := t.(type) {
	case types.Param:
		return true
	case types.Function:
		for _, p := range t.Params {
			if containsParam(p) {
				return true
			}
		}
		return t.Return != nil && containsParam(t.Return)
	case types.Array:
		return containsParam(t.Elem)
	case types.Tuple:
		for _, el := range t.Elems {
			if containsParam(el) {
				return true
			}
		}
		return false
	case types.Named:
		for _, a := range t.Args {
			if containsParam(a) {
				return true
			}
		}
		return false
	case types.Range:
		return containsParam(t.Elem)
	default:
		return false
	}
}
