package types

import (
	"fmt"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// Result is the output of type inference: a type for every expression
// node, the generic instantiations the program demands, and every error
// found. Types are fully resolved; inference variables that stayed
// unconstrained appear as Unknown, never as leaked variables.
type Result struct {
	Types          map[ast.NodeID]Type
	Instantiations []InstantiationRequest
	Errors         []*TypeError
}

// Diagnostics converts accumulated errors to shared diagnostics.
func (r *Result) Diagnostics() []diag.Diagnostic {
	if len(r.Errors) == 0 {
		return nil
	}
	ds := make([]diag.Diagnostic, len(r.Errors))
	for i, e := range r.Errors {
		ds[i] = e.ToDiagnostic()
	}
	return ds
}

// HasErrors reports whether inference found any error.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// fnScheme is a collected function signature. Generic parameters appear
// as rigid Param types; instantiation substitutes fresh variables for
// them at each call site.
type fnScheme struct {
	name       string
	typeParams []string
	bounds     map[string][]string
	params     []Type
	ret        Type
	span       lexer.Span
}

func (s *fnScheme) generic() bool { return len(s.typeParams) > 0 }

type structInfo struct {
	name       string
	typeParams []string
	bounds     map[string][]string
	fieldOrder []string
	fields     map[string]Type
}

type enumInfo struct {
	name       string
	typeParams []string
	bounds     map[string][]string
	variants   map[string][]Type
}

// Inferencer runs constraint-based type inference over one file. It
// accumulates errors and keeps going, so one run surfaces every
// independently detectable problem.
type Inferencer struct {
	uf       *UnionFind
	registry *Registry

	fns     map[string]*fnScheme
	structs map[string]*structInfo
	enums   map[string]*enumInfo

	types  map[ast.NodeID]Type
	errors []*TypeError
	insts  []InstantiationRequest

	// Per-function state, reset between declarations.
	equals        []EqualConstraint
	boundChecks   []BoundConstraint
	currentBounds map[string][]string
	fnReturn      Type

	constraintCount int
	maxConstraints  int
	aborted         bool
}

// Option configures an Inferencer.
type Option func(*Inferencer)

// WithRegistry substitutes the trait registry, mainly for tests.
func WithRegistry(r *Registry) Option {
	return func(i *Inferencer) { i.registry = r }
}

// WithLimits overrides the variable and constraint ceilings. Zero keeps
// the default for that ceiling.
func WithLimits(maxVars, maxConstraints int) Option {
	return func(i *Inferencer) {
		if maxVars > 0 {
			i.uf = NewUnionFind(maxVars)
		}
		if maxConstraints > 0 {
			i.maxConstraints = maxConstraints
		}
	}
}

// NewInferencer creates an inference engine with the default variable and
// constraint ceilings.
func NewInferencer(opts ...Option) *Inferencer {
	i := &Inferencer{
		uf:             NewUnionFind(MaxTypeVars),
		maxConstraints: MaxConstraints,
		registry:       NewRegistry(),
		fns:            make(map[string]*fnScheme),
		structs:        make(map[string]*structInfo),
		enums:          make(map[string]*enumInfo),
		types:          make(map[ast.NodeID]Type),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Infer type checks a file. The result is always non-nil; callers check
// Result.Errors.
func (i *Inferencer) Infer(file *ast.File) *Result {
	i.collectDecls(file)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FnDecl)
		if !ok {
			continue
		}
		i.checkFn(fn)
		if i.aborted {
			break
		}
	}

	return i.finalize()
}

// collectDecls records every top-level signature before any body is
// checked, so forward references and recursion need no ordering.
func (i *Inferencer) collectDecls(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FnDecl:
			i.fns[d.Name.Name] = i.collectFn(d)
		case *ast.StructDecl:
			i.structs[d.Name.Name] = i.collectStruct(d)
		case *ast.EnumDecl:
			i.enums[d.Name.Name] = i.collectEnum(d)
		}
	}
}

func (i *Inferencer) collectFn(d *ast.FnDecl) *fnScheme {
	s := &fnScheme{
		name:   d.Name.Name,
		bounds: make(map[string][]string),
		span:   d.Name.Span(),
	}
	tparams := make(map[string]bool)
	for _, tp := range d.TypeParams {
		s.typeParams = append(s.typeParams, tp.Name.Name)
		tparams[tp.Name.Name] = true
		s.bounds[tp.Name.Name] = i.collectBounds(tp)
	}
	for _, p := range d.Params {
		s.params = append(s.params, i.typeFromExpr(p.Type, tparams))
	}
	if d.ReturnType != nil {
		s.ret = i.typeFromExpr(d.ReturnType, tparams)
	} else {
		s.ret = Unit
	}
	return s
}

// collectBounds validates a type parameter's declared trait bounds,
// reporting the unknown ones and keeping the rest.
func (i *Inferencer) collectBounds(tp *ast.TypeParam) []string {
	var out []string
	for _, b := range tp.Bounds {
		if !IsKnownTrait(b.Name) {
			i.addError(&TypeError{
				Kind:    ErrUnsatisfiedBound,
				Message: fmt.Sprintf("unknown trait %q in bound", b.Name),
				Span:    b.Span(),
			})
			continue
		}
		out = append(out, b.Name)
	}
	return out
}

func (i *Inferencer) collectStruct(d *ast.StructDecl) *structInfo {
	s := &structInfo{
		name:   d.Name.Name,
		bounds: make(map[string][]string),
		fields: make(map[string]Type),
	}
	tparams := make(map[string]bool)
	for _, tp := range d.TypeParams {
		s.typeParams = append(s.typeParams, tp.Name.Name)
		tparams[tp.Name.Name] = true
		s.bounds[tp.Name.Name] = i.collectBounds(tp)
	}
	for _, f := range d.Fields {
		s.fieldOrder = append(s.fieldOrder, f.Name.Name)
		s.fields[f.Name.Name] = i.typeFromExpr(f.Type, tparams)
	}
	return s
}

func (i *Inferencer) collectEnum(d *ast.EnumDecl) *enumInfo {
	e := &enumInfo{
		name:     d.Name.Name,
		bounds:   make(map[string][]string),
		variants: make(map[string][]Type),
	}
	tparams := make(map[string]bool)
	for _, tp := range d.TypeParams {
		e.typeParams = append(e.typeParams, tp.Name.Name)
		tparams[tp.Name.Name] = true
		e.bounds[tp.Name.Name] = i.collectBounds(tp)
	}
	for _, v := range d.Variants {
		payload := make([]Type, len(v.Fields))
		for j, f := range v.Fields {
			payload[j] = i.typeFromExpr(f, tparams)
		}
		e.variants[v.Name.Name] = payload
	}
	return e
}

// typeFromExpr converts a syntactic type annotation to a semantic type.
// Names in tparams become rigid parameters; _ becomes the gradual
// Unknown.
func (i *Inferencer) typeFromExpr(te ast.TypeExpr, tparams map[string]bool) Type {
	if te == nil {
		return Unknown{}
	}
	switch te := te.(type) {
	case *ast.InferType:
		return Unknown{}
	case *ast.NamedType:
		name := te.Name.Name
		if len(te.Args) == 0 {
			switch name {
			case "i32":
				return I32
			case "i64":
				return I64
			case "f32":
				return F32
			case "f64":
				return F64
			case "bool":
				return Bool
			case "string":
				return String
			case "unit":
				return Unit
			case "unknown":
				return Unknown{}
			}
			if tparams[name] {
				return Param{Name: name}
			}
		}
		args := make([]Type, len(te.Args))
		for j, a := range te.Args {
			args[j] = i.typeFromExpr(a, tparams)
		}
		return Named{Name: name, Args: args}
	case *ast.ArrayType:
		return Array{Elem: i.typeFromExpr(te.Elem, tparams)}
	case *ast.FnType:
		params := make([]Type, len(te.Params))
		for j, p := range te.Params {
			params[j] = i.typeFromExpr(p, tparams)
		}
		var ret Type = Unit
		if te.Return != nil {
			ret = i.typeFromExpr(te.Return, tparams)
		}
		return Function{Params: params, Return: ret}
	default:
		return Unknown{}
	}
}

// checkFn runs both inference phases for one function: generate the
// constraint worklist from the body, then solve equalities and validate
// trait bounds against the solved types.
func (i *Inferencer) checkFn(fn *ast.FnDecl) {
	scheme := i.fns[fn.Name.Name]
	i.equals = nil
	i.boundChecks = nil
	i.currentBounds = scheme.bounds
	i.fnReturn = scheme.ret

	sc := newScope(nil)
	for j, p := range fn.Params {
		if j < len(scheme.params) {
			sc.define(p.Name.Name, scheme.params[j])
		}
	}

	if fn.Body != nil {
		got := i.inferBlock(fn.Body, sc)
		if fn.Body.Tail != nil {
			i.addEqual(scheme.ret, got, fn.Body.Tail.ID(), fn.Body.Tail.Span(), "function return type")
		}
	}

	i.solve()
}

func (i *Inferencer) addError(e *TypeError) {
	i.errors = append(i.errors, e)
}

// abort records a resource-limit error once and stops further work on
// this file. Limits are not locally recoverable.
func (i *Inferencer) abort(msg string, span lexer.Span) {
	if i.aborted {
		return
	}
	i.aborted = true
	i.addError(&TypeError{Kind: ErrTypeResourceLimit, Message: msg, Span: span})
}

func (i *Inferencer) fresh(span lexer.Span) Type {
	if i.aborted {
		return Unknown{}
	}
	v, err := i.uf.Fresh()
	if err != nil {
		i.abort(err.Error(), span)
		return Unknown{}
	}
	return v
}

func (i *Inferencer) addEqual(left, right Type, node ast.NodeID, span lexer.Span, reason string) {
	if i.overBudget(span) {
		return
	}
	i.equals = append(i.equals, EqualConstraint{
		Left: left, Right: right, Node: node, Span: span, Reason: reason,
	})
}

func (i *Inferencer) addBound(t Type, trait string, node ast.NodeID, span lexer.Span) {
	if i.overBudget(span) {
		return
	}
	i.boundChecks = append(i.boundChecks, BoundConstraint{
		Type: t, Trait: trait, Node: node, Span: span,
	})
}

func (i *Inferencer) overBudget(span lexer.Span) bool {
	if i.aborted {
		return true
	}
	i.constraintCount++
	if i.constraintCount > i.maxConstraints {
		i.abort(fmt.Sprintf("constraint count exceeds maximum %d", i.maxConstraints), span)
		return true
	}
	return false
}

// record stores the inferred type for an expression node and returns it.
func (i *Inferencer) record(e ast.Expr, t Type) Type {
	if e.ID() != ast.NoID {
		i.types[e.ID()] = t
	}
	return t
}

func (i *Inferencer) inferExpr(e ast.Expr, sc *scope) Type {
	if i.aborted {
		return Unknown{}
	}
	switch e := e.(type) {
	case *ast.IntegerLit:
		return i.record(e, I32)
	case *ast.FloatLit:
		return i.record(e, F64)
	case *ast.StringLit:
		return i.record(e, String)
	case *ast.BoolLit:
		return i.record(e, Bool)
	case *ast.Ident:
		return i.record(e, i.inferIdent(e, sc))
	case *ast.ArrayLit:
		return i.record(e, i.inferArrayLit(e, sc))
	case *ast.PrefixExpr:
		return i.record(e, i.inferPrefix(e, sc))
	case *ast.InfixExpr:
		return i.record(e, i.inferInfix(e, sc))
	case *ast.AssignExpr:
		target := i.inferExpr(e.Target, sc)
		value := i.inferExpr(e.Value, sc)
		i.addEqual(target, value, e.ID(), e.Span(), "assignment")
		return i.record(e, Unit)
	case *ast.RangeExpr:
		start := i.inferExpr(e.Start, sc)
		end := i.inferExpr(e.End, sc)
		i.addEqual(start, end, e.ID(), e.Span(), "range endpoints")
		i.addBound(start, TraitNumeric, e.ID(), e.Span())
		return i.record(e, Range{Elem: start})
	case *ast.CallExpr:
		return i.record(e, i.inferCall(e, sc))
	case *ast.IndexExpr:
		target := i.inferExpr(e.Target, sc)
		index := i.inferExpr(e.Index, sc)
		elem := i.fresh(e.Span())
		i.addEqual(target, Array{Elem: elem}, e.ID(), e.Target.Span(), "index target")
		i.addEqual(index, I32, e.ID(), e.Index.Span(), "index expression")
		return i.record(e, elem)
	case *ast.FieldExpr:
		return i.record(e, i.inferField(e, sc))
	case *ast.PathExpr:
		return i.record(e, i.inferPath(e, nil, sc))
	case *ast.TryExpr:
		return i.record(e, i.inferTry(e, sc))
	case *ast.StructLit:
		return i.record(e, i.inferStructLit(e, sc))
	case *ast.BlockExpr:
		return i.record(e, i.inferBlock(e, sc))
	case *ast.IfExpr:
		return i.record(e, i.inferIf(e, sc))
	case *ast.WhileExpr:
		cond := i.inferExpr(e.Cond, sc)
		i.addEqual(cond, Bool, e.ID(), e.Cond.Span(), "while condition")
		i.inferBlock(e.Body, newScope(sc))
		return i.record(e, Unit)
	case *ast.ForExpr:
		return i.record(e, i.inferFor(e, sc))
	case *ast.MatchExpr:
		return i.record(e, i.inferMatch(e, sc))
	case *ast.ErrorExpr:
		// Parser already reported; stay quiet.
		return i.record(e, Unknown{})
	default:
		return Unknown{}
	}
}

func (i *Inferencer) inferIdent(e *ast.Ident, sc *scope) Type {
	if t, ok := sc.lookup(e.Name); ok {
		return t
	}
	if s, ok := i.fns[e.Name]; ok {
		if s.generic() {
			i.addError(&TypeError{
				Kind:    ErrTypeMismatch,
				Message: fmt.Sprintf("generic function %q cannot be used as a value; call it so its type arguments can be inferred", e.Name),
				Span:    e.Span(),
			})
			return Unknown{}
		}
		return Function{Params: s.params, Return: s.ret}
	}
	candidates := sc.names()
	for name := range i.fns {
		candidates = append(candidates, name)
	}
	i.addError(unboundIdentError(e.Name, e.Span(), candidates))
	return Unknown{}
}

func (i *Inferencer) inferArrayLit(e *ast.ArrayLit, sc *scope) Type {
	elem := i.fresh(e.Span())
	for _, el := range e.Elems {
		t := i.inferExpr(el, sc)
		i.addEqual(elem, t, e.ID(), el.Span(), "array element")
	}
	return Array{Elem: elem}
}

func (i *Inferencer) inferPrefix(e *ast.PrefixExpr, sc *scope) Type {
	operand := i.inferExpr(e.Expr, sc)
	switch e.Op {
	case lexer.MINUS:
		i.addBound(operand, TraitNumeric, e.ID(), e.Span())
		return operand
	case lexer.BANG:
		i.addEqual(operand, Bool, e.ID(), e.Expr.Span(), "logical negation")
		return Bool
	default:
		return Unknown{}
	}
}

func (i *Inferencer) inferInfix(e *ast.InfixExpr, sc *scope) Type {
	left := i.inferExpr(e.Left, sc)
	right := i.inferExpr(e.Right, sc)
	switch e.Op {
	case lexer.PLUS:
		i.addEqual(left, right, e.ID(), e.Span(), "operands of +")
		i.addBound(left, TraitAdd, e.ID(), e.Span())
		return left
	case lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT:
		i.addEqual(left, right, e.ID(), e.Span(), fmt.Sprintf("operands of %s", e.Op))
		i.addBound(left, TraitNumeric, e.ID(), e.Span())
		return left
	case lexer.LT, lexer.GT, lexer.LE, lexer.GE:
		i.addEqual(left, right, e.ID(), e.Span(), "comparison operands")
		i.addBound(left, TraitOrd, e.ID(), e.Span())
		return Bool
	case lexer.EQ, lexer.NOT_EQ:
		i.addEqual(left, right, e.ID(), e.Span(), "equality operands")
		i.addBound(left, TraitEq, e.ID(), e.Span())
		return Bool
	case lexer.AND, lexer.OR:
		i.addEqual(left, Bool, e.ID(), e.Left.Span(), "logical operand")
		i.addEqual(right, Bool, e.ID(), e.Right.Span(), "logical operand")
		return Bool
	default:
		return Unknown{}
	}
}

// inferCall handles direct calls to declared functions, enum constructor
// calls, and first-class function values. Generic callees get fresh
// variables per type parameter and an instantiation request keyed by the
// call node.
func (i *Inferencer) inferCall(e *ast.CallExpr, sc *scope) Type {
	if callee, ok := e.Callee.(*ast.Ident); ok {
		if _, shadowed := sc.lookup(callee.Name); !shadowed {
			if s, ok := i.fns[callee.Name]; ok {
				return i.inferSchemeCall(e, callee, s, sc)
			}
		}
	}
	if path, ok := e.Callee.(*ast.PathExpr); ok {
		return i.inferPath(path, e, sc)
	}

	calleeType := i.inferExpr(e.Callee, sc)
	args := make([]Type, len(e.Args))
	for j, a := range e.Args {
		args[j] = i.inferExpr(a, sc)
	}

	if fn, ok := calleeType.(Function); ok {
		if len(args) != len(fn.Params) {
			i.arityError(e, len(fn.Params), len(args))
			return fn.Return
		}
		for j := range args {
			i.addEqual(fn.Params[j], args[j], e.ID(), e.Args[j].Span(), "call argument")
		}
		return fn.Return
	}

	// Unknown or not-yet-solved callee: degrade gradually instead of
	// inventing a mismatch.
	ret := i.fresh(e.Span())
	params := make([]Type, len(args))
	copy(params, args)
	i.addEqual(calleeType, Function{Params: params, Return: ret}, e.ID(), e.Callee.Span(), "call target")
	return ret
}

func (i *Inferencer) inferSchemeCall(e *ast.CallExpr, callee *ast.Ident, s *fnScheme, sc *scope) Type {
	i.record(callee, Unknown{})

	var params []Type
	ret := s.ret
	if s.generic() {
		subst := make(map[string]Type, len(s.typeParams))
		typeArgs := make([]Type, len(s.typeParams))
		for j, name := range s.typeParams {
			v := i.fresh(e.Span())
			subst[name] = v
			typeArgs[j] = v
			for _, trait := range s.bounds[name] {
				i.addBound(v, trait, e.ID(), e.Span())
			}
		}
		params = make([]Type, len(s.params))
		for j, p := range s.params {
			params[j] = Substitute(p, subst)
		}
		ret = Substitute(ret, subst)
		i.insts = append(i.insts, InstantiationRequest{
			CallSite: e.ID(),
			Callee:   s.name,
			TypeArgs: typeArgs,
			Span:     e.Span(),
		})
	} else {
		params = s.params
	}

	if len(e.Args) != len(params) {
		i.arityError(e, len(params), len(e.Args))
	}
	for j, a := range e.Args {
		at := i.inferExpr(a, sc)
		if j < len(params) {
			i.addEqual(params[j], at, e.ID(), a.Span(), "call argument")
		}
	}
	return ret
}

func (i *Inferencer) arityError(e *ast.CallExpr, want, got int) {
	i.addError(&TypeError{
		Kind:    ErrTypeMismatch,
		Message: fmt.Sprintf("call expects %d argument(s), found %d", want, got),
		Span:    e.Span(),
	})
}

// inferField resolves target.field against the struct table. A target
// whose type is still unresolved yields Unknown so one missing annotation
// does not cascade.
func (i *Inferencer) inferField(e *ast.FieldExpr, sc *scope) Type {
	target := shallowResolve(i.uf, i.inferExpr(e.Target, sc))
	named, ok := target.(Named)
	if !ok {
		return Unknown{}
	}
	s, ok := i.structs[named.Name]
	if !ok {
		return Unknown{}
	}
	ft, ok := s.fields[e.Field.Name]
	if !ok {
		err := &TypeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("no field %q on struct %q", e.Field.Name, s.name),
			Span:    e.Field.Span(),
		}
		if sugg := suggestName(e.Field.Name, s.fieldOrder); sugg != "" {
			err.Help = fmt.Sprintf("a field with a similar name exists: %q", sugg)
		}
		i.addError(err)
		return Unknown{}
	}
	return Substitute(ft, i.structSubst(s, named))
}

// structSubst maps a struct's type parameters to the arguments of a
// concrete Named instance of it.
func (i *Inferencer) structSubst(s *structInfo, named Named) map[string]Type {
	subst := make(map[string]Type, len(s.typeParams))
	for j, name := range s.typeParams {
		if j < len(named.Args) {
			subst[name] = named.Args[j]
		} else {
			subst[name] = Unknown{}
		}
	}
	return subst
}

// inferPath types Enum::Variant references. When call is non-nil the path
// is being invoked as a constructor and the payload is checked against
// the call arguments.
func (i *Inferencer) inferPath(path *ast.PathExpr, call *ast.CallExpr, sc *scope) Type {
	if len(path.Segments) != 2 {
		i.addError(&TypeError{
			Kind:    ErrUnboundIdent,
			Message: fmt.Sprintf("cannot resolve path %q", pathString(path)),
			Span:    path.Span(),
		})
		return Unknown{}
	}
	enumName, variantName := path.Segments[0].Name, path.Segments[1].Name
	en, ok := i.enums[enumName]
	if !ok {
		candidates := make([]string, 0, len(i.enums))
		for name := range i.enums {
			candidates = append(candidates, name)
		}
		i.addError(unboundIdentError(enumName, path.Segments[0].Span(), candidates))
		return Unknown{}
	}
	payload, ok := en.variants[variantName]
	if !ok {
		candidates := make([]string, 0, len(en.variants))
		for name := range en.variants {
			candidates = append(candidates, name)
		}
		i.addError(unboundIdentError(variantName, path.Segments[1].Span(), candidates))
		return Unknown{}
	}

	subst := make(map[string]Type, len(en.typeParams))
	args := make([]Type, len(en.typeParams))
	for j, name := range en.typeParams {
		v := i.fresh(path.Span())
		subst[name] = v
		args[j] = v
		for _, trait := range en.bounds[name] {
			i.addBound(v, trait, path.ID(), path.Span())
		}
	}
	if len(en.typeParams) > 0 {
		i.insts = append(i.insts, InstantiationRequest{
			CallSite: path.ID(),
			Callee:   en.name,
			TypeArgs: args,
			Span:     path.Span(),
		})
	}
	result := Named{Name: en.name, Args: args}

	if call == nil {
		if len(payload) > 0 {
			params := make([]Type, len(payload))
			for j, p := range payload {
				params[j] = Substitute(p, subst)
			}
			return Function{Params: params, Return: result}
		}
		return result
	}

	if len(call.Args) != len(payload) {
		i.arityError(call, len(payload), len(call.Args))
	}
	for j, a := range call.Args {
		at := i.inferExpr(a, sc)
		if j < len(payload) {
			i.addEqual(Substitute(payload[j], subst), at, call.ID(), a.Span(), "constructor argument")
		}
	}
	i.record(path, Unknown{})
	return result
}

func pathString(p *ast.PathExpr) string {
	out := ""
	for j, seg := range p.Segments {
		if j > 0 {
			out += "::"
		}
		out += seg.Name
	}
	return out
}

// inferTry unwraps Option<T> and Result<T, ...> one level; anything else
// degrades to Unknown since error-propagation semantics live downstream.
func (i *Inferencer) inferTry(e *ast.TryExpr, sc *scope) Type {
	inner := shallowResolve(i.uf, i.inferExpr(e.Expr, sc))
	if named, ok := inner.(Named); ok && len(named.Args) > 0 {
		if named.Name == "Option" || named.Name == "Result" {
			return named.Args[0]
		}
	}
	return Unknown{}
}

func (i *Inferencer) inferStructLit(e *ast.StructLit, sc *scope) Type {
	s, ok := i.structs[e.Name.Name]
	if !ok {
		candidates := make([]string, 0, len(i.structs))
		for name := range i.structs {
			candidates = append(candidates, name)
		}
		i.addError(unboundIdentError(e.Name.Name, e.Name.Span(), candidates))
		for _, f := range e.Fields {
			i.inferExpr(f.Value, sc)
		}
		return Unknown{}
	}

	subst := make(map[string]Type, len(s.typeParams))
	args := make([]Type, len(s.typeParams))
	for j, name := range s.typeParams {
		v := i.fresh(e.Span())
		subst[name] = v
		args[j] = v
		for _, trait := range s.bounds[name] {
			i.addBound(v, trait, e.ID(), e.Span())
		}
	}
	if len(s.typeParams) > 0 {
		i.insts = append(i.insts, InstantiationRequest{
			CallSite: e.ID(),
			Callee:   s.name,
			TypeArgs: args,
			Span:     e.Span(),
		})
	}

	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		vt := i.inferExpr(f.Value, sc)
		ft, ok := s.fields[f.Name.Name]
		if !ok {
			i.addError(&TypeError{
				Kind:    ErrTypeMismatch,
				Message: fmt.Sprintf("no field %q on struct %q", f.Name.Name, s.name),
				Span:    f.Name.Span(),
			})
			continue
		}
		seen[f.Name.Name] = true
		i.addEqual(Substitute(ft, subst), vt, e.ID(), f.Value.Span(), "struct field value")
	}
	for _, name := range s.fieldOrder {
		if !seen[name] {
			i.addError(&TypeError{
				Kind:    ErrTypeMismatch,
				Message: fmt.Sprintf("missing field %q in literal of struct %q", name, s.name),
				Span:    e.Span(),
			})
		}
	}

	return Named{Name: s.name, Args: args}
}

func (i *Inferencer) inferBlock(b *ast.BlockExpr, sc *scope) Type {
	inner := newScope(sc)
	for _, stmt := range b.Stmts {
		i.inferStmt(stmt, inner)
	}
	if b.Tail != nil {
		return i.record(b, i.inferExpr(b.Tail, inner))
	}
	return i.record(b, Unit)
}

func (i *Inferencer) inferIf(e *ast.IfExpr, sc *scope) Type {
	cond := i.inferExpr(e.Cond, sc)
	i.addEqual(cond, Bool, e.ID(), e.Cond.Span(), "if condition")
	thenType := i.inferBlock(e.Then, newScope(sc))
	if e.Else == nil {
		return Unit
	}
	elseType := i.inferExpr(e.Else, sc)
	i.addEqual(thenType, elseType, e.ID(), e.Else.Span(), "if and else branches")
	return thenType
}

func (i *Inferencer) inferFor(e *ast.ForExpr, sc *scope) Type {
	iter := shallowResolve(i.uf, i.inferExpr(e.Iter, sc))

	var elem Type
	switch iter := iter.(type) {
	case Range:
		elem = iter.Elem
	case Array:
		elem = iter.Elem
	case Unknown:
		elem = Unknown{}
	default:
		elem = i.fresh(e.Span())
		i.addEqual(iter, Range{Elem: elem}, e.ID(), e.Iter.Span(), "for loop iterable")
	}

	body := newScope(sc)
	body.define(e.Var.Name, elem)
	i.record(e.Var, elem)
	i.inferBlock(e.Body, body)
	return Unit
}

func (i *Inferencer) inferMatch(e *ast.MatchExpr, sc *scope) Type {
	subject := i.inferExpr(e.Subject, sc)
	if len(e.Arms) == 0 {
		return Unknown{}
	}

	result := i.fresh(e.Span())
	for _, arm := range e.Arms {
		armScope := newScope(sc)
		i.inferPattern(arm.Pattern, subject, armScope)
		if arm.Guard != nil {
			gt := i.inferExpr(arm.Guard, armScope)
			i.addEqual(gt, Bool, arm.ID(), arm.Guard.Span(), "match guard")
		}
		bt := i.inferExpr(arm.Body, armScope)
		i.addEqual(result, bt, arm.ID(), arm.Body.Span(), "match arm value")
	}
	return result
}

// inferPattern constrains a pattern against the subject type and defines
// its bindings in sc.
func (i *Inferencer) inferPattern(p ast.Pattern, subject Type, sc *scope) {
	switch p := p.(type) {
	case *ast.WildcardPattern:
	case *ast.BindingPattern:
		sc.define(p.Name.Name, subject)
	case *ast.LiteralPattern:
		lt := i.inferExpr(p.Lit, sc)
		i.addEqual(subject, lt, p.ID(), p.Span(), "literal pattern")
	case *ast.VariantPattern:
		i.inferVariantPattern(p, subject, sc)
	case *ast.TuplePattern:
		elems := make([]Type, len(p.Elems))
		for j := range p.Elems {
			elems[j] = i.fresh(p.Span())
		}
		i.addEqual(subject, Tuple{Elems: elems}, p.ID(), p.Span(), "tuple pattern")
		for j, el := range p.Elems {
			i.inferPattern(el, elems[j], sc)
		}
	case *ast.ArrayPattern:
		elem := i.fresh(p.Span())
		i.addEqual(subject, Array{Elem: elem}, p.ID(), p.Span(), "array pattern")
		for _, el := range p.Elems {
			i.inferPattern(el, elem, sc)
		}
	case *ast.OrPattern:
		// Alternatives bind nothing, so one shared scope is safe.
		for _, alt := range p.Alts {
			i.inferPattern(alt, subject, sc)
		}
	}
}

func (i *Inferencer) inferVariantPattern(p *ast.VariantPattern, subject Type, sc *scope) {
	var enumName, variantName string
	switch len(p.Path) {
	case 1:
		// A bare capitalized name; find the enum that declares it.
		variantName = p.Path[0].Name
		for name, en := range i.enums {
			if _, ok := en.variants[variantName]; ok {
				if enumName != "" {
					i.addError(&TypeError{
						Kind:    ErrUnboundIdent,
						Message: fmt.Sprintf("variant %q is declared by multiple enums; qualify it", variantName),
						Span:    p.Span(),
					})
					return
				}
				enumName = name
			}
		}
		if enumName == "" {
			i.addError(&TypeError{
				Kind:    ErrUnboundIdent,
				Message: fmt.Sprintf("cannot find variant %q in any enum", variantName),
				Span:    p.Span(),
			})
			return
		}
	case 2:
		enumName, variantName = p.Path[0].Name, p.Path[1].Name
	default:
		i.addError(&TypeError{
			Kind:    ErrUnboundIdent,
			Message: "cannot resolve pattern path",
			Span:    p.Span(),
		})
		return
	}

	en, ok := i.enums[enumName]
	if !ok {
		candidates := make([]string, 0, len(i.enums))
		for name := range i.enums {
			candidates = append(candidates, name)
		}
		i.addError(unboundIdentError(enumName, p.Span(), candidates))
		return
	}
	payload, ok := en.variants[variantName]
	if !ok {
		candidates := make([]string, 0, len(en.variants))
		for name := range en.variants {
			candidates = append(candidates, name)
		}
		i.addError(unboundIdentError(variantName, p.Span(), candidates))
		return
	}

	subst := make(map[string]Type, len(en.typeParams))
	args := make([]Type, len(en.typeParams))
	for j, name := range en.typeParams {
		v := i.fresh(p.Span())
		subst[name] = v
		args[j] = v
	}
	if len(en.typeParams) > 0 {
		i.insts = append(i.insts, InstantiationRequest{
			CallSite: p.ID(),
			Callee:   en.name,
			TypeArgs: args,
			Span:     p.Span(),
		})
	}
	i.addEqual(subject, Named{Name: en.name, Args: args}, p.ID(), p.Span(), "variant pattern")

	if p.Elems == nil {
		return
	}
	if len(p.Elems) != len(payload) {
		i.addError(&TypeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("variant %q has %d field(s), pattern names %d", variantName, len(payload), len(p.Elems)),
			Span:    p.Span(),
		})
		return
	}
	for j, el := range p.Elems {
		i.inferPattern(el, Substitute(payload[j], subst), sc)
	}
}

func (i *Inferencer) inferStmt(s ast.Stmt, sc *scope) {
	if i.aborted {
		return
	}
	switch s := s.(type) {
	case *ast.LetStmt:
		value := i.inferExpr(s.Value, sc)
		if s.Type != nil {
			declared := i.typeFromExpr(s.Type, nil)
			i.addEqual(declared, value, s.ID(), s.Value.Span(), "let binding annotation")
			// Bind the name to the annotation so one bad initializer
			// does not cascade into every later use.
			sc.define(s.Name.Name, declared)
		} else {
			sc.define(s.Name.Name, value)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			got := i.inferExpr(s.Value, sc)
			i.addEqual(i.fnReturn, got, s.ID(), s.Value.Span(), "return value")
		} else {
			i.addEqual(i.fnReturn, Unit, s.ID(), s.Span(), "bare return")
		}
	case *ast.BreakStmt, *ast.ContinueStmt:
	case *ast.ExprStmt:
		i.inferExpr(s.Expr, sc)
	}
}

// solve runs the current function's equality worklist through the
// unifier, then validates trait bounds against the solved types. Errors
// accumulate; later constraints still run.
func (i *Inferencer) solve() {
	for _, c := range i.equals {
		err := Unify(i.uf, c.Left, c.Right)
		if err == nil {
			continue
		}
		left := i.uf.Resolve(c.Left)
		right := i.uf.Resolve(c.Right)
		if IsOccurs(err) {
			i.addError(&TypeError{
				Kind:    ErrOccursCheck,
				Message: err.Error(),
				Span:    c.Span,
				Notes:   []string{"required by " + c.Reason},
			})
			continue
		}
		i.addError(&TypeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("type mismatch: expected %s, found %s", left, right),
			Span:    c.Span,
			Notes:   []string{"required by " + c.Reason},
		})
	}

	for _, c := range i.boundChecks {
		t := i.uf.Resolve(c.Type)
		if i.registry.Satisfies(t, c.Trait, i.currentBounds) {
			continue
		}
		i.addError(&TypeError{
			Kind:    ErrUnsatisfiedBound,
			Message: fmt.Sprintf("type %s does not implement %s", t, c.Trait),
			Span:    c.Span,
		})
	}
}

// finalize resolves the side table and instantiation requests. Variables
// that stayed unconstrained become Unknown everywhere except in type
// arguments, where an unresolved argument means the call site gave
// monomorphization nothing to specialize on.
func (i *Inferencer) finalize() *Result {
	res := &Result{
		Types: make(map[ast.NodeID]Type, len(i.types)),
	}
	for id, t := range i.types {
		res.Types[id] = varsToUnknown(i.uf.Resolve(t))
	}

	for _, req := range i.insts {
		resolved := make([]Type, len(req.TypeArgs))
		incomplete := false
		for j, a := range req.TypeArgs {
			r := i.uf.Resolve(a)
			if HasVars(r) {
				incomplete = true
				break
			}
			resolved[j] = r
		}
		if incomplete {
			i.addError(&TypeError{
				Kind:    ErrTypeMismatch,
				Message: fmt.Sprintf("cannot infer type arguments for %q", req.Callee),
				Span:    req.Span,
				Help:    "add a type annotation so the arguments are determined",
			})
			continue
		}
		res.Instantiations = append(res.Instantiations, InstantiationRequest{
			CallSite: req.CallSite,
			Callee:   req.Callee,
			TypeArgs: resolved,
			Span:     req.Span,
		})
	}

	res.Errors = i.errors
	return res
}

// varsToUnknown replaces leftover inference variables with the gradual
// Unknown so no variable leaks out of the engine.
func varsToUnknown(t Type) Type {
	switch t := t.(type) {
	case Var:
		return Unknown{}
	case Function:
		params := make([]Type, len(t.Params))
		for j, p := range t.Params {
			params[j] = varsToUnknown(p)
		}
		ret := t.Return
		if ret != nil {
			ret = varsToUnknown(ret)
		}
		return Function{Params: params, Return: ret}
	case Array:
		return Array{Elem: varsToUnknown(t.Elem)}
	case Tuple:
		elems := make([]Type, len(t.Elems))
		for j, e := range t.Elems {
			elems[j] = varsToUnknown(e)
		}
		return Tuple{Elems: elems}
	case Named:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for j, a := range t.Args {
			args[j] = varsToUnknown(a)
		}
		return Named{Name: t.Name, Args: args}
	case Range:
		return Range{Elem: varsToUnknown(t.Elem)}
	default:
		return t
	}
}
