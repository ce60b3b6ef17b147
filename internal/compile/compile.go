// Package compile runs the front-end pipeline for one compilation unit:
// scan, parse, infer, monomorphize. Each stage accumulates diagnostics
// and the pipeline keeps going as long as later stages can produce
// meaningful results, so one invocation surfaces every independently
// detectable error.
package compile

import (
	"time"

	"go.uber.org/zap"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/mono"
	"github.com/cinder-lang/cinder/internal/parser"
	"github.com/cinder-lang/cinder/internal/types"
)

// Config carries per-unit settings. The zero value uses the documented
// defaults for every limit and Warning-level Unicode security. A nil
// Security means "use the lexer defaults"; a non-nil one is honored
// verbatim, zero value included.
type Config struct {
	Security *lexer.SecurityConfig
	Limits   lexer.Limits
	MaxDepth int

	MaxTypeVars        int
	MaxConstraints     int
	MaxSpecializations int

	// Logger receives stage timing and statistics. Nil disables logging.
	Logger *zap.Logger
}

// Result is everything the pipeline produced for one unit. File is the
// parsed tree (present whenever parsing ran), Specialized the
// monomorphized tree with no generic definitions remaining; Specialized
// is nil when type errors made specialization meaningless. Types maps
// expression nodes to their resolved types and covers Specialized when
// that is present, File otherwise.
type Result struct {
	File        *ast.File
	Specialized *ast.File
	Types       map[ast.NodeID]types.Type
	Stats       mono.Stats
	Diagnostics []diag.Diagnostic
}

// HasErrors reports whether any stage produced an error diagnostic.
func (r *Result) HasErrors() bool { return diag.HasErrors(r.Diagnostics) }

// Compile runs the whole pipeline over one source unit. It never panics
// on user input; every failure lands in Result.Diagnostics.
func Compile(name, source string, cfg Config) *Result {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("unit", name))

	res := &Result{}

	start := time.Now()
	popts := []parser.Option{
		parser.WithFilename(name),
	}
	if cfg.Security != nil {
		popts = append(popts, parser.WithSecurity(*cfg.Security))
	}
	if cfg.Limits != (lexer.Limits{}) {
		popts = append(popts, parser.WithLexerLimits(cfg.Limits))
	}
	if cfg.MaxDepth > 0 {
		popts = append(popts, parser.WithMaxDepth(cfg.MaxDepth))
	}
	p := parser.New(source, popts...)
	res.File = p.ParseFile()
	res.Diagnostics = append(res.Diagnostics, p.Diagnostics()...)
	log.Debug("parsed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("decls", len(res.File.Decls)),
		zap.Int("diagnostics", len(res.Diagnostics)))

	start = time.Now()
	inferencer := types.NewInferencer(
		types.WithLimits(cfg.MaxTypeVars, cfg.MaxConstraints),
	)
	typed := inferencer.Infer(res.File)
	res.Types = typed.Types
	res.Diagnostics = append(res.Diagnostics, typed.Diagnostics()...)
	log.Debug("inferred",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("instantiations", len(typed.Instantiations)),
		zap.Int("errors", len(typed.Errors)))

	// Specializing on top of type errors would fabricate internal
	// consistency violations out of problems already reported.
	if typed.HasErrors() {
		return res
	}

	start = time.Now()
	var mopts []mono.Option
	if cfg.MaxSpecializations > 0 {
		mopts = append(mopts, mono.WithMaxSpecializations(cfg.MaxSpecializations))
	}
	specialized, specTypes, stats, merrs := mono.Monomorphize(res.File, typed.Instantiations, typed.Types, mopts...)
	res.Stats = stats
	for _, e := range merrs {
		res.Diagnostics = append(res.Diagnostics, e.ToDiagnostic())
	}
	if len(merrs) == 0 {
		res.Specialized = specialized
		res.Types = specTypes
	}
	log.Debug("monomorphized",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("requested", stats.Requested),
		zap.Int("specialized", stats.Specialized),
		zap.Int("reused", stats.Reused))

	return res
}
