package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/compile"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cinder <command> [options] <file>...\n")
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  build <file>...   Compile source files and print the specialized output\n")
		fmt.Fprintf(os.Stderr, "  check <file>...   Type check source files without producing output\n")
		fmt.Fprintf(os.Stderr, "  tokens <file>     Dump the token stream for a source file\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "build":
		os.Exit(runBuild(args, true))
	case "check":
		os.Exit(runBuild(args, false))
	case "tokens":
		os.Exit(runTokens(args))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

type buildFlags struct {
	security  string
	verbose   bool
	maxInput  int
	maxTokens int
	maxSpecs  int
}

func parseBuildFlags(name string, args []string) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	bf := &buildFlags{}
	fs.StringVar(&bf.security, "security", "warning", "Unicode security level: strict, warning, permissive")
	fs.BoolVar(&bf.verbose, "v", false, "log stage timing and statistics")
	fs.IntVar(&bf.maxInput, "max-input", 0, "override the input size ceiling in bytes")
	fs.IntVar(&bf.maxTokens, "max-tokens", 0, "override the token count ceiling")
	fs.IntVar(&bf.maxSpecs, "max-specializations", 0, "override the specialization ceiling")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return bf, fs.Args(), nil
}

func securityConfig(level string) (lexer.SecurityConfig, error) {
	cfg := lexer.DefaultSecurityConfig()
	switch level {
	case "strict":
		cfg.Level = lexer.SecurityStrict
	case "warning":
		cfg.Level = lexer.SecurityWarning
	case "permissive":
		cfg.Level = lexer.SecurityPermissive
	default:
		return cfg, fmt.Errorf("unknown security level %q", level)
	}
	return cfg, nil
}

func runBuild(args []string, emit bool) int {
	bf, files, err := parseBuildFlags("build", args)
	if err != nil {
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: cinder build [options] <file>...\n")
		return 1
	}

	security, err := securityConfig(bf.security)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := zap.NewNop()
	if bf.verbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			logger = dev
		}
	}
	defer logger.Sync()

	cfg := compile.Config{
		Security: &security,
		Limits: lexer.Limits{
			MaxInputBytes: bf.maxInput,
			MaxTokens:     bf.maxTokens,
		},
		MaxSpecializations: bf.maxSpecs,
		Logger:             logger,
	}

	type unit struct {
		name   string
		source string
		result *compile.Result
	}
	units := make([]*unit, len(files))

	// Units are independent; the pipeline itself is sequential per unit.
	var g errgroup.Group
	var mu sync.Mutex
	for idx, name := range files {
		idx, name := idx, name
		g.Go(func() error {
			src, err := os.ReadFile(name)
			if err != nil {
				return err
			}
			res := compile.Compile(name, string(src), cfg)
			mu.Lock()
			units[idx] = &unit{name: name, source: string(src), result: res}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	formatter := diag.NewFormatter(os.Stderr)
	for _, u := range units {
		formatter.AddSource(u.name, u.source)
	}

	failed := false
	for _, u := range units {
		ds := append([]diag.Diagnostic(nil), u.result.Diagnostics...)
		sort.SliceStable(ds, func(a, b int) bool {
			return ds[a].Span.Start < ds[b].Span.Start
		})
		for _, d := range ds {
			formatter.Format(d)
		}
		if u.result.HasErrors() {
			failed = true
			continue
		}
		if emit && u.result.Specialized != nil {
			fmt.Println(ast.Print(u.result.Specialized))
		}
	}

	if failed {
		return 1
	}
	return 0
}

func runTokens(args []string) int {
	bf, files, err := parseBuildFlags("tokens", args)
	if err != nil {
		return 1
	}
	if len(files) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: cinder tokens [options] <file>\n")
		return 1
	}

	security, err := securityConfig(bf.security)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	name := files[0]
	src, err := os.ReadFile(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	lx := lexer.New(string(src),
		lexer.WithFilename(name),
		lexer.WithSecurity(security),
		lexer.WithLimits(lexer.Limits{
			MaxInputBytes: bf.maxInput,
			MaxTokens:     bf.maxTokens,
		}),
	)
	for {
		tok := lx.NextToken()
		fmt.Printf("%s:%d:%d\t%-12s %q\n", name, tok.Span.Line, tok.Span.Column, tok.Type, tok.Raw)
		if tok.Type == lexer.EOF {
			break
		}
	}

	formatter := diag.NewFormatter(os.Stderr)
	formatter.AddSource(name, string(src))
	for _, d := range lx.Diagnostics() {
		formatter.Format(d)
	}
	if lx.HasErrors() {
		return 1
	}
	return 0
}
