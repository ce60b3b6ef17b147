package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter renders diagnostics in a Rust-style format with source snippets
// and span underlining. Sources are registered up front so the formatter
// never touches the filesystem.
type Formatter struct {
	w       io.Writer
	sources map[string]string
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{
		w:       w,
		sources: make(map[string]string),
	}
}

// AddSource registers source text for a filename so spans can be rendered
// with their surrounding lines.
func (f *Formatter) AddSource(filename, src string) {
	f.sources[filename] = src
}

// Format renders a single diagnostic.
func (f *Formatter) Format(d Diagnostic) {
	spans := f.collectSpans(d)

	f.printHeader(d)

	if len(spans) == 0 {
		if d.Span.IsValid() {
			fmt.Fprintf(f.w, "  --> %s\n", d.Span.String())
		}
		f.printFooter(d)
		return
	}

	src, ok := f.sources[spans[0].Span.Filename]
	if !ok {
		fmt.Fprintf(f.w, "  --> %s\n", spans[0].Span.String())
		f.printFooter(d)
		return
	}

	f.printSnippet(spans[0].Span.Filename, src, spans)
	f.printFooter(d)
}

// FormatAll renders every diagnostic, blank-line separated.
func (f *Formatter) FormatAll(ds []Diagnostic) {
	for i, d := range ds {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		f.Format(d)
	}
}

func (f *Formatter) collectSpans(d Diagnostic) []LabeledSpan {
	if len(d.LabeledSpans) > 0 {
		return d.LabeledSpans
	}
	if d.Span.IsValid() {
		return []LabeledSpan{{Span: d.Span, Style: "primary"}}
	}
	return nil
}

func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = "error"
	}
	if d.Code != "" {
		fmt.Fprintf(f.w, "%s[%s]: %s\n", severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(f.w, "%s: %s\n", severity, d.Message)
	}
}

func (f *Formatter) printSnippet(filename, src string, spans []LabeledSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Span.Line != spans[j].Span.Line {
			return spans[i].Span.Line < spans[j].Span.Line
		}
		return spans[i].Span.Column < spans[j].Span.Column
	})

	lines := strings.Split(src, "\n")
	spansByLine := make(map[int][]LabeledSpan)
	for _, ls := range spans {
		if ls.Span.Line > 0 && ls.Span.Line <= len(lines) {
			spansByLine[ls.Span.Line] = append(spansByLine[ls.Span.Line], ls)
		}
	}

	lineNums := make([]int, 0, len(spansByLine))
	for n := range spansByLine {
		lineNums = append(lineNums, n)
	}
	sort.Ints(lineNums)
	if len(lineNums) == 0 {
		fmt.Fprintf(f.w, "  --> %s\n", spans[0].Span.String())
		return
	}

	width := len(fmt.Sprintf("%d", lineNums[len(lineNums)-1]))
	gutter := strings.Repeat(" ", width)

	fmt.Fprintf(f.w, "%s--> %s:%d:%d\n", gutter, filename, spans[0].Span.Line, spans[0].Span.Column)
	fmt.Fprintf(f.w, "%s |\n", gutter)

	for _, lineNum := range lineNums {
		content := lines[lineNum-1]
		fmt.Fprintf(f.w, "%*d | %s\n", width, lineNum, content)
		f.printUnderlines(width, content, spansByLine[lineNum])
	}

	fmt.Fprintf(f.w, "%s |\n", gutter)
}

func (f *Formatter) printUnderlines(width int, content string, spans []LabeledSpan) {
	underline := []byte(strings.Repeat(" ", len(content)+1))

	mark := func(ls LabeledSpan, ch byte) {
		start := ls.Span.Column - 1
		runLen := ls.Span.End - ls.Span.Start
		if runLen < 1 {
			runLen = 1
		}
		for i := start; i < start+runLen && i < len(underline); i++ {
			if i >= 0 && (ch == '^' || underline[i] == ' ') {
				underline[i] = ch
			}
		}
	}

	for _, ls := range spans {
		if ls.Style != "secondary" {
			mark(ls, '^')
		}
	}
	for _, ls := range spans {
		if ls.Style == "secondary" {
			mark(ls, '-')
		}
	}

	trimmed := strings.TrimRight(string(underline), " ")
	if trimmed == "" {
		return
	}

	label := ""
	for _, ls := range spans {
		if ls.Label != "" {
			label = " " + ls.Label
			break
		}
	}

	fmt.Fprintf(f.w, "%s | %s%s\n", strings.Repeat(" ", width), trimmed, label)
}

func (f *Formatter) printFooter(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.w, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.w, "help: %s\n", d.Help)
	}
}
