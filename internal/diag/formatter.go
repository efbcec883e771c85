package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter renders diagnostics in a Rust-style format with source code snippets.
type Formatter struct {
	w            io.Writer
	sources      map[string]string // source text by filename
	contextLines int
	maxErrors    int
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithContextLines sets how many lines are shown around each labeled line.
func WithContextLines(n int) FormatterOption {
	return func(f *Formatter) {
		if n >= 0 {
			f.contextLines = n
		}
	}
}

// WithMaxErrors limits how many diagnostics FormatAll renders. Zero means no limit.
func WithMaxErrors(n int) FormatterOption {
	return func(f *Formatter) {
		f.maxErrors = n
	}
}

// NewFormatter creates a diagnostic formatter writing to w.
func NewFormatter(w io.Writer, opts ...FormatterOption) *Formatter {
	f := &Formatter{
		w:            w,
		sources:      make(map[string]string),
		contextLines: 2,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddSource registers the text diagnostics for filename are rendered against.
func (f *Formatter) AddSource(filename, src string) {
	f.sources[filename] = src
}

// FormatAll renders diagnostics in order, honoring the error limit.
func (f *Formatter) FormatAll(diags []Diagnostic) {
	for i, d := range diags {
		if f.maxErrors > 0 && i >= f.maxErrors {
			fmt.Fprintf(f.w, "... and %d more diagnostic(s)\n", len(diags)-i)
			return
		}
		f.Format(d)
	}
}

// Format renders one diagnostic.
func (f *Formatter) Format(d Diagnostic) {
	spans := f.collectSpans(d)
	if len(spans) == 0 {
		f.formatSimple(d)
		return
	}

	filename := spans[0].Span.Filename
	src, ok := f.sources[filename]
	if !ok {
		f.formatSimple(d)
		return
	}

	f.printHeader(d)
	f.printFileSpans(filename, src, spans)
	f.printHelp(d)
}

// collectSpans collects all spans from the diagnostic, prioritizing LabeledSpans.
func (f *Formatter) collectSpans(d Diagnostic) []LabeledSpan {
	if len(d.LabeledSpans) > 0 {
		return d.LabeledSpans
	}
	if d.Span.IsValid() {
		return []LabeledSpan{{Span: d.Span, Style: "primary"}}
	}
	return nil
}

// printHeader prints the error header (error[CODE]: message).
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

// printFileSpans prints source code with underlines for spans in a file.
func (f *Formatter) printFileSpans(filename string, src string, spans []LabeledSpan) {
	head := spans[0].Span
	spans = append([]LabeledSpan(nil), spans...)
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Span.Line != spans[j].Span.Line {
			return spans[i].Span.Line < spans[j].Span.Line
		}
		return spans[i].Span.Column < spans[j].Span.Column
	})

	lines := strings.Split(src, "\n")
	maxLine := len(lines)

	spansByLine := make(map[int][]LabeledSpan)
	for _, span := range spans {
		line := span.Span.Line
		if line > 0 && line <= maxLine {
			spansByLine[line] = append(spansByLine[line], span)
		}
	}
	if len(spansByLine) == 0 {
		return
	}

	lineNumbers := make([]int, 0, len(spansByLine))
	for line := range spansByLine {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)

	contextStart := max(1, lineNumbers[0]-f.contextLines)
	contextEnd := min(maxLine, lineNumbers[len(lineNumbers)-1]+f.contextLines)
	lineNumWidth := len(fmt.Sprintf("%d", contextEnd))
	gutter := strings.Repeat(" ", lineNumWidth)

	if filename == "" {
		filename = "<input>"
	}
	fmt.Fprintf(f.w, "  --> %s:%d:%d\n", filename, head.Line, head.Column)
	fmt.Fprintf(f.w, "   %s |\n", gutter)

	for lineNum := contextStart; lineNum <= contextEnd; lineNum++ {
		lineContent := strings.TrimRight(lines[lineNum-1], "\r")
		fmt.Fprintf(f.w, " %*d | %s\n", lineNumWidth, lineNum, lineContent)
		if lineSpans := spansByLine[lineNum]; len(lineSpans) > 0 {
			f.printUnderlines(gutter, lineContent, lineSpans)
		}
	}

	fmt.Fprintf(f.w, "   %s |\n", gutter)
}

// printUnderlines prints ^ under primary spans and ~ under secondary spans.
func (f *Formatter) printUnderlines(gutter string, lineContent string, spans []LabeledSpan) {
	underline := []byte(strings.Repeat(" ", len(lineContent)+1))

	mark := func(style string, ch byte) {
		for _, span := range spans {
			if span.Style != style {
				continue
			}
			start := max(0, span.Span.Column-1)
			end := min(len(underline), start+max(1, span.Span.End-span.Span.Start))
			for i := start; i < end; i++ {
				if underline[i] == ' ' {
					underline[i] = ch
				}
			}
		}
	}
	mark("primary", '^')
	mark("secondary", '~')

	var labels []string
	for _, span := range spans {
		if span.Label != "" {
			labels = append(labels, span.Label)
		}
	}

	text := strings.TrimRight(string(underline), " ")
	if text == "" {
		return
	}
	if len(labels) > 0 {
		text += " " + strings.Join(labels, "; ")
	}
	fmt.Fprintf(f.w, "   %s | %s\n", gutter, text)
}

// printHelp prints notes and help text.
func (f *Formatter) printHelp(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.w, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.w, "help: %s\n", d.Help)
	}
}

// formatSimple formats a diagnostic without source code (fallback).
func (f *Formatter) formatSimple(d Diagnostic) {
	f.printHeader(d)
	if d.Span.IsValid() {
		fmt.Fprintf(f.w, "  --> %s\n", d.Span.String())
	}
	f.printHelp(d)
}
