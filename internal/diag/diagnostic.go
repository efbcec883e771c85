package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageEntry     Stage = "entry"
	StageTypeCheck Stage = "typecheck"
	StageOwnership Stage = "ownership"
)

// Kind is the user-facing error category.
type Kind string

const (
	KindLexical   Kind = "LexicalError"
	KindSyntax    Kind = "SyntaxError"
	KindType      Kind = "TypeError"
	KindOwnership Kind = "OwnershipError"
)

// KindOf returns the error category reported for diagnostics of a stage.
func KindOf(stage Stage) Kind {
	switch stage {
	case StageLexer:
		return KindLexical
	case StageParser, StageEntry:
		return KindSyntax
	case StageTypeCheck:
		return KindType
	case StageOwnership:
		return KindOwnership
	default:
		return ""
	}
}

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// LabeledSpan represents a span with an optional label (like Rust's primary/secondary labels).
type LabeledSpan struct {
	Span  Span
	Label string // Optional label (e.g., "expected `Num`, found `Str`")
	Style string // "primary" or "secondary" - primary spans are emphasized
}

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexerUnterminatedString       Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedBlockComment Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerIllegalRune              Code = "LEXER_ILLEGAL_RUNE"

	// Parser errors
	CodeSyntaxExpectedToken   Code = "SYNTAX_EXPECTED_TOKEN"
	CodeSyntaxUnexpectedToken Code = "SYNTAX_UNEXPECTED_TOKEN"
	CodeSyntaxInvalidTarget   Code = "SYNTAX_INVALID_ASSIGNMENT_TARGET"
	CodeSyntaxInvalidNumber   Code = "SYNTAX_INVALID_NUMBER"

	// Entry point errors
	CodeSyntaxMissingMain   Code = "SYNTAX_MISSING_MAIN"
	CodeSyntaxDuplicateMain Code = "SYNTAX_DUPLICATE_MAIN"
	CodeSyntaxInvalidMain   Code = "SYNTAX_INVALID_MAIN"

	// Type resolver errors
	CodeTypeUndefinedIdentifier Code = "TYPE_UNDEFINED_IDENTIFIER"
	CodeTypeUnknownType         Code = "TYPE_UNKNOWN_TYPE"
	CodeTypeMismatch            Code = "TYPE_MISMATCH"
	CodeTypeArityMismatch       Code = "TYPE_ARITY_MISMATCH"
	CodeTypeInfiniteType        Code = "TYPE_INFINITE_TYPE"
	CodeTypeNotPrintable        Code = "TYPE_NOT_PRINTABLE"
	CodeTypeCannotInfer         Code = "TYPE_CANNOT_INFER"
	CodeTypeDuplicateDecl       Code = "TYPE_DUPLICATE_DECLARATION"
	CodeTypeMissingReturn       Code = "TYPE_MISSING_RETURN"

	// Ownership errors
	CodeOwnershipUseAfterMove   Code = "OWNERSHIP_USE_AFTER_MOVE"
	CodeOwnershipMutateBorrowed Code = "OWNERSHIP_MUTATE_BORROW"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Kind     Kind
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span // Primary span
	// LabeledSpans allows multiple spans with labels (like Rust's error format)
	// The first span is treated as primary, others as secondary
	LabeledSpans []LabeledSpan
	Notes        []string
	Help         string
}

// New builds an error diagnostic for a stage with its primary span.
func New(stage Stage, code Code, span Span, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Kind:     KindOf(stage),
		Stage:    stage,
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
	return d
}

// Error implements error so a diagnostic can travel through error-returning APIs.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s[%s]: %s", d.Span, d.Kind, d.Code, d.Message)
}

// Spans returns every span attached to the diagnostic, primary first.
func (d Diagnostic) Spans() []Span {
	if len(d.LabeledSpans) == 0 {
		if d.Span.IsValid() {
			return []Span{d.Span}
		}
		return nil
	}
	ret := make([]Span, 0, len(d.LabeledSpans))
	for _, ls := range d.LabeledSpans {
		ret = append(ret, ls.Span)
	}
	return ret
}

// WithLabeledSpan adds a labeled span to the diagnostic.
func (d Diagnostic) WithLabeledSpan(span Span, label string, style string) Diagnostic {
	if style == "" {
		style = "primary"
	}
	d.LabeledSpans = append(d.LabeledSpans, LabeledSpan{
		Span:  span,
		Label: label,
		Style: style,
	})
	return d
}

// WithPrimarySpan adds a primary labeled span.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "primary")
}

// WithSecondarySpan adds a secondary labeled span.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	return d.WithLabeledSpan(span, label, "secondary")
}

// WithNote adds a note to the diagnostic.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp adds help text to the diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
