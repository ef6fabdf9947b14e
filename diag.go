package lambdawg

import (
	"errors"
	"fmt"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Stable diagnostic codes, spec.md §6.2.
const (
	// Lexer
	CodeUnexpectedChar        = "L001"
	CodeUnterminatedString    = "L002"
	CodeUnterminatedComment   = "L003"
	CodeInvalidNumber         = "L004"
	CodeInvalidEscape         = "L005"

	// Parser
	CodeUnexpectedToken   = "P001"
	CodeExpectedExpr      = "P002"
	CodeExpectedIdent     = "P003"
	CodeExpectedType      = "P004"
	CodeUnclosedParen     = "P005"
	CodeUnclosedBrace     = "P006"
	CodeUnclosedBracket   = "P007"
	CodeInvalidPattern    = "P008"
	CodeInvalidAssignment = "P009"

	// Types
	CodeTypeMismatch       = "T001"
	CodeUndefinedVariable  = "T002"
	CodeUndefinedType      = "T003"
	CodeNotAFunction       = "T004"
	CodeWrongArity         = "T005"
	CodeInfiniteType       = "T006"
	CodeDuplicateField     = "T007"
	CodeMissingField       = "T008"
	CodeNonExhaustive      = "T009"
	CodeEffectOutsideDo    = "T010"
	CodeUnresolvedAmbient  = "T011"
	CodeInternal           = "T000"

	// Module
	CodeDuplicateModule  = "M001"
	CodeUnknownModule    = "M002"
	CodeUnknownImport    = "M003"
)

// Diagnostic is the single record format every compiler stage produces.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     Span

	// Filled in by the driver, not by the stage that raised the
	// diagnostic (spec.md §4.5): the full source and the filename the
	// source came from, for callers that want to render a source
	// snippet around the span.
	Source   string
	Filename string

	Hints []string
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly where Go idiom expects one.
func (d *Diagnostic) Error() string {
	loc := ""
	if d.Filename != "" {
		loc = fmt.Sprintf("%s:%d:%d: ", d.Filename, d.Span.Start.Line, d.Span.Start.Column)
	} else if d.Span.Start.Line > 0 {
		loc = fmt.Sprintf("%d:%d: ", d.Span.Start.Line, d.Span.Start.Column)
	}
	return fmt.Sprintf("%s[%s] %s: %s", loc, d.Code, d.Severity, d.Message)
}

func newDiagnostic(severity Severity, code, message string, span Span, hints ...string) *Diagnostic {
	return &Diagnostic{
		Severity: severity,
		Code:     code,
		Message:  message,
		Span:     span,
		Hints:    hints,
	}
}

// bag is an ordered, append-only pool of diagnostics shared across
// pipeline stages (spec.md §2, §5: "each stage... contributes diagnostics
// to a shared pool"; deduplication is not performed).
type bag struct {
	diagnostics []*Diagnostic
}

func (b *bag) add(d *Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
}

func (b *bag) addf(severity Severity, code, message string, span Span, args ...any) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	b.add(newDiagnostic(severity, code, message, span))
}

func (b *bag) hasErrors() bool {
	for _, d := range b.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (b *bag) errors() []*Diagnostic {
	return b.filter(SeverityError)
}

func (b *bag) warnings() []*Diagnostic {
	return b.filter(SeverityWarning)
}

func (b *bag) filter(severity Severity) []*Diagnostic {
	out := make([]*Diagnostic, 0, len(b.diagnostics))
	for _, d := range b.diagnostics {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// attach stamps every diagnostic in the bag with the given source and
// filename, as the driver does before returning a Result (spec.md §4.5).
func (b *bag) attach(source, filename string) {
	for _, d := range b.diagnostics {
		d.Source = source
		d.Filename = filename
	}
}

var errInternal = errors.New("lambdawg: internal error")
