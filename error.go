package lambdawg

import (
	"errors"
	"fmt"
)

// compileError wraps a single stage failure for the auxiliary
// single-stage entry points (Tokenize/Parse/TypeCheck/Emit), which
// return a plain error rather than a Result. Grounded on the teacher's
// Error type (error.go): a formatted, position-carrying error that
// still unwraps to something errors.Is/As can match against, narrowed
// here to the one diagnostic that stopped the stage plus however many
// others accompanied it.
type compileError struct {
	Stage       string
	Diagnostics []*Diagnostic
}

func (e *compileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("lambdawg: %s failed", e.Stage)
	}
	first := e.Diagnostics[0]
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("lambdawg: %s: %s", e.Stage, first.Error())
	}
	return fmt.Sprintf("lambdawg: %s: %s (and %d more)", e.Stage, first.Error(), len(e.Diagnostics)-1)
}

// Unwrap exposes the first diagnostic so errors.Is/As can match against
// a *Diagnostic directly, same as the teacher's Error supporting
// errors.Is via its own Unwrap-free but comparable shape.
func (e *compileError) Unwrap() error {
	if len(e.Diagnostics) == 0 {
		return nil
	}
	return e.Diagnostics[0]
}

func newCompileError(stage string, diags []*Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return &compileError{Stage: stage, Diagnostics: diags}
}

// errorsAreDiagnostics reports whether err wraps at least one
// *Diagnostic, for callers that only hold an error and want to recover
// structured detail.
func errorsAreDiagnostics(err error) ([]*Diagnostic, bool) {
	var ce *compileError
	if errors.As(err, &ce) {
		return ce.Diagnostics, true
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return []*Diagnostic{d}, true
	}
	return nil, false
}
