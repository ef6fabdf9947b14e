package lambdawg

import (
	"fmt"

	"github.com/google/uuid"
)

// EmitOptions narrows the emitter's behavior; reserved for future growth
// (spec.md lists `emitOptions?` in the options record without specifying
// its contents beyond what the emitter itself already does
// unconditionally).
type EmitOptions struct{}

// Options is the driver's input options record (spec.md §4.5):
// `{filename?, skipTypeCheck?, emitOptions?}`.
type Options struct {
	Filename      string
	SkipTypeCheck bool
	EmitOptions   EmitOptions
}

// Result is the single record every top-level entry point returns
// (spec.md §4.5, §6.1): success plus cumulative diagnostics, and
// whichever artifacts the requested stage actually produced.
type Result struct {
	Success  bool
	Errors   []*Diagnostic
	Warnings []*Diagnostic
	Code     string
	AST      *Program
	Types    map[Node]Type

	// CompileID stamps each result with a unique identifier, useful for
	// correlating a result with the debug log lines emitted while
	// producing it.
	CompileID uuid.UUID
}

// Diagnostics returns every diagnostic this result carries, errors
// before warnings, in the order each stage produced them.
func (r *Result) Diagnostics() []*Diagnostic {
	all := make([]*Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	all = append(all, r.Warnings...)
	return all
}

// Compile runs lexer -> parser -> (optional) inferer -> emitter,
// short-circuiting to the earliest stage that produced an error
// (spec.md §4.5, §7). No panic escapes this call: a recovered panic is
// reported as a single T000 internal-error diagnostic on an otherwise
// unsuccessful result (spec.md §7: "Internal panics... must not be
// observable on well-formed or malformed input in a release build.").
func Compile(source string, opts Options) *Result {
	return compile(source, opts, true)
}

// compile runs the staged pipeline; emitCode selects whether the emitter
// runs once every validation stage has passed.
func compile(source string, opts Options, emitCode bool) (result *Result) {
	result = &Result{CompileID: uuid.New()}
	defer recoverInternal(result, source, opts.Filename)

	logf("compile starting", "filename", opts.Filename, "compileID", result.CompileID.String())

	var d bag

	tokens, lexDiags := tokenize(opts.Filename, source)
	d.diagnostics = append(d.diagnostics, lexDiags...)
	if d.hasErrors() {
		return finalizeResult(result, &d, source, opts.Filename)
	}

	prog, parseDiags := parseProgram(opts.Filename, tokens)
	d.diagnostics = append(d.diagnostics, parseDiags...)
	result.AST = prog
	if d.hasErrors() {
		return finalizeResult(result, &d, source, opts.Filename)
	}

	d.diagnostics = append(d.diagnostics, checkModuleDiagnostics(prog)...)
	if d.hasErrors() {
		return finalizeResult(result, &d, source, opts.Filename)
	}

	if !opts.SkipTypeCheck {
		types, typeDiags := inferProgram(prog)
		d.diagnostics = append(d.diagnostics, typeDiags...)
		result.Types = types
		if d.hasErrors() {
			return finalizeResult(result, &d, source, opts.Filename)
		}
	}

	if emitCode {
		result.Code = emitProgram(prog)
	}
	return finalizeResult(result, &d, source, opts.Filename)
}

// Check runs every validation stage (lexer, parser, inferer unless
// skipped) without emitting (spec.md §6.1: "`check(source, options)` →
// same result record with no `code`").
func Check(source string, opts Options) *Result {
	return compile(source, opts, false)
}

func finalizeResult(result *Result, d *bag, source, filename string) *Result {
	d.attach(source, filename)
	result.Errors = d.errors()
	result.Warnings = d.warnings()
	result.Success = len(result.Errors) == 0
	if !result.Success {
		result.Code = ""
	}
	logf("compile finished", "compileID", result.CompileID.String(), "success", result.Success, "errors", len(result.Errors))
	return result
}

// recoverInternal is the driver's panic firewall (spec.md §7). It never
// re-panics; it converts whatever it catches into a single internal
// diagnostic and forces the result to report failure.
func recoverInternal(result *Result, source, filename string) {
	rec := recover()
	if rec == nil {
		return
	}
	diag := newDiagnostic(SeverityError, CodeInternal, fmt.Sprintf("internal error: %v", rec), Span{})
	diag.Source = source
	diag.Filename = filename
	result.Errors = append(result.Errors, diag)
	result.Success = false
	result.Code = ""
	logf("compile recovered from panic", "compileID", result.CompileID.String(), "panic", fmt.Sprintf("%v", rec))
}

// Tokenize is the auxiliary single-stage entry point (spec.md §6.1): run
// only the lexer and return its native artifact.
func Tokenize(source string, opts Options) ([]*Token, error) {
	tokens, diags := tokenize(opts.Filename, source)
	attachAll(diags, source, opts.Filename)
	if hasError(diags) {
		return tokens, newCompileError("tokenize", diags)
	}
	return tokens, nil
}

// Parse runs the lexer and parser and returns the native AST.
func Parse(source string, opts Options) (*Program, error) {
	tokens, diags := tokenize(opts.Filename, source)
	if hasError(diags) {
		attachAll(diags, source, opts.Filename)
		return nil, newCompileError("parse", diags)
	}
	prog, parseDiags := parseProgram(opts.Filename, tokens)
	all := append(diags, parseDiags...)
	attachAll(all, source, opts.Filename)
	if hasError(all) {
		return prog, newCompileError("parse", all)
	}
	return prog, nil
}

// TypeCheck runs the lexer, parser and inferer and returns the
// inferred-type map alongside the parsed program.
func TypeCheck(source string, opts Options) (*Program, map[Node]Type, error) {
	prog, err := Parse(source, opts)
	if err != nil {
		return prog, nil, err
	}
	if moduleDiags := checkModuleDiagnostics(prog); hasError(moduleDiags) {
		attachAll(moduleDiags, source, opts.Filename)
		return prog, nil, newCompileError("typeCheck", moduleDiags)
	}
	types, typeDiags := inferProgram(prog)
	attachAll(typeDiags, source, opts.Filename)
	if hasError(typeDiags) {
		return prog, types, newCompileError("typeCheck", typeDiags)
	}
	return prog, types, nil
}

// Emit runs every stage and returns only the emitted text.
func Emit(source string, opts Options) (string, error) {
	prog, _, err := TypeCheck(source, opts)
	if err != nil {
		return "", err
	}
	return emitProgram(prog), nil
}

func hasError(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func attachAll(diags []*Diagnostic, source, filename string) {
	for _, d := range diags {
		d.Source = source
		d.Filename = filename
	}
}
