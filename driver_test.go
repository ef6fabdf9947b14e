package lambdawg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSuccessRoundTrip(t *testing.T) {
	result := Compile("let x = 42", Options{Filename: "main.lwg"})
	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.AST)
	assert.NotNil(t, result.Types)
	assert.Contains(t, result.Code, "const x = 42;")
	assert.NotEqual(t, result.CompileID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestCompileErrorsImplySuccessFalse(t *testing.T) {
	// Invariant: compile(s).errors.len() > 0 implies compile(s).success == false.
	result := Compile(`"unterminated`, Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.False(t, result.Success)
	assert.Empty(t, result.Code)
}

func TestCompileLexErrorShortCircuitsBeforeParse(t *testing.T) {
	result := Compile(`"unterminated`, Options{Filename: "main.lwg"})
	assert.False(t, result.Success)
	assert.Nil(t, result.AST)
	assert.Nil(t, result.Types)
}

func TestCompileParseErrorSkipsTypeCheck(t *testing.T) {
	result := Compile("let x\nlet y = 1", Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.False(t, result.Success)
	assert.Nil(t, result.Types)
	assert.Empty(t, result.Code)
}

func TestCompileTypeErrorLeavesCodeEmpty(t *testing.T) {
	result := Compile(`let x = 1 + "s"`, Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.False(t, result.Success)
	assert.Empty(t, result.Code)
}

func TestCompileSkipTypeCheckStillEmits(t *testing.T) {
	result := Compile(`let x = 1 + "s"`, Options{Filename: "main.lwg", SkipTypeCheck: true})
	require.True(t, result.Success)
	assert.Nil(t, result.Types)
	assert.Contains(t, result.Code, "const x = ")
}

func TestCompilePreservesSourceOrder(t *testing.T) {
	result := Compile("let a = 1\nlet b = 2", Options{Filename: "main.lwg"})
	require.True(t, result.Success)
	aIdx := strings.Index(result.Code, "const a = 1;")
	bIdx := strings.Index(result.Code, "const b = 2;")
	require.True(t, aIdx >= 0 && bIdx >= 0)
	assert.Less(t, aIdx, bIdx)
}

func TestCompileIsDeterministic(t *testing.T) {
	src := "let f = (a, b) => a + b\nlet d = f(1, 2)"
	first := Compile(src, Options{Filename: "main.lwg"})
	second := Compile(src, Options{Filename: "main.lwg"})
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Success, second.Success)
}

func TestCheckNeverReturnsCode(t *testing.T) {
	result := Check("let x = 42", Options{Filename: "main.lwg"})
	require.True(t, result.Success)
	assert.Empty(t, result.Code)
}

func TestDiagnosticsOrdersErrorsBeforeWarnings(t *testing.T) {
	warn := newDiagnostic(SeverityWarning, CodeNonExhaustive, "warn", Span{})
	err := newDiagnostic(SeverityError, CodeTypeMismatch, "mismatch", Span{})
	result := &Result{Errors: []*Diagnostic{err}, Warnings: []*Diagnostic{warn}}
	all := result.Diagnostics()
	require.Len(t, all, len(result.Errors)+len(result.Warnings))
	assert.Same(t, err, all[0])
	assert.Same(t, warn, all[1])
}

func TestRecoverInternalCatchesPanicAsT000Diagnostic(t *testing.T) {
	result := &Result{Success: true, Code: "const x = 1;"}
	func() {
		defer recoverInternal(result, "let x = 1", "main.lwg")
		panic("boom")
	}()
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeInternal, result.Errors[0].Code)
	assert.False(t, result.Success)
	assert.Empty(t, result.Code)
}

func TestTokenizeAuxiliaryEntryPointWrapsDiagnostics(t *testing.T) {
	_, err := Tokenize(`"unterminated`, Options{Filename: "main.lwg"})
	require.Error(t, err)
	diags, ok := errorsAreDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnterminatedString, diags[0].Code)
}

func TestParseAuxiliaryEntryPointSucceeds(t *testing.T) {
	prog, err := Parse("let x = 1", Options{Filename: "main.lwg"})
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
}

func TestTypeCheckAuxiliaryEntryPointReportsMismatch(t *testing.T) {
	_, _, err := TypeCheck(`let x = 1 + "s"`, Options{Filename: "main.lwg"})
	require.Error(t, err)
}

func TestEmitAuxiliaryEntryPointProducesCode(t *testing.T) {
	code, err := Emit("let x = 1", Options{Filename: "main.lwg"})
	require.NoError(t, err)
	assert.Contains(t, code, "const x = 1;")
}

func TestCompileDuplicateModuleNameReportsM001(t *testing.T) {
	src := `module math { let add = (a, b) => a + b }
module math { let sub = (a, b) => a - b }`
	result := Compile(src, Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, CodeDuplicateModule, result.Errors[0].Code)
	assert.False(t, result.Success)
}

func TestCompileUnknownImportedModuleReportsM002(t *testing.T) {
	src := `import nosuchmodule { add }`
	result := Compile(src, Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, CodeUnknownModule, result.Errors[0].Code)
	assert.False(t, result.Success)
}

func TestCompileUnknownImportedBindingReportsM003(t *testing.T) {
	src := `module math {
  let add = (a, b) => a + b
  private let secret = 1
}
import math { secret }`
	result := Compile(src, Options{Filename: "main.lwg"})
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, CodeUnknownImport, result.Errors[0].Code)
	assert.False(t, result.Success)
}

func TestCompileKnownImportSucceeds(t *testing.T) {
	src := `module math {
  let add = (a, b) => a + b
}
import math { add }`
	result := Compile(src, Options{Filename: "main.lwg"})
	assert.Empty(t, result.Errors)
	assert.True(t, result.Success)
}

func TestCompileStarImportSkipsNameCheck(t *testing.T) {
	src := `module math {
  let add = (a, b) => a + b
}
import math { * }`
	result := Compile(src, Options{Filename: "main.lwg"})
	assert.Empty(t, result.Errors)
}

func TestCompileJsImportSkipsModuleCrossCheck(t *testing.T) {
	src := `import js fs { readFileSync }`
	result := Compile(src, Options{Filename: "main.lwg"})
	for _, d := range result.Errors {
		assert.NotEqual(t, CodeUnknownModule, d.Code)
	}
}

func TestTypeCheckReportsModuleDiagnosticsBeforeInference(t *testing.T) {
	src := `import nosuchmodule { add }`
	_, types, err := TypeCheck(src, Options{Filename: "main.lwg"})
	require.Error(t, err)
	assert.Nil(t, types)
	diags, ok := errorsAreDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnknownModule, diags[0].Code)
}
