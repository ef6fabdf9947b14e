package lambdawg

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, src string) string {
	t.Helper()
	tokens, lexDiags := tokenize("t", src)
	require.Empty(t, lexDiags)
	prog, parseDiags := parseProgram("t", tokens)
	require.Empty(t, parseDiags)
	return emitProgram(prog)
}

func TestEmitPrependsPreludeOnce(t *testing.T) {
	code := emit(t, "let x = 1")
	assert.Equal(t, 1, strings.Count(code, "const Ok = "))
	assert.Contains(t, code, "const pipe = ")
}

func TestEmitLetBindsDirectly(t *testing.T) {
	code := emit(t, "let x = 42")
	assert.Contains(t, code, "const x = 42;")
}

func TestEmitFuncLiteralParenthesizesBinary(t *testing.T) {
	code := emit(t, "let add = (a, b) => a + b")
	assert.Contains(t, code, "const add = (a, b) => (a + b);")
}

func TestEmitPipelineAndPartialApplication(t *testing.T) {
	code := emit(t, "let nums = [1,2,3]\nlet d = nums |> map((x) => x * 2, _)")
	assert.Contains(t, code, "pipe(")
	assert.Contains(t, code, "=> map(")
}

func TestEmitIfLowersToTernary(t *testing.T) {
	code := emit(t, "let x = if true then 1 else 2")
	assert.Contains(t, code, "true ? 1 : 2")
}

func TestEmitMatchIntroducesSubjectAndBranchesInOrder(t *testing.T) {
	code := emit(t, `let f = (n) => match n { 0 => "zero" 1 => "one" _ => "other" }`)
	assert.Contains(t, code, "__subject")
	zeroIdx := strings.Index(code, `"zero"`)
	oneIdx := strings.Index(code, `"one"`)
	otherIdx := strings.Index(code, `"other"`)
	require.True(t, zeroIdx >= 0 && oneIdx >= 0 && otherIdx >= 0)
	assert.Less(t, zeroIdx, oneIdx)
	assert.Less(t, oneIdx, otherIdx)
	assert.Contains(t, code, "non-exhaustive pattern match")
}

func TestEmitLetWithAmbientsCurries(t *testing.T) {
	code := emit(t, "let f with logger = 1")
	assert.Contains(t, code, "const f = (logger) => 1;")
}

func TestEmitModuleBindsRecordOfExports(t *testing.T) {
	code := emit(t, `module math {
  let add = (a, b) => a + b
  private let secret = 1
}`)
	assert.Contains(t, code, "const math = (() => {")
	assert.Contains(t, code, "const add = (a, b) => (a + b);")
	assert.Contains(t, code, "const secret = 1;")
	assert.Contains(t, code, "return { add };")
}

func TestEmitReservedWordRenamedConsistently(t *testing.T) {
	code := emit(t, "let class = 1\nlet y = class")
	assert.Contains(t, code, "const _class = 1;")
	assert.Contains(t, code, "const y = _class;")
	assert.NotContains(t, code, "const class = 1;")
}

func TestEmitConstructorLiteralLowersToCall(t *testing.T) {
	code := emit(t, "let a = Some { value: 1 }")
	assert.Contains(t, code, "Some({ value: 1 })")
}

func TestEmitSpreadRecordExpandsSpreadBeforeExplicitFields(t *testing.T) {
	code := emit(t, "let r = { ...base, x: 1 }")
	assert.Contains(t, code, "{ ...base, x: 1 }")
}

func TestEmitErrorPropagationCallsUnwrap(t *testing.T) {
	code := emit(t, "let x = mightFail()?")
	assert.Contains(t, code, "unwrap(mightFail())")
}

// runNode executes js with the `node` binary and returns its combined
// output and exit error, skipping the test when node isn't installed.
func runNode(t *testing.T, js string) (string, error) {
	t.Helper()
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not found on PATH, skipping JS-engine smoke test")
	}
	out, err := exec.Command("node", "-e", js).CombinedOutput()
	return string(out), err
}

// TestEmittedProgramRunsUnderNode is a smoke test that actually executes
// the prelude plus emitted output through a real JS engine, rather than
// only asserting on the generated text. This is what catches a prelude
// that merely looks right but crashes on load (e.g. a `const` binding
// that shadows a global identifier referenced earlier in the same
// temporal-dead-zone scope).
func TestEmittedProgramRunsUnderNode(t *testing.T) {
	code := emit(t, `let classify = (n) => match n { 0 => "zero" _ => "other" }
let a = classify(0)
let b = classify(1)
console.log(a + "," + b)`)
	out, err := runNode(t, code)
	require.NoError(t, err, "emitted program should run cleanly: %s", out)
	assert.Contains(t, out, "zero,other")
}

// TestEmittedNonExhaustiveMatchThrowsProperError guards the specific
// prelude/emit defect above: the non-exhaustive-match throw site must
// construct a real Error instance (via __NativeError) rather than
// attempting to `new` the prelude's own shadowing `Error` arrow
// function, which would fail with "Error is not a constructor" instead
// of the intended runtime diagnostic.
func TestEmittedNonExhaustiveMatchThrowsProperError(t *testing.T) {
	code := emit(t, `let classify = (n) => match n { 0 => "zero" }
classify(1)`)
	out, err := runNode(t, code)
	require.Error(t, err, "an unmatched value should crash the process: %s", out)
	assert.Contains(t, out, "non-exhaustive pattern match")
	assert.NotContains(t, out, "is not a constructor")
}

func TestEmitDoBlockIsAsyncAndAwaitsDoBang(t *testing.T) {
	code := emit(t, `let f = () => do {
  let x = 1
  do! fetchThing()
  x
}`)
	assert.Contains(t, code, "(async () => {")
	assert.Contains(t, code, "await fetchThing();")
	assert.Contains(t, code, "return x;")
}
