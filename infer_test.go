package lambdawg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func infer(t *testing.T, src string) (*Program, map[Node]Type, []*Diagnostic) {
	t.Helper()
	tokens, lexDiags := tokenize("t", src)
	require.Empty(t, lexDiags)
	prog, parseDiags := parseProgram("t", tokens)
	require.Empty(t, parseDiags)
	types, typeDiags := inferProgram(prog)
	return prog, types, typeDiags
}

func TestInferLiteralTypes(t *testing.T) {
	_, types, diags := infer(t, `let a = 1
let b = 1.5
let c = "s"
let d = true`)
	require.Empty(t, diags)
	// Each of the four let statements and each of their four literal
	// values gets its own entry.
	assert.Len(t, types, 8)
}

func TestInferUndefinedVariableReportsT002(t *testing.T) {
	_, _, diags := infer(t, "let x = y + 1")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUndefinedVariable, diags[0].Code)
}

func TestInferLetGeneralizationRoundTrips(t *testing.T) {
	// `let add = (a, b) => a + b` should generalize cleanly: no leftover
	// diagnostics, and a function type with two params. `+` only unifies
	// its operands, so both params and the return share one type variable.
	prog, types, diags := infer(t, "let add = (a, b) => a + b")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	ft, ok := prune(types[let]).(*TypeFunc)
	require.True(t, ok)
	require.Len(t, ft.Params, 2)
	tv, isVar := prune(ft.Params[0]).(*TypeVar)
	require.True(t, isVar)
	assert.Same(t, tv, prune(ft.Params[1]))
	assert.Same(t, tv, prune(ft.Return))
}

func TestInferPolymorphicIdentityInstantiatesIndependently(t *testing.T) {
	prog, types, diags := infer(t, `let useInt = identity(1)
let useStr = identity("s")`)
	require.Empty(t, diags)
	intLet := prog.Statements[0].(*LetStatement)
	strLet := prog.Statements[1].(*LetStatement)
	assert.Equal(t, typeInt, prune(types[intLet]))
	assert.Equal(t, typeString, prune(types[strLet]))
}

func TestInferMonomorphicRecursion(t *testing.T) {
	// A directly-recursive let-binding should type-check against its own
	// in-progress signature without requiring an annotation.
	prog, types, diags := infer(t, "let loop = (n) => loop(n)")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	_, ok := prune(types[let]).(*TypeFunc)
	assert.True(t, ok)
}

func TestInferMemberAccessOnOpenRecordExtendsIt(t *testing.T) {
	// A bare function parameter's record type starts open; accessing
	// `.name` should extend it with that field rather than erroring.
	src := `let greet = (person) => person.name`
	_, types, diags := infer(t, src)
	require.Empty(t, diags)
	var found *TypeFunc
	for _, ty := range types {
		if ft, ok := prune(ty).(*TypeFunc); ok && len(ft.Params) == 1 {
			found = ft
		}
	}
	require.NotNil(t, found)
	rec, ok := prune(found.Params[0]).(*TypeRecord)
	require.True(t, ok)
	assert.True(t, rec.Open)
	_, hasName := rec.Fields["name"]
	assert.True(t, hasName)
}

func TestInferClosedRecordMissingFieldReportsT008(t *testing.T) {
	src := `let p = { x: 1 }
let bad = (r) => r.missing
let force = bad(p)`
	_, _, diags := infer(t, src)
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, CodeMissingField)
}

func TestInferTypeMismatchReportsT001(t *testing.T) {
	_, _, diags := infer(t, `let x = 1 + "s"`)
	require.NotEmpty(t, diags)
	assert.Equal(t, CodeTypeMismatch, diags[0].Code)
}

func TestInferPipelineUnifiesAgainstLastParameter(t *testing.T) {
	src := "let nums = [1,2,3]\nlet d = nums |> map((x) => x * 2, _)"
	_, _, diags := infer(t, src)
	assert.Empty(t, diags)
}

func TestInferMatchArmsUnifyToCommonResultType(t *testing.T) {
	src := `let f = (n) => match n { 0 => "zero" 1 => "one" _ => "other" }`
	prog, types, diags := infer(t, src)
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	ft := prune(types[let]).(*TypeFunc)
	assert.Equal(t, typeString, prune(ft.Return))
}

func TestUnifyIsIdempotentOnceSolved(t *testing.T) {
	inf := newInferer()
	a := inf.fresh()
	b := inf.fresh()
	ok1 := inf.unify(a, typeInt, Span{})
	require.True(t, ok1)
	ok2 := inf.unify(a, b, Span{})
	require.True(t, ok2)
	ok3 := inf.unify(b, typeInt, Span{})
	require.True(t, ok3)
	assert.Equal(t, typeInt, prune(a))
	assert.Equal(t, typeInt, prune(b))

	// Re-running the same unification again changes nothing further.
	ok4 := inf.unify(a, typeInt, Span{})
	assert.True(t, ok4)
	if diff := cmp.Diff(describeType(a), describeType(b)); diff != "" {
		t.Fatalf("unify should have converged a and b to the same type: %s", diff)
	}
}

func TestInferConstructorPatternBindsFieldToActualPayloadType(t *testing.T) {
	// radius must be bound to the real Circle payload's field type, not a
	// disconnected fresh variable: applying f to a Circle literal whose
	// radius field is known (Int) should make `radius`'s type Int inside
	// the match arm, with no diagnostics when it's used consistently.
	src := `let c = Circle { radius: 2 }
let f = (shape) => match shape { Circle { radius } => radius + 1 }
let d = f(c)`
	prog, types, diags := infer(t, src)
	require.Empty(t, diags)
	dLet := prog.Statements[2].(*LetStatement)
	assert.Equal(t, typeInt, prune(types[dLet]))
}

func TestInferConstructorPatternFieldReportsMismatchAgainstActualPayload(t *testing.T) {
	// If the destructured field were bound to an unconnected fresh
	// variable (the pre-fix behavior) instead of the constructor's real
	// payload type, this body would type-check with no error: `radius`
	// would unify freely to String from its lone use below, never
	// reconciling with the Int field `c` actually carries. Binding it
	// against the real payload type is what makes this a genuine,
	// detectable type mismatch.
	src := `let c = Circle { radius: 2 }
let f = (shape) => match shape { Circle { radius } => radius + "oops" }
let d = f(c)`
	_, _, diags := infer(t, src)
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, CodeTypeMismatch)
}

func TestOccursCheckRejectsInfiniteType(t *testing.T) {
	inf := newInferer()
	a := inf.fresh()
	list := &TypeList{Element: a}
	ok := inf.unify(a, list, Span{})
	assert.False(t, ok)
}
