package lambdawg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*Program, []*Diagnostic) {
	t.Helper()
	tokens, lexDiags := tokenize("t", src)
	require.Empty(t, lexDiags)
	return parseProgram("t", tokens)
}

func TestParseLetStatementLiteral(t *testing.T) {
	prog, diags := parse(t, "let x = 42")
	require.Empty(t, diags)
	require.Len(t, prog.Statements, 1)
	let, ok := prog.Statements[0].(*LetStatement)
	require.True(t, ok)
	assert.Equal(t, "x", let.Name)
	assert.False(t, let.Private)
	lit, ok := let.Value.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, LitInt, lit.Kind)
	assert.Equal(t, int64(42), lit.Value)
}

func TestParsePrivateLetWithAmbients(t *testing.T) {
	prog, diags := parse(t, "private let f with logger, db: Db = 1")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	assert.True(t, let.Private)
	require.Len(t, let.Ambients, 2)
	assert.Equal(t, "logger", let.Ambients[0].Name)
	assert.Equal(t, "db", let.Ambients[1].Name)
	require.NotNil(t, let.Ambients[1].Type)
}

func TestParseFuncLiteralAndCall(t *testing.T) {
	prog, diags := parse(t, "let add = (a, b) => a + b")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	fn, ok := let.Value.(*FuncExpr)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	bin, ok := fn.Body.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func TestParsePipelineWithPlaceholderPartialApplication(t *testing.T) {
	prog, diags := parse(t, "let nums = [1,2,3]\nlet d = nums |> map((x) => x * 2, _)")
	require.Empty(t, diags)
	require.Len(t, prog.Statements, 2)
	let := prog.Statements[1].(*LetStatement)
	pipe, ok := let.Value.(*PipelineExpr)
	require.True(t, ok)
	call, ok := pipe.Right.(*CallExpr)
	require.True(t, ok)
	assert.True(t, call.HasPlaceholder())
}

func TestParseIfExpr(t *testing.T) {
	prog, diags := parse(t, "let x = if true then 1 else 2")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	ifExpr, ok := let.Value.(*IfExpr)
	require.True(t, ok)
	assert.IsType(t, &LiteralExpr{}, ifExpr.Cond)
}

func TestParseMatchExprArmsInSourceOrder(t *testing.T) {
	src := `let f = (n) => match n { 0 => "zero" 1 => "one" _ => "other" }`
	prog, diags := parse(t, src)
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	fn := let.Value.(*FuncExpr)
	m, ok := fn.Body.(*MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	lit0 := m.Arms[0].Pattern.(*LiteralPattern)
	assert.Equal(t, int64(0), lit0.Value)
	lit1 := m.Arms[1].Pattern.(*LiteralPattern)
	assert.Equal(t, int64(1), lit1.Value)
	_, isWildcard := m.Arms[2].Pattern.(*WildcardPattern)
	assert.True(t, isWildcard)
}

func TestParseUndefinedVariableIsAParseTimeNonIssue(t *testing.T) {
	// `y` is a perfectly valid identifier reference at parse time; the
	// undefined-variable diagnostic is the inferer's concern (T002), not
	// the parser's.
	prog, diags := parse(t, "let x = y + 1")
	require.Empty(t, diags)
	let := prog.Statements[0].(*LetStatement)
	bin := let.Value.(*BinaryExpr)
	ident, ok := bin.Left.(*IdentExpr)
	require.True(t, ok)
	assert.Equal(t, "y", ident.Name)
}

func TestParseModuleCollectsExportableStatements(t *testing.T) {
	src := `module math {
  let add = (a, b) => a + b
  private let secret = 1
}`
	prog, diags := parse(t, src)
	require.Empty(t, diags)
	require.Len(t, prog.Modules, 1)
	mod := prog.Modules[0]
	assert.Equal(t, "math", mod.Name)
	require.Len(t, mod.Statements, 2)
}

func TestParseConstructorExprVsPlainCall(t *testing.T) {
	prog, diags := parse(t, `let a = Some { value: 1 }
let b = identity(1)`)
	require.Empty(t, diags)
	aLet := prog.Statements[0].(*LetStatement)
	_, isConstructor := aLet.Value.(*ConstructorExpr)
	assert.True(t, isConstructor)

	bLet := prog.Statements[1].(*LetStatement)
	_, isCall := bLet.Value.(*CallExpr)
	assert.True(t, isCall)
}

func TestParseErrorRecoverySynchronizesAtNextLet(t *testing.T) {
	// A malformed let (missing '=') should not prevent the following
	// statement from parsing successfully (spec.md §4.2 error recovery).
	prog, diags := parse(t, "let x\nlet y = 1")
	require.NotEmpty(t, diags)
	var sawY bool
	for _, s := range prog.Statements {
		if let, ok := s.(*LetStatement); ok && let.Name == "y" {
			sawY = true
		}
	}
	assert.True(t, sawY, "parser should recover and still parse 'let y = 1'")
}

func TestParseSpansCoverFullConstruct(t *testing.T) {
	prog, diags := parse(t, "let x = 1")
	require.Empty(t, diags)
	let := prog.Statements[0]
	span := let.Span()
	assert.Equal(t, 0, span.Start.Offset)
	assert.Greater(t, span.End.Offset, span.Start.Offset)
}
