package lambdawg

// Node is implemented by every AST entity; all of them carry a span
// (spec.md §3: "Every syntactic and diagnostic entity carries a span.").
type Node interface {
	Span() Span
}

// Statement, Expr, Pattern and TypeExpr are the closed variant families
// spec.md §3 describes. AST nodes are immutable after construction except
// for the node->type annotation map the inferer maintains externally
// (see Inferer.types in infer.go).
type Statement interface {
	Node
	statementNode()
}

type Expr interface {
	Node
	exprNode()
}

type Pattern interface {
	Node
	patternNode()
}

type TypeExpr interface {
	Node
	typeExprNode()
}

// base embeds a span into every concrete node so Span() doesn't need to be
// hand-written per type.
type base struct {
	span Span
}

func (b base) Span() Span { return b.span }

// ---- Program ----

// Program is the top-level AST produced by the parser: a sequence of
// modules followed by a sequence of top-level statements.
type Program struct {
	base
	Modules    []*Module
	Statements []Statement
}

// Module is a `module Name { ... }` block; its body is itself a sequence
// of statements.
type Module struct {
	base
	Name       string
	Statements []Statement
}

// ---- Statements ----

// AmbientParam is one entry of a `with a, b: T` ambient-dependency list.
type AmbientParam struct {
	Name string
	Type TypeExpr // nil if no annotation was given
}

// LetStatement binds Name to Value, with optional ambients, a type
// annotation, and a privacy flag.
type LetStatement struct {
	base
	Private  bool
	Name     string
	Ambients []AmbientParam
	TypeAnn  TypeExpr // nil if omitted
	Value    Expr
}

func (*LetStatement) statementNode() {}

// TypeVariant is one `Name { field: Type, ... }` arm of a sum type.
type TypeVariant struct {
	Name   string
	Fields []TypeField // nil if the variant has no record payload
}

// TypeDefStatement is `type Name params = ...`, either a sum type
// (Variants non-nil) or a type alias (Alias non-nil).
type TypeDefStatement struct {
	base
	Name     string
	Params   []string
	Variants []TypeVariant // non-nil for a sum type
	Alias    TypeExpr      // non-nil for a type alias
}

func (*TypeDefStatement) statementNode() {}

// ImportName is one entry of an import's braced name list, with an
// optional `as` alias.
type ImportName struct {
	Name  string
	Alias string // empty if no alias given
}

// ImportStatement is `import [js] Module [{ * | names }]`.
type ImportStatement struct {
	base
	JS     bool
	Module string
	Star   bool
	Names  []ImportName
}

func (*ImportStatement) statementNode() {}

// ExpressionStatement is a bare expression used as a statement.
type ExpressionStatement struct {
	base
	Expr Expr
}

func (*ExpressionStatement) statementNode() {}

// ---- Expressions ----

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
)

// LiteralExpr is any of the fixed literal kinds: int, float, string, char,
// bool.
type LiteralExpr struct {
	base
	Kind  LiteralKind
	Value any
}

func (*LiteralExpr) exprNode() {}

// IdentExpr is a bare name reference.
type IdentExpr struct {
	base
	Name string
}

func (*IdentExpr) exprNode() {}

// PlaceholderExpr is `_` in argument position (spec.md glossary:
// "a hole that turns the surrounding call into a function of the
// remaining arguments").
type PlaceholderExpr struct {
	base
}

func (*PlaceholderExpr) exprNode() {}

// SpreadExpr is `...expr`, used inside list/record literals and calls.
type SpreadExpr struct {
	base
	Value Expr
}

func (*SpreadExpr) exprNode() {}

// ListExpr is `[e1, e2, ...]`.
type ListExpr struct {
	base
	Elements []Expr
}

func (*ListExpr) exprNode() {}

// RecordField is one `name: value` entry of a record literal or a
// provide-block's provisions.
type RecordField struct {
	Name  string
	Value Expr
}

// RecordExpr is a `{ field: value, ..., ...spread }` record literal.
type RecordExpr struct {
	base
	Fields []RecordField
	Spread Expr // nil if no spread present
}

func (*RecordExpr) exprNode() {}

// ConstructorExpr is `Name { ... }`: a type-ident immediately followed by
// a record literal, syntactically indistinguishable from a call until the
// parser sees what follows the type-ident (spec.md §1(a)).
type ConstructorExpr struct {
	base
	Name   string
	Fields []RecordField
	Spread Expr
}

func (*ConstructorExpr) exprNode() {}

// FuncExpr is `(p1, p2, ...) => body`.
type FuncExpr struct {
	base
	Params []Pattern
	Body   Expr
}

func (*FuncExpr) exprNode() {}

// CallExpr is `callee(args...)`. Any placeholder among Args marks this as
// a partial application (spec.md §4.3 Call contract, §9).
type CallExpr struct {
	base
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// HasPlaceholder reports whether any argument is a bare placeholder,
// i.e. whether this call is a partial application.
func (c *CallExpr) HasPlaceholder() bool {
	for _, a := range c.Args {
		if _, ok := a.(*PlaceholderExpr); ok {
			return true
		}
	}
	return false
}

// MemberExpr is `object.field`.
type MemberExpr struct {
	base
	Object Expr
	Field  string
}

func (*MemberExpr) exprNode() {}

// IndexExpr is `object[index]`.
type IndexExpr struct {
	base
	Object Expr
	Index  Expr
}

func (*IndexExpr) exprNode() {}

// UnaryExpr is a prefix `-` or `!`.
type UnaryExpr struct {
	base
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr is any of the binary operators in spec.md §4.2's precedence
// table (levels 1-6).
type BinaryExpr struct {
	base
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// ErrorPropagationExpr is the postfix `?` operator (spec.md §4.2 level 9,
// §9 open question).
type ErrorPropagationExpr struct {
	base
	Operand Expr
}

func (*ErrorPropagationExpr) exprNode() {}

// ParallelHint is the optional `@parallel(key: expr, ...)` attached to a
// pipeline stage. The flags are preserved verbatim; their semantics are
// the emitter's concern, and currently the emitter does not act on them
// (spec.md §4.2, §9).
type ParallelHint struct {
	Fields []RecordField
}

// PipelineExpr is `left |> right`, optionally marked `seq` and/or
// decorated with a parallel hint.
type PipelineExpr struct {
	base
	Left       Expr
	Right      Expr
	Sequential bool
	Parallel   *ParallelHint // nil if no hint was given
}

func (*PipelineExpr) exprNode() {}

// IfExpr is `if cond then a else b`.
type IfExpr struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

func (*IfExpr) exprNode() {}

// MatchArm is `pattern [if guard] => body`.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if no guard
	Body    Expr
}

// MatchExpr is `match subject { arm... }`, arms kept in source order
// (spec.md §4.2, §5: "Arms are collected in source order.").
type MatchExpr struct {
	base
	Subject Expr
	Arms    []MatchArm
}

func (*MatchExpr) exprNode() {}

// DoStatementKind distinguishes the three shapes a do-block statement may
// take (spec.md §4.2 Do).
type DoStatementKind int

const (
	DoLet DoStatementKind = iota
	DoBang
	DoBare
)

// DoStatement is one statement inside a do-block.
type DoStatement struct {
	Kind    DoStatementKind
	Pattern Pattern // only set for DoLet
	Await   bool    // DoLet: whether the bound expression was `do! expr`
	Value   Expr
}

// DoExpr is `do [?] { statements }`. ResultContext distinguishes the
// `do?` variant, which per spec.md §4.4 currently shares the same
// structural lowering as plain `do`.
type DoExpr struct {
	base
	ResultContext bool
	Statements    []DoStatement
}

func (*DoExpr) exprNode() {}

// ProvideExpr is `provide providing1: e1, ... in { body }`.
type ProvideExpr struct {
	base
	Provisions []RecordField
	Body       Expr
}

func (*ProvideExpr) exprNode() {}

// BlockExpr is a `{ statements... [trailing-expr] }` block, disambiguated
// from a record literal at parse time (spec.md §4.2 "Record vs. block").
type BlockExpr struct {
	base
	Statements []Statement
	Trailing   Expr // nil if the block ends without a trailing expression
}

func (*BlockExpr) exprNode() {}

// ---- Patterns ----

// IdentPattern captures the matched value under Name.
type IdentPattern struct {
	base
	Name string
}

func (*IdentPattern) patternNode() {}

// LiteralPattern matches only values equal to the literal.
type LiteralPattern struct {
	base
	Kind  LiteralKind
	Value any
}

func (*LiteralPattern) patternNode() {}

// WildcardPattern (`_`) matches anything and binds nothing.
type WildcardPattern struct {
	base
}

func (*WildcardPattern) patternNode() {}

// RestPattern (`...name?`) captures the remainder of a list pattern.
type RestPattern struct {
	base
	Name string // empty if anonymous (`...` with no following name)
}

func (*RestPattern) patternNode() {}

// ListPattern is `[p1, p2, ...rest?]`.
type ListPattern struct {
	base
	Elements []Pattern
	Rest     *RestPattern // nil if no rest pattern present
}

func (*ListPattern) patternNode() {}

// RecordPatternField is one `field[: pattern]` entry; Pattern is nil when
// the field binds a variable of the same name (punned).
type RecordPatternField struct {
	Name    string
	Pattern Pattern
}

// RecordPattern is `{field[: pattern], ..., ...?}`.
type RecordPattern struct {
	base
	Fields []RecordPatternField
	Rest   bool
}

func (*RecordPattern) patternNode() {}

// ConstructorPattern matches a named constructor, optionally destructuring
// its record payload or a single positional argument.
type ConstructorPattern struct {
	base
	Name   string
	Record *RecordPattern // non-nil if a record pattern was given
	Arg    Pattern        // non-nil if a single parenthesized pattern was given
}

func (*ConstructorPattern) patternNode() {}

// ---- Type expressions ----

// NamedTypeExpr is a bare type name: a constant (`Int`), a type variable
// (lowercase), or an unapplied type constructor.
type NamedTypeExpr struct {
	base
	Name string
}

func (*NamedTypeExpr) typeExprNode() {}

// FuncTypeExpr is `(T1, T2) -> R`.
type FuncTypeExpr struct {
	base
	Params []TypeExpr
	Return TypeExpr
}

func (*FuncTypeExpr) typeExprNode() {}

// TypeField is one `name: Type` entry of a record type expression.
type TypeField struct {
	Name string
	Type TypeExpr
}

// RecordTypeExpr is `{ field: Type, ... }`; Open marks a row-polymorphic
// "has at least these fields" constraint (spec.md §3, §9).
type RecordTypeExpr struct {
	base
	Fields []TypeField
	Open   bool
}

func (*RecordTypeExpr) typeExprNode() {}

// ListTypeExpr is `[T]` (a list of elements of type T).
type ListTypeExpr struct {
	base
	Element TypeExpr
}

func (*ListTypeExpr) typeExprNode() {}

// AppTypeExpr is a generic type application, e.g. `Option a`.
type AppTypeExpr struct {
	base
	Name string
	Args []TypeExpr
}

func (*AppTypeExpr) typeExprNode() {}

// ParenTypeExpr is a parenthesized type expression, kept distinct so the
// emitter/inferer never need to guess whether parens were significant.
type ParenTypeExpr struct {
	base
	Inner TypeExpr
}

func (*ParenTypeExpr) typeExprNode() {}
