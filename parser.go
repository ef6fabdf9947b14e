package lambdawg

import "github.com/samber/lo"

// Parser builds a Program AST from a token vector via recursive descent
// with a Pratt operator-precedence engine for expressions (spec.md §4.2).
// Grounded on the teacher's parser.go cursor API (Match/Peek/Consume/
// Current/Error).
type Parser struct {
	filename string
	tokens   []*Token
	idx      int
	diags    bag
}

func newParser(filename string, tokens []*Token) *Parser {
	return &Parser{filename: filename, tokens: tokens}
}

// parseProgram is the parser's entry point (spec.md §4.2).
func parseProgram(filename string, tokens []*Token) (*Program, []*Diagnostic) {
	p := newParser(filename, tokens)
	prog := p.parseProgram()
	return prog, p.diags.diagnostics
}

// ---- cursor helpers ----

func (p *Parser) current() *Token {
	return p.get(p.idx)
}

func (p *Parser) get(i int) *Token {
	if i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1] // EOF sentinel
	}
	return nil
}

func (p *Parser) peekN(shift int) *Token {
	return p.get(p.idx + shift)
}

func (p *Parser) consume() *Token {
	t := p.current()
	p.idx++
	return t
}

func (p *Parser) atEOF() bool {
	return p.current().Is(TokenEOF)
}

func (p *Parser) matchSymbol(text string) *Token {
	if p.current().IsSymbol(text) {
		return p.consume()
	}
	return nil
}

func (p *Parser) matchKeyword(text string) *Token {
	if p.current().IsKeyword(text) {
		return p.consume()
	}
	return nil
}

func (p *Parser) matchKind(kind TokenKind) *Token {
	if p.current().Is(kind) {
		return p.consume()
	}
	return nil
}

func (p *Parser) expectSymbol(text, code string) (*Token, bool) {
	if t := p.matchSymbol(text); t != nil {
		return t, true
	}
	p.errorf(code, p.current().Span, "expected %q, found %s", text, p.current().Text)
	return nil, false
}

func (p *Parser) errorf(code string, span Span, format string, args ...any) {
	p.diags.addf(SeverityError, code, format, span, args...)
}

// synchronize advances the cursor past the current statement after a
// parse error, stopping at a closing brace or the start of a declaration
// keyword, so the parser can keep recovering the rest of the program
// (spec.md §4.2 "Error recovery"). Grounded on the teacher's
// WrapUntilTag's "keep consuming until we see a recognized stopping
// point" shape.
func (p *Parser) synchronize() {
	for !p.atEOF() {
		if p.current().IsSymbol("}") {
			return
		}
		if p.current().IsKeyword("let") || p.current().IsKeyword("type") ||
			p.current().IsKeyword("module") || p.current().IsKeyword("import") {
			return
		}
		p.consume()
	}
}

// ---- top level ----

func (p *Parser) parseProgram() *Program {
	prog := &Program{}
	for !p.atEOF() {
		start := p.current().Span
		if p.current().IsKeyword("module") {
			mod := p.parseModule()
			if mod != nil {
				prog.Modules = append(prog.Modules, mod)
			}
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		prog.Statements = append(prog.Statements, stmt)
		_ = start
	}
	if len(prog.Statements) > 0 {
		prog.span = mergeSpans(lo.Map(prog.Statements, func(s Statement, _ int) Span { return s.Span() })...)
	}
	return prog
}

func (p *Parser) parseModule() *Module {
	kw := p.consume() // 'module'
	nameTok := p.matchKind(TokenValueIdent)
	if nameTok == nil {
		nameTok = p.matchKind(TokenTypeIdent)
	}
	name := ""
	if nameTok != nil {
		name = nameTok.Text
	} else {
		p.errorf(CodeExpectedIdent, kw.Span, "expected module name")
	}
	if _, ok := p.expectSymbol("{", CodeUnclosedBrace); !ok {
		return nil
	}
	mod := &Module{Name: name}
	for !p.current().IsSymbol("}") && !p.atEOF() {
		stmt := p.parseStatement()
		if stmt == nil {
			p.synchronize()
			continue
		}
		mod.Statements = append(mod.Statements, stmt)
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	endSpan := kw.Span
	if closeTok != nil {
		endSpan = kw.Span.Merge(closeTok.Span)
	}
	mod.span = endSpan
	return mod
}

// ---- statements ----

func (p *Parser) parseStatement() Statement {
	switch {
	case p.current().IsKeyword("let") || p.current().IsKeyword("private"):
		return p.parseLetStatement()
	case p.current().IsKeyword("type"):
		return p.parseTypeDefStatement()
	case p.current().IsKeyword("import"):
		return p.parseImportStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLetStatement() Statement {
	start := p.current().Span
	private := p.matchKeyword("private") != nil
	letTok, ok := p.expectSymbolOrKeyword("let")
	if !ok {
		return nil
	}
	_ = letTok

	nameTok := p.matchKind(TokenValueIdent)
	if nameTok == nil {
		p.errorf(CodeExpectedIdent, p.current().Span, "expected binder name after 'let'")
		return nil
	}

	var ambients []AmbientParam
	if p.matchKeyword("with") != nil {
		ambients = p.parseAmbientList()
	}

	var typeAnn TypeExpr
	if p.matchSymbol(":") != nil {
		typeAnn = p.parseTypeExpr()
	}

	if _, ok := p.expectSymbol("=", CodeInvalidAssignment); !ok {
		return nil
	}

	value := p.parseExpression()
	if value == nil {
		return nil
	}

	return &LetStatement{
		base:     base{span: start.Merge(value.Span())},
		Private:  private,
		Name:     nameTok.Text,
		Ambients: ambients,
		TypeAnn:  typeAnn,
		Value:    value,
	}
}

// expectSymbolOrKeyword consumes 'let' which the lexer classifies as a
// keyword.
func (p *Parser) expectSymbolOrKeyword(kw string) (*Token, bool) {
	if t := p.matchKeyword(kw); t != nil {
		return t, true
	}
	p.errorf(CodeUnexpectedToken, p.current().Span, "expected '%s'", kw)
	return nil, false
}

func (p *Parser) parseAmbientList() []AmbientParam {
	var params []AmbientParam
	for {
		nameTok := p.matchKind(TokenValueIdent)
		if nameTok == nil {
			p.errorf(CodeExpectedIdent, p.current().Span, "expected ambient dependency name")
			break
		}
		param := AmbientParam{Name: nameTok.Text}
		if p.matchSymbol(":") != nil {
			param.Type = p.parseTypeExpr()
		}
		params = append(params, param)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	return params
}

func (p *Parser) parseTypeDefStatement() Statement {
	start := p.consume().Span // 'type'
	nameTok := p.matchKind(TokenTypeIdent)
	if nameTok == nil {
		p.errorf(CodeExpectedIdent, p.current().Span, "expected type name")
		return nil
	}

	var params []string
	for p.current().Is(TokenValueIdent) {
		params = append(params, p.consume().Text)
	}

	if _, ok := p.expectSymbol("=", CodeInvalidAssignment); !ok {
		return nil
	}

	// A sum type starts with an optional leading '|' followed by a
	// type-ident variant name; anything else is a type alias.
	p.matchSymbol("|")
	if p.current().Is(TokenTypeIdent) {
		save := p.idx
		variant, ok := p.tryParseVariant()
		if ok {
			variants := []TypeVariant{variant}
			for p.matchSymbol("|") != nil {
				v, ok := p.tryParseVariant()
				if !ok {
					break
				}
				variants = append(variants, v)
			}
			return &TypeDefStatement{
				base:     base{span: start.Merge(p.get(p.idx - 1).Span)},
				Name:     nameTok.Text,
				Params:   params,
				Variants: variants,
			}
		}
		p.idx = save
	}

	alias := p.parseTypeExpr()
	if alias == nil {
		return nil
	}
	return &TypeDefStatement{
		base:   base{span: start.Merge(alias.Span())},
		Name:   nameTok.Text,
		Params: params,
		Alias:  alias,
	}
}

func (p *Parser) tryParseVariant() (TypeVariant, bool) {
	nameTok := p.matchKind(TokenTypeIdent)
	if nameTok == nil {
		return TypeVariant{}, false
	}
	variant := TypeVariant{Name: nameTok.Text}
	if p.current().IsSymbol("{") {
		rec := p.parseRecordTypeExpr()
		variant.Fields = rec.Fields
	}
	return variant, true
}

func (p *Parser) parseImportStatement() Statement {
	start := p.consume().Span // 'import'
	js := p.matchKeyword("js") != nil

	moduleTok := p.matchKind(TokenTypeIdent)
	if moduleTok == nil {
		moduleTok = p.matchKind(TokenValueIdent)
	}
	if moduleTok == nil {
		p.errorf(CodeExpectedIdent, p.current().Span, "expected module name to import")
		return nil
	}

	stmt := &ImportStatement{JS: js, Module: moduleTok.Text}
	end := moduleTok.Span

	if openTok := p.matchSymbol("{"); openTok != nil {
		if star := p.matchSymbol("*"); star != nil {
			stmt.Star = true
		} else {
			for {
				nameTok := p.matchKind(TokenValueIdent)
				if nameTok == nil {
					nameTok = p.matchKind(TokenTypeIdent)
				}
				if nameTok == nil {
					break
				}
				entry := ImportName{Name: nameTok.Text}
				if p.matchKeyword("as") != nil {
					if aliasTok := p.consume(); aliasTok != nil {
						entry.Alias = aliasTok.Text
					}
				}
				stmt.Names = append(stmt.Names, entry)
				if p.matchSymbol(",") == nil {
					break
				}
			}
		}
		closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
		if closeTok != nil {
			end = closeTok.Span
		}
	}

	stmt.base = base{span: start.Merge(end)}
	return stmt
}

func (p *Parser) parseExpressionStatement() Statement {
	expr := p.parseExpression()
	if expr == nil {
		p.errorf(CodeExpectedExpr, p.current().Span, "expected expression or declaration")
		return nil
	}
	return &ExpressionStatement{base: base{span: expr.Span()}, Expr: expr}
}

// ---- type expressions ----

func (p *Parser) parseTypeExpr() TypeExpr {
	// Function type: leading '(' that is followed (after a balanced
	// match) by '->'.
	if p.current().IsSymbol("(") {
		if t := p.tryParseFuncTypeExpr(); t != nil {
			return t
		}
	}

	switch {
	case p.current().IsSymbol("{"):
		return p.parseRecordTypeExprAsTypeExpr()
	case p.current().IsSymbol("["):
		return p.parseListTypeExpr()
	case p.current().IsSymbol("("):
		return p.parseParenTypeExpr()
	case p.current().Is(TokenTypeIdent) || p.current().Is(TokenValueIdent):
		return p.parseNamedOrAppTypeExpr()
	default:
		p.errorf(CodeExpectedType, p.current().Span, "expected a type expression")
		return nil
	}
}

func (p *Parser) tryParseFuncTypeExpr() TypeExpr {
	save := p.idx
	start := p.current().Span
	p.consume() // '('
	var params []TypeExpr
	if !p.current().IsSymbol(")") {
		for {
			t := p.parseTypeExpr()
			if t == nil {
				p.idx = save
				return nil
			}
			params = append(params, t)
			if p.matchSymbol(",") == nil {
				break
			}
		}
	}
	if p.matchSymbol(")") == nil {
		p.idx = save
		return nil
	}
	if p.matchSymbol("->") == nil {
		p.idx = save
		return nil
	}
	ret := p.parseTypeExpr()
	if ret == nil {
		p.idx = save
		return nil
	}
	return &FuncTypeExpr{base: base{span: start.Merge(ret.Span())}, Params: params, Return: ret}
}

func (p *Parser) parseParenTypeExpr() TypeExpr {
	start := p.consume().Span // '('
	inner := p.parseTypeExpr()
	closeTok, _ := p.expectSymbol(")", CodeUnclosedParen)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	return &ParenTypeExpr{base: base{span: start.Merge(end)}, Inner: inner}
}

func (p *Parser) parseListTypeExpr() TypeExpr {
	start := p.consume().Span // '['
	elem := p.parseTypeExpr()
	closeTok, _ := p.expectSymbol("]", CodeUnclosedBracket)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	return &ListTypeExpr{base: base{span: start.Merge(end)}, Element: elem}
}

func (p *Parser) parseRecordTypeExprAsTypeExpr() TypeExpr {
	return p.parseRecordTypeExpr()
}

func (p *Parser) parseRecordTypeExpr() *RecordTypeExpr {
	start := p.consume().Span // '{'
	rec := &RecordTypeExpr{}
	for !p.current().IsSymbol("}") && !p.atEOF() {
		if p.matchSymbol("...") != nil {
			rec.Open = true
			p.matchSymbol(",")
			continue
		}
		nameTok := p.matchKind(TokenValueIdent)
		if nameTok == nil {
			break
		}
		var fieldType TypeExpr
		if p.matchSymbol(":") != nil {
			fieldType = p.parseTypeExpr()
		}
		rec.Fields = append(rec.Fields, TypeField{Name: nameTok.Text, Type: fieldType})
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	rec.span = start.Merge(end)
	return rec
}

func (p *Parser) parseNamedOrAppTypeExpr() TypeExpr {
	nameTok := p.consume()
	name := nameTok.Text

	// Generic application: a type constructor applied to further type
	// atoms, e.g. `Option a`, `List (Int)`.
	var args []TypeExpr
	for p.current().Is(TokenTypeIdent) || p.current().Is(TokenValueIdent) || p.current().IsSymbol("(") {
		if p.current().IsSymbol("(") {
			args = append(args, p.parseParenTypeExpr())
			continue
		}
		args = append(args, &NamedTypeExpr{base: base{span: p.current().Span}, Name: p.consume().Text})
	}

	if len(args) == 0 {
		return &NamedTypeExpr{base: base{span: nameTok.Span}, Name: name}
	}
	return &AppTypeExpr{
		base: base{span: nameTok.Span.Merge(args[len(args)-1].Span())},
		Name: name,
		Args: args,
	}
}

// ---- patterns ----

func (p *Parser) parsePattern() Pattern {
	switch {
	case p.current().Is(TokenPlaceholder):
		t := p.consume()
		return &WildcardPattern{base: base{span: t.Span}}
	case p.current().Is(TokenValueIdent):
		t := p.consume()
		return &IdentPattern{base: base{span: t.Span}, Name: t.Text}
	case p.current().Is(TokenInt) || p.current().Is(TokenFloat) || p.current().Is(TokenString) ||
		p.current().Is(TokenChar) || p.current().IsKeyword("true") || p.current().IsKeyword("false"):
		return p.parseLiteralPattern()
	case p.current().Is(TokenTypeIdent):
		return p.parseConstructorPattern()
	case p.current().IsSymbol("["):
		return p.parseListPattern()
	case p.current().IsSymbol("{"):
		return p.parseRecordPattern()
	case p.current().IsSymbol("..."):
		return p.parseRestPattern()
	default:
		p.errorf(CodeInvalidPattern, p.current().Span, "expected a pattern, found %s", p.current().Text)
		return nil
	}
}

func (p *Parser) parseLiteralPattern() Pattern {
	lit := p.parseLiteralExprToken()
	if lit == nil {
		return nil
	}
	return &LiteralPattern{base: base{span: lit.Span()}, Kind: lit.Kind, Value: lit.Value}
}

func (p *Parser) parseConstructorPattern() Pattern {
	nameTok := p.consume()
	cp := &ConstructorPattern{base: base{span: nameTok.Span}, Name: nameTok.Text}
	switch {
	case p.current().IsSymbol("{"):
		cp.Record = p.parseRecordPattern().(*RecordPattern)
		cp.span = nameTok.Span.Merge(cp.Record.Span())
	case p.current().IsSymbol("("):
		start := p.consume().Span
		cp.Arg = p.parsePattern()
		closeTok, _ := p.expectSymbol(")", CodeUnclosedParen)
		end := start
		if closeTok != nil {
			end = closeTok.Span
		}
		cp.span = nameTok.Span.Merge(end)
	}
	return cp
}

func (p *Parser) parseListPattern() Pattern {
	start := p.consume().Span // '['
	lp := &ListPattern{}
	for !p.current().IsSymbol("]") && !p.atEOF() {
		if p.current().IsSymbol("...") {
			lp.Rest = p.parseRestPattern().(*RestPattern)
			break
		}
		elem := p.parsePattern()
		if elem == nil {
			break
		}
		lp.Elements = append(lp.Elements, elem)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol("]", CodeUnclosedBracket)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	lp.span = start.Merge(end)
	return lp
}

func (p *Parser) parseRestPattern() Pattern {
	start := p.consume().Span // '...'
	name := ""
	end := start
	if p.current().Is(TokenValueIdent) {
		t := p.consume()
		name = t.Text
		end = t.Span
	}
	return &RestPattern{base: base{span: start.Merge(end)}, Name: name}
}

func (p *Parser) parseRecordPattern() Pattern {
	start := p.consume().Span // '{'
	rp := &RecordPattern{}
	for !p.current().IsSymbol("}") && !p.atEOF() {
		if p.matchSymbol("...") != nil {
			rp.Rest = true
			p.matchSymbol(",")
			continue
		}
		nameTok := p.matchKind(TokenValueIdent)
		if nameTok == nil {
			break
		}
		field := RecordPatternField{Name: nameTok.Text}
		if p.matchSymbol(":") != nil {
			field.Pattern = p.parsePattern()
		}
		rp.Fields = append(rp.Fields, field)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	rp.span = start.Merge(end)
	return rp
}

// convertExprToPattern implements the structural map the spec requires
// when a parenthesized single expression turns out to be a one-parameter
// function literal's parameter (spec.md §4.2 "Function literal
// recognition"): identifier -> identifier-pattern, literal ->
// literal-pattern, placeholder -> wildcard-pattern.
func convertExprToPattern(e Expr) Pattern {
	switch v := e.(type) {
	case *IdentExpr:
		return &IdentPattern{base: base{span: v.span}, Name: v.Name}
	case *LiteralExpr:
		return &LiteralPattern{base: base{span: v.span}, Kind: v.Kind, Value: v.Value}
	case *PlaceholderExpr:
		return &WildcardPattern{base: base{span: v.span}}
	default:
		return nil
	}
}
