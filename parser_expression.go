package lambdawg

// Precedence-climbing chain for expressions (spec.md §4.2's ten-level
// table), grounded on the teacher's parser_expression.go chain
// (ParseExpression -> parseRelationalExpression -> parseSimpleExpression
// -> parseTerm -> parsePower -> parseFactor): each level is its own
// function that calls down into the next-tighter level, with a loop for
// left-associative operators at that level.

func (p *Parser) parseExpression() Expr {
	return p.parseOr()
}

func safeSpan(e Expr) Span {
	if e == nil {
		return Span{}
	}
	return e.Span()
}

func (p *Parser) parseOr() Expr {
	left := p.parseAnd()
	for left != nil && p.current().IsSymbol("||") {
		op := p.consume()
		right := p.parseAnd()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	left := p.parseEquality()
	for left != nil && p.current().IsSymbol("&&") {
		op := p.consume()
		right := p.parseEquality()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() Expr {
	left := p.parseRelational()
	for left != nil && (p.current().IsSymbol("==") || p.current().IsSymbol("!=")) {
		op := p.consume()
		right := p.parseRelational()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() Expr {
	left := p.parseAdditive()
	for left != nil && (p.current().IsSymbol("<") || p.current().IsSymbol(">") ||
		p.current().IsSymbol("<=") || p.current().IsSymbol(">=")) {
		op := p.consume()
		right := p.parseAdditive()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for left != nil && (p.current().IsSymbol("+") || p.current().IsSymbol("-")) {
		op := p.consume()
		right := p.parseMultiplicative()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for left != nil && (p.current().IsSymbol("*") || p.current().IsSymbol("/") || p.current().IsSymbol("%")) {
		op := p.consume()
		right := p.parseUnary()
		left = &BinaryExpr{base: base{span: left.Span().Merge(safeSpan(right))}, Op: op.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.current().IsSymbol("-") || p.current().IsSymbol("!") {
		op := p.consume()
		operand := p.parseUnary()
		return &UnaryExpr{base: base{span: op.Span.Merge(safeSpan(operand))}, Op: op.Text, Operand: operand}
	}
	return p.parsePipeline()
}

func (p *Parser) parsePipeline() Expr {
	left := p.parseErrorProp()
	for left != nil && p.current().IsSymbol("|>") {
		p.consume()
		seq := p.matchKeyword("seq") != nil
		var hint *ParallelHint
		if p.current().IsSymbol("@") {
			hint = p.parseParallelHint()
		}
		right := p.parseErrorProp()
		left = &PipelineExpr{
			base:       base{span: left.Span().Merge(safeSpan(right))},
			Left:       left,
			Right:      right,
			Sequential: seq,
			Parallel:   hint,
		}
	}
	return left
}

func (p *Parser) parseParallelHint() *ParallelHint {
	p.consume() // '@'
	p.matchKind(TokenValueIdent) // "parallel"
	hint := &ParallelHint{}
	if p.matchSymbol("(") != nil {
		for !p.current().IsSymbol(")") && !p.atEOF() {
			nameTok := p.matchKind(TokenValueIdent)
			if nameTok == nil {
				break
			}
			p.expectSymbol(":", CodeInvalidAssignment)
			val := p.parseExpression()
			hint.Fields = append(hint.Fields, RecordField{Name: nameTok.Text, Value: val})
			if p.matchSymbol(",") == nil {
				break
			}
		}
		p.expectSymbol(")", CodeUnclosedParen)
	}
	return hint
}

func (p *Parser) parseErrorProp() Expr {
	left := p.parsePostfix()
	for left != nil && p.current().IsSymbol("?") {
		t := p.consume()
		left = &ErrorPropagationExpr{base: base{span: left.Span().Merge(t.Span)}, Operand: left}
	}
	return left
}

func (p *Parser) parsePostfix() Expr {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}
	for {
		switch {
		case p.current().IsSymbol("("):
			left = p.parseCallArgs(left)
		case p.current().IsSymbol("."):
			p.consume()
			fieldTok := p.matchKind(TokenValueIdent)
			end := left.Span()
			name := ""
			if fieldTok != nil {
				name = fieldTok.Text
				end = fieldTok.Span
			} else {
				p.errorf(CodeExpectedIdent, p.current().Span, "expected field name after '.'")
			}
			left = &MemberExpr{base: base{span: left.Span().Merge(end)}, Object: left, Field: name}
		case p.current().IsSymbol("["):
			p.consume()
			idx := p.parseExpression()
			closeTok, _ := p.expectSymbol("]", CodeUnclosedBracket)
			end := left.Span()
			if closeTok != nil {
				end = closeTok.Span
			}
			left = &IndexExpr{base: base{span: left.Span().Merge(end)}, Object: left, Index: idx}
		default:
			return left
		}
	}
}

func (p *Parser) parseCallArgs(callee Expr) Expr {
	p.consume() // '('
	var args []Expr
	for !p.current().IsSymbol(")") && !p.atEOF() {
		var arg Expr
		switch {
		case p.current().Is(TokenPlaceholder):
			t := p.consume()
			arg = &PlaceholderExpr{base: base{span: t.Span}}
		case p.current().IsSymbol("..."):
			arg = p.parseSpreadExpr()
		default:
			arg = p.parseExpression()
		}
		if arg == nil {
			break
		}
		args = append(args, arg)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol(")", CodeUnclosedParen)
	end := callee.Span()
	if closeTok != nil {
		end = closeTok.Span
	}
	return &CallExpr{base: base{span: callee.Span().Merge(end)}, Callee: callee, Args: args}
}

// ---- prefix productions (spec.md §4.2) ----

func (p *Parser) parsePrimary() Expr {
	t := p.current()
	switch {
	case t.Is(TokenInt), t.Is(TokenFloat), t.Is(TokenString), t.Is(TokenChar),
		t.IsKeyword("true"), t.IsKeyword("false"):
		return p.parseLiteralExprToken()
	case t.Is(TokenPlaceholder):
		p.consume()
		return &PlaceholderExpr{base: base{span: t.Span}}
	case t.IsSymbol("..."):
		return p.parseSpreadExpr()
	case t.Is(TokenValueIdent):
		p.consume()
		return &IdentExpr{base: base{span: t.Span}, Name: t.Text}
	case t.Is(TokenTypeIdent):
		return p.parseConstructorOrIdentExpr()
	case t.IsSymbol("("):
		return p.parseParenExprOrFunc()
	case t.IsSymbol("["):
		return p.parseListExpr()
	case t.IsSymbol("{"):
		return p.parseRecordOrBlock()
	case t.IsKeyword("if"):
		return p.parseIfExpr()
	case t.IsKeyword("match"):
		return p.parseMatchExpr()
	case t.IsKeyword("do"):
		return p.parseDoExpr()
	case t.IsKeyword("provide"):
		return p.parseProvideExpr()
	default:
		p.errorf(CodeExpectedExpr, t.Span, "expected an expression, found %s", t.Text)
		p.consume()
		return nil
	}
}

func (p *Parser) parseLiteralExprToken() *LiteralExpr {
	t := p.current()
	switch {
	case t.Is(TokenInt):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitInt, Value: t.Value}
	case t.Is(TokenFloat):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitFloat, Value: t.Value}
	case t.Is(TokenString):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitString, Value: t.Value}
	case t.Is(TokenChar):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitChar, Value: t.Value}
	case t.IsKeyword("true"):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitBool, Value: true}
	case t.IsKeyword("false"):
		p.consume()
		return &LiteralExpr{base: base{span: t.Span}, Kind: LitBool, Value: false}
	default:
		p.errorf(CodeExpectedExpr, t.Span, "expected a literal")
		return nil
	}
}

func (p *Parser) parseSpreadExpr() Expr {
	start := p.consume().Span // '...'
	val := p.parseExpression()
	return &SpreadExpr{base: base{span: start.Merge(safeSpan(val))}, Value: val}
}

// isRecordAhead implements spec.md §4.2's "Record vs. block" rule: a `{`
// opens a record if it's immediately empty, starts with `...`, or its
// first two tokens are `ident :`; otherwise it opens a block.
func (p *Parser) isRecordAhead() bool {
	if !p.current().IsSymbol("{") {
		return false
	}
	next := p.peekN(1)
	if next.IsSymbol("}") || next.IsSymbol("...") {
		return true
	}
	return next.Is(TokenValueIdent) && p.peekN(2).IsSymbol(":")
}

func (p *Parser) parseRecordOrBlock() Expr {
	if p.isRecordAhead() {
		return p.parseRecordExpr()
	}
	return p.parseBlockExpr()
}

// parseRecordBody parses the common `{ field: value, ..., ...spread }`
// shape shared by record literals and constructor literals.
func (p *Parser) parseRecordBody() ([]RecordField, Expr, Span) {
	start := p.consume().Span // '{'
	var fields []RecordField
	var spread Expr
	for !p.current().IsSymbol("}") && !p.atEOF() {
		if p.matchSymbol("...") != nil {
			spread = p.parseExpression()
			if p.matchSymbol(",") == nil {
				break
			}
			continue
		}
		nameTok := p.matchKind(TokenValueIdent)
		if nameTok == nil {
			break
		}
		p.expectSymbol(":", CodeInvalidAssignment)
		val := p.parseExpression()
		fields = append(fields, RecordField{Name: nameTok.Text, Value: val})
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	return fields, spread, start.Merge(end)
}

func (p *Parser) parseRecordExpr() Expr {
	fields, spread, span := p.parseRecordBody()
	return &RecordExpr{base: base{span: span}, Fields: fields, Spread: spread}
}

// parseConstructorOrIdentExpr resolves the "constructor-or-identifier"
// ambiguity (spec.md §4.2): a type-ident is a plain identifier reference
// unless immediately followed by a record literal, in which case it's a
// constructor call.
func (p *Parser) parseConstructorOrIdentExpr() Expr {
	nameTok := p.consume()
	if p.isRecordAhead() {
		fields, spread, span := p.parseRecordBody()
		return &ConstructorExpr{base: base{span: nameTok.Span.Merge(span)}, Name: nameTok.Text, Fields: fields, Spread: spread}
	}
	return &IdentExpr{base: base{span: nameTok.Span}, Name: nameTok.Text}
}

func (p *Parser) parseBlockExpr() Expr {
	start := p.consume().Span // '{'
	blk := &BlockExpr{}
	for !p.current().IsSymbol("}") && !p.atEOF() {
		if p.current().IsKeyword("let") || p.current().IsKeyword("private") ||
			p.current().IsKeyword("type") || p.current().IsKeyword("import") {
			stmt := p.parseStatement()
			if stmt == nil {
				p.synchronize()
				continue
			}
			blk.Statements = append(blk.Statements, stmt)
			continue
		}
		expr := p.parseExpression()
		if expr == nil {
			p.synchronize()
			continue
		}
		if p.current().IsSymbol("}") {
			blk.Trailing = expr
			break
		}
		blk.Statements = append(blk.Statements, &ExpressionStatement{base: base{span: expr.Span()}, Expr: expr})
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	blk.span = start.Merge(end)
	return blk
}

func (p *Parser) parseListExpr() Expr {
	start := p.consume().Span // '['
	le := &ListExpr{}
	for !p.current().IsSymbol("]") && !p.atEOF() {
		var e Expr
		if p.current().IsSymbol("...") {
			e = p.parseSpreadExpr()
		} else {
			e = p.parseExpression()
		}
		if e == nil {
			break
		}
		le.Elements = append(le.Elements, e)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	closeTok, _ := p.expectSymbol("]", CodeUnclosedBracket)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	le.span = start.Merge(end)
	return le
}

func (p *Parser) parseIfExpr() Expr {
	start := p.consume().Span // 'if'
	cond := p.parseExpression()
	p.matchKeyword("then")
	thenExpr := p.parseExpression()
	p.matchKeyword("else")
	elseExpr := p.parseExpression()
	return &IfExpr{
		base: base{span: start.Merge(safeSpan(elseExpr))},
		Cond: cond, Then: thenExpr, Else: elseExpr,
	}
}

func (p *Parser) parseMatchExpr() Expr {
	start := p.consume().Span // 'match'
	subject := p.parseExpression()
	if _, ok := p.expectSymbol("{", CodeUnclosedBrace); !ok {
		return subject
	}
	var arms []MatchArm
	for !p.current().IsSymbol("}") && !p.atEOF() {
		pat := p.parsePattern()
		if pat == nil {
			p.synchronize()
			continue
		}
		var guard Expr
		if p.matchKeyword("if") != nil {
			guard = p.parseExpression()
		}
		if _, ok := p.expectSymbol("=>", CodeUnexpectedToken); !ok {
			p.synchronize()
			continue
		}
		body := p.parseExpression()
		arms = append(arms, MatchArm{Pattern: pat, Guard: guard, Body: body})
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	return &MatchExpr{base: base{span: start.Merge(end)}, Subject: subject, Arms: arms}
}

func (p *Parser) parseDoExpr() Expr {
	start := p.consume().Span // 'do'
	resultCtx := p.matchSymbol("?") != nil
	if _, ok := p.expectSymbol("{", CodeUnclosedBrace); !ok {
		return nil
	}
	var stmts []DoStatement
	for !p.current().IsSymbol("}") && !p.atEOF() {
		stmts = append(stmts, p.parseDoStatement())
	}
	closeTok, _ := p.expectSymbol("}", CodeUnclosedBrace)
	end := start
	if closeTok != nil {
		end = closeTok.Span
	}
	return &DoExpr{base: base{span: start.Merge(end)}, ResultContext: resultCtx, Statements: stmts}
}

func (p *Parser) isDoBang() bool {
	return p.current().IsKeyword("do") && p.peekN(1).IsSymbol("!")
}

func (p *Parser) parseDoStatement() DoStatement {
	if p.current().IsKeyword("let") {
		p.consume()
		pat := p.parsePattern()
		p.expectSymbol("=", CodeInvalidAssignment)
		await := false
		if p.isDoBang() {
			p.consume()
			p.consume()
			await = true
		}
		value := p.parseExpression()
		return DoStatement{Kind: DoLet, Pattern: pat, Await: await, Value: value}
	}
	if p.isDoBang() {
		p.consume()
		p.consume()
		value := p.parseExpression()
		return DoStatement{Kind: DoBang, Value: value}
	}
	value := p.parseExpression()
	return DoStatement{Kind: DoBare, Value: value}
}

func (p *Parser) parseProvideExpr() Expr {
	start := p.consume().Span // 'provide'
	p.matchKeyword("providing")
	var provisions []RecordField
	for p.current().Is(TokenValueIdent) {
		nameTok := p.consume()
		p.expectSymbol(":", CodeInvalidAssignment)
		val := p.parseExpression()
		provisions = append(provisions, RecordField{Name: nameTok.Text, Value: val})
		if p.matchSymbol(",") == nil {
			break
		}
	}
	p.matchKeyword("in")
	body := p.parseExpression()
	return &ProvideExpr{base: base{span: start.Merge(safeSpan(body))}, Provisions: provisions, Body: body}
}

// parseParenExprOrFunc disambiguates a parenthesized function literal
// from a parenthesized expression via a one-shot backtracking lookahead
// (spec.md §4.2 "Function literal recognition").
func (p *Parser) parseParenExprOrFunc() Expr {
	start := p.current().Span
	save := p.idx
	diagLen := len(p.diags.diagnostics)

	p.consume() // '('
	if params, ok := p.tryParseParamList(); ok {
		body := p.parseExpression()
		if body != nil {
			return &FuncExpr{base: base{span: start.Merge(body.Span())}, Params: params, Body: body}
		}
	}

	// Rewind and parse as a parenthesized expression instead.
	p.idx = save
	p.diags.diagnostics = p.diags.diagnostics[:diagLen]

	p.consume() // '('
	inner := p.parseExpression()
	p.expectSymbol(")", CodeUnclosedParen)
	if inner == nil {
		return nil
	}
	if p.matchSymbol("=>") != nil {
		pat := convertExprToPattern(inner)
		if pat == nil {
			p.errorf(CodeInvalidPattern, inner.Span(), "expression cannot be used as a function parameter")
			return inner
		}
		body := p.parseExpression()
		if body == nil {
			return inner
		}
		return &FuncExpr{base: base{span: start.Merge(body.Span())}, Params: []Pattern{pat}, Body: body}
	}
	return inner
}

// tryParseParamList attempts `pattern, pattern, ...) =>` assuming the
// caller already consumed the opening '('. It reports success only if
// the whole shape (closing paren and arrow) matches; callers are
// responsible for rewinding on failure.
func (p *Parser) tryParseParamList() ([]Pattern, bool) {
	if p.current().IsSymbol(")") {
		p.consume()
		if p.matchSymbol("=>") != nil {
			return nil, true
		}
		return nil, false
	}
	var params []Pattern
	for {
		pat := p.parsePattern()
		if pat == nil {
			return nil, false
		}
		params = append(params, pat)
		if p.matchSymbol(",") == nil {
			break
		}
	}
	if p.matchSymbol(")") == nil {
		return nil, false
	}
	if p.matchSymbol("=>") == nil {
		return nil, false
	}
	return params, true
}
