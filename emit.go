package lambdawg

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Emitter performs the syntax-directed lowering spec.md §4.4 describes:
// a tree walk that writes target-source text into a buffer, never
// consulting the inferred types for correctness. Grounded on the
// teacher's Execute(ctx, buffer) tree-walk-into-a-buffer style
// (parser_expression.go, nodes.go), repurposed to produce JS text
// instead of evaluating a template.
type Emitter struct {
	buf            bytes.Buffer
	indent         int
	subjectCounter int
}

func newEmitter() *Emitter {
	return &Emitter{}
}

// emitProgram is the emitter's entry point. It prepends the fixed
// runtime prelude, then lowers every top-level statement and module in
// source order within each category (spec.md §4.4, §8 invariant 6).
func emitProgram(prog *Program) string {
	em := newEmitter()
	em.buf.WriteString(preludeSource)
	em.buf.WriteString("\n")
	for _, stmt := range prog.Statements {
		em.writeLine(em.emitInnerStatement(stmt))
	}
	for _, mod := range prog.Modules {
		em.emitModule(mod)
	}
	return em.buf.String()
}

func (em *Emitter) indentStr() string {
	return strings.Repeat("  ", em.indent)
}

func (em *Emitter) writeLine(s string) {
	if s == "" {
		return
	}
	em.buf.WriteString(em.indentStr())
	em.buf.WriteString(s)
	em.buf.WriteString("\n")
}

func (em *Emitter) freshName(prefix string) string {
	n := em.subjectCounter
	em.subjectCounter++
	return fmt.Sprintf("%s%d", prefix, n)
}

// ---- statements ----

// emitModule lowers a `module Name { ... }` block to a self-executing
// scope binding all its non-private declarations and yielding a record
// of their names (spec.md §4.4).
func (em *Emitter) emitModule(mod *Module) {
	em.writeLine(fmt.Sprintf("const %s = (() => {", renameIfReserved(mod.Name)))
	em.indent++
	var exported []string
	for _, stmt := range mod.Statements {
		em.writeLine(em.emitInnerStatement(stmt))
		if ls, ok := stmt.(*LetStatement); ok && !ls.Private {
			exported = append(exported, renameIfReserved(ls.Name))
		}
	}
	em.writeLine(fmt.Sprintf("return { %s };", strings.Join(exported, ", ")))
	em.indent--
	em.writeLine("})();")
}

// emitInnerStatement lowers a let/expression statement to one line of
// JS; used both at the top level and inside block/module bodies.
func (em *Emitter) emitInnerStatement(stmt Statement) string {
	switch s := stmt.(type) {
	case *LetStatement:
		return em.emitLetStatement(s)
	case *ExpressionStatement:
		return em.emitExpr(s.Expr) + ";"
	case *TypeDefStatement, *ImportStatement:
		// Type declarations are erased; imports have no module loader to
		// target in this core (spec.md §1 non-goals).
		return ""
	default:
		return ""
	}
}

// emitLetStatement implements spec.md §4.4's let-lowering: a binder with
// `with d1,...` becomes a function of those ambient parameters returning
// the value expression; without ambients, a direct binding. A name
// colliding with a target reserved word is renamed with a single
// underscore prefix, uniformly at definition and use sites.
func (em *Emitter) emitLetStatement(s *LetStatement) string {
	name := renameIfReserved(s.Name)
	valueJS := em.emitExpr(s.Value)
	if len(s.Ambients) == 0 {
		return fmt.Sprintf("const %s = %s;", name, valueJS)
	}
	names := make([]string, len(s.Ambients))
	for i, a := range s.Ambients {
		names[i] = renameIfReserved(a.Name)
	}
	return fmt.Sprintf("const %s = (%s) => %s;", name, strings.Join(names, ", "), valueJS)
}

// ---- expressions ----

func (em *Emitter) emitExpr(e Expr) string {
	switch v := e.(type) {
	case *LiteralExpr:
		return em.emitLiteral(v)
	case *IdentExpr:
		return renameIfReserved(v.Name)
	case *PlaceholderExpr:
		return "undefined"
	case *SpreadExpr:
		return "..." + em.emitExpr(v.Value)
	case *ListExpr:
		parts := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			parts[i] = em.emitExpr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *RecordExpr:
		return em.emitRecordLiteral(v.Fields, v.Spread)
	case *ConstructorExpr:
		return renameIfReserved(v.Name) + "(" + em.emitRecordLiteral(v.Fields, v.Spread) + ")"
	case *FuncExpr:
		return em.emitFuncExpr(v)
	case *CallExpr:
		return em.emitCallExpr(v)
	case *MemberExpr:
		return em.emitExpr(v.Object) + "." + v.Field
	case *IndexExpr:
		return em.emitExpr(v.Object) + "[" + em.emitExpr(v.Index) + "]"
	case *UnaryExpr:
		return "(" + v.Op + em.emitExpr(v.Operand) + ")"
	case *BinaryExpr:
		return "(" + em.emitExpr(v.Left) + " " + v.Op + " " + em.emitExpr(v.Right) + ")"
	case *ErrorPropagationExpr:
		return "unwrap(" + em.emitExpr(v.Operand) + ")"
	case *PipelineExpr:
		return "pipe(" + em.emitExpr(v.Left) + ", " + em.emitExpr(v.Right) + ")"
	case *IfExpr:
		return "(" + em.emitExpr(v.Cond) + " ? " + em.emitExpr(v.Then) + " : " + em.emitExpr(v.Else) + ")"
	case *MatchExpr:
		return em.emitMatchExpr(v)
	case *DoExpr:
		return em.emitDoExpr(v)
	case *ProvideExpr:
		return em.emitProvideExpr(v)
	case *BlockExpr:
		return em.emitBlockExpr(v)
	default:
		return "undefined"
	}
}

func (em *Emitter) emitLiteral(lit *LiteralExpr) string {
	switch lit.Kind {
	case LitInt:
		if n, ok := lit.Value.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
		return "0"
	case LitFloat:
		if f, ok := lit.Value.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "0"
	case LitString:
		if s, ok := lit.Value.(string); ok {
			return strconv.Quote(s)
		}
		return `""`
	case LitChar:
		if r, ok := lit.Value.(rune); ok {
			return strconv.Quote(string(r))
		}
		return `""`
	case LitBool:
		if b, ok := lit.Value.(bool); ok && b {
			return "true"
		}
		return "false"
	default:
		return "undefined"
	}
}

// emitRecordLiteral expands an optional spread before explicit fields so
// later field writes win (spec.md §4.4).
func (em *Emitter) emitRecordLiteral(fields []RecordField, spread Expr) string {
	var parts []string
	if spread != nil {
		parts = append(parts, "..."+em.emitExpr(spread))
	}
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, em.emitExpr(f.Value)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func (em *Emitter) emitFuncExpr(fe *FuncExpr) string {
	params := make([]string, len(fe.Params))
	for i, p := range fe.Params {
		params[i] = patternParamName(p, i)
	}
	return "(" + strings.Join(params, ", ") + ") => " + em.emitExpr(fe.Body)
}

// patternParamName renders a function parameter's surface pattern as a
// JS parameter name; only identifier/wildcard patterns are simple
// positional names, so anything else falls back to a positional name
// (destructuring non-identifier parameter patterns is not attempted).
func patternParamName(p Pattern, index int) string {
	switch v := p.(type) {
	case *IdentPattern:
		return renameIfReserved(v.Name)
	case *WildcardPattern:
		return fmt.Sprintf("__arg%d", index)
	default:
		return fmt.Sprintf("__arg%d", index)
	}
}

// emitCallExpr lowers a call with any placeholder argument to a fresh
// closure whose parameters are positional fill-ins, invoking the
// original callee with the placeholders substituted at their original
// indices (spec.md §4.4, §9 "Placeholder partial application").
func (em *Emitter) emitCallExpr(ce *CallExpr) string {
	calleeJS := em.emitExpr(ce.Callee)
	if !ce.HasPlaceholder() {
		args := make([]string, len(ce.Args))
		for i, a := range ce.Args {
			args[i] = em.emitExpr(a)
		}
		return calleeJS + "(" + strings.Join(args, ", ") + ")"
	}

	var closureParams []string
	args := make([]string, len(ce.Args))
	for i, a := range ce.Args {
		if _, ok := a.(*PlaceholderExpr); ok {
			name := em.freshName("__p")
			closureParams = append(closureParams, name)
			args[i] = name
			continue
		}
		args[i] = em.emitExpr(a)
	}
	return "(" + strings.Join(closureParams, ", ") + ") => " + calleeJS + "(" + strings.Join(args, ", ") + ")"
}

// emitMatchExpr lowers a match to an immediately-invoked block (spec.md
// §4.4): bind the subject to a fresh name, then in source order emit
// guarded conditionals, each testing the arm's pattern structurally and
// (if present) its guard expression, with pattern bindings introduced as
// fresh names before the arm body returns. A non-exhaustive match raises
// at runtime.
func (em *Emitter) emitMatchExpr(me *MatchExpr) string {
	var sb strings.Builder
	subject := em.freshName("__subject")
	sb.WriteString("(() => {\n")
	em.indent++
	sb.WriteString(em.indentStr())
	sb.WriteString(fmt.Sprintf("const %s = %s;\n", subject, em.emitExpr(me.Subject)))

	for _, arm := range me.Arms {
		sb.WriteString(em.indentStr())
		sb.WriteString(fmt.Sprintf("if (%s) {\n", structuralTest(arm.Pattern, subject)))
		em.indent++
		for _, binding := range bindingsFor(arm.Pattern, subject) {
			sb.WriteString(em.indentStr())
			sb.WriteString(binding)
			sb.WriteString("\n")
		}
		bodyJS := em.emitExpr(arm.Body)
		if arm.Guard != nil {
			sb.WriteString(em.indentStr())
			sb.WriteString(fmt.Sprintf("if (%s) {\n", em.emitExpr(arm.Guard)))
			em.indent++
			sb.WriteString(em.indentStr())
			sb.WriteString(fmt.Sprintf("return %s;\n", bodyJS))
			em.indent--
			sb.WriteString(em.indentStr())
			sb.WriteString("}\n")
		} else {
			sb.WriteString(em.indentStr())
			sb.WriteString(fmt.Sprintf("return %s;\n", bodyJS))
		}
		em.indent--
		sb.WriteString(em.indentStr())
		sb.WriteString("}\n")
	}

	sb.WriteString(em.indentStr())
	sb.WriteString(`throw new __NativeError("non-exhaustive pattern match");` + "\n")
	em.indent--
	sb.WriteString(em.indentStr())
	sb.WriteString("})()")
	return sb.String()
}

// structuralTest renders the guard condition for one match arm's
// pattern: length for list patterns, __tag equality for constructor
// patterns, literal equality for literal patterns, always-true for
// record/wildcard/identifier (spec.md §4.4, verbatim).
func structuralTest(pat Pattern, path string) string {
	switch p := pat.(type) {
	case *LiteralPattern:
		return path + " === " + literalPatternJS(p)
	case *ListPattern:
		var conds []string
		if p.Rest != nil {
			conds = append(conds, fmt.Sprintf("%s.length >= %d", path, len(p.Elements)))
		} else {
			conds = append(conds, fmt.Sprintf("%s.length === %d", path, len(p.Elements)))
		}
		for i, el := range p.Elements {
			sub := structuralTest(el, fmt.Sprintf("%s[%d]", path, i))
			if sub != "true" {
				conds = append(conds, sub)
			}
		}
		return strings.Join(conds, " && ")
	case *ConstructorPattern:
		return path + ".__tag === " + strconv.Quote(p.Name)
	default:
		return "true"
	}
}

func literalPatternJS(p *LiteralPattern) string {
	lit := &LiteralExpr{Kind: p.Kind, Value: p.Value}
	return (&Emitter{}).emitLiteral(lit)
}

// bindingsFor renders the `const name = <path>;` declarations a pattern
// introduces when matched against the value at path.
func bindingsFor(pat Pattern, path string) []string {
	var out []string
	switch p := pat.(type) {
	case *IdentPattern:
		out = append(out, fmt.Sprintf("const %s = %s;", renameIfReserved(p.Name), path))
	case *ListPattern:
		for i, el := range p.Elements {
			out = append(out, bindingsFor(el, fmt.Sprintf("%s[%d]", path, i))...)
		}
		if p.Rest != nil && p.Rest.Name != "" {
			out = append(out, fmt.Sprintf("const %s = %s.slice(%d);", renameIfReserved(p.Rest.Name), path, len(p.Elements)))
		}
	case *RecordPattern:
		for _, f := range p.Fields {
			fieldPath := fmt.Sprintf("%s.%s", path, f.Name)
			if f.Pattern != nil {
				out = append(out, bindingsFor(f.Pattern, fieldPath)...)
				continue
			}
			out = append(out, fmt.Sprintf("const %s = %s;", renameIfReserved(f.Name), fieldPath))
		}
	case *ConstructorPattern:
		if p.Record != nil {
			out = append(out, bindingsFor(p.Record, path)...)
		}
		if p.Arg != nil {
			out = append(out, bindingsFor(p.Arg, path+".value")...)
		}
	case *RestPattern:
		if p.Name != "" {
			out = append(out, fmt.Sprintf("const %s = %s;", renameIfReserved(p.Name), path))
		}
	}
	return out
}

// emitDoExpr lowers a do-block to an asynchronous self-invoking
// function: `do!` statements are awaited, bare expressions are evaluated
// for effect, and the last statement yields the block's value. The `do?`
// variant currently shares this same structural lowering (spec.md §4.4).
func (em *Emitter) emitDoExpr(de *DoExpr) string {
	var sb strings.Builder
	sb.WriteString("(async () => {\n")
	em.indent++
	for i, stmt := range de.Statements {
		last := i == len(de.Statements)-1
		for _, line := range em.doStatementLines(stmt, last) {
			sb.WriteString(em.indentStr())
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	em.indent--
	sb.WriteString(em.indentStr())
	sb.WriteString("})()")
	return sb.String()
}

func (em *Emitter) doStatementLines(stmt DoStatement, isLast bool) []string {
	valueJS := em.emitExpr(stmt.Value)
	if stmt.Kind == DoBang || stmt.Await {
		valueJS = "await " + valueJS
	}
	switch stmt.Kind {
	case DoLet:
		if ip, ok := stmt.Pattern.(*IdentPattern); ok {
			name := renameIfReserved(ip.Name)
			lines := []string{fmt.Sprintf("const %s = %s;", name, valueJS)}
			if isLast {
				lines = append(lines, fmt.Sprintf("return %s;", name))
			}
			return lines
		}
		tmp := em.freshName("__doBind")
		lines := []string{fmt.Sprintf("const %s = %s;", tmp, valueJS)}
		lines = append(lines, bindingsFor(stmt.Pattern, tmp)...)
		if isLast {
			lines = append(lines, fmt.Sprintf("return %s;", tmp))
		}
		return lines
	default: // DoBang, DoBare
		if isLast {
			return []string{fmt.Sprintf("return %s;", valueJS)}
		}
		return []string{valueJS + ";"}
	}
}

// emitProvideExpr lowers a provide-expression to a self-invoking block
// that binds each provision locally and evaluates the body in its scope
// (spec.md §4.4).
func (em *Emitter) emitProvideExpr(pe *ProvideExpr) string {
	var sb strings.Builder
	sb.WriteString("(() => {\n")
	em.indent++
	for _, prov := range pe.Provisions {
		sb.WriteString(em.indentStr())
		sb.WriteString(fmt.Sprintf("const %s = %s;\n", renameIfReserved(prov.Name), em.emitExpr(prov.Value)))
	}
	sb.WriteString(em.indentStr())
	sb.WriteString("return " + em.emitExpr(pe.Body) + ";\n")
	em.indent--
	sb.WriteString(em.indentStr())
	sb.WriteString("})()")
	return sb.String()
}

func (em *Emitter) emitBlockExpr(be *BlockExpr) string {
	var sb strings.Builder
	sb.WriteString("(() => {\n")
	em.indent++
	for _, stmt := range be.Statements {
		line := em.emitInnerStatement(stmt)
		if line == "" {
			continue
		}
		sb.WriteString(em.indentStr())
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if be.Trailing != nil {
		sb.WriteString(em.indentStr())
		sb.WriteString("return " + em.emitExpr(be.Trailing) + ";\n")
	}
	em.indent--
	sb.WriteString(em.indentStr())
	sb.WriteString("})()")
	return sb.String()
}

// ---- reserved-word rewriting ----

// jsReservedWords is the fixed target reserved-word set spec.md §9's
// collision rewrite guards against.
var jsReservedWords = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {},
	"else": {}, "export": {}, "extends": {}, "finally": {}, "for": {},
	"function": {}, "if": {}, "import": {}, "in": {}, "instanceof": {},
	"new": {}, "return": {}, "super": {}, "switch": {}, "this": {},
	"throw": {}, "try": {}, "typeof": {}, "var": {}, "void": {}, "while": {},
	"with": {}, "yield": {}, "let": {}, "static": {}, "enum": {},
	"await": {}, "implements": {}, "package": {}, "protected": {},
	"interface": {}, "private": {}, "public": {}, "null": {},
	"true": {}, "false": {},
}

// renameIfReserved applies spec.md §9's single, deterministic rewrite
// (underscore prefix) uniformly at definition and use sites; being a
// pure function of the name, every reference renders identically without
// needing a rename table threaded through emission.
func renameIfReserved(name string) string {
	if _, ok := jsReservedWords[name]; ok {
		return "_" + name
	}
	return name
}
