package lambdawg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Inferer runs Hindley-Milner inference over a Program: mutable
// type-variable instance slots, an occurs check, let-generalization at
// let-statement boundaries, and open-row records (spec.md §4.3).
// The type-variable counter is per-Inferer and therefore per-compilation
// (spec.md §3: "the counter is reset at the start of each type-check
// run"); grounded on the teacher's per-node Evaluate dispatch shape
// (parser_expression.go), here threaded through type-checking instead of
// template execution.
type Inferer struct {
	varCounter int
	types      map[Node]Type
	diags      bag
}

func newInferer() *Inferer {
	return &Inferer{types: map[Node]Type{}}
}

// inferProgram is the inferer's entry point.
func inferProgram(prog *Program) (map[Node]Type, []*Diagnostic) {
	inf := newInferer()
	env := newGlobalEnv()
	for _, mod := range prog.Modules {
		inf.inferStatements(mod.Statements, env.extend())
	}
	inf.inferStatements(prog.Statements, env)
	return inf.types, inf.diags.diagnostics
}

func (inf *Inferer) fresh() *TypeVar {
	id := inf.varCounter
	inf.varCounter++
	return &TypeVar{ID: id}
}

func (inf *Inferer) errorf(code string, span Span, format string, args ...any) {
	inf.diags.addf(SeverityError, code, format, span, args...)
}

// ---- prune / occurs check / unify ----

// prune follows a type variable's instance chain to its representative
// type, compressing the chain as it goes (spec.md §3, §9 "mutable
// type-variable cells ... in-place linking with path compression on
// prune").
func prune(t Type) Type {
	if tv, ok := t.(*TypeVar); ok && tv.Instance != nil {
		tv.Instance = prune(tv.Instance)
		return tv.Instance
	}
	return t
}

func occursCheck(id int, t Type) bool {
	switch v := prune(t).(type) {
	case *TypeVar:
		return v.ID == id
	case *TypeFunc:
		for _, p := range v.Params {
			if occursCheck(id, p) {
				return true
			}
		}
		return occursCheck(id, v.Return)
	case *TypeRecord:
		for _, ft := range v.Fields {
			if occursCheck(id, ft) {
				return true
			}
		}
		return false
	case *TypeList:
		return occursCheck(id, v.Element)
	case *TypeApp:
		for _, a := range v.Args {
			if occursCheck(id, a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// unify implements spec.md §4.3's unification contract. A failure
// reports a diagnostic at span and returns false; callers continue with
// whatever fresh variable they already had in hand rather than aborting
// (spec.md §7: "the inferer continues past a unification failure by
// leaving the offending site annotated with a fresh type variable").
func (inf *Inferer) unify(a, b Type, span Span) bool {
	pa, pb := prune(a), prune(b)

	if tva, ok := pa.(*TypeVar); ok {
		if tvb, ok := pb.(*TypeVar); ok && tva.ID == tvb.ID {
			return true
		}
		if occursCheck(tva.ID, pb) {
			inf.errorf(CodeInfiniteType, span, "infinite type: t%d occurs in %s", tva.ID, describeType(pb))
			return false
		}
		tva.Instance = pb
		return true
	}
	if tvb, ok := pb.(*TypeVar); ok {
		if occursCheck(tvb.ID, pa) {
			inf.errorf(CodeInfiniteType, span, "infinite type: t%d occurs in %s", tvb.ID, describeType(pa))
			return false
		}
		tvb.Instance = pa
		return true
	}

	switch va := pa.(type) {
	case *TypeConst:
		vb, ok := pb.(*TypeConst)
		if !ok || vb.Name != va.Name {
			inf.errorf(CodeTypeMismatch, span, "type mismatch: %s vs %s", describeType(pa), describeType(pb))
			return false
		}
		return true
	case *TypeFunc:
		vb, ok := pb.(*TypeFunc)
		if !ok {
			inf.errorf(CodeNotAFunction, span, "expected a function, found %s", describeType(pb))
			return false
		}
		if len(va.Params) != len(vb.Params) {
			inf.errorf(CodeWrongArity, span, "expected %d argument(s), found %d", len(va.Params), len(vb.Params))
			return false
		}
		ok2 := true
		for i := range va.Params {
			if !inf.unify(va.Params[i], vb.Params[i], span) {
				ok2 = false
			}
		}
		if !inf.unify(va.Return, vb.Return, span) {
			ok2 = false
		}
		return ok2
	case *TypeRecord:
		vb, ok := pb.(*TypeRecord)
		if !ok {
			inf.errorf(CodeTypeMismatch, span, "type mismatch: %s vs %s", describeType(pa), describeType(pb))
			return false
		}
		return inf.unifyRecords(va, vb, span)
	case *TypeList:
		vb, ok := pb.(*TypeList)
		if !ok {
			inf.errorf(CodeTypeMismatch, span, "type mismatch: %s vs %s", describeType(pa), describeType(pb))
			return false
		}
		return inf.unify(va.Element, vb.Element, span)
	case *TypeApp:
		vb, ok := pb.(*TypeApp)
		if !ok || vb.Name != va.Name || len(vb.Args) != len(va.Args) {
			inf.errorf(CodeTypeMismatch, span, "type mismatch: %s vs %s", describeType(pa), describeType(pb))
			return false
		}
		ok2 := true
		for i := range va.Args {
			if !inf.unify(va.Args[i], vb.Args[i], span) {
				ok2 = false
			}
		}
		return ok2
	default:
		inf.errorf(CodeInternal, span, "unrecognized type shape during unification")
		return false
	}
}

// unifyRecords unifies the intersection of two records' fields; a field
// missing from a closed side is an error, while a field missing from an
// open side extends that side's field map (spec.md §4.3, §9 "unifying an
// open record with a closed one extends the closed side").
func (inf *Inferer) unifyRecords(a, b *TypeRecord, span Span) bool {
	ok := true
	for name, ta := range a.Fields {
		tb, found := b.Fields[name]
		if !found {
			if b.Open {
				b.Fields[name] = ta
				continue
			}
			inf.errorf(CodeMissingField, span, "record is missing field %q", name)
			ok = false
			continue
		}
		if !inf.unify(ta, tb, span) {
			ok = false
		}
	}
	for name, tb := range b.Fields {
		if _, found := a.Fields[name]; found {
			continue
		}
		if a.Open {
			a.Fields[name] = tb
			continue
		}
		inf.errorf(CodeMissingField, span, "record is missing field %q", name)
		ok = false
	}
	return ok
}

// ---- generalize / instantiate ----

func (inf *Inferer) generalize(t Type, env *Env) Scheme {
	envFree := env.freeTypeVars()
	typeFree := freeVarsOf(t)
	var quantified []int
	for id := range typeFree {
		if _, bound := envFree[id]; !bound {
			quantified = append(quantified, id)
		}
	}
	sort.Ints(quantified)
	return Scheme{Quantified: quantified, Type: t}
}

func (inf *Inferer) instantiate(scheme Scheme) Type {
	if len(scheme.Quantified) == 0 {
		return scheme.Type
	}
	mapping := make(map[int]Type, len(scheme.Quantified))
	for _, id := range scheme.Quantified {
		mapping[id] = inf.fresh()
	}
	return substituteQuantified(scheme.Type, mapping)
}

func substituteQuantified(t Type, mapping map[int]Type) Type {
	switch v := prune(t).(type) {
	case *TypeVar:
		if nt, ok := mapping[v.ID]; ok {
			return nt
		}
		return v
	case *TypeFunc:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = substituteQuantified(p, mapping)
		}
		return &TypeFunc{Params: params, Return: substituteQuantified(v.Return, mapping)}
	case *TypeRecord:
		fields := make(map[string]Type, len(v.Fields))
		for name, ft := range v.Fields {
			fields[name] = substituteQuantified(ft, mapping)
		}
		return &TypeRecord{Fields: fields, Open: v.Open}
	case *TypeList:
		return &TypeList{Element: substituteQuantified(v.Element, mapping)}
	case *TypeApp:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteQuantified(a, mapping)
		}
		return &TypeApp{Name: v.Name, Args: args}
	default:
		return t
	}
}

// describeType renders a type for diagnostic messages.
func describeType(t Type) string {
	switch v := prune(t).(type) {
	case *TypeVar:
		return fmt.Sprintf("t%d", v.ID)
	case *TypeConst:
		return v.Name
	case *TypeFunc:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = describeType(p)
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + describeType(v.Return)
	case *TypeRecord:
		names := lo.Keys(v.Fields)
		sort.Strings(names)
		return "{" + strings.Join(names, ", ") + "}"
	case *TypeList:
		return "[" + describeType(v.Element) + "]"
	case *TypeApp:
		return v.Name
	default:
		return "?"
	}
}

// ---- statements ----

func (inf *Inferer) inferStatements(stmts []Statement, env *Env) {
	for _, stmt := range stmts {
		inf.inferStatement(stmt, env)
	}
}

func (inf *Inferer) inferStatement(stmt Statement, env *Env) {
	switch s := stmt.(type) {
	case *LetStatement:
		inf.inferLetStatement(s, env)
	case *TypeDefStatement:
		// Type declarations are structural only; nothing to unify.
	case *ImportStatement:
		// No cross-module resolution in this core (spec.md §1 non-goals).
	case *ExpressionStatement:
		t := inf.inferExpr(s.Expr, env)
		inf.types[s] = t
	}
}

// inferLetStatement resolves spec.md §9's recursion open question as
// monomorphic self-reference: the binder is added to the child scope as
// an unquantified scheme bound to a fresh variable before its value is
// inferred, then unified with the inferred type and generalized on exit.
func (inf *Inferer) inferLetStatement(s *LetStatement, env *Env) {
	bodyEnv := env
	if len(s.Ambients) > 0 {
		bodyEnv = env.extend()
		for _, amb := range s.Ambients {
			var t Type
			if amb.Type != nil {
				t = resolveTypeExpr(amb.Type, map[string]*TypeVar{}, inf.fresh)
			} else {
				t = inf.fresh()
			}
			bodyEnv.define(amb.Name, monoScheme(t))
		}
	}
	if bodyEnv == env {
		bodyEnv = env.extend()
	}

	selfVar := inf.fresh()
	bodyEnv.define(s.Name, monoScheme(selfVar))

	valueType := inf.inferExpr(s.Value, bodyEnv)
	inf.unify(selfVar, valueType, s.Value.Span())
	finalType := prune(selfVar)

	if s.TypeAnn != nil {
		annType := resolveTypeExpr(s.TypeAnn, map[string]*TypeVar{}, inf.fresh)
		inf.unify(finalType, annType, s.TypeAnn.Span())
		finalType = prune(annType)
	}

	env.define(s.Name, inf.generalize(finalType, env))
	inf.types[s] = finalType
}

// ---- expressions ----

func (inf *Inferer) inferExpr(e Expr, env *Env) Type {
	var t Type
	switch v := e.(type) {
	case *LiteralExpr:
		t = literalConstType(v.Kind)
	case *IdentExpr:
		t = inf.inferIdent(v, env)
	case *PlaceholderExpr:
		t = inf.fresh()
	case *SpreadExpr:
		t = inf.inferExpr(v.Value, env)
	case *ListExpr:
		t = inf.inferListExpr(v, env)
	case *RecordExpr:
		t = inf.inferRecordExpr(v, env)
	case *ConstructorExpr:
		t = inf.inferConstructorExpr(v, env)
	case *FuncExpr:
		t = inf.inferFuncExpr(v, env)
	case *CallExpr:
		t = inf.inferCallExpr(v, env)
	case *MemberExpr:
		t = inf.inferMemberExpr(v, env)
	case *IndexExpr:
		t = inf.inferIndexExpr(v, env)
	case *UnaryExpr:
		t = inf.inferUnaryExpr(v, env)
	case *BinaryExpr:
		t = inf.inferBinaryExpr(v, env)
	case *ErrorPropagationExpr:
		// Open question (spec.md §9): passes the operand's type through
		// unchanged rather than constraining it to a Result type.
		t = inf.inferExpr(v.Operand, env)
	case *PipelineExpr:
		t = inf.inferPipelineExpr(v, env)
	case *IfExpr:
		t = inf.inferIfExpr(v, env)
	case *MatchExpr:
		t = inf.inferMatchExpr(v, env)
	case *DoExpr:
		t = inf.inferDoExpr(v, env)
	case *ProvideExpr:
		t = inf.inferProvideExpr(v, env)
	case *BlockExpr:
		t = inf.inferBlockExpr(v, env)
	default:
		t = inf.fresh()
	}
	inf.types[e] = t
	return t
}

func literalConstType(kind LiteralKind) Type {
	switch kind {
	case LitInt:
		return typeInt
	case LitFloat:
		return typeFloat
	case LitString:
		return typeString
	case LitChar:
		return typeChar
	case LitBool:
		return typeBool
	default:
		return typeUnit
	}
}

func (inf *Inferer) inferIdent(id *IdentExpr, env *Env) Type {
	scheme, ok := env.lookup(id.Name)
	if !ok {
		inf.errorf(CodeUndefinedVariable, id.Span(), "undefined variable %q", id.Name)
		return inf.fresh()
	}
	return inf.instantiate(scheme)
}

func (inf *Inferer) inferListExpr(le *ListExpr, env *Env) Type {
	elem := Type(inf.fresh())
	for _, e := range le.Elements {
		if sp, ok := e.(*SpreadExpr); ok {
			spreadType := inf.inferExpr(sp.Value, env)
			inf.types[sp] = spreadType
			listElem := inf.fresh()
			inf.unify(spreadType, &TypeList{Element: listElem}, sp.Span())
			inf.unify(elem, listElem, sp.Span())
			continue
		}
		inf.unify(elem, inf.inferExpr(e, env), e.Span())
	}
	return &TypeList{Element: elem}
}

// inferRecordExpr merges a spread's fields first, then lets explicit
// fields override them (spec.md §4.3 "a spread's fields are merged first
// and then overridden by explicit fields").
func (inf *Inferer) inferRecordExpr(re *RecordExpr, env *Env) Type {
	fields := map[string]Type{}
	if re.Spread != nil {
		spreadType := inf.inferExpr(re.Spread, env)
		if rec, ok := prune(spreadType).(*TypeRecord); ok {
			for name, ft := range rec.Fields {
				fields[name] = ft
			}
		}
	}
	for _, f := range re.Fields {
		fields[f.Name] = inf.inferExpr(f.Value, env)
	}
	return &TypeRecord{Fields: fields, Open: false}
}

// inferConstructorExpr has no explicit contract in spec.md §4.3 (the
// spec's representative-contracts list omits constructor literals); it
// is treated as the record-literal contract plus a type-level tag naming
// the constructor, matching how emit.go lowers it to a call on the
// constructor's bound name with the record as its sole argument.
func (inf *Inferer) inferConstructorExpr(ce *ConstructorExpr, env *Env) Type {
	fields := map[string]Type{}
	if ce.Spread != nil {
		spreadType := inf.inferExpr(ce.Spread, env)
		if rec, ok := prune(spreadType).(*TypeRecord); ok {
			for name, ft := range rec.Fields {
				fields[name] = ft
			}
		}
	}
	for _, f := range ce.Fields {
		fields[f.Name] = inf.inferExpr(f.Value, env)
	}
	return &TypeApp{Name: ce.Name, Args: []Type{&TypeRecord{Fields: fields, Open: false}}}
}

func (inf *Inferer) inferFuncExpr(fe *FuncExpr, env *Env) Type {
	child := env.extend()
	params := make([]Type, len(fe.Params))
	for i, pat := range fe.Params {
		params[i] = inf.bindPatternFresh(pat, child)
	}
	body := inf.inferExpr(fe.Body, child)
	return &TypeFunc{Params: params, Return: body}
}

// inferCallExpr implements both call shapes spec.md §4.3 distinguishes:
// an ordinary application, and a partial application when any argument
// is a placeholder (spec.md §9 "Placeholder partial application").
func (inf *Inferer) inferCallExpr(ce *CallExpr, env *Env) Type {
	calleeType := inf.inferExpr(ce.Callee, env)

	if ce.HasPlaceholder() {
		filled := make([]Type, len(ce.Args))
		var placeholders []Type
		for i, a := range ce.Args {
			if ph, ok := a.(*PlaceholderExpr); ok {
				fv := inf.fresh()
				inf.types[ph] = fv
				filled[i] = fv
				placeholders = append(placeholders, fv)
				continue
			}
			filled[i] = inf.inferExpr(a, env)
		}
		result := inf.fresh()
		inf.unify(calleeType, &TypeFunc{Params: filled, Return: result}, ce.Span())
		return &TypeFunc{Params: placeholders, Return: result}
	}

	args := make([]Type, len(ce.Args))
	for i, a := range ce.Args {
		args[i] = inf.inferExpr(a, env)
	}
	result := inf.fresh()
	inf.unify(calleeType, &TypeFunc{Params: args, Return: result}, ce.Span())
	return result
}

func (inf *Inferer) inferMemberExpr(me *MemberExpr, env *Env) Type {
	objType := inf.inferExpr(me.Object, env)
	if rec, ok := prune(objType).(*TypeRecord); ok && !rec.Open {
		if ft, found := rec.Fields[me.Field]; found {
			return ft
		}
		inf.errorf(CodeMissingField, me.Span(), "record has no field %q", me.Field)
		return inf.fresh()
	}
	result := inf.fresh()
	inf.unify(objType, &TypeRecord{Fields: map[string]Type{me.Field: result}, Open: true}, me.Span())
	return result
}

func (inf *Inferer) inferIndexExpr(ie *IndexExpr, env *Env) Type {
	objType := inf.inferExpr(ie.Object, env)
	idxType := inf.inferExpr(ie.Index, env)
	inf.unify(idxType, typeInt, ie.Index.Span())
	elem := inf.fresh()
	inf.unify(objType, &TypeList{Element: elem}, ie.Span())
	return elem
}

func (inf *Inferer) inferUnaryExpr(ue *UnaryExpr, env *Env) Type {
	operand := inf.inferExpr(ue.Operand, env)
	if ue.Op == "!" {
		inf.unify(operand, typeBool, ue.Span())
		return typeBool
	}
	return operand
}

func (inf *Inferer) inferBinaryExpr(be *BinaryExpr, env *Env) Type {
	left := inf.inferExpr(be.Left, env)
	right := inf.inferExpr(be.Right, env)
	switch be.Op {
	case "&&", "||":
		inf.unify(left, typeBool, be.Span())
		inf.unify(right, typeBool, be.Span())
		return typeBool
	case "==", "!=", "<", ">", "<=", ">=":
		inf.unify(left, right, be.Span())
		return typeBool
	default: // + - * / %
		inf.unify(left, right, be.Span())
		return prune(left)
	}
}

// inferPipelineExpr implements spec.md §9's pipeline/partial-application
// reconciliation: infer the right-hand expression first, then unify the
// left with its *last* parameter.
func (inf *Inferer) inferPipelineExpr(pe *PipelineExpr, env *Env) Type {
	rightType := inf.inferExpr(pe.Right, env)
	leftType := inf.inferExpr(pe.Left, env)
	if fn, ok := prune(rightType).(*TypeFunc); ok && len(fn.Params) > 0 {
		inf.unify(leftType, fn.Params[len(fn.Params)-1], pe.Span())
		return fn.Return
	}
	result := inf.fresh()
	inf.unify(rightType, &TypeFunc{Params: []Type{leftType}, Return: result}, pe.Span())
	return result
}

func (inf *Inferer) inferIfExpr(ie *IfExpr, env *Env) Type {
	condType := inf.inferExpr(ie.Cond, env)
	inf.unify(condType, typeBool, ie.Cond.Span())
	thenType := inf.inferExpr(ie.Then, env)
	elseType := inf.inferExpr(ie.Else, env)
	inf.unify(thenType, elseType, ie.Span())
	return thenType
}

func (inf *Inferer) inferMatchExpr(me *MatchExpr, env *Env) Type {
	subjectType := inf.inferExpr(me.Subject, env)
	var result Type
	for i, arm := range me.Arms {
		child := env.extend()
		inf.bindPatternAgainst(arm.Pattern, subjectType, child)
		if arm.Guard != nil {
			guardType := inf.inferExpr(arm.Guard, child)
			inf.unify(guardType, typeBool, arm.Guard.Span())
		}
		bodyType := inf.inferExpr(arm.Body, child)
		if i == 0 {
			result = bodyType
			continue
		}
		inf.unify(result, bodyType, arm.Body.Span())
	}
	if result == nil {
		result = inf.fresh()
	}
	return result
}

func (inf *Inferer) inferDoExpr(de *DoExpr, env *Env) Type {
	child := env.extend()
	last := Type(typeUnit)
	for _, stmt := range de.Statements {
		if stmt.Kind == DoLet {
			vt := inf.inferExpr(stmt.Value, child)
			inf.bindPatternAgainst(stmt.Pattern, vt, child)
			last = vt
			continue
		}
		last = inf.inferExpr(stmt.Value, child)
	}
	return last
}

func (inf *Inferer) inferProvideExpr(pe *ProvideExpr, env *Env) Type {
	child := env.extend()
	for _, prov := range pe.Provisions {
		child.define(prov.Name, monoScheme(inf.inferExpr(prov.Value, env)))
	}
	return inf.inferExpr(pe.Body, child)
}

func (inf *Inferer) inferBlockExpr(be *BlockExpr, env *Env) Type {
	child := env.extend()
	inf.inferStatements(be.Statements, child)
	if be.Trailing != nil {
		return inf.inferExpr(be.Trailing, child)
	}
	return typeUnit
}

// ---- pattern binding ----

// bindPatternFresh binds pat's captures in env against a newly allocated
// expected type, used where no subject type already exists (function
// parameters).
func (inf *Inferer) bindPatternFresh(pat Pattern, env *Env) Type {
	expected := inf.fresh()
	inf.bindPatternAgainst(pat, expected, env)
	return expected
}

// bindPatternAgainst binds pat's captures in env against an already-known
// expected type (spec.md §4.3 "Pattern binding").
func (inf *Inferer) bindPatternAgainst(pat Pattern, expected Type, env *Env) {
	switch p := pat.(type) {
	case *IdentPattern:
		env.define(p.Name, monoScheme(expected))
	case *LiteralPattern:
		inf.unify(expected, literalConstType(p.Kind), p.Span())
	case *WildcardPattern:
		// unconstrained
	case *ListPattern:
		elem := inf.fresh()
		inf.unify(expected, &TypeList{Element: elem}, p.Span())
		for _, el := range p.Elements {
			inf.bindPatternAgainst(el, elem, env)
		}
		if p.Rest != nil && p.Rest.Name != "" {
			env.define(p.Rest.Name, monoScheme(&TypeList{Element: elem}))
		}
	case *RecordPattern:
		fields := map[string]Type{}
		for _, f := range p.Fields {
			ft := inf.fresh()
			fields[f.Name] = ft
			if f.Pattern != nil {
				inf.bindPatternAgainst(f.Pattern, ft, env)
				continue
			}
			env.define(f.Name, monoScheme(ft))
		}
		inf.unify(expected, &TypeRecord{Fields: fields, Open: true}, p.Span())
	case *ConstructorPattern:
		// Mirrors inferConstructorExpr's shape (TypeApp{Name, Args:
		// [payload]}) so a destructured field is unified against the
		// subject's actual payload type instead of a fresh, disconnected
		// variable.
		var payload Type
		switch {
		case p.Record != nil:
			fields := map[string]Type{}
			for _, f := range p.Record.Fields {
				ft := inf.fresh()
				fields[f.Name] = ft
				if f.Pattern != nil {
					inf.bindPatternAgainst(f.Pattern, ft, env)
					continue
				}
				env.define(f.Name, monoScheme(ft))
			}
			payload = &TypeRecord{Fields: fields, Open: true}
		case p.Arg != nil:
			payload = inf.fresh()
			inf.bindPatternAgainst(p.Arg, payload, env)
		}
		if payload != nil {
			inf.unify(expected, &TypeApp{Name: p.Name, Args: []Type{payload}}, p.Span())
		} else {
			inf.unify(expected, &TypeApp{Name: p.Name}, p.Span())
		}
	case *RestPattern:
		if p.Name != "" {
			env.define(p.Name, monoScheme(expected))
		}
	}
}
