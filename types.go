package lambdawg

import "github.com/samber/lo"

// Type is the closed family of static types the inferer produces
// (spec.md §3): a type variable with a mutable instance slot, a named
// constant, a function, a record (open or closed), a list, or a generic
// application.
type Type interface {
	typeNode()
}

// TypeVar is an as-yet-unresolved type variable. Instance is nil while
// unbound; unification fills it in, and pruning follows the chain.
// Ids are unique within one compilation (spec.md §3 "the counter is
// reset at the start of each type-check run").
type TypeVar struct {
	ID       int
	Instance Type // nil if unbound
	Name     string // optional display name, e.g. for a surface "a"
}

func (*TypeVar) typeNode() {}

// TypeConst is a named nullary constant: Int, Float, String, Char, Bool,
// Unit.
type TypeConst struct {
	Name string
}

func (*TypeConst) typeNode() {}

var (
	typeInt    = &TypeConst{Name: "Int"}
	typeFloat  = &TypeConst{Name: "Float"}
	typeString = &TypeConst{Name: "String"}
	typeChar   = &TypeConst{Name: "Char"}
	typeBool   = &TypeConst{Name: "Bool"}
	typeUnit   = &TypeConst{Name: "Unit"}
)

// TypeFunc is a function type: a parameter vector and a return type.
type TypeFunc struct {
	Params []Type
	Return Type
}

func (*TypeFunc) typeNode() {}

// TypeRecord is a field->type map. Open marks a row-polymorphic "has at
// least these fields" constraint (spec.md §3).
type TypeRecord struct {
	Fields map[string]Type
	Open   bool
}

func (*TypeRecord) typeNode() {}

// TypeList is a homogeneous list of Element.
type TypeList struct {
	Element Type
}

func (*TypeList) typeNode() {}

// TypeApp is a generic type application: a named constructor applied to
// argument types, e.g. `Option a`.
type TypeApp struct {
	Name string
	Args []Type
}

func (*TypeApp) typeNode() {}

// Scheme pairs a set of quantified type-variable ids with a type; it is
// the shape every environment binding carries, generalized or not
// (spec.md §3: "A type scheme pairs a set of quantified variable ids
// with a type.").
type Scheme struct {
	Quantified []int
	Type       Type
}

// monoScheme wraps a bare type with no quantified variables, used for
// monomorphic bindings (function parameters, pattern captures, ambient
// provisions — spec.md §4.3).
func monoScheme(t Type) Scheme {
	return Scheme{Type: t}
}

// Env is a linked-scope environment mapping names to schemes: lookup
// walks outward to parent scopes, extend creates a child that can shadow
// without mutating the parent. Grounded on the teacher's
// ExecutionContext/NewChildExecutionContext parent-chain scoping
// (context.go), reused here for type schemes instead of runtime values.
type Env struct {
	parent *Env
	vars   map[string]Scheme
}

// newGlobalEnv builds the root environment pre-populated with the
// built-in combinator schemes (spec.md §4.3).
func newGlobalEnv() *Env {
	e := &Env{vars: map[string]Scheme{}}
	for name, scheme := range builtinSchemes() {
		e.vars[name] = scheme
	}
	return e
}

func (e *Env) extend() *Env {
	return &Env{parent: e, vars: map[string]Scheme{}}
}

func (e *Env) define(name string, scheme Scheme) {
	e.vars[name] = scheme
}

func (e *Env) lookup(name string) (Scheme, bool) {
	for env := e; env != nil; env = env.parent {
		if s, ok := env.vars[name]; ok {
			return s, true
		}
	}
	return Scheme{}, false
}

// freeTypeVars returns every free type-variable id reachable from this
// environment's bindings (spec.md §4.3's `free_type_vars`), used by
// generalize to decide which ids a let-binding's scheme may quantify.
func (e *Env) freeTypeVars() map[int]struct{} {
	out := map[int]struct{}{}
	for env := e; env != nil; env = env.parent {
		for _, scheme := range env.vars {
			quantified := map[int]struct{}{}
			for _, id := range scheme.Quantified {
				quantified[id] = struct{}{}
			}
			for id := range freeVarsOf(scheme.Type) {
				if _, isQuantified := quantified[id]; !isQuantified {
					out[id] = struct{}{}
				}
			}
		}
	}
	return out
}

// freeVarsOf collects every unbound type-variable id reachable from t,
// pruning instance chains as it walks.
func freeVarsOf(t Type) map[int]struct{} {
	out := map[int]struct{}{}
	collectFreeVars(t, out)
	return out
}

func collectFreeVars(t Type, out map[int]struct{}) {
	switch v := prune(t).(type) {
	case *TypeVar:
		out[v.ID] = struct{}{}
	case *TypeFunc:
		for _, p := range v.Params {
			collectFreeVars(p, out)
		}
		collectFreeVars(v.Return, out)
	case *TypeRecord:
		for _, name := range lo.Keys(v.Fields) {
			collectFreeVars(v.Fields[name], out)
		}
	case *TypeList:
		collectFreeVars(v.Element, out)
	case *TypeApp:
		for _, a := range v.Args {
			collectFreeVars(a, out)
		}
	}
}

// builtinSchemes is the global scope's starting content (spec.md §4.3):
// map, filter, fold, sum, length, show, identity, head, tail, tap.
// Each call builds fresh type variables so repeated lookups never share
// mutable state.
func builtinSchemes() map[string]Scheme {
	return map[string]Scheme{
		"map":      schemeMap(),
		"filter":   schemeFilter(),
		"fold":     schemeFold(),
		"sum":      monoScheme(&TypeFunc{Params: []Type{&TypeList{Element: typeInt}}, Return: typeInt}),
		"length":   schemeLength(),
		"show":     schemeShow(),
		"identity": schemeIdentity(),
		"head":     schemeHead(),
		"tail":     schemeTail(),
		"tap":      schemeTap(),
	}
}

func newSchemeVar(id int) *TypeVar { return &TypeVar{ID: id} }

// schemeMap : (a -> b, List a) -> List b
func schemeMap() Scheme {
	a, b := newSchemeVar(-1), newSchemeVar(-2)
	t := &TypeFunc{
		Params: []Type{
			&TypeFunc{Params: []Type{a}, Return: b},
			&TypeList{Element: a},
		},
		Return: &TypeList{Element: b},
	}
	return Scheme{Quantified: []int{-1, -2}, Type: t}
}

// schemeFilter : (a -> Bool, List a) -> List a
func schemeFilter() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{
		Params: []Type{
			&TypeFunc{Params: []Type{a}, Return: typeBool},
			&TypeList{Element: a},
		},
		Return: &TypeList{Element: a},
	}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeFold : ((b, a) -> b, b, List a) -> b
//
// spec.md §4.3 gives the fold signature as `(b,a→b, b, List a) → b`
// (the accumulator function, the seed, then the list); the parameter
// order below follows that text exactly.
func schemeFold() Scheme {
	a, b := newSchemeVar(-1), newSchemeVar(-2)
	t := &TypeFunc{
		Params: []Type{
			&TypeFunc{Params: []Type{b, a}, Return: b},
			b,
			&TypeList{Element: a},
		},
		Return: b,
	}
	return Scheme{Quantified: []int{-1, -2}, Type: t}
}

// schemeLength : List a -> Int
func schemeLength() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{Params: []Type{&TypeList{Element: a}}, Return: typeInt}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeShow : a -> String
func schemeShow() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{Params: []Type{a}, Return: typeString}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeIdentity : a -> a
func schemeIdentity() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{Params: []Type{a}, Return: a}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeHead : List a -> Option a
func schemeHead() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{Params: []Type{&TypeList{Element: a}}, Return: &TypeApp{Name: "Option", Args: []Type{a}}}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeTail : List a -> Option (List a)
func schemeTail() Scheme {
	a := newSchemeVar(-1)
	list := &TypeList{Element: a}
	t := &TypeFunc{Params: []Type{list}, Return: &TypeApp{Name: "Option", Args: []Type{list}}}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// schemeTap : (a -> Unit, a) -> a
func schemeTap() Scheme {
	a := newSchemeVar(-1)
	t := &TypeFunc{
		Params: []Type{
			&TypeFunc{Params: []Type{a}, Return: typeUnit},
			a,
		},
		Return: a,
	}
	return Scheme{Quantified: []int{-1}, Type: t}
}

// resolveTypeExpr turns a parsed TypeExpr (surface syntax) into a Type,
// used when a let-statement or one of its ambient parameters carries an
// explicit annotation; type-def statements are not resolved.
// Lowercase names and previously-seen type-parameter names map to the
// same TypeVar so `(a, a) -> a` shares one variable across positions.
func resolveTypeExpr(te TypeExpr, vars map[string]*TypeVar, freshVar func() *TypeVar) Type {
	switch v := te.(type) {
	case *NamedTypeExpr:
		if tv, ok := vars[v.Name]; ok {
			return tv
		}
		if isLowerName(v.Name) {
			tv := freshVar()
			vars[v.Name] = tv
			return tv
		}
		if c, ok := builtinConstants[v.Name]; ok {
			return c
		}
		return &TypeApp{Name: v.Name}
	case *FuncTypeExpr:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = resolveTypeExpr(p, vars, freshVar)
		}
		return &TypeFunc{Params: params, Return: resolveTypeExpr(v.Return, vars, freshVar)}
	case *RecordTypeExpr:
		fields := make(map[string]Type, len(v.Fields))
		for _, f := range v.Fields {
			if f.Type == nil {
				fields[f.Name] = freshVar()
				continue
			}
			fields[f.Name] = resolveTypeExpr(f.Type, vars, freshVar)
		}
		return &TypeRecord{Fields: fields, Open: v.Open}
	case *ListTypeExpr:
		return &TypeList{Element: resolveTypeExpr(v.Element, vars, freshVar)}
	case *AppTypeExpr:
		args := make([]Type, len(v.Args))
		for i, a := range v.Args {
			args[i] = resolveTypeExpr(a, vars, freshVar)
		}
		return &TypeApp{Name: v.Name, Args: args}
	case *ParenTypeExpr:
		return resolveTypeExpr(v.Inner, vars, freshVar)
	default:
		return freshVar()
	}
}

var builtinConstants = map[string]*TypeConst{
	"Int": typeInt, "Float": typeFloat, "String": typeString,
	"Char": typeChar, "Bool": typeBool, "Unit": typeUnit,
}

func isLowerName(s string) bool {
	if s == "" {
		return false
	}
	r := rune(s[0])
	return r >= 'a' && r <= 'z'
}
