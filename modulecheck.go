package lambdawg

import "fmt"

// checkModuleDiagnostics cross-checks Program.Modules and every
// ImportStatement against each other, producing the M001-M003 module
// diagnostics (SPEC_FULL.md §6: "produced by the driver after parsing,
// cross-checking Program.Modules and Import statements against each
// other, before inference runs"). Grounded on the teacher's
// tags_import.go, which resolves an imported name against the target
// template's exportedMacros map and reports "not found (or not
// exported)" when the lookup misses; here the target is a sibling
// `module` block's non-private let-bindings instead of a macro table.
func checkModuleDiagnostics(prog *Program) []*Diagnostic {
	var diags []*Diagnostic

	seen := map[string]bool{}
	exports := map[string]map[string]bool{}
	for _, mod := range prog.Modules {
		if seen[mod.Name] {
			diags = append(diags, newDiagnostic(SeverityError, CodeDuplicateModule,
				fmt.Sprintf("duplicate module name %q", mod.Name), mod.Span()))
			continue
		}
		seen[mod.Name] = true
		exports[mod.Name] = moduleExportedNames(mod)
	}

	checkImports := func(stmts []Statement) {
		for _, stmt := range stmts {
			imp, ok := stmt.(*ImportStatement)
			// An `import js` names an external JS module, which has no
			// Program.Modules entry to check against (spec.md §1 non-goals).
			if !ok || imp.JS {
				continue
			}
			names, known := exports[imp.Module]
			if !known {
				diags = append(diags, newDiagnostic(SeverityError, CodeUnknownModule,
					fmt.Sprintf("unknown module %q", imp.Module), imp.Span()))
				continue
			}
			if imp.Star {
				continue
			}
			for _, n := range imp.Names {
				if !names[n.Name] {
					diags = append(diags, newDiagnostic(SeverityError, CodeUnknownImport,
						fmt.Sprintf("binding %q not found (or not exported) in module %q", n.Name, imp.Module), imp.Span()))
				}
			}
		}
	}

	checkImports(prog.Statements)
	for _, mod := range prog.Modules {
		checkImports(mod.Statements)
	}
	return diags
}

// moduleExportedNames collects a module's non-private let-bindings, the
// same export set emit.go's emitModule binds into its returned record.
func moduleExportedNames(mod *Module) map[string]bool {
	names := map[string]bool{}
	for _, stmt := range mod.Statements {
		if ls, ok := stmt.(*LetStatement); ok && !ls.Private {
			names[ls.Name] = true
		}
	}
	return names
}
