package bindgen

import (
	"fmt"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

// RequiredBuiltins lists the names generated code expects the builtin
// runtime package to declare.
func RequiredBuiltins(ctx *Context) []string {
	builtinPath := ctx.Packages().Builtin
	need := map[string]bool{"Variant": true}
	var visit func(Ty)
	visit = func(t Ty) {
		switch t := t.(type) {
		case BuiltinIdent:
			if t.Path == builtinPath && !primitiveBuiltins[t.Name] {
				need[t.Name] = true
			}
		case BuiltinArray:
			need["TypedArray"] = true
			visit(t.Elem)
		case EngineArray:
			need["TypedArray"] = true
		}
	}
	for _, ty := range ctx.types {
		visit(ty)
	}
	for _, b := range generatedBuiltins(ctx, false) {
		if !primitiveBuiltins[b.Name] {
			need[b.Name] = true
		}
	}

	out := make([]string, 0, len(need))
	for name := range need {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CheckRuntimePackage loads the builtin runtime package from dir and returns
// the required names it does not declare as types.
func CheckRuntimePackage(dir string, ctx *Context) ([]string, error) {
	importPath := ctx.Packages().Builtin
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", importPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkgs[0].Errors)
	}
	pkg := pkgs[0]
	if pkg.Types == nil {
		return nil, fmt.Errorf("type information not available for %s", importPath)
	}

	scope := pkg.Types.Scope()
	var missing []string
	for _, name := range RequiredBuiltins(ctx) {
		if _, ok := scope.Lookup(name).(*types.TypeName); !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
