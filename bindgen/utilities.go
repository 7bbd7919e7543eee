package bindgen

import (
	"github.com/dave/jennifer/jen"
)

// GenerateUtilitiesFile emits core/utilities.go with one function per
// engine utility.
func GenerateUtilitiesFile(ctx *Context) OutputFile {
	pkgs := ctx.Packages()
	f := newFile(pkgs, pkgs.Core, "core")
	names := planCore(ctx).names

	for _, u := range ctx.API().Utilities {
		if ctx.Exceptions().SkipsMethod("", u.Name) {
			log.Debugf("utility %s skipped by exception table", u.Name)
			continue
		}
		if !u.HasHash {
			log.Warningf("utility %s has no hash; skipped", u.Name)
			continue
		}
		params, ret := ctx.Signature("", u.Name, u.Params, u.Return)
		if ctx.IsExcluded(params, ret) {
			log.Debugf("utility %s references an unselected class; skipped", u.Name)
			continue
		}

		fn := names.unique(ctx.GoName("", u.Name))
		bind := names.unique("util" + fn)
		f.Var().Id(bind).Op("=").Qual(pkgs.FFI, "UtilityFunction").Call(jen.Lit(u.Name), jen.Id(intLit(u.Hash)))
		f.Line()

		w := newWrapper(ctx, funcScope(localRet, localExtra, localIndex, localArgs), params, ret, u.IsVararg)
		f.Commentf("%s wraps the %s utility function.%s", fn, u.Name, defaultsNote(params))
		f.Func().Id(fn).Params(w.Params()...).Add(w.Result()).Block(
			w.Body("CallUtility", jen.Id(bind))...,
		)
		f.Line()
	}

	return OutputFile{Path: "utilities.go", File: f}
}
