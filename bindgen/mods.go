package bindgen

import (
	"github.com/dave/jennifer/jen"
)

// GenerateSysMod emits sys/mod.go. Stubs hold the package doc only.
func GenerateSysMod(ctx *Context, stubs bool) OutputFile {
	pkgs := ctx.Packages()
	f := newFile(pkgs, pkgs.Sys, "sys")
	f.PackageComment("Package sys holds the engine's raw layouts, entry points and global enums.")
	if !stubs {
		h := ctx.API().Header
		f.Comment("EngineVersion is the engine build the bindings were generated from.")
		f.Const().Id("EngineVersion").Op("=").Lit(h.FullName)
	}
	return OutputFile{Path: "mod.go", File: f}
}

// GenerateCoreMod emits core/mod.go, re-exporting every generated class.
func GenerateCoreMod(ctx *Context, stubs bool) OutputFile {
	pkgs := ctx.Packages()
	f := newFile(pkgs, pkgs.Core, "core")
	f.PackageComment("Package core is the typed Go surface over the engine API.")
	if stubs {
		return OutputFile{Path: "mod.go", File: f}
	}

	classes := ctx.SelectedClasses()
	if len(classes) > 0 {
		f.Type().DefsFunc(func(g *jen.Group) {
			for _, cls := range classes {
				g.Id(cls.Name).Op("=").Qual(pkgs.Classes(), cls.Name)
			}
		})
	}
	return OutputFile{Path: "mod.go", File: f}
}

// GenerateClassesMod emits classes/mod.go with the class registry: each
// class's nearest generated ancestor and the generated names in
// declaration order.
func GenerateClassesMod(ctx *Context, stubs bool) OutputFile {
	pkgs := ctx.Packages()
	f := newFile(pkgs, pkgs.Classes(), "classes")
	f.PackageComment("Package classes wraps the engine classes.")
	if stubs {
		return OutputFile{Path: "classes/mod.go", File: f}
	}

	classes := ctx.SelectedClasses()
	f.Comment("Inherits maps each class to its nearest generated ancestor.")
	f.Var().Id("Inherits").Op("=").Map(jen.String()).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, cls := range classes {
			if base := ctx.Base(cls.Name); base != "" {
				d[jen.Lit(cls.Name)] = jen.Lit(base)
			}
		}
	}))
	f.Line()
	f.Comment("ClassNames lists the generated classes in declaration order.")
	f.Var().Id("ClassNames").Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, cls := range classes {
			g.Lit(cls.Name)
		}
	})
	return OutputFile{Path: "classes/mod.go", File: f}
}
