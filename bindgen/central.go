package bindgen

import (
	"strings"

	"github.com/chazu/gdbind/extapi"
	"github.com/dave/jennifer/jen"
)

var (
	arch64 = []string{"amd64", "arm64", "loong64", "mips64", "mips64le", "ppc64", "ppc64le", "riscv64", "s390x", "wasm"}
	arch32 = []string{"386", "arm", "mips", "mipsle"}
)

// operatorNames maps operator symbols to their Variant.Operator index and
// the Go name used in method table fields.
var operatorNames = map[string]struct {
	index int32
	name  string
}{
	"==":     {0, "Equal"},
	"!=":     {1, "NotEqual"},
	"<":      {2, "Less"},
	"<=":     {3, "LessEqual"},
	">":      {4, "Greater"},
	">=":     {5, "GreaterEqual"},
	"+":      {6, "Add"},
	"-":      {7, "Subtract"},
	"*":      {8, "Multiply"},
	"/":      {9, "Divide"},
	"unary-": {10, "Negate"},
	"unary+": {11, "Positive"},
	"%":      {12, "Module"},
	"**":     {13, "Power"},
	"<<":     {14, "ShiftLeft"},
	">>":     {15, "ShiftRight"},
	"&":      {16, "BitAnd"},
	"|":      {17, "BitOr"},
	"^":      {18, "BitXor"},
	"~":      {19, "BitNegate"},
	"and":    {20, "And"},
	"or":     {21, "Or"},
	"xor":    {22, "Xor"},
	"not":    {23, "Not"},
	"in":     {24, "In"},
}

// primitiveBuiltins map directly to Go types and get no constructors.
var primitiveBuiltins = map[string]bool{"Nil": true, "bool": true, "int": true, "float": true}

// BuildConstraint is the //go:build line selecting the sys central file for
// cfg: the gdext_double tag chooses precision, GOARCH the pointer width.
func BuildConstraint(cfg extapi.BuildConfiguration) string {
	prec := "!gdext_double"
	if cfg.IsDouble() {
		prec = "gdext_double"
	}
	arches := arch64
	if cfg.PointerBits() == 32 {
		arches = arch32
	}
	return "//go:build " + prec + " && (" + strings.Join(arches, " || ") + ")"
}

// Alignment is the largest power of two dividing size, capped by the widest
// scalar of the configuration.
func Alignment(size int, cfg extapi.BuildConfiguration) int {
	if size <= 0 {
		return 1
	}
	align := size & -size
	limit := cfg.RealBytes()
	if ptr := cfg.PointerBits() / 8; ptr > limit {
		limit = ptr
	}
	if align > limit {
		align = limit
	}
	return align
}

type tableKind int

const (
	tableConstruct tableKind = iota
	tableDestroy
	tableFromVariant
	tableToVariant
	tableMethod
	tableOperator
)

var tableFieldTypes = map[tableKind]string{
	tableConstruct:   "PtrConstructor",
	tableDestroy:     "PtrDestructor",
	tableFromVariant: "TypeFromVariantFunc",
	tableToVariant:   "VariantFromTypeFunc",
	tableMethod:      "PtrBuiltinMethod",
	tableOperator:    "PtrOperatorEvaluator",
}

// tableEntry is one engine entry point held by the generated MethodTable.
type tableEntry struct {
	builtin string
	kind    tableKind
	field   string
	load    *jen.Statement
	index   int
}

// generatedBuiltins lists builtins with a layout in the targeted
// configuration, warning about the rest.
func generatedBuiltins(ctx *Context, warn bool) []*extapi.BuiltinClassDef {
	var out []*extapi.BuiltinClassDef
	api := ctx.API()
	for i := range api.Builtins {
		b := &api.Builtins[i]
		if _, ok := ctx.BuiltinSize(b.Name); !ok {
			if warn {
				log.Warningf("builtin %s has no size for %s; skipped", b.Name, ctx.Options().Configuration)
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

func (c *Context) variantTypeExpr(vt variantType) *jen.Statement {
	if vt.constName != "" {
		return jen.Int32().Call(jen.Id(vt.constName))
	}
	return jen.Lit(int32(vt.value))
}

// planMethodTable lists the MethodTable fields in emission order.
func planMethodTable(ctx *Context, warn bool) []tableEntry {
	names := newNamer()
	iface := func(method string, args ...jen.Code) *jen.Statement {
		return jen.Id("iface").Dot(method).Call(args...)
	}

	var out []tableEntry
	for _, b := range generatedBuiltins(ctx, false) {
		if b.Name == "Nil" {
			continue
		}
		vt, ok := ctx.variantTypeOf(b.Name)
		if !ok {
			if warn {
				log.Warningf("builtin %s has no Variant.Type entry; method table entries skipped", b.Name)
			}
			continue
		}
		self := ctx.variantTypeExpr(vt)
		prefix := toExported(b.Name)

		if !primitiveBuiltins[b.Name] {
			for _, ctor := range b.Constructors {
				out = append(out, tableEntry{
					builtin: b.Name, kind: tableConstruct, index: ctor.Index,
					field: names.unique(prefix + "Construct" + intLit(int64(ctor.Index))),
					load:  iface("VariantGetPtrConstructor", self.Clone(), jen.Lit(int32(ctor.Index))),
				})
			}
		}
		if b.HasDestructor {
			out = append(out, tableEntry{
				builtin: b.Name, kind: tableDestroy,
				field: names.unique(prefix + "Destroy"),
				load:  iface("VariantGetPtrDestructor", self.Clone()),
			})
		}
		out = append(out,
			tableEntry{
				builtin: b.Name, kind: tableFromVariant,
				field: names.unique(prefix + "FromVariant"),
				load:  iface("GetVariantToTypeConstructor", self.Clone()),
			},
			tableEntry{
				builtin: b.Name, kind: tableToVariant,
				field: names.unique(prefix + "ToVariant"),
				load:  iface("GetVariantFromTypeConstructor", self.Clone()),
			},
		)

		for _, m := range b.Methods {
			if !m.HasHash {
				if warn {
					log.Warningf("builtin method %s.%s has no hash; skipped", b.Name, m.Name)
				}
				continue
			}
			out = append(out, tableEntry{
				builtin: b.Name, kind: tableMethod,
				field: names.unique(prefix + GoMethodName(m.Name)),
				load:  iface("VariantGetPtrBuiltinMethod", self.Clone(), jen.Lit(m.Name), jen.Id(intLit(m.Hash))),
			})
		}

		for _, op := range b.Operators {
			sym, ok := operatorNames[op.Name]
			if !ok {
				if warn {
					log.Warningf("unknown operator %q on %s; skipped", op.Name, b.Name)
				}
				continue
			}
			right, ok := ctx.variantTypeOf(op.RightType)
			if !ok {
				if warn {
					log.Warningf("operator %s %s %s: unknown right type; skipped", b.Name, op.Name, op.RightType)
				}
				continue
			}
			field := prefix + "Operator" + sym.name
			if op.RightType != "" {
				field += toExported(op.RightType)
			}
			out = append(out, tableEntry{
				builtin: b.Name, kind: tableOperator,
				field: names.unique(field),
				load:  iface("VariantGetPtrOperatorEvaluator", jen.Lit(sym.index), self.Clone(), ctx.variantTypeExpr(right)),
			})
		}
	}
	return out
}

// GenerateSysCentral emits sys/central.go: layouts, the method table and
// its loader, global and builtin enums, and global constants.
func GenerateSysCentral(ctx *Context) OutputFile {
	pkgs := ctx.Packages()
	cfg := ctx.Options().Configuration
	f := newFile(pkgs, pkgs.Sys, "sys")
	f.HeaderComment(BuildConstraint(cfg))
	ffi := pkgs.FFI

	f.Comment("BuildConfiguration is the builtin layout this file was generated for.")
	f.Const().Id("BuildConfiguration").Op("=").Lit(string(cfg))
	f.Line()

	builtins := generatedBuiltins(ctx, true)
	for _, b := range builtins {
		size, _ := ctx.BuiltinSize(b.Name)
		f.Commentf("Opaque%s holds a %s by value.", toExported(b.Name), b.Name)
		f.Type().Id("Opaque" + toExported(b.Name)).Index(jen.Lit(size)).Byte()
	}
	f.Line()

	f.Comment("BuiltinLayout describes the in-memory shape of a builtin type.")
	f.Type().Id("BuiltinLayout").Struct(
		jen.Id("Name").String(),
		jen.Id("Size").Int(),
		jen.Id("Align").Int(),
		jen.Id("HasDestructor").Bool(),
		jen.Id("DefaultConstructible").Bool(),
	)
	f.Line()
	f.Comment("BuiltinLayouts lists every builtin in declaration order.")
	f.Var().Id("BuiltinLayouts").Op("=").Index().Id("BuiltinLayout").ValuesFunc(func(g *jen.Group) {
		for _, b := range builtins {
			size, _ := ctx.BuiltinSize(b.Name)
			g.Values(jen.Dict{
				jen.Id("Name"):                 jen.Lit(b.Name),
				jen.Id("Size"):                 jen.Lit(size),
				jen.Id("Align"):                jen.Lit(Alignment(size, cfg)),
				jen.Id("HasDestructor"):        jen.Lit(b.HasDestructor),
				jen.Id("DefaultConstructible"): jen.Lit(ctx.IsDefaultConstructible(b.Name)),
			})
		}
	})
	f.Line()

	entries := planMethodTable(ctx, true)
	f.Comment("MethodTable holds the engine entry points for builtin types.")
	f.Type().Id("MethodTable").StructFunc(func(g *jen.Group) {
		for _, e := range entries {
			g.Id(e.field).Qual(ffi, tableFieldTypes[e.kind])
		}
	})
	f.Line()

	f.Comment("LoadMethodTable resolves every entry through the engine interface.")
	f.Func().Id("LoadMethodTable").Params(jen.Id("iface").Qual(ffi, "Interface")).Op("*").Id("MethodTable").BlockFunc(func(g *jen.Group) {
		g.Id("t").Op(":=").Op("&").Id("MethodTable").Values()
		for _, e := range entries {
			g.Id("t").Dot(e.field).Op("=").Add(e.load)
		}
		g.Return(jen.Id("t"))
	})
	f.Line()

	f.Var().Id("table").Op("*").Id("MethodTable")
	f.Line()
	f.Comment("SetTable installs the table loaded during extension initialization.")
	f.Func().Id("SetTable").Params(jen.Id("t").Op("*").Id("MethodTable")).Block(
		jen.Id("table").Op("=").Id("t"),
	)
	f.Line()
	f.Comment("Table returns the installed method table.")
	f.Func().Id("Table").Params().Op("*").Id("MethodTable").Block(
		jen.Return(jen.Id("table")),
	)

	for _, info := range ctx.SysEnums() {
		f.Line()
		emitEnum(f, info)
	}

	if consts := ctx.API().GlobalConstants; consts != nil && consts.Len() > 0 {
		names := ctx.sysNames.clone()
		f.Line()
		f.Const().DefsFunc(func(g *jen.Group) {
			for pair := consts.Oldest(); pair != nil; pair = pair.Next() {
				g.Id(names.unique(GoConstName("", pair.Key))).Op("=").Id(intLit(pair.Value))
			}
		})
	}

	return OutputFile{Path: "central.go", File: f}
}

// emitEnum writes a named int64 type, its typed constants and a String
// method. Aliased values share the first name declared for them.
func emitEnum(f *jen.File, info *EnumInfo) {
	kind := "enum"
	if info.Def.IsBitfield {
		kind = "bitfield"
	}
	engineName := info.Def.Name
	if info.Scope != "" {
		engineName = info.Scope + "." + info.Def.Name
	}
	f.Commentf("%s is the engine %s %s.", info.GoName, kind, engineName)
	f.Type().Id(info.GoName).Int64()
	f.Line()
	f.Const().DefsFunc(func(g *jen.Group) {
		for i, v := range info.Def.Values {
			g.Id(info.Values[i]).Id(info.GoName).Op("=").Id(intLit(v.Value))
		}
	})
	f.Line()

	seen := make(map[int64]bool)
	f.Func().Params(jen.Id("e").Id(info.GoName)).Id("String").Params().String().Block(
		jen.Switch(jen.Id("e")).BlockFunc(func(g *jen.Group) {
			for i, v := range info.Def.Values {
				if seen[v.Value] {
					continue
				}
				seen[v.Value] = true
				g.Case(jen.Id(info.Values[i])).Block(jen.Return(jen.Lit(v.Name)))
			}
		}),
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit(info.GoName+"(%d)"), jen.Int64().Call(jen.Id("e")))),
	)
}

type coreEnum struct {
	info   *EnumInfo
	alias  string
	values []string
}

type coreCtor struct {
	builtin string
	name    string
	field   string
}

// corePlan assigns names in package core. central.go, mod.go and
// utilities.go all derive from the same plan so they never collide.
type corePlan struct {
	names      *namer
	enums      []coreEnum
	ctors      []coreCtor
	singletons string
}

func planCore(ctx *Context) *corePlan {
	n := newNamer(packageNames...)
	for _, cls := range ctx.SelectedClasses() {
		n.reserve(cls.Name)
	}
	plan := &corePlan{names: n}

	for _, info := range ctx.SysEnums() {
		if info.Scope != "" {
			continue
		}
		e := coreEnum{info: info, alias: n.unique(info.GoName)}
		for _, v := range info.Values {
			e.values = append(e.values, n.unique(v))
		}
		plan.enums = append(plan.enums, e)
	}

	fields := make(map[string]string)
	for _, e := range planMethodTable(ctx, false) {
		if e.kind == tableConstruct && e.index == 0 {
			fields[e.builtin] = e.field
		}
	}
	for _, b := range generatedBuiltins(ctx, false) {
		field, ok := fields[b.Name]
		if !ok || !ctx.IsDefaultConstructible(b.Name) || primitiveBuiltins[b.Name] {
			continue
		}
		plan.ctors = append(plan.ctors, coreCtor{builtin: b.Name, name: n.unique("New" + toExported(b.Name)), field: field})
	}
	plan.singletons = n.unique("Singletons")
	return plan
}

// GenerateCoreCentral emits core/central.go: aliases for the global enums,
// default constructors for builtins and the singleton list.
func GenerateCoreCentral(ctx *Context) OutputFile {
	pkgs := ctx.Packages()
	f := newFile(pkgs, pkgs.Core, "core")
	plan := planCore(ctx)

	for _, e := range plan.enums {
		f.Commentf("%s re-exports sys.%s.", e.alias, e.info.GoName)
		f.Type().Id(e.alias).Op("=").Qual(pkgs.Sys, e.info.GoName)
		f.Line()
		if len(e.values) > 0 {
			f.Const().DefsFunc(func(g *jen.Group) {
				for i, v := range e.values {
					g.Id(v).Op("=").Qual(pkgs.Sys, e.info.Values[i])
				}
			})
			f.Line()
		}
	}

	for _, c := range plan.ctors {
		ty := jen.Qual(pkgs.Builtin, c.builtin)
		f.Commentf("%s returns a default-constructed %s.", c.name, c.builtin)
		f.Func().Id(c.name).Params().Add(ty.Clone()).Block(
			jen.Var().Id("v").Add(ty.Clone()),
			jen.Qual(pkgs.Sys, "Table").Call().Dot(c.field).Call(jen.Qual("unsafe", "Pointer").Call(jen.Op("&").Id("v"))),
			jen.Return(jen.Id("v")),
		)
		f.Line()
	}

	f.Comment("Singletons names every engine singleton.")
	f.Var().Id(plan.singletons).Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, s := range ctx.API().Singletons {
			g.Lit(s.Name)
		}
	})

	return OutputFile{Path: "central.go", File: f}
}
