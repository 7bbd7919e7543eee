package bindgen

import (
	"github.com/chazu/gdbind/extapi"
	"github.com/dave/jennifer/jen"
)

// GenerateClassFiles emits one file per selected class, in declaration
// order. Paths are relative to the core root.
func GenerateClassFiles(ctx *Context) []OutputFile {
	pkg := ctx.classNames.clone()
	var out []OutputFile
	for _, cls := range ctx.SelectedClasses() {
		out = append(out, generateClass(ctx, pkg, cls))
	}
	return out
}

// classMethods returns the methods of cls that get a wrapper, with the
// signature to generate for each.
func classMethods(ctx *Context, cls *extapi.ClassDef) []extapi.MethodDef {
	var out []extapi.MethodDef
	for _, m := range cls.Methods {
		if ctx.IsVirtual(cls.Name, m) {
			continue
		}
		if ctx.Exceptions().SkipsMethod(cls.Name, m.Name) {
			log.Debugf("method %s.%s skipped by exception table", cls.Name, m.Name)
			continue
		}
		if !m.HasHash {
			log.Warningf("method %s.%s has no hash; skipped", cls.Name, m.Name)
			continue
		}
		m.Params, m.Return = ctx.Signature(cls.Name, m.Name, m.Params, m.Return)
		if ctx.IsExcluded(m.Params, m.Return) {
			log.Debugf("method %s.%s references an unselected class; skipped", cls.Name, m.Name)
			continue
		}
		out = append(out, m)
	}
	return out
}

// classVirtuals filters the flattened virtual set of class the same way.
func classVirtuals(ctx *Context, class string) []VirtualMethod {
	var out []VirtualMethod
	for _, vm := range ctx.Virtuals(class) {
		vm.Method.Params, vm.Method.Return = ctx.Signature(vm.Class, vm.Method.Name, vm.Method.Params, vm.Method.Return)
		if ctx.IsExcluded(vm.Method.Params, vm.Method.Return) {
			continue
		}
		out = append(out, vm)
	}
	return out
}

func isRefCounted(ctx *Context, cls *extapi.ClassDef) bool {
	if cls.IsRefcounted {
		return true
	}
	for _, name := range ctx.Chain(cls.Name) {
		if name == "RefCounted" {
			return true
		}
	}
	return false
}

func generateClass(ctx *Context, pkg *namer, cls *extapi.ClassDef) OutputFile {
	pkgs := ctx.Packages()
	ffi := pkgs.FFI
	f := newFile(pkgs, pkgs.Classes(), "classes")
	name := cls.Name
	ancestors := ctx.SelectedAncestors(name)

	// Method names already claimed on the wrapper type.
	methods := newNamer("ObjectPtr", "Ownership")
	for _, anc := range ancestors {
		methods.reserve("As" + anc)
	}

	f.Commentf("%s wraps the engine class %s.", name, name)
	if len(ancestors) > 0 {
		methods.reserve(ancestors[0])
		f.Type().Id(name).Struct(jen.Id(ancestors[0]))
	} else {
		f.Type().Id(name).Struct(jen.Id("ptr").Qual(ffi, "ObjectPtr"))
	}
	f.Line()

	// Handle helpers.
	inner := jen.Values(jen.Dict{jen.Id("ptr"): jen.Id("p")})
	for i := len(ancestors) - 1; i >= 0; i-- {
		if i == len(ancestors)-1 {
			inner = jen.Id(ancestors[i]).Add(inner)
			continue
		}
		inner = jen.Id(ancestors[i]).Values(jen.Dict{jen.Id(ancestors[i+1]): inner})
	}
	var literal *jen.Statement
	if len(ancestors) > 0 {
		literal = jen.Op("&").Id(name).Values(jen.Dict{jen.Id(ancestors[0]): inner})
	} else {
		literal = jen.Op("&").Id(name).Add(inner)
	}
	f.Commentf("%sFromPtr wraps an object pointer. A null pointer gives nil.", name)
	f.Func().Id(name+"FromPtr").Params(jen.Id("p").Qual(ffi, "ObjectPtr")).Op("*").Id(name).Block(
		jen.If(jen.Id("p").Op("==").Lit(0)).Block(jen.Return(jen.Nil())),
		jen.Return(literal),
	)
	f.Line()

	self := jen.Id("c").Op("*").Id(name)
	ptr := jen.Id("c").Dot("ptr")
	if len(ancestors) > 0 {
		ptr = jen.Id("c").Dot(ancestors[0]).Dot("ObjectPtr").Call()
	}
	f.Comment("ObjectPtr returns the engine pointer, or 0 for a nil wrapper.")
	f.Func().Params(self.Clone()).Id("ObjectPtr").Params().Qual(ffi, "ObjectPtr").Block(
		jen.If(jen.Id("c").Op("==").Nil()).Block(jen.Return(jen.Lit(0))),
		jen.Return(ptr),
	)
	f.Line()

	ownership := "ManuallyManaged"
	if isRefCounted(ctx, cls) {
		ownership = "RefCounted"
	}
	f.Comment("Ownership reports how the engine manages the object's lifetime.")
	f.Func().Params(self.Clone()).Id("Ownership").Params().Qual(ffi, "Ownership").Block(
		jen.Return(jen.Qual(ffi, ownership)),
	)

	// Upcasts, nearest ancestor first.
	for i, anc := range ancestors {
		field := jen.Id("c")
		for _, step := range ancestors[:i+1] {
			field = field.Dot(step)
		}
		f.Line()
		f.Commentf("As%s returns the embedded %s, or nil for a nil wrapper.", anc, anc)
		f.Func().Params(self.Clone()).Id("As"+anc).Params().Op("*").Id(anc).Block(
			jen.If(jen.Id("c").Op("==").Nil()).Block(jen.Return(jen.Nil())),
			jen.Return(jen.Op("&").Add(field)),
		)
	}

	if cls.IsInstantiable {
		f.Line()
		f.Commentf("New%s constructs a new engine %s.", name, name)
		f.Func().Id("New"+name).Params().Op("*").Id(name).Block(
			jen.Return(jen.Id(name + "FromPtr").Call(jen.Qual(ffi, "Construct").Call(jen.Lit(name)))),
		)
	}

	if s, ok := ctx.Singleton(name); ok {
		f.Line()
		f.Commentf("%sSingleton returns the engine's %s singleton.", name, s.Name)
		f.Func().Id(name+"Singleton").Params().Op("*").Id(name).Block(
			jen.Return(jen.Id(name + "FromPtr").Call(jen.Qual(ffi, "Singleton").Call(jen.Lit(s.Name)))),
		)
	}

	for _, e := range cls.Enums {
		info, ok := ctx.Enum(name + "." + e.Name)
		if !ok || info.Path != pkgs.Classes() {
			continue
		}
		f.Line()
		emitEnum(f, info)
	}

	if len(cls.Constants) > 0 {
		f.Line()
		f.Const().DefsFunc(func(g *jen.Group) {
			for _, c := range cls.Constants {
				g.Id(pkg.unique(GoConstName(name, c.Name))).Op("=").Id(intLit(c.Value))
			}
		})
	}

	for _, m := range classMethods(ctx, cls) {
		f.Line()
		emitMethod(ctx, f, pkg, methods, cls, m)
	}

	if virtuals := classVirtuals(ctx, name); len(virtuals) > 0 {
		f.Line()
		emitVirtuals(ctx, f, name+"Virtuals", virtuals)
	}

	return OutputFile{Path: "classes/" + FileName(name), File: f}
}

func emitMethod(ctx *Context, f *jen.File, pkg, methods *namer, cls *extapi.ClassDef, m extapi.MethodDef) {
	ffi := ctx.Packages().FFI
	goName := ctx.GoName(cls.Name, m.Name)
	bind := pkg.unique("bind" + cls.Name + goName)
	f.Var().Id(bind).Op("=").Qual(ffi, "ClassMethod").Call(jen.Lit(cls.Name), jen.Lit(m.Name), jen.Id(intLit(m.Hash)))
	f.Line()

	scope := funcScope("c", localRet, localExtra, localIndex, localArgs)
	w := newWrapper(ctx, scope, m.Params, m.Return, m.IsVararg)

	if m.IsStatic {
		fn := pkg.unique(cls.Name + goName)
		f.Commentf("%s wraps the static method %s.%s.%s", fn, cls.Name, m.Name, defaultsNote(m.Params))
		f.Func().Id(fn).Params(w.Params()...).Add(w.Result()).Block(
			w.Body("Call", jen.Id(bind), jen.Lit(0))...,
		)
		return
	}

	method := methods.unique(goName)
	f.Commentf("%s wraps %s.%s.%s", method, cls.Name, m.Name, defaultsNote(m.Params))
	f.Func().Params(jen.Id("c").Op("*").Id(cls.Name)).Id(method).Params(w.Params()...).Add(w.Result()).Block(
		w.Body("Call", jen.Id(bind), jen.Id("c").Dot("ObjectPtr").Call())...,
	)
}

// emitVirtuals writes the override struct for a class and its Callback
// adapter keyed by engine method name.
func emitVirtuals(ctx *Context, f *jen.File, typeName string, virtuals []VirtualMethod) {
	ffi := ctx.Packages().FFI
	fields := newNamer("Callback")

	type slot struct {
		field string
		vm    VirtualMethod
		names []string
	}
	slots := make([]slot, 0, len(virtuals))
	for _, vm := range virtuals {
		scope := newNamer()
		s := slot{field: fields.unique(GoMethodName(vm.Method.Name)), vm: vm}
		for _, p := range vm.Method.Params {
			s.names = append(s.names, scope.param(p.Name))
		}
		slots = append(slots, s)
	}

	f.Commentf("%s holds Go implementations of engine virtual methods. Nil fields", typeName)
	f.Comment("keep the engine's default behaviour.")
	f.Type().Id(typeName).StructFunc(func(g *jen.Group) {
		for _, s := range slots {
			params := make([]jen.Code, 0, len(s.names))
			for i, p := range s.vm.Method.Params {
				params = append(params, jen.Id(s.names[i]).Add(ctx.Resolve(p.Type).Code()))
			}
			ret := jen.Null()
			if s.vm.Method.Return != nil {
				ret = ctx.Resolve(*s.vm.Method.Return).Code()
			}
			g.Commentf("%s overrides %s.%s.", s.field, s.vm.Class, s.vm.Method.Name)
			g.Id(s.field).Func().Params(params...).Add(ret)
		}
	})
	f.Line()

	f.Comment("Callback returns the engine callback for a virtual method name, or nil")
	f.Comment("when the method is not overridden.")
	f.Func().Params(jen.Id("v").Op("*").Id(typeName)).Id("Callback").Params(jen.Id("name").String()).Qual(ffi, "VirtualFunc").Block(
		jen.If(jen.Id("v").Op("==").Nil()).Block(jen.Return(jen.Nil())),
		jen.Switch(jen.Id("name")).BlockFunc(func(g *jen.Group) {
			for _, s := range slots {
				g.Case(jen.Lit(s.vm.Method.Name)).Block(
					jen.If(jen.Id("v").Dot(s.field).Op("==").Nil()).Block(jen.Return(jen.Nil())),
					jen.Return(virtualClosure(ctx, s.field, s.vm.Method)),
				)
			}
		}),
		jen.Return(jen.Nil()),
	)
}

func virtualClosure(ctx *Context, field string, m extapi.MethodDef) *jen.Statement {
	ffi := ctx.Packages().FFI
	args := make([]jen.Code, 0, len(m.Params))
	for i, p := range m.Params {
		ty := ctx.Resolve(p.Type)
		if class, ok := ty.(EngineClass); ok {
			raw := jen.Qual(ffi, "Arg").Types(jen.Qual(ffi, "ObjectPtr")).Call(jen.Id("args"), jen.Lit(i))
			args = append(args, jen.Qual(class.Path, class.Class+"FromPtr").Call(raw))
			continue
		}
		args = append(args, jen.Qual(ffi, "Arg").Types(ty.Code()).Call(jen.Id("args"), jen.Lit(i)))
	}

	call := jen.Id("v").Dot(field).Call(args...)
	var body jen.Code = call
	if m.Return != nil {
		if _, ok := ctx.Resolve(*m.Return).(EngineClass); ok {
			call = call.Dot("ObjectPtr").Call()
		}
		body = jen.Qual(ffi, "SetReturn").Call(jen.Id("ret"), call)
	}

	return jen.Func().Params(
		jen.Id("self").Qual(ffi, "ObjectPtr"),
		jen.Id("args").Index().Qual("unsafe", "Pointer"),
		jen.Id("ret").Qual("unsafe", "Pointer"),
	).Block(body)
}
