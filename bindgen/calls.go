package bindgen

import (
	"github.com/chazu/gdbind/extapi"
	"github.com/dave/jennifer/jen"
)

// Locals every generated call body may declare.
const (
	localRet   = "ret"
	localExtra = "extra"
	localIndex = "i"
	localArgs  = "args"
)

type wrapperParam struct {
	name string
	ty   Ty
	// local holds the object pointer of a class argument.
	local string
}

// wrapper is the Go side of one engine call: parameters, result and the
// statements that marshal them through the ffi package.
type wrapper struct {
	ctx    *Context
	params []wrapperParam
	ret    Ty
	vararg bool
}

func newWrapper(ctx *Context, scope *namer, params []extapi.Param, ret *extapi.TypeRef, vararg bool) *wrapper {
	w := &wrapper{ctx: ctx, vararg: vararg}
	for _, p := range params {
		wp := wrapperParam{name: scope.param(p.Name), ty: ctx.Resolve(p.Type)}
		if _, ok := wp.ty.(EngineClass); ok {
			wp.local = scope.unique(wp.name + "Ptr")
		}
		w.params = append(w.params, wp)
	}
	if ret != nil {
		w.ret = ctx.Resolve(*ret)
	}
	return w
}

// Params renders the parameter list.
func (w *wrapper) Params() []jen.Code {
	out := make([]jen.Code, 0, len(w.params)+1)
	for _, p := range w.params {
		out = append(out, jen.Id(p.name).Add(p.ty.Code()))
	}
	if w.vararg {
		out = append(out, jen.Id(localArgs).Op("...").Qual(w.ctx.Packages().Builtin, "Variant"))
	}
	return out
}

// Result renders the result type, or nothing for void.
func (w *wrapper) Result() jen.Code {
	if w.ret == nil {
		return jen.Null()
	}
	return w.ret.Code()
}

func addressOf(expr jen.Code) *jen.Statement {
	return jen.Qual("unsafe", "Pointer").Call(jen.Op("&").Add(expr))
}

// Body renders the call through ffi.<fn> (or <fn>Vararg) with lead as the
// leading arguments, followed by the return slot and the arguments.
func (w *wrapper) Body(fn string, lead ...jen.Code) []jen.Code {
	ffi := w.ctx.Packages().FFI
	var stmts, args []jen.Code
	for _, p := range w.params {
		if p.local != "" {
			stmts = append(stmts, jen.Id(p.local).Op(":=").Id(p.name).Dot("ObjectPtr").Call())
			args = append(args, addressOf(jen.Id(p.local)))
			continue
		}
		args = append(args, addressOf(jen.Id(p.name)))
	}

	retSlot := jen.Nil()
	class, returnsClass := w.ret.(EngineClass)
	if w.ret != nil {
		if returnsClass {
			stmts = append(stmts, jen.Var().Id(localRet).Qual(ffi, "ObjectPtr"))
		} else {
			stmts = append(stmts, jen.Var().Id(localRet).Add(w.ret.Code()))
		}
		retSlot = addressOf(jen.Id(localRet))
	}

	callArgs := append(append([]jen.Code{}, lead...), retSlot)
	if w.vararg {
		stmts = append(stmts,
			jen.Id(localExtra).Op(":=").Make(jen.Index().Qual("unsafe", "Pointer"), jen.Len(jen.Id(localArgs))),
			jen.For(jen.Id(localIndex).Op(":=").Range().Id(localArgs)).Block(
				jen.Id(localExtra).Index(jen.Id(localIndex)).Op("=").Add(addressOf(jen.Id(localArgs).Index(jen.Id(localIndex)))),
			),
			jen.Qual(ffi, fn+"Vararg").Call(append(callArgs,
				jen.Index().Qual("unsafe", "Pointer").Values(args...),
				jen.Id(localExtra),
			)...),
		)
	} else {
		stmts = append(stmts, jen.Qual(ffi, fn).Call(append(callArgs, args...)...))
	}

	switch {
	case returnsClass:
		stmts = append(stmts, jen.Return(jen.Qual(class.Path, class.Class+"FromPtr").Call(jen.Id(localRet))))
	case w.ret != nil:
		stmts = append(stmts, jen.Return(jen.Id(localRet)))
	}
	return stmts
}

// defaultsNote lists parameter defaults for a doc comment.
func defaultsNote(params []extapi.Param) string {
	note := ""
	for _, p := range params {
		if !p.HasDefault {
			continue
		}
		if note == "" {
			note = " Defaults: "
		} else {
			note += ", "
		}
		note += p.Name + " = " + p.Default
	}
	if note != "" {
		note += "."
	}
	return note
}
