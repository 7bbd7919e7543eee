package bindgen

import (
	"github.com/dave/jennifer/jen"
)

// Ty is the Go representation chosen for an engine type. It is one of
// BuiltinIdent, BuiltinArray, EngineArray, EngineEnum or EngineClass.
type Ty interface {
	// Code renders the type. Qualified names collapse to bare identifiers
	// inside their own package.
	Code() *jen.Statement
	String() string
	isTy()
}

// BuiltinIdent is a predeclared Go type (Path empty) or a named type from
// the builtin wrapper package, or unsafe.Pointer for raw pointers.
type BuiltinIdent struct {
	Path string
	Name string
}

// BuiltinArray is a typed array of a builtin element.
type BuiltinArray struct {
	ArrayPath string
	Elem      Ty
}

// EngineArray is a typed array of engine objects.
type EngineArray struct {
	ArrayPath   string
	ClassesPath string
	ElemClass   string
}

// EngineEnum is an engine enum or bitfield. SurroundingClass is empty for
// global and builtin-scoped enums.
type EngineEnum struct {
	Path             string
	Name             string
	SurroundingClass string
	IsBitfield       bool
}

// EngineClass is a pointer to a generated class wrapper. nil stands for
// the null object.
type EngineClass struct {
	Path  string
	Class string
}

func (BuiltinIdent) isTy() {}
func (BuiltinArray) isTy() {}
func (EngineArray) isTy()  {}
func (EngineEnum) isTy()   {}
func (EngineClass) isTy()  {}

func (t BuiltinIdent) Code() *jen.Statement {
	if t.Path == "" {
		return jen.Id(t.Name)
	}
	return jen.Qual(t.Path, t.Name)
}

func (t BuiltinIdent) String() string {
	if t.Path == "" {
		return t.Name
	}
	return lastSegment(t.Path) + "." + t.Name
}

func (t BuiltinArray) Code() *jen.Statement {
	return jen.Qual(t.ArrayPath, "TypedArray").Types(t.Elem.Code())
}

func (t BuiltinArray) String() string {
	return "TypedArray[" + t.Elem.String() + "]"
}

func (t EngineArray) Code() *jen.Statement {
	return jen.Qual(t.ArrayPath, "TypedArray").Types(jen.Op("*").Qual(t.ClassesPath, t.ElemClass))
}

func (t EngineArray) String() string {
	return "TypedArray[*" + t.ElemClass + "]"
}

func (t EngineEnum) Code() *jen.Statement {
	return jen.Qual(t.Path, t.Name)
}

func (t EngineEnum) String() string {
	return lastSegment(t.Path) + "." + t.Name
}

func (t EngineClass) Code() *jen.Statement {
	return jen.Op("*").Qual(t.Path, t.Class)
}

func (t EngineClass) String() string {
	return "*" + t.Class
}

// referencedClass is the engine class a type depends on, if any.
func referencedClass(t Ty) string {
	switch t := t.(type) {
	case EngineClass:
		return t.Class
	case EngineArray:
		return t.ElemClass
	case EngineEnum:
		return t.SurroundingClass
	case BuiltinArray:
		return referencedClass(t.Elem)
	}
	return ""
}

func lastSegment(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
