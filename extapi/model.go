// Package extapi loads the engine's extension API description into an
// in-memory model and checks it for internal consistency.
package extapi

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ExtensionAPI is the root of a loaded API description. It is not modified
// after Parse returns.
type ExtensionAPI struct {
	Header           Header
	Classes          []ClassDef
	Builtins         []BuiltinClassDef
	Utilities        []UtilityFunctionDef
	GlobalEnums      []EnumDef
	GlobalConstants  *orderedmap.OrderedMap[string, int64]
	Singletons       []SingletonDef
	NativeStructures []NativeStructureDef

	// BuiltinSizes maps each build configuration to builtin name → byte size.
	BuiltinSizes map[BuildConfiguration]map[string]int
}

// Header identifies the engine build the description was dumped from.
type Header struct {
	Major    int
	Minor    int
	Patch    int
	Status   string
	Build    string
	FullName string
}

// TypeRef is a type as written in the description, e.g. "int",
// "enum::Node.ProcessMode", "typedarray::Node" or "const void*".
type TypeRef struct {
	Name string
	Meta string // width hint such as "int32" or "float"; may be empty
}

func (t TypeRef) String() string {
	if t.Meta == "" {
		return t.Name
	}
	return t.Name + "(" + t.Meta + ")"
}

// Enum splits an "enum::" or "bitfield::" reference into its surrounding
// scope and enum name. scope is empty for global enums without a dot.
func (t TypeRef) Enum() (scope, name string, ok bool) {
	rest, found := strings.CutPrefix(t.Name, "enum::")
	if !found {
		rest, found = strings.CutPrefix(t.Name, "bitfield::")
	}
	if !found {
		return "", "", false
	}
	if i := strings.LastIndexByte(rest, '.'); i >= 0 {
		return rest[:i], rest[i+1:], true
	}
	return "", rest, true
}

// ArrayElem returns the element type name of a "typedarray::" reference.
func (t TypeRef) ArrayElem() (string, bool) {
	return strings.CutPrefix(t.Name, "typedarray::")
}

// IsPointer reports whether the reference is a raw native pointer.
func (t TypeRef) IsPointer() bool {
	return strings.HasSuffix(t.Name, "*")
}

// PointerBase strips qualifiers and indirections from a pointer reference.
func (t TypeRef) PointerBase() string {
	base := strings.TrimPrefix(t.Name, "const ")
	return strings.TrimSpace(strings.TrimRight(base, "* "))
}

// Param is a method or function parameter.
type Param struct {
	Name       string
	Type       TypeRef
	Default    string
	HasDefault bool
}

// MethodDef describes a class or builtin method.
type MethodDef struct {
	Name      string
	Params    []Param
	Return    *TypeRef // nil for void
	IsStatic  bool
	IsVirtual bool
	IsConst   bool
	IsVararg  bool
	Hash      int64
	HasHash   bool
}

// EnumValue is a single enumerator.
type EnumValue struct {
	Name  string
	Value int64
}

// EnumDef is a global, class-scoped or builtin-scoped enum.
type EnumDef struct {
	Name       string
	IsBitfield bool
	Values     []EnumValue
}

// ConstantDef is an integer class constant.
type ConstantDef struct {
	Name  string
	Value int64
}

// ClassDef describes an engine class.
type ClassDef struct {
	Name           string
	Parent         string // empty for roots
	Methods        []MethodDef
	Enums          []EnumDef
	Constants      []ConstantDef
	IsInstantiable bool
	IsRefcounted   bool
	APIType        string
}

// ConstructorDef is one builtin constructor overload.
type ConstructorDef struct {
	Index int
	Args  []Param
}

// OperatorDef is a builtin operator overload. RightType is empty for
// unary operators.
type OperatorDef struct {
	Name       string
	RightType  string
	ReturnType TypeRef
}

// BuiltinClassDef describes a builtin value type such as Vector2 or String.
type BuiltinClassDef struct {
	Name               string
	Sizes              map[BuildConfiguration]int
	Constructors       []ConstructorDef
	HasDestructor      bool
	IndexingReturnType string
	Methods            []MethodDef
	Operators          []OperatorDef
	Enums              []EnumDef
}

// UtilityFunctionDef describes a free engine function.
type UtilityFunctionDef struct {
	Name     string
	Category string
	Params   []Param
	Return   *TypeRef
	IsVararg bool
	Hash     int64
	HasHash  bool
}

// SingletonDef names an engine singleton and the class it instantiates.
type SingletonDef struct {
	Name string
	Type string
}

// NativeStructureDef is a plain C struct exposed through pointers.
type NativeStructureDef struct {
	Name   string
	Format string
}

// Class returns the class with the given name.
func (a *ExtensionAPI) Class(name string) (*ClassDef, bool) {
	for i := range a.Classes {
		if a.Classes[i].Name == name {
			return &a.Classes[i], true
		}
	}
	return nil, false
}

// Builtin returns the builtin with the given name.
func (a *ExtensionAPI) Builtin(name string) (*BuiltinClassDef, bool) {
	for i := range a.Builtins {
		if a.Builtins[i].Name == name {
			return &a.Builtins[i], true
		}
	}
	return nil, false
}

// Singleton reports whether class is exposed as an engine singleton.
func (a *ExtensionAPI) Singleton(class string) (SingletonDef, bool) {
	for _, s := range a.Singletons {
		if s.Type == class {
			return s, true
		}
	}
	return SingletonDef{}, false
}
