package extapi

import "fmt"

// cPrimitives are the native scalar names that appear in pointer and
// native-structure signatures.
var cPrimitives = map[string]bool{
	"void": true, "bool": true, "char": true, "char16_t": true, "char32_t": true,
	"int8_t": true, "uint8_t": true, "int16_t": true, "uint16_t": true,
	"int32_t": true, "uint32_t": true, "int64_t": true, "uint64_t": true,
	"float": true, "double": true, "real_t": true,
}

// Validate checks the invariants the generator relies on: every referenced
// type resolves, inheritance is an acyclic forest, and methods are bindable.
// The first violation found in declaration order is returned as a *ModelError.
func (a *ExtensionAPI) Validate() error {
	idx := newNameIndex(a)

	for _, c := range a.Classes {
		if c.Parent != "" && !idx.classes[c.Parent] {
			return &ModelError{Name: c.Name, Err: ErrUnresolvedType, Detail: fmt.Sprintf("parent %q", c.Parent)}
		}
	}
	if err := checkAcyclic(a.Classes); err != nil {
		return err
	}

	for _, c := range a.Classes {
		for _, m := range c.Methods {
			owner := c.Name + "." + m.Name
			if m.IsVirtual && m.IsStatic {
				return &ModelError{Name: owner, Err: ErrInvalidMethod, Detail: "virtual method declared static"}
			}
			if !m.IsVirtual && !m.HasHash {
				return &ModelError{Name: owner, Err: ErrInvalidMethod, Detail: "missing hash"}
			}
			if err := idx.checkSignature(owner, m.Params, m.Return); err != nil {
				return err
			}
		}
	}

	for _, b := range a.Builtins {
		for _, m := range b.Methods {
			if err := idx.checkSignature(b.Name+"."+m.Name, m.Params, m.Return); err != nil {
				return err
			}
		}
		for _, ctor := range b.Constructors {
			if err := idx.checkSignature(fmt.Sprintf("%s.constructor[%d]", b.Name, ctor.Index), ctor.Args, nil); err != nil {
				return err
			}
		}
	}

	for _, u := range a.Utilities {
		if !u.HasHash {
			return &ModelError{Name: u.Name, Err: ErrInvalidMethod, Detail: "missing hash"}
		}
		if err := idx.checkSignature(u.Name, u.Params, u.Return); err != nil {
			return err
		}
	}

	for _, s := range a.Singletons {
		if !idx.classes[s.Type] {
			return &ModelError{Name: s.Name, Err: ErrUnresolvedType, Detail: fmt.Sprintf("singleton type %q", s.Type)}
		}
	}
	return nil
}

// CheckLayouts verifies the size table covers cfg. Individual builtins
// missing from an otherwise present configuration are not an error here;
// the generator skips them with a warning.
func (a *ExtensionAPI) CheckLayouts(cfg BuildConfiguration) error {
	if _, ok := a.BuiltinSizes[cfg]; !ok {
		return &ModelError{Name: string(cfg), Err: ErrMissingLayout, Detail: "no builtin_class_sizes entry"}
	}
	return nil
}

func checkAcyclic(classes []ClassDef) error {
	parents := make(map[string]string, len(classes))
	for _, c := range classes {
		parents[c.Name] = c.Parent
	}
	for _, c := range classes {
		seen := map[string]bool{c.Name: true}
		for p := parents[c.Name]; p != ""; p = parents[p] {
			if seen[p] {
				return &ModelError{Name: c.Name, Err: ErrCyclicInheritance, Detail: fmt.Sprintf("via %q", p)}
			}
			seen[p] = true
		}
	}
	return nil
}

type nameIndex struct {
	classes     map[string]bool
	builtins    map[string]bool
	globalEnums map[string]bool
	scopedEnums map[string]bool // "Class.Enum" and "Builtin.Enum"
	natives     map[string]bool
}

func newNameIndex(a *ExtensionAPI) *nameIndex {
	idx := &nameIndex{
		classes:     make(map[string]bool),
		builtins:    make(map[string]bool),
		globalEnums: make(map[string]bool),
		scopedEnums: make(map[string]bool),
		natives:     make(map[string]bool),
	}
	for _, c := range a.Classes {
		idx.classes[c.Name] = true
		for _, e := range c.Enums {
			idx.scopedEnums[c.Name+"."+e.Name] = true
		}
	}
	for _, b := range a.Builtins {
		idx.builtins[b.Name] = true
		for _, e := range b.Enums {
			idx.scopedEnums[b.Name+"."+e.Name] = true
		}
	}
	for _, e := range a.GlobalEnums {
		idx.globalEnums[e.Name] = true
	}
	for _, n := range a.NativeStructures {
		idx.natives[n.Name] = true
	}
	return idx
}

func (idx *nameIndex) checkSignature(owner string, params []Param, ret *TypeRef) error {
	for _, p := range params {
		if !idx.resolves(p.Type) {
			return &ModelError{Name: owner, Err: ErrUnresolvedType, Detail: fmt.Sprintf("parameter %s: %q", p.Name, p.Type.Name)}
		}
	}
	if ret != nil && !idx.resolves(*ret) {
		return &ModelError{Name: owner, Err: ErrUnresolvedType, Detail: fmt.Sprintf("return: %q", ret.Name)}
	}
	return nil
}

// resolves reports whether t names something the generator can represent.
func (idx *nameIndex) resolves(t TypeRef) bool {
	if scope, name, ok := t.Enum(); ok {
		if scope == "" {
			return idx.globalEnums[name]
		}
		return idx.globalEnums[scope+"."+name] || idx.scopedEnums[scope+"."+name]
	}
	if elem, ok := t.ArrayElem(); ok {
		return idx.resolves(TypeRef{Name: elem})
	}
	if t.IsPointer() {
		base := t.PointerBase()
		return cPrimitives[base] || idx.natives[base] || idx.classes[base] || idx.builtins[base]
	}
	switch t.Name {
	case "bool", "int", "float", "Variant":
		return true
	}
	return idx.builtins[t.Name] || idx.classes[t.Name] || idx.natives[t.Name] || cPrimitives[t.Name]
}
