package bindgen

import (
	"fmt"
	"strings"

	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
	"github.com/iancoleman/strcase"
)

// VirtualMethod is an entry of a class's flattened virtual set. Class is the
// class that declares the winning definition.
type VirtualMethod struct {
	Class  string
	Method extapi.MethodDef
}

// InheritedMethod is an entry of a class's full method set.
type InheritedMethod struct {
	Class  string
	Method extapi.MethodDef
}

// EnumInfo is an enum together with the Go names chosen for it.
type EnumInfo struct {
	Def *extapi.EnumDef
	// Scope is the declaring class or builtin; empty for global enums.
	Scope  string
	GoName string
	// Values holds the Go constant names, parallel to Def.Values.
	Values []string
	Path   string
}

type variantType struct {
	constName string
	value     int64
}

// Context is the read-only index the generators work from. It is built once
// per run by BuildContext and never modified afterwards.
type Context struct {
	api  *extapi.ExtensionAPI
	opts Options

	classes  map[string]*extapi.ClassDef
	builtins map[string]*extapi.BuiltinClassDef
	natives  map[string]bool

	chains               map[string][]string
	selected             map[string]bool
	defaultConstructible map[string]bool
	virtuals             map[string][]VirtualMethod
	types                map[string]Ty
	singletons           map[string]extapi.SingletonDef

	enums        map[string]*EnumInfo
	sysEnums     []*EnumInfo
	sysNames     *namer
	classNames   *namer
	variantTypes map[string]variantType
	variantNorm  map[string]variantType

	// brokenSignatures holds "class|method" keys of forced signatures whose
	// types do not resolve; those rules are ignored.
	brokenSignatures map[string]bool
}

// BuildContext indexes api for generation. A broken model invariant, such
// as an inheritance cycle, panics with the *extapi.ModelError.
func BuildContext(api *extapi.ExtensionAPI, opts Options) *Context {
	c := &Context{
		api:                  api,
		opts:                 opts,
		classes:              make(map[string]*extapi.ClassDef, len(api.Classes)),
		builtins:             make(map[string]*extapi.BuiltinClassDef, len(api.Builtins)),
		natives:              make(map[string]bool),
		chains:               make(map[string][]string, len(api.Classes)),
		selected:             make(map[string]bool),
		defaultConstructible: make(map[string]bool),
		virtuals:             make(map[string][]VirtualMethod, len(api.Classes)),
		types:                make(map[string]Ty),
		singletons:           make(map[string]extapi.SingletonDef),
		enums:                make(map[string]*EnumInfo),
		variantTypes:         make(map[string]variantType),
		variantNorm:          make(map[string]variantType),
		brokenSignatures:     make(map[string]bool),
	}

	for i := range api.Classes {
		c.classes[api.Classes[i].Name] = &api.Classes[i]
	}
	for i := range api.Builtins {
		c.builtins[api.Builtins[i].Name] = &api.Builtins[i]
	}
	for _, n := range api.NativeStructures {
		c.natives[n.Name] = true
	}
	for _, s := range api.Singletons {
		c.singletons[s.Type] = s
	}

	for _, cls := range api.Classes {
		c.chains[cls.Name] = c.walkChain(cls.Name)
	}
	for _, cls := range api.Classes {
		c.flatten(cls.Name)
	}

	c.indexEnums()
	c.indexVariantTypes()
	c.classifyAll()
	c.selectClasses()

	sizes := api.BuiltinSizes[opts.Configuration]
	for _, b := range api.Builtins {
		if _, ok := sizes[b.Name]; !ok {
			continue
		}
		for _, ctor := range b.Constructors {
			if ctor.Index == 0 && len(ctor.Args) == 0 {
				c.defaultConstructible[b.Name] = true
			}
		}
	}

	log.Debugf("context: %d classes selected (%s), %d types classified", len(c.selected), opts.Selection, len(c.types))
	return c
}

func (c *Context) walkChain(class string) []string {
	var chain []string
	seen := make(map[string]bool)
	for name := class; name != ""; {
		if seen[name] {
			panic(&extapi.ModelError{Name: class, Err: extapi.ErrCyclicInheritance, Detail: fmt.Sprintf("via %q", name)})
		}
		seen[name] = true
		def, ok := c.classes[name]
		if !ok {
			panic(&extapi.ModelError{Name: class, Err: extapi.ErrUnresolvedType, Detail: fmt.Sprintf("ancestor %q", name)})
		}
		chain = append(chain, name)
		name = def.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (c *Context) flatten(class string) []VirtualMethod {
	if v, ok := c.virtuals[class]; ok {
		return v
	}
	def := c.classes[class]
	var out []VirtualMethod
	if def.Parent != "" {
		out = append(out, c.flatten(def.Parent)...)
	}
	for _, m := range def.Methods {
		if !c.IsVirtual(class, m) || c.opts.Exceptions.SkipsMethod(class, m.Name) {
			continue
		}
		vm := VirtualMethod{Class: class, Method: m}
		replaced := false
		for i := range out {
			if out[i].Method.Name == m.Name && len(out[i].Method.Params) == len(m.Params) {
				out[i] = vm
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, vm)
		}
	}
	c.virtuals[class] = out
	return out
}

// indexEnums assigns Go names to every enum. Sys holds global and builtin
// enums; classes holds class enums.
func (c *Context) indexEnums() {
	p := c.opts.Packages

	c.sysNames = newNamer(packageNames...)
	c.sysNames.reserve("BuildConfiguration", "BuiltinLayout", "BuiltinLayouts", "MethodTable", "LoadMethodTable", "SetTable", "Table", "table", "EngineVersion")
	for _, b := range c.api.Builtins {
		c.sysNames.reserve("Opaque" + toExported(b.Name))
	}

	c.classNames = newNamer(packageNames...)
	c.classNames.reserve("Inherits", "ClassNames")
	for _, cls := range c.api.Classes {
		c.classNames.reserve(cls.Name, "New"+cls.Name, cls.Name+"FromPtr", cls.Name+"Singleton", cls.Name+"Virtuals")
	}

	add := func(n *namer, key, scope, path string, def *extapi.EnumDef) *EnumInfo {
		info := &EnumInfo{Def: def, Scope: scope, Path: path, GoName: n.unique(GoEnumName(scope, def.Name))}
		c.enums[key] = info
		return info
	}

	var infos []*EnumInfo
	for i := range c.api.GlobalEnums {
		def := &c.api.GlobalEnums[i]
		info := add(c.sysNames, def.Name, "", p.Sys, def)
		c.sysEnums = append(c.sysEnums, info)
		infos = append(infos, info)
	}
	for bi := range c.api.Builtins {
		b := &c.api.Builtins[bi]
		for i := range b.Enums {
			key := b.Name + "." + b.Enums[i].Name
			if _, global := c.enums[key]; global {
				continue
			}
			info := add(c.sysNames, key, b.Name, p.Sys, &b.Enums[i])
			c.sysEnums = append(c.sysEnums, info)
			infos = append(infos, info)
		}
	}
	for ci := range c.api.Classes {
		cls := &c.api.Classes[ci]
		for i := range cls.Enums {
			key := cls.Name + "." + cls.Enums[i].Name
			if _, global := c.enums[key]; global {
				continue
			}
			infos = append(infos, add(c.classNames, key, cls.Name, p.Classes(), &cls.Enums[i]))
		}
	}

	for _, info := range infos {
		n := c.sysNames
		if info.Path == p.Classes() {
			n = c.classNames
		}
		for _, v := range info.Def.Values {
			name := info.GoName + enumValueSuffix(info.Def.Name, v.Name)
			if n.taken(name) {
				name = info.GoName + strcase.ToCamel(v.Name)
			}
			info.Values = append(info.Values, n.unique(name))
		}
	}
}

// indexVariantTypes maps builtin names to their Variant.Type constant.
// Without that enum, builtins are numbered in declaration order.
func (c *Context) indexVariantTypes() {
	if info, ok := c.enums["Variant.Type"]; ok && info.Scope == "" {
		for i, v := range info.Def.Values {
			norm := normalizeTypeName(strings.TrimPrefix(v.Name, "TYPE_"))
			c.variantNorm[norm] = variantType{constName: info.Values[i], value: v.Value}
		}
		for _, b := range c.api.Builtins {
			if vt, ok := c.variantNorm[normalizeTypeName(b.Name)]; ok {
				c.variantTypes[b.Name] = vt
			}
		}
		return
	}
	for i, b := range c.api.Builtins {
		c.variantTypes[b.Name] = variantType{value: int64(i)}
	}
}

// variantTypeOf returns the Variant.Type entry for a builtin, "Object" or
// "Variant" (which maps to the nil type as engine operators do).
func (c *Context) variantTypeOf(name string) (variantType, bool) {
	if vt, ok := c.variantTypes[name]; ok {
		return vt, true
	}
	if name == "Variant" || name == "" {
		vt, ok := c.variantNorm["NIL"]
		if !ok {
			return variantType{}, true
		}
		return vt, true
	}
	vt, ok := c.variantNorm[normalizeTypeName(name)]
	return vt, ok
}

func normalizeTypeName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "_", ""))
}

func typeKey(t extapi.TypeRef) string {
	return t.Name + "|" + t.Meta
}

func (c *Context) classifyAll() {
	mustClassify := func(owner string, t extapi.TypeRef) {
		key := typeKey(t)
		if _, ok := c.types[key]; ok {
			return
		}
		ty, err := c.classify(t)
		if err != nil {
			panic(&extapi.ModelError{Name: owner, Err: extapi.ErrUnresolvedType, Detail: fmt.Sprintf("%q", t.Name)})
		}
		c.types[key] = ty
	}
	signature := func(owner string, params []extapi.Param, ret *extapi.TypeRef) {
		for _, p := range params {
			mustClassify(owner, p.Type)
		}
		if ret != nil {
			mustClassify(owner, *ret)
		}
	}

	for _, cls := range c.api.Classes {
		for _, m := range cls.Methods {
			signature(cls.Name+"."+m.Name, m.Params, m.Return)
		}
	}
	for _, b := range c.api.Builtins {
		for _, m := range b.Methods {
			signature(b.Name+"."+m.Name, m.Params, m.Return)
		}
		for _, ctor := range b.Constructors {
			signature(b.Name, ctor.Args, nil)
		}
		mustClassify(b.Name, extapi.TypeRef{Name: b.Name})
	}
	for _, u := range c.api.Utilities {
		signature(u.Name, u.Params, u.Return)
	}

	for _, r := range c.opts.Exceptions.Rules() {
		if r.Policy.Kind != exceptions.ForceSignature || r.Policy.Signature == nil {
			continue
		}
		sig := r.Policy.Signature
		refs := make([]extapi.TypeRef, 0, len(sig.Params)+1)
		for _, p := range sig.Params {
			refs = append(refs, p.Type)
		}
		if sig.Return != nil {
			refs = append(refs, *sig.Return)
		}
		for _, t := range refs {
			ty, err := c.classify(t)
			if err != nil {
				log.Warningf("ignoring %s: %v", r, err)
				c.brokenSignatures[r.Class+"|"+r.Method] = true
				break
			}
			c.types[typeKey(t)] = ty
		}
	}
}

func (c *Context) classify(t extapi.TypeRef) (Ty, error) {
	p := c.opts.Packages
	if scope, name, ok := t.Enum(); ok {
		return c.classifyEnum(scope, name)
	}
	if elem, ok := t.ArrayElem(); ok {
		if _, isClass := c.classes[elem]; isClass {
			return EngineArray{ArrayPath: p.Builtin, ClassesPath: p.Classes(), ElemClass: elem}, nil
		}
		et, err := c.classify(extapi.TypeRef{Name: elem})
		if err != nil {
			return nil, err
		}
		return BuiltinArray{ArrayPath: p.Builtin, Elem: et}, nil
	}
	if t.IsPointer() {
		return BuiltinIdent{Path: "unsafe", Name: "Pointer"}, nil
	}
	switch t.Name {
	case "bool":
		return BuiltinIdent{Name: "bool"}, nil
	case "int":
		return BuiltinIdent{Name: intType(t.Meta)}, nil
	case "float":
		return BuiltinIdent{Name: floatType(t.Meta)}, nil
	case "Variant":
		return BuiltinIdent{Path: p.Builtin, Name: "Variant"}, nil
	}
	if _, ok := c.classes[t.Name]; ok {
		return EngineClass{Path: p.Classes(), Class: t.Name}, nil
	}
	if _, ok := c.builtins[t.Name]; ok {
		return BuiltinIdent{Path: p.Builtin, Name: t.Name}, nil
	}
	if c.natives[t.Name] {
		return BuiltinIdent{Path: "unsafe", Name: "Pointer"}, nil
	}
	return nil, &extapi.ModelError{Name: t.Name, Err: extapi.ErrUnresolvedType}
}

func (c *Context) classifyEnum(scope, name string) (Ty, error) {
	key := name
	if scope != "" {
		key = scope + "." + name
	}
	info, ok := c.enums[key]
	if !ok {
		return nil, &extapi.ModelError{Name: key, Err: extapi.ErrUnresolvedType, Detail: "enum"}
	}
	surrounding := ""
	if _, isClass := c.classes[info.Scope]; isClass {
		surrounding = info.Scope
	}
	return EngineEnum{Path: info.Path, Name: info.GoName, SurroundingClass: surrounding, IsBitfield: info.Def.IsBitfield}, nil
}

func intType(meta string) string {
	switch meta {
	case "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64":
		return meta
	}
	return "int64"
}

func floatType(meta string) string {
	if meta == "float" {
		return "float32"
	}
	return "float64"
}

func (c *Context) selectClasses() {
	skip := func(name string) bool {
		if c.opts.Exceptions.SkipsClass(name) {
			log.Debugf("class %s skipped by exception table", name)
			return true
		}
		return false
	}
	if c.opts.Selection == SelectFull {
		for _, cls := range c.api.Classes {
			if !skip(cls.Name) {
				c.selected[cls.Name] = true
			}
		}
		return
	}
	for _, name := range MinimalClasses {
		if _, ok := c.classes[name]; ok && !skip(name) {
			c.selected[name] = true
		}
	}
}

// API returns the description the context was built from.
func (c *Context) API() *extapi.ExtensionAPI { return c.api }

// Options returns the options the context was built with.
func (c *Context) Options() Options { return c.opts }

// Packages returns the configured import paths.
func (c *Context) Packages() Packages { return c.opts.Packages }

// Exceptions returns the exception table, which may be nil.
func (c *Context) Exceptions() *exceptions.Table { return c.opts.Exceptions }

// Class returns a class definition by name.
func (c *Context) Class(name string) (*extapi.ClassDef, bool) {
	def, ok := c.classes[name]
	return def, ok
}

// Chain returns the inheritance chain of class from its root down to the
// class itself.
func (c *Context) Chain(class string) []string {
	return c.chains[class]
}

// IsSelected reports whether class gets a generated module.
func (c *Context) IsSelected(class string) bool {
	return c.selected[class]
}

// SelectedClasses lists the selected classes in declaration order.
func (c *Context) SelectedClasses() []*extapi.ClassDef {
	var out []*extapi.ClassDef
	for i := range c.api.Classes {
		if c.selected[c.api.Classes[i].Name] {
			out = append(out, &c.api.Classes[i])
		}
	}
	return out
}

// SelectedAncestors lists the selected ancestors of class, nearest first.
func (c *Context) SelectedAncestors(class string) []string {
	chain := c.chains[class]
	var out []string
	for i := len(chain) - 2; i >= 0; i-- {
		if c.selected[chain[i]] {
			out = append(out, chain[i])
		}
	}
	return out
}

// Base returns the nearest selected ancestor of class, or "" for a root.
func (c *Context) Base(class string) string {
	if anc := c.SelectedAncestors(class); len(anc) > 0 {
		return anc[0]
	}
	return ""
}

// IsDefaultConstructible reports whether builtin has an argument-less
// constructor at index 0 and a known size.
func (c *Context) IsDefaultConstructible(builtin string) bool {
	return c.defaultConstructible[builtin]
}

// BuiltinSize returns the size of builtin in the targeted configuration.
func (c *Context) BuiltinSize(builtin string) (int, bool) {
	size, ok := c.api.BuiltinSizes[c.opts.Configuration][builtin]
	return size, ok
}

// Virtuals returns the flattened virtual set of class: inherited entries
// first, a redefinition with the same name and arity replacing the
// inherited entry in place.
func (c *Context) Virtuals(class string) []VirtualMethod {
	return c.virtuals[class]
}

// MethodSet returns every method visible on class, own definitions
// replacing inherited ones of the same name.
func (c *Context) MethodSet(class string) []InheritedMethod {
	var out []InheritedMethod
	index := make(map[string]int)
	for _, name := range c.chains[class] {
		for _, m := range c.classes[name].Methods {
			entry := InheritedMethod{Class: name, Method: m}
			if i, ok := index[m.Name]; ok {
				out[i] = entry
				continue
			}
			index[m.Name] = len(out)
			out = append(out, entry)
		}
	}
	return out
}

// IsVirtual applies ForceVirtual and ForceNonVirtual rules to m.
func (c *Context) IsVirtual(class string, m extapi.MethodDef) bool {
	if p, ok := c.opts.Exceptions.Method(class, m.Name); ok {
		switch p.Kind {
		case exceptions.ForceVirtual:
			return !m.IsStatic
		case exceptions.ForceNonVirtual:
			return !m.HasHash && m.IsVirtual
		}
	}
	return m.IsVirtual
}

// Signature returns the parameters and return type to generate for a method
// or, with class "", a utility function. Forced signatures replace the
// described ones.
func (c *Context) Signature(class, method string, params []extapi.Param, ret *extapi.TypeRef) ([]extapi.Param, *extapi.TypeRef) {
	p, ok := c.opts.Exceptions.Method(class, method)
	if !ok || p.Kind != exceptions.ForceSignature || p.Signature == nil || c.brokenSignatures[class+"|"+method] {
		return params, ret
	}
	return p.Signature.Params, p.Signature.Return
}

// GoName returns the Go identifier for a method or utility, applying
// Rename rules.
func (c *Context) GoName(class, method string) string {
	if p, ok := c.opts.Exceptions.Method(class, method); ok && p.Kind == exceptions.Rename && p.Name != "" {
		return p.Name
	}
	return GoMethodName(method)
}

// Resolve returns the Go representation of t. Types seen during
// BuildContext come from the memo table; anything else is classified on
// the spot without being stored. An unresolvable type panics with a
// *extapi.ModelError.
func (c *Context) Resolve(t extapi.TypeRef) Ty {
	if ty, ok := c.types[typeKey(t)]; ok {
		return ty
	}
	ty, err := c.classify(t)
	if err != nil {
		panic(err)
	}
	return ty
}

// IsExcluded reports whether a signature references a class that is not
// generated, directly, as an array element, or as an enum's scope.
func (c *Context) IsExcluded(params []extapi.Param, ret *extapi.TypeRef) bool {
	refs := make([]extapi.TypeRef, 0, len(params)+1)
	for _, p := range params {
		refs = append(refs, p.Type)
	}
	if ret != nil {
		refs = append(refs, *ret)
	}
	for _, t := range refs {
		if cls := referencedClass(c.Resolve(t)); cls != "" && !c.selected[cls] {
			return true
		}
	}
	return false
}

// Singleton reports whether class is an engine singleton.
func (c *Context) Singleton(class string) (extapi.SingletonDef, bool) {
	s, ok := c.singletons[class]
	return s, ok
}

// Enum returns the enum with the given key: its name for global enums,
// "Scope.Name" otherwise.
func (c *Context) Enum(key string) (*EnumInfo, bool) {
	info, ok := c.enums[key]
	return info, ok
}

// SysEnums lists global and builtin enums in declaration order.
func (c *Context) SysEnums() []*EnumInfo {
	return c.sysEnums
}
