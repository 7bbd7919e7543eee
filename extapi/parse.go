package extapi

import (
	"bytes"
	"encoding/json"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// requiredSections must be present at the top level of every description.
var requiredSections = []string{"classes", "builtin_classes", "global_enums"}

type rawAPI struct {
	Header            rawHeader         `json:"header"`
	BuiltinClassSizes []rawSizeConfig   `json:"builtin_class_sizes"`
	GlobalConstants   []rawConstant     `json:"global_constants"`
	GlobalEnums       []rawEnum         `json:"global_enums"`
	UtilityFunctions  []rawUtility      `json:"utility_functions"`
	BuiltinClasses    []rawBuiltin      `json:"builtin_classes"`
	Classes           []rawClass        `json:"classes"`
	Singletons        []rawSingleton    `json:"singletons"`
	NativeStructures  []rawNativeStruct `json:"native_structures"`
}

type rawHeader struct {
	VersionMajor    int    `json:"version_major"`
	VersionMinor    int    `json:"version_minor"`
	VersionPatch    int    `json:"version_patch"`
	VersionStatus   string `json:"version_status"`
	VersionBuild    string `json:"version_build"`
	VersionFullName string `json:"version_full_name"`
}

type rawSizeConfig struct {
	BuildConfiguration string `json:"build_configuration"`
	Sizes              []struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	} `json:"sizes"`
}

type rawConstant struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type rawEnum struct {
	Name       string `json:"name"`
	IsBitfield bool   `json:"is_bitfield"`
	Values     []struct {
		Name  string `json:"name"`
		Value int64  `json:"value"`
	} `json:"values"`
}

type rawArg struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Meta         string  `json:"meta"`
	DefaultValue *string `json:"default_value"`
}

type rawReturn struct {
	Type string `json:"type"`
	Meta string `json:"meta"`
}

type rawMethod struct {
	Name        string     `json:"name"`
	IsConst     bool       `json:"is_const"`
	IsStatic    bool       `json:"is_static"`
	IsVararg    bool       `json:"is_vararg"`
	IsVirtual   bool       `json:"is_virtual"`
	Hash        *int64     `json:"hash"`
	ReturnValue *rawReturn `json:"return_value"` // engine classes
	ReturnType  string     `json:"return_type"`  // builtins
	Arguments   []rawArg   `json:"arguments"`
}

type rawUtility struct {
	Name       string   `json:"name"`
	ReturnType string   `json:"return_type"`
	Category   string   `json:"category"`
	IsVararg   bool     `json:"is_vararg"`
	Hash       *int64   `json:"hash"`
	Arguments  []rawArg `json:"arguments"`
}

type rawBuiltin struct {
	Name               string `json:"name"`
	IndexingReturnType string `json:"indexing_return_type"`
	HasDestructor      bool   `json:"has_destructor"`
	Constructors       []struct {
		Index     int      `json:"index"`
		Arguments []rawArg `json:"arguments"`
	} `json:"constructors"`
	Operators []struct {
		Name       string `json:"name"`
		RightType  string `json:"right_type"`
		ReturnType string `json:"return_type"`
	} `json:"operators"`
	Methods []rawMethod `json:"methods"`
	Enums   []rawEnum   `json:"enums"`
}

type rawClass struct {
	Name           string        `json:"name"`
	IsRefcounted   bool          `json:"is_refcounted"`
	IsInstantiable bool          `json:"is_instantiable"`
	Inherits       string        `json:"inherits"`
	APIType        string        `json:"api_type"`
	Constants      []rawConstant `json:"constants"`
	Enums          []rawEnum     `json:"enums"`
	Methods        []rawMethod   `json:"methods"`
}

type rawSingleton struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawNativeStruct struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// ParseFile reads and parses a description from disk.
func ParseFile(path string) (*ExtensionAPI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return Parse(path, data)
}

// Parse decodes a JSON description and checks it for consistency. source
// names the input in errors. The returned error is a *LoadError or a
// *ModelError.
func Parse(source string, data []byte) (*ExtensionAPI, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, loadErr(source, ErrMalformed, "%v", err)
	}
	for _, name := range requiredSections {
		body, ok := sections[name]
		if !ok || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
			return nil, loadErr(source, ErrMissingSection, "%q", name)
		}
	}
	if err := checkShape(data); err != nil {
		return nil, loadErr(source, ErrMalformed, "%v", err)
	}

	var raw rawAPI
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, loadErr(source, ErrMalformed, "%v", err)
	}

	api := convert(&raw)
	if err := api.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("parsed %s: %d classes, %d builtins, %d utilities", source, len(api.Classes), len(api.Builtins), len(api.Utilities))
	return api, nil
}

func convert(raw *rawAPI) *ExtensionAPI {
	api := &ExtensionAPI{
		Header: Header{
			Major:    raw.Header.VersionMajor,
			Minor:    raw.Header.VersionMinor,
			Patch:    raw.Header.VersionPatch,
			Status:   raw.Header.VersionStatus,
			Build:    raw.Header.VersionBuild,
			FullName: raw.Header.VersionFullName,
		},
		GlobalConstants: orderedmap.New[string, int64](),
		BuiltinSizes:    make(map[BuildConfiguration]map[string]int),
	}

	for _, sc := range raw.BuiltinClassSizes {
		cfg := BuildConfiguration(sc.BuildConfiguration)
		sizes := make(map[string]int, len(sc.Sizes))
		for _, s := range sc.Sizes {
			sizes[s.Name] = s.Size
		}
		api.BuiltinSizes[cfg] = sizes
	}

	for _, c := range raw.GlobalConstants {
		api.GlobalConstants.Set(c.Name, c.Value)
	}
	for _, e := range raw.GlobalEnums {
		api.GlobalEnums = append(api.GlobalEnums, convertEnum(e))
	}

	for _, u := range raw.UtilityFunctions {
		fn := UtilityFunctionDef{
			Name:     u.Name,
			Category: u.Category,
			Params:   convertArgs(u.Arguments),
			Return:   returnRef(u.ReturnType, ""),
			IsVararg: u.IsVararg,
		}
		if u.Hash != nil {
			fn.Hash, fn.HasHash = *u.Hash, true
		}
		api.Utilities = append(api.Utilities, fn)
	}

	for _, b := range raw.BuiltinClasses {
		def := BuiltinClassDef{
			Name:               b.Name,
			Sizes:              make(map[BuildConfiguration]int),
			HasDestructor:      b.HasDestructor,
			IndexingReturnType: b.IndexingReturnType,
		}
		for cfg, sizes := range api.BuiltinSizes {
			if size, ok := sizes[b.Name]; ok {
				def.Sizes[cfg] = size
			}
		}
		for _, c := range b.Constructors {
			def.Constructors = append(def.Constructors, ConstructorDef{Index: c.Index, Args: convertArgs(c.Arguments)})
		}
		for _, op := range b.Operators {
			def.Operators = append(def.Operators, OperatorDef{
				Name:       op.Name,
				RightType:  op.RightType,
				ReturnType: TypeRef{Name: op.ReturnType},
			})
		}
		for _, m := range b.Methods {
			def.Methods = append(def.Methods, convertMethod(m))
		}
		for _, e := range b.Enums {
			def.Enums = append(def.Enums, convertEnum(e))
		}
		api.Builtins = append(api.Builtins, def)
	}

	for _, c := range raw.Classes {
		def := ClassDef{
			Name:           c.Name,
			Parent:         c.Inherits,
			IsInstantiable: c.IsInstantiable,
			IsRefcounted:   c.IsRefcounted,
			APIType:        c.APIType,
		}
		for _, m := range c.Methods {
			def.Methods = append(def.Methods, convertMethod(m))
		}
		for _, e := range c.Enums {
			def.Enums = append(def.Enums, convertEnum(e))
		}
		for _, k := range c.Constants {
			def.Constants = append(def.Constants, ConstantDef{Name: k.Name, Value: k.Value})
		}
		api.Classes = append(api.Classes, def)
	}

	for _, s := range raw.Singletons {
		api.Singletons = append(api.Singletons, SingletonDef{Name: s.Name, Type: s.Type})
	}
	for _, n := range raw.NativeStructures {
		api.NativeStructures = append(api.NativeStructures, NativeStructureDef{Name: n.Name, Format: n.Format})
	}
	return api
}

func convertEnum(e rawEnum) EnumDef {
	def := EnumDef{Name: e.Name, IsBitfield: e.IsBitfield}
	for _, v := range e.Values {
		def.Values = append(def.Values, EnumValue{Name: v.Name, Value: v.Value})
	}
	return def
}

func convertArgs(args []rawArg) []Param {
	var params []Param
	for _, a := range args {
		p := Param{Name: a.Name, Type: TypeRef{Name: a.Type, Meta: a.Meta}}
		if a.DefaultValue != nil {
			p.Default, p.HasDefault = *a.DefaultValue, true
		}
		params = append(params, p)
	}
	return params
}

func convertMethod(m rawMethod) MethodDef {
	def := MethodDef{
		Name:      m.Name,
		Params:    convertArgs(m.Arguments),
		IsStatic:  m.IsStatic,
		IsVirtual: m.IsVirtual,
		IsConst:   m.IsConst,
		IsVararg:  m.IsVararg,
	}
	if m.ReturnValue != nil {
		def.Return = returnRef(m.ReturnValue.Type, m.ReturnValue.Meta)
	} else {
		def.Return = returnRef(m.ReturnType, "")
	}
	if m.Hash != nil {
		def.Hash, def.HasHash = *m.Hash, true
	}
	return def
}

func returnRef(name, meta string) *TypeRef {
	if name == "" || name == "void" {
		return nil
	}
	return &TypeRef{Name: name, Meta: meta}
}
