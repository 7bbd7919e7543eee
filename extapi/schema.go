package extapi

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gdbind.extapi")

// apiSchema constrains the shape of the sections the generator reads.
// Structs stay open so newer engine versions may add fields.
const apiSchema = `
#Arg: {
	name:           string
	type:           string
	meta?:          string
	default_value?: string
	...
}

#Enum: {
	name:         string
	is_bitfield?: bool
	values: [...{name: string, value: int, ...}]
	...
}

#Method: {
	name:        string
	is_const?:   bool
	is_static?:  bool
	is_vararg?:  bool
	is_virtual?: bool
	hash?:       int
	return_type?: string
	return_value?: {type: string, meta?: string, ...}
	arguments?: [...#Arg]
	...
}

header?: {
	version_major: int
	version_minor: int
	version_patch: int
	...
}

builtin_class_sizes?: [...{
	build_configuration: "float_32" | "float_64" | "double_32" | "double_64"
	sizes: [...{name: string, size: int & >=0}]
	...
}]

global_constants?: [...{name: string, value: int, ...}]
global_enums: [...#Enum]

utility_functions?: [...{
	name:        string
	return_type?: string
	is_vararg?:  bool
	hash?:       int
	arguments?: [...#Arg]
	...
}]

builtin_classes: [...{
	name:            string
	has_destructor?: bool
	constructors?: [...{index: int, arguments?: [...#Arg], ...}]
	operators?: [...{name: string, right_type?: string, return_type: string, ...}]
	methods?: [...#Method]
	enums?: [...#Enum]
	...
}]

classes: [...{
	name:             string
	inherits?:        string
	is_refcounted?:   bool
	is_instantiable?: bool
	constants?: [...{name: string, value: int, ...}]
	enums?: [...#Enum]
	methods?: [...#Method]
	...
}]

singletons?: [...{name: string, type: string, ...}]
native_structures?: [...{name: string, format: string, ...}]
`

// checkShape validates data against apiSchema.
func checkShape(data []byte) error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(apiSchema, cue.Filename("extension_api.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	expr, err := cuejson.Extract("extension_api.json", data)
	if err != nil {
		return err
	}
	doc := cctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return err
	}

	if err := schema.Unify(doc).Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
