package bindgen

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// predeclared identifiers a generated parameter must not shadow.
var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true,
	"complex128": true, "error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true, "rune": true,
	"string": true, "uint": true, "uint8": true, "uint16": true, "uint32": true,
	"uint64": true, "uintptr": true, "true": true, "false": true, "iota": true,
	"nil": true, "append": true, "cap": true, "clear": true, "close": true,
	"complex": true, "copy": true, "delete": true, "imag": true, "len": true,
	"make": true, "max": true, "min": true, "new": true, "panic": true,
	"print": true, "println": true, "real": true, "recover": true,
}

// packageNames are the import names used by generated files.
var packageNames = []string{"ffi", "builtin", "sys", "core", "classes", "unsafe", "fmt"}

// GoMethodName converts an engine method or utility name to an exported Go
// name: "get_position" → "GetPosition", "_process" → "Process".
func GoMethodName(name string) string {
	return strcase.ToCamel(name)
}

// GoParamName converts an engine parameter name to a Go identifier that
// does not collide with keywords or predeclared names.
func GoParamName(name string) string {
	id := strcase.ToLowerCamel(name)
	if id == "" {
		id = "arg"
	}
	if token.IsKeyword(id) || predeclared[id] {
		id += "_"
	}
	return id
}

// GoEnumName names an enum type. Scoped enums are prefixed with their
// scope: ("Node", "ProcessMode") → "NodeProcessMode"; global
// "Variant.Type" → "VariantType".
func GoEnumName(scope, name string) string {
	full := name
	if scope != "" {
		full = scope + "." + name
	}
	var b strings.Builder
	for _, part := range strings.Split(full, ".") {
		b.WriteString(toExported(part))
	}
	return b.String()
}

// enumValueSuffix strips the enum's own prefix from a value name when what
// remains is still a usable identifier:
// ("ProcessMode", "PROCESS_MODE_INHERIT") → "Inherit".
func enumValueSuffix(enumName, value string) string {
	last := enumName
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		last = last[i+1:]
	}
	prefix := strcase.ToScreamingSnake(last) + "_"
	if rest, ok := strings.CutPrefix(value, prefix); ok && rest != "" && !isDigit(rest[0]) {
		return strcase.ToCamel(rest)
	}
	return strcase.ToCamel(value)
}

// GoConstName joins a prefix with a SCREAMING_SNAKE engine constant:
// ("Node", "NOTIFICATION_READY") → "NodeNotificationReady".
func GoConstName(prefix, name string) string {
	return prefix + strcase.ToCamel(name)
}

// FileName is the source file generated for a class.
func FileName(class string) string {
	return strings.ToLower(class) + ".go"
}

// toExported capitalizes an identifier that is already CamelCase and
// converts anything else.
func toExported(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, "_ -") || s == strings.ToLower(s) {
		return strcase.ToCamel(s)
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// intLit renders an integer as an untyped constant.
func intLit(v int64) string {
	return strconv.FormatInt(v, 10)
}

// namer hands out identifiers that are unique within one scope: a package,
// a struct's method set, or a function body.
type namer struct {
	used map[string]bool
}

func newNamer(reserved ...string) *namer {
	n := &namer{used: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

func (n *namer) clone() *namer {
	c := newNamer()
	for k := range n.used {
		c.used[k] = true
	}
	return c
}

// reserve marks names as taken without checking.
func (n *namer) reserve(names ...string) {
	for _, name := range names {
		n.used[name] = true
	}
}

func (n *namer) taken(name string) bool {
	return n.used[name]
}

// unique returns name, or name with the smallest numeric suffix that is free.
func (n *namer) unique(name string) string {
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}

// param returns a unique parameter or local name. Collisions get a trailing
// underscore first, which reads better than a number for locals.
func (n *namer) param(name string) string {
	id := GoParamName(name)
	if n.used[id] {
		id += "_"
	}
	return n.unique(id)
}

// funcScope starts a namer for a generated function body.
func funcScope(locals ...string) *namer {
	n := newNamer(packageNames...)
	n.reserve(locals...)
	return n
}
