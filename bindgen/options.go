// Package bindgen turns a loaded extension API description into Go binding
// sources for the sys and core packages.
package bindgen

import (
	"fmt"
	"path"

	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gdbind.bindgen")

// Packages are the import paths generated code refers to. FFI and Builtin
// are hand-written runtime packages; Sys and Core are generated.
type Packages struct {
	FFI     string
	Builtin string
	Sys     string
	Core    string
}

// DefaultPackages lays the runtime and generated packages out under one
// module root.
func DefaultPackages(module string) Packages {
	return Packages{
		FFI:     path.Join(module, "ffi"),
		Builtin: path.Join(module, "builtin"),
		Sys:     path.Join(module, "sys"),
		Core:    path.Join(module, "core"),
	}
}

// Classes is the import path of the generated classes package.
func (p Packages) Classes() string {
	return path.Join(p.Core, "classes")
}

// SelectionMode chooses which engine classes get bindings.
type SelectionMode int

const (
	// SelectMinimal generates the MinimalClasses allow-list only.
	SelectMinimal SelectionMode = iota
	// SelectFull generates every described class.
	SelectFull
)

func (m SelectionMode) String() string {
	if m == SelectFull {
		return "all"
	}
	return "minimal"
}

// ParseSelectionMode accepts "minimal", "all" and "full".
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch s {
	case "", "minimal":
		return SelectMinimal, nil
	case "all", "full":
		return SelectFull, nil
	}
	return 0, fmt.Errorf("unknown class selection %q (want minimal or all)", s)
}

// Options parameterize a Context.
type Options struct {
	Configuration extapi.BuildConfiguration
	Selection     SelectionMode
	Packages      Packages
	// Exceptions may be nil for no overrides.
	Exceptions *exceptions.Table
}
