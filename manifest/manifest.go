// Package manifest handles gdbind.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chazu/gdbind/bindgen"
	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "gdbind.toml"

// DefaultModule roots the runtime and generated packages when
// [packages] sets no module.
const DefaultModule = "github.com/chazu/gdbind/godot"

// Manifest represents a gdbind.toml configuration.
type Manifest struct {
	Engine     Engine                   `toml:"engine"`
	Build      Build                    `toml:"build"`
	Output     Output                   `toml:"output"`
	Generate   Generate                 `toml:"generate"`
	Packages   Packages                 `toml:"packages"`
	Exceptions []exceptions.RuleConfig `toml:"exceptions"`

	// Dir is the directory containing the gdbind.toml file (set at load time).
	Dir string `toml:"-"`
}

// Engine locates the engine binary or a pre-dumped description.
type Engine struct {
	Binary   string `toml:"binary"`
	APIFile  string `toml:"api-file"`
	CacheDir string `toml:"cache-dir"`
}

// Build selects the builtin layout.
type Build struct {
	Configuration string `toml:"configuration"`
	Precision     string `toml:"precision"`
	PointerBits   int    `toml:"pointer-bits"`
}

// Output holds the generated package roots.
type Output struct {
	Sys  string `toml:"sys"`
	Core string `toml:"core"`
}

// Generate configures what is generated and how it is post-processed.
type Generate struct {
	StubsOnly    bool   `toml:"stubs-only"`
	Classes      string `toml:"classes"`
	Format       bool   `toml:"format"`
	Formatter    string `toml:"formatter"`
	CheckRuntime bool   `toml:"check-runtime"`
}

// Packages sets the import paths generated code uses. Module is the
// default root for any path left empty.
type Packages struct {
	Module  string `toml:"module"`
	FFI     string `toml:"ffi"`
	Builtin string `toml:"builtin"`
	Sys     string `toml:"sys"`
	Core    string `toml:"core"`
}

// Default is the configuration used when no gdbind.toml exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.Generate.Format = true
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Output.Sys == "" {
		m.Output.Sys = "sys"
	}
	if m.Output.Core == "" {
		m.Output.Core = "core"
	}
	if m.Engine.CacheDir == "" {
		m.Engine.CacheDir = filepath.Join(".gdbind", "cache")
	}
	if m.Packages.Module == "" {
		m.Packages.Module = DefaultModule
	}
	if m.Generate.Classes == "" {
		m.Generate.Classes = "minimal"
	}
}

// Load parses a gdbind.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Manifest{Generate: Generate{Format: true}}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a gdbind.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// resolve makes p absolute against the manifest directory.
func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// SysDir returns the absolute sys output root.
func (m *Manifest) SysDir() string {
	return m.resolve(m.Output.Sys)
}

// CoreDir returns the absolute core output root.
func (m *Manifest) CoreDir() string {
	return m.resolve(m.Output.Core)
}

// enginePath resolves engine.binary against the manifest directory when it
// is a path. A bare name is left for the PATH lookup.
func (m *Manifest) enginePath() string {
	if !strings.ContainsRune(filepath.ToSlash(m.Engine.Binary), '/') {
		return m.Engine.Binary
	}
	return m.resolve(m.Engine.Binary)
}

// APIOptions converts the engine and build sections for extapi.Load.
func (m *Manifest) APIOptions() (extapi.Options, error) {
	opts := extapi.Options{
		APIFile:     m.resolve(m.Engine.APIFile),
		EnginePath:  m.enginePath(),
		CacheDir:    m.resolve(m.Engine.CacheDir),
		Precision:   m.Build.Precision,
		PointerBits: m.Build.PointerBits,
	}
	if m.Build.Configuration != "" {
		cfg, err := extapi.ParseBuildConfiguration(m.Build.Configuration)
		if err != nil {
			return extapi.Options{}, fmt.Errorf("%s: %w", FileName, err)
		}
		opts.Configuration = cfg
	}
	return opts, nil
}

// ExceptionTable overlays the [[exceptions]] entries on the built-in table.
func (m *Manifest) ExceptionTable() (*exceptions.Table, error) {
	t, err := exceptions.Overlay(exceptions.Default(), m.Exceptions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return t, nil
}

// ImportPaths returns the configured import paths, filling gaps from the
// module root.
func (m *Manifest) ImportPaths() bindgen.Packages {
	p := bindgen.DefaultPackages(m.Packages.Module)
	for _, o := range []struct {
		dst *string
		val string
	}{
		{&p.FFI, m.Packages.FFI},
		{&p.Builtin, m.Packages.Builtin},
		{&p.Sys, m.Packages.Sys},
		{&p.Core, m.Packages.Core},
	} {
		if o.val != "" {
			*o.dst = o.val
		}
	}
	return p
}

// Options assembles the generator options. The build configuration is
// filled in by the loader.
func (m *Manifest) Options() (bindgen.Options, error) {
	sel, err := bindgen.ParseSelectionMode(m.Generate.Classes)
	if err != nil {
		return bindgen.Options{}, fmt.Errorf("%s: %w", FileName, err)
	}
	table, err := m.ExceptionTable()
	if err != nil {
		return bindgen.Options{}, err
	}
	return bindgen.Options{Selection: sel, Packages: m.ImportPaths(), Exceptions: table}, nil
}
