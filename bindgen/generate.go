package bindgen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
	"github.com/chazu/gdbind/watch"
)

// StatsFile is the name of the timing report written after a run.
const StatsFile = "codegen-stats.txt"

// Loader obtains the API description and the build configuration it is
// generated for. extapi.Load wrapped in a closure is the usual choice.
type Loader func(ctx context.Context) (*extapi.ExtensionAPI, extapi.BuildConfiguration, error)

// Config drives one generation run.
type Config struct {
	Load Loader
	// Options.Configuration is replaced by the loader's result.
	Options   Options
	StubsOnly bool
	// Formatter runs over every written file. Nil leaves files as rendered.
	Formatter Formatter
	// RuntimeDir, when set, is the directory packages are loaded from to
	// check the builtin runtime package.
	RuntimeDir string
	// StatsDir receives StatsFile. Empty disables the report.
	StatsDir string
	Writer   Writer
}

// Result summarizes a run.
type Result struct {
	Written        []string
	Mismatches     []exceptions.Mismatch
	MissingRuntime []string
}

// GenerateSysFiles writes the sys package under root.
func GenerateSysFiles(ctx context.Context, cfg Config, root string) (*Result, error) {
	return cfg.run(ctx, root, "")
}

// GenerateCoreFiles writes the core package, its classes subpackage and
// the utilities under root.
func GenerateCoreFiles(ctx context.Context, cfg Config, root string) (*Result, error) {
	return cfg.run(ctx, "", root)
}

// GenerateAll writes both packages from a single load.
func GenerateAll(ctx context.Context, cfg Config, sysRoot, coreRoot string) (*Result, error) {
	return cfg.run(ctx, sysRoot, coreRoot)
}

func (cfg Config) run(ctx context.Context, sysRoot, coreRoot string) (*Result, error) {
	w := watch.Start()
	res := &Result{}

	if cfg.StubsOnly {
		stub := BuildContext(&extapi.ExtensionAPI{}, cfg.Options)
		if sysRoot != "" {
			if err := cfg.write(res, sysRoot, []OutputFile{GenerateSysMod(stub, true)}); err != nil {
				return nil, err
			}
		}
		if coreRoot != "" {
			files := []OutputFile{GenerateCoreMod(stub, true), GenerateClassesMod(stub, true)}
			if err := cfg.write(res, coreRoot, files); err != nil {
				return nil, err
			}
		}
		w.Record("stubs")
		cfg.finish(ctx, w, res)
		return res, nil
	}

	if cfg.Load == nil {
		return nil, fmt.Errorf("no loader configured")
	}
	api, bc, err := cfg.Load(ctx)
	if err != nil {
		return nil, err
	}
	w.Record("load")

	opts := cfg.Options
	opts.Configuration = bc
	res.Mismatches = opts.Exceptions.Mismatches(api)
	for _, m := range res.Mismatches {
		log.Warningf("exception table: %s", m)
	}

	gctx, err := buildContext(api, opts)
	if err != nil {
		return nil, err
	}
	w.Record("context")

	if cfg.RuntimeDir != "" {
		missing, err := CheckRuntimePackage(cfg.RuntimeDir, gctx)
		if err != nil {
			log.Warningf("runtime check: %v", err)
		}
		for _, name := range missing {
			log.Warningf("runtime package %s does not declare %s", opts.Packages.Builtin, name)
		}
		res.MissingRuntime = missing
		w.Record("runtime check")
	}

	var sysFiles, coreFiles []OutputFile
	if sysRoot != "" {
		sysFiles = []OutputFile{GenerateSysMod(gctx, false), GenerateSysCentral(gctx)}
	}
	if coreRoot != "" {
		coreFiles = []OutputFile{
			GenerateCoreMod(gctx, false),
			GenerateCoreCentral(gctx),
			GenerateUtilitiesFile(gctx),
			GenerateClassesMod(gctx, false),
		}
		coreFiles = append(coreFiles, GenerateClassFiles(gctx)...)
	}
	w.Record("generate")

	if sysFiles != nil {
		if err := cfg.write(res, sysRoot, sysFiles); err != nil {
			return nil, err
		}
	}
	if coreFiles != nil {
		if err := cfg.write(res, coreRoot, coreFiles); err != nil {
			return nil, err
		}
	}
	w.Record("write")

	cfg.finish(ctx, w, res)
	return res, nil
}

// write replaces the whole root: every run deletes and recreates it, so no
// stale generated file survives an API change.
func (cfg Config) write(res *Result, root string, files []OutputFile) error {
	paths, err := cfg.Writer.Write(root, files, []string{"."})
	if err != nil {
		return err
	}
	res.Written = append(res.Written, paths...)
	return nil
}

func (cfg Config) finish(ctx context.Context, w *watch.Watch, res *Result) {
	if cfg.Formatter != nil && !cfg.Writer.DryRun && len(res.Written) > 0 {
		if err := cfg.Formatter.Format(ctx, res.Written); err != nil {
			log.Warningf("formatting generated files: %v", err)
		}
		w.Record("format")
	}
	if cfg.StatsDir != "" && !cfg.Writer.DryRun {
		w.WriteStatsTo(filepath.Join(cfg.StatsDir, StatsFile))
	}
}

// NewContext is BuildContext returning a broken model as a *extapi.ModelError
// instead of panicking.
func NewContext(api *extapi.ExtensionAPI, opts Options) (*Context, error) {
	return buildContext(api, opts)
}

func buildContext(api *extapi.ExtensionAPI, opts Options) (c *Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			merr, ok := r.(*extapi.ModelError)
			if !ok {
				panic(r)
			}
			err = merr
		}
	}()
	return BuildContext(api, opts), nil
}

// LoadWith adapts extapi.Load to a Loader.
func LoadWith(opts extapi.Options) Loader {
	return func(ctx context.Context) (*extapi.ExtensionAPI, extapi.BuildConfiguration, error) {
		return extapi.Load(ctx, opts)
	}
}
