package extapi

import (
	"context"
	"os"
)

// Options controls where the description comes from and which build
// configuration is targeted.
type Options struct {
	// APIFile, when set, is read directly and the engine is never run.
	APIFile string
	// EnginePath overrides engine discovery.
	EnginePath string
	// CacheDir holds the fingerprint cache. Empty disables caching.
	CacheDir string

	// Configuration, when set, wins over Precision/PointerBits.
	Configuration BuildConfiguration
	Precision     string // "single" or "double"
	PointerBits   int    // 0 means the host width
}

// Load obtains, parses and validates the API description and resolves the
// targeted build configuration. Errors are *LoadError or *ModelError; no
// retry is attempted.
func Load(ctx context.Context, opts Options) (*ExtensionAPI, BuildConfiguration, error) {
	cfg := opts.Configuration
	if cfg == "" {
		var err error
		cfg, err = ConfigurationFor(opts.Precision, opts.PointerBits)
		if err != nil {
			return nil, "", &LoadError{Source: "build configuration", Err: err}
		}
	}

	source, data, err := readDescription(ctx, opts)
	if err != nil {
		return nil, "", err
	}

	api, err := Parse(source, data)
	if err != nil {
		return nil, "", err
	}
	if err := api.CheckLayouts(cfg); err != nil {
		return nil, "", err
	}

	v := VersionFromHeader(api.Header)
	if !v.Supported() {
		log.Warningf("engine %s is older than %s; generated bindings may not match", v, MinSupportedVersion)
	}
	log.Infof("loaded API of %s for %s", api.Header.FullName, cfg)
	return api, cfg, nil
}

func readDescription(ctx context.Context, opts Options) (string, []byte, error) {
	if opts.APIFile != "" {
		data, err := os.ReadFile(opts.APIFile)
		if err != nil {
			return "", nil, &LoadError{Source: opts.APIFile, Err: err}
		}
		return opts.APIFile, data, nil
	}

	engine, err := LocateEngine(opts.EnginePath)
	if err != nil {
		return "", nil, err
	}
	version, err := engine.Version(ctx)
	if err != nil {
		return "", nil, err
	}
	if v, err := ParseVersion(version); err != nil {
		log.Warningf("cannot parse engine version %q: %v", version, err)
	} else if !v.Supported() {
		log.Warningf("engine %s is older than %s", v, MinSupportedVersion)
	}

	fingerprint, err := engine.Fingerprint(version)
	if err != nil {
		return "", nil, err
	}

	cache := openCacheOrWarn(opts.CacheDir)
	if cache != nil {
		defer cache.Close()
		entry, err := cache.Get(ctx, fingerprint)
		switch {
		case err != nil:
			log.Warningf("api cache: %v", err)
		case entry != nil:
			log.Infof("using cached API description for %s (%s)", entry.Version, fingerprint[:12])
			return engine.Path, entry.Description, nil
		}
	}

	log.Noticef("dumping API description from %s (%s)", engine.Path, version)
	data, err := engine.DumpAPI(ctx)
	if err != nil {
		return "", nil, err
	}

	if cache != nil {
		entry := &CacheEntry{Fingerprint: fingerprint, Version: version, Description: data}
		if err := cache.Put(ctx, entry); err != nil {
			log.Warningf("api cache: %v", err)
		}
	}
	return engine.Path, data, nil
}

func openCacheOrWarn(dir string) *Cache {
	if dir == "" {
		return nil
	}
	cache, err := OpenCache(dir)
	if err != nil {
		log.Warningf("api cache disabled: %v", err)
		return nil
	}
	return cache
}
