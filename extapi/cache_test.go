package extapi

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestCacheEntryRoundTrip(t *testing.T) {
	e := &CacheEntry{Fingerprint: "abc123", Version: "4.0.beta10.official", Description: []byte(`{"classes":[]}`)}
	data, err := MarshalEntry(e)
	if err != nil {
		t.Fatalf("MarshalEntry: %v", err)
	}
	again, err := MarshalEntry(e)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("encoding is not deterministic")
	}

	got, err := UnmarshalEntry(data)
	if err != nil {
		t.Fatalf("UnmarshalEntry: %v", err)
	}
	if got.Fingerprint != e.Fingerprint || got.Version != e.Version || !bytes.Equal(got.Description, e.Description) {
		t.Errorf("round trip = %+v", got)
	}

	if _, err := UnmarshalEntry([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestCacheGetPut(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	got, err := cache.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v", got, err)
	}

	e := &CacheEntry{Fingerprint: "fp", Version: "4.1", Description: []byte("one")}
	if err := cache.Put(ctx, e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e.Description = []byte("two")
	if err := cache.Put(ctx, e); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err = cache.Get(ctx, "fp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || string(got.Description) != "two" {
		t.Errorf("Get(fp) = %+v", got)
	}
}

// fakeEngine writes a shell script that behaves like the engine binary:
// it prints a version and dumps the fixture, counting dumps in a file.
func fakeEngine(t *testing.T) (path, counter string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine stub needs a POSIX shell")
	}
	fixture, err := filepath.Abs(fixturePath)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	counter = filepath.Join(dir, "dumps")
	script := strings.Join([]string{
		"#!/bin/sh",
		`if [ "$1" = "--version" ]; then echo 4.0.beta10.official.d0398f62f; exit 0; fi`,
		"echo dump >> " + counter,
		"cp " + fixture + " extension_api.json",
	}, "\n") + "\n"
	path = filepath.Join(dir, "godot4")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path, counter
}

func dumpCount(t *testing.T, counter string) int {
	t.Helper()
	data, err := os.ReadFile(counter)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "dump")
}

func TestLoadFromEngineUsesCache(t *testing.T) {
	engine, counter := fakeEngine(t)
	opts := Options{EnginePath: engine, CacheDir: t.TempDir(), Configuration: Float64}

	for i := 0; i < 2; i++ {
		api, cfg, err := Load(context.Background(), opts)
		if err != nil {
			t.Fatalf("Load #%d: %v", i+1, err)
		}
		if cfg != Float64 || len(api.Classes) == 0 {
			t.Errorf("Load #%d: cfg=%s classes=%d", i+1, cfg, len(api.Classes))
		}
	}
	if n := dumpCount(t, counter); n != 1 {
		t.Errorf("engine dumped %d times, want 1", n)
	}
}

func TestLoadWithoutCacheDumpsEachTime(t *testing.T) {
	engine, counter := fakeEngine(t)
	opts := Options{EnginePath: engine, Precision: "single", PointerBits: 64}
	for i := 0; i < 2; i++ {
		if _, _, err := Load(context.Background(), opts); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if n := dumpCount(t, counter); n != 2 {
		t.Errorf("engine dumped %d times, want 2", n)
	}
}

func TestLoadRelativeEnginePath(t *testing.T) {
	engine, counter := fakeEngine(t)
	t.Chdir(filepath.Dir(engine))

	located, err := LocateEngine("./godot4")
	if err != nil {
		t.Fatalf("LocateEngine: %v", err)
	}
	if !filepath.IsAbs(located.Path) {
		t.Errorf("LocateEngine path %q is not absolute", located.Path)
	}

	api, _, err := Load(context.Background(), Options{EnginePath: "./godot4", Configuration: Float64})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(api.Classes) == 0 {
		t.Error("no classes loaded")
	}
	if n := dumpCount(t, counter); n != 1 {
		t.Errorf("engine dumped %d times, want 1", n)
	}
}

func TestFingerprintErrors(t *testing.T) {
	missing := &Engine{Path: filepath.Join(t.TempDir(), "no-such-engine")}
	if _, err := missing.Fingerprint("4.3"); !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("missing binary: %v", err)
	}

	// A directory opens but cannot be read.
	dir := &Engine{Path: t.TempDir()}
	_, err := dir.Fingerprint("4.3")
	var le *LoadError
	if !errors.As(err, &le) || !errors.Is(err, ErrEngineFailed) {
		t.Fatalf("unreadable binary: %v", err)
	}
	if le.Source != dir.Path {
		t.Errorf("Source = %q, want %q", le.Source, dir.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Load(ctx, Options{EnginePath: filepath.Join(t.TempDir(), "no-such-engine")})
	if !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("missing engine: %v", err)
	}

	_, _, err = Load(ctx, Options{APIFile: fixturePath, Precision: "half"})
	var le *LoadError
	if !errors.As(err, &le) {
		t.Errorf("bad precision: %v", err)
	}

	// A description with no size table for the targeted configuration.
	path := filepath.Join(t.TempDir(), "api.json")
	body := `{"classes": [], "builtin_classes": [], "global_enums": [],
		"builtin_class_sizes": [{"build_configuration": "float_64", "sizes": []}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err = Load(ctx, Options{APIFile: path, Configuration: Double64})
	if !errors.Is(err, ErrMissingLayout) {
		t.Errorf("missing layout: %v", err)
	}
	if _, cfg, err := Load(ctx, Options{APIFile: path, Configuration: Float64}); err != nil || cfg != Float64 {
		t.Errorf("Load(float_64) = %s, %v", cfg, err)
	}
}
