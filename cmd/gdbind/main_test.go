package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = "../../testdata/extension_api.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate", "-C", dir, "--api-file", fixture, "--configuration", "float_64", "--no-format")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}

	for _, rel := range []string{"sys/mod.go", "sys/central.go", "core/utilities.go", "core/classes/node2d.go"} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
		if !strings.Contains(out, filepath.FromSlash(rel)) {
			t.Errorf("output does not list %s:\n%s", rel, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "core", "classes", "thread.go")); err == nil {
		t.Error("thread.go generated in minimal mode")
	}
}

func TestGenerateManifestAndFlags(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(fixture)
	if err != nil {
		t.Fatal(err)
	}
	manifest := "[engine]\napi-file = \"" + filepath.ToSlash(abs) + "\"\n\n[build]\nconfiguration = \"double_64\"\n\n[output]\nsys = \"gen/sys\"\ncore = \"gen/core\"\n\n[generate]\nformat = false\n"
	if err := os.WriteFile(filepath.Join(dir, "gdbind.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "generate", "sys", "-C", sub, "--dry-run")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "gen")); err == nil {
		t.Error("dry run created output")
	}

	out, err = execute(t, "generate", "sys", "-C", sub)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	central, err := os.ReadFile(filepath.Join(dir, "gen", "sys", "central.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(central, []byte("gdext_double")) {
		t.Error("double_64 central.go lacks the double build tag")
	}
	if _, err := os.Stat(filepath.Join(dir, "gen", "core")); err == nil {
		t.Error("sys target wrote core")
	}
}

func TestGenerateRejectsUnknownTarget(t *testing.T) {
	if _, err := execute(t, "generate", "everything"); err == nil {
		t.Fatal("expected an error for an unknown target")
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "inspect", "Button", "-C", dir, "--api-file", fixture, "--configuration", "float_64")
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{"Object -> Node -> CanvasItem -> Control -> BaseButton -> Button", "embeds:    BaseButton", "_pressed", "_draw"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "inspect", "NoSuchClass", "-C", dir, "--api-file", fixture); err == nil {
		t.Error("expected an error for an unknown class")
	}
}
