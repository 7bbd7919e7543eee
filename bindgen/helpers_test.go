package bindgen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
)

const (
	fixturePath = "../testdata/extension_api.json"
	testModule  = "example.com/gd"
)

func loadFixture(t *testing.T) *extapi.ExtensionAPI {
	t.Helper()
	api, err := extapi.ParseFile(fixturePath)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return api
}

func testOptions(cfg extapi.BuildConfiguration, sel SelectionMode) Options {
	return Options{
		Configuration: cfg,
		Selection:     sel,
		Packages:      DefaultPackages(testModule),
		Exceptions:    exceptions.Default(),
	}
}

func fixtureContext(t *testing.T, sel SelectionMode) *Context {
	t.Helper()
	return BuildContext(loadFixture(t), testOptions(extapi.Float64, sel))
}

// render renders a generated file and checks that it parses as Go.
func render(t *testing.T, f OutputFile) string {
	t.Helper()
	src, err := f.Render()
	if err != nil {
		t.Fatalf("Render(%s): %v", f.Path, err)
	}
	if _, err := parser.ParseFile(token.NewFileSet(), f.Path, src, parser.AllErrors); err != nil {
		t.Fatalf("%s does not parse: %v\n%s", f.Path, err, src)
	}
	return string(src)
}

func findFile(t *testing.T, files []OutputFile, path string) OutputFile {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("no generated file %s", path)
	return OutputFile{}
}

func assertContains(t *testing.T, src string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func assertNotContains(t *testing.T, src string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(src, u) {
			t.Errorf("output unexpectedly contains %q", u)
		}
	}
}

// assertMatches checks patterns whose whitespace gofmt aligns.
func assertMatches(t *testing.T, src string, patterns ...string) {
	t.Helper()
	for _, p := range patterns {
		if !regexp.MustCompile(p).MatchString(src) {
			t.Errorf("output does not match %q", p)
		}
	}
}

func updateGolden(t *testing.T, path, content string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("updating golden file: %v", err)
	}
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file %s does not exist. Run with UPDATE_GOLDEN=1 to create.", path)
	}
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	if string(expected) != got {
		t.Errorf("output differs from golden file %s.\nRun with UPDATE_GOLDEN=1 to update.", path)
	}
}
