package exceptions

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/chazu/gdbind/extapi"
	"github.com/google/go-cmp/cmp"
)

func loadFixture(t *testing.T) *extapi.ExtensionAPI {
	t.Helper()
	api, err := extapi.ParseFile("../testdata/extension_api.json")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return api
}

func TestTableLookup(t *testing.T) {
	tbl := New(
		Rule{Class: "Thread", Policy: Policy{Kind: Skip}},
		Rule{Class: "Node", Method: "get_name", Policy: Policy{Kind: Rename, Name: "Name"}},
		Rule{Method: "print", Policy: Policy{Kind: Skip}},
	)

	if !tbl.SkipsClass("Thread") || tbl.SkipsClass("Node") {
		t.Error("class skip lookup wrong")
	}
	p, ok := tbl.Method("Node", "get_name")
	if !ok || p.Kind != Rename || p.Name != "Name" {
		t.Errorf("Method(Node, get_name) = %+v, %v", p, ok)
	}
	if _, ok := tbl.Method("Node2D", "get_name"); ok {
		t.Error("rules must not apply to subclasses")
	}
	if !tbl.SkipsMethod("", "print") {
		t.Error("utility skip not found")
	}
	if _, ok := tbl.Utility("print"); !ok {
		t.Error("Utility(print) not found")
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	if tbl.SkipsClass("Node") || tbl.SkipsMethod("Node", "x") || tbl.Len() != 0 || tbl.Rules() != nil {
		t.Error("nil table should be empty")
	}
	over := tbl.With(Rule{Class: "Node", Policy: Policy{Kind: Skip}})
	if !over.SkipsClass("Node") {
		t.Error("With on nil table lost the rule")
	}
}

func TestWithOverridesAndKeepsOrder(t *testing.T) {
	base := New(
		Rule{Class: "A", Policy: Policy{Kind: Skip}},
		Rule{Class: "B", Method: "f", Policy: Policy{Kind: Skip}},
	)
	over := base.With(
		Rule{Class: "B", Method: "f", Policy: Policy{Kind: Rename, Name: "G"}},
		Rule{Class: "C", Policy: Policy{Kind: Skip}},
	)

	var got []string
	for _, r := range over.Rules() {
		got = append(got, r.String())
	}
	want := []string{"skip A", "rename B.f -> G", "skip C"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rules (-want +got):\n%s", diff)
	}
	if p, _ := base.Method("B", "f"); p.Kind != Skip {
		t.Error("With mutated the base table")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"skip", Skip},
		{"Rename", Rename},
		{"force-signature", ForceSignature},
		{"force_virtual", ForceVirtual},
		{" force-non-virtual ", ForceNonVirtual},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseKind("explode"); err == nil {
		t.Error("expected error")
	}
}

func TestDefaultAgainstFixture(t *testing.T) {
	api := loadFixture(t)
	tbl := Default()
	if !tbl.SkipsClass("Thread") {
		t.Error("Thread should be skipped")
	}
	if !tbl.SkipsMethod("ResourceLoader", "load_threaded_get") {
		t.Error("load_threaded_get should be skipped")
	}

	mismatched := map[string]bool{}
	for _, m := range tbl.Mismatches(api) {
		mismatched[m.Rule.String()] = true
	}
	for _, want := range []string{"skip Mutex", "skip Object.to_string", "skip ResourceLoader.load_threaded_request"} {
		if !mismatched[want] {
			t.Errorf("expected mismatch for %q", want)
		}
	}
	for _, ok := range []string{"skip Thread", "skip Object.get_instance_id", "rename Object.get_class -> GetClassName"} {
		if mismatched[ok] {
			t.Errorf("unexpected mismatch for %q", ok)
		}
	}
}

func TestMismatchSuggestions(t *testing.T) {
	api := loadFixture(t)
	tbl := New(
		Rule{Class: "Nod2D", Policy: Policy{Kind: Skip}},
		Rule{Class: "Node", Method: "add_chlid", Policy: Policy{Kind: Skip}},
		Rule{Method: "prnt", Policy: Policy{Kind: Skip}},
		Rule{Class: "Node", Policy: Policy{Kind: Rename, Name: "N"}},
		Rule{Method: "sin", Policy: Policy{Kind: ForceVirtual}},
		Rule{Class: "Node", Method: "_ready", Policy: Policy{Kind: ForceNonVirtual}},
		Rule{Class: "Completely", Method: "different", Policy: Policy{Kind: Skip}},
	)

	got := tbl.Mismatches(api)
	if len(got) != 7 {
		for _, m := range got {
			t.Log(m)
		}
		t.Fatalf("got %d mismatches, want 7", len(got))
	}
	wantSuggestions := []string{"Node2D", "add_child", "print", "", "", "", ""}
	for i, m := range got {
		if m.Suggestion != wantSuggestions[i] {
			t.Errorf("mismatch %d (%s): suggestion %q, want %q", i, m.Rule, m.Suggestion, wantSuggestions[i])
		}
	}
	if !strings.Contains(got[0].String(), `did you mean "Node2D"`) {
		t.Errorf("String() = %q", got[0].String())
	}
}

func TestOverlayFromTOML(t *testing.T) {
	const doc = `
[[exceptions]]
class = "Node"
method = "get_child"
kind = "force-signature"
return = "Node"
params = [{name = "index", type = "int", meta = "int32"}]

[[exceptions]]
method = "sin"
kind = "skip"

[[exceptions]]
class = "Node"
method = "print_tree"
kind = "rename"
name = "DumpTree"
`
	var cfg struct {
		Exceptions []RuleConfig `toml:"exceptions"`
	}
	if _, err := toml.Decode(doc, &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tbl, err := Overlay(Default(), cfg.Exceptions)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	p, ok := tbl.Method("Node", "get_child")
	if !ok || p.Kind != ForceSignature {
		t.Fatalf("get_child policy = %+v, %v", p, ok)
	}
	want := &Signature{
		Params: []extapi.Param{{Name: "index", Type: extapi.TypeRef{Name: "int", Meta: "int32"}}},
		Return: &extapi.TypeRef{Name: "Node"},
	}
	if diff := cmp.Diff(want, p.Signature); diff != "" {
		t.Errorf("signature (-want +got):\n%s", diff)
	}
	if !tbl.SkipsMethod("", "sin") || !tbl.SkipsClass("Thread") {
		t.Error("overlay lost rules")
	}
	if p, _ := tbl.Method("Node", "print_tree"); p.Name != "DumpTree" {
		t.Errorf("rename = %+v", p)
	}

	if _, err := Overlay(nil, []RuleConfig{{Class: "A", Kind: "rename"}}); err == nil {
		t.Error("rename without name should fail")
	}
	if _, err := Overlay(nil, []RuleConfig{{Class: "A", Kind: "bogus"}}); err == nil {
		t.Error("unknown kind should fail")
	}
}
