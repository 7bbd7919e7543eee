package bindgen

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/gdbind/exceptions"
	"github.com/chazu/gdbind/extapi"
)

func TestOneFilePerSelectedClass(t *testing.T) {
	ctx := fixtureContext(t, SelectMinimal)
	files := GenerateClassFiles(ctx)

	selected := ctx.SelectedClasses()
	if len(files) != len(selected) {
		t.Fatalf("got %d files for %d classes", len(files), len(selected))
	}
	seen := make(map[string]bool)
	for i, f := range files {
		want := "classes/" + FileName(selected[i].Name)
		if f.Path != want {
			t.Errorf("file %d = %s, want %s", i, f.Path, want)
		}
		if seen[f.Path] {
			t.Errorf("duplicate file %s", f.Path)
		}
		seen[f.Path] = true
		render(t, f)
	}
	for _, absent := range []string{"classes/thread.go", "classes/editorinterface.go"} {
		if seen[absent] {
			t.Errorf("unexpected %s", absent)
		}
	}
}

func TestNode2DScenario(t *testing.T) {
	ctx := fixtureContext(t, SelectMinimal)
	src := render(t, findFile(t, GenerateClassFiles(ctx), "classes/node2d.go"))

	assertContains(t, src,
		"type Node2D struct {\n\tCanvasItem\n}",
		"func Node2DFromPtr(p ffi.ObjectPtr) *Node2D {",
		"func (c *Node2D) ObjectPtr() ffi.ObjectPtr {",
		"return c.CanvasItem.ObjectPtr()",
		"func (c *Node2D) Ownership() ffi.Ownership {",
		"return ffi.ManuallyManaged",
		"func (c *Node2D) AsCanvasItem() *CanvasItem {",
		"func (c *Node2D) AsNode() *Node {",
		"return &c.CanvasItem.Node",
		"func (c *Node2D) AsObject() *Object {",
		"return &c.CanvasItem.Node.Object",
		"func NewNode2D() *Node2D {",
		`return Node2DFromPtr(ffi.Construct("Node2D"))`,
		`var bindNode2DGetPosition = ffi.ClassMethod("Node2D", "get_position", 3341600327)`,
		"// GetPosition wraps Node2D.get_position.",
		"func (c *Node2D) GetPosition() builtin.Vector2 {",
		"var ret builtin.Vector2",
		"ffi.Call(bindNode2DGetPosition, c.ObjectPtr(), unsafe.Pointer(&ret))",
		"func (c *Node2D) SetPosition(position builtin.Vector2) {",
		"ffi.Call(bindNode2DSetPosition, c.ObjectPtr(), nil, unsafe.Pointer(&position))",
		"func (c *Node2D) Rotate(radians float32) {",
		"// Ownership reports how the engine manages the object's lifetime.",
		"// AsNode returns the embedded Node, or nil for a nil wrapper.",
	)
	// get_name is declared on Node and reaches Node2D through embedding.
	assertNotContains(t, src, "GetName")
	assertMatches(t, src, `&Node2D\{\s*CanvasItem:\s*CanvasItem\{\s*Node:\s*Node\{\s*Object:\s*Object\{\s*ptr:\s*p`)

	node := render(t, findFile(t, GenerateClassFiles(ctx), "classes/node.go"))
	assertContains(t, node,
		"type Node struct {\n\tObject\n}",
		"type NodeProcessMode int64",
		"// AddChild wraps Node.add_child. Defaults: force_readable_name = false.",
		"func (c *Node) AddChild(node *Node, forceReadableName bool) {",
		"nodePtr := node.ObjectPtr()",
		"unsafe.Pointer(&nodePtr), unsafe.Pointer(&forceReadableName)",
		"func (c *Node) GetChild(idx int32) *Node {",
		"var ret ffi.ObjectPtr",
		"return NodeFromPtr(ret)",
		"func (c *Node) GetChildren() builtin.TypedArray[*Node] {",
		"func (c *Node) GetGroups() builtin.TypedArray[builtin.StringName] {",
		"func (c *Node) SetProcessMode(mode NodeProcessMode) {",
		"func (c *Node) GetTree() *SceneTree {",
		`var bindNodeGetName = ffi.ClassMethod("Node", "get_name", `,
		"func (c *Node) GetName() builtin.StringName {",
	)
	assertMatches(t, node, `NodeNotificationReady\s*= 13`, `NodeProcessModeAlways\s+NodeProcessMode = 3`)
	assertNotContains(t, node, "GetEditorInterface")
}

func TestRootAndRefCounted(t *testing.T) {
	ctx := fixtureContext(t, SelectMinimal)
	files := GenerateClassFiles(ctx)

	object := render(t, findFile(t, files, "classes/object.go"))
	assertContains(t, object,
		"type Object struct {\n\tptr ffi.ObjectPtr\n}",
		"func (c *Object) GetClassName() builtin.String {",
		"func (c *Object) Call(method builtin.StringName, args ...builtin.Variant) builtin.Variant {",
		"extra := make([]unsafe.Pointer, len(args))",
		"ffi.CallVararg(bindObjectCall, c.ObjectPtr(), unsafe.Pointer(&ret), []unsafe.Pointer{unsafe.Pointer(&method)}, extra)",
		"func (c *Object) EmitSignal(signal builtin.StringName, args ...builtin.Variant) sys.Error {",
		"type ObjectConnectFlags int64",
	)
	assertMatches(t, object, `return &Object\{\s*ptr:\s*p,?\s*\}`)
	assertNotContains(t, object, "GetInstanceId", "func (c *Object) GetClass()", "AsObject")

	resource := render(t, findFile(t, files, "classes/resource.go"))
	assertContains(t, resource, "return ffi.RefCounted", "func (c *Resource) AsRefCounted() *RefCounted {")

	canvas := render(t, findFile(t, files, "classes/canvasitem.go"))
	assertNotContains(t, canvas, "func NewCanvasItem")

	input := render(t, findFile(t, files, "classes/input.go"))
	assertContains(t, input,
		"func InputSingleton() *Input {",
		`return InputFromPtr(ffi.Singleton("Input"))`,
		"// IsActionPressed wraps Input.is_action_pressed. Defaults: exact_match = false.",
	)
	assertNotContains(t, input, "func NewInput")

	loader := render(t, findFile(t, files, "classes/resourceloader.go"))
	assertContains(t, loader, "func (c *ResourceLoader) Load(path builtin.String, typeHint builtin.String, cacheMode ResourceLoaderCacheMode) *Resource {")
	assertNotContains(t, loader, "LoadThreadedGet")
}

func TestVirtualsStruct(t *testing.T) {
	ctx := fixtureContext(t, SelectMinimal)
	files := GenerateClassFiles(ctx)

	node := render(t, findFile(t, files, "classes/node.go"))
	assertMatches(t, node,
		`type NodeVirtuals struct \{`,
		`Process\s+func\(delta float64\)`,
		`GetConfigurationWarnings\s+func\(\) builtin\.PackedStringArray`,
	)
	assertContains(t, node,
		"func (v *NodeVirtuals) Callback(name string) ffi.VirtualFunc {",
		`case "_process":`,
		"if v.Process == nil {",
		"v.Process(ffi.Arg[float64](args, 0))",
		"ffi.SetReturn(ret, v.GetConfigurationWarnings())",
	)
	assertNotContains(t, node, "func (c *Node) Process(")

	button := render(t, findFile(t, files, "classes/button.go"))
	assertMatches(t, button,
		`type ButtonVirtuals struct \{`,
		`// Pressed overrides Button\._pressed\.`,
		`Toggled\s+func\(buttonPressed bool\)`,
		`HasPoint\s+func\(position builtin\.Vector2\) bool`,
	)
	assertContains(t, button, "ffi.SetReturn(ret, v.HasPoint(ffi.Arg[builtin.Vector2](args, 0)))")
	if strings.Count(button, `case "_pressed":`) != 1 {
		t.Error("_pressed must appear once in ButtonVirtuals.Callback")
	}

	object := render(t, findFile(t, files, "classes/object.go"))
	assertNotContains(t, object, "ObjectVirtuals")
}

func TestSkipRemovesWrapperEverywhere(t *testing.T) {
	opts := testOptions(extapi.Float64, SelectFull)
	opts.Exceptions = exceptions.Default().With(
		exceptions.Rule{Class: "Node", Method: "add_child", Policy: exceptions.Policy{Kind: exceptions.Skip}},
		exceptions.Rule{Method: "sin", Policy: exceptions.Policy{Kind: exceptions.Skip}},
	)
	ctx := BuildContext(loadFixture(t), opts)

	files := append(GenerateClassFiles(ctx), GenerateUtilitiesFile(ctx), GenerateCoreMod(ctx, false))
	for _, f := range files {
		src := render(t, f)
		assertNotContains(t, src, "AddChild", `"add_child"`, "func Sin(", `"sin"`)
	}
}

func TestFullModeIncludesEditorClasses(t *testing.T) {
	ctx := fixtureContext(t, SelectFull)
	files := GenerateClassFiles(ctx)

	node := render(t, findFile(t, files, "classes/node.go"))
	assertContains(t, node, "func (c *Node) GetEditorInterface() *EditorInterface {")

	editor := render(t, findFile(t, files, "classes/editorinterface.go"))
	assertContains(t, editor, "type EditorInterface struct {\n\tNode\n}", "func (c *EditorInterface) GetBaseControl() *Control {")
}

func TestDeterministic(t *testing.T) {
	generate := func() map[string][]byte {
		ctx := fixtureContext(t, SelectFull)
		files := []OutputFile{GenerateSysCentral(ctx), GenerateSysMod(ctx, false), GenerateCoreCentral(ctx), GenerateUtilitiesFile(ctx), GenerateCoreMod(ctx, false), GenerateClassesMod(ctx, false)}
		files = append(files, GenerateClassFiles(ctx)...)
		out := make(map[string][]byte)
		for _, f := range files {
			src, err := f.Render()
			if err != nil {
				t.Fatalf("Render(%s): %v", f.Path, err)
			}
			out[f.Path] = src
		}
		return out
	}

	first, second := generate(), generate()
	if len(first) != len(second) {
		t.Fatalf("file count changed: %d then %d", len(first), len(second))
	}
	for path, src := range first {
		if !bytes.Equal(src, second[path]) {
			t.Errorf("%s differs between runs", path)
		}
	}
}

func TestClassGolden(t *testing.T) {
	ctx := fixtureContext(t, SelectMinimal)
	for _, name := range []string{"node2d", "button"} {
		t.Run(name, func(t *testing.T) {
			src := render(t, findFile(t, GenerateClassFiles(ctx), "classes/"+name+".go"))
			golden := filepath.Join("testdata", "golden", name+".go.golden")
			updateGolden(t, golden, src)
			compareGolden(t, golden, src)
		})
	}
}
