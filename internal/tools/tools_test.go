package tools

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/CageChen/workset/internal/vfs"
)

func call(name, args string) Call {
	return Call{ID: "call-1", Name: name, Args: json.RawMessage(args)}
}

func TestEditor_CreateAndView(t *testing.T) {
	reg := Default()
	fsys := vfs.New()

	res := reg.Execute(fsys, call(EditorName, `{"command":"create","path":"src//App.jsx","content":"line one\nline two\n"}`))
	if !res.OK {
		t.Fatalf("create failed: %+v", res.Error)
	}
	if res.CallID != "call-1" || res.Command != CmdCreate {
		t.Errorf("unexpected result metadata: %+v", res)
	}
	if !strings.Contains(res.Output, "/src/App.jsx") {
		t.Errorf("expected normalized path in output, got %q", res.Output)
	}

	res = reg.Execute(fsys, call(EditorName, `{"command":"view","path":"/src/App.jsx"}`))
	if !res.OK {
		t.Fatalf("view failed: %+v", res.Error)
	}
	if res.Output != "1\tline one\n2\tline two\n" {
		t.Errorf("unexpected view output %q", res.Output)
	}

	res = reg.Execute(fsys, call(EditorName, `{"command":"view","path":"/src/App.jsx","range":[2,-1]}`))
	if !res.OK || res.Output != "2\tline two\n" {
		t.Errorf("unexpected ranged view: %+v", res)
	}

	res = reg.Execute(fsys, call(EditorName, `{"command":"view","path":"/"}`))
	if !res.OK || res.Output != "src/\n" {
		t.Errorf("unexpected directory view: %+v", res)
	}
}

func TestEditor_CreateEmptyContent(t *testing.T) {
	fsys := vfs.New()
	res := NewEditor().Execute(fsys, json.RawMessage(`{"command":"create","path":"/empty.txt","content":""}`))
	if !res.OK {
		t.Fatalf("create with empty content failed: %+v", res.Error)
	}
	if got, _ := fsys.ReadFile("/empty.txt"); got != "" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestEditor_ReplaceAndInsert(t *testing.T) {
	fsys := vfs.New()
	if err := fsys.CreateFile("/App.jsx", "a\nb\n"); err != nil {
		t.Fatal(err)
	}
	ed := NewEditor()

	res := ed.Execute(fsys, json.RawMessage(`{"command":"replace","path":"/App.jsx","old":"b","new":"c"}`))
	if !res.OK {
		t.Fatalf("replace failed: %+v", res.Error)
	}
	res = ed.Execute(fsys, json.RawMessage(`{"command":"insert","path":"/App.jsx","line":0,"text":"import x;"}`))
	if !res.OK {
		t.Fatalf("insert failed: %+v", res.Error)
	}
	got, _ := fsys.ReadFile("/App.jsx")
	if got != "import x;\na\nc\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestEditor_ErrorsAreResults(t *testing.T) {
	fsys := vfs.New()
	if err := fsys.CreateFile("/dup.txt", "x x"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.MakeDir("/dir"); err != nil {
		t.Fatal(err)
	}
	ed := NewEditor()

	tests := []struct {
		name string
		args string
		code string
	}{
		{"missing file", `{"command":"view","path":"/nope"}`, "NotFound"},
		{"ambiguous replace", `{"command":"replace","path":"/dup.txt","old":"x","new":"y"}`, "NotFound"},
		{"create over directory", `{"command":"create","path":"/dir","content":"x"}`, "PathConflict"},
		{"escaping path", `{"command":"create","path":"/../x","content":"x"}`, "InvalidPath"},
		{"insert past end", `{"command":"insert","path":"/dup.txt","line":5,"text":"y"}`, "OutOfRange"},
		{"range past end", `{"command":"view","path":"/dup.txt","range":[1,9]}`, "OutOfRange"},
		{"missing content", `{"command":"create","path":"/a.txt"}`, CodeValidation},
		{"missing path", `{"command":"view"}`, CodeValidation},
		{"unknown field", `{"command":"view","path":"/dup.txt","bogus":1}`, CodeValidation},
		{"unknown command", `{"command":"explode","path":"/dup.txt"}`, CodeValidation},
		{"negative line", `{"command":"insert","path":"/dup.txt","line":-1,"text":"y"}`, CodeValidation},
		{"wrong type", `{"command":"insert","path":"/dup.txt","line":"one","text":"y"}`, CodeValidation},
		{"bad range shape", `{"command":"view","path":"/dup.txt","range":[1]}`, CodeValidation},
		{"not an object", `"view"`, CodeValidation},
		{"empty args", ``, CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := vfs.Serialize(fsys)
			res := ed.Execute(fsys, json.RawMessage(tt.args))
			if res.OK {
				t.Fatalf("expected failure, got %+v", res)
			}
			if res.Error == nil || res.Error.Code != tt.code {
				t.Fatalf("expected code %s, got %+v", tt.code, res.Error)
			}
			after := vfs.Serialize(fsys)
			if len(before) != len(after) {
				t.Error("failed call changed the tree")
			}
		})
	}
}

func TestManager_RenameAndDelete(t *testing.T) {
	fsys := vfs.New()
	if err := fsys.CreateFile("/a/x.txt", "x"); err != nil {
		t.Fatal(err)
	}
	m := NewManager()

	res := m.Execute(fsys, json.RawMessage(`{"command":"rename","from":"/a","to":"/b"}`))
	if !res.OK {
		t.Fatalf("rename failed: %+v", res.Error)
	}
	if got, err := fsys.ReadFile("/b/x.txt"); err != nil || got != "x" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}

	res = m.Execute(fsys, json.RawMessage(`{"command":"delete","path":"/b"}`))
	if !res.OK {
		t.Fatalf("delete failed: %+v", res.Error)
	}
	if fsys.Len() != 1 {
		t.Errorf("expected only root left, got %d nodes", fsys.Len())
	}

	res = m.Execute(fsys, json.RawMessage(`{"command":"delete","path":"/"}`))
	if res.OK || res.Error.Code != "InvalidPath" {
		t.Errorf("expected InvalidPath deleting root, got %+v", res)
	}
	res = m.Execute(fsys, json.RawMessage(`{"command":"rename","from":"/gone"}`))
	if res.OK || res.Error.Code != CodeValidation {
		t.Errorf("expected validation error, got %+v", res)
	}
}

func TestRegistry(t *testing.T) {
	reg := Default()
	defs := reg.Definitions()
	if len(defs) != 2 || defs[0].Name != EditorName || defs[1].Name != ManagerName {
		t.Fatalf("unexpected definitions %+v", defs)
	}
	if _, ok := reg.Lookup(ManagerName); !ok {
		t.Error("manager not registered")
	}

	res := reg.Execute(vfs.New(), call("shell", `{"command":"rm -rf /"}`))
	if res.OK || res.Error.Code != CodeValidation || res.CallID != "call-1" {
		t.Errorf("expected validation result for unknown tool, got %+v", res)
	}
}

func TestDefinitions_AreJSON(t *testing.T) {
	data, err := json.Marshal(Default().Definitions())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"enum":["view","create","replace","insert"]`) {
		t.Errorf("editor schema missing command enum: %s", data)
	}
}
