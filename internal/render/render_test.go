package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/CageChen/workset/internal/vfs"
)

func TestRender_Markdown(t *testing.T) {
	doc, err := New("").Render("/README.md", "# Hello World\n\nThis is a *test*.")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if doc.Kind != KindMarkdown {
		t.Errorf("expected markdown, got %s", doc.Kind)
	}
	if !strings.Contains(doc.HTML, "<h1") || !strings.Contains(doc.HTML, "Hello World</h1>") {
		t.Error("expected H1 tag containing 'Hello World' in HTML")
	}
	if !strings.Contains(doc.HTML, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
	if doc.Title != "Hello World" {
		t.Errorf("expected title Hello World, got %s", doc.Title)
	}
}

func TestRender_MarkdownEscapesRawHTML(t *testing.T) {
	doc, err := New("").Render("/notes.md", "<script>alert(1)</script>\n")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(doc.HTML, "<script>") {
		t.Error("raw HTML must not pass through")
	}
}

func TestRender_TOC(t *testing.T) {
	doc, err := New("").Render("/docs/guide.md", "# Head 1\n## Head 2\n### Head `3`")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.TOC) != 3 {
		t.Fatalf("expected 3 TOC items, got %d", len(doc.TOC))
	}
	if doc.TOC[0].Level != 1 || doc.TOC[0].Title != "Head 1" || doc.TOC[0].Anchor != "head-1" {
		t.Errorf("TOC item 0 mismatch: %+v", doc.TOC[0])
	}
	if doc.TOC[1].Level != 2 || doc.TOC[1].Title != "Head 2" {
		t.Errorf("TOC item 1 mismatch: %+v", doc.TOC[1])
	}
	if doc.TOC[2].Level != 3 || doc.TOC[2].Title != "Head 3" {
		t.Errorf("TOC item 2 mismatch: %+v", doc.TOC[2])
	}
}

func TestRender_Code(t *testing.T) {
	src := "export default function App() {\n  return <div>hi</div>;\n}\n"
	doc, err := New("").Render("/App.jsx", src)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Kind != KindCode {
		t.Errorf("expected code, got %s", doc.Kind)
	}
	if doc.Lines != 3 || doc.Size != len(src) || doc.Title != "App.jsx" {
		t.Errorf("unexpected header %+v", doc)
	}
	if !strings.Contains(doc.HTML, "<pre") || !strings.Contains(doc.HTML, "App") {
		t.Error("expected highlighted markup")
	}
}

func TestRender_UnknownExtension(t *testing.T) {
	doc, err := New("").Render("/data/blob.zzz", "just <text>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(doc.HTML, "<text>") || !strings.Contains(doc.HTML, "text") {
		t.Error("expected escaped content")
	}
}

func TestFile(t *testing.T) {
	fsys := vfs.New()
	if err := fsys.CreateFile("/src/util.js", "export const x = 1;\n"); err != nil {
		t.Fatal(err)
	}
	rd := New("github")

	doc, err := rd.File(fsys, "src//util.js")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Path != "/src/util.js" || doc.Language != "JavaScript" {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := rd.File(fsys, "/missing.js"); !errors.Is(err, vfs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCSS(t *testing.T) {
	css, err := New("").CSS()
	if err != nil || !strings.Contains(css, ".chroma") {
		t.Errorf("CSS = %q, %v", css, err)
	}
}

func TestAnchorFor(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"Hello World", "hello-world"},
		{"Test! @# Content", "test-content"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"-Start-and-End-", "start-and-end"},
		{"中文标题", "中文标题"},
	}

	for _, tt := range tests {
		got := anchorFor(tt.input)
		if got != tt.output {
			t.Errorf("anchorFor(%q) = %q, want %q", tt.input, got, tt.output)
		}
	}
}
