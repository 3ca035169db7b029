package render

import (
	"fmt"

	"github.com/CageChen/workset/internal/langdetect"
	"github.com/CageChen/workset/internal/vfs"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Document kinds.
const (
	KindMarkdown = "markdown"
	KindCode     = "code"
)

// Document is a rendered file.
type Document struct {
	Path     string    `json:"path"`
	Kind     string    `json:"kind"`
	Language string    `json:"language,omitempty"`
	Title    string    `json:"title"`
	HTML     string    `json:"html"`
	TOC      []TOCItem `json:"toc,omitempty"`
	Lines    int       `json:"lines"`
	Size     int       `json:"size"`
}

// Renderer renders files read from a tree.
type Renderer struct {
	markdown *markdownRenderer
	code     *codeRenderer
}

// New creates a renderer with the given chroma style.
func New(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{
		markdown: newMarkdownRenderer(style),
		code:     newCodeRenderer(style),
	}
}

// File reads p from r and renders it.
func (rd *Renderer) File(r vfs.Reader, p string) (*Document, error) {
	content, err := r.ReadFile(p)
	if err != nil {
		return nil, err
	}
	norm, _ := vfs.Normalize(p)
	return rd.Render(norm, content)
}

// Render renders content as the file at p.
func (rd *Renderer) Render(p, content string) (*Document, error) {
	doc := &Document{
		Path:     p,
		Language: langdetect.Detect(p, content),
		Title:    vfs.Base(p),
		Lines:    vfs.LineCount(content),
		Size:     len(content),
	}

	if langdetect.IsMarkdown(p) {
		html, toc, err := rd.markdown.render([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("failed to render markdown %s: %w", p, err)
		}
		doc.Kind = KindMarkdown
		doc.Language = langdetect.Markdown
		doc.HTML = html
		doc.TOC = toc
		if len(toc) > 0 {
			doc.Title = toc[0].Title
		}
		return doc, nil
	}

	html, err := rd.code.render(p, doc.Language, content)
	if err != nil {
		return nil, fmt.Errorf("failed to highlight %s: %w", p, err)
	}
	doc.Kind = KindCode
	doc.HTML = html
	return doc, nil
}

// CSS returns the stylesheet matching the highlighted output.
func (rd *Renderer) CSS() (string, error) {
	return rd.code.css()
}
