package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CageChen/workset/internal/vfs"
)

// Editor commands.
const (
	CmdView    = "view"
	CmdCreate  = "create"
	CmdReplace = "replace"
	CmdInsert  = "insert"
)

type viewArgs struct {
	Command string `json:"command"`
	Path    string `json:"path" validate:"required"`
	Range   []int  `json:"range,omitempty" validate:"omitempty,len=2"`
}

type createArgs struct {
	Command string  `json:"command"`
	Path    string  `json:"path" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

type replaceArgs struct {
	Command string  `json:"command"`
	Path    string  `json:"path" validate:"required"`
	Old     string  `json:"old" validate:"required"`
	New     *string `json:"new" validate:"required"`
}

type insertArgs struct {
	Command string  `json:"command"`
	Path    string  `json:"path" validate:"required"`
	Line    *int    `json:"line" validate:"required,gte=0"`
	Text    *string `json:"text" validate:"required"`
}

// Editor views and edits files.
type Editor struct{}

// NewEditor creates the editor tool.
func NewEditor() *Editor {
	return &Editor{}
}

// Definition describes the editor to the model.
func (e *Editor) Definition() Definition {
	return Definition{
		Name: EditorName,
		Description: "View, create and edit files in the project. Paths are absolute, rooted at /. " +
			"create overwrites an existing file. replace requires old to occur exactly once. " +
			"insert adds text as a new line before the 0-indexed line.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "enum": []string{CmdView, CmdCreate, CmdReplace, CmdInsert}},
				"path":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string", "description": "create: full file content"},
				"old":     map[string]any{"type": "string", "description": "replace: text to find"},
				"new":     map[string]any{"type": "string", "description": "replace: replacement text"},
				"line":    map[string]any{"type": "integer", "minimum": 0, "description": "insert: line boundary"},
				"text":    map[string]any{"type": "string", "description": "insert: text to insert"},
				"range": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"minItems":    2,
					"maxItems":    2,
					"description": "view: 1-indexed inclusive [start, end]; end -1 reads to the end",
				},
			},
			"required": []string{"command", "path"},
		},
	}
}

// Execute applies one editor command.
func (e *Editor) Execute(fsys *vfs.FS, args json.RawMessage) Result {
	cmd, err := command(args)
	if err != nil {
		return newResult(EditorName, "", "", err)
	}

	var out string
	switch cmd {
	case CmdView:
		out, err = e.view(fsys, args)
	case CmdCreate:
		out, err = e.create(fsys, args)
	case CmdReplace:
		out, err = e.replace(fsys, args)
	case CmdInsert:
		out, err = e.insert(fsys, args)
	default:
		err = validationf("unknown command %q", cmd)
	}
	return newResult(EditorName, cmd, out, err)
}

func (e *Editor) view(fsys *vfs.FS, raw json.RawMessage) (string, error) {
	var args viewArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	info, err := fsys.Stat(args.Path)
	if err != nil {
		return "", err
	}

	if info.IsDir {
		if args.Range != nil {
			return "", validationf("range is only valid for files")
		}
		entries, err := fsys.List(info.Path)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "(empty directory)", nil
		}
		var b strings.Builder
		for _, entry := range entries {
			b.WriteString(entry.Name)
			if entry.IsDir {
				b.WriteByte('/')
			}
			b.WriteByte('\n')
		}
		return b.String(), nil
	}

	content, err := fsys.ReadFile(info.Path)
	if err != nil {
		return "", err
	}
	return numberLines(info.Path, content, args.Range)
}

// numberLines renders content as "n\tline" rows, restricted to an optional
// 1-indexed inclusive range.
func numberLines(path, content string, rng []int) (string, error) {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if content == "" {
		lines = nil
	}

	start, end := 1, len(lines)
	if rng != nil {
		start, end = rng[0], rng[1]
		if start < 1 || (end != -1 && end < start) {
			return "", validationf("invalid range [%d, %d]", start, end)
		}
		if end == -1 {
			end = len(lines)
		}
		if start > len(lines) || end > len(lines) {
			return "", &vfs.Error{
				Op:   vfs.OpRead,
				Path: path,
				Err:  fmt.Errorf("%w: range [%d, %d] outside 1..%d", vfs.ErrOutOfRange, rng[0], rng[1], len(lines)),
			}
		}
	}
	if len(lines) == 0 {
		return "(empty file)", nil
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%d\t%s\n", i, lines[i-1])
	}
	return b.String(), nil
}

func (e *Editor) create(fsys *vfs.FS, raw json.RawMessage) (string, error) {
	var args createArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	p, err := vfs.Normalize(args.Path)
	if err != nil {
		return "", err
	}
	if err := fsys.CreateFile(p, *args.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote %s (%d lines)", p, vfs.LineCount(*args.Content)), nil
}

func (e *Editor) replace(fsys *vfs.FS, raw json.RawMessage) (string, error) {
	var args replaceArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	p, err := vfs.Normalize(args.Path)
	if err != nil {
		return "", err
	}
	if err := fsys.ReplaceInFile(p, args.Old, *args.New); err != nil {
		return "", err
	}
	return fmt.Sprintf("Replaced text in %s", p), nil
}

func (e *Editor) insert(fsys *vfs.FS, raw json.RawMessage) (string, error) {
	var args insertArgs
	if err := decode(raw, &args); err != nil {
		return "", err
	}
	p, err := vfs.Normalize(args.Path)
	if err != nil {
		return "", err
	}
	if err := fsys.InsertAt(p, *args.Line, *args.Text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Inserted text at line %d of %s", *args.Line, p), nil
}
