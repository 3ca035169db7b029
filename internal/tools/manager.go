package tools

import (
	"encoding/json"
	"fmt"

	"github.com/CageChen/workset/internal/vfs"
)

// Manager commands.
const (
	CmdRename = "rename"
	CmdDelete = "delete"
)

type renameArgs struct {
	Command string `json:"command"`
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
}

type deleteArgs struct {
	Command string `json:"command"`
	Path    string `json:"path" validate:"required"`
}

// Manager moves and removes files and directories.
type Manager struct{}

// NewManager creates the file manager tool.
func NewManager() *Manager {
	return &Manager{}
}

// Definition describes the manager to the model.
func (m *Manager) Definition() Definition {
	return Definition{
		Name:        ManagerName,
		Description: "Rename or delete files and directories. Directories move and delete recursively.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "enum": []string{CmdRename, CmdDelete}},
				"from":    map[string]any{"type": "string", "description": "rename: current path"},
				"to":      map[string]any{"type": "string", "description": "rename: new path"},
				"path":    map[string]any{"type": "string", "description": "delete: path to remove"},
			},
			"required": []string{"command"},
		},
	}
}

// Execute applies one manager command.
func (m *Manager) Execute(fsys *vfs.FS, args json.RawMessage) Result {
	cmd, err := command(args)
	if err != nil {
		return newResult(ManagerName, "", "", err)
	}

	var out string
	switch cmd {
	case CmdRename:
		var a renameArgs
		if err = decode(args, &a); err == nil {
			out, err = rename(fsys, a)
		}
	case CmdDelete:
		var a deleteArgs
		if err = decode(args, &a); err == nil {
			out, err = remove(fsys, a)
		}
	default:
		err = validationf("unknown command %q", cmd)
	}
	return newResult(ManagerName, cmd, out, err)
}

func rename(fsys *vfs.FS, a renameArgs) (string, error) {
	from, err := vfs.Normalize(a.From)
	if err != nil {
		return "", err
	}
	to, err := vfs.Normalize(a.To)
	if err != nil {
		return "", err
	}
	if err := fsys.RenameNode(from, to); err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed %s to %s", from, to), nil
}

func remove(fsys *vfs.FS, a deleteArgs) (string, error) {
	p, err := vfs.Normalize(a.Path)
	if err != nil {
		return "", err
	}
	if err := fsys.DeleteNode(p); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %s", p), nil
}
