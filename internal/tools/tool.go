// Package tools turns structured model tool calls into tree operations and structured results.
package tools

import (
	"encoding/json"
	"errors"

	"github.com/CageChen/workset/internal/vfs"
)

// Tool names exposed to the model.
const (
	EditorName  = "str_replace_editor"
	ManagerName = "file_manager"
)

// Error codes carried in results next to the vfs taxonomy.
const (
	CodeValidation = "ValidationError"
	codeUnknown    = "ToolError"
)

// Call is one tool invocation emitted by the model.
type Call struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ErrorInfo describes a failed call.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a call as recorded in the transcript.
type Result struct {
	CallID  string     `json:"call_id,omitempty"`
	Tool    string     `json:"tool"`
	Command string     `json:"command,omitempty"`
	OK      bool       `json:"ok"`
	Output  string     `json:"output,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// Definition describes a tool and its JSON schema to the model.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool applies a call's arguments to a tree. Implementations never return
// Go errors: every failure is folded into the Result.
type Tool interface {
	Definition() Definition
	Execute(fsys *vfs.FS, args json.RawMessage) Result
}

func newResult(tool, command, output string, err error) Result {
	if err == nil {
		return Result{Tool: tool, Command: command, OK: true, Output: output}
	}
	return Result{
		Tool:    tool,
		Command: command,
		Error:   &ErrorInfo{Code: errorCode(err), Message: err.Error()},
	}
}

func errorCode(err error) string {
	if errors.Is(err, ErrValidation) {
		return CodeValidation
	}
	if code := vfs.Code(err); code != "" {
		return code
	}
	return codeUnknown
}

// Registry holds the tools offered to the model, keyed by name.
type Registry struct {
	tools       map[string]Tool
	definitions []Definition
}

// NewRegistry creates a registry of the given tools.
func NewRegistry(tools ...Tool) *Registry {
	bucket := make(map[string]Tool, len(tools))
	defs := make([]Definition, 0, len(tools))
	for _, tool := range tools {
		def := tool.Definition()
		bucket[def.Name] = tool
		defs = append(defs, def)
	}
	return &Registry{tools: bucket, definitions: defs}
}

// Default returns a registry with the editor and manager tools.
func Default() *Registry {
	return NewRegistry(NewEditor(), NewManager())
}

// Definitions returns a copy of the tool definitions.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.definitions))
	copy(out, r.definitions)
	return out
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute runs a call against fsys. Unknown tools produce a validation result.
func (r *Registry) Execute(fsys *vfs.FS, call Call) Result {
	tool, ok := r.Lookup(call.Name)
	if !ok {
		res := newResult(call.Name, "", "", validationf("unknown tool %q", call.Name))
		res.CallID = call.ID
		return res
	}
	res := tool.Execute(fsys, call.Args)
	res.CallID = call.ID
	return res
}
