// Package model provides Model implementations for the agent loop: a
// deterministic stand-in and an HTTP client for a live model gateway.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/tools"
)

// Scripted replays a fixed list of turns. The position is derived from the
// number of assistant messages since the last user message, so one Scripted
// can serve many runs. Past the end it returns a plain text turn, or repeats
// the last turn when built with Repeat.
type Scripted struct {
	turns  []agent.Turn
	repeat bool
}

// NewScripted creates a stand-in that replays turns in order.
func NewScripted(turns ...agent.Turn) *Scripted {
	return &Scripted{turns: turns}
}

// Repeat creates a stand-in that emits turn forever.
func Repeat(turn agent.Turn) *Scripted {
	return &Scripted{turns: []agent.Turn{turn}, repeat: true}
}

// Next returns the scripted turn for the current position.
func (s *Scripted) Next(ctx context.Context, conv []agent.Message, _ []tools.Definition) (agent.Turn, error) {
	if err := ctx.Err(); err != nil {
		return agent.Turn{}, err
	}
	i := stepsSinceUser(conv)
	switch {
	case i < len(s.turns):
		return withIDs(s.turns[i]), nil
	case s.repeat && len(s.turns) > 0:
		return withIDs(s.turns[len(s.turns)-1]), nil
	default:
		return agent.Turn{Text: "Done."}, nil
	}
}

func stepsSinceUser(conv []agent.Message) int {
	n := 0
	for i := len(conv) - 1; i >= 0 && conv[i].Role != agent.RoleUser; i-- {
		if conv[i].Role == agent.RoleAssistant {
			n++
		}
	}
	return n
}

func lastUserPrompt(conv []agent.Message) string {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == agent.RoleUser {
			return conv[i].Content
		}
	}
	return ""
}

func withIDs(turn agent.Turn) agent.Turn {
	out := agent.Turn{Text: turn.Text, ToolCalls: make([]tools.Call, len(turn.ToolCalls))}
	for i, c := range turn.ToolCalls {
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		out.ToolCalls[i] = c
	}
	return out
}

// EditorCall builds an editor tool call from an argument object.
func EditorCall(args map[string]any) tools.Call {
	return buildCall(tools.EditorName, args)
}

// ManagerCall builds a file manager tool call from an argument object.
func ManagerCall(args map[string]any) tools.Call {
	return buildCall(tools.ManagerName, args)
}

func buildCall(name string, args map[string]any) tools.Call {
	data, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("marshal %s args: %v", name, err))
	}
	return tools.Call{Name: name, Args: data}
}

// Scaffold is a deterministic stand-in that builds a small React app named
// after the prompt: a component, an App entry point importing it, and a
// styling edit, followed by a closing message.
type Scaffold struct{}

// NewScaffold creates the scaffolding stand-in.
func NewScaffold() *Scaffold {
	return &Scaffold{}
}

// Next returns the scaffold turn for the current position.
func (s *Scaffold) Next(ctx context.Context, conv []agent.Message, _ []tools.Definition) (agent.Turn, error) {
	if err := ctx.Err(); err != nil {
		return agent.Turn{}, err
	}
	name := ComponentName(lastUserPrompt(conv))
	component := "/components/" + name + ".jsx"

	switch stepsSinceUser(conv) {
	case 0:
		return withIDs(agent.Turn{
			Text: fmt.Sprintf("I'll start with a %s component.", name),
			ToolCalls: []tools.Call{EditorCall(map[string]any{
				"command": tools.CmdCreate,
				"path":    component,
				"content": componentSource(name),
			})},
		}), nil
	case 1:
		return withIDs(agent.Turn{
			Text: "Now the App entry point.",
			ToolCalls: []tools.Call{EditorCall(map[string]any{
				"command": tools.CmdCreate,
				"path":    "/App.jsx",
				"content": appSource(name),
			})},
		}), nil
	case 2:
		return withIDs(agent.Turn{
			Text: "Adding some spacing.",
			ToolCalls: []tools.Call{EditorCall(map[string]any{
				"command": tools.CmdReplace,
				"path":    component,
				"old":     `<div className="p-4">`,
				"new":     `<div className="p-6 rounded-lg shadow">`,
			})},
		}), nil
	default:
		return agent.Turn{Text: fmt.Sprintf("The %s component is ready in %s.", name, component)}, nil
	}
}

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*`)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "make": true, "create": true, "build": true,
	"me": true, "please": true, "with": true, "for": true, "simple": true, "component": true,
}

// ComponentName derives a PascalCase component name from a prompt.
func ComponentName(prompt string) string {
	for _, w := range wordRe.FindAllString(prompt, -1) {
		lw := strings.ToLower(w)
		if stopWords[lw] {
			continue
		}
		r := []rune(lw)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return "Widget"
}

func componentSource(name string) string {
	return fmt.Sprintf(`import { useState } from "react";

export default function %s() {
  const [count, setCount] = useState(0);
  return (
    <div className="p-4">
      <h2>%s</h2>
      <button onClick={() => setCount(count + 1)}>Clicked {count} times</button>
    </div>
  );
}
`, name, name)
}

func appSource(name string) string {
	return fmt.Sprintf(`import %s from "./components/%s";

export default function App() {
  return <%s />;
}
`, name, name, name)
}

var (
	_ agent.Model = (*Scripted)(nil)
	_ agent.Model = (*Scaffold)(nil)
)
