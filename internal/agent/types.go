// Package agent drives the bounded request/execute loop between a model and a file tree.
package agent

import (
	"context"
	"errors"

	"github.com/CageChen/workset/internal/tools"
)

// ErrTransport indicates the model could not be reached. It aborts a run.
var ErrTransport = errors.New("model transport failure")

// Role identifies the author of a transcript message.
type Role string

// Transcript roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one transcript record. Assistant messages carry the calls the
// model emitted; the tool message that follows carries their results in the
// same order.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolCalls []tools.Call   `json:"tool_calls,omitempty"`
	Results   []tools.Result `json:"tool_results,omitempty"`
}

// Turn is what the model returns for one request.
type Turn struct {
	Text      string
	ToolCalls []tools.Call
}

// Model submits the conversation and tool definitions and returns the next turn.
type Model interface {
	Next(ctx context.Context, conversation []Message, defs []tools.Definition) (Turn, error)
}

// State is a loop state.
type State int

// Loop states.
const (
	StateIdle State = iota
	StateRequesting
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// StopReason records why a run reached Done without error.
type StopReason string

// Stop reasons.
const (
	StopNoToolCalls     StopReason = "no_tool_calls"
	StopBudgetExhausted StopReason = "budget_exhausted"
	StopCancelled       StopReason = "cancelled"
)

// EventType categorizes progress events.
type EventType string

// Progress event types.
const (
	EventState EventType = "state"
	EventTurn  EventType = "turn"
	EventTool  EventType = "tool"
	EventDone  EventType = "done"
)

// Event reports run progress to callbacks.
type Event struct {
	Type    EventType     `json:"type"`
	Step    int           `json:"step"`
	State   string        `json:"state,omitempty"`
	Text    string        `json:"text,omitempty"`
	Call    *tools.Call   `json:"call,omitempty"`
	Result  *tools.Result `json:"result,omitempty"`
	Version uint64        `json:"version"`
	Reason  StopReason    `json:"reason,omitempty"`
}

// Callback is called for each progress event.
type Callback func(Event)
