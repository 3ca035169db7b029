package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/CageChen/workset/internal/tools"
	"github.com/CageChen/workset/internal/vfs"
)

// DefaultMaxSteps applies when a loop is built without a positive budget.
const DefaultMaxSteps = 40

// Result is the outcome of a completed run.
type Result struct {
	Transcript []Message
	Steps      int
	Reason     StopReason
	Version    uint64
}

// Loop runs request/execute rounds against one tree until the model stops
// calling tools, the step budget runs out, or the context is cancelled.
type Loop struct {
	model     Model
	registry  *tools.Registry
	maxSteps  int
	logger    *slog.Logger
	callbacks []Callback
	mu        sync.RWMutex
	state     State
}

// NewLoop creates a loop. A nil logger discards output.
func NewLoop(model Model, registry *tools.Registry, maxSteps int, logger *slog.Logger) *Loop {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loop{
		model:    model,
		registry: registry,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

// OnEvent registers a progress callback.
func (l *Loop) OnEvent(cb Callback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, cb)
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// MaxSteps returns the step budget.
func (l *Loop) MaxSteps() int {
	return l.maxSteps
}

func (l *Loop) emit(e Event) {
	l.mu.RLock()
	callbacks := make([]Callback, len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

func (l *Loop) setState(s State, step int, version uint64) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	l.emit(Event{Type: EventState, Step: step, State: s.String(), Version: version})
}

// Run continues transcript against fsys. Tool failures are recorded in the
// transcript and never stop the run. Cancellation is only observed between
// rounds, so fsys is always left with every call of a round applied. A model
// failure returns an error wrapping ErrTransport and no Result.
func (l *Loop) Run(ctx context.Context, fsys *vfs.FS, transcript []Message) (*Result, error) {
	conv := make([]Message, len(transcript), len(transcript)+2*l.maxSteps)
	copy(conv, transcript)
	defs := l.registry.Definitions()
	l.setState(StateIdle, 0, fsys.Version())

	finish := func(steps int, reason StopReason) (*Result, error) {
		l.setState(StateDone, steps, fsys.Version())
		l.emit(Event{Type: EventDone, Step: steps, Reason: reason, Version: fsys.Version()})
		l.logger.Info("run finished", "steps", steps, "reason", reason, "version", fsys.Version())
		return &Result{Transcript: conv, Steps: steps, Reason: reason, Version: fsys.Version()}, nil
	}

	for step := 0; ; step++ {
		if step >= l.maxSteps {
			return finish(step, StopBudgetExhausted)
		}
		if ctx.Err() != nil {
			return finish(step, StopCancelled)
		}

		l.setState(StateRequesting, step+1, fsys.Version())
		turn, err := l.model.Next(ctx, conv, defs)
		if err != nil {
			if ctx.Err() != nil {
				return finish(step, StopCancelled)
			}
			l.setState(StateDone, step, fsys.Version())
			l.logger.Error("model request failed", "step", step+1, "error", err)
			if !errors.Is(err, ErrTransport) {
				err = fmt.Errorf("%w: %v", ErrTransport, err)
			}
			return nil, fmt.Errorf("step %d: %w", step+1, err)
		}

		for i := range turn.ToolCalls {
			if turn.ToolCalls[i].ID == "" {
				turn.ToolCalls[i].ID = fmt.Sprintf("call_%d_%d", step+1, i+1)
			}
		}
		conv = append(conv, Message{Role: RoleAssistant, Content: turn.Text, ToolCalls: turn.ToolCalls})
		l.emit(Event{Type: EventTurn, Step: step + 1, Text: turn.Text, Version: fsys.Version()})

		if len(turn.ToolCalls) == 0 {
			return finish(step+1, StopNoToolCalls)
		}

		l.setState(StateExecuting, step+1, fsys.Version())
		results := make([]tools.Result, 0, len(turn.ToolCalls))
		for i := range turn.ToolCalls {
			c := turn.ToolCalls[i]
			res := l.registry.Execute(fsys, c)
			if !res.OK {
				l.logger.Debug("tool call failed", "step", step+1, "tool", c.Name, "code", res.Error.Code, "message", res.Error.Message)
			} else {
				l.logger.Debug("tool call applied", "step", step+1, "tool", c.Name, "command", res.Command)
			}
			results = append(results, res)
			l.emit(Event{Type: EventTool, Step: step + 1, Call: &c, Result: &res, Version: fsys.Version()})
		}
		conv = append(conv, Message{Role: RoleTool, Results: results})
	}
}
