package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/tools"
	"github.com/CageChen/workset/internal/vfs"
)

func TestComponentName(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"Make a counter component", "Counter"},
		{"build me the TODO list", "Todo"},
		{"please create a simple pricing-table", "Pricing"},
		{"", "Widget"},
		{"!!!", "Widget"},
	}
	for _, tt := range tests {
		if got := ComponentName(tt.prompt); got != tt.want {
			t.Errorf("ComponentName(%q) = %q, want %q", tt.prompt, got, tt.want)
		}
	}
}

func TestScaffold_RunsToCompletion(t *testing.T) {
	fsys := vfs.New()
	loop := agent.NewLoop(NewScaffold(), tools.Default(), 10, nil)

	res, err := loop.Run(context.Background(), fsys, []agent.Message{{Role: agent.RoleUser, Content: "Make a counter component"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Reason != agent.StopNoToolCalls || res.Steps != 4 {
		t.Errorf("unexpected result %+v", res)
	}

	app, err := fsys.ReadFile("/App.jsx")
	if err != nil || !strings.Contains(app, `import Counter from "./components/Counter"`) {
		t.Errorf("unexpected App.jsx %q: %v", app, err)
	}
	comp, err := fsys.ReadFile("/components/Counter.jsx")
	if err != nil || !strings.Contains(comp, "p-6 rounded-lg shadow") {
		t.Errorf("expected styled component, got %q: %v", comp, err)
	}
	for _, m := range res.Transcript {
		for _, r := range m.Results {
			if !r.OK {
				t.Errorf("scaffold call failed: %+v", r.Error)
			}
		}
	}
}

func TestScaffold_SecondPromptStartsOver(t *testing.T) {
	fsys := vfs.New()
	loop := agent.NewLoop(NewScaffold(), tools.Default(), 2, nil)

	res, err := loop.Run(context.Background(), fsys, []agent.Message{{Role: agent.RoleUser, Content: "counter"}})
	if err != nil {
		t.Fatal(err)
	}
	transcript := append(res.Transcript, agent.Message{Role: agent.RoleUser, Content: "timer"})

	if _, err := agent.NewLoop(NewScaffold(), tools.Default(), 1, nil).Run(context.Background(), fsys, transcript); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.ReadFile("/components/Timer.jsx"); err != nil {
		t.Errorf("expected the second prompt to start a new component: %v", err)
	}
}

func TestScripted_ReplaysAndRepeats(t *testing.T) {
	turn := agent.Turn{ToolCalls: []tools.Call{EditorCall(map[string]any{"command": "view", "path": "/"})}}

	s := NewScripted(turn)
	conv := []agent.Message{{Role: agent.RoleUser, Content: "go"}}
	got, err := s.Next(context.Background(), conv, nil)
	if err != nil || len(got.ToolCalls) != 1 {
		t.Fatalf("Next = %+v, %v", got, err)
	}
	if !strings.HasPrefix(got.ToolCalls[0].ID, "call_") {
		t.Errorf("expected generated call id, got %q", got.ToolCalls[0].ID)
	}

	conv = append(conv, agent.Message{Role: agent.RoleAssistant})
	got, _ = s.Next(context.Background(), conv, nil)
	if len(got.ToolCalls) != 0 {
		t.Error("expected a plain text turn past the script")
	}

	got, _ = Repeat(turn).Next(context.Background(), conv, nil)
	if len(got.ToolCalls) != 1 {
		t.Error("expected Repeat to keep calling tools")
	}
}

func TestClient_Next(t *testing.T) {
	var req TurnRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"ok","tool_calls":[{"id":"c1","name":"str_replace_editor","args":{"command":"view","path":"/"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model", time.Second)
	turn, err := c.Next(context.Background(),
		[]agent.Message{{Role: agent.RoleUser, Content: "hi"}},
		tools.Default().Definitions())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if turn.Text != "ok" || len(turn.ToolCalls) != 1 || turn.ToolCalls[0].ID != "c1" {
		t.Errorf("unexpected turn %+v", turn)
	}
	if req.Model != "test-model" || len(req.Messages) != 1 || len(req.Tools) != 2 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestClient_TransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("bad") != "" {
			_, _ = w.Write([]byte("not json"))
			return
		}
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	for _, url := range []string{srv.URL, srv.URL + "?bad=1", "http://127.0.0.1:1"} {
		_, err := NewClient(url, "", "", time.Second).Next(context.Background(), nil, nil)
		if !errors.Is(err, agent.ErrTransport) {
			t.Errorf("%s: expected ErrTransport, got %v", url, err)
		}
	}
}
