package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/tools"
)

// Client talks to a model gateway over JSON/HTTP. Every failure to obtain a
// turn wraps agent.ErrTransport.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TurnRequest is the body posted to the gateway.
type TurnRequest struct {
	Model    string             `json:"model,omitempty"`
	Messages []agent.Message    `json:"messages"`
	Tools    []tools.Definition `json:"tools"`
}

// TurnResponse is the body the gateway answers with.
type TurnResponse struct {
	Text      string       `json:"text"`
	ToolCalls []tools.Call `json:"tool_calls"`
}

// Next posts the conversation and decodes the next turn.
func (c *Client) Next(ctx context.Context, conv []agent.Message, defs []tools.Definition) (agent.Turn, error) {
	body, err := json.Marshal(TurnRequest{Model: c.model, Messages: conv, Tools: defs})
	if err != nil {
		return agent.Turn{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return agent.Turn{}, fmt.Errorf("%w: %v", agent.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agent.Turn{}, fmt.Errorf("%w: %v", agent.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return agent.Turn{}, fmt.Errorf("%w: gateway returned status %d: %s",
			agent.ErrTransport, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return agent.Turn{}, fmt.Errorf("%w: failed to decode response: %v", agent.ErrTransport, err)
	}
	return agent.Turn{Text: out.Text, ToolCalls: out.ToolCalls}, nil
}

var _ agent.Model = (*Client)(nil)
