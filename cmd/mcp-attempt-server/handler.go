package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cexll/prbot/internal/attempt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// attemptTracker is the part of attempt.Tracker the tools use
type attemptTracker interface {
	State(ctx context.Context, number int) (attempt.State, error)
	Clear(ctx context.Context, number int) error
}

// AttemptParams defines the input parameters for both tools
type AttemptParams struct {
	Number int `json:"number" jsonschema:"The pull request number"`
}

// AttemptsResult is the structured output of both tools
type AttemptsResult struct {
	Repo        string `json:"repo"`
	Number      int    `json:"number"`
	State       string `json:"state"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Exhausted   bool   `json:"exhausted"`
	// Previous is the state before a reset.
	Previous string `json:"previous,omitempty"`
}

// Handler serves the attempt tools for one repository
type Handler struct {
	tracker attemptTracker
	repo    string
	logger  *zap.Logger
}

// NewHandler creates the tool handler
func NewHandler(tracker attemptTracker, repo string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tracker: tracker, repo: repo, logger: logger}
}

// Register adds the tools to server
func (h *Handler) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_review_attempts",
		Description: "Show how many review attempts the bot has spent on a pull request (at most 3)",
	}, h.GetAttempts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_review_attempts",
		Description: "Clear the bot's attempt markers on a pull request so it is reviewed again",
	}, h.ResetAttempts)
}

func (h *Handler) result(number int, state attempt.State) AttemptsResult {
	return AttemptsResult{
		Repo:        h.repo,
		Number:      number,
		State:       state.String(),
		Attempts:    state.Attempts(),
		MaxAttempts: attempt.MaxAttempts,
		Exhausted:   state.Exhausted(),
	}
}

// GetAttempts handles the get_review_attempts tool call
func (h *Handler) GetAttempts(ctx context.Context, req *mcp.CallToolRequest, params AttemptParams) (*mcp.CallToolResult, AttemptsResult, error) {
	if params.Number <= 0 {
		return nil, AttemptsResult{}, fmt.Errorf("number must be a positive pull request number")
	}

	state, err := h.tracker.State(ctx, params.Number)
	if err != nil {
		h.logger.Warn("Failed to read attempt markers", zap.Int("pr", params.Number), zap.Error(err))
		return errorResult(err), AttemptsResult{}, nil
	}

	out := h.result(params.Number, state)
	return textResult(out), out, nil
}

// ResetAttempts handles the reset_review_attempts tool call
func (h *Handler) ResetAttempts(ctx context.Context, req *mcp.CallToolRequest, params AttemptParams) (*mcp.CallToolResult, AttemptsResult, error) {
	if params.Number <= 0 {
		return nil, AttemptsResult{}, fmt.Errorf("number must be a positive pull request number")
	}

	before, err := h.tracker.State(ctx, params.Number)
	if err != nil {
		return errorResult(err), AttemptsResult{}, nil
	}
	if err := h.tracker.Clear(ctx, params.Number); err != nil {
		h.logger.Warn("Failed to clear attempt markers", zap.Int("pr", params.Number), zap.Error(err))
		return errorResult(err), AttemptsResult{}, nil
	}
	h.logger.Info("Attempt markers reset", zap.Int("pr", params.Number), zap.Stringer("was", before))

	out := h.result(params.Number, attempt.S0)
	out.Previous = before.String()
	return textResult(out), out, nil
}

func textResult(out AttemptsResult) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(out, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}
