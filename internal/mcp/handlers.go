package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	idx ops.Index
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(idx ops.Index) *Handlers {
	return &Handlers{idx: idx}
}

// Request types for each tool

// ListRequest represents the arguments for conversation_list.
type ListRequest struct {
	Project string `json:"project,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// SearchRequest represents the arguments for conversation_search.
type SearchRequest struct {
	Query   string `json:"query"`
	Project string `json:"project,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// ChaptersRequest represents the arguments for conversation_chapters.
type ChaptersRequest struct {
	SessionID string `json:"session_id"`
}

// ContextRequest represents the arguments for conversation_context.
type ContextRequest struct {
	SessionID string `json:"session_id"`
	Start     int    `json:"start,omitempty"`
	End       int    `json:"end,omitempty"`
	Around    int    `json:"around,omitempty"`
	Radius    int    `json:"radius,omitempty"`
	Recent    int    `json:"recent,omitempty"`
	Expand    int    `json:"expand,omitempty"`
}

// Handler implementations

// HandleList handles the conversation_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.idx, ops.ListInput{
		Project: input.Project,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the conversation_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.idx, ops.SearchInput{
		Query:   input.Query,
		Project: input.Project,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleChapters handles the conversation_chapters tool call.
func (h *Handlers) HandleChapters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ChaptersRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Chapters(ctx, h.idx, ops.ChaptersInput{SessionID: input.SessionID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContext handles the conversation_context tool call.
func (h *Handlers) HandleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ContextRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Context(ctx, h.idx, ops.ContextInput{
		SessionID: input.SessionID,
		Start:     input.Start,
		End:       input.End,
		Around:    input.Around,
		Radius:    input.Radius,
		Recent:    input.Recent,
		Expand:    input.Expand,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleProjects handles the conversation_projects tool call.
func (h *Handlers) HandleProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Projects(ctx, h.idx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal and file-level error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if ce, ok := errors.As(err); ok {
		message := ce.Message
		// Keep wrapper context such as "items[2]: " in front of the message.
		if full := err.Error(); full != ce.Error() {
			message = strings.TrimSuffix(full, ce.Error()) + ce.Message
		}
		errorObj := map[string]any{
			"code":    ce.Code,
			"message": message,
			"status":  ce.Status,
		}
		if ce.Code != errors.ErrInternal && ce.Code != errors.ErrUnreadableFile && ce.Details != nil {
			errorObj["details"] = ce.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
