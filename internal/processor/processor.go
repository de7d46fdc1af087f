package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/protocol"
	"github.com/richard-senior/matchboard/pkg/tools"
)

// Request is one CLI tool invocation
type Request struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	RequestID string         `json:"requestId"`
}

// Response is the CLI's answer to a successful call
type Response struct {
	RequestID string         `json:"requestId,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Text      string         `json:"text,omitempty"`
	Data      any            `json:"data,omitempty"`
	Tools     []ToolInfo     `json:"tools,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ToolInfo describes a tool that can be called
type ToolInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  protocol.InputSchema `json:"parameters"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Processor dispatches CLI requests to the registered tools
type Processor struct {
	entries map[string]tools.Entry
	version string
}

func New(entries []tools.Entry, version string) *Processor {
	p := &Processor{entries: make(map[string]tools.Entry, len(entries)), version: version}
	for _, e := range entries {
		p.entries[e.Tool.Name] = e
	}
	return p
}

// createErrorResponse creates an error response
func createErrorResponse(code, message, requestID string) ([]byte, error) {
	var response ErrorResponse
	response.RequestID = requestID
	response.Error.Code = code
	response.Error.Message = message

	return json.MarshalIndent(response, "", "  ")
}

// errorCode classifies a tool failure for the error response
func errorCode(err error) string {
	switch {
	case errors.Is(err, league.ErrInvalidFilter):
		return "invalid_filter"
	case errors.Is(err, league.ErrMissingRankingData):
		return "missing_ranking_data"
	case errors.Is(err, league.ErrUnknownMetric):
		return "unknown_metric"
	}
	return "tool_error"
}

// ProcessRequest decodes a JSON request, runs the tool and returns the
// JSON response. Failures are reported in the response body; the returned
// error is only set when the response itself cannot be encoded.
func (p *Processor) ProcessRequest(ctx context.Context, input []byte) ([]byte, error) {
	var request Request
	if err := json.Unmarshal(input, &request); err != nil {
		logger.Error("Failed to parse input JSON", err)
		return createErrorResponse("invalid_request", fmt.Sprintf("Invalid JSON: %v", err), "")
	}

	if request.Tool == "" {
		return p.listTools(request.RequestID)
	}
	logger.Info("Processing request", request.Tool)

	entry, ok := p.entries[request.Tool]
	if !ok {
		return createErrorResponse("unknown_tool", fmt.Sprintf("No tool named %q", request.Tool), request.RequestID)
	}
	if request.Arguments == nil {
		request.Arguments = map[string]any{}
	}

	out, err := entry.Handle(ctx, request.Arguments)
	if err != nil {
		logger.Error("Tool failed", request.Tool, err)
		return createErrorResponse(errorCode(err), err.Error(), request.RequestID)
	}

	response := Response{
		RequestID: request.RequestID,
		Tool:      request.Tool,
		Metadata:  map[string]any{"version": p.version},
	}
	if res, ok := out.(*protocol.ToolResult); ok {
		response.Text = res.Text()
		response.Data = res.StructuredContent
	} else {
		response.Data = out
	}

	jsonResult, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		logger.Error("Failed to marshal response to JSON", err)
		return createErrorResponse("internal_error", "Failed to create response", request.RequestID)
	}
	return jsonResult, nil
}

func (p *Processor) listTools(requestID string) ([]byte, error) {
	response := Response{
		RequestID: requestID,
		Metadata:  map[string]any{"version": p.version},
	}
	for _, e := range p.entries {
		response.Tools = append(response.Tools, ToolInfo{
			Name:        e.Tool.Name,
			Description: strings.Join(strings.Fields(e.Tool.Description), " "),
			Parameters:  e.Tool.InputSchema,
		})
	}
	sort.Slice(response.Tools, func(i, j int) bool { return response.Tools[i].Name < response.Tools[j].Name })
	return json.MarshalIndent(response, "", "  ")
}

// ParseQuery turns command line words of the form
//
//	tool key=value key=value
//
// into a request. Values that are valid JSON (numbers, booleans, arrays)
// are decoded, anything else is kept as a string.
func ParseQuery(words []string, requestID string) (Request, error) {
	req := Request{RequestID: requestID, Arguments: map[string]any{}}
	if len(words) == 0 {
		return req, nil
	}
	req.Tool = words[0]
	for _, word := range words[1:] {
		key, value, ok := strings.Cut(word, "=")
		if !ok || key == "" {
			return req, fmt.Errorf("argument %q is not key=value", word)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			req.Arguments[key] = decoded
		} else {
			req.Arguments[key] = value
		}
	}
	return req, nil
}
