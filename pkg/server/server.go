package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/protocol"
	"github.com/richard-senior/matchboard/pkg/transport"
)

// toolPrefix is stripped from tool names some clients qualify with the server name
const toolPrefix = "mcp___"

// HandlerFunc handles one MCP request. A nil result with a nil error
// means no response is sent.
type HandlerFunc func(ctx context.Context, params any) (any, error)

// Server is an MCP server answering requests from a single transport
type Server struct {
	transport transport.Transport
	name      string
	version   string

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	tools    map[string]HandlerFunc
	toolDefs []protocol.Tool
}

// New creates a server with the protocol handlers registered and no tools
func New(t transport.Transport, name, version string) *Server {
	s := &Server{
		transport: t,
		name:      name,
		version:   version,
		handlers:  make(map[string]HandlerFunc),
		tools:     make(map[string]HandlerFunc),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodInitialized)] = s.handleInitialized
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toolDefs = append(s.toolDefs, tool)
	s.tools[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// Tools returns the registered tool definitions
func (s *Server) Tools() []protocol.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.Tool(nil), s.toolDefs...)
}

// Serve processes requests until the client disconnects or ctx is done.
// A client disconnecting is not an error.
func (s *Server) Serve(ctx context.Context) error {
	logger.Info("Starting MCP server")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.processRequests(ctx)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("MCP server stopping:", ctx.Err())
		return nil
	}
}

func (s *Server) processRequests(ctx context.Context) error {
	for {
		req, err := s.transport.ReadRequest()
		if errors.Is(err, protocol.ErrMalformed) {
			resp := protocol.NewJsonRpcErrorResponse(protocol.ErrParse, err.Error(), nil, nil)
			if err := s.transport.WriteResponse(resp); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		// nil means no response is required
		resp := s.HandleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// HandleRequest processes a request and returns the response to send, or
// nil for notifications
func (s *Server) HandleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	logger.Debug("Full request:", string(req.Params))

	if strings.HasPrefix(req.Method, "notifications/") {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	s.mu.RLock()
	handler := s.handlers[req.Method]
	s.mu.RUnlock()
	if handler == nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			return &protocol.JsonRpcResponse{JsonRPC: protocol.JsonRpcVersion, Error: rpcErr, ID: req.ID}
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrToolExecutionFailed, err.Error(), errorKind(err), req.ID)
	}
	if result == nil || req.IsNotification() {
		return nil
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("Full response:", string(resp.Result))
	return resp
}

// errorKind names the domain error behind a failed tool call so clients
// can tell a bad filter from a server fault
func errorKind(err error) map[string]string {
	switch {
	case errors.Is(err, league.ErrInvalidFilter):
		return map[string]string{"kind": "invalid_filter"}
	case errors.Is(err, league.ErrMissingRankingData):
		return map[string]string{"kind": "missing_ranking_data"}
	case errors.Is(err, league.ErrUnknownMetric):
		return map[string]string{"kind": "unknown_metric"}
	}
	return nil
}

func (s *Server) handleInitialize(ctx context.Context, params any) (any, error) {
	version := protocol.DefaultProtocolVersion
	var req struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if raw, ok := params.(json.RawMessage); ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid initialize parameters: " + err.Error()}
		}
	}
	if req.ProtocolVersion != "" {
		version = req.ProtocolVersion
	}
	logger.Info("Handling initialize request with", len(s.Tools()), "tools registered, protocol", version)

	capabilities := map[string]any{}
	if len(s.Tools()) > 0 {
		capabilities["tools"] = map[string]any{"listChanged": false}
	}

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{
		ProtocolVersion: version,
		Capabilities:    capabilities,
		ServerInfo:      serverInfo{Name: s.name, Version: s.version},
	}, nil
}

// handleInitialized acknowledges the client; it needs no response
func (s *Server) handleInitialized(ctx context.Context, params any) (any, error) {
	logger.Info("Handling initialized notification")
	return nil, nil
}

func (s *Server) handlePing(ctx context.Context, params any) (any, error) {
	return struct{}{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params any) (any, error) {
	logger.Info("Handling tools/list request")
	return protocol.ToolsResponse{Tools: s.Tools()}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params any) (any, error) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	raw, _ := params.(json.RawMessage)
	if err := json.Unmarshal(raw, &call); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call parameters: " + err.Error()}
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.RLock()
	handler := s.tools[call.Name]
	if handler == nil && strings.HasPrefix(call.Name, toolPrefix) {
		handler = s.tools[strings.TrimPrefix(call.Name, toolPrefix)]
	}
	s.mu.RUnlock()
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrMethodNotFound, Message: "tool not found: " + call.Name}
	}

	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	result, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("tool %s failed: %w", call.Name, err)
	}
	return result, nil
}
