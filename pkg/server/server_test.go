package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/protocol"
	"github.com/richard-senior/matchboard/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(out *bytes.Buffer, in string) *Server {
	s := New(transport.NewStdioTransport(strings.NewReader(in), out), "matchboard", "test")
	s.RegisterTool(protocol.Tool{Name: "echo", InputSchema: protocol.InputSchema{Type: "object"}},
		func(ctx context.Context, params any) (any, error) {
			args := params.(map[string]any)
			if _, bad := args["bad"]; bad {
				return nil, fmt.Errorf("%w: unsupported argument %q", league.ErrInvalidFilter, "bad")
			}
			return protocol.NewToolResult(fmt.Sprint(args["text"]), nil), nil
		})
	return s
}

func request(t *testing.T, method string, params any) *protocol.JsonRpcRequest {
	t.Helper()
	req, err := protocol.NewJsonRpcRequest(method, params, 1)
	require.NoError(t, err)
	return req
}

func TestInitialize(t *testing.T) {
	s := newTestServer(&bytes.Buffer{}, "")
	resp := s.HandleRequest(context.Background(), request(t, "initialize", map[string]any{"protocolVersion": "2025-03-26"}))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	var result struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "2025-03-26", result.ProtocolVersion)
	assert.Equal(t, "matchboard", result.ServerInfo.Name)
	assert.Contains(t, result.Capabilities, "tools")
}

func TestToolsListAndCall(t *testing.T) {
	s := newTestServer(&bytes.Buffer{}, "")
	ctx := context.Background()

	resp := s.HandleRequest(ctx, request(t, "tools/list", nil))
	require.Nil(t, resp.Error)
	var list protocol.ToolsResponse
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "echo", list.Tools[0].Name)

	for _, name := range []string{"echo", "mcp___echo"} {
		resp = s.HandleRequest(ctx, request(t, "tools/call", map[string]any{"name": name, "arguments": map[string]any{"text": "hi"}}))
		require.Nil(t, resp.Error, name)
		var result protocol.ToolResult
		require.NoError(t, json.Unmarshal(resp.Result, &result))
		assert.Equal(t, "hi", result.Text())
	}
}

func TestToolErrors(t *testing.T) {
	s := newTestServer(&bytes.Buffer{}, "")
	ctx := context.Background()

	resp := s.HandleRequest(ctx, request(t, "tools/call", map[string]any{"name": "echo", "arguments": map[string]any{"bad": 1}}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrToolExecutionFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid filter")
	assert.Equal(t, map[string]string{"kind": "invalid_filter"}, resp.Error.Data)

	resp = s.HandleRequest(ctx, request(t, "tools/call", map[string]any{"name": "nope"}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrMethodNotFound, resp.Error.Code)

	resp = s.HandleRequest(ctx, request(t, "resources/list", nil))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrMethodNotFound, resp.Error.Code)

	resp = s.HandleRequest(ctx, request(t, "tools/call", []int{1}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidParams, resp.Error.Code)
}

func TestNotificationsGetNoResponse(t *testing.T) {
	s := newTestServer(&bytes.Buffer{}, "")
	req, err := protocol.NewJsonRpcRequest("notifications/initialized", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, s.HandleRequest(context.Background(), req))
}

func TestServeOverStdio(t *testing.T) {
	in := `{"jsonrpc":"2.0","method":"initialize","params":{},"id":0}
{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"1.0","method":"ping","id":9}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"text":"table"}},"id":1}
`
	var out bytes.Buffer
	s := newTestServer(&out, in)
	require.NoError(t, s.Serve(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	first, err := protocol.ParseJsonRpcResponse([]byte(lines[0]))
	require.NoError(t, err)
	assert.EqualValues(t, 0, first.ID)
	assert.Contains(t, string(first.Result), protocol.DefaultProtocolVersion)

	parseErr, err := protocol.ParseJsonRpcResponse([]byte(lines[1]))
	require.NoError(t, err)
	require.NotNil(t, parseErr.Error)
	assert.Equal(t, protocol.ErrParse, parseErr.Error.Code)

	last, err := protocol.ParseJsonRpcResponse([]byte(lines[2]))
	require.NoError(t, err)
	assert.Contains(t, string(last.Result), "table")
}
