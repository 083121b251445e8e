package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/pkg/adapters/memory"
	"github.com/aretw0/railchat/pkg/domain"
	"github.com/aretw0/railchat/pkg/extract"
	"github.com/aretw0/railchat/pkg/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := func() time.Time { return time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC) }
	dir := memory.NewDirectory(memory.SampleStations...)
	eng, err := railchat.New(railchat.WithClock(now), railchat.WithStations(dir))
	require.NoError(t, err)
	return NewServer(session.NewManager(memory.NewStore(), eng), extract.New(dir, extract.WithClock(now)), eng, nil)
}

func last(res TurnResponse) string {
	return res.Messages[len(res.Messages)-1].Text
}

func TestSendMessage(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "m1", "text": "I want to book a ticket"})
	require.NoError(t, err)
	assert.Equal(t, "m1", res.SessionID)
	assert.Equal(t, "Where are you departing from?", last(res))

	res, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "m1", "text": "from Norwich to Diss"})
	require.NoError(t, err)
	assert.Equal(t, "What date are you leaving?", last(res))

	_, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{"text": "hello"})
	assert.ErrorContains(t, err, "session_id is required")
}

func TestRunTurnAndReset(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleRunTurn(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "m2",
		"extraction": `{"intent":"ticket","from_station":"Norwich","from_crs":"NRW"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Where is your destination?", last(res))

	_, err = s.handleRunTurn(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": "m2",
		"extraction": map[string]any{"intent": "teleport"},
	})
	assert.ErrorContains(t, err, "unknown intent")

	_, err = s.handleRunTurn(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "m2"})
	assert.ErrorContains(t, err, "extraction is required")

	res, err = s.handleReset(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": "m2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Messages)

	sess, err := s.sessions.Load(ctx, "m2")
	require.NoError(t, err)
	assert.Empty(t, sess.Slots[domain.SlotFromCode])
}

func TestProtocol_ToolsAndResources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	initResp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	require.NotNil(t, initResp)

	list := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	out, err := json.Marshal(list)
	require.NoError(t, err)
	for _, name := range []string{"send_message", "run_turn", "reset_session", "get_session"} {
		assert.Contains(t, string(out), `"`+name+`"`)
	}

	read := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"railchat://rules"}}`))
	out, err = json.Marshal(read)
	require.NoError(t, err)
	assert.Contains(t, string(out), "graph TD")
}
