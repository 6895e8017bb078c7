package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/duynguyendang/askdb/pkg/assistant"
	"github.com/duynguyendang/askdb/pkg/conversation"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	err     error
	asked   []string
	cleared bool
}

func (f *fakeService) Ask(ctx context.Context, q string) (*assistant.Answer, error) {
	f.asked = append(f.asked, q)
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Answer{TurnID: "t-1", SQL: "SELECT 1", Rows: []*conversation.Record{}, Summary: "One."}, nil
}

func (f *fakeService) Clear() { f.cleared = true }

func (f *fakeService) History() assistant.History {
	return assistant.History{MaxTurns: 5, Turns: []conversation.Turn{{Role: conversation.RoleUser, Content: "hi"}}}
}

func (f *fakeService) Schema() string { return "CREATE TABLE t (id INTEGER);" }

func newTestServer(svc Service) *MCPServer {
	return &MCPServer{svc: svc, logger: zerolog.Nop()}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleAsk(t *testing.T) {
	svc := &fakeService{}
	ms := newTestServer(svc)

	res, err := ms.handleAsk(context.Background(), callRequest("ask", map[string]any{"question": " hello "}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"hello"}, svc.asked)

	var ans map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &ans))
	assert.Equal(t, "SELECT 1", ans["sql"])
	assert.Equal(t, "One.", ans["summary"])
}

func TestHandleAskErrors(t *testing.T) {
	svc := &fakeService{err: errors.New("model request failed: deadline exceeded")}
	ms := newTestServer(svc)

	res, err := ms.handleAsk(context.Background(), callRequest("ask", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, svc.asked)

	res, err = ms.handleAsk(context.Background(), callRequest("ask", map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "deadline exceeded")
}

func TestHandleClearAndSchema(t *testing.T) {
	svc := &fakeService{}
	ms := newTestServer(svc)

	res, err := ms.handleClear(context.Background(), callRequest("clear", nil))
	require.NoError(t, err)
	assert.True(t, svc.cleared)
	assert.Equal(t, "Conversation cleared.", resultText(t, res))

	res, err = ms.handleSchema(context.Background(), callRequest("schema", nil))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE t (id INTEGER);", resultText(t, res))
}

func TestHandleHistory(t *testing.T) {
	ms := newTestServer(&fakeService{})

	var req mcp.ReadResourceRequest
	req.Params.URI = historyURI
	contents, err := ms.handleHistory(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, historyURI, text.URI)
	assert.Contains(t, text.Text, `"max_turns": 5`)
}

func TestNewRegistersServer(t *testing.T) {
	assert.NotNil(t, New(&fakeService{}, "test", zerolog.Nop()))
}
