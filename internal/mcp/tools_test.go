package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/calvinwijaya/uno-game-be/internal/game"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolset() *Toolset {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewToolset(game.DefaultRules(), false, logrus.NewEntry(log))
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func decode(t *testing.T, res *mcp.CallToolResult) ToolResponse {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	var resp ToolResponse
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &resp))
	return resp
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("uno", "test")
	newToolset().RegisterTools(s)
}

func TestToolsRequireGame(t *testing.T) {
	ts := newToolset()
	for _, h := range []handler{ts.handleGetGameState, ts.handlePlayCard, ts.handleDrawCard, ts.handlePassTurn} {
		res := call(t, h, map[string]any{"card_id": 1})
		assert.True(t, res.IsError)
	}
}

func TestStartGame(t *testing.T) {
	ts := newToolset()

	resp := decode(t, call(t, ts.handleStartGame, map[string]any{"seed": 12}))
	assert.Len(t, resp.State.Hand, 7)
	assert.Equal(t, game.Human, resp.State.CurrentPlayer)
	assert.NotEmpty(t, resp.Events)
	assert.False(t, resp.GameOver)

	res := call(t, ts.handleStartGame, nil)
	assert.True(t, res.IsError, "a running game blocks a new one")

	again := decode(t, call(t, ts.handleStartGame, map[string]any{"seed": 12, "restart": true}))
	assert.Equal(t, resp.State.Hand, again.State.Hand)
	assert.NotEqual(t, resp.State.GameID, again.State.GameID)

	state := decode(t, call(t, ts.handleGetGameState, nil))
	assert.Equal(t, again.State.GameID, state.State.GameID)
	assert.Empty(t, state.Events)
}

func TestRejectedMovesAreToolErrors(t *testing.T) {
	ts := newToolset()
	decode(t, call(t, ts.handleStartGame, map[string]any{"seed": 3}))

	assert.True(t, call(t, ts.handlePlayCard, map[string]any{"card_id": 9999}).IsError)
	assert.True(t, call(t, ts.handlePassTurn, nil).IsError)
	assert.True(t, call(t, ts.handleChooseColor, map[string]any{"color": "Red"}).IsError)
	assert.True(t, call(t, ts.handleChooseColor, map[string]any{"color": "Purple"}).IsError)
}

func TestPlayToCompletion(t *testing.T) {
	ts := newToolset()
	resp := decode(t, call(t, ts.handleStartGame, map[string]any{"seed": 21}))

	for step := 0; step < 2000 && !resp.GameOver; step++ {
		v := resp.State
		switch {
		case v.Phase == game.PhaseAwaitingColorChoice:
			resp = decode(t, call(t, ts.handleChooseColor, map[string]any{"color": "Green"}))
		case len(v.PlayableCardIDs) > 0:
			resp = decode(t, call(t, ts.handlePlayCard, map[string]any{"card_id": v.PlayableCardIDs[0]}))
		default:
			resp = decode(t, call(t, ts.handleDrawCard, map[string]any{"auto_play": true}))
		}
	}

	require.True(t, resp.GameOver)
	require.NotNil(t, resp.State.Outcome)
	assert.NotEmpty(t, resp.Result)

	res := call(t, ts.handlePlayCard, map[string]any{"card_id": 1})
	assert.True(t, res.IsError, "finished games reject moves")

	decode(t, call(t, ts.handleStartGame, nil))
}

func TestResult(t *testing.T) {
	human, computer := game.Human, game.Computer
	assert.Equal(t, "You win!", result(game.Outcome{Winner: &human, Reason: game.ReasonHandEmptied}))
	assert.Equal(t, "The computer wins.", result(game.Outcome{Winner: &computer, Reason: game.ReasonHandEmptied}))
	assert.Equal(t, "Draw: deck exhausted", result(game.Outcome{Reason: game.ReasonDeckExhausted}))
}
