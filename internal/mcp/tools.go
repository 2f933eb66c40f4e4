package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/calvinwijaya/uno-game-be/internal/game"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ToolResponse is the JSON body of every successful tool call
type ToolResponse struct {
	Events       []game.Event   `json:"events"`
	State        game.GameView  `json:"state"`
	Drawn        *game.HandCard `json:"drawn,omitempty"`
	CanPlayDrawn bool           `json:"can_play_drawn,omitempty"`
	GameOver     bool           `json:"game_over"`
	Result       string         `json:"result,omitempty"`
}

func respondJSON(resp *ToolResponse) string {
	if resp.Events == nil {
		resp.Events = []game.Event{}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}

// Toolset plays one game at a time as the human seat
type Toolset struct {
	mu       sync.Mutex
	engine   *game.Engine
	rules    game.Rules
	autoPlay bool
	log      *logrus.Entry
}

func NewToolset(rules game.Rules, autoPlayDrawn bool, log *logrus.Entry) *Toolset {
	return &Toolset{rules: rules, autoPlay: autoPlayDrawn, log: log}
}

// RegisterTools adds all game tools to the MCP server.
func (t *Toolset) RegisterTools(s *server.MCPServer) {
	s.AddTool(startGameTool(), t.handleStartGame)
	s.AddTool(getGameStateTool(), t.handleGetGameState)
	s.AddTool(playCardTool(), t.handlePlayCard)
	s.AddTool(drawCardTool(), t.handleDrawCard)
	s.AddTool(passTurnTool(), t.handlePassTurn)
	s.AddTool(chooseColorTool(), t.handleChooseColor)
}

// --- Tool definitions ---

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Deal a new UNO game against the computer. You play the human seat and move first. "+
			"Fails while a game is still running unless restart is true."),
		mcp.WithNumber("seed", mcp.Description("Optional shuffle seed for a reproducible game")),
		mcp.WithBoolean("restart", mcp.Description("Abandon a running game and start over")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get your hand, the discard pile, the computer's card count and your playable card ids. Read-only."),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from your hand by its id. After playing a Wild or Wild Draw Four, call choose_color."),
		mcp.WithNumber("card_id", mcp.Required(), mcp.Description("The id of a card in state.hand")),
	)
}

func drawCardTool() mcp.Tool {
	return mcp.NewTool("draw_card",
		mcp.WithDescription("Draw one card. If it can be played you may play it with play_card or end the turn with pass_turn."),
		mcp.WithBoolean("auto_play", mcp.Description("Play the drawn card immediately when legal (defaults to the server setting)")),
	)
}

func passTurnTool() mcp.Tool {
	return mcp.NewTool("pass_turn",
		mcp.WithDescription("Keep a playable drawn card and end your turn. Only allowed after draw_card."),
	)
}

func chooseColorTool() mcp.Tool {
	return mcp.NewTool("choose_color",
		mcp.WithDescription("Name the active color after playing a wild card."),
		mcp.WithString("color", mcp.Required(), mcp.Enum("Red", "Blue", "Green", "Yellow"), mcp.Description("The new active color")),
	)
}

// --- Tool handlers ---

func (t *Toolset) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine != nil && t.engine.Phase() != game.PhaseGameOver && !request.GetBool("restart", false) {
		return mcp.NewToolResultError("A game is already running. Finish it or call start_game with restart=true."), nil
	}

	opts := []game.Option{game.WithLogger(t.log)}
	if _, ok := request.GetArguments()["seed"]; ok {
		seed := request.GetInt("seed", 0)
		if seed < 0 {
			return mcp.NewToolResultError("seed must be >= 0"), nil
		}
		opts = append(opts, game.WithSeed(uint64(seed)))
	}

	e, err := game.NewEngine(t.rules, opts...)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to create game: %v", err), nil
	}
	state, err := e.StartGame()
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start game: %v", err), nil
	}
	t.engine = e

	return mcp.NewToolResultText(respondJSON(&ToolResponse{
		Events: state.Events,
		State:  e.View(game.Human),
	})), nil
}

func (t *Toolset) handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	v := t.engine.View(game.Human)
	return mcp.NewToolResultText(respondJSON(newResponse(game.TurnOutcome{View: v}))), nil
}

func (t *Toolset) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID := request.GetInt("card_id", -1)
	return t.act(func(e *game.Engine) (game.TurnOutcome, error) {
		return e.PlayCard(game.Human, cardID)
	})
}

func (t *Toolset) handleDrawCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	autoPlay := request.GetBool("auto_play", t.autoPlay)
	return t.act(func(e *game.Engine) (game.TurnOutcome, error) {
		out, err := e.DrawCard(game.Human)
		if err != nil || !autoPlay || !out.CanPlayDrawn {
			return out, err
		}

		played, err := e.PlayCard(game.Human, out.Drawn.ID)
		if err != nil {
			return out, nil
		}
		played.Events = append(out.Events, played.Events...)
		played.Drawn = out.Drawn
		return played, nil
	})
}

func (t *Toolset) handlePassTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.act(func(e *game.Engine) (game.TurnOutcome, error) {
		return e.Pass(game.Human)
	})
}

func (t *Toolset) handleChooseColor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	color, err := game.ParseColor(request.GetString("color", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid color: %v", err), nil
	}
	return t.act(func(e *game.Engine) (game.TurnOutcome, error) {
		return e.ChooseColor(game.Human, color)
	})
}

// act runs one engine call for the human and renders the result. Rejected
// moves come back as tool errors so the caller can retry.
func (t *Toolset) act(fn func(e *game.Engine) (game.TurnOutcome, error)) (*mcp.CallToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine == nil {
		return mcp.NewToolResultError("No game is running. Use start_game first."), nil
	}

	out, err := fn(t.engine)
	if err != nil && game.KindOf(err) != game.DeckExhaustedDraw {
		return mcp.NewToolResultErrorf("Move rejected: %v", err), nil
	}

	return mcp.NewToolResultText(respondJSON(newResponse(out))), nil
}

func newResponse(out game.TurnOutcome) *ToolResponse {
	resp := &ToolResponse{
		Events:       out.Events,
		State:        out.View,
		Drawn:        out.Drawn,
		CanPlayDrawn: out.CanPlayDrawn,
	}
	if out.View.Outcome != nil {
		resp.GameOver = true
		resp.Result = result(*out.View.Outcome)
	}
	return resp
}

func result(o game.Outcome) string {
	switch {
	case o.IsDraw():
		return "Draw: " + o.Reason
	case *o.Winner == game.Human:
		return "You win!"
	default:
		return "The computer wins."
	}
}
