package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/calvinwijaya/uno-game-be/internal/config"
	"github.com/calvinwijaya/uno-game-be/internal/db"
	"github.com/calvinwijaya/uno-game-be/internal/game"
	"github.com/calvinwijaya/uno-game-be/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handlers contains all the API handlers
type Handlers struct {
	store    store.Store
	database *db.Database
	hub      *Hub
	rules    game.Rules
	autoPlay bool
	log      *logrus.Entry
}

// NewHandlers creates a new instance of Handlers. database and hub may be nil.
func NewHandlers(st store.Store, database *db.Database, hub *Hub, cfg config.Config, log *logrus.Entry) *Handlers {
	return &Handlers{
		store:    st,
		database: database,
		hub:      hub,
		rules:    cfg.Rules,
		autoPlay: cfg.AutoPlayDrawn,
		log:      log,
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Game endpoints
	r.HandleFunc("/api/game/new", h.NewGame).Methods("POST")
	r.HandleFunc("/api/game/{id}/play", h.PlayCard).Methods("POST")
	r.HandleFunc("/api/game/{id}/draw", h.DrawCard).Methods("POST")
	r.HandleFunc("/api/game/{id}/pass", h.Pass).Methods("POST")
	r.HandleFunc("/api/game/{id}/color", h.ChooseColor).Methods("POST")
	r.HandleFunc("/api/game/{id}/moves", h.GetMoves).Methods("GET")
	r.HandleFunc("/api/game/{id}", h.GetGame).Methods("GET")
	r.HandleFunc("/api/game/{id}", h.AbandonGame).Methods("DELETE")
	r.HandleFunc("/api/games/recent", h.RecentGames).Methods("GET")

	// Player endpoints
	r.HandleFunc("/api/player/register", h.RegisterPlayer).Methods("POST")
	r.HandleFunc("/api/player/{id}", h.GetPlayer).Methods("GET")
	r.HandleFunc("/api/player/{id}/stats", h.GetPlayerStats).Methods("GET")
	r.HandleFunc("/api/player/{id}/games", h.GetPlayerGames).Methods("GET")
	r.HandleFunc("/api/player/{id}/game", h.GetActiveGame).Methods("GET")

	// WebSocket endpoint
	if h.hub != nil {
		r.HandleFunc("/ws", h.hub.WebSocketHandler)
	}
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// error response helper function
func errorResponse(w http.ResponseWriter, status int, message string) {
	response(w, status, map[string]string{"error": message})
}

// decode reads an optional JSON body into v. An empty body leaves v alone.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// engineStatus maps an engine error to an HTTP status
func engineStatus(err error) int {
	switch game.KindOf(err) {
	case game.NotYourTurn, game.InvalidStateForOperation, game.AlreadyDrewThisTurn:
		return http.StatusConflict
	case game.IllegalMove, game.InvalidCardSpec:
		return http.StatusBadRequest
	case game.DeckExhaustedDraw:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// NewGame deals a new game against the computer
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string  `json:"playerId"`
		Seed     *uint64 `json:"seed,omitempty"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PlayerID != "" && h.database != nil {
		player, err := h.database.GetPlayerByID(req.PlayerID)
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, "Error retrieving player")
			return
		}
		if player == nil {
			errorResponse(w, http.StatusNotFound, "Player not found")
			return
		}
		if err := h.database.UpdatePlayerLastLogin(req.PlayerID); err != nil {
			h.log.WithError(err).Warn("updating last login")
		}
	}

	opts := []game.Option{game.WithLogger(h.log)}
	if req.Seed != nil {
		opts = append(opts, game.WithSeed(*req.Seed))
	}

	e, err := game.NewEngine(h.rules, opts...)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to create game")
		return
	}
	if h.hub != nil {
		e.Subscribe(h.hub.GameListener(e.ID))
	}

	state, err := e.StartGame()
	if err != nil {
		h.log.WithError(err).Error("starting game")
		errorResponse(w, http.StatusInternalServerError, "Failed to start game")
		return
	}

	g := &store.Game{Engine: e, PlayerID: req.PlayerID}
	if err := h.store.SaveGame(g); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to save game")
		return
	}
	h.record(g)

	h.log.WithFields(logrus.Fields{"game_id": e.ID, "player_id": req.PlayerID}).Info("game created")

	response(w, http.StatusCreated, game.TurnOutcome{
		Events: state.Events,
		View:   e.View(game.Human),
	})
}

// lookup fetches the game named in the URL, writing a 404 when it is missing
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*store.Game, bool) {
	g, err := h.store.GetGame(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return g, true
}

// respond writes the result of an engine action and records finished games
func (h *Handlers) respond(w http.ResponseWriter, g *store.Game, out game.TurnOutcome, err error) {
	if err != nil && !errors.Is(err, game.ErrDeckExhaustedDraw) {
		errorResponse(w, engineStatus(err), err.Error())
		return
	}

	if out.View.Phase == game.PhaseGameOver {
		h.record(g)
	}
	response(w, http.StatusOK, out)
}

// GetGame returns the human's view of a game
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	response(w, http.StatusOK, g.View(game.Human))
}

// GetMoves returns the cards the human may play right now
func (h *Handlers) GetMoves(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	moves := g.LegalMoves(game.Human)
	ids := make([]int, 0, len(moves))
	for _, m := range moves {
		ids = append(ids, m.ID)
	}

	response(w, http.StatusOK, map[string]any{
		"playableCardIds": ids,
		"cards":           moves,
	})
}

// PlayCard plays a card from the human's hand
func (h *Handlers) PlayCard(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		CardID *int `json:"cardId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID == nil {
		errorResponse(w, http.StatusBadRequest, "cardId is required")
		return
	}

	out, err := g.PlayCard(game.Human, *req.CardID)
	h.respond(w, g, out, err)
}

// DrawCard draws for the human. With auto-play on, a playable drawn card is
// played immediately.
func (h *Handlers) DrawCard(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		AutoPlay *bool `json:"autoPlay,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	autoPlay := h.autoPlay
	if req.AutoPlay != nil {
		autoPlay = *req.AutoPlay
	}

	out, err := g.DrawCard(game.Human)
	if err == nil && autoPlay && out.CanPlayDrawn {
		played, playErr := g.PlayCard(game.Human, out.Drawn.ID)
		if playErr == nil {
			played.Events = append(out.Events, played.Events...)
			played.Drawn = out.Drawn
			out = played
		} else {
			h.log.WithError(playErr).Warn("auto-playing drawn card")
		}
	}

	h.respond(w, g, out, err)
}

// Pass ends the human's turn after a playable draw
func (h *Handlers) Pass(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	out, err := g.Pass(game.Human)
	h.respond(w, g, out, err)
}

// ChooseColor names the active color after the human played a wild
func (h *Handlers) ChooseColor(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	color, err := game.ParseColor(req.Color)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := g.ChooseColor(game.Human, color)
	h.respond(w, g, out, err)
}

// AbandonGame drops a game from the live store
func (h *Handlers) AbandonGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteGame(id); err != nil {
		errorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	h.log.WithField("game_id", id).Info("game abandoned")
	w.WriteHeader(http.StatusNoContent)
}

// RecentGames lists finished games, newest first
func (h *Handlers) RecentGames(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	if h.database != nil {
		records, err := h.database.ListRecentGames(limit, db.StatusCompleted)
		if err != nil {
			errorResponse(w, http.StatusInternalServerError, "Error retrieving games")
			return
		}
		response(w, http.StatusOK, records)
		return
	}

	games, err := h.store.GetAllGames()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving games")
		return
	}

	records := []db.GameRecord{}
	for i := len(games) - 1; i >= 0 && len(records) < limit; i-- {
		if !games[i].Active() {
			records = append(records, recordOf(games[i]))
		}
	}
	response(w, http.StatusOK, records)
}

// recordOf summarizes a live game for the results table
func recordOf(g *store.Game) db.GameRecord {
	v := g.View(game.Human)
	rec := db.GameRecord{
		ID:        g.ID,
		PlayerID:  g.PlayerID,
		Status:    db.StatusActive,
		Turns:     v.Turns,
		CreatedAt: v.CreatedAt,
	}

	if v.Outcome != nil {
		rec.Status = db.StatusCompleted
		rec.Reason = v.Outcome.Reason
		if v.Outcome.Winner != nil {
			rec.Winner = v.Outcome.Winner.String()
		}
		completed := v.UpdatedAt
		rec.CompletedAt = &completed
	}
	return rec
}

// record saves the game's summary; failures are logged, not returned
func (h *Handlers) record(g *store.Game) {
	if h.database == nil {
		return
	}

	rec := recordOf(g)
	if err := h.database.SaveGameRecord(rec); err != nil {
		h.log.WithError(err).WithField("game_id", g.ID).Error("saving game record")
		return
	}
	if rec.Status == db.StatusCompleted {
		h.log.WithFields(logrus.Fields{
			"game_id": g.ID,
			"winner":  rec.Winner,
			"reason":  rec.Reason,
			"turns":   rec.Turns,
		}).Info("game recorded")
	}
}

// RegisterPlayer registers a new player
func (h *Handlers) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		errorResponse(w, http.StatusBadRequest, "Player name is required")
		return
	}

	playerID := uuid.New().String()

	if h.database == nil {
		now := time.Now().UTC()
		response(w, http.StatusCreated, db.Player{ID: playerID, Name: req.Name, CreatedAt: now, LastLogin: now})
		return
	}

	player, err := h.database.CreatePlayer(playerID, req.Name)
	if err != nil {
		h.log.WithError(err).Error("creating player")
		errorResponse(w, http.StatusInternalServerError, "Failed to create player")
		return
	}

	response(w, http.StatusCreated, player)
}

// GetPlayer returns player information
func (h *Handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	if h.database == nil {
		errorResponse(w, http.StatusInternalServerError, "Database not available")
		return
	}

	player, err := h.database.GetPlayerByID(playerID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving player")
		return
	}

	if player == nil {
		errorResponse(w, http.StatusNotFound, "Player not found")
		return
	}

	response(w, http.StatusOK, player)
}

// GetPlayerStats returns player statistics
func (h *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	if h.database == nil {
		errorResponse(w, http.StatusInternalServerError, "Database not available")
		return
	}

	stats, err := h.database.GetPlayerStats(playerID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving player statistics")
		return
	}
	if stats == nil {
		errorResponse(w, http.StatusNotFound, "Player not found")
		return
	}

	response(w, http.StatusOK, stats)
}

// GetPlayerGames lists the live games started by a player
func (h *Handlers) GetPlayerGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.GetPlayerGames(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Error retrieving games")
		return
	}

	records := make([]db.GameRecord, 0, len(games))
	for _, g := range games {
		records = append(records, recordOf(g))
	}
	response(w, http.StatusOK, records)
}

// GetActiveGame returns the player's unfinished game so a client can resume
// watching it
func (h *Handlers) GetActiveGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.GetActivePlayerGame(mux.Vars(r)["id"])
	if err != nil {
		errorResponse(w, http.StatusNotFound, "No active game")
		return
	}

	response(w, http.StatusOK, g.View(game.Human))
}
