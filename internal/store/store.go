package store

import (
	"errors"

	"github.com/calvinwijaya/uno-game-be/internal/game"
)

var ErrGameNotFound = errors.New("game not found")

// Game is a live engine plus the registered player driving the human seat
type Game struct {
	*game.Engine
	PlayerID string
}

// Active reports whether the game can still accept moves
func (g *Game) Active() bool {
	return g.Phase() != game.PhaseGameOver
}

// Store defines the interface for live game storage
type Store interface {
	// SaveGame saves a game to the store
	SaveGame(g *Game) error

	// GetGame retrieves a game by ID
	GetGame(id string) (*Game, error)

	// GetPlayerGames retrieves all games for a player, oldest first
	GetPlayerGames(playerID string) ([]*Game, error)

	// GetActivePlayerGame retrieves the unfinished game for a player
	GetActivePlayerGame(playerID string) (*Game, error)

	// DeleteGame removes a game from the store
	DeleteGame(id string) error

	// GetAllGames returns all games in the store
	GetAllGames() ([]*Game, error)
}
