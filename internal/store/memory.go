package store

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of game storage
type MemoryStore struct {
	games   map[string]*Game
	players map[string][]*Game
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[string]*Game),
		players: make(map[string][]*Game),
	}
}

// SaveGame saves a game to the store. Saving the same game again is a no-op
// for the player index.
func (s *MemoryStore) SaveGame(g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[g.ID]; exists {
		s.games[g.ID] = g
		return nil
	}
	s.games[g.ID] = g
	s.players[g.PlayerID] = append(s.players[g.PlayerID], g)

	return nil
}

// GetGame retrieves a game by ID
func (s *MemoryStore) GetGame(id string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.games[id]
	if !exists {
		return nil, ErrGameNotFound
	}

	return g, nil
}

func (s *MemoryStore) GetPlayerGames(playerID string) ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := s.players[playerID]
	out := make([]*Game, len(games))
	copy(out, games)
	return out, nil
}

// GetActivePlayerGame returns the most recent unfinished game for a player
func (s *MemoryStore) GetActivePlayerGame(playerID string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := s.players[playerID]
	for i := len(games) - 1; i >= 0; i-- {
		if games[i].Active() {
			return games[i], nil
		}
	}

	return nil, ErrGameNotFound
}

// DeleteGame removes a game from the store
func (s *MemoryStore) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.games[id]
	if !exists {
		return ErrGameNotFound
	}

	delete(s.games, id)

	games := s.players[g.PlayerID]
	for i, pg := range games {
		if pg.ID == id {
			s.players[g.PlayerID] = append(games[:i:i], games[i+1:]...)
			break
		}
	}
	if len(s.players[g.PlayerID]) == 0 {
		delete(s.players, g.PlayerID)
	}

	return nil
}

// GetAllGames returns all games in the store, oldest first
func (s *MemoryStore) GetAllGames() ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return games, nil
}
