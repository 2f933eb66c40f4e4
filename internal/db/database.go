package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Game statuses stored in the games table
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Database struct {
	db *sql.DB
}

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// GameRecord is the summary of one game kept for history and stats. Winner is
// empty while the game runs and for a drawn game.
type GameRecord struct {
	ID          string     `json:"id"`
	PlayerID    string     `json:"playerId"`
	Status      string     `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Turns       int        `json:"turns"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type PlayerStats struct {
	PlayerID    string     `json:"playerId"`
	PlayerName  string     `json:"playerName"`
	GamesPlayed int        `json:"gamesPlayed"`
	GamesWon    int        `json:"gamesWon"`
	GamesLost   int        `json:"gamesLost"`
	GamesDrawn  int        `json:"gamesDrawn"`
	LastPlayed  *time.Time `json:"lastPlayed,omitempty"`
}

// Open connects to driver ("sqlite3" or "postgres") and creates the tables
// if they don't exist
func Open(driver, dsn string) (*Database, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if driver == "sqlite3" {
		// a single connection keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_login TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating players table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			status TEXT NOT NULL,
			winner TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			turns INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating games table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS games_player_id_idx ON games (player_id)`)
	if err != nil {
		return fmt.Errorf("error creating games index: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetPlayerByID retrieves a player by ID. A missing player is (nil, nil).
func (d *Database) GetPlayerByID(playerID string) (*Player, error) {
	var p Player
	err := d.db.QueryRow(
		"SELECT id, name, created_at, last_login FROM players WHERE id = $1", playerID,
	).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.LastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}

// CreatePlayer creates a new player
func (d *Database) CreatePlayer(playerID, playerName string) (*Player, error) {
	now := time.Now().UTC()
	_, err := d.db.Exec(
		"INSERT INTO players (id, name, created_at, last_login) VALUES ($1, $2, $3, $4)",
		playerID, playerName, now, now,
	)
	if err != nil {
		return nil, err
	}
	return &Player{ID: playerID, Name: playerName, CreatedAt: now, LastLogin: now}, nil
}

// UpdatePlayerLastLogin updates a player's last login timestamp
func (d *Database) UpdatePlayerLastLogin(playerID string) error {
	_, err := d.db.Exec(
		"UPDATE players SET last_login = $1 WHERE id = $2",
		time.Now().UTC(), playerID,
	)
	return err
}

// SaveGameRecord inserts or updates the summary row for a game
func (d *Database) SaveGameRecord(r GameRecord) error {
	var completedAt sql.NullTime
	if r.CompletedAt != nil {
		completedAt = sql.NullTime{Time: r.CompletedAt.UTC(), Valid: true}
	}

	_, err := d.db.Exec(`
		INSERT INTO games (id, player_id, status, winner, reason, turns, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, winner = excluded.winner, reason = excluded.reason,
			turns = excluded.turns, completed_at = excluded.completed_at
	`,
		r.ID, r.PlayerID, r.Status, r.Winner, r.Reason, r.Turns, r.CreatedAt.UTC(), completedAt)
	return err
}

const gameColumns = "id, player_id, status, winner, reason, turns, created_at, completed_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*GameRecord, error) {
	var r GameRecord
	var completedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.PlayerID, &r.Status, &r.Winner, &r.Reason, &r.Turns, &r.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// GetGameRecord retrieves a game summary by ID. A missing game is (nil, nil).
func (d *Database) GetGameRecord(id string) (*GameRecord, error) {
	r, err := scanGame(d.db.QueryRow("SELECT "+gameColumns+" FROM games WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListRecentGames returns up to limit games with the given status (any
// status when empty), newest first
func (d *Database) ListRecentGames(limit int, status string) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := "SELECT " + gameColumns + " FROM games ORDER BY created_at DESC LIMIT $1"
	args := []any{limit}
	if status != "" {
		query = "SELECT " + gameColumns + " FROM games WHERE status = $1 ORDER BY created_at DESC LIMIT $2"
		args = []any{status, limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []GameRecord{}
	for rows.Next() {
		r, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *r)
	}

	return games, rows.Err()
}

// GetPlayerStats summarizes a player's completed games. A missing player is
// (nil, nil).
func (d *Database) GetPlayerStats(playerID string) (*PlayerStats, error) {
	player, err := d.GetPlayerByID(playerID)
	if err != nil || player == nil {
		return nil, err
	}

	stats := PlayerStats{PlayerID: player.ID, PlayerName: player.Name}
	err = d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN winner = 'human' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner = 'computer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner = '' THEN 1 ELSE 0 END), 0)
		FROM games WHERE player_id = $1 AND status = $2
	`, playerID, StatusCompleted).Scan(&stats.GamesPlayed, &stats.GamesWon, &stats.GamesLost, &stats.GamesDrawn)
	if err != nil {
		return nil, fmt.Errorf("error counting games: %w", err)
	}

	var last time.Time
	err = d.db.QueryRow(
		"SELECT created_at FROM games WHERE player_id = $1 ORDER BY created_at DESC LIMIT 1", playerID,
	).Scan(&last)
	switch {
	case err == nil:
		stats.LastPlayed = &last
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("error getting last played: %w", err)
	}

	return &stats, nil
}
