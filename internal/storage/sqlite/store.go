// Package sqlite provides a SQLite-backed store for game results and
// per-agent standings.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tatianab/deduction-bench/internal/models"
)

// ErrNotFound is returned when a game id has no stored result.
var ErrNotFound = errors.New("result not found")

const schema = `
CREATE TABLE IF NOT EXISTS games (
  game_id          TEXT PRIMARY KEY,
  tournament_id    TEXT NOT NULL DEFAULT '',
  variant          TEXT NOT NULL,
  seed             INTEGER NOT NULL,
  winner           TEXT NOT NULL,
  winners          TEXT NOT NULL,
  win_reason       TEXT NOT NULL,
  num_rounds       INTEGER NOT NULL,
  duration_seconds REAL NOT NULL,
  created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS games_variant ON games (variant);
CREATE INDEX IF NOT EXISTS games_tournament ON games (tournament_id);
CREATE TABLE IF NOT EXISTS players (
  game_id    TEXT NOT NULL REFERENCES games (game_id) ON DELETE CASCADE,
  player_id  INTEGER NOT NULL,
  agent_name TEXT NOT NULL,
  won        INTEGER NOT NULL,
  stats      TEXT NOT NULL,
  PRIMARY KEY (game_id, player_id)
);
`

// Store persists results in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Concurrent games funnel their writes through one connection.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &Store{sqlDB: sqlDB, now: time.Now}
	if err := s.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveResult stores r, replacing an earlier result for the same game.
func (s *Store) SaveResult(ctx context.Context, tournamentID string, r models.GameResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(r.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	winners, err := json.Marshal(r.Winners)
	if err != nil {
		return fmt.Errorf("encode winners: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE game_id = ?`, r.GameID); err != nil {
		return fmt.Errorf("replace result %s: %w", r.GameID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (
		   game_id, tournament_id, variant, seed, winner, winners,
		   win_reason, num_rounds, duration_seconds, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, tournamentID, r.Variant, r.Seed, r.Winner, string(winners),
		r.WinReason, r.NumRounds, r.DurationSeconds, toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.GameID, err)
	}

	players := make([]models.PlayerID, 0, len(r.PlayerStats))
	for p := range r.PlayerStats {
		players = append(players, p)
	}
	slices.Sort(players)
	for _, p := range players {
		stats := r.PlayerStats[p]
		data, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("encode stats for player %d: %w", p, err)
		}
		name, _ := stats["agent"].(string)
		won := 0
		if slices.Contains(r.Winners, p) {
			won = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (game_id, player_id, agent_name, won, stats) VALUES (?, ?, ?, ?, ?)`,
			r.GameID, int(p), name, won, string(data),
		); err != nil {
			return fmt.Errorf("save player %d of %s: %w", p, r.GameID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result %s: %w", r.GameID, err)
	}
	return nil
}

// GetResult loads one result. Stats numbers come back as float64.
func (s *Store) GetResult(ctx context.Context, gameID string) (models.GameResult, error) {
	if err := ctx.Err(); err != nil {
		return models.GameResult{}, err
	}
	var (
		r       models.GameResult
		winners string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT game_id, variant, seed, winner, winners, win_reason, num_rounds, duration_seconds
		 FROM games WHERE game_id = ?`, gameID,
	).Scan(&r.GameID, &r.Variant, &r.Seed, &r.Winner, &winners, &r.WinReason, &r.NumRounds, &r.DurationSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GameResult{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
	}
	if err != nil {
		return models.GameResult{}, fmt.Errorf("get result %s: %w", gameID, err)
	}
	if err := json.Unmarshal([]byte(winners), &r.Winners); err != nil {
		return models.GameResult{}, fmt.Errorf("decode winners of %s: %w", gameID, err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player_id, stats FROM players WHERE game_id = ? ORDER BY player_id`, gameID)
	if err != nil {
		return models.GameResult{}, fmt.Errorf("get players of %s: %w", gameID, err)
	}
	defer rows.Close()
	r.PlayerStats = make(map[models.PlayerID]map[string]any)
	for rows.Next() {
		var (
			p    int
			data string
		)
		if err := rows.Scan(&p, &data); err != nil {
			return models.GameResult{}, fmt.Errorf("scan player of %s: %w", gameID, err)
		}
		var stats map[string]any
		if err := json.Unmarshal([]byte(data), &stats); err != nil {
			return models.GameResult{}, fmt.Errorf("decode stats of %s: %w", gameID, err)
		}
		r.PlayerStats[models.PlayerID(p)] = stats
	}
	return r, rows.Err()
}

// ListResults returns game ids for a variant (all variants when empty),
// oldest first.
func (s *Store) ListResults(ctx context.Context, variant string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT game_id FROM games WHERE (? = '' OR variant = ?) ORDER BY created_at, game_id`,
		variant, variant)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Standing is one agent's record across stored games.
type Standing struct {
	Agent   string  `json:"agent" yaml:"agent"`
	Games   int     `json:"games" yaml:"games"`
	Wins    int     `json:"wins" yaml:"wins"`
	WinRate float64 `json:"win_rate" yaml:"win_rate"`
}

// Standings aggregates wins per agent name for a variant (all when empty),
// best first.
func (s *Store) Standings(ctx context.Context, variant string) ([]Standing, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT p.agent_name, COUNT(*), SUM(p.won)
		 FROM players p JOIN games g ON g.game_id = p.game_id
		 WHERE (? = '' OR g.variant = ?)
		 GROUP BY p.agent_name
		 ORDER BY SUM(p.won) * 1.0 / COUNT(*) DESC, p.agent_name`,
		variant, variant)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	defer rows.Close()
	var out []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Agent, &st.Games, &st.Wins); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		if st.Games > 0 {
			st.WinRate = float64(st.Wins) / float64(st.Games)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
