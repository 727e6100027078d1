package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/venue"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS ratings (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	player     TEXT NOT NULL,
	discipline TEXT NOT NULL,
	rated_on   TEXT NOT NULL,
	rating     REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ratings_player ON ratings(player, discipline, seq);

CREATE TABLE IF NOT EXISTS processed_matches (
	match_id     TEXT PRIMARY KEY,
	processed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS venue_factors (
	venue   TEXT NOT NULL,
	season  TEXT NOT NULL DEFAULT '',
	batting TEXT NOT NULL,
	bowling TEXT NOT NULL,
	PRIMARY KEY (venue, season)
);`

// SQLiteStore implements RatingStore and VenueFactorStore on a single
// SQLite file. The seq column preserves append order, so the latest rating
// is always the highest seq per player and discipline.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ RatingStore      = (*SQLiteStore)(nil)
	_ VenueFactorStore = (*SQLiteStore)(nil)
)

// OpenSQLiteStore opens (creating if needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The pipeline is single-writer; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetLatest returns the most recent entry for a player and discipline.
func (s *SQLiteStore) GetLatest(ctx context.Context, player string, d model.Discipline) (model.Rated, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT rated_on, rating FROM ratings
		 WHERE player = ? AND discipline = ?
		 ORDER BY seq DESC LIMIT 1`, player, string(d))

	var on string
	var rating float64
	if err := row.Scan(&on, &rating); err != nil {
		if err == sql.ErrNoRows {
			return model.Rated{}, false, nil
		}
		return model.Rated{}, false, fmt.Errorf("read latest rating: %w", err)
	}
	date, err := parseDate(on)
	if err != nil {
		return model.Rated{}, false, fmt.Errorf("parse stored date: %w", err)
	}
	return model.Rated{Date: date, Rating: rating}, true, nil
}

// GetBatch returns the latest entry per discipline for each named player in
// a single query.
func (s *SQLiteStore) GetBatch(ctx context.Context, players []string) (map[string]map[model.Discipline]model.Rated, error) {
	out := make(map[string]map[model.Discipline]model.Rated, len(players))
	if len(players) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(players)-1) + "?"
	args := make([]interface{}, len(players))
	for i, p := range players {
		args[i] = p
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT r.player, r.discipline, r.rated_on, r.rating
		 FROM ratings r
		 JOIN (SELECT player, discipline, MAX(seq) AS seq
		       FROM ratings WHERE player IN (%s)
		       GROUP BY player, discipline) latest
		 ON r.seq = latest.seq`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("batch read ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var player, discipline, on string
		var rating float64
		if err := rows.Scan(&player, &discipline, &on, &rating); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		date, err := parseDate(on)
		if err != nil {
			return nil, fmt.Errorf("parse stored date: %w", err)
		}
		if out[player] == nil {
			out[player] = make(map[model.Discipline]model.Rated, 2)
		}
		out[player][model.Discipline(discipline)] = model.Rated{Date: date, Rating: rating}
	}
	return out, rows.Err()
}

// Append adds one history entry.
func (s *SQLiteStore) Append(ctx context.Context, e model.RatingEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (player, discipline, rated_on, rating) VALUES (?, ?, ?, ?)`,
		e.Player, string(e.Discipline), formatDate(e.Date), e.Rating)
	if err != nil {
		return fmt.Errorf("append rating: %w", err)
	}
	return nil
}

// AppendBatch adds many history entries in one transaction.
func (s *SQLiteStore) AppendBatch(ctx context.Context, entries []model.RatingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ratings (player, discipline, rated_on, rating) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append batch: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Player, string(e.Discipline), formatDate(e.Date), e.Rating); err != nil {
			return fmt.Errorf("append rating for %s: %w", e.Player, err)
		}
	}
	return tx.Commit()
}

// ListPlayers returns every player with rating history, sorted.
func (s *SQLiteStore) ListPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT player FROM ratings ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// HasMarker reports whether a match was already processed.
func (s *SQLiteStore) HasMarker(ctx context.Context, matchID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_matches WHERE match_id = ?`, matchID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read marker: %w", err)
	}
	return true, nil
}

// WriteMarker records a match as processed. Idempotent under retry.
func (s *SQLiteStore) WriteMarker(ctx context.Context, matchID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_matches (match_id, processed_at) VALUES (?, ?)`,
		matchID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// ClearAll removes all ratings and markers. Venue profiles survive a reset.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ratings`); err != nil {
		return fmt.Errorf("clear ratings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM processed_matches`); err != nil {
		return fmt.Errorf("clear markers: %w", err)
	}
	return tx.Commit()
}

// Get returns the stored profile for a venue and season.
func (s *SQLiteStore) Get(ctx context.Context, name, season string) (venue.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT batting, bowling FROM venue_factors WHERE venue = ? AND season = ?`,
		name, season)

	var battingJSON, bowlingJSON []byte
	if err := row.Scan(&battingJSON, &bowlingJSON); err != nil {
		if err == sql.ErrNoRows {
			return venue.Profile{}, ErrNotFound
		}
		return venue.Profile{}, fmt.Errorf("read venue factors: %w", err)
	}

	p := venue.Profile{Venue: name, Season: season}
	if err := json.Unmarshal(battingJSON, &p.Batting); err != nil {
		return venue.Profile{}, fmt.Errorf("decode batting factors: %w", err)
	}
	if err := json.Unmarshal(bowlingJSON, &p.Bowling); err != nil {
		return venue.Profile{}, fmt.Errorf("decode bowling factors: %w", err)
	}
	return p, nil
}

// PutAll upserts the given profiles in one transaction.
func (s *SQLiteStore) PutAll(ctx context.Context, profiles []venue.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin factor upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO venue_factors (venue, season, batting, bowling) VALUES (?, ?, ?, ?)
		 ON CONFLICT (venue, season) DO UPDATE SET
		   batting = excluded.batting,
		   bowling = excluded.bowling`)
	if err != nil {
		return fmt.Errorf("prepare factor upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range profiles {
		battingJSON, err := json.Marshal(p.Batting)
		if err != nil {
			return fmt.Errorf("encode batting factors: %w", err)
		}
		bowlingJSON, err := json.Marshal(p.Bowling)
		if err != nil {
			return fmt.Errorf("encode bowling factors: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, p.Venue, p.Season, battingJSON, bowlingJSON); err != nil {
			return fmt.Errorf("upsert factors for %s: %w", p.Venue, err)
		}
	}
	return tx.Commit()
}
