package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	_ "modernc.org/sqlite"
)

// MatchRecord is one played match. The full match, lineups and events
// included, is kept as JSON in Payload; the other columns exist for queries.
type MatchRecord struct {
	ID        string    `column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	Date      time.Time `column:"date" dbtype:"DATETIME" index:"true"`
	HomeTeam  string    `column:"home_team" dbtype:"TEXT" index:"true"`
	AwayTeam  string    `column:"away_team" dbtype:"TEXT" index:"true"`
	HomeGoals int       `column:"home_goals" dbtype:"INTEGER"`
	AwayGoals int       `column:"away_goals" dbtype:"INTEGER"`
	Payload   string    `column:"payload" dbtype:"TEXT NOT NULL"`
	StoredAt  time.Time `column:"stored_at" dbtype:"DATETIME"`
}

func (r *MatchRecord) TableName() string          { return "matches" }
func (r *MatchRecord) PrimaryKey() map[string]any { return map[string]any{"id": r.ID} }

func newMatchRecord(m league.Match, now time.Time) (*MatchRecord, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match %s: %w", m.ID, err)
	}
	return &MatchRecord{
		ID:        m.ID,
		Date:      m.Date.UTC(),
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		HomeGoals: m.HomeGoals,
		AwayGoals: m.AwayGoals,
		Payload:   string(payload),
		StoredAt:  now.UTC(),
	}, nil
}

// Match decodes the stored payload
func (r *MatchRecord) Match() (league.Match, error) {
	var m league.Match
	if err := json.Unmarshal([]byte(r.Payload), &m); err != nil {
		return league.Match{}, fmt.Errorf("failed to decode match %s: %w", r.ID, err)
	}
	return m, nil
}

const (
	RefreshOK    = "ok"
	RefreshError = "error"
)

// RefreshRecord is one download run, successful or not
type RefreshRecord struct {
	RunID        string    `column:"run_id" dbtype:"TEXT NOT NULL" primary:"true" json:"runId"`
	StartedAt    time.Time `column:"started_at" dbtype:"DATETIME" json:"startedAt"`
	FinishedAt   time.Time `column:"finished_at" dbtype:"DATETIME" index:"true" json:"finishedAt"`
	Mode         string    `column:"mode" dbtype:"TEXT" json:"downloadMode"`
	Status       string    `column:"status" dbtype:"TEXT" index:"true" json:"status"`
	Message      string    `column:"message" dbtype:"TEXT" json:"message,omitempty"`
	TotalMatches int       `column:"total_matches" dbtype:"INTEGER" json:"totalMatches"`
	NewDownloads int       `column:"new_downloads" dbtype:"INTEGER" json:"newDownloads"`
	FromCache    int       `column:"from_cache" dbtype:"INTEGER" json:"fromCache"`
	Errors       int       `column:"errors" dbtype:"INTEGER" json:"errors"`
	OnlyPlayed   bool      `column:"only_played" dbtype:"INTEGER" json:"onlyPlayed"`
	FilterDate   string    `column:"filter_date" dbtype:"TEXT" json:"filterDate,omitempty"`
}

func (r *RefreshRecord) TableName() string          { return "refresh_runs" }
func (r *RefreshRecord) PrimaryKey() map[string]any { return map[string]any{"run_id": r.RunID} }

// Store is the sqlite database holding matches and refresh history
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path. ":memory:" works
// for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serialises writers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, obj := range []Persistable{&MatchRecord{}, &RefreshRecord{}} {
		if err := createTable(db, obj); err != nil {
			db.Close()
			return nil, err
		}
	}
	logger.Info("Database initialized successfully", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMatches upserts matches in one transaction and returns how many
// were not stored before
func (s *Store) SaveMatches(matches []league.Match) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	inserted := 0
	for _, m := range matches {
		rec, err := newMatchRecord(m, now)
		if err != nil {
			return 0, err
		}
		found, err := exists(tx, rec)
		if err != nil {
			return 0, err
		}
		if err := save(tx, rec); err != nil {
			return 0, err
		}
		if !found {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Debug(fmt.Sprintf("Saved %d matches (%d new)", len(matches), inserted))
	return inserted, nil
}

// LoadMatches returns every stored match ordered by date, then id
func (s *Store) LoadMatches() ([]league.Match, error) {
	recs, err := findWhere[MatchRecord](s.db, "")
	if err != nil {
		return nil, err
	}
	matches := make([]league.Match, 0, len(recs))
	for _, r := range recs {
		m, err := r.Match()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// Match returns a single stored match
func (s *Store) Match(id string) (league.Match, error) {
	rec := &MatchRecord{ID: id}
	if err := findByPrimaryKey(s.db, rec); err != nil {
		return league.Match{}, err
	}
	return rec.Match()
}

// KnownMatchIDs returns the ids of every stored match
func (s *Store) KnownMatchIDs() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT id FROM matches")
	if err != nil {
		return nil, fmt.Errorf("failed to query match ids: %w", err)
	}
	defer rows.Close()
	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// RecordRefresh stores a finished run, assigning a run id when missing
func (s *Store) RecordRefresh(r *RefreshRecord) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	return save(s.db, r)
}

// RefreshHistory returns up to limit runs, most recent first.
// limit <= 0 returns all of them.
func (s *Store) RefreshHistory(limit int) ([]*RefreshRecord, error) {
	runs, err := findWhere[RefreshRecord](s.db, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].FinishedAt.After(runs[j].FinishedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// LastRefresh returns the most recent successful run, or nil when there
// has never been one
func (s *Store) LastRefresh() (*RefreshRecord, error) {
	runs, err := findWhere[RefreshRecord](s.db, "status = ?", RefreshOK)
	if err != nil {
		return nil, err
	}
	var last *RefreshRecord
	for _, r := range runs {
		if last == nil || r.FinishedAt.After(last.FinishedAt) {
			last = r
		}
	}
	return last, nil
}
