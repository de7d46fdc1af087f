// Package snapshot holds the process-wide view of the league: the matches
// loaded from the store, the reference table and ranking derived from them,
// and when they were last refreshed from the feed.
//
// Readers take the current *Snapshot and treat it as immutable. A refresh
// builds a new Snapshot and swaps it in.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/datasource"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/store"
)

// ErrNoSource is returned by Refresh when no feed is configured
var ErrNoSource = errors.New("no data source configured, set the feed credentials")

// Snapshot is one consistent view of the data
type Snapshot struct {
	Matches []league.Match
	// Table is the standings over every stored match
	Table   []league.StandingRow
	Ranking league.Ranking
	Teams   []string
	// LastRefreshed is zero when no successful refresh has been recorded
	LastRefreshed time.Time
	LastRun       *store.RefreshRecord

	agg *league.Aggregator
}

// Store is the persistence the state reads from and writes to
type Store interface {
	LoadMatches() ([]league.Match, error)
	KnownMatchIDs() (map[string]bool, error)
	SaveMatches(matches []league.Match) (int, error)
	RecordRefresh(r *store.RefreshRecord) error
	LastRefresh() (*store.RefreshRecord, error)
}

// Source downloads matches from the feed
type Source interface {
	Download(ctx context.Context, opts datasource.DownloadOptions, known map[string]bool) (*datasource.DownloadResult, error)
}

type Options struct {
	MaxAge   time.Duration
	Download datasource.DownloadOptions
	Points   league.PointsRule
}

type State struct {
	store  Store
	source Source
	opts   Options
	agg    *league.Aggregator
	now    func() time.Time

	mu      sync.RWMutex
	current *Snapshot

	// held for the whole of a refresh
	refreshMu sync.Mutex
}

// New creates a State with an empty snapshot. source may be nil, in which
// case the state serves whatever the store holds and Refresh fails.
func New(st Store, source Source, opts Options) *State {
	if opts.Points == (league.PointsRule{}) {
		opts.Points = league.StandardPoints
	}
	s := &State{
		store:  st,
		source: source,
		opts:   opts,
		agg:    league.NewAggregator(opts.Points),
		now:    time.Now,
	}
	s.current = s.build(nil, nil)
	return s
}

// Current returns the snapshot in effect. Never nil.
func (s *State) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Aggregator returns the aggregator configured with the state's points rule
func (s *State) Aggregator() *league.Aggregator {
	return s.agg
}

// Load rebuilds the snapshot from the store
func (s *State) Load() error {
	matches, err := s.store.LoadMatches()
	if err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}
	last, err := s.store.LastRefresh()
	if err != nil {
		return fmt.Errorf("failed to load refresh history: %w", err)
	}
	snap := s.build(matches, last)

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	logger.Info(fmt.Sprintf("Snapshot loaded: %d matches, %d teams", len(snap.Matches), len(snap.Teams)))
	return nil
}

func (s *State) build(matches []league.Match, last *store.RefreshRecord) *Snapshot {
	if matches == nil {
		matches = []league.Match{}
	}
	table := s.agg.Standings(matches)
	snap := &Snapshot{
		Matches: matches,
		Table:   table,
		Ranking: league.RankingFrom(table),
		Teams:   league.Teams(matches),
		LastRun: last,
		agg:     s.agg,
	}
	if last != nil {
		snap.LastRefreshed = last.FinishedAt
	}
	return snap
}

// NeedsUpdate reports whether the data is missing or older than MaxAge
func (s *State) NeedsUpdate() bool {
	return s.needsUpdate(s.Current(), s.now())
}

func (s *State) needsUpdate(snap *Snapshot, now time.Time) bool {
	if snap.LastRefreshed.IsZero() {
		return true
	}
	return now.Sub(snap.LastRefreshed) >= s.opts.MaxAge
}

const (
	ReasonUpdated      = "updated"
	ReasonNotNeeded    = "not_needed"
	ReasonNoNewMatches = "no_new_matches"
	ReasonError        = "error"
)

// UpdateResult is the outcome of AutoUpdate or Refresh
type UpdateResult struct {
	Updated      bool       `json:"updated"`
	Reason       string     `json:"reason"`
	NewMatches   int        `json:"newMatches"`
	TotalMatches int        `json:"totalMatches"`
	RunID        string     `json:"runId,omitempty"`
	Error        string     `json:"error,omitempty"`
	Info         UpdateInfo `json:"info"`
}

// AutoUpdate refreshes only when NeedsUpdate says so, unless force is set
func (s *State) AutoUpdate(ctx context.Context, force bool) (UpdateResult, error) {
	if !force && !s.NeedsUpdate() {
		info := s.LastUpdateInfo()
		logger.Debug("Data is fresh, skipping refresh:", FormatStatus(info))
		return UpdateResult{Reason: ReasonNotNeeded, TotalMatches: info.TotalMatches, Info: info}, nil
	}
	return s.Refresh(ctx)
}

// Refresh downloads new matches, stores them and swaps in a new snapshot.
// Every attempt is recorded in the refresh log, failures included.
func (s *State) Refresh(ctx context.Context) (UpdateResult, error) {
	if s.source == nil {
		return UpdateResult{Reason: ReasonError, Error: ErrNoSource.Error()}, ErrNoSource
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	run := &store.RefreshRecord{StartedAt: s.now(), Mode: s.opts.Download.Mode(), OnlyPlayed: s.opts.Download.OnlyPlayed}
	fail := func(err error) (UpdateResult, error) {
		run.FinishedAt = s.now()
		run.Status = store.RefreshError
		run.Message = err.Error()
		if rerr := s.store.RecordRefresh(run); rerr != nil {
			logger.Error("Failed to record refresh run", rerr)
		}
		logger.Error("Refresh failed:", err)
		return UpdateResult{Reason: ReasonError, RunID: run.RunID, Error: err.Error(), Info: s.LastUpdateInfo()}, err
	}

	logger.Info("Refreshing matches, mode", run.Mode)
	known, err := s.store.KnownMatchIDs()
	if err != nil {
		return fail(err)
	}
	res, err := s.source.Download(ctx, s.opts.Download, known)
	if err != nil {
		return fail(err)
	}
	inserted, err := s.store.SaveMatches(res.Matches)
	if err != nil {
		return fail(err)
	}

	run.FinishedAt = s.now()
	run.Status = store.RefreshOK
	run.TotalMatches = len(known) + inserted
	run.NewDownloads = res.NewDownloads
	run.FromCache = res.FromCache
	run.Errors = res.Errors
	run.FilterDate = res.FilterDate
	if err := s.store.RecordRefresh(run); err != nil {
		return fail(err)
	}
	if err := s.Load(); err != nil {
		return fail(err)
	}

	result := UpdateResult{
		Updated:      inserted > 0,
		Reason:       ReasonUpdated,
		NewMatches:   inserted,
		TotalMatches: len(s.Current().Matches),
		RunID:        run.RunID,
		Info:         s.LastUpdateInfo(),
	}
	if inserted == 0 {
		result.Reason = ReasonNoNewMatches
	}
	logger.Inform(fmt.Sprintf("Refresh complete: %d new matches (total %d)", result.NewMatches, result.TotalMatches))
	return result, nil
}
