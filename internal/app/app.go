// Package app assembles the store, the feed and the snapshot state from a
// Config. Every entry point opens one App and closes it on the way out.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/richard-senior/matchboard/internal/config"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/datasource"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/store"
	"github.com/richard-senior/matchboard/pkg/tools"
)

type App struct {
	Config *config.Config
	Store  *store.Store
	State  *snapshot.State
	// HasSource is false when no feed credentials are configured
	HasSource bool
}

// Open creates the data directories, opens the database and loads the
// current snapshot. Missing credentials are not an error: the app then
// serves what is already stored and refreshes fail with ErrNoSource.
func Open(c *config.Config) (*App, error) {
	for _, dir := range []string{c.DataDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	st, err := store.Open(c.DBPath)
	if err != nil {
		return nil, err
	}

	var source snapshot.Source
	feed, err := datasource.NewStatsPerform(c)
	switch {
	case errors.Is(err, config.ErrMissingCredentials):
		logger.Warn("Feed credentials not set, serving stored matches only")
	case err != nil:
		st.Close()
		return nil, err
	default:
		source = datasource.NewDownloader(feed, datasource.NewFileCache(c.CacheDir))
	}

	state := snapshot.New(st, source, snapshot.Options{
		MaxAge: c.MaxAge,
		Points: c.Points,
		Download: datasource.DownloadOptions{
			CalendarID:  c.TournamentCalendarID,
			OnlyPlayed:  c.OnlyPlayed,
			Incremental: c.Incremental,
			Pause:       c.RequestPause,
		},
	})
	if err := state.Load(); err != nil {
		st.Close()
		return nil, err
	}
	return &App{Config: c, Store: st, State: state, HasSource: source != nil}, nil
}

// Tools returns the league tools over the app's state
func (a *App) Tools() []tools.Entry {
	return tools.NewLeague(a.State, a.Config.CompetitionName).Entries()
}

func (a *App) Close() error {
	return a.Store.Close()
}
