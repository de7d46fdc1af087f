package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/util"
)

// Feed is the part of the Stats Perform client the downloader needs
type Feed interface {
	TournamentSchedule(ctx context.Context, calendarID string) (*Schedule, error)
	MatchStats(ctx context.Context, matchID string) ([]byte, error)
}

// DownloadOptions controls one download run
type DownloadOptions struct {
	CalendarID string
	// OnlyPlayed skips fixtures dated after Today
	OnlyPlayed bool
	// Incremental skips fixtures whose id is in the known set
	Incremental bool
	// Pause between two feed requests
	Pause time.Duration
	// Today defaults to the current UTC date
	Today time.Time
}

// Mode names the run the way it is recorded in refresh history
func (o DownloadOptions) Mode() string {
	if o.Incremental {
		return "incremental"
	}
	return "full"
}

// DownloadResult describes a finished run. Matches holds the played
// matches that were parsed during the run, whether fetched or cached.
type DownloadResult struct {
	LastUpdate   time.Time      `json:"lastUpdate"`
	Mode         string         `json:"downloadMode"`
	TotalMatches int            `json:"totalMatches"`
	NewDownloads int            `json:"newDownloads"`
	Errors       int            `json:"errors"`
	FromCache    int            `json:"fromCache"`
	Skipped      int            `json:"skipped"`
	Pending      int            `json:"pending"`
	OnlyPlayed   bool           `json:"onlyPlayed"`
	FilterDate   string         `json:"filterDate,omitempty"`
	Matches      []league.Match `json:"-"`
}

// Downloader pulls the schedule and then every match payload, reading
// through the per-match file cache
type Downloader struct {
	feed  Feed
	cache *FileCache
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDownloader(feed Feed, cache *FileCache) *Downloader {
	return &Downloader{feed: feed, cache: cache, now: time.Now, sleep: pause}
}

// Download runs one pass over the schedule. known holds the ids already
// stored, which incremental runs skip. Per-match failures are counted
// and logged; only a schedule failure or cancellation aborts the run.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions, known map[string]bool) (*DownloadResult, error) {
	today := opts.Today
	if today.IsZero() {
		today = d.now()
	}
	today = util.TruncateToDay(today)

	res := &DownloadResult{Mode: opts.Mode(), OnlyPlayed: opts.OnlyPlayed}
	if opts.OnlyPlayed {
		res.FilterDate = today.Format(util.DateLayout)
	}

	schedule, err := d.feed.TournamentSchedule(ctx, opts.CalendarID)
	if err != nil {
		return nil, err
	}
	fixtures := schedule.Fixtures()
	logger.Info("Schedule has fixtures:", len(fixtures))

	fetched := 0
	for _, fx := range fixtures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.OnlyPlayed && fx.Date.After(today) {
			continue
		}
		if opts.Incremental && known[fx.ID] {
			res.Skipped++
			continue
		}

		raw, cached := d.cache.Get(fx.ID)
		if !cached {
			if fetched > 0 && opts.Pause > 0 {
				if err := d.sleep(ctx, opts.Pause); err != nil {
					return nil, err
				}
			}
			fetched++
			raw, err = d.feed.MatchStats(ctx, fx.ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn(fmt.Sprintf("Failed to download %s (%s vs %s):", fx.ID, fx.HomeTeam, fx.AwayTeam), err)
				res.Errors++
				continue
			}
		}

		m, played, err := ParseMatch(raw)
		if err != nil {
			logger.Warn("Failed to parse match", fx.ID, err)
			res.Errors++
			continue
		}
		if !played {
			// fetched again next run, once the result is in
			res.Pending++
			continue
		}
		if cached {
			res.FromCache++
		} else {
			res.NewDownloads++
			if err := d.cache.Put(fx.ID, raw); err != nil {
				logger.Warn("Failed to cache match", fx.ID, err)
			}
		}
		res.Matches = append(res.Matches, m)
	}

	res.TotalMatches = len(known) + len(res.Matches)
	if !opts.Incremental {
		res.TotalMatches = len(res.Matches)
	}
	res.LastUpdate = d.now()
	logger.Inform(fmt.Sprintf("Download finished: %d new, %d cached, %d skipped, %d pending, %d errors",
		res.NewDownloads, res.FromCache, res.Skipped, res.Pending, res.Errors))
	return res, nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
