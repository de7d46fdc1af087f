package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/store"
	"github.com/richard-senior/matchboard/pkg/util"
)

// keys accepted by each group of endpoints
var (
	standingsKeys = []string{
		league.KeyVenue, league.KeyRankMin, league.KeyRankMax, league.KeyTopN, league.KeyOpponents,
		league.KeyFrom, league.KeyTo, league.KeyScoredFirst, league.KeyConcededFirst,
		league.KeyComeback, league.KeyNoRedCards,
	}
	teamKeys  = league.FilterKeys
	scopeKeys = []string{league.KeyFrom, league.KeyTo, league.KeyNoRedCards}
)

const (
	paramTopN            = "n"
	defaultTopN          = 5
	paramTeam            = "team"
	paramLimit           = "limit"
	defaultHistoryLength = 5
	maxHistoryLength     = 100
)

// filterFromQuery builds a FilterSpec from the query string. Repeated keys
// are joined with commas so ?opponents=a&opponents=b works. Keys outside
// allowed are rejected, skip names keys the caller reads itself.
func filterFromQuery(q url.Values, allowed []string, skip ...string) (league.FilterSpec, error) {
	opts := make(map[string]any, len(q))
	for key, values := range q {
		if contains(skip, key) {
			continue
		}
		if !contains(allowed, key) {
			return league.FilterSpec{}, fmt.Errorf("%w: unsupported parameter %q", league.ErrInvalidFilter, key)
		}
		opts[key] = strings.Join(values, ",")
	}
	return league.ParseFilterSpec(opts)
}

// topN reads the n parameter
func topN(q url.Values) (int, error) {
	return positiveParam(q, paramTopN, defaultTopN)
}

// positiveParam reads an integer parameter of at least 1, def when absent
func positiveParam(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if util.IsBlank(raw) {
		return def, nil
	}
	n, err := util.GetAsInteger(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", league.ErrInvalidFilter, key)
	}
	return n, nil
}

// echo keeps the first value of each query key for redisplay in the form
func echo(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for key := range q {
		out[key] = q.Get(key)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// statusOf maps an error onto an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, league.ErrInvalidFilter), errors.Is(err, league.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, league.ErrMissingRankingData):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrNoSource):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
