package datasource

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richard-senior/matchboard/internal/config"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playedMatch = `{
  "matchInfo": {
    "id": "m1",
    "date": "2025-08-02Z",
    "contestant": [
      {"id": "c-atl", "name": "Atlas", "position": "home"},
      {"id": "c-tol", "name": "Toluca", "position": "away"}
    ]
  },
  "liveData": {
    "matchDetails": {"matchStatus": "Played", "scores": {"total": {"home": 2, "away": 1}}},
    "goal": [
      {"contestantId": "c-tol", "periodId": 1, "timeMin": 12, "timeMinSec": "11:40", "scorerName": "P. Ruiz", "type": "G"},
      {"contestantId": "c-atl", "periodId": 2, "timeMin": 60, "timeMinSec": "59:05", "scorerName": "D. Lopez", "type": "OG"},
      {"contestantId": "c-atl", "periodId": 2, "timeMin": 88, "scorerName": "J. Marquez", "type": "G"}
    ],
    "card": {"contestantId": "c-tol", "type": "Y2C", "timeMin": 70, "playerName": "L. Vega"},
    "lineUp": [
      {
        "contestantId": "c-atl",
        "player": [
          {"matchName": "C. Vargas", "position": "Goalkeeper"},
          {"firstName": "Jorge", "lastName": "Marquez", "position": "Striker"},
          {"matchName": "A. Bench", "position": "Substitute"}
        ],
        "teamOfficial": [{"type": "assistant", "matchName": "X"}, {"type": "manager", "firstName": "Gonzalo", "lastName": "Pineda"}],
        "stat": [{"type": "totalRedCard", "value": "0"}]
      },
      {
        "contestantId": "c-tol",
        "player": {"matchName": "L. Vega", "position": "Defender"},
        "teamOfficial": {"type": "manager", "matchName": "R. Mohamed"}
      }
    ]
  }
}`

func TestParseMatch(t *testing.T) {
	m, ok, err := ParseMatch([]byte(playedMatch))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "Atlas", m.HomeTeam)
	assert.Equal(t, "Toluca", m.AwayTeam)
	assert.Equal(t, 2, m.HomeGoals)
	assert.Equal(t, 1, m.AwayGoals)

	require.Len(t, m.Goals, 3)
	assert.Equal(t, league.GoalEvent{Team: "Toluca", Scorer: "P. Ruiz", Period: 1, Minute: 12, Second: 40}, m.Goals[0])
	assert.True(t, m.Goals[1].OwnGoal)
	assert.Equal(t, "Atlas", m.Goals[1].Team)

	assert.Equal(t, []string{"C. Vargas", "Jorge Marquez"}, m.HomeLineup.Starters)
	assert.Equal(t, "Gonzalo Pineda", m.HomeLineup.Coach)
	assert.Equal(t, []string{"L. Vega"}, m.AwayLineup.Starters)
	assert.Equal(t, "R. Mohamed", m.AwayLineup.Coach)

	assert.True(t, m.HasRedCard())
	ga := league.AnalyzeGoals(m, "Atlas")
	assert.True(t, ga.ConcededFirst)
	assert.True(t, ga.Comeback)
}

func TestParseMatchRedCardFromStat(t *testing.T) {
	raw := strings.Replace(playedMatch, `"card": {"contestantId": "c-tol", "type": "Y2C", "timeMin": 70, "playerName": "L. Vega"},`, "", 1)
	raw = strings.Replace(raw, `"value": "0"`, `"value": "1"`, 1)

	m, ok, err := ParseMatch([]byte(raw))
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, m.Cards, 1)
	assert.Equal(t, league.CardEvent{Team: "Atlas", Type: league.CardRed}, m.Cards[0])
}

func TestParseMatchNotPlayed(t *testing.T) {
	raw := strings.Replace(playedMatch, `"Played"`, `"Fixture"`, 1)
	_, ok, err := ParseMatch([]byte(raw))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseMatchErrors(t *testing.T) {
	_, _, err := ParseMatch([]byte(`{"errorCode": "10211"}`))
	assert.ErrorIs(t, err, ErrFeed)

	_, _, err = ParseMatch([]byte(`not json`))
	assert.Error(t, err)

	raw := strings.Replace(playedMatch, `"position": "away"`, `"position": "neutral"`, 1)
	_, _, err = ParseMatch([]byte(raw))
	assert.Error(t, err)
}

const schedule = `{
  "matchDate": [
    {"date": "2025-08-01Z", "match": [
      {"id": "f1", "homeContestantName": "Atlas", "awayContestantName": "Toluca"},
      {"id": "f2", "homeContestantName": "Cruz Azul", "awayContestantName": "Pumas"}
    ]},
    {"date": "2025-08-09Z", "match": {"id": "f3", "homeContestantName": "Toluca", "awayContestantName": "Pumas"}},
    {"date": "2025-09-20Z", "match": [{"id": "f4", "homeContestantName": "Pumas", "awayContestantName": "Atlas"}]}
  ]
}`

func TestScheduleFixtures(t *testing.T) {
	s, err := ParseSchedule([]byte(schedule))
	require.NoError(t, err)
	fx := s.Fixtures()
	require.Len(t, fx, 4)
	assert.Equal(t, Fixture{ID: "f3", Date: time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), HomeTeam: "Toluca", AwayTeam: "Pumas"}, fx[2])

	_, err = ParseSchedule([]byte(`{"errorCode": 404}`))
	assert.ErrorIs(t, err, ErrFeed)
}

func TestTokenHash(t *testing.T) {
	sum := sha512.Sum512([]byte("outlet1700000000000secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), tokenHash("outlet", 1700000000000, "secret"))
}

func testConfig(url string) *config.Config {
	c := config.DefaultConfig()
	c.OutletKey = "outlet"
	c.SecretKey = "secret"
	c.BaseURL = url
	c.OAuthURL = url + "/oauth/token"
	c.MaxRetries = 1
	return c
}

func TestStatsPerformClient(t *testing.T) {
	var tokenCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/oauth/token/outlet":
			atomic.AddInt32(&tokenCalls, 1)
			assert.Equal(t, http.MethodPost, r.Method)
			ts := r.Header.Get("Timestamp")
			sum := sha512.Sum512([]byte("outlet" + ts + "secret"))
			assert.Equal(t, "Basic "+hex.EncodeToString(sum[:]), r.Header.Get("Authorization"))
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "b2b-feeds-auth", r.PostForm.Get("scope"))
			fmt.Fprintf(w, `{"access_token":"tok%d"}`, atomic.LoadInt32(&tokenCalls))
		case r.URL.Path == "/soccerdata/matchstats/outlet":
			assert.Equal(t, "json", r.URL.Query().Get("_fmt"))
			assert.Equal(t, "b", r.URL.Query().Get("_rt"))
			if r.URL.Query().Get("fx") == "bad" {
				w.Write([]byte(`{"errorCode":"10211"}`))
				return
			}
			fmt.Fprintf(w, `{"auth":%q}`, r.Header.Get("Authorization"))
		case r.URL.Path == "/soccerdata/tournamentschedule/outlet":
			assert.Equal(t, "tmcl1", r.URL.Query().Get("tmcl"))
			w.Write([]byte(schedule))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sp, err := NewStatsPerform(testConfig(srv.URL))
	require.NoError(t, err)
	clock := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	sp.now = func() time.Time { return clock }
	ctx := context.Background()

	body, err := sp.MatchStats(ctx, "m1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth":"Bearer tok1"}`, string(body))

	_, err = sp.MatchStats(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "token is reused while fresh")

	clock = clock.Add(56 * time.Second)
	body, err = sp.MatchStats(ctx, "m3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth":"Bearer tok2"}`, string(body))

	_, err = sp.MatchStats(ctx, "bad")
	assert.ErrorIs(t, err, ErrFeed)

	s, err := sp.TournamentSchedule(ctx, "tmcl1")
	require.NoError(t, err)
	assert.Len(t, s.Fixtures(), 4)
}

func TestNewStatsPerformNeedsCredentials(t *testing.T) {
	_, err := NewStatsPerform(config.DefaultConfig())
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

type fakeFeed struct {
	payloads map[string]string
	requests []string
}

func (f *fakeFeed) TournamentSchedule(ctx context.Context, calendarID string) (*Schedule, error) {
	return ParseSchedule([]byte(schedule))
}

func (f *fakeFeed) MatchStats(ctx context.Context, id string) ([]byte, error) {
	f.requests = append(f.requests, id)
	p, ok := f.payloads[id]
	if !ok {
		return nil, errors.New("boom")
	}
	return []byte(p), nil
}

func payload(id string, status string) string {
	s := strings.Replace(playedMatch, `"id": "m1"`, fmt.Sprintf(`"id": %q`, id), 1)
	return strings.Replace(s, `"Played"`, fmt.Sprintf("%q", status), 1)
}

func TestDownloader(t *testing.T) {
	feed := &fakeFeed{payloads: map[string]string{
		"f1": payload("f1", "Played"),
		"f3": payload("f3", "Fixture"),
		"f4": payload("f4", "Played"),
	}}
	cache := NewFileCache(t.TempDir())
	d := NewDownloader(feed, cache)
	var pauses int
	d.sleep = func(ctx context.Context, dur time.Duration) error { pauses++; return nil }

	opts := DownloadOptions{CalendarID: "tmcl1", OnlyPlayed: true, Incremental: true, Pause: time.Millisecond,
		Today: time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC)}

	res, err := d.Download(context.Background(), opts, map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f3"}, feed.requests, "f4 is after today")
	assert.Equal(t, 1, res.NewDownloads)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.Pending)
	assert.Equal(t, 1, res.TotalMatches)
	assert.Equal(t, "2025-08-10", res.FilterDate)
	assert.Equal(t, "incremental", res.Mode)
	assert.Equal(t, 2, pauses)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "f1", res.Matches[0].ID)

	_, ok := cache.Get("f1")
	assert.True(t, ok)
	_, ok = cache.Get("f3")
	assert.False(t, ok, "unplayed payloads are not cached")

	// a full run reads f1 from the cache
	feed.requests = nil
	opts.Incremental = false
	res, err = d.Download(context.Background(), opts, map[string]bool{"f1": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3"}, feed.requests)
	assert.Equal(t, 1, res.FromCache)
	assert.Equal(t, 0, res.NewDownloads)
	assert.Equal(t, "full", res.Mode)

	// incremental skips known ids entirely
	feed.requests = nil
	opts.Incremental = true
	res, err = d.Download(context.Background(), opts, map[string]bool{"f1": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"f2", "f3"}, feed.requests)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.TotalMatches)
}

func TestDownloaderStopsOnCancel(t *testing.T) {
	d := NewDownloader(&fakeFeed{}, NewFileCache(t.TempDir()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Download(ctx, DownloadOptions{CalendarID: "x"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileCacheRejectsUnsafeIDs(t *testing.T) {
	c := NewFileCache(t.TempDir())
	assert.Error(t, c.Put("../escape", []byte("{}")))
	_, ok := c.Get("../escape")
	assert.False(t, ok)
}
