package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func played(id, date, home, away string, hg, ag int) league.Match {
	d, _ := time.Parse("2006-01-02", date)
	return league.Match{ID: id, Date: d, HomeTeam: home, AwayTeam: away, HomeGoals: hg, AwayGoals: ag}
}

func season() []league.Match {
	m1 := played("m1", "2025-08-01", "Atlas", "Cruz Azul", 3, 1)
	m1.HomeLineup = league.Lineup{Starters: []string{"Rocha", "Aguirre"}, Coach: "Gonzalo Pineda"}
	m1.Goals = []league.GoalEvent{{Team: "Atlas", Period: 1, Minute: 12}, {Team: "Cruz Azul", Period: 1, Minute: 30},
		{Team: "Atlas", Period: 2, Minute: 55}, {Team: "Atlas", Period: 2, Minute: 80}}
	m2 := played("m2", "2025-08-08", "Cruz Azul", "Atlas", 0, 2)
	m2.AwayLineup = league.Lineup{Starters: []string{"Rocha", "Quiñones"}, Coach: "Diego Cocca"}
	m3 := played("m3", "2025-08-15", "Toluca", "Atlas", 2, 2)
	m3.Cards = []league.CardEvent{{Team: "Toluca", Player: "Gallardo", Type: league.CardSecondYellow, Minute: 75}}
	m4 := played("m4", "2025-08-22", "Toluca", "Cruz Azul", 0, 0)
	return []league.Match{m1, m2, m3, m4}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.SaveMatches(season())
	require.NoError(t, err)
	return st
}

func newTestServer(t *testing.T) (http.Handler, *snapshot.State) {
	t.Helper()
	return newTestServerWith(t, newTestStore(t))
}

func newTestServerWith(t *testing.T, st *store.Store) (http.Handler, *snapshot.State) {
	t.Helper()
	state := snapshot.New(st, nil, snapshot.Options{MaxAge: 24 * time.Hour})
	require.NoError(t, state.Load())

	return NewRouter(NewHandler(state, st, "Liga MX"), []string{"*"}), state
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func teamsOf(rows []league.StandingRow) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.Team)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestServer(t)
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStandings(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/standings")
	require.Equal(t, http.StatusOK, rec.Code)
	var body standingsResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"Atlas", "Toluca", "Cruz Azul"}, teamsOf(body.Rows))
	assert.Equal(t, 7, body.Rows[0].Points)
	assert.Equal(t, 1, body.Rows[0].Position)

	rec = get(t, h, "/api/standings?venue=home")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, league.VenueHome, body.Filter.Venue)
	assert.Equal(t, []string{"Atlas", "Toluca", "Cruz Azul"}, teamsOf(body.Rows))
	assert.Equal(t, []int{3, 2, 0}, []int{body.Rows[0].Points, body.Rows[1].Points, body.Rows[2].Points})

	// matches against the leader only
	rec = get(t, h, "/api/standings?top_n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, []string{"Toluca", "Atlas", "Cruz Azul"}, teamsOf(body.Rows))
	assert.Equal(t, 0, body.Rows[1].Played)
}

func TestStandingsRejectsBadFilters(t *testing.T) {
	h, _ := newTestServer(t)

	for _, target := range []string{
		"/api/standings?bogus=1",
		"/api/standings?rank_min=1",
		"/api/standings?venue=neutral",
		"/api/standings?from=2025-09-01&to=2025-08-01",
		"/api/standings?coach=Diego+Cocca",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		var body map[string]string
		decode(t, rec, &body)
		assert.Contains(t, body["error"], "invalid filter", target)
	}
}

func TestTeams(t *testing.T) {
	h, _ := newTestServer(t)
	rec := get(t, h, "/api/teams")
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []teamRef
	decode(t, rec, &teams)
	assert.Contains(t, teams, teamRef{Name: "Cruz Azul", Slug: "cruz-azul"})
	assert.Len(t, teams, 3)
}

type teamBody struct {
	Team  string          `json:"team"`
	Found bool            `json:"found"`
	Data  json.RawMessage `json:"data"`
}

func TestTeamSummary(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/teams/atlas/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var body teamBody
	decode(t, rec, &body)
	assert.True(t, body.Found)
	assert.Equal(t, "Atlas", body.Team)

	var row league.StandingRow
	require.NoError(t, json.Unmarshal(body.Data, &row))
	assert.Equal(t, 3, row.Played)
	assert.Equal(t, 7, row.Points)
	assert.Equal(t, 1, row.Position)

	rec = get(t, h, "/api/teams/atlas/summary?coach=Diego+Cocca")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.NoError(t, json.Unmarshal(body.Data, &row))
	assert.Equal(t, 1, row.Played)
	assert.Equal(t, 3, row.Points)
}

func TestTeamMatches(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/teams/atlas/matches?venue=away")
	require.Equal(t, http.StatusOK, rec.Code)
	var body teamBody
	decode(t, rec, &body)

	var results []league.TeamResult
	require.NoError(t, json.Unmarshal(body.Data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "m3", results[0].MatchID)
	assert.Equal(t, "m2", results[1].MatchID)
	assert.Equal(t, "Toluca", results[0].Opponent)
}

func TestUnknownTeamIsEmpty(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/teams/zzzzzzzzzzzz/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	var body teamBody
	decode(t, rec, &body)
	assert.False(t, body.Found)
	assert.JSONEq(t, "[]", string(body.Data))

	rec = get(t, h, "/api/teams/zzzzzzzzzzzz/players")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.JSONEq(t, "[]", string(body.Data))
}

func TestTeamPlayersAndCoaches(t *testing.T) {
	h, _ := newTestServer(t)

	var body teamBody
	decode(t, get(t, h, "/api/teams/atlas/players"), &body)
	assert.JSONEq(t, `["Aguirre","Quiñones","Rocha"]`, string(body.Data))

	decode(t, get(t, h, "/api/teams/atlas/coaches"), &body)
	assert.JSONEq(t, `["Diego Cocca","Gonzalo Pineda"]`, string(body.Data))
}

func TestLeaderboard(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/leaderboards/goals-for?n=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body leaderboardResponse
	decode(t, rec, &body)
	assert.Equal(t, league.MetricGoalsFor, body.Metric)
	assert.Equal(t, []league.LeaderboardEntry{{Team: "Atlas", Value: 7}, {Team: "Toluca", Value: 2}}, body.Entries)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/leaderboards/possession").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/leaderboards/wins?n=0").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/leaderboards/wins?venue=home").Code)
}

func TestStats(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/stats?from=2025-08-10")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary league.LeagueSummary
	decode(t, rec, &summary)
	assert.Equal(t, 2, summary.Matches)
	assert.Equal(t, 4, summary.Goals)

	rec = get(t, h, "/api/stats?no_red_cards=true")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summary)
	assert.Equal(t, 3, summary.Matches)
}

func TestStatusAndRefreshWithoutSource(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var info snapshot.UpdateInfo
	decode(t, rec, &info)
	assert.True(t, info.Exists)
	assert.Equal(t, 4, info.TotalMatches)
	assert.Equal(t, "4 matches in database", info.Message)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh?force=perhaps", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the failed attempt is not in the log since no source was configured
	rec = get(t, h, "/api/refresh/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestStandingsPage(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/?venue=away")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "Liga MX", doc.Find("h1").Text())

	rows := doc.Find("table.standings tbody tr")
	require.Equal(t, 3, rows.Length())
	slug, _ := rows.First().Attr("data-team")
	assert.Equal(t, "atlas", slug)

	_, selected := doc.Find("select[name=venue] option[value=away]").Attr("selected")
	assert.True(t, selected)
	assert.Equal(t, 5, doc.Find("ol.leaders").Length())
	assert.Zero(t, doc.Find("p.error").Length())
}

func TestStandingsPageShowsFilterError(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/?top_n=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, doc.Find("p.error").Text(), "top_n")
	assert.Equal(t, 3, doc.Find("table.standings tbody tr").Length())
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/standings", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRefreshHistoryLimit(t *testing.T) {
	st := newTestStore(t)
	start := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.RecordRefresh(&store.RefreshRecord{
			StartedAt: at, FinishedAt: at.Add(time.Minute), Mode: "incremental", Status: store.RefreshOK,
		}))
	}
	h, _ := newTestServerWith(t, st)

	var runs []store.RefreshRecord
	rec := get(t, h, "/api/refresh/history")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &runs)
	assert.Len(t, runs, 5)

	rec = get(t, h, "/api/refresh/history?limit=8")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &runs)
	require.Len(t, runs, 8)
	assert.True(t, runs[0].FinishedAt.After(runs[7].FinishedAt))

	rec = get(t, h, "/api/refresh/history?limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &runs)
	assert.Len(t, runs, 8)

	for _, bad := range []string{"0", "-2", "lots"} {
		rec = get(t, h, "/api/refresh/history?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestMatches(t *testing.T) {
	h, _ := newTestServer(t)

	var body struct {
		Team    string             `json:"team"`
		Found   bool               `json:"found"`
		Matches []league.MatchLine `json:"matches"`
	}
	rec := get(t, h, "/api/matches")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	require.Len(t, body.Matches, 4)
	assert.Equal(t, "m4", body.Matches[0].MatchID)
	assert.Equal(t, "3 - 1", body.Matches[3].Score)

	body.Matches = nil
	rec = get(t, h, "/api/matches?team=cruz-azul&from=2025-08-05")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.True(t, body.Found)
	assert.Equal(t, "Cruz Azul", body.Team)
	require.Len(t, body.Matches, 2)
	assert.Equal(t, "m4", body.Matches[0].MatchID)
	assert.Equal(t, "m2", body.Matches[1].MatchID)

	body.Matches = nil
	rec = get(t, h, "/api/matches?no_red_cards=true&to=2025-08-20")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Len(t, body.Matches, 2)

	rec = get(t, h, "/api/matches?team=Unknown+FC")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.False(t, body.Found)
	assert.Empty(t, body.Matches)

	rec = get(t, h, "/api/matches?venue=home")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchDetail(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(t, h, "/api/matches/m2")
	require.Equal(t, http.StatusOK, rec.Code)
	var m league.Match
	decode(t, rec, &m)
	assert.Equal(t, "Cruz Azul", m.HomeTeam)
	assert.Equal(t, []string{"Rocha", "Quiñones"}, m.AwayLineup.Starters)
	assert.Equal(t, "Diego Cocca", m.AwayLineup.Coach)

	rec = get(t, h, "/api/matches/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
