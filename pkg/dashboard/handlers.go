package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/render"
	"github.com/richard-senior/matchboard/pkg/snapshot"
	"github.com/richard-senior/matchboard/pkg/store"
	"github.com/richard-senior/matchboard/pkg/util"
)

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "matchboard",
	})
}

// Status reports how fresh the data is
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state.LastUpdateInfo())
}

// Refresh runs AutoUpdate, or a full refresh with ?force=true
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("force"); !util.IsBlank(raw) {
		var err error
		if force, err = util.GetAsBool(raw); err != nil {
			respondError(w, http.StatusBadRequest, "force must be true or false")
			return
		}
	}
	// a client hanging up should not abort a download half way
	res, err := h.state.AutoUpdate(context.WithoutCancel(r.Context()), force)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// RefreshHistory lists recent refresh runs, newest first
func (h *Handler) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveParam(r.URL.Query(), paramLimit, defaultHistoryLength)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.archive == nil {
		respondJSON(w, http.StatusOK, []any{})
		return
	}
	runs, err := h.archive.RefreshHistory(min(limit, maxHistoryLength))
	if err != nil {
		logger.Error("Failed to read refresh history", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*store.RefreshRecord{}
	}
	respondJSON(w, http.StatusOK, runs)
}

type standingsResponse struct {
	Filter league.FilterSpec     `json:"filter"`
	Rows   []league.StandingRow `json:"rows"`
}

// Standings returns the table with the query's filter applied per team
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query(), standingsKeys)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	rows, err := h.state.Current().Standings(spec)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, standingsResponse{Filter: spec, Rows: rows})
}

// Stats returns competition wide totals over the query's date range
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query(), scopeKeys)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.state.Current().Summary(spec))
}

type matchListResponse struct {
	Team    string             `json:"team,omitempty"`
	Found   bool               `json:"found"`
	Matches []league.MatchLine `json:"matches"`
}

// Matches lists every match in the query's date range, newest first.
// With ?team= only that team's matches are listed.
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := filterFromQuery(q, scopeKeys, paramTeam)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	snap := h.state.Current()
	name := strings.TrimSpace(q.Get(paramTeam))
	team := ""
	if name != "" {
		var ok bool
		if team, ok = snap.ResolveTeam(name); !ok {
			respondJSON(w, http.StatusOK, matchListResponse{Team: name, Matches: []league.MatchLine{}})
			return
		}
	}
	respondJSON(w, http.StatusOK, matchListResponse{Team: team, Found: true, Matches: snap.MatchList(team, spec)})
}

// MatchDetail returns one stored match with lineups, goals and cards
func (h *Handler) MatchDetail(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusNotFound, "match not found")
		return
	}
	m, err := h.archive.Match(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type leaderboardResponse struct {
	Metric  league.Metric             `json:"metric"`
	Label   string                    `json:"label"`
	Entries []league.LeaderboardEntry `json:"entries"`
}

// Leaderboard ranks teams by the metric in the path
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	metric, err := league.ParseMetric(chi.URLParam(r, "metric"))
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	q := r.URL.Query()
	n, err := topN(q)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	spec, err := filterFromQuery(q, scopeKeys, paramTopN)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	entries, err := h.state.Current().Leaderboard(metric, n, spec)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, leaderboardResponse{Metric: metric, Label: metric.Label(), Entries: entries})
}

type teamRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Teams lists every team with its URL slug
func (h *Handler) Teams(w http.ResponseWriter, r *http.Request) {
	teams := h.state.Current().Teams
	out := make([]teamRef, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamRef{Name: t, Slug: league.TeamSlug(t)})
	}
	respondJSON(w, http.StatusOK, out)
}

type teamResponse struct {
	Team  string `json:"team"`
	Found bool   `json:"found"`
	Data  any    `json:"data"`
}

// team resolves the slug in the path. Unknown teams are answered with
// found=false and empty data rather than a 404.
func (h *Handler) team(r *http.Request) (*snapshot.Snapshot, string, bool) {
	snap := h.state.Current()
	slug := chi.URLParam(r, "slug")
	if team, ok := snap.ResolveTeam(slug); ok {
		return snap, team, true
	}
	return snap, slug, false
}

// TeamSummary aggregates one team's record over its filtered matches
func (h *Handler) TeamSummary(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query(), teamKeys)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	snap, team, found := h.team(r)
	if !found {
		respondJSON(w, http.StatusOK, teamResponse{Team: team, Data: league.StandingRow{Team: team}})
		return
	}
	row, err := snap.TeamSummary(team, spec)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, teamResponse{Team: team, Found: true, Data: row})
}

// TeamMatches lists one team's filtered results, most recent first
func (h *Handler) TeamMatches(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query(), teamKeys)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	snap, team, found := h.team(r)
	if !found {
		respondJSON(w, http.StatusOK, teamResponse{Team: team, Data: []league.TeamResult{}})
		return
	}
	results, err := snap.TeamResults(team, spec)
	if err != nil {
		respondError(w, statusOf(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, teamResponse{Team: team, Found: true, Data: results})
}

// TeamPlayers lists everyone who started for the team
func (h *Handler) TeamPlayers(w http.ResponseWriter, r *http.Request) {
	snap, team, found := h.team(r)
	respondJSON(w, http.StatusOK, teamResponse{Team: team, Found: found, Data: league.Players(snap.Matches, team)})
}

// TeamCoaches lists every coach the team fielded
func (h *Handler) TeamCoaches(w http.ResponseWriter, r *http.Request) {
	snap, team, found := h.team(r)
	respondJSON(w, http.StatusOK, teamResponse{Team: team, Found: found, Data: league.Coaches(snap.Matches, team)})
}

// StandingsPage renders the HTML table. A bad filter is shown on the page
// above the unfiltered table.
func (h *Handler) StandingsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := http.StatusOK

	spec, err := filterFromQuery(q, standingsKeys)
	if err != nil {
		status = statusOf(err)
		spec = league.FilterSpec{}
	}
	page, perr := render.NewPage(h.state.Current(), spec, h.title, h.state.LastUpdateInfo().Message)
	if perr != nil {
		status, err = statusOf(perr), perr
	}
	if err != nil {
		page.Error = err.Error()
	}
	page.Query = echo(q)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.WritePage(w, page); err != nil {
		logger.Error("Failed to render standings page", err)
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
