package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/snapshot"
)

// LeadersShown is how many teams each leaderboard on the page lists
const LeadersShown = 5

// Leaders is one leaderboard shown on the page
type Leaders struct {
	Metric  league.Metric
	Entries []league.LeaderboardEntry
}

// Page is everything the standings page shows
type Page struct {
	Title     string
	Status    string
	Query     map[string]string // current filter values, echoed into the form
	Error     string
	Standings []league.StandingRow
	Summary   league.LeagueSummary
	Leaders   []Leaders
}

// NewPage fills a page from snap with spec applied to the standings.
// When spec cannot be applied the page carries the unfiltered table, the
// error text, and the error is returned so callers can pick a status.
func NewPage(snap *snapshot.Snapshot, spec league.FilterSpec, title, status string) (Page, error) {
	p := Page{Title: title, Status: status, Query: map[string]string{}}

	rows, err := snap.Standings(spec)
	if err != nil {
		p.Error = err.Error()
		rows = snap.Table
		spec = league.FilterSpec{}
	}
	p.Standings = rows
	p.Summary = snap.Summary(spec)
	for _, metric := range league.Metrics {
		entries, lerr := snap.Leaderboard(metric, LeadersShown, spec)
		if lerr != nil {
			logger.Warn("Skipping leaderboard", string(metric), lerr)
			continue
		}
		p.Leaders = append(p.Leaders, Leaders{Metric: metric, Entries: entries})
	}
	return p, err
}

var funcs = template.FuncMap{
	"signed": SignedInt,
	"slug":   league.TeamSlug,
	"label":  func(m league.Metric) string { return m.Label() },
	"pct":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var pageTemplate = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 0.3em 0.6em; text-align: right; }
td.team, th.team { text-align: left; }
tr:nth-child(even) { background: #f3f3f3; }
.error { color: #b00; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="status">{{.Status}}</p>
<form method="get" action="/">
  <label>Venue <select name="venue">
    <option value="">any</option>
    <option value="home"{{if eq (index .Query "venue") "home"}} selected{{end}}>home</option>
    <option value="away"{{if eq (index .Query "venue") "away"}} selected{{end}}>away</option>
  </select></label>
  <label>Opponent rank <input type="number" name="rank_min" min="1" value="{{index .Query "rank_min"}}"> to
  <input type="number" name="rank_max" min="1" value="{{index .Query "rank_max"}}"></label>
  <label>From <input type="date" name="from" value="{{index .Query "from"}}"></label>
  <label>To <input type="date" name="to" value="{{index .Query "to"}}"></label>
  <label><input type="checkbox" name="scored_first" value="true"{{if index .Query "scored_first"}} checked{{end}}> scored first</label>
  <label><input type="checkbox" name="conceded_first" value="true"{{if index .Query "conceded_first"}} checked{{end}}> conceded first</label>
  <label><input type="checkbox" name="comeback" value="true"{{if index .Query "comeback"}} checked{{end}}> comeback</label>
  <label><input type="checkbox" name="no_red_cards" value="true"{{if index .Query "no_red_cards"}} checked{{end}}> no red cards</label>
  <button type="submit">Apply</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<h2>Standings</h2>
<table class="standings">
<thead><tr><th>Pos</th><th class="team">Team</th><th>P</th><th>W</th><th>D</th><th>L</th><th>GF</th><th>GA</th><th>GD</th><th>Pts</th><th>Pts%</th></tr></thead>
<tbody>
{{range .Standings}}<tr data-team="{{slug .Team}}"><td>{{.Position}}</td><td class="team">{{.Team}}</td><td>{{.Played}}</td><td>{{.Wins}}</td><td>{{.Draws}}</td><td>{{.Losses}}</td><td>{{.GoalsFor}}</td><td>{{.GoalsAgainst}}</td><td>{{signed .GoalDiff}}</td><td>{{.Points}}</td><td>{{pct .PointsPct}}</td></tr>
{{end}}</tbody>
</table>
<h2>Season</h2>
<ul class="summary">
<li>{{.Summary.Matches}} matches, {{.Summary.Goals}} goals ({{.Summary.AvgGoalsPerMatch}} per match)</li>
{{if .Summary.Leader}}<li>Leader: {{.Summary.Leader}} with {{.Summary.LeaderPoints}} points</li>{{end}}
</ul>
{{range .Leaders}}<h3>{{label .Metric}}</h3>
<ol class="leaders">
{{range .Entries}}<li>{{.Team}}: {{.Value}}</li>
{{end}}</ol>
{{end}}</body>
</html>
`))

// WritePage renders the standings page to w
func WritePage(w io.Writer, p Page) error {
	if p.Query == nil {
		p.Query = map[string]string{}
	}
	return pageTemplate.Execute(w, p)
}

// PageHTML renders the standings page to a string
func PageHTML(p Page) (string, error) {
	var buf bytes.Buffer
	if err := WritePage(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
