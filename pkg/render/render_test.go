package render

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage() Page {
	return Page{
		Title:  "Liga MX",
		Status: "[fresh] 4 matches | last update 5 minutes ago",
		Query:  map[string]string{"venue": "home", "scored_first": "true"},
		Standings: []league.StandingRow{
			{Position: 1, Team: "Atlas", Played: 3, Wins: 2, Draws: 1, GoalsFor: 7, GoalsAgainst: 3, GoalDiff: 4, Points: 7, PointsPct: 77.78},
			{Position: 2, Team: "Cruz Azul", Played: 3, Draws: 1, Losses: 2, GoalsFor: 1, GoalsAgainst: 5, GoalDiff: -4, Points: 1, PointsPct: 11.11},
		},
		Summary: league.LeagueSummary{Teams: 2, Matches: 3, Goals: 8, AvgGoalsPerMatch: 2.67, Leader: "Atlas", LeaderPoints: 7},
		Leaders: []Leaders{{Metric: league.MetricGoalsFor, Entries: []league.LeaderboardEntry{{Team: "Atlas", Value: 7}}}},
	}
}

func TestTable(t *testing.T) {
	got := Table([]string{"Team", "Note"}, [][]string{{"Atlas", "a|b"}})
	assert.Equal(t, "| Team | Note |\n| --- | --- |\n| Atlas | a\\|b |\n", got)
}

func TestStandingsTable(t *testing.T) {
	got := StandingsTable(testPage().Standings)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| Pos | Team | P | W | D | L | GF | GA | GD | Pts | Pts% |", lines[0])
	assert.Equal(t, "| 1 | Atlas | 3 | 2 | 1 | 0 | 7 | 3 | +4 | 7 | 77.78 |", lines[2])
	assert.Equal(t, "| 2 | Cruz Azul | 3 | 0 | 1 | 2 | 1 | 5 | -4 | 1 | 11.11 |", lines[3])
}

func TestResultsTable(t *testing.T) {
	results := []league.TeamResult{{
		Date: time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), Venue: "away", Opponent: "Toluca",
		GoalsFor: 2, GoalsAgainst: 2, Outcome: league.Draw, Coach: "Diego Cocca",
	}}
	got := ResultsTable(results)
	assert.Contains(t, got, "| 2025-08-15 | away | Toluca | 2-2 | "+league.Draw.String()+" | Diego Cocca |")
}

func TestMatchListTable(t *testing.T) {
	got := MatchListTable([]league.MatchLine{{
		Date: time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC), HomeTeam: "Toluca", AwayTeam: "Cruz Azul", Score: "0 - 0",
	}})
	assert.Equal(t, "| Date | Home | Score | Away |\n| --- | --- | --- | --- |\n| 2025-08-22 | Toluca | 0 - 0 | Cruz Azul |\n", got)
}

func TestLeaderboardTable(t *testing.T) {
	got := LeaderboardTable(league.MetricBestDefense, []league.LeaderboardEntry{{Team: "Atlas", Value: 3}, {Team: "Toluca", Value: 4}})
	assert.Equal(t, "| # | Team | Goals conceded |\n| --- | --- | --- |\n| 1 | Atlas | 3 |\n| 2 | Toluca | 4 |\n", got)
}

func TestSignedInt(t *testing.T) {
	assert.Equal(t, "+3", SignedInt(3))
	assert.Equal(t, "0", SignedInt(0))
	assert.Equal(t, "-2", SignedInt(-2))
}

func TestPageHTML(t *testing.T) {
	html, err := PageHTML(testPage())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	rows := doc.Find("table.standings tbody tr")
	require.Equal(t, 2, rows.Length())
	slug, _ := rows.First().Attr("data-team")
	assert.Equal(t, "atlas", slug)
	assert.Equal(t, "Cruz Azul", rows.Eq(1).Find("td.team").Text())
	assert.Equal(t, "+4", rows.First().Find("td").Eq(8).Text())
	assert.Equal(t, "77.78", rows.First().Find("td").Eq(10).Text())

	_, selected := doc.Find(`select[name=venue] option[value=home]`).Attr("selected")
	assert.True(t, selected)
	_, checked := doc.Find(`input[name=scored_first]`).Attr("checked")
	assert.True(t, checked)
	_, checked = doc.Find(`input[name=comeback]`).Attr("checked")
	assert.False(t, checked)

	assert.Equal(t, "Atlas: 7", doc.Find("ol.leaders li").First().Text())
}

func TestPageHTMLEscapes(t *testing.T) {
	p := testPage()
	p.Error = "<script>alert(1)</script>"
	html, err := PageHTML(p)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestReportMarkdown(t *testing.T) {
	html, err := PageHTML(testPage())
	require.NoError(t, err)

	md, err := ReportMarkdown(html)
	require.NoError(t, err)

	assert.Contains(t, md, "Liga MX")
	assert.Contains(t, md, "| Pos | Team | P | W | D | L | GF | GA | GD | Pts | Pts% |")
	assert.Contains(t, md, "| 1 | Atlas | 3 | 2 | 1 | 0 | 7 | 3 | +4 | 7 | 77.78 |")
	assert.Contains(t, md, "Leader: Atlas with 7 points")
	assert.NotContains(t, md, "MATCHBOARDTABLE")
	assert.NotContains(t, md, "Apply")
	assert.NotContains(t, md, "font-family")
}

func TestTitle(t *testing.T) {
	html, err := PageHTML(testPage())
	require.NoError(t, err)
	assert.Equal(t, "Liga MX", Title(html))
}
