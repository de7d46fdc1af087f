package render

import (
	"fmt"
	"strings"

	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/util"
)

// Table renders a markdown table. Pipes inside cells are escaped.
func Table(headers []string, rows [][]string) string {
	var b strings.Builder
	writeRow(&b, headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)
	for _, row := range rows {
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(c), "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var standingsHeaders = []string{"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts", "Pts%"}

// StandingsTable renders standings rows
func StandingsTable(rows []league.StandingRow) string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			fmt.Sprint(r.Position), r.Team,
			fmt.Sprint(r.Played), fmt.Sprint(r.Wins), fmt.Sprint(r.Draws), fmt.Sprint(r.Losses),
			fmt.Sprint(r.GoalsFor), fmt.Sprint(r.GoalsAgainst), SignedInt(r.GoalDiff),
			fmt.Sprint(r.Points), fmt.Sprintf("%.2f", r.PointsPct),
		})
	}
	return Table(standingsHeaders, cells)
}

// ResultsTable renders a team's results
func ResultsTable(results []league.TeamResult) string {
	cells := make([][]string, 0, len(results))
	for _, r := range results {
		cells = append(cells, []string{
			r.Date.Format(util.DateLayout), r.Venue, r.Opponent,
			fmt.Sprintf("%d-%d", r.GoalsFor, r.GoalsAgainst), r.Outcome.String(), r.Coach,
		})
	}
	return Table([]string{"Date", "Venue", "Opponent", "Score", "Result", "Coach"}, cells)
}

// MatchListTable renders league matches as date, home, score, away
func MatchListTable(lines []league.MatchLine) string {
	cells := make([][]string, 0, len(lines))
	for _, m := range lines {
		cells = append(cells, []string{m.Date.Format(util.DateLayout), m.HomeTeam, m.Score, m.AwayTeam})
	}
	return Table([]string{"Date", "Home", "Score", "Away"}, cells)
}

// LeaderboardTable renders a ranked metric
func LeaderboardTable(metric league.Metric, entries []league.LeaderboardEntry) string {
	cells := make([][]string, 0, len(entries))
	for i, e := range entries {
		cells = append(cells, []string{fmt.Sprint(i + 1), e.Team, fmt.Sprint(e.Value)})
	}
	return Table([]string{"#", "Team", metric.Label()}, cells)
}

// SignedInt prints positive numbers with a leading plus
func SignedInt(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprint(n)
}
