package league

import (
	"math"
	"sort"

	"github.com/richard-senior/matchboard/internal/logger"
)

// PointsRule is the number of table points awarded per outcome
type PointsRule struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

// StandardPoints is three for a win, one for a draw
var StandardPoints = PointsRule{Win: 3, Draw: 1, Loss: 0}

func (r PointsRule) For(o Outcome) int {
	switch o {
	case Win:
		return r.Win
	case Draw:
		return r.Draw
	}
	return r.Loss
}

// StandingRow is one team's line in a table. Rows are derived per query, never stored.
type StandingRow struct {
	Position     int     `json:"pos"`
	Team         string  `json:"team"`
	Played       int     `json:"played"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     int     `json:"goalsFor"`
	GoalsAgainst int     `json:"goalsAgainst"`
	GoalDiff     int     `json:"goalDiff"`
	Points       int     `json:"points"`
	PointsPct    float64 `json:"pointsPct"`
}

// Aggregator turns match lists into table rows under a points rule
type Aggregator struct {
	Rule PointsRule
}

func NewAggregator(rule PointsRule) *Aggregator {
	return &Aggregator{Rule: rule}
}

// Aggregate sums the matches team played in under the standard points rule
func Aggregate(matches []Match, team string) StandingRow {
	return NewAggregator(StandardPoints).Aggregate(matches, team)
}

// Aggregate sums the matches team played in. Matches it did not play in are skipped.
func (a *Aggregator) Aggregate(matches []Match, team string) StandingRow {
	row := StandingRow{Team: team}
	for _, m := range matches {
		if !m.Involves(team) {
			continue
		}
		a.add(&row, m)
	}
	a.finish(&row)
	return row
}

func (a *Aggregator) add(row *StandingRow, m Match) {
	gf, ga := m.Score(row.Team)
	row.Played++
	row.GoalsFor += gf
	row.GoalsAgainst += ga
	outcome := m.OutcomeFor(row.Team)
	switch outcome {
	case Win:
		row.Wins++
	case Draw:
		row.Draws++
	default:
		row.Losses++
	}
	row.Points += a.Rule.For(outcome)
}

func (a *Aggregator) finish(row *StandingRow) {
	row.GoalDiff = row.GoalsFor - row.GoalsAgainst
	row.PointsPct = PointsPercentage(row.Points, row.Played, a.Rule)
}

// PointsPercentage is points over the maximum available, as a percentage
// rounded to two decimals. No games played gives 0.
func PointsPercentage(points, played int, rule PointsRule) float64 {
	available := played * rule.Win
	if available <= 0 {
		return 0
	}
	return Round2(float64(points) / float64(available) * 100)
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Teams returns every team appearing in matches, sorted by name
func Teams(matches []Match) []string {
	seen := make(map[string]bool)
	var teams []string
	for _, m := range matches {
		for _, t := range []string{m.HomeTeam, m.AwayTeam} {
			if t != "" && !seen[t] {
				seen[t] = true
				teams = append(teams, t)
			}
		}
	}
	sort.Strings(teams)
	return teams
}

// Standings builds the full table over every match
func (a *Aggregator) Standings(matches []Match) []StandingRow {
	rows := make(map[string]*StandingRow)
	for _, m := range matches {
		for _, t := range []string{m.HomeTeam, m.AwayTeam} {
			if t == "" {
				continue
			}
			row, ok := rows[t]
			if !ok {
				row = &StandingRow{Team: t}
				rows[t] = row
			}
			a.add(row, m)
		}
	}

	table := make([]StandingRow, 0, len(rows))
	for _, row := range rows {
		a.finish(row)
		table = append(table, *row)
	}
	SortTable(table)
	return table
}

// FilteredStandings builds a table in which each team's row only counts the
// matches that survive spec from that team's point of view. Every team in
// matches gets a row, even when nothing survives for it.
func (a *Aggregator) FilteredStandings(matches []Match, spec FilterSpec, ranking Ranking) ([]StandingRow, error) {
	if spec.IsEmpty() {
		return a.Standings(matches), nil
	}

	teams := Teams(matches)
	table := make([]StandingRow, 0, len(teams))
	for _, team := range teams {
		kept, err := Filter(matches, spec, team, ranking)
		if err != nil {
			return nil, err
		}
		table = append(table, a.Aggregate(kept, team))
	}
	SortTable(table)
	logger.Debug("Built filtered standings for", len(table), "teams")
	return table, nil
}

// SortTable orders rows by points, goal difference and goals scored (all
// descending) then name, and numbers the positions from 1
func SortTable(table []StandingRow) {
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
	for i := range table {
		table[i].Position = i + 1
	}
}

// RankingFrom maps each row's team to its position
func RankingFrom(table []StandingRow) Ranking {
	ranking := make(Ranking, len(table))
	for _, row := range table {
		ranking[row.Team] = row.Position
	}
	return ranking
}
