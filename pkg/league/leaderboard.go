package league

import (
	"fmt"
	"sort"
	"strings"
)

type Metric string

const (
	MetricGoalsFor       Metric = "goals_for"
	MetricBestDefense    Metric = "best_defense"
	MetricWins           Metric = "wins"
	MetricGoalDifference Metric = "goal_difference"
	MetricPoints         Metric = "points"
)

// Metrics lists the supported leaderboards
var Metrics = []Metric{MetricGoalsFor, MetricBestDefense, MetricWins, MetricGoalDifference, MetricPoints}

// ParseMetric accepts a metric name, case-insensitive, with dashes or underscores
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Label is the column heading for the metric's value
func (m Metric) Label() string {
	switch m {
	case MetricGoalsFor:
		return "Goals scored"
	case MetricBestDefense:
		return "Goals conceded"
	case MetricWins:
		return "Wins"
	case MetricGoalDifference:
		return "Goal difference"
	case MetricPoints:
		return "Points"
	}
	return string(m)
}

// ascending reports whether a lower value ranks higher
func (m Metric) ascending() bool {
	return m == MetricBestDefense
}

func (m Metric) value(row StandingRow) int {
	switch m {
	case MetricGoalsFor:
		return row.GoalsFor
	case MetricBestDefense:
		return row.GoalsAgainst
	case MetricWins:
		return row.Wins
	case MetricGoalDifference:
		return row.GoalDiff
	}
	return row.Points
}

type LeaderboardEntry struct {
	Team  string `json:"team"`
	Value int    `json:"value"`
}

// Leaderboard ranks every team by metric under the standard points rule
func Leaderboard(matches []Match, metric Metric, n int) ([]LeaderboardEntry, error) {
	return NewAggregator(StandardPoints).Leaderboard(matches, metric, n)
}

// Leaderboard ranks every team in matches by a single metric, best first,
// ties broken by team name. best_defense ranks the fewest goals conceded first.
// n <= 0 returns every team.
func (a *Aggregator) Leaderboard(matches []Match, metric Metric, n int) ([]LeaderboardEntry, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	table := a.Standings(matches)
	entries := make([]LeaderboardEntry, 0, len(table))
	for _, row := range table {
		entries = append(entries, LeaderboardEntry{Team: row.Team, Value: metric.value(row)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		x, y := entries[i], entries[j]
		if x.Value != y.Value {
			if metric.ascending() {
				return x.Value < y.Value
			}
			return x.Value > y.Value
		}
		return x.Team < y.Team
	})

	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
