package league

import "sort"

// GoalAnalysis summarises the goal timeline of a match for one team
type GoalAnalysis struct {
	ScoredFirst   bool `json:"scoredFirst"`
	ConcededFirst bool `json:"concededFirst"`
	Comeback      bool `json:"comeback"`
	// MaxDeficit is the largest number of goals team trailed by at any point
	MaxDeficit int `json:"maxDeficit"`
}

// Timeline returns the match goals in chronological order.
// Goals with identical timing keep their recorded order.
func (m Match) Timeline() []GoalEvent {
	goals := make([]GoalEvent, len(m.Goals))
	copy(goals, m.Goals)
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Minute != b.Minute {
			return a.Minute < b.Minute
		}
		return a.Second < b.Second
	})
	return goals
}

// AnalyzeGoals replays the goals of m from team's side. A match without
// goals, or one team did not play in, yields the zero analysis.
func AnalyzeGoals(m Match, team string) GoalAnalysis {
	var ga GoalAnalysis
	if !m.Involves(team) || len(m.Goals) == 0 {
		return ga
	}

	timeline := m.Timeline()
	if timeline[0].Team == team {
		ga.ScoredFirst = true
	} else {
		ga.ConcededFirst = true
	}

	diff := 0
	for _, g := range timeline {
		if g.Team == team {
			diff++
		} else {
			diff--
		}
		if -diff > ga.MaxDeficit {
			ga.MaxDeficit = -diff
		}
	}

	// the final score is authoritative, the event list may be incomplete
	ga.Comeback = ga.MaxDeficit > 0 && m.OutcomeFor(team) != Loss
	return ga
}
