package snapshot

import (
	"strings"

	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/util"
)

// names shorter than minFuzzyLength or scoring under minTeamScore are not resolved
const (
	minTeamScore   = 0.6
	minFuzzyLength = 3
)

// ResolveTeam maps a loosely written team name onto a known team: exact,
// then by slug, then the closest fuzzy match
func (s *Snapshot) ResolveTeam(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, t := range s.Teams {
		if t == name {
			return t, true
		}
	}
	if t, ok := league.TeamBySlug(s.Teams, league.TeamSlug(name)); ok {
		return t, true
	}
	if len(name) < minFuzzyLength {
		return "", false
	}
	best, score := util.BestFuzzyMatch(name, s.Teams)
	if best == "" || score < minTeamScore {
		return "", false
	}
	return best, true
}

// Standings is the table with spec applied from each team's point of view
func (s *Snapshot) Standings(spec league.FilterSpec) ([]league.StandingRow, error) {
	return s.agg.FilteredStandings(s.Matches, spec, s.Ranking)
}

// TeamMatches returns the matches of team that satisfy spec, oldest first
func (s *Snapshot) TeamMatches(team string, spec league.FilterSpec) ([]league.Match, error) {
	kept, err := league.Filter(s.Matches, spec, team, s.Ranking)
	if err != nil {
		return nil, err
	}
	out := kept[:0]
	for _, m := range kept {
		if m.Involves(team) {
			out = append(out, m)
		}
	}
	return out, nil
}

// TeamSummary aggregates team's record over the matches that satisfy spec
func (s *Snapshot) TeamSummary(team string, spec league.FilterSpec) (league.StandingRow, error) {
	kept, err := league.Filter(s.Matches, spec, team, s.Ranking)
	if err != nil {
		return league.StandingRow{}, err
	}
	row := s.agg.Aggregate(kept, team)
	row.Position = s.Ranking[team]
	return row, nil
}

// TeamResults lists team's filtered matches, most recent first
func (s *Snapshot) TeamResults(team string, spec league.FilterSpec) ([]league.TeamResult, error) {
	kept, err := s.TeamMatches(team, spec)
	if err != nil {
		return nil, err
	}
	results := league.TeamResults(kept, team)
	if results == nil {
		results = []league.TeamResult{}
	}
	return results, nil
}

// scope keeps the matches that pass the perspective free part of spec
func (s *Snapshot) scope(spec league.FilterSpec) []league.Match {
	kept, _ := league.Filter(s.Matches, spec.WithoutPerspective(), "", nil)
	return kept
}

// Leaderboard ranks teams by metric over the matches in spec's date range
func (s *Snapshot) Leaderboard(metric league.Metric, n int, spec league.FilterSpec) ([]league.LeaderboardEntry, error) {
	return s.agg.Leaderboard(s.scope(spec), metric, n)
}

// MatchList lists the matches in spec's date range newest first, only
// team's when team is set
func (s *Snapshot) MatchList(team string, spec league.FilterSpec) []league.MatchLine {
	return league.MatchList(s.scope(spec), team)
}

// Summary totals the matches in spec's date range
func (s *Snapshot) Summary(spec league.FilterSpec) league.LeagueSummary {
	return s.agg.Summary(s.scope(spec))
}
