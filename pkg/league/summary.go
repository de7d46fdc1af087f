package league

import (
	"fmt"
	"sort"
	"time"

	"github.com/gosimple/slug"
)

// LeagueSummary holds competition wide totals
type LeagueSummary struct {
	Teams            int     `json:"teams"`
	Matches          int     `json:"matches"`
	Goals            int     `json:"goals"`
	AvgGoalsPerMatch float64 `json:"avgGoalsPerMatch"`
	Leader           string  `json:"leader,omitempty"`
	LeaderPoints     int     `json:"leaderPoints"`
}

// Summary totals matches and goals and names the table leader
func (a *Aggregator) Summary(matches []Match) LeagueSummary {
	s := LeagueSummary{Matches: len(matches)}
	for _, m := range matches {
		s.Goals += m.TotalGoals()
	}
	if s.Matches > 0 {
		s.AvgGoalsPerMatch = Round2(float64(s.Goals) / float64(s.Matches))
	}
	table := a.Standings(matches)
	s.Teams = len(table)
	if len(table) > 0 {
		s.Leader = table[0].Team
		s.LeaderPoints = table[0].Points
	}
	return s
}

// TeamResult is one match seen from one team's side
type TeamResult struct {
	MatchID      string    `json:"matchId"`
	Date         time.Time `json:"date"`
	Venue        string    `json:"venue"`
	Opponent     string    `json:"opponent"`
	GoalsFor     int       `json:"goalsFor"`
	GoalsAgainst int       `json:"goalsAgainst"`
	Outcome      Outcome   `json:"outcome"`
	Coach        string    `json:"coach,omitempty"`
}

// TeamResults lists the matches team played, most recent first
func TeamResults(matches []Match, team string) []TeamResult {
	var results []TeamResult
	for _, m := range matches {
		if !m.Involves(team) {
			continue
		}
		gf, ga := m.Score(team)
		lineup, _ := m.LineupFor(team)
		results = append(results, TeamResult{
			MatchID:      m.ID,
			Date:         m.Date,
			Venue:        m.VenueOf(team).String(),
			Opponent:     m.Opponent(team),
			GoalsFor:     gf,
			GoalsAgainst: ga,
			Outcome:      m.OutcomeFor(team),
			Coach:        lineup.Coach,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Date.After(results[j].Date)
	})
	return results
}

// MatchLine is one row of the league's match list
type MatchLine struct {
	MatchID   string    `json:"matchId"`
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	HomeGoals int       `json:"homeGoals"`
	AwayGoals int       `json:"awayGoals"`
	Score     string    `json:"score"`
}

// MatchList lists matches newest first, ties by id. A non-empty team keeps
// only the matches it played in.
func MatchList(matches []Match, team string) []MatchLine {
	lines := []MatchLine{}
	for _, m := range matches {
		if team != "" && !m.Involves(team) {
			continue
		}
		lines = append(lines, MatchLine{
			MatchID:   m.ID,
			Date:      m.Date,
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			HomeGoals: m.HomeGoals,
			AwayGoals: m.AwayGoals,
			Score:     fmt.Sprintf("%d - %d", m.HomeGoals, m.AwayGoals),
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.After(lines[j].Date)
		}
		return lines[i].MatchID < lines[j].MatchID
	})
	return lines
}

// Players returns every player who started at least once for team, sorted
func Players(matches []Match, team string) []string {
	return collect(matches, team, func(l Lineup) []string { return l.Starters })
}

// Coaches returns every coach team fielded, sorted
func Coaches(matches []Match, team string) []string {
	return collect(matches, team, func(l Lineup) []string {
		if l.Coach == "" {
			return nil
		}
		return []string{l.Coach}
	})
}

func collect(matches []Match, team string, pick func(Lineup) []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range matches {
		lineup, ok := m.LineupFor(team)
		if !ok {
			continue
		}
		for _, name := range pick(lineup) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// TeamSlug is the URL-safe form of a team name
func TeamSlug(team string) string {
	return slug.Make(team)
}

// TeamBySlug finds the team in teams whose slug is s
func TeamBySlug(teams []string, s string) (string, bool) {
	for _, t := range teams {
		if TeamSlug(t) == s {
			return t, true
		}
	}
	return "", false
}
