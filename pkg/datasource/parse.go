package datasource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/matchboard/internal/logger"
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/util"
)

const (
	statusPlayed     = "Played"
	positionBench    = "Substitute"
	officialManager  = "manager"
	goalTypeOwnGoal  = "OG"
	statTotalRedCard = "totalRedCard"
)

// Fixture is one entry of the tournament schedule
type Fixture struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	HomeTeam string    `json:"homeTeam"`
	AwayTeam string    `json:"awayTeam"`
}

// ParseSchedule decodes a tournament schedule payload
func ParseSchedule(raw []byte) (*Schedule, error) {
	var s Schedule
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	if s.failed() {
		return nil, fmt.Errorf("%w (errorCode %s)", ErrFeed, s.ErrorCode)
	}
	return &s, nil
}

// Fixtures flattens the schedule in feed order. Days with an unreadable
// date are logged and skipped.
func (s *Schedule) Fixtures() []Fixture {
	var out []Fixture
	for _, day := range s.MatchDate {
		date, err := util.GetAsDate(day.Date)
		if err != nil {
			logger.Warn("Skipping schedule day", day.Date, err)
			continue
		}
		for _, m := range day.Match {
			if m.ID == "" {
				continue
			}
			out = append(out, Fixture{ID: m.ID, Date: date, HomeTeam: m.HomeContestantName, AwayTeam: m.AwayContestantName})
		}
	}
	return out
}

// ParseMatch turns a match stats payload into a league.Match.
// The boolean is false for fixtures that have not been played yet.
func ParseMatch(raw []byte) (league.Match, bool, error) {
	var ms matchStats
	if err := json.Unmarshal(raw, &ms); err != nil {
		return league.Match{}, false, fmt.Errorf("failed to decode match stats: %w", err)
	}
	if ms.failed() {
		return league.Match{}, false, fmt.Errorf("%w (errorCode %s)", ErrFeed, ms.ErrorCode)
	}
	info, live := ms.MatchInfo, ms.LiveData
	if live.MatchDetails.MatchStatus != statusPlayed {
		return league.Match{}, false, nil
	}
	if info.ID == "" {
		return league.Match{}, false, fmt.Errorf("match stats without an id")
	}

	date, err := util.GetAsDate(info.Date)
	if err != nil {
		return league.Match{}, false, fmt.Errorf("match %s: %w", info.ID, err)
	}
	m := league.Match{ID: info.ID, Date: date}

	names := make(map[string]string)
	for _, c := range info.Contestant {
		names[c.ID] = c.Name
		switch c.Position {
		case "home":
			m.HomeTeam, m.HomeID = c.Name, c.ID
		case "away":
			m.AwayTeam, m.AwayID = c.Name, c.ID
		}
	}
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return league.Match{}, false, fmt.Errorf("match %s: missing home or away contestant", info.ID)
	}

	m.HomeGoals = live.MatchDetails.Scores.Total.Home
	m.AwayGoals = live.MatchDetails.Scores.Total.Away

	for _, g := range live.Goal {
		team, ok := names[g.ContestantID]
		if !ok {
			logger.Warn("Goal for unknown contestant in match", info.ID, g.ContestantID)
			continue
		}
		m.Goals = append(m.Goals, league.GoalEvent{
			Team:    team,
			Scorer:  g.ScorerName,
			Period:  g.PeriodID,
			Minute:  g.TimeMin,
			Second:  seconds(g.TimeMinSec),
			OwnGoal: g.Type == goalTypeOwnGoal,
		})
	}

	for _, c := range live.Card {
		team, ok := names[c.ContestantID]
		if !ok {
			continue
		}
		m.Cards = append(m.Cards, league.CardEvent{Team: team, Player: c.PlayerName, Type: league.CardType(c.Type), Minute: c.TimeMin})
	}

	for _, lu := range live.LineUp {
		lineup, reds := parseLineup(lu)
		switch lu.ContestantID {
		case m.HomeID:
			m.HomeLineup = lineup
		case m.AwayID:
			m.AwayLineup = lineup
		default:
			continue
		}
		// older payloads carry the dismissal only as a team stat
		if reds > 0 && !hasDismissal(m.Cards, names[lu.ContestantID]) {
			for i := 0; i < reds; i++ {
				m.Cards = append(m.Cards, league.CardEvent{Team: names[lu.ContestantID], Type: league.CardRed})
			}
		}
	}
	return m, true, nil
}

func parseLineup(lu feedLineup) (league.Lineup, int) {
	var l league.Lineup
	for _, p := range lu.Player {
		if p.Position == positionBench {
			continue
		}
		name := p.MatchName
		if name == "" {
			name = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		if name != "" {
			l.Starters = append(l.Starters, name)
		}
	}
	for _, o := range lu.TeamOfficial {
		if o.Type != officialManager {
			continue
		}
		l.Coach = o.MatchName
		if l.Coach == "" {
			l.Coach = strings.TrimSpace(o.FirstName + " " + o.LastName)
		}
		break
	}
	var reds int
	for _, st := range lu.Stat {
		if st.Type == statTotalRedCard {
			reds, _ = statValue(st.Value)
		}
	}
	return l, reds
}

func statValue(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return int(f), err
	}
	return util.GetAsInteger(v)
}

func hasDismissal(cards []league.CardEvent, team string) bool {
	for _, c := range cards {
		if c.Team == team && c.Type.IsDismissal() {
			return true
		}
	}
	return false
}

// seconds reads the seconds part of a "mm:ss" clock
func seconds(clock string) int {
	_, sec, ok := strings.Cut(clock, ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(sec)
	if err != nil {
		return 0
	}
	return n
}
