package league

import (
	"time"
)

// Venue is the side of the pitch a team played on in a given match
type Venue int

const (
	VenueAny Venue = iota
	VenueHome
	VenueAway
)

func (v Venue) String() string {
	switch v {
	case VenueHome:
		return "home"
	case VenueAway:
		return "away"
	default:
		return "any"
	}
}

// Outcome of a match from one team's point of view
type Outcome int

const (
	Loss Outcome = iota
	Draw
	Win
)

// String returns the single letter form used in results listings (W, D, L)
func (o Outcome) String() string {
	switch o {
	case Win:
		return "W"
	case Draw:
		return "D"
	default:
		return "L"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type CardType string

const (
	CardYellow       CardType = "YC"
	CardSecondYellow CardType = "Y2C"
	CardRed          CardType = "RC"
)

// IsDismissal reports whether the card sent the player off
func (c CardType) IsDismissal() bool {
	return c == CardRed || c == CardSecondYellow
}

// Lineup is one side's starting eleven and head coach
type Lineup struct {
	Starters []string `json:"starters"`
	Coach    string   `json:"coach,omitempty"`
}

// HasStarter reports whether the named player started
func (l Lineup) HasStarter(player string) bool {
	for _, p := range l.Starters {
		if p == player {
			return true
		}
	}
	return false
}

// GoalEvent is a single goal. Team is the team credited with the goal,
// so an own goal carries the name of the side that benefited.
type GoalEvent struct {
	Team    string `json:"team"`
	Scorer  string `json:"scorer,omitempty"`
	Period  int    `json:"period"`
	Minute  int    `json:"minute"`
	Second  int    `json:"second,omitempty"`
	OwnGoal bool   `json:"ownGoal,omitempty"`
}

type CardEvent struct {
	Team   string   `json:"team"`
	Player string   `json:"player,omitempty"`
	Type   CardType `json:"type"`
	Minute int      `json:"minute"`
}

// Match is one played fixture. Matches are built by the ingestion side and
// never mutated by anything in this package.
type Match struct {
	ID         string      `json:"id"`
	Date       time.Time   `json:"date"`
	HomeTeam   string      `json:"homeTeam"`
	AwayTeam   string      `json:"awayTeam"`
	HomeID     string      `json:"homeId,omitempty"`
	AwayID     string      `json:"awayId,omitempty"`
	HomeGoals  int         `json:"homeGoals"`
	AwayGoals  int         `json:"awayGoals"`
	HomeLineup Lineup      `json:"homeLineup"`
	AwayLineup Lineup      `json:"awayLineup"`
	Goals      []GoalEvent `json:"goals,omitempty"`
	Cards      []CardEvent `json:"cards,omitempty"`
}

// Involves reports whether team played in the match
func (m Match) Involves(team string) bool {
	return team != "" && (m.HomeTeam == team || m.AwayTeam == team)
}

// VenueOf returns where team played, or VenueAny when it did not play
func (m Match) VenueOf(team string) Venue {
	switch {
	case team == "":
		return VenueAny
	case m.HomeTeam == team:
		return VenueHome
	case m.AwayTeam == team:
		return VenueAway
	}
	return VenueAny
}

// Opponent returns the other side, or "" when team did not play
func (m Match) Opponent(team string) string {
	switch m.VenueOf(team) {
	case VenueHome:
		return m.AwayTeam
	case VenueAway:
		return m.HomeTeam
	}
	return ""
}

// Score returns goals for and against from team's side
func (m Match) Score(team string) (int, int) {
	if m.VenueOf(team) == VenueAway {
		return m.AwayGoals, m.HomeGoals
	}
	return m.HomeGoals, m.AwayGoals
}

// OutcomeFor classifies the result for team. Callers must check Involves first.
func (m Match) OutcomeFor(team string) Outcome {
	gf, ga := m.Score(team)
	switch {
	case gf > ga:
		return Win
	case gf < ga:
		return Loss
	}
	return Draw
}

// LineupFor returns team's lineup, and false when team did not play
func (m Match) LineupFor(team string) (Lineup, bool) {
	switch m.VenueOf(team) {
	case VenueHome:
		return m.HomeLineup, true
	case VenueAway:
		return m.AwayLineup, true
	}
	return Lineup{}, false
}

// HasRedCard reports whether either side had a player sent off.
// A second yellow counts.
func (m Match) HasRedCard() bool {
	for _, c := range m.Cards {
		if c.Type.IsDismissal() {
			return true
		}
	}
	return false
}

// TotalGoals is the sum of both sides' final scores
func (m Match) TotalGoals() int {
	return m.HomeGoals + m.AwayGoals
}
