package league

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/richard-senior/matchboard/pkg/util"
)

// Filter keys accepted by ParseFilterSpec
const (
	KeyVenue          = "venue"
	KeyRankMin        = "rank_min"
	KeyRankMax        = "rank_max"
	KeyTopN           = "top_n"
	KeyOpponents      = "opponents"
	KeyFrom           = "from"
	KeyTo             = "to"
	KeyScoredFirst    = "scored_first"
	KeyConcededFirst  = "conceded_first"
	KeyComeback       = "comeback"
	KeyNoRedCards     = "no_red_cards"
	KeyIncludePlayers = "include_players"
	KeyExcludePlayers = "exclude_players"
	KeyCoach          = "coach"
)

// FilterKeys lists every recognised filter key
var FilterKeys = []string{
	KeyVenue, KeyRankMin, KeyRankMax, KeyTopN, KeyOpponents, KeyFrom, KeyTo,
	KeyScoredFirst, KeyConcededFirst, KeyComeback, KeyNoRedCards,
	KeyIncludePlayers, KeyExcludePlayers, KeyCoach,
}

// RankRange is an inclusive range of table positions, 1 being top
type RankRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r RankRange) Contains(rank int) bool {
	return rank >= r.Min && rank <= r.Max
}

// Ranking maps team name to table position
type Ranking map[string]int

// FilterSpec is a set of independent match predicates. The zero value keeps
// every match. Every predicate that is set must hold for a match to be kept.
type FilterSpec struct {
	Venue          Venue      `json:"venue"`
	OpponentRank   *RankRange `json:"opponentRank,omitempty"`
	Opponents      []string   `json:"opponents,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
	ScoredFirst    bool       `json:"scoredFirst,omitempty"`
	ConcededFirst  bool       `json:"concededFirst,omitempty"`
	Comeback       bool       `json:"comeback,omitempty"`
	NoRedCards     bool       `json:"noRedCards,omitempty"`
	IncludePlayers []string   `json:"includePlayers,omitempty"`
	ExcludePlayers []string   `json:"excludePlayers,omitempty"`
	Coach          string     `json:"coach,omitempty"`
}

// IsEmpty reports whether no predicate is set
func (f FilterSpec) IsEmpty() bool {
	return f.Venue == VenueAny && f.OpponentRank == nil && len(f.Opponents) == 0 &&
		f.From == nil && f.To == nil && !f.ScoredFirst && !f.ConcededFirst &&
		!f.Comeback && !f.NoRedCards && len(f.IncludePlayers) == 0 &&
		len(f.ExcludePlayers) == 0 && f.Coach == ""
}

// NeedsRanking reports whether the spec can only be applied with a ranking
func (f FilterSpec) NeedsRanking() bool {
	return f.OpponentRank != nil
}

// WithoutPerspective returns a copy keeping only the predicates that do not
// depend on which team is looking at the match (dates and red cards)
func (f FilterSpec) WithoutPerspective() FilterSpec {
	return FilterSpec{From: f.From, To: f.To, NoRedCards: f.NoRedCards}
}

// Validate checks the spec for contradictions that make it meaningless
func (f FilterSpec) Validate() error {
	switch f.Venue {
	case VenueAny, VenueHome, VenueAway:
	default:
		return fmt.Errorf("%w: venue %d", ErrInvalidFilter, f.Venue)
	}
	if r := f.OpponentRank; r != nil {
		if r.Min < 1 || r.Max < 1 {
			return fmt.Errorf("%w: rank range %d-%d must be positive", ErrInvalidFilter, r.Min, r.Max)
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: rank range %d-%d is inverted", ErrInvalidFilter, r.Min, r.Max)
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return fmt.Errorf("%w: date range %s to %s is inverted", ErrInvalidFilter,
			f.From.Format(util.DateLayout), f.To.Format(util.DateLayout))
	}
	return nil
}

// ParseVenue reads home, away or any (case-insensitive); empty means any
func ParseVenue(s string) (Venue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return VenueAny, nil
	case "home":
		return VenueHome, nil
	case "away":
		return VenueAway, nil
	}
	return VenueAny, fmt.Errorf("%w: venue %q", ErrInvalidFilter, s)
}

// ParseFilterSpec builds a validated FilterSpec from loosely typed options,
// as they arrive from query strings or JSON tool arguments.
// Keys with blank values are ignored. Unknown keys and values of the wrong
// shape are rejected with ErrInvalidFilter.
func ParseFilterSpec(opts map[string]any) (FilterSpec, error) {
	var spec FilterSpec
	var rankMin, rankMax, topN *int

	for _, key := range sortedKeys(opts) {
		raw := opts[key]
		if !isKnownKey(key) {
			return FilterSpec{}, fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, key)
		}
		if util.IsBlank(raw) {
			continue
		}

		var err error
		switch key {
		case KeyVenue:
			var s string
			if s, err = util.GetAsString(raw); err == nil {
				spec.Venue, err = ParseVenue(s)
			}
		case KeyRankMin:
			rankMin, err = intOption(raw)
		case KeyRankMax:
			rankMax, err = intOption(raw)
		case KeyTopN:
			topN, err = intOption(raw)
		case KeyOpponents:
			spec.Opponents, err = util.GetAsStringSlice(raw)
		case KeyFrom:
			spec.From, err = dateOption(raw)
		case KeyTo:
			spec.To, err = dateOption(raw)
		case KeyScoredFirst:
			spec.ScoredFirst, err = util.GetAsBool(raw)
		case KeyConcededFirst:
			spec.ConcededFirst, err = util.GetAsBool(raw)
		case KeyComeback:
			spec.Comeback, err = util.GetAsBool(raw)
		case KeyNoRedCards:
			spec.NoRedCards, err = util.GetAsBool(raw)
		case KeyIncludePlayers:
			spec.IncludePlayers, err = util.GetAsStringSlice(raw)
		case KeyExcludePlayers:
			spec.ExcludePlayers, err = util.GetAsStringSlice(raw)
		case KeyCoach:
			spec.Coach, err = util.GetAsString(raw)
			spec.Coach = strings.TrimSpace(spec.Coach)
		}
		if err != nil {
			return FilterSpec{}, fmt.Errorf("%w: %s: %v", ErrInvalidFilter, key, err)
		}
	}

	switch {
	case topN != nil && (rankMin != nil || rankMax != nil):
		return FilterSpec{}, fmt.Errorf("%w: %s cannot be combined with %s/%s", ErrInvalidFilter, KeyTopN, KeyRankMin, KeyRankMax)
	case topN != nil:
		spec.OpponentRank = &RankRange{Min: 1, Max: *topN}
	case rankMin != nil || rankMax != nil:
		if rankMin == nil || rankMax == nil {
			return FilterSpec{}, fmt.Errorf("%w: %s and %s must be given together", ErrInvalidFilter, KeyRankMin, KeyRankMax)
		}
		spec.OpponentRank = &RankRange{Min: *rankMin, Max: *rankMax}
	}

	if err := spec.Validate(); err != nil {
		return FilterSpec{}, err
	}
	return spec, nil
}

// Filter returns the matches of matches that satisfy every predicate of spec,
// evaluated from team's point of view, in their original order.
// Predicates that depend on a perspective never hold for a match team did not play in.
// ranking is required only when spec.OpponentRank is set.
func Filter(matches []Match, spec FilterSpec, team string, ranking Ranking) ([]Match, error) {
	if spec.NeedsRanking() && len(ranking) == 0 {
		return nil, ErrMissingRankingData
	}

	out := make([]Match, 0, len(matches))
	if spec.IsEmpty() {
		return append(out, matches...), nil
	}
	for _, m := range matches {
		if spec.keep(m, team, ranking) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f FilterSpec) keep(m Match, team string, ranking Ranking) bool {
	day := util.TruncateToDay(m.Date)
	if f.From != nil && day.Before(util.TruncateToDay(*f.From)) {
		return false
	}
	if f.To != nil && day.After(util.TruncateToDay(*f.To)) {
		return false
	}
	if f.NoRedCards && m.HasRedCard() {
		return false
	}
	if f.perspectiveFree() {
		return true
	}

	venue := m.VenueOf(team)
	if venue == VenueAny {
		return false
	}
	if f.Venue != VenueAny && f.Venue != venue {
		return false
	}

	opponent := m.Opponent(team)
	if f.OpponentRank != nil {
		rank, ok := ranking[opponent]
		if !ok || !f.OpponentRank.Contains(rank) {
			return false
		}
	}
	if len(f.Opponents) > 0 && !contains(f.Opponents, opponent) {
		return false
	}

	if f.ScoredFirst || f.ConcededFirst || f.Comeback {
		ga := AnalyzeGoals(m, team)
		if (f.ScoredFirst && !ga.ScoredFirst) || (f.ConcededFirst && !ga.ConcededFirst) || (f.Comeback && !ga.Comeback) {
			return false
		}
	}

	lineup, _ := m.LineupFor(team)
	for _, p := range f.IncludePlayers {
		if !lineup.HasStarter(p) {
			return false
		}
	}
	for _, p := range f.ExcludePlayers {
		if lineup.HasStarter(p) {
			return false
		}
	}
	if f.Coach != "" && lineup.Coach != f.Coach {
		return false
	}
	return true
}

// perspectiveFree reports whether the spec holds nothing but date and red card predicates
func (f FilterSpec) perspectiveFree() bool {
	return f.Venue == VenueAny && f.OpponentRank == nil && len(f.Opponents) == 0 &&
		!f.ScoredFirst && !f.ConcededFirst && !f.Comeback &&
		len(f.IncludePlayers) == 0 && len(f.ExcludePlayers) == 0 && f.Coach == ""
}

func isKnownKey(key string) bool {
	return contains(FilterKeys, key)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intOption(raw any) (*int, error) {
	n, err := util.GetAsInteger(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func dateOption(raw any) (*time.Time, error) {
	t, err := util.GetAsDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
