package tools

import (
	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/protocol"
)

var one = 1

var stringList = &protocol.ToolProperty{Type: "string"}

// filterProperties describes every filter key a tool may be given
var filterProperties = map[string]protocol.ToolProperty{
	league.KeyVenue: {
		Type:        "string",
		Description: "Only count matches the team played at home or away",
		Enum:        []string{"home", "away", "any"},
	},
	league.KeyRankMin: {
		Type:        "integer",
		Description: "Best table position of the opponents to count (1 is top). Give together with rank_max.",
		Minimum:     &one,
	},
	league.KeyRankMax: {
		Type:        "integer",
		Description: "Worst table position of the opponents to count. Give together with rank_min.",
		Minimum:     &one,
	},
	league.KeyTopN: {
		Type:        "integer",
		Description: "Only count matches against the current top N of the table. Cannot be combined with rank_min/rank_max.",
		Minimum:     &one,
	},
	league.KeyOpponents: {
		Type:        "array",
		Description: "Only count matches against these teams",
		Items:       stringList,
	},
	league.KeyFrom: {
		Type:        "string",
		Description: "First match day to count, YYYY-MM-DD",
	},
	league.KeyTo: {
		Type:        "string",
		Description: "Last match day to count, YYYY-MM-DD",
	},
	league.KeyScoredFirst: {
		Type:        "boolean",
		Description: "Only count matches in which the team scored the first goal",
	},
	league.KeyConcededFirst: {
		Type:        "boolean",
		Description: "Only count matches in which the opponent scored the first goal",
	},
	league.KeyComeback: {
		Type:        "boolean",
		Description: "Only count matches in which the team was behind at some point and did not lose",
	},
	league.KeyNoRedCards: {
		Type:        "boolean",
		Description: "Leave out matches in which anyone was sent off",
	},
	league.KeyIncludePlayers: {
		Type:        "array",
		Description: "Only count matches in which all of these players started for the team",
		Items:       stringList,
	},
	league.KeyExcludePlayers: {
		Type:        "array",
		Description: "Only count matches in which none of these players started for the team",
		Items:       stringList,
	},
	league.KeyCoach: {
		Type:        "string",
		Description: "Only count matches in which the team was led by this coach",
	},
}

// schema builds an input schema from the tool's own properties plus the
// given filter keys
func schema(own map[string]protocol.ToolProperty, required []string, filterKeys []string) protocol.InputSchema {
	props := make(map[string]protocol.ToolProperty, len(own)+len(filterKeys))
	for k, v := range own {
		props[k] = v
	}
	for _, k := range filterKeys {
		props[k] = filterProperties[k]
	}
	if required == nil {
		required = []string{}
	}
	return protocol.InputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}
