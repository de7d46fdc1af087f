package tools

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/richard-senior/matchboard/pkg/league"
	"github.com/richard-senior/matchboard/pkg/util"
)

// filter keys accepted by each group of tools
var (
	standingsKeys = []string{
		league.KeyVenue, league.KeyRankMin, league.KeyRankMax, league.KeyTopN, league.KeyOpponents,
		league.KeyFrom, league.KeyTo, league.KeyScoredFirst, league.KeyConcededFirst,
		league.KeyComeback, league.KeyNoRedCards,
	}
	teamKeys  = league.FilterKeys
	scopeKeys = []string{league.KeyFrom, league.KeyTo, league.KeyNoRedCards}
)

// arguments are a tool call's own arguments, with the filter split off
type arguments map[string]any

// splitArgs separates a tool's own arguments from its filter keys.
// Anything that is neither is rejected as an invalid filter.
func splitArgs(params any, own, filterKeys []string) (arguments, league.FilterSpec, error) {
	var raw map[string]any
	switch p := params.(type) {
	case nil:
		raw = map[string]any{}
	case map[string]any:
		raw = p
	default:
		return nil, league.FilterSpec{}, fmt.Errorf("arguments must be an object, got %T", params)
	}

	args := arguments{}
	filter := map[string]any{}
	for key, value := range raw {
		switch {
		case slices.Contains(own, key):
			args[key] = value
		case slices.Contains(filterKeys, key):
			filter[key] = value
		default:
			return nil, league.FilterSpec{}, fmt.Errorf("%w: unsupported argument %q", league.ErrInvalidFilter, key)
		}
	}
	spec, err := league.ParseFilterSpec(filter)
	if err != nil {
		return nil, league.FilterSpec{}, err
	}
	return args, spec, nil
}

// str returns a trimmed string argument, or "" when absent
func (a arguments) str(key string) (string, error) {
	raw, ok := a[key]
	if !ok || util.IsBlank(raw) {
		return "", nil
	}
	s, err := util.GetAsString(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return strings.TrimSpace(s), nil
}

// required returns a string argument that must be present
func (a arguments) required(key string) (string, error) {
	s, err := a.str(key)
	if err == nil && s == "" {
		err = fmt.Errorf("%s is required", key)
	}
	return s, err
}

// positive returns an integer argument of at least 1, or def when absent
func (a arguments) positive(key string, def int) (int, error) {
	raw, ok := a[key]
	if !ok || util.IsBlank(raw) {
		return def, nil
	}
	n, err := util.GetAsInteger(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func (a arguments) flag(key string) (bool, error) {
	raw, ok := a[key]
	if !ok || util.IsBlank(raw) {
		return false, nil
	}
	b, err := util.GetAsBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// describe lists the filter arguments of params as key=value, sorted
func describe(params any, filterKeys []string) string {
	raw, _ := params.(map[string]any)
	var parts []string
	for key, value := range raw {
		if slices.Contains(filterKeys, key) && !util.IsBlank(value) {
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	if len(parts) == 0 {
		return "no filter"
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
