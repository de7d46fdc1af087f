package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FuzzyMatch performs fuzzy string matching using Levenshtein distance
// Returns the minimum edit distance between the shorter string and the best matching substring of the longer
func FuzzyMatch(str1, str2 string) int {
	str1 = strings.ToLower(strings.TrimSpace(str1))
	str2 = strings.ToLower(strings.TrimSpace(str2))

	shorter, longer := str1, str2
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	minDistance := math.MaxInt32
	for i := 0; i <= len(longer)-len(shorter); i++ {
		distance := LevenshteinDistance(shorter, longer[i:i+len(shorter)])
		if distance < minDistance {
			minDistance = distance
		}
		if minDistance == 0 {
			break
		}
	}
	return minDistance
}

// LevenshteinDistance calculates the Levenshtein distance between two strings
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

// FuzzyMatchScore returns a similarity score between 0.0 and 1.0
// where 1.0 is a perfect match and 0.0 is completely different.
// A term no longer than the candidate is scored against the candidate's best
// matching substring, so "america" scores 1.0 against "Club America".
// A longer term is scored against the whole candidate.
func FuzzyMatchScore(term, candidate string) float64 {
	term = strings.ToLower(strings.TrimSpace(term))
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if term == "" {
		if candidate == "" {
			return 1.0
		}
		return 0
	}
	distance := LevenshteinDistance(term, candidate)
	if len(term) <= len(candidate) {
		distance = FuzzyMatch(term, candidate)
	}
	return max(0, 1.0-float64(distance)/float64(len(term)))
}

// BestFuzzyMatch returns the candidate most similar to term along with its score.
// An exact case-insensitive match always wins.
func BestFuzzyMatch(term string, candidates []string) (string, float64) {
	best, bestScore := "", -1.0
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(term), c) {
			return c, 1.0
		}
		score := FuzzyMatchScore(term, c)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// GetAsString converts various types to string
// If s is a string, return it
// If s is any form of number, format it and return it
func GetAsString(s any) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot convert nil to string")
	}

	switch v := s.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string", s)
	}
}

// GetAsInteger converts various types to integer
// If s is a string that represents an integer, convert it to an integer and return it
// Floats are accepted only when they hold a whole number (JSON numbers decode as float64)
func GetAsInteger(s any) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("cannot convert nil to integer")
	}

	switch v := s.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("int64 value %d is out of int range", v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("float64 value %f is not a whole number", v)
		}
		return int(v), nil
	case string:
		result, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to integer: %w", v, err)
		}
		return result, nil
	default:
		return 0, fmt.Errorf("cannot convert type %T to integer", s)
	}
}

// GetAsBool accepts a bool or a string strconv.ParseBool understands
func GetAsBool(s any) (bool, error) {
	switch v := s.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("cannot convert string '%s' to bool: %w", v, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("cannot convert type %T to bool", s)
	}
}

// GetAsStringSlice accepts a []string, a []any of strings or a comma separated string.
// Blank entries are dropped.
func GetAsStringSlice(s any) ([]string, error) {
	var raw []string
	switch v := s.(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item of type %T is not a string", item)
			}
			raw = append(raw, str)
		}
	case string:
		raw = strings.Split(v, ",")
	default:
		return nil, fmt.Errorf("cannot convert type %T to string list", s)
	}

	var out []string
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// DateLayout is the calendar date format accepted in filters and query strings
const DateLayout = "2006-01-02"

// GetAsDate accepts a time.Time or a YYYY-MM-DD string (a trailing Z is tolerated)
// and returns the date at midnight UTC
func GetAsDate(s any) (time.Time, error) {
	switch v := s.(type) {
	case time.Time:
		return TruncateToDay(v), nil
	case string:
		t, err := time.Parse(DateLayout, strings.TrimSuffix(strings.TrimSpace(v), "Z"))
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse date '%s': %w", v, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert type %T to date", s)
	}
}

// TruncateToDay drops the clock part of t, in UTC
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBlank reports whether a loosely typed value carries nothing:
// nil, an empty or whitespace string, or an empty list
func IsBlank(s any) bool {
	switch v := s.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}
