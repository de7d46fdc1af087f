package datasource

import (
	"bytes"
	"encoding/json"
)

// list decodes a field the feed sends either as a single object or as an array
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*l = list[T]{item}
	return nil
}

// feedError is present on any payload the feed could not serve
type feedError struct {
	ErrorCode json.RawMessage `json:"errorCode"`
}

func (e feedError) failed() bool {
	return len(e.ErrorCode) > 0 && string(e.ErrorCode) != "null"
}

// Schedule is the tournament schedule payload
type Schedule struct {
	feedError
	MatchDate list[ScheduleDay] `json:"matchDate"`
}

type ScheduleDay struct {
	Date  string            `json:"date"`
	Match list[ScheduleItem] `json:"match"`
}

type ScheduleItem struct {
	ID                 string `json:"id"`
	HomeContestantName string `json:"homeContestantName"`
	AwayContestantName string `json:"awayContestantName"`
}

// matchStats is the subset of the match stats payload the parser reads
type matchStats struct {
	feedError
	MatchInfo struct {
		ID         string           `json:"id"`
		Date       string           `json:"date"`
		Contestant list[contestant] `json:"contestant"`
	} `json:"matchInfo"`
	LiveData struct {
		MatchDetails struct {
			MatchStatus string `json:"matchStatus"`
			Scores      struct {
				Total struct {
					Home int `json:"home"`
					Away int `json:"away"`
				} `json:"total"`
			} `json:"scores"`
		} `json:"matchDetails"`
		Goal   list[feedGoal]   `json:"goal"`
		Card   list[feedCard]   `json:"card"`
		LineUp list[feedLineup] `json:"lineUp"`
	} `json:"liveData"`
}

type contestant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type feedGoal struct {
	ContestantID string `json:"contestantId"`
	PeriodID     int    `json:"periodId"`
	TimeMin      int    `json:"timeMin"`
	TimeMinSec   string `json:"timeMinSec"`
	ScorerName   string `json:"scorerName"`
	Type         string `json:"type"`
}

type feedCard struct {
	ContestantID string `json:"contestantId"`
	PeriodID     int    `json:"periodId"`
	TimeMin      int    `json:"timeMin"`
	PlayerName   string `json:"playerName"`
	Type         string `json:"type"`
}

type feedLineup struct {
	ContestantID string             `json:"contestantId"`
	Player       list[feedPlayer]   `json:"player"`
	TeamOfficial list[feedOfficial] `json:"teamOfficial"`
	Stat         list[feedStat]     `json:"stat"`
}

type feedPlayer struct {
	MatchName string `json:"matchName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Position  string `json:"position"`
}

type feedOfficial struct {
	Type      string `json:"type"`
	MatchName string `json:"matchName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// feedStat values arrive as strings or numbers depending on the feed version
type feedStat struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}
