package league

import "errors"

var (
	// ErrInvalidFilter is returned for unknown filter keys and for values that cannot be interpreted
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrMissingRankingData is returned when an opponent rank range is requested without a ranking
	ErrMissingRankingData = errors.New("missing ranking data")
	ErrUnknownMetric      = errors.New("unknown leaderboard metric")
)
