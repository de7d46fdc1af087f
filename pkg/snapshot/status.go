package snapshot

import (
	"fmt"
	"time"
)

// UpdateInfo describes how fresh the data is
type UpdateInfo struct {
	Exists       bool       `json:"exists"`
	LastUpdate   *time.Time `json:"lastUpdate"`
	HoursAgo     float64    `json:"hoursAgo"`
	TotalMatches int        `json:"totalMatches"`
	Mode         string     `json:"downloadMode,omitempty"`
	NeedsUpdate  bool       `json:"needsUpdate"`
	Message      string     `json:"message"`
}

// LastUpdateInfo reports on the current snapshot
func (s *State) LastUpdateInfo() UpdateInfo {
	snap, now := s.Current(), s.now()
	info := UpdateInfo{
		Exists:       snap.LastRun != nil || len(snap.Matches) > 0,
		TotalMatches: len(snap.Matches),
		NeedsUpdate:  s.needsUpdate(snap, now),
	}
	if snap.LastRun != nil {
		last := snap.LastRefreshed
		info.LastUpdate = &last
		info.HoursAgo = now.Sub(last).Hours()
		info.Mode = snap.LastRun.Mode
	}
	info.Message = FormatStatus(info)
	return info
}

// Freshness buckets an age in hours: fresh under 2h, stale under a day,
// expired after that
func Freshness(hoursAgo float64) string {
	switch {
	case hoursAgo < 2:
		return "fresh"
	case hoursAgo < 24:
		return "stale"
	}
	return "expired"
}

// FormatStatus renders info as a one line message
func FormatStatus(info UpdateInfo) string {
	if !info.Exists {
		return "No data downloaded yet. Run a refresh first."
	}
	if info.LastUpdate == nil {
		return fmt.Sprintf("%d matches in database", info.TotalMatches)
	}
	return fmt.Sprintf("[%s] %d matches | last update %s ago",
		Freshness(info.HoursAgo), info.TotalMatches, elapsed(info.HoursAgo))
}

func elapsed(hours float64) string {
	switch {
	case hours < 1:
		return plural(int(hours*60), "minute")
	case hours < 24:
		return plural(int(hours), "hour")
	}
	return plural(int(hours/24), "day")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
