package report

import (
	"fmt"
	"time"
)

// FormatDuration renders whole seconds as "2h 5m", "3m 12s" or "45s".
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// ImprovementMessage gives the session-complete one-liner for a report.
func ImprovementMessage(r *Report) string {
	if r.Comparison == nil {
		return "First session! Let's see how your floofer does."
	}
	change := r.Comparison.BarkCountChange
	if r.Comparison.IsImprovement {
		switch {
		case change < -30:
			return "Paw-some progress! Your pup is becoming a zen master."
		case change < -15:
			return "Woof-derful! Your floofer is calming down. Treats deserved."
		default:
			return "Good progress! A few less woofs today."
		}
	}
	switch {
	case change > 30:
		return "Ruh-roh! Extra woofs today. Maybe they saw a squirrel?"
	case change > 15:
		return "A bit more barky today. Extra belly rubs needed."
	default:
		return "Similar to last time. Keep at it, hooman!"
	}
}

// WeeklyStats aggregates reports generated in the trailing seven days.
type WeeklyStats struct {
	TotalBarks    int
	AvgPerSession int
	SessionCount  int
}

func Weekly(reports []Report, now time.Time) WeeklyStats {
	cutoff := now.Add(-7 * 24 * time.Hour)
	var stats WeeklyStats
	for _, r := range reports {
		if r.GeneratedAt.After(cutoff) {
			stats.TotalBarks += r.TotalBarks
			stats.SessionCount++
		}
	}
	if stats.SessionCount > 0 {
		stats.AvgPerSession = (stats.TotalBarks + stats.SessionCount/2) / stats.SessionCount
	}
	return stats
}
