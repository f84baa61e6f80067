package detect

import (
	"sort"

	"barkd/config"
)

// Classify maps one loudness sample (dBFS) to a 1-based severity level, or
// 0 when no threshold is exceeded. The sample is scaled by sensitivity
// first, then compared against each boundary with strict >; the highest
// satisfied tier wins. A loud sample exceeds every lower boundary too,
// and the loudest interpretation is the one that matters.
//
// The thresholds are re-sorted ascending before walking them. Loaded
// configuration is already ordered, but classification is too cheap to
// bet the result on an unvalidated caller.
func Classify(sample float64, thresholds []config.ThresholdLevel, sensitivity float64) int {
	if len(thresholds) == 0 {
		return 0
	}

	sorted := make([]config.ThresholdLevel, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	adjusted := sample * sensitivity

	level := 0
	for i, th := range sorted {
		if adjusted > th.Value {
			level = i + 1
		}
	}
	return level
}

// LevelName resolves a 1-based level to its configured name, sorting the
// same way Classify does so the two always agree.
func LevelName(level int, thresholds []config.ThresholdLevel) string {
	if level < 1 || level > len(thresholds) {
		return ""
	}
	sorted := make([]config.ThresholdLevel, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	return sorted[level-1].Name
}
