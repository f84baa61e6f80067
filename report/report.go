// Package report turns a closed listening session into an immutable
// aggregate: summary stats, a gapless time-bucketed timeline, and a
// comparison against the previous report.
package report

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"barkd/detect"
)

// PeakFloorDB is the peak volume reported for a session with no events.
const PeakFloorDB = -100.0

type TimelinePoint struct {
	Timestamp time.Time `json:"timestamp"`
	BarkCount int       `json:"barkCount"`
	AvgVolume float64   `json:"avgVolume"`
}

type Comparison struct {
	BarkCountChange int  `json:"barkCountChange"` // percent
	VolumeChange    int  `json:"volumeChange"`    // percent
	IsImprovement   bool `json:"isImprovement"`
}

type Report struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	GeneratedAt time.Time `json:"generatedAt"`

	DurationSeconds int `json:"duration"`
	TotalBarks      int `json:"totalBarks"`
	SoundsPlayed    int `json:"soundsPlayed"`

	AverageVolume float64 `json:"averageVolume"` // dBFS
	PeakVolume    float64 `json:"peakVolume"`    // dBFS

	LevelBreakdown map[string]int  `json:"levelBreakdown"`
	Timeline       []TimelinePoint `json:"timeline"`

	Comparison *Comparison `json:"comparisonWithPrevious,omitempty"`
}

// Summarize aggregates a closed session. It never fails: a session with
// zero events is a valid, reportable outcome. prev may be nil (first
// session).
func Summarize(sess *detect.Session, prev *Report) Report {
	events := sess.Events

	ended := sess.EndedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	duration := ended.Sub(sess.StartedAt)
	// A session can end before its last event finishes propagating; the
	// duration must still cover every event, and never hit zero.
	if n := len(events); n > 0 {
		if span := events[n-1].Time.Sub(sess.StartedAt); span > duration {
			duration = span
		}
	}
	durationSeconds := int(duration.Seconds())
	if durationSeconds < 1 {
		durationSeconds = 1
	}

	totalBarks := len(events)
	soundsPlayed := 0
	var volumeSum float64
	peak := PeakFloorDB
	breakdown := make(map[string]int)
	for _, ev := range events {
		if ev.SoundPlayed {
			soundsPlayed++
		}
		volumeSum += ev.LevelDB
		if ev.LevelDB > peak {
			peak = ev.LevelDB
		}
		breakdown[strconv.Itoa(ev.Level)]++
	}
	avg := 0.0
	if totalBarks > 0 {
		avg = volumeSum / float64(totalBarks)
	}

	r := Report{
		ID:              uuid.NewString(),
		SessionID:       sess.ID,
		GeneratedAt:     time.Now(),
		DurationSeconds: durationSeconds,
		TotalBarks:      totalBarks,
		SoundsPlayed:    soundsPlayed,
		AverageVolume:   round1(avg),
		PeakVolume:      round1(peak),
		LevelBreakdown:  breakdown,
		Timeline:        buildTimeline(sess.StartedAt, durationSeconds, events),
	}
	if prev != nil {
		r.Comparison = compare(totalBarks, avg, prev)
	}
	return r
}

// buildTimeline produces one point per bucket from session start through a
// trailing buffer bucket. Buckets with no events still appear so charts
// draw a continuous axis.
func buildTimeline(start time.Time, durationSeconds int, events []detect.BarkEvent) []TimelinePoint {
	bucket := time.Minute
	if durationSeconds > 3600 {
		bucket = time.Hour
	}
	durationMillis := int64(durationSeconds) * 1000
	bucketMillis := bucket.Milliseconds()
	count := int((durationMillis+bucketMillis-1)/bucketMillis) + 1

	counts := make([]int, count)
	sums := make([]float64, count)
	for _, ev := range events {
		idx := int(ev.Time.Sub(start) / bucket)
		if idx < 0 {
			idx = 0
		}
		if idx >= count {
			idx = count - 1
		}
		counts[idx]++
		sums[idx] += ev.LevelDB
	}

	timeline := make([]TimelinePoint, count)
	for i := range timeline {
		p := TimelinePoint{Timestamp: start.Add(time.Duration(i) * bucket)}
		if counts[i] > 0 {
			p.BarkCount = counts[i]
			p.AvgVolume = round1(sums[i] / float64(counts[i]))
		}
		timeline[i] = p
	}
	return timeline
}

func compare(totalBarks int, avgVolume float64, prev *Report) *Comparison {
	barkChange := 0.0
	if prev.TotalBarks > 0 {
		barkChange = float64(totalBarks-prev.TotalBarks) / float64(prev.TotalBarks) * 100
	}
	volumeChange := 0.0
	if prevAbs := math.Abs(prev.AverageVolume); prevAbs > 0 {
		volumeChange = (math.Abs(avgVolume) - prevAbs) / prevAbs * 100
	}
	return &Comparison{
		BarkCountChange: int(math.Round(barkChange)),
		VolumeChange:    int(math.Round(volumeChange)),
		IsImprovement:   barkChange < 0, // fewer barks is better
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
