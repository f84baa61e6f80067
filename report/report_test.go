package report

import (
	"testing"
	"time"

	"barkd/detect"
)

func closedSession(start time.Time, dur time.Duration, events []detect.BarkEvent) *detect.Session {
	return &detect.Session{
		ID:        "sess-1",
		StartedAt: start,
		EndedAt:   start.Add(dur),
		Events:    events,
	}
}

func TestSummarizeZeroEvents(t *testing.T) {
	start := time.Now()
	r := Summarize(closedSession(start, 90*time.Second, nil), nil)

	if r.TotalBarks != 0 || r.SoundsPlayed != 0 {
		t.Errorf("totals = %d/%d, want 0/0", r.TotalBarks, r.SoundsPlayed)
	}
	if r.AverageVolume != 0 {
		t.Errorf("average = %v, want 0", r.AverageVolume)
	}
	if r.PeakVolume != PeakFloorDB {
		t.Errorf("peak = %v, want floor sentinel %v", r.PeakVolume, PeakFloorDB)
	}
	if len(r.LevelBreakdown) != 0 {
		t.Errorf("breakdown = %v, want empty", r.LevelBreakdown)
	}
	if r.Comparison != nil {
		t.Error("comparison present without a previous report")
	}
}

func TestSummarizeStats(t *testing.T) {
	start := time.Now()
	events := []detect.BarkEvent{
		{Time: start.Add(5 * time.Second), LevelDB: -20, Level: 1, SoundPlayed: true},
		{Time: start.Add(30 * time.Second), LevelDB: -10, Level: 2},
		{Time: start.Add(60 * time.Second), LevelDB: -12, Level: 2, SoundPlayed: true},
	}
	r := Summarize(closedSession(start, 90*time.Second, events), nil)

	if r.TotalBarks != 3 || r.SoundsPlayed != 2 {
		t.Errorf("totals = %d/%d, want 3/2", r.TotalBarks, r.SoundsPlayed)
	}
	if r.AverageVolume != -14.0 {
		t.Errorf("average = %v, want -14.0", r.AverageVolume)
	}
	if r.PeakVolume != -10.0 {
		t.Errorf("peak = %v, want -10.0", r.PeakVolume)
	}
	if r.LevelBreakdown["1"] != 1 || r.LevelBreakdown["2"] != 2 {
		t.Errorf("breakdown = %v", r.LevelBreakdown)
	}
	if r.DurationSeconds != 90 {
		t.Errorf("duration = %d, want 90", r.DurationSeconds)
	}
}

func TestDurationCoversTrailingEvent(t *testing.T) {
	start := time.Now()
	// Session closed at +10s but the last event landed at +25s.
	events := []detect.BarkEvent{{Time: start.Add(25 * time.Second), LevelDB: -10, Level: 1}}
	r := Summarize(closedSession(start, 10*time.Second, events), nil)
	if r.DurationSeconds != 25 {
		t.Errorf("duration = %d, want 25", r.DurationSeconds)
	}
}

func TestDurationMinimumOneSecond(t *testing.T) {
	start := time.Now()
	r := Summarize(closedSession(start, 0, nil), nil)
	if r.DurationSeconds != 1 {
		t.Errorf("duration = %d, want 1", r.DurationSeconds)
	}
	if len(r.Timeline) == 0 {
		t.Error("zero-length session still needs a timeline")
	}
}

func TestTimelineGapless(t *testing.T) {
	start := time.Now()
	// 75s session, events at +5s and +70s: minute buckets, count =
	// ceil(75000/60000)+1 = 3, middle bucket empty but present.
	events := []detect.BarkEvent{
		{Time: start.Add(5 * time.Second), LevelDB: -20, Level: 1},
		{Time: start.Add(70 * time.Second), LevelDB: -10, Level: 2},
	}
	r := Summarize(closedSession(start, 75*time.Second, events), nil)

	if len(r.Timeline) != 3 {
		t.Fatalf("timeline length = %d, want 3", len(r.Timeline))
	}
	if r.Timeline[0].BarkCount != 1 || r.Timeline[1].BarkCount != 1 || r.Timeline[2].BarkCount != 0 {
		t.Errorf("bucket counts = %d,%d,%d, want 1,1,0",
			r.Timeline[0].BarkCount, r.Timeline[1].BarkCount, r.Timeline[2].BarkCount)
	}
	for i, p := range r.Timeline {
		want := start.Add(time.Duration(i) * time.Minute)
		if !p.Timestamp.Equal(want) {
			t.Errorf("bucket %d starts at %v, want %v", i, p.Timestamp, want)
		}
	}
	if r.Timeline[2].AvgVolume != 0 {
		t.Errorf("empty bucket avg = %v, want 0", r.Timeline[2].AvgVolume)
	}
}

func TestTimelineHourBucketsForLongSessions(t *testing.T) {
	start := time.Now()
	r := Summarize(closedSession(start, 2*time.Hour, nil), nil)
	// ceil(7200000/3600000)+1 = 3 hour buckets.
	if len(r.Timeline) != 3 {
		t.Errorf("timeline length = %d, want 3", len(r.Timeline))
	}
	if got := r.Timeline[1].Timestamp.Sub(r.Timeline[0].Timestamp); got != time.Hour {
		t.Errorf("bucket width = %v, want 1h", got)
	}
}

func TestComparisonAgainstPrevious(t *testing.T) {
	start := time.Now()
	events := make([]detect.BarkEvent, 70)
	for i := range events {
		events[i] = detect.BarkEvent{Time: start.Add(time.Duration(i) * time.Second), LevelDB: -20, Level: 1}
	}
	prev := &Report{TotalBarks: 100, AverageVolume: -20}

	r := Summarize(closedSession(start, 100*time.Second, events), prev)
	if r.Comparison == nil {
		t.Fatal("comparison missing")
	}
	if r.Comparison.BarkCountChange != -30 {
		t.Errorf("bark change = %d, want -30", r.Comparison.BarkCountChange)
	}
	if !r.Comparison.IsImprovement {
		t.Error("30% fewer barks should be an improvement")
	}
	if r.Comparison.VolumeChange != 0 {
		t.Errorf("volume change = %d, want 0 for equal averages", r.Comparison.VolumeChange)
	}
}

func TestComparisonDivideByZeroGuard(t *testing.T) {
	start := time.Now()
	events := []detect.BarkEvent{{Time: start.Add(time.Second), LevelDB: -20, Level: 1}}
	prev := &Report{TotalBarks: 0, AverageVolume: 0}

	r := Summarize(closedSession(start, 60*time.Second, events), prev)
	if r.Comparison.BarkCountChange != 0 {
		t.Errorf("bark change = %d, want 0 when previous total is 0", r.Comparison.BarkCountChange)
	}
	if r.Comparison.VolumeChange != 0 {
		t.Errorf("volume change = %d, want 0 when previous average is 0", r.Comparison.VolumeChange)
	}
	if r.Comparison.IsImprovement {
		t.Error("no change is not an improvement")
	}
}

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		seconds int
		want    string
	}{
		{45, "45s"},
		{192, "3m 12s"},
		{7500, "2h 5m"},
	} {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestImprovementMessageBands(t *testing.T) {
	if got := ImprovementMessage(&Report{}); got == "" {
		t.Error("first session message empty")
	}
	better := &Report{Comparison: &Comparison{BarkCountChange: -40, IsImprovement: true}}
	worse := &Report{Comparison: &Comparison{BarkCountChange: 40}}
	if ImprovementMessage(better) == ImprovementMessage(worse) {
		t.Error("improvement and regression share a message")
	}
}

func TestWeeklyStats(t *testing.T) {
	now := time.Now()
	reports := []Report{
		{GeneratedAt: now.Add(-24 * time.Hour), TotalBarks: 10},
		{GeneratedAt: now.Add(-48 * time.Hour), TotalBarks: 20},
		{GeneratedAt: now.Add(-8 * 24 * time.Hour), TotalBarks: 99}, // too old
	}
	stats := Weekly(reports, now)
	if stats.SessionCount != 2 || stats.TotalBarks != 30 || stats.AvgPerSession != 15 {
		t.Errorf("weekly = %+v", stats)
	}
}
