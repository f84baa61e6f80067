package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barkd/detect"
	"barkd/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "barkd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string, generatedAt time.Time, barks int) *report.Report {
	return &report.Report{
		ID:              id,
		SessionID:       "session-" + id,
		GeneratedAt:     generatedAt,
		DurationSeconds: 120,
		TotalBarks:      barks,
		SoundsPlayed:    2,
		AverageVolume:   -18.5,
		PeakVolume:      -9.1,
		LevelBreakdown:  map[string]int{"Gentle Woof": barks},
		Timeline: []report.TimelinePoint{
			{Timestamp: generatedAt, BarkCount: barks, AvgVolume: -18.5},
		},
	}
}

func TestReportRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := sampleReport("r1", time.Now(), 7)
	in.Comparison = &report.Comparison{
		BarkCountChange: -30,
		VolumeChange:    5,
		IsImprovement:   true,
	}
	require.NoError(t, s.InsertReport(in))

	out, err := s.ReportByID("r1")
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.TotalBarks, out.TotalBarks)
	assert.Equal(t, in.AverageVolume, out.AverageVolume)
	assert.Equal(t, in.LevelBreakdown, out.LevelBreakdown)
	require.Len(t, out.Timeline, 1)
	assert.Equal(t, in.Timeline[0].BarkCount, out.Timeline[0].BarkCount)
	require.NotNil(t, out.Comparison)
	assert.Equal(t, -30, out.Comparison.BarkCountChange)
	assert.True(t, out.Comparison.IsImprovement)
	assert.WithinDuration(t, in.GeneratedAt, out.GeneratedAt, time.Millisecond)
}

func TestReportWithoutComparison(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.InsertReport(sampleReport("r1", time.Now(), 3)))

	out, err := s.ReportByID("r1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Nil(t, out.Comparison)
}

func TestReportsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	require.NoError(t, s.InsertReport(sampleReport("old", base.Add(-time.Hour), 10)))
	require.NoError(t, s.InsertReport(sampleReport("new", base, 4)))

	all, err := s.Reports()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "old", all[1].ID)

	latest, err := s.LatestReport()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "new", latest.ID)
}

func TestLatestReportEmpty(t *testing.T) {
	s := openTestStore(t)

	latest, err := s.LatestReport()
	require.NoError(t, err)
	assert.Nil(t, latest)

	missing, err := s.ReportByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordingRegistry(t *testing.T) {
	s := openTestStore(t)

	rec := detect.Recording{
		ID:       "rec1",
		Name:     "gentle voice",
		Path:     "/sounds/gentle.wav",
		Level:    1,
		Duration: 4 * time.Second,
	}
	require.NoError(t, s.SaveRecording(rec))
	require.NoError(t, s.SaveRecording(detect.Recording{
		ID: "rec2", Name: "firm voice", Path: "/sounds/firm.flac",
		Level: 2, Duration: 9 * time.Second,
	}))

	recs, err := s.Recordings()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, 4*time.Second, recs[0].Duration)

	byLevel, err := s.RecordingByLevel(2)
	require.NoError(t, err)
	require.NotNil(t, byLevel)
	assert.Equal(t, "rec2", byLevel.ID)

	none, err := s.RecordingByLevel(5)
	require.NoError(t, err)
	assert.Nil(t, none)

	longest, err := s.LongestRecording()
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, longest)
}

func TestSaveRecordingReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveRecording(detect.Recording{
		ID: "rec1", Name: "first", Path: "/a.wav", Level: 1, Duration: time.Second,
	}))
	require.NoError(t, s.SaveRecording(detect.Recording{
		ID: "rec1", Name: "renamed", Path: "/b.wav", Level: 2, Duration: 2 * time.Second,
	}))

	recs, err := s.Recordings()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "renamed", recs[0].Name)
	assert.Equal(t, 2, recs[0].Level)
}

func TestDeleteRecording(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveRecording(detect.Recording{
		ID: "rec1", Name: "x", Path: "/x.wav", Level: 1, Duration: time.Second,
	}))
	require.NoError(t, s.DeleteRecording("rec1"))

	recs, err := s.Recordings()
	require.NoError(t, err)
	assert.Empty(t, recs)

	longest, err := s.LongestRecording()
	require.NoError(t, err)
	assert.Zero(t, longest)
}

func TestClearAll(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.InsertReport(sampleReport("r1", time.Now(), 1)))
	require.NoError(t, s.SaveRecording(detect.Recording{
		ID: "rec1", Name: "x", Path: "/x.wav", Level: 1, Duration: time.Second,
	}))

	require.NoError(t, s.ClearAll())

	reports, err := s.Reports()
	require.NoError(t, err)
	assert.Empty(t, reports)
	recs, err := s.Recordings()
	require.NoError(t, err)
	assert.Empty(t, recs)
}
