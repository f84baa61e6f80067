package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"barkd/audio"
	"barkd/config"
	"barkd/detect"
	"barkd/log"
	"barkd/playback"
	"barkd/report"
	"barkd/store"
)

// runTestMode replays a WAV file through the full detection pipeline and
// prints the resulting report as JSON. Responses use a fake player so a
// test run never blasts calming sounds through the speakers, and the
// report is printed but not persisted.
func runTestMode(wavPath string, loader *config.Loader, st *store.Store, interval time.Duration) {
	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: captureRate, Channels: captureChannels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	recordings := func() []detect.Recording {
		recs, err := st.Recordings()
		if err != nil {
			log.Errorf("loading recordings: %v", err)
			return nil
		}
		return recs
	}

	player := playback.NewFakePlayer()
	monitor := detect.NewMonitor(detect.Options{
		Source:       audio.NewMeterStream(capture, interval),
		Player:       player,
		Settings:     loader.Settings,
		Recordings:   recordings,
		Observer:     consoleObserver{},
		DeviceName:   capture.DeviceName(),
		PollInterval: interval,
	})

	if err := monitor.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting monitor: %v\n", err)
		os.Exit(1)
	}

	<-fakeCapture.AudioDone()
	// Let the last metering window flush before tearing down.
	time.Sleep(2 * interval)

	sess := monitor.Stop()

	prev, err := st.LatestReport()
	if err != nil {
		log.Errorf("loading previous report: %v", err)
	}
	rep := report.Summarize(sess, prev)
	log.ReportSummary(rep.ID, rep.DurationSeconds, rep.TotalBarks, rep.SoundsPlayed, rep.AverageVolume, rep.PeakVolume)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
