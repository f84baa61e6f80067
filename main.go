package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"barkd/audio"
	"barkd/config"
	"barkd/detect"
	"barkd/log"
	"barkd/playback"
	"barkd/report"
	"barkd/shutdown"
	"barkd/store"
)

var version = "dev"

const (
	captureRate     = 16000
	captureChannels = 1
)

func main() {
	run()
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	return "mic: " + name
}

func settingsLineText(s config.Settings) string {
	parts := ""
	for i, t := range s.Thresholds {
		if i > 0 {
			parts += " / "
		}
		parts += fmt.Sprintf("%s %.1f dB", t.Name, t.Value)
	}
	return fmt.Sprintf("%s   cooldown: %ds   sensitivity: %.1f",
		parts, s.CooldownSeconds, s.Sensitivity)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func run() {
	configFlag := flag.String("config", "", "Settings file path (default: OS config location)")
	dbFlag := flag.String("db", "", "History database path (default: OS config location)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	intervalFlag := flag.Duration("interval", 100*time.Millisecond, "Level polling interval")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	testFlag := flag.Bool("test", false, "Replay a WAV file instead of live capture (headless)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")

	reportsFlag := flag.Bool("reports", false, "List saved reports and exit")
	reportFlag := flag.String("report", "", "Print one report as JSON and exit")
	weeklyFlag := flag.Bool("weekly", false, "Print the trailing-week summary and exit")
	clearFlag := flag.Bool("clear", false, "Delete all saved reports and recordings, then exit")

	recordFlag := flag.Int("record", 0, "Register a calming sound for a severity level (with -file, -name)")
	fileFlag := flag.String("file", "", "Recording file for -record (.wav or .flac); omit to record from the microphone")
	durationFlag := flag.Duration("duration", 5*time.Second, "Microphone capture length for -record without -file")
	nameFlag := flag.String("name", "", "Display name for -record (default: file name)")
	recordingsFlag := flag.Bool("recordings", false, "List registered calming sounds and exit")
	forgetFlag := flag.String("forget", "", "Unregister a calming sound by id and exit")

	cooldownFlag := flag.Int("cooldown", 0, "Set the response cooldown in seconds and exit")
	sensitivityFlag := flag.Float64("sensitivity", 0, "Set detection sensitivity and exit")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fatalf("failed to resolve log directory: %v", err)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("barkd %s\n", version)
		os.Exit(0)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath, err = config.DefaultPath()
		if err != nil {
			fatalf("resolving settings path: %v", err)
		}
	}
	loader := config.NewLoader(configPath)
	loader.Load()

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath, err = store.DefaultPath()
		if err != nil {
			fatalf("resolving database path: %v", err)
		}
	}
	st, err := store.Open(dbPath)
	if err != nil {
		fatalf("opening history database: %v", err)
	}
	defer st.Close()

	if handled := runManagement(loader, st, mgmtFlags{
		clear:       *clearFlag,
		reports:     *reportsFlag,
		report:      *reportFlag,
		weekly:      *weeklyFlag,
		recordings:  *recordingsFlag,
		forget:      *forgetFlag,
		record:      *recordFlag,
		file:        *fileFlag,
		name:        *nameFlag,
		duration:    *durationFlag,
		cooldown:    *cooldownFlag,
		sensitivity: *sensitivityFlag,
	}); handled {
		return
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: barkd -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], loader, st, *intervalFlag)
		return
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fatalf("initializing audio: %v", err)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	capture, err := ctx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: captureRate,
		Channels:   captureChannels,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fatalf("initializing capture device: %v", err)
	}
	defer capture.Close()

	player, err := playback.NewPlayer()
	if err != nil {
		log.Warnf("playback init failed, responses disabled: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: playback unavailable, barks will be detected but not answered: %v\n", err)
		player = nil
	} else {
		defer player.Close()
	}

	recordings := func() []detect.Recording {
		if player == nil {
			return nil
		}
		recs, err := st.Recordings()
		if err != nil {
			log.Errorf("loading recordings: %v", err)
			return nil
		}
		return recs
	}

	if err := loader.Watch(); err != nil {
		log.Warnf("settings watch failed: %v", err)
	} else {
		defer loader.CloseWatch()
	}
	loader.OnChange(func(s config.Settings) {
		log.Info("settings reloaded")
		tuiSend(SettingsLineMsg{Text: settingsLineText(s)})
	})

	var observer detect.Observer = consoleObserver{}
	if *tuiFlag {
		observer = tuiObserver{}
	}

	monitor := detect.NewMonitor(detect.Options{
		Source:       audio.NewMeterStream(capture, *intervalFlag),
		Player:       player,
		Settings:     loader.Settings,
		Recordings:   recordings,
		Observer:     observer,
		DeviceName:   capture.DeviceName(),
		PollInterval: *intervalFlag,
	})

	var finishOnce sync.Once
	finish := func() {
		finishOnce.Do(func() {
			sess := monitor.Stop()
			tuiMu.Lock()
			p := tuiProgram
			tuiMu.Unlock()
			if p != nil {
				p.Quit()
				p.Wait()
			}
			if sess != nil {
				saveAndPrintReport(st, sess)
			}
			log.Close()
			os.Exit(0)
		})
	}

	if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			finish()
		}()
	}

	if err := monitor.Start(); err != nil {
		log.Errorf("monitor start error: %v", err)
		if errors.Is(err, audio.ErrPermissionDenied) {
			fatalf("microphone access denied. Grant microphone permission and try again.")
		}
		fatalf("starting monitor: %v", err)
	}

	tuiSend(ListeningMsg{On: true})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})
	tuiSend(SettingsLineMsg{Text: settingsLineText(loader.Settings())})
	if !*tuiFlag {
		fmt.Printf("Listening on %s. Ctrl+C to stop.\n", capture.DeviceName())
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	<-sigChan
	finish()
}

func saveAndPrintReport(st *store.Store, sess *detect.Session) {
	prev, err := st.LatestReport()
	if err != nil {
		log.Errorf("loading previous report: %v", err)
	}
	rep := report.Summarize(sess, prev)
	if err := st.InsertReport(&rep); err != nil {
		log.Errorf("saving report: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: report not saved: %v\n", err)
	}
	log.ReportSummary(rep.ID, rep.DurationSeconds, rep.TotalBarks, rep.SoundsPlayed, rep.AverageVolume, rep.PeakVolume)

	fmt.Printf("\nSession report %s\n", rep.ID)
	fmt.Printf("  duration:      %s\n", report.FormatDuration(rep.DurationSeconds))
	fmt.Printf("  barks:         %d\n", rep.TotalBarks)
	fmt.Printf("  sounds played: %d\n", rep.SoundsPlayed)
	if rep.TotalBarks > 0 {
		fmt.Printf("  avg volume:    %.1f dB\n", rep.AverageVolume)
		fmt.Printf("  peak volume:   %.1f dB\n", rep.PeakVolume)
	}
	fmt.Printf("  %s\n", report.ImprovementMessage(&rep))
}

type mgmtFlags struct {
	clear       bool
	reports     bool
	report      string
	weekly      bool
	recordings  bool
	forget      string
	record      int
	file        string
	name        string
	duration    time.Duration
	cooldown    int
	sensitivity float64
}

// runManagement handles the one-shot flags that operate on settings or
// history and exit without listening. Returns true when one ran.
func runManagement(loader *config.Loader, st *store.Store, f mgmtFlags) bool {
	switch {
	case f.clear:
		if err := st.ClearAll(); err != nil {
			fatalf("clearing data: %v", err)
		}
		fmt.Println("All reports and recordings deleted.")

	case f.reports:
		reports, err := st.Reports()
		if err != nil {
			fatalf("listing reports: %v", err)
		}
		if len(reports) == 0 {
			fmt.Println("No reports yet.")
			return true
		}
		for _, r := range reports {
			fmt.Printf("%s  %s  %8s  %3d barks  %3d sounds\n",
				r.ID, r.GeneratedAt.Format("2006-01-02 15:04"),
				report.FormatDuration(r.DurationSeconds), r.TotalBarks, r.SoundsPlayed)
		}

	case f.report != "":
		r, err := st.ReportByID(f.report)
		if err != nil {
			fatalf("loading report: %v", err)
		}
		if r == nil {
			fatalf("no report with id %s", f.report)
		}
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fatalf("encoding report: %v", err)
		}
		fmt.Println(string(out))
		fmt.Println(report.ImprovementMessage(r))

	case f.weekly:
		reports, err := st.Reports()
		if err != nil {
			fatalf("listing reports: %v", err)
		}
		w := report.Weekly(reports, time.Now())
		fmt.Printf("Last 7 days: %d sessions, %d barks, avg %d barks/session\n",
			w.SessionCount, w.TotalBarks, w.AvgPerSession)

	case f.recordings:
		recs, err := st.Recordings()
		if err != nil {
			fatalf("listing recordings: %v", err)
		}
		if len(recs) == 0 {
			fmt.Println("No calming sounds registered. Use -record <level> -file <path>.")
			return true
		}
		for _, r := range recs {
			fmt.Printf("%s  level %d  %-20s  %s  (%s)\n",
				r.ID, r.Level, r.Name, r.Path, r.Duration.Round(time.Millisecond))
		}

	case f.forget != "":
		if err := st.DeleteRecording(f.forget); err != nil {
			fatalf("removing recording: %v", err)
		}
		fmt.Println("Recording removed.")

	case f.record > 0:
		registerRecording(st, loader, f.record, f.file, f.name, f.duration)

	case f.cooldown > 0:
		longest, err := st.LongestRecording()
		if err != nil {
			fatalf("checking recordings: %v", err)
		}
		s := loader.Settings()
		if err := s.SetCooldown(f.cooldown, longest); err != nil {
			fatalf("%v", err)
		}
		if err := loader.Save(s); err != nil {
			fatalf("saving settings: %v", err)
		}
		fmt.Printf("Cooldown set to %ds.\n", f.cooldown)

	case f.sensitivity > 0:
		s := loader.Settings()
		if err := s.SetSensitivity(f.sensitivity); err != nil {
			fatalf("%v", err)
		}
		if err := loader.Save(s); err != nil {
			fatalf("saving settings: %v", err)
		}
		fmt.Printf("Sensitivity set to %.2f.\n", f.sensitivity)

	default:
		return false
	}
	return true
}

func registerRecording(st *store.Store, loader *config.Loader, level int, file, name string, captureDur time.Duration) {
	settings := loader.Settings()
	if level > len(settings.Thresholds) {
		fatalf("level %d has no threshold (have %d)", level, len(settings.Thresholds))
	}
	if file == "" {
		var err error
		file, err = captureCalmingSound(level, captureDur)
		if err != nil {
			if errors.Is(err, audio.ErrPermissionDenied) {
				fatalf("microphone access denied. Grant microphone permission and try again.")
			}
			fatalf("recording: %v", err)
		}
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		fatalf("resolving path: %v", err)
	}
	duration, err := playback.FileDuration(abs)
	if err != nil {
		fatalf("reading recording: %v", err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	// Re-registering a level replaces its sound, keeping the id stable.
	id := uuid.NewString()
	if existing, err := st.RecordingByLevel(level); err == nil && existing != nil {
		id = existing.ID
	}
	if err := st.SaveRecording(detect.Recording{
		ID: id, Name: name, Path: abs, Level: level, Duration: duration,
	}); err != nil {
		fatalf("saving recording: %v", err)
	}
	fmt.Printf("Registered %q (%s) for level %d.\n", name, duration.Round(time.Millisecond), level)

	if cd := time.Duration(settings.CooldownSeconds) * time.Second; duration >= cd {
		fmt.Printf("Note: recording is longer than the %ds cooldown; raise it with -cooldown.\n",
			settings.CooldownSeconds)
	}
}
