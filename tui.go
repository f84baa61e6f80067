package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"barkd/audio"
	"barkd/detect"
)

// TUI message types
type ListeningMsg struct{ On bool }
type LevelMsg struct {
	Level int
	DB    float64
}
type CooldownMsg struct{ Remaining float64 }
type BarkMsg struct{ Event detect.BarkEvent }
type DeviceLineMsg struct{ Text string }   // microphone device name
type SettingsLineMsg struct{ Text string } // thresholds/cooldown/sensitivity summary
type tickMsg time.Time

const (
	meterWidth   = 40
	meterFloorDB = -60.0
	maxRecent    = 8
)

type barkLine struct {
	when   time.Time
	level  int
	db     float64
	played bool
}

type tuiModel struct {
	listening     bool
	frame         int
	db            float64 // smoothed display level
	level         int
	cooldown      float64
	barkCount     int
	soundsPlayed  int
	recent        []barkLine
	deviceLine    string
	settingsLine  string
	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	styleListen   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleStandby  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleMeterLo  = lipgloss.NewStyle().Foreground(lipgloss.Color("28"))
	styleMeterMid = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleMeterHi  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleMeterOff = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleCooldown = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleReady    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleHelp     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleBark     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleBigBark  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func NewTUIProgram() *tea.Program {
	m := tuiModel{db: audio.FloorDB}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case ListeningMsg:
		m.listening = msg.On
		if !msg.On {
			m.db = audio.FloorDB
			m.level = 0
			m.cooldown = 0
		}

	case LevelMsg:
		// Attack fast, release slow. Keeps single loud ticks visible.
		if msg.DB > m.db {
			m.db = msg.DB
		} else {
			m.db = m.db*0.7 + msg.DB*0.3
		}
		m.level = msg.Level

	case CooldownMsg:
		m.cooldown = msg.Remaining

	case BarkMsg:
		m.barkCount++
		if msg.Event.SoundPlayed {
			m.soundsPlayed++
		}
		line := barkLine{
			when:   msg.Event.Time,
			level:  msg.Event.Level,
			db:     msg.Event.LevelDB,
			played: msg.Event.SoundPlayed,
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case SettingsLineMsg:
		m.settingsLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(styleTitle.Render("barkd") + styleDim.Render("  bark monitor") + "\n\n")

	if m.listening {
		dot := "●"
		if m.frame%10 < 5 {
			dot = "○"
		}
		b.WriteString(styleListen.Render(dot+" LISTENING") + "\n")
	} else {
		b.WriteString(styleStandby.Render("○ STANDBY") + "\n")
	}

	b.WriteString(renderMeter(m.db, m.level, m.listening) + "\n")

	if m.cooldown > 0 {
		b.WriteString(styleCooldown.Render(fmt.Sprintf("cooldown  %4.1fs until next response", m.cooldown)) + "\n")
	} else if m.listening {
		b.WriteString(styleReady.Render("response  ready") + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("barks: %d   sounds played: %d", m.barkCount, m.soundsPlayed)) + "\n")
	if m.settingsLine != "" {
		b.WriteString(styleDim.Render(m.settingsLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(styleDim.Render(m.deviceLine) + "\n")
	}

	b.WriteString("\n")
	if len(m.recent) == 0 {
		b.WriteString(styleDim.Render("No barks yet. Good dog.") + "\n")
	} else {
		for i := len(m.recent) - 1; i >= 0; i-- {
			l := m.recent[i]
			style := styleBark
			if l.level > 1 {
				style = styleBigBark
			}
			suffix := ""
			if l.played {
				suffix = "  ♪"
			}
			b.WriteString(style.Render(fmt.Sprintf("%s  level %d  %6.1f dB%s",
				l.when.Format("15:04:05"), l.level, l.db, suffix)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("q or Ctrl+C to stop and generate report") + "\n")
	b.WriteString(styleHelp.Render("barkd "+version) + "\n")

	return b.String()
}

// renderMeter draws the live level bar. The bar spans meterFloorDB..0;
// segments past the gentle tier render yellow, past the big tier red.
// Tier positions are approximated from the current classification since
// the view does not hold the threshold table.
func renderMeter(db float64, level int, listening bool) string {
	filled := 0
	if listening && db > meterFloorDB {
		frac := (db - meterFloorDB) / -meterFloorDB
		if frac > 1 {
			frac = 1
		}
		filled = int(frac * meterWidth)
	}

	var bar strings.Builder
	for i := 0; i < meterWidth; i++ {
		if i >= filled {
			bar.WriteString(styleMeterOff.Render("░"))
			continue
		}
		switch {
		case level >= 2:
			bar.WriteString(styleMeterHi.Render("█"))
		case level == 1:
			bar.WriteString(styleMeterMid.Render("█"))
		default:
			bar.WriteString(styleMeterLo.Render("█"))
		}
	}

	label := fmt.Sprintf(" %6.1f dB", db)
	if !listening || db <= meterFloorDB {
		label = "    —"
	}
	return bar.String() + styleDim.Render(label)
}
