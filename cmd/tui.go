// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/pipeline"
	"github.com/Thermoquad/thermoview/pkg/render"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the live false-color image in the terminal",
	Long: `Stream frames from the module and draw them in the terminal.

Each pixel is drawn as a colored cell, so a terminal with true color support
and at least 70 columns is recommended. Frame statistics and anomalies are
shown next to the image.

Logs are written to files (see --log_dir) while the terminal UI is running.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Key bindings
type keyMap struct {
	Snapshot key.Binding
	Mirror   key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Snapshot, k.Mirror, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Snapshot: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save snapshot")),
	Mirror:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle mirror")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	view  *pipeline.View
	stats mcu90640.Statistics
}
type snapshotMsg struct {
	path string
}
type streamDoneMsg struct {
	err error
}

// teaDisplay forwards frames to a running program and reads keys the
// model queued for the acquisition loop
type teaDisplay struct {
	program *tea.Program
	keys    chan rune
}

func (d *teaDisplay) Render(v *pipeline.View) error {
	d.program.Send(frameMsg{view: v, stats: *v.Stats})
	return nil
}

func (d *teaDisplay) PollKey() (rune, bool) {
	select {
	case k := <-d.keys:
		return k, true
	default:
		return 0, false
	}
}

func (d *teaDisplay) Close() error {
	return nil
}

// ObserveSnapshot implements pipeline.SnapshotObserver
func (d *teaDisplay) ObserveSnapshot(path string, jpeg []byte, v *pipeline.View) error {
	d.program.Send(snapshotMsg{path: path})
	return nil
}

// TUI model
type thermalModel struct {
	connInfo      string
	mirror        bool
	showImage     bool
	showAll       bool
	keys          keyMap
	help          help.Model
	loopKeys      chan<- rune
	last          *pipeline.View
	stats         mcu90640.Statistics
	eventLog      []eventLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
	err           error
}

func newThermalModel(connInfo string, mirror bool, loopKeys chan<- rune) thermalModel {
	return thermalModel{
		connInfo:      connInfo,
		mirror:        mirror,
		showImage:     true,
		keys:          defaultKeys,
		help:          help.New(),
		loopKeys:      loopKeys,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m thermalModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m thermalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Snapshot):
			select {
			case m.loopKeys <- pipeline.KeySnapshot:
			default:
			}
		case key.Matches(msg, m.keys.Mirror):
			// Snapshots are composed by the loop, so it flips too
			select {
			case m.loopKeys <- pipeline.KeyMirror:
				m.mirror = !m.mirror
			default:
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		return m, tickCmd()

	case frameMsg:
		m.last = msg.view
		m.stats = msg.stats
		for _, a := range msg.view.Anomalies {
			m.addLogEntry(fmt.Sprintf("frame %d: %s", msg.view.Sequence, a.Message), true)
		}
		if m.showAll && len(msg.view.Anomalies) == 0 {
			f := msg.view.Frame
			m.addLogEntry(fmt.Sprintf("frame %d (valid) %+.1f..%+.1f°C", msg.view.Sequence, f.MinC(), f.MaxC()), false)
		}

	case snapshotMsg:
		m.addLogEntry("Saved "+msg.path, false)

	case streamDoneMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *thermalModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m thermalModel) View() string {
	if m.quitting {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Stream failed: %v", m.err)) + "\n"
		}
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("THERMOVIEW"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(m.connInfo))
	s.WriteString("\n\n")

	if m.last == nil {
		s.WriteString(warningStyle.Render("⏳ Waiting for first frame..."))
		s.WriteString("\n\n")
		s.WriteString(m.help.View(m.keys))
		return s.String()
	}

	side := lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(m.frameSummary()),
		boxStyle.Render(statsSummary(&m.stats)),
	)
	reserved := 16
	if m.showImage {
		image := render.Terminal(m.last.Gray, m.mirror) + "\n" + render.Legend(mcu90640.Cols*len(render.Cell))
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, image, "  ", side))
		reserved = mcu90640.Rows + 10
	} else {
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(m.frameSummary()), " ", boxStyle.Render(statsSummary(&m.stats))))
	}
	s.WriteString("\n\n")

	// Event log fills what is left
	logHeight := m.height - reserved
	if logHeight < 3 {
		logHeight = 3
	}
	s.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(m.recentEvents(logHeight)))
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m thermalModel) frameSummary() string {
	f := m.last.Frame
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Frame:  "), statsValueStyle.Render(fmt.Sprintf("%d", m.last.Sequence)))
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Ambient:"), statsValueStyle.Render(fmt.Sprintf("%+.1f°C", f.Ambient)))
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Min:    "), statsValueStyle.Render(fmt.Sprintf("%+.1f°C", f.MinC())))
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Max:    "), statsValueStyle.Render(fmt.Sprintf("%+.1f°C", f.MaxC())))
	fmt.Fprintf(&b, "%s %s", statsLabelStyle.Render("FPS:    "), statsValueStyle.Render(fmt.Sprintf("%.2f", m.last.FPS)))
	return b.String()
}

// statsSummary renders frame counters with the TUI styles
func statsSummary(stats *mcu90640.Statistics) string {
	stats.CalculateRates()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Total:    "), statsValueStyle.Render(fmt.Sprintf("%d", stats.TotalFrames)))
	fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Valid:    "), statsValueStyle.Render(fmt.Sprintf("%d", stats.ValidFrames)))
	if stats.MalformedFrames > 0 {
		fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", stats.MalformedFrames)))
	}
	if stats.AnomalousFrames > 0 {
		fmt.Fprintf(&b, "%s %s\n", statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", stats.AnomalousFrames)))
	}
	fmt.Fprintf(&b, "%s %s", statsLabelStyle.Render("Rate:     "), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", stats.FrameRate)))
	return b.String()
}

func (m thermalModel) recentEvents(height int) string {
	if len(m.eventLog) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	start := len(m.eventLog) - height
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for i := start; i < len(m.eventLog); i++ {
		entry := m.eventLog[i]
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			fmt.Fprintf(&b, "%s %s\n", timestamp, errorStyle.Render("✗ "+entry.message))
		} else {
			fmt.Fprintf(&b, "%s %s\n", timestamp, warningStyle.Render("ℹ "+entry.message))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Keep glog off the alternate screen
	flag.Set("logtostderr", "false")

	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	loopKeys := make(chan rune, 4)
	program := tea.NewProgram(newThermalModel(connInfo, mirror, loopKeys))

	display := &teaDisplay{program: program, keys: loopKeys}
	p := pipeline.New(t, display, pipeline.Config{
		Mirror:    mirror,
		OutputDir: outputDir,
		Settle:    mcu90640.SettleDelay,
	})
	p.AddSnapshotObserver(display)

	return runWithProgram(program, p)
}

// runWithProgram runs the acquisition loop behind a bubbletea program.
// Quitting the program cancels the loop; the loop ending quits the program.
func runWithProgram(program *tea.Program, p *pipeline.Pipeline) error {
	closePublisher, err := attachPublisher(p)
	if err != nil {
		return err
	}
	defer closePublisher()

	ctx, stop := signalContext(context.Background())
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		err       error
		cancelled bool
	}
	done := make(chan result, 1)
	go func() {
		err := p.Run(ctx)
		res := result{err: err, cancelled: ctx.Err() != nil}
		if !res.cancelled {
			program.Send(streamDoneMsg{err: err})
		}
		done <- res
	}()

	_, runErr := program.Run()
	cancel()
	res := <-done

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return finishRun(res.cancelled, res.err)
}
