// Package tui provides a Bubble Tea monitor for a running playback.
package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/project"
	"github.com/fakeyudi/blockrec/internal/recorder"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	cancelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160")).
			Background(lipgloss.Color("15")).
			Bold(true).
			Padding(0, 1)

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	kindStyles = map[event.Kind]lipgloss.Style{
		event.KindCreate: lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		event.KindDelete: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		event.KindMove:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		event.KindChange: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Messages ─────────────────

type progressMsg recorder.Progress

type overlayMsg struct {
	visible bool
	speed   int
}

type noticeMsg notice.Notice

type doneMsg struct{}

// batchMsg carries everything queued since the model last looked.
type batchMsg []tea.Msg

// ── Model ────────────────────

type row struct {
	ts     int64
	kind   event.Kind
	block  string
	detail string
	err    error
}

// Model is the root Bubble Tea model of the monitor.
type Model struct {
	printer  *notice.Printer
	title    string
	queue    *queue
	stop     func()
	total    int
	applied  int
	failed   int
	mapped   int
	speed    int
	playing  bool
	stopped  bool
	notice   string
	rows     []row
	bar      progress.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func newModel(p *notice.Printer, title string, total int, q *queue, stop func()) Model {
	return Model{
		printer: p,
		title:   title,
		total:   total,
		queue:   q,
		stop:    stop,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return m.queue.wait() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case batchMsg:
		for _, inner := range msg {
			m.apply(inner)
		}
		if m.ready {
			m.viewport.SetContent(m.renderRows())
			m.viewport.GotoBottom()
		}
		if m.stopped {
			return m, tea.Quit
		}
		return m, m.queue.wait()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.stop != nil {
				m.stop()
			}
			m.stopped = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-16, 10)
		// title, banner, progress and status rows are fixed.
		m.viewport = viewport.New(msg.Width, max(msg.Height-4, 1))
		m.viewport.SetContent(m.renderRows())
		m.viewport.GotoBottom()
		m.ready = true
		return m, nil
	}
	return m, nil
}

func (m *Model) apply(msg tea.Msg) {
	switch msg := msg.(type) {
	case progressMsg:
		m.applied = msg.Applied
		m.total = msg.Total
		m.mapped = msg.Mapped
		if msg.Err != nil {
			m.failed++
		}
		m.rows = append(m.rows, row{
			ts:     msg.Event.Timestamp,
			kind:   msg.Event.Kind(),
			block:  msg.Event.NodeID,
			detail: project.Describe(msg.Event),
			err:    msg.Err,
		})
	case overlayMsg:
		m.playing = msg.visible
		if msg.visible {
			m.speed = msg.speed
		}
	case noticeMsg:
		m.notice = m.printer.Text(msg.Key, msg.Args...)
	case doneMsg:
		m.playing = false
		m.stopped = true
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  blockrec  " + m.title)

	banner := dimStyle.Render("  " + m.notice)
	if m.playing {
		banner = bannerStyle.Render(m.printer.Text(notice.PlaybackBanner, m.speed)) + "  " +
			cancelStyle.Render("q "+m.printer.Text(notice.PlaybackCancel))
	}

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.applied) / float64(m.total)
	}
	bar := " " + m.bar.ViewAs(pct) + fmt.Sprintf("  %d/%d", m.applied, m.total)

	status := fmt.Sprintf("  mapped %d  failed %d  ↑/↓ scroll  q stop", m.mapped, m.failed)
	statusBar := statusBarStyle.Width(m.width).Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, title, banner, bar, m.viewport.View(), statusBar)
}

func (m *Model) renderRows() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("  (waiting for the first event)")
	}
	var sb strings.Builder
	for _, r := range m.rows {
		ts := timeStyle.Render(fmt.Sprintf("%9.3fs", float64(r.ts)/1000))
		style, ok := kindStyles[r.kind]
		if !ok {
			style = failStyle
		}
		badge := style.Render(fmt.Sprintf("  %-7s", strings.ToUpper(string(r.kind))))
		line := ts + badge + "  " + dimStyle.Render(r.block) + "  " + r.detail
		if r.err != nil {
			line += "  " + failStyle.Render(r.err.Error())
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// ── Queue ────────────────────

// queue hands messages from the recorder to the program without ever
// blocking the sender. The recorder calls the overlay while holding its lock.
type queue struct {
	mu      sync.Mutex
	pending []tea.Msg
	signal  chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

func (q *queue) push(msg tea.Msg) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *queue) wait() tea.Cmd {
	return func() tea.Msg {
		<-q.signal
		q.mu.Lock()
		defer q.mu.Unlock()
		msgs := q.pending
		q.pending = nil
		return batchMsg(msgs)
	}
}

// ── Monitor ────────────────────

// Monitor shows a playback run. It serves as the recorder's overlay,
// observer and notifier.
type Monitor struct {
	queue *queue
	model Model
}

// NewMonitor returns a monitor for a run of total events. stop is called
// when the user cancels.
func NewMonitor(p *notice.Printer, title string, total int, stop func()) *Monitor {
	q := newQueue()
	return &Monitor{queue: q, model: newModel(p, title, total, q, stop)}
}

var (
	_ recorder.Overlay = (*Monitor)(nil)
	_ notice.Notifier  = (*Monitor)(nil)
)

func (m *Monitor) Show(speed int) { m.queue.push(overlayMsg{visible: true, speed: speed}) }

func (m *Monitor) Hide() { m.queue.push(overlayMsg{}) }

// Observe is a recorder.Observer.
func (m *Monitor) Observe(p recorder.Progress) { m.queue.push(progressMsg(p)) }

func (m *Monitor) Notify(n notice.Notice) { m.queue.push(noticeMsg(n)) }

// Finish tells the monitor the run is over; the program then exits.
func (m *Monitor) Finish() { m.queue.push(doneMsg{}) }

// Run starts the TUI and blocks until the run finishes or the user cancels.
func (m *Monitor) Run(opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m.model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	_, err := p.Run()
	return err
}
