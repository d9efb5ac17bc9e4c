// Package tui is the operator screen: it turns keyboard-wedge scanner input
// into station events and renders the station state.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/icmprog/internal/app"
	"github.com/bft-labs/icmprog/internal/scanner"
)

// Controller is the part of the station the screen drives.
type Controller interface {
	Submit(scan string) bool
	Arm() bool
	Snapshot() app.Snapshot
}

type snapshotMsg app.Snapshot

type reloadResultMsg struct{ err error }

// Model is the bubbletea model for the operator screen.
type Model struct {
	ctl     Controller
	updates <-chan app.Snapshot
	reload  func() error
	styles  Styles

	buf      scanner.Buffer
	snap     app.Snapshot
	input    string
	width    int
	quitting bool
}

// NewModel creates the operator screen. reload may be nil when the catalog
// cannot be reloaded.
func NewModel(ctl Controller, updates <-chan app.Snapshot, reload func() error) *Model {
	return &Model{
		ctl:     ctl,
		updates: updates,
		reload:  reload,
		styles:  DefaultStyles,
		snap:    ctl.Snapshot(),
	}
}

// Run starts the operator screen and blocks until the operator quits.
func Run(ctl Controller, updates <-chan app.Snapshot, reload func() error) error {
	program := tea.NewProgram(NewModel(ctl, updates, reload), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		if s := app.Snapshot(msg); s.Seq >= m.snap.Seq {
			m.snap = s
		}
		return m, m.waitForSnapshot()

	case reloadResultMsg:
		if msg.err != nil {
			m.input = "Catalog reload failed: " + msg.err.Error()
		} else {
			m.input = "Catalog reload requested."
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyF2, tea.KeyTab:
		m.ctl.Arm()
		return m, nil

	case tea.KeyCtrlR:
		if m.reload == nil {
			return m, nil
		}
		reload := m.reload
		return m, func() tea.Msg { return reloadResultMsg{err: reload()} }

	case tea.KeyEnter:
		scan := m.buf.Terminate()
		switch {
		case scan == "":
			m.input = ""
		case m.ctl.Submit(scan):
			m.input = ""
		default:
			m.input = fmt.Sprintf("Unrecognized barcode %s", scan)
		}
		return m, nil

	case tea.KeyBackspace:
		s := m.buf.String()
		m.buf.Reset()
		if len(s) > 0 {
			m.buf.FeedString(s[:len(s)-1])
		}
		return m, nil

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.buf.Feed(r)
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.styles
	s := m.snap

	var b strings.Builder
	b.WriteString(st.Title.Render("ICM325A Programmer"))
	b.WriteString(st.Dim.Render("catalog: " + s.CatalogSource))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(st.Label.Render(label))
		b.WriteString(st.Value.Render(value))
		b.WriteString("\n")
	}
	if s.HasProfile {
		row("Model", s.Profile.Model)
		row("Probe", s.Profile.Probe.String())
		row("Set point", s.Profile.SetPointDisplay())
		row("Hard start", s.Profile.HardStartDisplay())
		row("Minimum output", s.Profile.MinimumOutputDisplay())
	} else {
		row("Model", "-")
		row("Models", strings.Join(s.Models, " "))
	}
	if s.UnitID != "" {
		row("Unit", s.UnitID)
	}
	row("State", s.State.String())
	if s.Deferred {
		row("Catalog", "reload pending")
	}

	status := s.Notice.Status
	if status == "" {
		status = app.StatusIdle
	}
	msgStyle, ok := st.Message[s.Notice.Level]
	if !ok {
		msgStyle = st.Message[app.LevelInfo]
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		b.String(),
		st.Badge(status),
		"",
		msgStyle.Render(s.Notice.Message),
	)

	var out strings.Builder
	out.WriteString(st.Panel.Render(body))
	out.WriteString("\n")
	out.WriteString(st.Input.Render("> " + m.buf.String()))
	if m.input != "" {
		out.WriteString("  " + st.Dim.Render(m.input))
	}
	out.WriteString("\n")
	out.WriteString(st.Footer.Render("F2/Tab program  ctrl+r reload catalog  esc quit"))
	return out.String()
}
