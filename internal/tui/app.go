package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/kinorelay/internal/tui/styles"
)

const (
	noticeDuration = 3 * time.Second
	errorDuration  = 5 * time.Second
)

// selection receives the location the user entered and resolves its item
type selection interface {
	Set(location string)
	CurrentItemID() string
}

// Model is the relay's UI: a location input acting as the page, a play
// button as the user action source, and a status line as the notification widget.
type Model struct {
	input     textinput.Model
	selection selection
	player    player
	keys      KeyMap
	help      help.Model
	server    string

	StatusMsg     string
	StatusIsErr   bool
	statusSeq     int
	InFlight      int
	SpinnerFrame  int
	spinnerActive bool

	width int
}

// NewModel creates the UI model. server is shown in the header only.
func NewModel(sel selection, p player, server string) Model {
	ti := textinput.New()
	ti.Placeholder = "https://app.plex.tv/desktop/#!/server/…/details?key=%2Flibrary%2Fmetadata%2F42"
	ti.Prompt = ""
	ti.CharLimit = 2048
	ti.Focus()

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		input:     ti,
		selection: sel,
		player:    p,
		keys:      DefaultKeyMap(),
		help:      h,
		server:    server,
		width:     80,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.input.Reset()
			return m, nil
		case key.Matches(msg, m.keys.Play):
			return m.play()
		}

	case StatusMsg:
		m.statusSeq++
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		delay := noticeDuration
		if msg.IsError {
			delay = errorDuration
		}
		return m, ClearStatusCmd(m.statusSeq, delay)

	case ClearStatusMsg:
		// a newer status replaced the one this timer was for
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case PlayFinishedMsg:
		m.InFlight--
		return m, nil

	case TickMsg:
		if m.InFlight == 0 {
			m.spinnerActive = false
			return m, nil
		}
		m.SpinnerFrame++
		return m, TickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// play is the button press: publish the entered location and resolve its
// item here, on the update loop, then start a flow for that item. Presses
// are not serialized; each one runs its own flow.
func (m Model) play() (tea.Model, tea.Cmd) {
	m.selection.Set(m.input.Value())
	itemID := m.selection.CurrentItemID()
	m.InFlight++

	cmds := []tea.Cmd{PlayCmd(m.player, itemID)}
	if !m.spinnerActive {
		m.spinnerActive = true
		cmds = append(cmds, TickCmd())
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("kinorelay"))
	if m.server != "" {
		b.WriteString(styles.DimStyle.Render("  ·  " + m.server))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.SubtitleStyle.Render("Plex item URL or ID"))
	b.WriteString("\n")
	b.WriteString(styles.InputStyle.Width(max(m.width-4, 20)).Render(m.input.View()))
	b.WriteString("\n")

	button := styles.ButtonStyle.Render("▶ Play externally")
	if m.InFlight > 0 {
		spinner := styles.SpinnerStyle.Render(styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)])
		button = lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonBusyStyle.Render("▶ Play externally"),
			"  ", spinner, " ",
			styles.DimStyle.Render(pluralRequests(m.InFlight)),
		)
	}
	b.WriteString(button)
	b.WriteString("\n\n")

	if m.StatusMsg != "" {
		if m.StatusIsErr {
			b.WriteString(styles.ErrorStyle.Render(styles.ErrorChar + " " + m.StatusMsg))
		} else {
			b.WriteString(styles.SuccessStyle.Render(styles.NoticeChar + " " + m.StatusMsg))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func pluralRequests(n int) string {
	if n == 1 {
		return "1 request in flight"
	}
	return fmt.Sprintf("%d requests in flight", n)
}
