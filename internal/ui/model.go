// Package ui renders the chat conversation in the terminal.
//
// The scroll policy itself lives in chat.ScrollTracker; this package only
// measures the viewport, feeds the tracker, and applies its decisions.
package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/oron-mozes/creo-sub001/internal/chat"
	"github.com/oron-mozes/creo-sub001/internal/realtime"
)

// nearBottomLines is the near-bottom threshold in viewport lines. The
// browser client uses 120px; a terminal row is the unit here.
const nearBottomLines = 4

// RefreshMsg asks the model to re-read the controller state.
// The session bootstrap sends it from the controller's OnUpdate callback.
type RefreshMsg struct{}

const (
	headerHeight = 1
	bannerHeight = 1
	inputHeight  = 3
	helpHeight   = 1
)

// Model is the bubbletea model for the chat view.
type Model struct {
	controller *chat.Controller
	transport  *realtime.Transport
	tracker    *chat.ScrollTracker
	logger     *slog.Logger

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model

	title        string
	width        int
	height       int
	ready        bool
	lastCount    int
	lastFragLen  int
	hadFragment  bool
}

// NewModel creates the chat view model.
func NewModel(controller *chat.Controller, transport *realtime.Transport, title string, logger *slog.Logger) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message… (enter to send, ctrl+c to quit)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight - 1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tracker := chat.NewScrollTracker()
	tracker.SetThreshold(nearBottomLines)

	return Model{
		controller: controller,
		transport:  transport,
		tracker:    tracker,
		logger:     logger,
		input:      ta,
		spin:       sp,
		title:      title,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - headerHeight - bannerHeight - inputHeight - helpHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.SetWidth(msg.Width - 2)
		m.refreshContent()
		m.observeScroll()

	case RefreshMsg:
		m.applyContentUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.observeScroll()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.controller.Submit(text)
				m.input.Reset()
			}
			return m, tea.Batch(cmds...)

		case "ctrl+n":
			// The unread banner shortcut. Terminals have no smooth
			// scrolling, so ScrollSmooth degrades to a jump.
			if d := m.tracker.AcknowledgeUnread(); d != chat.ScrollNone {
				m.viewport.GotoBottom()
				m.observeScroll()
			}
			return m, tea.Batch(cmds...)

		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
			m.observeScroll()
			return m, tea.Batch(cmds...)
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applyContentUpdate reconciles new controller state with the viewport.
// The decision must be taken before the viewport is re-measured: the
// tracker's near-bottom flag still reflects the pre-update geometry.
func (m *Model) applyContentUpdate() {
	if !m.ready {
		return
	}

	msgs := m.controller.Messages()
	frag, hasFrag := m.controller.Fragment()

	newMessages := len(msgs) - m.lastCount
	if newMessages < 0 {
		newMessages = 0
	}
	fragGrew := hasFrag && (!m.hadFragment || len(frag.AccumulatedText) > m.lastFragLen)

	m.lastCount = len(msgs)
	m.hadFragment = hasFrag
	if hasFrag {
		m.lastFragLen = len(frag.AccumulatedText)
	} else {
		m.lastFragLen = 0
	}

	decision := chat.ScrollNone
	if newMessages > 0 || fragGrew {
		decision = m.tracker.ContentChanged(newMessages)
	}

	m.refreshContent()
	if decision == chat.ScrollSnap || decision == chat.ScrollSmooth {
		m.viewport.GotoBottom()
	}
	m.observeScroll()
}

// observeScroll feeds the current viewport geometry to the tracker.
func (m *Model) observeScroll() {
	if !m.ready {
		return
	}
	m.tracker.ObserveScroll(m.viewport.TotalLineCount(), m.viewport.YOffset, m.viewport.Height)
}

func (m *Model) refreshContent() {
	m.viewport.SetContent(m.renderConversation())
}
