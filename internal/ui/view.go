package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oron-mozes/creo-sub001/internal/chat"
	"github.com/oron-mozes/creo-sub001/internal/realtime"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Faint(true)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	systemLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))

	thinkingStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	emptyStyle    = lipgloss.NewStyle().Faint(true).Italic(true)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · pgup/pgdn scroll · ctrl+n jump to new · ctrl+c quit"))
	return b.String()
}

func (m Model) renderHeader() string {
	state := m.transport.State()
	status := state.String()
	if state == realtime.StateConnected {
		status = "● " + status
	} else {
		status = "○ " + status
	}
	title := headerStyle.Render(m.title)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + statusStyle.Render(status)
}

// renderBanner shows the unread count while the user is scrolled up.
func (m Model) renderBanner() string {
	if !m.tracker.BannerVisible() {
		return ""
	}
	n := m.tracker.UnreadCount()
	label := "message"
	if n != 1 {
		label = "messages"
	}
	return bannerStyle.Render(fmt.Sprintf("↓ %d new %s (ctrl+n to jump)", n, label))
}

// renderConversation renders the canonical messages plus the streaming
// fragment into the viewport content.
func (m Model) renderConversation() string {
	msgs := m.controller.Messages()
	frag, hasFrag := m.controller.Fragment()

	if len(msgs) == 0 && !hasFrag {
		return emptyStyle.Render("No messages yet. Say hello to get started.")
	}

	width := m.viewport.Width
	if width < 10 {
		width = 10
	}
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderLabel(msg.Role))
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Content))
		b.WriteString("\n")
	}

	if hasFrag {
		if len(msgs) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderLabel(chat.RoleAssistant))
		b.WriteString("\n")
		if frag.IsThinking {
			// Thinking indicator and streamed text are mutually exclusive.
			b.WriteString(m.spin.View())
			b.WriteString(thinkingStyle.Render(" thinking…"))
		} else {
			b.WriteString(body.Render(frag.AccumulatedText))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func renderLabel(role chat.Role) string {
	switch role {
	case chat.RoleUser:
		return userLabelStyle.Render("you")
	case chat.RoleAssistant:
		return assistantLabelStyle.Render("creo")
	default:
		return systemLabelStyle.Render("system")
	}
}
