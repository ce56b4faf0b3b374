package main

import (
	"fmt"
	"strings"

	orchestration "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7559FF"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7559FF")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("245"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7559FF"))
	partialStyle = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7559FF")).Padding(0, 1)
)

func (m model) View() string {
	sections := []string{m.headerView()}

	switch m.state {
	case orchestration.StateInactive:
		sections = append(sections, panelStyle.Render(m.configView()))
	case orchestration.StateConnecting:
		sections = append(sections, fmt.Sprintf("%s Connecting to %s...", m.spinner.View(), avatarLabel(m.session.Config().AvatarName)))
	case orchestration.StateConnected:
		sections = append(sections, m.streamView(), panelStyle.Render(m.transcript.View()), m.input.View())
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render("Error: "+m.err.Error()))
	}
	sections = append(sections, m.help.ShortHelpView(m.bindings()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) headerView() string {
	status := "Session " + m.state.String()
	if m.voiceChat != orchestration.VoiceChatOff {
		status += " · voice chat " + m.voiceChat.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("Interactive Avatar"), " ", mutedStyle.Render(status))
}

func (m model) configView() string {
	config := m.session.Config()
	mode := "text"
	if m.voiceMode {
		mode = "voice"
	}

	rows := []struct {
		field field
		label string
		value string
	}{
		{fieldAvatar, "Avatar", avatarLabel(config.AvatarName)},
		{fieldLanguage, "Language", config.Language},
		{fieldQuality, "Quality", string(config.Quality)},
		{fieldEmotion, "Emotion", string(config.Voice.Emotion)},
		{fieldTransport, "Transport", string(config.VoiceChatTransport)},
		{fieldKnowledgeID, "Knowledge ID", m.knowledgeID.View()},
		{fieldMode, "Chat mode", mode},
	}

	var b strings.Builder
	for _, row := range rows {
		marker := "  "
		value := row.value
		if row.field == m.focus {
			marker = focusStyle.Render("› ")
			if row.field != fieldKnowledgeID {
				value = focusStyle.Render("‹ " + value + " ›")
			}
		}
		b.WriteString(marker + labelStyle.Render(row.label) + value + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) streamView() string {
	stream := m.session.MediaStream()
	if stream == nil {
		return mutedStyle.Render("Waiting for media stream")
	}
	return mutedStyle.Render(fmt.Sprintf("Session %s · media %s", stream.SessionID, stream.URL))
}

func (m model) bindings() []key.Binding {
	switch m.state {
	case orchestration.StateInactive:
		return []key.Binding{m.keys.Next, m.keys.Left, m.keys.Right, m.keys.Start, m.keys.Quit}
	case orchestration.StateConnecting:
		return []key.Binding{m.keys.Stop, m.keys.Quit}
	}
	return []key.Binding{m.keys.Send, m.keys.Interrupt, m.keys.Stop, m.keys.Quit}
}
