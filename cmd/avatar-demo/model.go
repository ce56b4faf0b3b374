package main

import (
	"context"
	"slices"
	"strings"

	orchestration "github.com/Odinzzz/InteractiveAvatarNextJSDemo/core"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/avatar"
	"github.com/Odinzzz/InteractiveAvatarNextJSDemo/core/transcript"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

// sessionController is the part of the orchestrator the UI drives.
type sessionController interface {
	Start(ctx context.Context, voiceMode bool) error
	Stop(ctx context.Context) error
	SendMessage(ctx context.Context, text string) error
	Interrupt(ctx context.Context) error
	Config() avatar.Config
	UpdateConfig(opts ...avatar.Option) error
	MediaStream() *avatar.MediaStream
	Messages() []transcript.Message
}

type stateMsg struct{ state orchestration.SessionState }

type voiceChatMsg struct{ state orchestration.VoiceChatState }

type transcriptMsg struct{ entry transcript.Entry }

type errMsg struct{ err error }

type startDoneMsg struct{ err error }

type actionDoneMsg struct{ err error }

type field int

const (
	fieldAvatar field = iota
	fieldLanguage
	fieldQuality
	fieldEmotion
	fieldTransport
	fieldKnowledgeID
	fieldMode
	fieldCount
)

var (
	qualities  = []avatar.Quality{avatar.QualityLow, avatar.QualityMedium, avatar.QualityHigh}
	transports = []avatar.Transport{avatar.TransportWebsocket, avatar.TransportLiveKit}
	emotions   = []avatar.VoiceEmotion{
		avatar.VoiceEmotionExcited,
		avatar.VoiceEmotionSerious,
		avatar.VoiceEmotionFriendly,
		avatar.VoiceEmotionSoothing,
		avatar.VoiceEmotionBroadcaster,
	}
)

type model struct {
	ctx     context.Context
	session sessionController
	keys    keyMap

	state     orchestration.SessionState
	voiceChat orchestration.VoiceChatState
	voiceMode bool
	focus     field
	err       error

	knowledgeID textinput.Model
	input       textinput.Model
	spinner     spinner.Model
	transcript  viewport.Model
	help        help.Model
	width       int
}

func newModel(ctx context.Context, session sessionController, voiceMode bool) model {
	knowledgeID := textinput.New()
	knowledgeID.Placeholder = "inline knowledge base"
	knowledgeID.CharLimit = 128
	knowledgeID.SetValue(session.Config().KnowledgeID)

	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = 1000

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	return model{
		ctx:         ctx,
		session:     session,
		keys:        newKeyMap(),
		voiceMode:   voiceMode,
		knowledgeID: knowledgeID,
		input:       input,
		spinner:     s,
		transcript:  viewport.New(80, 12),
		help:        help.New(),
		width:       80,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.transcript.Width = max(msg.Width-4, 20)
		m.transcript.Height = max(msg.Height-14, 5)
		m.input.Width = max(msg.Width-6, 10)
		m.refreshTranscript()
		return m, nil

	case stateMsg:
		return m.setState(msg.state)

	case voiceChatMsg:
		m.voiceChat = msg.state
		return m, nil

	case transcriptMsg:
		m.refreshTranscript()
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case startDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != orchestration.StateConnecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) setState(state orchestration.SessionState) (tea.Model, tea.Cmd) {
	m.state = state
	switch state {
	case orchestration.StateConnecting:
		m.refreshTranscript()
		return m, m.spinner.Tick
	case orchestration.StateConnected:
		m.knowledgeID.Blur()
		cmd := m.input.Focus()
		return m, cmd
	default:
		m.input.Blur()
		m.input.Reset()
		m.voiceChat = orchestration.VoiceChatOff
		cmd := m.setFocus(m.focus)
		return m, cmd
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case orchestration.StateInactive:
		return m.handleConfigKey(msg)

	case orchestration.StateConnecting:
		if key.Matches(msg, m.keys.Stop) {
			return m, m.stopCmd()
		}

	case orchestration.StateConnected:
		switch {
		case key.Matches(msg, m.keys.Stop):
			return m, m.stopCmd()
		case key.Matches(msg, m.keys.Interrupt):
			return m, m.interruptCmd()
		case key.Matches(msg, m.keys.Send):
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.sendCmd(text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleConfigKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		cmd := m.setFocus((m.focus + 1) % fieldCount)
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		cmd := m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, cmd
	case key.Matches(msg, m.keys.Start):
		m.err = nil
		if err := m.applyKnowledgeID(); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.startCmd()
	}

	if m.focus == fieldKnowledgeID {
		var cmd tea.Cmd
		m.knowledgeID, cmd = m.knowledgeID.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.cycleField(-1)
	case key.Matches(msg, m.keys.Right):
		m.cycleField(1)
	}
	return m, nil
}

func (m *model) setFocus(f field) tea.Cmd {
	m.focus = f
	if f == fieldKnowledgeID && m.state == orchestration.StateInactive {
		return m.knowledgeID.Focus()
	}
	m.knowledgeID.Blur()
	return nil
}

func (m *model) cycleField(step int) {
	config := m.session.Config()

	var opt avatar.Option
	switch m.focus {
	case fieldAvatar:
		opt = avatar.WithAvatarName(cycle(avatarIDs(), config.AvatarName, step))
	case fieldLanguage:
		opt = avatar.WithLanguage(cycle(avatar.Languages, config.Language, step))
	case fieldQuality:
		opt = avatar.WithQuality(cycle(qualities, config.Quality, step))
	case fieldEmotion:
		opt = avatar.WithVoiceEmotion(cycle(emotions, config.Voice.Emotion, step))
	case fieldTransport:
		opt = avatar.WithTransport(cycle(transports, config.VoiceChatTransport, step))
	case fieldMode:
		m.voiceMode = !m.voiceMode
		return
	default:
		return
	}

	if err := m.session.UpdateConfig(opt); err != nil {
		m.err = err
	}
}

// applyKnowledgeID switches between a knowledge base id typed into the panel
// and the built-in inline knowledge base.
func (m *model) applyKnowledgeID() error {
	id := strings.TrimSpace(m.knowledgeID.Value())
	config := m.session.Config()
	switch {
	case id != "" && id != config.KnowledgeID:
		return m.session.UpdateConfig(avatar.WithKnowledgeID(id))
	case id == "" && config.KnowledgeID != "":
		return m.session.UpdateConfig(avatar.WithKnowledgeBase(avatar.DefaultKnowledgeBase))
	}
	return nil
}

func (m model) startCmd() tea.Cmd {
	ctx, session, voiceMode := m.ctx, m.session, m.voiceMode
	return func() tea.Msg {
		return startDoneMsg{err: session.Start(ctx, voiceMode)}
	}
}

func (m model) stopCmd() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return actionDoneMsg{err: session.Stop(ctx)}
	}
}

func (m model) sendCmd(text string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return actionDoneMsg{err: session.SendMessage(ctx, text)}
	}
}

func (m model) interruptCmd() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return actionDoneMsg{err: session.Interrupt(ctx)}
	}
}

func (m *model) refreshTranscript() {
	width := max(m.transcript.Width-2, 10)

	var b strings.Builder
	for _, message := range m.session.Messages() {
		label := "You"
		if message.Speaker == transcript.SpeakerAvatar {
			label = "Avatar"
		}
		line := wordwrap.String(label+": "+message.Text, width)
		if !message.Final {
			line = partialStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

func avatarIDs() []string {
	ids := make([]string, 0, len(avatar.Avatars))
	for _, entry := range avatar.Avatars {
		ids = append(ids, entry.ID)
	}
	return ids
}

func avatarLabel(id string) string {
	for _, entry := range avatar.Avatars {
		if entry.ID == id {
			return entry.Name
		}
	}
	return id
}

// cycle returns the value step positions away from current, wrapping around.
// Unknown values restart at the first entry.
func cycle[T comparable](values []T, current T, step int) T {
	idx := slices.Index(values, current)
	if idx < 0 {
		return values[0]
	}
	n := len(values)
	return values[((idx+step)%n+n)%n]
}
