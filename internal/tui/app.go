package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/config"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/conversation"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/session"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/components"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/layout"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

// Version is shown in the header
const Version = "0.1.0"

const (
	headerHeight = 2
	statusHeight = 1
	editorHeight = 5
)

// Options configure the TUI
type Options struct {
	Manager *session.Manager

	// Session is the chat to show; nil starts on an empty new chat
	Session *session.Session

	Info           llm.Info
	MaxInputLength int
	Logger         *zap.Logger
}

// stateMsg carries a snapshot published by a session
type stateMsg struct {
	sess  *session.Session
	state chat.State
}

// updatesClosedMsg is sent when a session stops publishing
type updatesClosedMsg struct {
	sess *session.Session
}

// submitDoneMsg is sent when a turn has finished
type submitDoneMsg struct {
	sess     *session.Session
	accepted bool
	err      error
}

// sessionMsg carries a newly started or resumed session
type sessionMsg struct {
	sess *session.Session
	err  error
}

// Model is the main TUI model
type Model struct {
	manager *session.Manager
	session *session.Session
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	header      *components.Header
	user        *components.Pane
	assistant   *components.Pane
	editor      *components.Editor
	status      *components.Status
	dialog      *components.Dialog
	suggestions *components.Suggestions
	spinner     spinner.Model
	layout      *layout.SplitPane

	maxInput   int
	width      int
	height     int
	ready      bool
	generating bool
	focusLeft  bool
}

// New creates a new TUI model
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxInput := opts.MaxInputLength
	if maxInput <= 0 {
		maxInput = conversation.DefaultMaxInputLength
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	suggestions := components.NewSuggestions()
	if opts.Manager != nil {
		var names []string
		for _, t := range opts.Manager.Templates().List() {
			if !t.Disabled {
				names = append(names, t.Name)
			}
		}
		suggestions.AddTemplates(names)
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		manager:     opts.Manager,
		session:     opts.Session,
		logger:      logger.With(zap.String("component", "tui")),
		ctx:         ctx,
		cancel:      cancel,
		header:      components.NewHeader(80, Version, opts.Info.FullURL, opts.Info.Model),
		status:      components.NewStatus(80),
		dialog:      components.NewDialog(80),
		suggestions: suggestions,
		spinner:     sp,
		maxInput:    maxInput,
	}
	if opts.Session != nil {
		m.header.SetChat(opts.Session.Chat.Name, opts.Session.Chat.IsStarred)
		m.generating = opts.Session.Chat.InitialMessage != ""
	}
	return m
}

// Init subscribes to the open session and sends its initial message
func (m Model) Init() tea.Cmd {
	if m.session == nil {
		return nil
	}
	return tea.Batch(waitForUpdate(m.session), m.submitInitial(m.session), m.spinner.Tick)
}

// waitForUpdate reads the next snapshot of sess
func waitForUpdate(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-sess.Updates()
		if !ok {
			return updatesClosedMsg{sess: sess}
		}
		return stateMsg{sess: sess, state: state}
	}
}

func (m Model) submit(sess *session.Session, text string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ok, err := sess.Submit(ctx, text)
		return submitDoneMsg{sess: sess, accepted: ok, err: err}
	}
}

func (m Model) submitInitial(sess *session.Session) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ok, err := sess.SubmitInitial(ctx)
		return submitDoneMsg{sess: sess, accepted: ok, err: err}
	}
}

func (m Model) start(opts session.StartOptions) tea.Cmd {
	ctx := m.ctx
	manager := m.manager
	return func() tea.Msg {
		sess, err := manager.Start(ctx, opts)
		return sessionMsg{sess: sess, err: err}
	}
}

func (m Model) resume(id string) tea.Cmd {
	ctx := m.ctx
	manager := m.manager
	return func() tea.Msg {
		sess, err := manager.Resume(ctx, id)
		return sessionMsg{sess: sess, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.dialog.Visible() {
			m.dialog.Hide()
			return m, nil
		}

		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		// panes and editor exist only after the first WindowSizeMsg
		if !m.ready {
			return m, nil
		}

		switch msg.String() {

		case "esc":
			m.suggestions.Hide()
			return m, nil

		case "tab":
			if m.suggestions.IsVisible() {
				if selected := m.suggestions.Selected(); selected != "" {
					m.editor.SetValue(selected + " ")
					m.suggestions.Hide()
				}
				return m, nil
			}
			m.focusLeft = !m.focusLeft
			m.user.SetFocused(m.focusLeft)
			m.assistant.SetFocused(!m.focusLeft)
			return m, nil

		case "up":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveUp()
				return m, nil
			}

		case "down":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveDown()
				return m, nil
			}

		case "enter":
			input := m.editor.Value()
			if m.suggestions.IsVisible() && !strings.Contains(input, " ") {
				if selected := m.suggestions.Selected(); selected != "" {
					input = selected
				}
			}
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.editor.Reset()
				m.suggestions.Hide()
				return m.handleCommand(input)
			}
			if m.generating {
				return m, nil
			}
			if m.editor.OverLimit() {
				m.dialog.Show(tooLong(m.editor.Count(), m.maxInput))
				return m, nil
			}

			m.editor.Reset()
			m.suggestions.Hide()
			m.generating = true
			if m.session == nil {
				return m, tea.Batch(m.spinner.Tick, m.start(session.StartOptions{InitialMessage: input}))
			}
			return m, tea.Batch(m.spinner.Tick, m.submit(m.session, input))

		case "pgup", "pgdown":
			vp := m.focusedPane().Viewport()
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		if m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.status.SetSpinner(m.spinner.View())
			cmds = append(cmds, cmd)
		}

	case stateMsg:
		if msg.sess != m.session {
			return m, nil
		}
		m.showState(msg.state)
		return m, waitForUpdate(msg.sess)

	case updatesClosedMsg:
		return m, nil

	case submitDoneMsg:
		if msg.sess != m.session {
			return m, nil
		}
		m.generating = false
		m.showState(msg.sess.Snapshot())
		switch {
		case errors.Is(msg.err, conversation.ErrInputTooLong):
			m.dialog.Show(tooLong(-1, m.maxInput))
		case msg.err != nil:
			m.logger.Warn("turn failed", zap.String("chat_id", msg.sess.Chat.ID), zap.Error(msg.err))
		}

	case sessionMsg:
		if msg.err != nil {
			m.generating = false
			m.dialog.Show("**Could not open chat.**\n\n" + msg.err.Error())
			return m, nil
		}
		m.setSession(msg.sess)
		cmds := []tea.Cmd{waitForUpdate(msg.sess), m.submitInitial(msg.sess)}
		if msg.sess.Chat.InitialMessage != "" {
			m.generating = true
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)
	}

	if m.editor != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			cmds = append(cmds, cmd)
			m.suggestions.Filter(m.editor.Value())
		}
	}

	if m.ready {
		if _, ok := msg.(tea.MouseMsg); ok {
			vp := m.focusedPane().Viewport()
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) focusedPane() *components.Pane {
	if m.focusLeft {
		return m.user
	}
	return m.assistant
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	panesHeight := max(height-headerHeight-statusHeight-editorHeight-1, 3)

	if !m.ready {
		m.layout = layout.NewSplitPane(width, panesHeight)
		m.user = components.NewPane(chat.RoleUser, "Input", m.layout.LeftWidth(), panesHeight)
		m.user.SetEmpty("Your text appears here.")
		m.assistant = components.NewPane(chat.RoleAssistant, "IdeaBlocks", m.layout.RightWidth(), panesHeight)
		m.assistant.SetEmpty("Responses appear here as IdeaBlock cards. Type /help for commands.")
		m.assistant.SetFocused(true)
		m.editor = components.NewEditor(width, editorHeight, m.maxInput)
		m.ready = true
		if m.session != nil {
			m.showState(m.session.Snapshot())
		}
	} else {
		m.layout.SetSize(width, panesHeight)
		m.user.SetSize(m.layout.LeftWidth(), panesHeight)
		m.assistant.SetSize(m.layout.RightWidth(), panesHeight)
		m.editor.SetSize(width, editorHeight)
	}

	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.dialog.SetWidth(width)
	m.suggestions.SetWidth(width)
}

// showState splits the conversation into the two panes
func (m *Model) showState(state chat.State) {
	m.status.SetState(state)
	if !m.ready {
		return
	}
	m.user.SetMessages(conversation.DisplayFilter(state.Messages, chat.RoleUser))
	m.assistant.SetMessages(conversation.DisplayFilter(state.Messages, chat.RoleAssistant))
}

// setSession replaces the open session, closing the previous one
func (m *Model) setSession(sess *session.Session) {
	if m.session != nil && m.session != sess {
		_ = m.session.Close()
	}
	m.session = sess
	m.generating = false

	if sess == nil {
		m.header.SetChat("", false)
		m.showState(chat.State{})
		return
	}
	m.header.SetChat(sess.Chat.Name, sess.Chat.IsStarred)
	state := sess.Snapshot()
	m.generating = state.IsGenerating
	m.showState(state)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	if m.session != nil {
		_ = m.session.Close()
	}
	return m, tea.Quit
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	t := theme.Current

	panes := m.layout.Render(m.user.View(), m.assistant.View())
	sections := []string{m.header.View()}
	if m.suggestions.IsVisible() {
		// suggestions take their rows from the bottom of the panes
		panes = lipgloss.NewStyle().MaxHeight(max(m.layout.Height-m.suggestions.Height(), 1)).Render(panes)
		sections = append(sections, panes, m.suggestions.View())
	} else {
		sections = append(sections, panes)
	}
	sections = append(sections, m.editor.View(), m.status.View())

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.dialog.Visible() {
		view = components.PlaceOverlay(m.dialog.View(), m.width, m.height)
	}

	return lipgloss.NewStyle().
		Background(t.Background).
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height).
		Render(view)
}

// tooLong explains the input limit; n < 0 when the length is unknown
func tooLong(n, limit int) string {
	if n < 0 {
		return fmt.Sprintf("**Input too long.** The limit is %d characters.", limit)
	}
	return fmt.Sprintf("**Input too long.** The text has %d characters and the limit is %d.\n\nTrim it or split it across several messages.", n, limit)
}

// describeConfig formats the effective configuration as markdown
func describeConfig() string {
	var sb strings.Builder
	sb.WriteString("# Configuration\n\n")
	sb.WriteString(fmt.Sprintf("File: `%s`\n\n", config.ConfigPath()))
	sb.WriteString("| Key | Value |\n|---|---|\n")
	keys := config.ListKeys()
	for _, k := range config.SortedKeys(keys) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", k, keys[k]))
	}
	sb.WriteString("\nChange values with `blockify config set <key> <value>`.")
	return sb.String()
}
