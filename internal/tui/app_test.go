package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/dispatcher"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm/llmtest"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/session"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/store"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/templates"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/components"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	st, err := store.OpenFile(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	mgr := session.NewManager(session.Options{
		Store:      st,
		Templates:  templates.NewRegistry(nil, nil),
		Transport:  llmtest.Echo(),
		Dispatcher: dispatcher.DefaultConfig(),
	})

	m := New(Options{
		Manager: mgr,
		Info:    llm.Info{FullURL: "http://localhost:3153/v1/chat/completions", Model: "blockify-ingest"},
	})
	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = model.(Model)
	t.Cleanup(func() { m.quit() })
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	model, cmd := m.Update(msg)
	return model.(Model), cmd
}

func TestModel_FirstMessageStartsChat(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, ansi.Strip(m.View()), "New chat")

	m, _ = update(t, m, m.start(session.StartOptions{InitialMessage: "alpha beta gamma"})())
	require.NotNil(t, m.session)
	assert.True(t, m.generating)

	m, _ = update(t, m, m.submitInitial(m.session)())
	assert.False(t, m.generating)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "alpha beta gamma")
	assert.Contains(t, view, "IdeaBlocks (1)")

	chats, err := m.manager.Store().ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "alpha beta gamma", chats[0].Name)
}

func TestModel_SubmitToOpenChat(t *testing.T) {
	m := newTestModel(t)
	m, _ = update(t, m, m.start(session.StartOptions{Template: "ingest"})())
	require.NotNil(t, m.session)

	m, _ = update(t, m, m.submit(m.session, "some source text")())
	state := m.session.Snapshot()
	require.Len(t, state.Messages, 3)
	assert.Equal(t, "some source text", state.Messages[2].Content)
	assert.Contains(t, ansi.Strip(m.View()), "Input (1)")
}

func TestModel_HelpDialog(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m.editor.SetValue("/help")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.dialog.Visible())
	assert.Contains(t, ansi.Strip(m.View()), "/templates")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.dialog.Visible())
}

func TestModel_ChatCommands(t *testing.T) {
	m := newTestModel(t)

	model, _ := m.handleCommand("/star")
	m = model.(Model)
	assert.True(t, m.dialog.Visible(), "/star without a chat should explain why")
	m.dialog.Hide()

	model, cmd := m.handleCommand("/new distill")
	m = model.(Model)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.NotNil(t, m.session)
	id := m.session.Chat.ID

	model, _ = m.handleCommand("/star")
	m = model.(Model)
	c, err := m.manager.Store().GetChat(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, c.IsStarred)

	model, _ = m.handleCommand("/rename Policy blocks")
	m = model.(Model)
	assert.Equal(t, "Policy blocks", m.session.Chat.Name)

	model, _ = m.handleCommand("/chats")
	m = model.(Model)
	require.True(t, m.dialog.Visible())
	assert.True(t, strings.Contains(ansi.Strip(m.dialog.View()), "Policy blocks"))
	m.dialog.Hide()

	model, _ = m.handleCommand("/delete")
	m = model.(Model)
	assert.Nil(t, m.session)
	_, err = m.manager.Store().GetChat(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrChatNotFound)
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t)
	model, _ := m.handleCommand("/bogus")
	m = model.(Model)
	assert.Contains(t, ansi.Strip(m.dialog.View()), "/bogus")
}

func TestModel_OversizedInputKeepsText(t *testing.T) {
	m := newTestModel(t)
	m.maxInput = 10
	m.editor = components.NewEditor(120, editorHeight, 10)

	m.editor.SetValue("this text is far too long")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Nil(t, m.session)
	assert.False(t, m.generating)
	assert.True(t, m.dialog.Visible())
	assert.Equal(t, "this text is far too long", m.editor.Value())
}

func TestModel_KeysBeforeFirstResize(t *testing.T) {
	m := New(Options{})

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyEnter},
		{Type: tea.KeyTab},
		{Type: tea.KeyPgUp},
		{Type: tea.KeyRunes, Runes: []rune("a")},
	} {
		model, cmd := m.Update(key)
		assert.Nil(t, cmd, key.String())
		m = model.(Model)
	}
	assert.Equal(t, "Loading...", m.View())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
}
