package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/session"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/components"
)

// handleCommand processes slash commands
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch strings.ToLower(parts[0]) {
	case "/help":
		m.dialog.Show(components.HelpMarkdown)

	case "/quit", "/exit", "/q":
		return m.quit()

	case "/new":
		if arg == "" {
			m.setSession(nil)
			return m, nil
		}
		return m, m.start(session.StartOptions{Template: arg})

	case "/open":
		if arg == "" {
			m.dialog.Show("Usage: `/open <chat id>`")
			return m, nil
		}
		return m, m.resume(arg)

	case "/chats":
		m.dialog.Show(m.listChats())

	case "/templates":
		m.dialog.Show(m.listTemplates())

	case "/config":
		m.dialog.Show(describeConfig())

	case "/star", "/rename", "/delete":
		if m.session == nil {
			m.dialog.Show("No chat is open yet. Send a message or use `/new <template>` first.")
			return m, nil
		}
		return m.editChat(strings.ToLower(parts[0]), arg)

	default:
		m.dialog.Show(fmt.Sprintf("Unknown command `%s`. Type `/help` for available commands.", parts[0]))
	}
	return m, nil
}

// editChat changes the metadata of the open chat
func (m Model) editChat(cmd, arg string) (tea.Model, tea.Cmd) {
	st := m.manager.Store()
	c := &m.session.Chat

	switch cmd {
	case "/star":
		if err := st.SetStarred(m.ctx, c.ID, !c.IsStarred); err != nil {
			m.dialog.Show("**Could not update chat.**\n\n" + err.Error())
			return m, nil
		}
		c.IsStarred = !c.IsStarred

	case "/rename":
		if arg == "" {
			m.dialog.Show("Usage: `/rename <name>`")
			return m, nil
		}
		if err := st.RenameChat(m.ctx, c.ID, arg); err != nil {
			m.dialog.Show("**Could not rename chat.**\n\n" + err.Error())
			return m, nil
		}
		c.Name = arg

	case "/delete":
		if m.generating {
			m.dialog.Show("Wait for the current turn to finish before deleting the chat.")
			return m, nil
		}
		if err := st.DeleteChat(m.ctx, c.ID); err != nil {
			m.dialog.Show("**Could not delete chat.**\n\n" + err.Error())
			return m, nil
		}
		m.setSession(nil)
		return m, nil
	}

	m.header.SetChat(c.Name, c.IsStarred)
	return m, nil
}

func (m Model) listChats() string {
	chats, err := m.manager.Store().ListChats(m.ctx)
	if err != nil {
		return "**Could not list chats.**\n\n" + err.Error()
	}
	if len(chats) == 0 {
		return "No saved chats yet."
	}

	var sb strings.Builder
	sb.WriteString("# Chats\n\n| | ID | Name | Updated |\n|---|---|---|---|\n")
	for _, c := range chats {
		star := ""
		if c.IsStarred {
			star = "★"
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n",
			star, shortID(c.ID), escapeCell(c.Name), c.LastUpdated.Format("2006-01-02 15:04")))
	}
	sb.WriteString("\nOpen one with `/open <id>`.")
	return sb.String()
}

func (m Model) listTemplates() string {
	var sb strings.Builder
	sb.WriteString("# Templates\n\n| Name | Description |\n|---|---|\n")
	for _, t := range m.manager.Templates().List() {
		if t.Disabled {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", t.Name, escapeCell(t.Description)))
	}
	sb.WriteString("\nStart one with `/new <name>`.")
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
