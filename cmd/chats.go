package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/ideablock"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui/theme"
)

var (
	showRaw  bool
	showHTML bool
	clearYes bool
)

var chatsCmd = &cobra.Command{
	Use:     "chats",
	Aliases: []string{"chat", "history"},
	Short:   "List and manage saved chats",
	Long: `List and manage saved chats. Chat ids may be shortened to any unique prefix.

Examples:
  blockify chats                     # List chats, starred first
  blockify chats show 3f2a           # Print a chat
  blockify chats rename 3f2a Policy  # Rename a chat
  blockify chats star 3f2a           # Star a chat
  blockify chats clear --yes         # Delete every chat`,
	RunE: withApp(listChats),
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the messages of a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(showChat),
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		c, err := a.manager.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		if err := a.store.RenameChat(cmd.Context(), c.ID, name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q.\n", shortID(c.ID), name)
		return nil
	}),
}

var chatsStarCmd = &cobra.Command{
	Use:   "star <id>",
	Short: "Star a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(starChat(true)),
}

var chatsUnstarCmd = &cobra.Command{
	Use:   "unstar <id>",
	Short: "Remove the star from a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(starChat(false)),
}

var chatsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a chat and its messages",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		c, err := a.manager.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.store.DeleteChat(cmd.Context(), c.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", c.Name)
		return nil
	}),
}

var chatsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved chat",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to delete all chats without --yes")
		}
		if err := a.store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted all chats.")
		return nil
	}),
}

// withApp opens the configured store for the duration of fn
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func listChats(cmd *cobra.Command, a *app, args []string) error {
	chats, err := a.store.ListChats(cmd.Context())
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved chats.")
		return nil
	}

	// Starred chats first, each group keeps the store's recency order
	rows := make([][]string, 0, len(chats))
	for _, starred := range []bool{true, false} {
		for _, c := range chats {
			if c.IsStarred != starred {
				continue
			}
			star := ""
			if c.IsStarred {
				star = "★"
			}
			rows = append(rows, []string{star, shortID(c.ID), c.Name, c.Template, c.LastUpdated.Format("2006-01-02 15:04")})
		}
	}

	t := theme.Current
	header := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border)).
		Headers("", "ID", "NAME", "TEMPLATE", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	return nil
}

func showChat(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()
	c, err := a.manager.Find(ctx, args[0])
	if err != nil {
		return err
	}
	messages, err := a.store.LoadMessages(ctx, c.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showRaw || showHTML {
		reply := lastAssistant(messages)
		if showHTML {
			reply = sanitize(ideablock.Render(reply))
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	fmt.Fprintf(out, "%s  %s\n\n", c.Name, c.ID)
	for _, m := range messages {
		if m.Role == chat.RoleSystem {
			continue
		}
		label := "You"
		if m.Role == chat.RoleAssistant {
			label = "Blockify"
		}
		if m.IsError {
			label += " (error)"
		}
		fmt.Fprintf(out, "[%s] %s\n%s\n\n", m.Time().Format("15:04:05"), label, m.Content)
	}
	return nil
}

func starChat(starred bool) func(*cobra.Command, *app, []string) error {
	return func(cmd *cobra.Command, a *app, args []string) error {
		c, err := a.manager.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.store.SetStarred(cmd.Context(), c.ID, starred); err != nil {
			return err
		}
		verb := "Starred"
		if !starred {
			verb = "Unstarred"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %q.\n", verb, c.Name)
		return nil
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	chatsShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Print only the last response as returned by the LLM")
	chatsShowCmd.Flags().BoolVar(&showHTML, "html", false, "Print the last response as sanitized HTML cards")
	chatsClearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting every chat")

	chatsCmd.AddCommand(chatsShowCmd, chatsRenameCmd, chatsStarCmd, chatsUnstarCmd, chatsDeleteCmd, chatsClearCmd)
	rootCmd.AddCommand(chatsCmd)
}
