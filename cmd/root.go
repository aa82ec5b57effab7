package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/config"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/logging"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/tui"
)

var (
	chatFlag     string
	templateFlag string
	baseURLFlag  string
	modelFlag    string
	messageFlag  string
	verbose      bool

	logger   = zap.NewNop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "blockify",
	Short: "Turn text into IdeaBlocks with a local LLM",
	Long: `Blockify sends text to an OpenAI-compatible LLM endpoint and shows the
IdeaBlocks it returns. Long input is split into overlapping chunks that are
processed one after another and merged into a single answer.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := logging.Options{Verbose: verbose}
		// The TUI owns the terminal, so it logs to a file
		if !cmd.HasParent() {
			opts.File = config.Get().LogFile
		}

		var err error
		logger, closeLog, err = logging.New(opts)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = closeLog()
	},
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.open(cmd.Context(), messageFlag)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		tui.New(tui.Options{
			Manager:        a.manager,
			Session:        sess,
			Info:           a.client.Describe(),
			MaxInputLength: a.cfg.MaxInputLength,
			Logger:         logger,
		}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Execute runs the root command. An interrupt cancels any running turn.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "LLM base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model name (overrides config)")

	rootCmd.Flags().StringVarP(&chatFlag, "chat", "c", "", "Open a saved chat by id or id prefix")
	rootCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Start a new chat from a template")
	rootCmd.Flags().StringVar(&messageFlag, "message", "", "Start a new chat and send this message")
}
