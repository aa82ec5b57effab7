package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/ideablock"
)

var sendHTML bool

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send text and print the response",
	Long: `Send text to the LLM and print the merged response. Without arguments
the text is read from stdin.

Examples:
  blockify send "Our refund window is 30 days."
  cat handbook.txt | blockify send --template ingest
  blockify send --chat 3f2a "Add the shipping policy too" --html`,
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 || text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("nothing to send")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sess, err := a.open(ctx, text)
	if err != nil {
		return err
	}
	defer sess.Close()

	done := make(chan struct{})
	go reportProgress(sess.Updates(), cmd.ErrOrStderr(), done)

	var turnErr error
	if chatFlag == "" {
		_, turnErr = sess.SubmitInitial(ctx)
	} else {
		_, turnErr = sess.Submit(ctx, text)
	}
	_ = sess.Close()
	<-done

	reply := lastAssistant(sess.Snapshot().Messages)
	out := cmd.OutOrStdout()
	if sendHTML {
		fmt.Fprintln(out, sanitize(ideablock.Render(reply)))
	} else {
		fmt.Fprintln(out, reply)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "chat %s\n", sess.Chat.ID)

	return turnErr
}

// reportProgress prints chunk progress until updates closes
func reportProgress(updates <-chan chat.State, w io.Writer, done chan<- struct{}) {
	defer close(done)
	last := chat.Progress{}
	for state := range updates {
		p := state.ChunkProgress
		if p.Total > 1 && p != last {
			fmt.Fprintf(w, "processing chunk %d of %d\n", p.Current, p.Total)
			last = p
		}
	}
}

func lastAssistant(messages []chat.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chat.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

func init() {
	sendCmd.Flags().StringVarP(&chatFlag, "chat", "c", "", "Continue a saved chat by id or id prefix")
	sendCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Start the chat from a template")
	sendCmd.Flags().BoolVar(&sendHTML, "html", false, "Print the response as sanitized HTML cards")
	rootCmd.AddCommand(sendCmd)
}
