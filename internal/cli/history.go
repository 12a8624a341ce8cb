package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	clearForce   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous questions and answers",
	Long: `Show the locally stored question history, oldest first.

Examples:
  adviser history
  adviser history -n 5
  adviser history clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the local question history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last n exchanges")
	historyClearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "skip confirmation prompt")
	historyCmd.AddCommand(historyClearCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	outcome := sess.Bootstrap(cmd.Context())
	if outcome.Redirect {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Not signed in. Run 'adviser login' or 'adviser signup' first."))
		return nil
	}

	view := sess.Conversation.View()
	if len(view.Pane.Bubbles) == 0 {
		fmt.Fprintln(out, "No questions yet.")
		return nil
	}

	// Each exchange is a question and an answer bubble.
	fmt.Fprint(out, defaultTheme.renderPane(view.Pane, 2*historyLimit))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	entries := sess.History.Load(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(out, "History is already empty.")
		return nil
	}

	if !clearForce {
		ok, err := confirm(os.Stdin, out, fmt.Sprintf("Delete %d history entries? [y/N]: ", len(entries)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := sess.Conversation.ClearHistory(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Fprintf(out, "Deleted %d entries.\n", len(entries))
	return nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
