package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a security question",
	Long: `Ask the backend a security question and print the categorized advice.

Successful answers are appended to the local history. Use -v to also
print the sources the backend cites.

Examples:
  adviser ask "How do I spot a phishing email?"
  adviser ask is my router password strong enough`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("question is empty")
	}

	err := sess.Conversation.Ask(ctx, question)
	view := sess.Conversation.View()
	if err != nil {
		if errors.Is(err, session.ErrUnauthorized) {
			return fmt.Errorf("%s (run 'adviser login')", view.Result.Error)
		}
		if view.Result.Error != "" {
			return errors.New(view.Result.Error)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), defaultTheme.renderResult(view.Result, verbose))
	return nil
}
