package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authEmail    string
	authPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	Long: `Create an account on the backend and store the returned token.

Missing credentials are prompted for; the password is read without echo.

Examples:
  adviser signup
  adviser signup --email me@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, sess.Auth.Signup)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an existing account",
	Long: `Sign in and store the returned token for later commands.

Examples:
  adviser login
  adviser login --email me@example.com --password secret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, sess.Auth.Login)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	Long:  `Forget the stored token. The local question history is kept.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := sess.Auth.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		printAuthView(cmd.OutOrStdout(), sess.Auth.View(ctx))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a token is held",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		entries := sess.History.Load(ctx)

		fmt.Fprintf(out, "Server:  %s\n", cfg.ServerURL)
		fmt.Fprintf(out, "State:   %s\n", sess.Auth.State(ctx))
		fmt.Fprintf(out, "History: %d entries\n", len(entries))
		printVisibility(out, sess.Auth.Visibility(ctx))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prompted when omitted)")
	}
}

type authFunc func(ctx context.Context, email, password string) error

func runAuth(cmd *cobra.Command, fn authFunc) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	email, password, err := promptCredentials(os.Stdin, out, authEmail, authPassword)
	if err != nil {
		return err
	}

	err = fn(ctx, email, password)
	view := sess.Auth.View(ctx)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			logger.Debug("credentials rejected locally", "fields", verr.Fields)
		}
		return errors.New(view.Status.Text)
	}

	printAuthView(out, view)
	return nil
}

// promptCredentials fills in missing credentials from in. The password prompt
// does not echo when in is a terminal.
func promptCredentials(in *os.File, out io.Writer, email, password string) (string, string, error) {
	if email != "" && password != "" {
		return email, password, nil
	}

	reader := bufio.NewReader(in)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	if password == "" {
		fmt.Fprint(out, "Password: ")
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", "", fmt.Errorf("read password: %w", err)
			}
			password = string(b)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return "", "", fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimSpace(line)
		}
	}

	return email, password, nil
}

func printAuthView(w io.Writer, view session.AuthView) {
	if s := defaultTheme.renderStatus(view.Status); s != "" {
		fmt.Fprintln(w, s)
	}
	if verbose {
		printVisibility(w, view.Visibility)
	}
}

// printVisibility lists the commands that apply in the current state.
func printVisibility(w io.Writer, v session.Visibility) {
	var cmds []string
	if v.Signup {
		cmds = append(cmds, "signup")
	}
	if v.Login {
		cmds = append(cmds, "login")
	}
	if v.Logout {
		cmds = append(cmds, "ask", "chat", "logout")
	}
	fmt.Fprintln(w, defaultTheme.hintStyle().Render("Available: "+strings.Join(cmds, ", ")))
}
