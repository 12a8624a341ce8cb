// Package cli provides the command-line interface for adviser.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/adviser/internal/client"
	"github.com/raphaelgruber/adviser/internal/config"
	"github.com/raphaelgruber/adviser/internal/labels"
	"github.com/raphaelgruber/adviser/internal/metrics"
	"github.com/raphaelgruber/adviser/internal/session"
	"github.com/raphaelgruber/adviser/internal/storage"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string
	dataPath  string
	ephemeral bool

	// Global state, set up in PersistentPreRunE
	cfg        config.Config
	store      storage.Store
	sess       *session.Session
	stats      *metrics.Collector
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "adviser",
	Short: "Terminal client for the security advice service",
	Long: `Adviser is a session-aware client for the security advice API.

Sign up or log in once; the token and your question history are kept
locally between runs. Ask one-off questions with 'ask' or open the
interactive view with 'chat'.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		if dataPath != "" {
			cfg.DataPath = dataPath
		}

		// Stderr stays quiet unless verbose; the file always gets the configured level.
		stderrLevel := slog.LevelError
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, stderrLevel, cfg.LogLevel)

		if ephemeral {
			store = storage.NewMemory()
		} else {
			db, err := storage.NewSQLite(cfg.DataPath)
			if err != nil {
				return fmt.Errorf("open local state: %w", err)
			}
			store = db
		}

		stats = metrics.NewCollector()
		backend := client.New(cfg.ServerURL, cfg.RequestTimeout,
			client.WithMetrics(stats),
			client.WithLogger(logger),
		)

		sess = session.New(session.Dependencies{
			Store:    store,
			Backend:  backend,
			Labels:   labels.ByName(cfg.LabelSet),
			Messages: session.MessagesFor(cfg.Language),
			Logger:   logger,
		})

		logger.Debug("session ready", "server_url", cfg.ServerURL, "data_path", cfg.DataPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && stats != nil {
			printStats(cmd.ErrOrStderr(), stats.Snapshot())
		}
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close local state: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend URL (overrides ADVISER_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "local state database (overrides ADVISER_DATA_PATH)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep token and history in memory only")

	// Add subcommands
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(chatCmd)
}
