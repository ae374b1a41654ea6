// Package cmd provides the CLI commands for the Creo client.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oron-mozes/creo-sub001/internal/api"
	"github.com/oron-mozes/creo-sub001/internal/appdir"
	"github.com/oron-mozes/creo-sub001/internal/config"
	"github.com/oron-mozes/creo-sub001/internal/logging"
	"github.com/oron-mozes/creo-sub001/internal/store"
)

var (
	// Global flags
	serverURL string
	debug     bool
	logLevel  string
	logFile   string

	// Loaded configuration
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "creo",
	Short: "Creo - a terminal chat client for the Creo agent backend",
	Long: `Creo is a terminal client for chatting with the Creo outreach
assistant. It keeps a live realtime connection to the backend, streams
assistant replies as they are generated, and falls back to long polling
when websockets are unavailable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		// Priority: --log-level flag > --debug flag > settings > default.
		effectiveLevel := cfg.LogLevel
		if logLevel != "" {
			effectiveLevel = logLevel
		} else if debug {
			effectiveLevel = "debug"
		}

		logCfg := logging.Config{Level: effectiveLevel}
		switch {
		case logFile == "-" || cfg.LogFile == "-":
			// File logging disabled.
		case logFile != "":
			logCfg.FileLog = &logging.FileLogConfig{Path: logFile}
		case cfg.LogFile != "":
			logCfg.FileLog = &logging.FileLogConfig{Path: cfg.LogFile}
		default:
			if path, err := appdir.LogPath(); err == nil {
				logCfg.FileLog = &logging.FileLogConfig{Path: path}
			}
		}
		return logging.Initialize(logCfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL (overrides settings and CREO_SERVER_URL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (\"-\" disables file logging)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore opens the persistent key-value store in the data directory.
func openStore() (*store.Store, error) {
	if err := appdir.EnsureDir(); err != nil {
		return nil, err
	}
	dir, err := appdir.StoreDir()
	if err != nil {
		return nil, err
	}
	return store.Open(dir, store.WithLogger(logging.Store()))
}

// newAPIClient builds the REST client with the store as token source.
func newAPIClient(st *store.Store) *api.Client {
	return api.New(cfg.ServerURL, api.WithTokenSource(st))
}

// resolveUserID returns the effective user id: the authenticated user when
// a valid token is stored, otherwise the persistent anonymous id. When a
// login happened after anonymous usage, the anonymous history is migrated
// once to the authenticated account.
func resolveUserID(ctx context.Context, client *api.Client, st *store.Store) string {
	user, authed, err := client.Me(ctx)
	if err != nil {
		logging.API().Warn("auth check failed; continuing anonymously", "error", err)
	}
	if !authed || user == nil {
		return st.AnonymousUserID()
	}

	if !st.AnonymousRegistered() {
		if anonID, ok := st.Get(store.KeyAnonymousUserID); ok && anonID != "" {
			if err := client.MigrateUser(ctx, anonID); err != nil {
				logging.API().Warn("anonymous user migration failed", "error", err)
			} else {
				st.SetAnonymousRegistered(true)
				logging.API().Info("anonymous history migrated", "anonymous_user_id", anonID)
			}
		}
	}
	return user.ID
}
