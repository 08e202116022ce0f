package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pagechat/backend/internal/app"
	"pagechat/backend/internal/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	storage  string
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pagechat",
		Short: "Chat with an LLM about the page you are reading",
		Long: `pagechat drives the same chat session as the browser side panel.
Conversations, options and the API key live in the configured storage,
so a conversation started here can be continued in the panel.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.storage, "storage", "", "storage driver: sqlite, redis or memory (default from STORAGE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (default from DATABASE_PATH)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "log level (default from LOG_LEVEL, WARN for commands other than serve)")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newNewCmd(opts),
		newLoginCmd(opts),
		newModelsCmd(opts),
		newHistoryCmd(opts),
		newOpenCmd(opts),
		newPinCmd(opts, true),
		newPinCmd(opts, false),
		newDeleteCmd(opts),
	)
	return rootCmd
}

// loadConfig reads .env and the environment, then applies flag overrides.
func (o *rootOptions) loadConfig(defaultLevel string) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.storage != "" {
		cfg.StorageDriver = o.storage
	}
	if o.dbPath != "" {
		cfg.DatabasePath = o.dbPath
	}

	level := defaultLevel
	if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.LogLevel
	}
	if o.logLevel != "" {
		level = o.logLevel
	}
	cfg.LogLevel = level
	// Logs go to stderr so replies on stdout stay clean.
	app.SetupLogger(level, os.Stderr)
	return cfg, nil
}

// openApp builds the application core for one command invocation.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig("WARN")
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, cfg)
}

// withApp opens the core, runs fn and releases storage.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := o.openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close storage: %v\n", cerr)
		}
	}()
	return fn(ctx, a)
}
