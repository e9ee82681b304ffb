package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/config"
	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/profile"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg = config.Defaults()

// activeProfile holds the loaded user profile.
var activeProfile *profile.Profile

var logger = slog.Default()

var (
	verbose   bool
	logFormat string
	locale    string
)

var rootCmd = &cobra.Command{
	Use:           "blockrec",
	Short:         "Record and replay block assembly sessions",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(cmd.ErrOrStderr(), logFormat, verbose)
		if err != nil {
			return err
		}
		logger = l

		// First-run: profile missing → run setup wizard automatically.
		// Only do this when stdin is an interactive terminal.
		if !profile.Exists() && term.IsTerminal(os.Stdin.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to blockrec! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}

		if profile.Exists() {
			p, err := profile.Load()
			if err != nil {
				return fmt.Errorf("loading profile: %w", err)
			}
			activeProfile = p
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		// Profile values fill in config gaps.
		if activeProfile != nil {
			activeProfile.Apply(&cfg, global, project)
		}
		if locale != "" {
			cfg.Locale = locale
		}
		logger.Debug("configuration loaded", "locale", cfg.Locale, "speed", cfg.DefaultSpeed, "max_events", cfg.MaxEvents)
		return nil
	},
}

func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
}

// catalog is loaded once per process.
var catalog *notice.Catalog

func printer() (*notice.Printer, error) {
	if catalog == nil {
		c, err := notice.LoadEmbedded()
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	return catalog.Printer(cfg.Locale), nil
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "notice language, e.g. en-US or ko-KR")
}
