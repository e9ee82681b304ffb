package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/blockrec/internal/session"
	"github.com/fakeyudi/blockrec/internal/share"
)

var (
	serveAddr    string
	serveDB      string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a share server backed by SQLite",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := serveDB
		if path == "" {
			path = cfg.ShareDB
		}
		if path == "" {
			dir, err := session.DataDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path = filepath.Join(dir, "share.db")
		}

		store, err := share.Open(path)
		if err != nil {
			return fmt.Errorf("opening share database: %w", err)
		}
		defer store.Close()

		var opts []share.ServerOption
		opts = append(opts, share.WithServerLogger(logger))
		if len(serveOrigins) > 0 {
			opts = append(opts, share.WithOrigins(serveOrigins...))
		}
		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           share.NewServer(store, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		logger.Info("share server listening", "addr", serveAddr, "db", path)
		fmt.Fprintf(cmd.ErrOrStderr(), "serving shares on %s\n", serveAddr)

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (default in the data directory)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable)")
	rootCmd.AddCommand(serveCmd)
}
