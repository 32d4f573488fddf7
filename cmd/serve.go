package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/qtable-cli/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transform API over HTTP",
	Long: `Start a stateless JSON API:

  GET  /healthz
  POST /api/transform  {"csv": "...", "instruction": "...", "preview_rows": 5}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		sc := server.Config{
			Addr:           c.ServerAddr,
			MaxBodyBytes:   c.ServerMaxBodyBytes,
			RequestTimeout: time.Duration(c.ServerRequestTimeoutSec) * time.Second,
			PreviewRows:    c.PreviewRows,
		}
		if serveAddr != "" {
			sc.Addr = serveAddr
		}
		srv := server.New(sc)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
