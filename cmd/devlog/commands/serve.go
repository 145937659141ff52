package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mash-protocol/devlog/internal/shell"
	"github.com/mash-protocol/devlog/pkg/metrics"
)

// ErrFeatureDisabled is returned by commands whose feature toggle is off.
var ErrFeatureDisabled = errors.New("feature disabled in configuration")

func newShellCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (requires features.shell)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			if !a.Config.Features.Shell {
				return errors.Wrap(ErrFeatureDisabled, "shell")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sh, err := shell.New(a.Engine)
			if err != nil {
				return err
			}
			sh.Run(ctx)
			return nil
		},
	}
}

func newMetricsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Serve Prometheus metrics on /metrics (requires features.metrics)",
		Long: `Serve the engine's metrics until interrupted. With --shell the
interactive shell runs alongside, so appends made there are visible to
scrapes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			if !a.Config.Features.Metrics {
				return errors.Wrap(ErrFeatureDisabled, "metrics")
			}
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.Config.Features.MetricsAddr
			}
			withShell, _ := cmd.Flags().GetBool("shell")
			if withShell && !a.Config.Features.Shell {
				return errors.Wrap(ErrFeatureDisabled, "shell")
			}

			var sh *shell.Shell
			if withShell {
				if sh, err = shell.New(a.Engine); err != nil {
					return err
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler(a.Metrics))
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					e.logger.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
				}
			}()
			e.logger.Info("serving metrics", slog.String("addr", addr), slog.String("path", "/metrics"))

			if sh != nil {
				go func() {
					sh.Run(ctx)
					cancel()
				}()
			}

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return errors.Wrap(err, "metrics server")
				}
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: features.metrics_addr)")
	cmd.Flags().Bool("shell", false, "Run the interactive shell while serving")
	return cmd
}
