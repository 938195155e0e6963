// File: cmd/serve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/orderlens/internal/api"
	"github.com/xkilldash9x/orderlens/internal/automation"
	"github.com/xkilldash9x/orderlens/internal/browser"
	"github.com/xkilldash9x/orderlens/internal/config"
	"github.com/xkilldash9x/orderlens/internal/observability"
	"github.com/xkilldash9x/orderlens/internal/session"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the login, OTP and order extraction API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddr, err)
			}
			return runServe(cmd.Context(), cfg, ln, observability.GetLogger())
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "address to listen on (overrides server.listen_addr)")
	return cmd
}

// newWorkflow wires the session store and browser controller into a workflow.
func newWorkflow(cfg *config.Config, logger *zap.Logger) *automation.Workflow {
	store := session.NewStore(logger, cfg.Automation.LogCapacity)
	controller := browser.NewController(cfg.Browser, logger)
	return automation.NewWorkflow(store, controller, cfg, logger)
}

// runServe serves on ln until ctx is cancelled, then shuts the server down and
// closes every live browser session.
func runServe(ctx context.Context, cfg *config.Config, ln net.Listener, logger *zap.Logger) error {
	workflow := newWorkflow(cfg, logger)
	server := api.NewServer(cfg.Server, workflow, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		workflow.RunReaper(gctx)
		return nil
	})

	g.Go(func() error {
		return server.Serve(ln)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down.")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
		if err := workflow.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("session drain: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
