package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/tonecheck/pkg/cli/config"
	httpctrl "github.com/secmon-lab/tonecheck/pkg/controller/http"
	"github.com/secmon-lab/tonecheck/pkg/service/worker"
	"github.com/secmon-lab/tonecheck/pkg/usecase"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var serverCfg config.Server
	var webhookCfg config.Webhook
	var helpscoutCfg config.HelpScout
	var engineCfg config.Engine
	var ledgerCfg config.Ledger
	var sentryCfg config.Sentry

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, webhookCfg.Flags()...)
	flags = append(flags, helpscoutCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)
	flags = append(flags, ledgerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			ctx = logging.With(ctx, logger)

			if err := serverCfg.Validate(); err != nil {
				return err
			}

			attrs := append(serverCfg.LogAttrs(), engineCfg.LogAttrs()...)
			attrs = append(attrs, sentryCfg.LogAttrs()...)
			attrs = append(attrs,
				slog.Any("webhook", webhookCfg),
				slog.Any("helpscout", helpscoutCfg),
				slog.Any("ledger", ledgerCfg),
			)
			logger.LogAttrs(ctx, slog.LevelInfo, "Serve configuration", attrs...)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			ledger, err := ledgerCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize ledger")
			}
			defer func() {
				if err := ledger.Close(); err != nil {
					logger.Error("failed to close ledger", "error", err)
				}
			}()

			engine, err := engineCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize evaluation engine")
			}
			engineName := ""
			if engine == nil {
				logger.Warn("evaluation engine has no credentials, webhooks will be answered with a notice",
					"engine", engineCfg.Kind())
			} else {
				engineName = engineCfg.Kind()
			}

			tickets := helpscoutCfg.Configure()
			if !tickets.Configured() {
				logger.Warn("Help Scout credentials are not configured, webhooks will be answered with a notice")
			}

			ucOpts, err := serverCfg.UseCaseOptions()
			if err != nil {
				return err
			}
			ucOpts = append(ucOpts, usecase.WithLedger(ledger))

			coordinator := serverCfg.Coordinator()
			uc := usecase.New(tickets, engine, coordinator, ucOpts...)

			probe := worker.NewLedgerProbeWorker(ledger, worker.DefaultProbeInterval)
			probe.Start(ctx)

			httpHandler := httpctrl.New(uc.Evaluation,
				httpctrl.WithSignatureVerifier(webhookCfg.Configure(ctx)),
				httpctrl.WithRequestTimeout(serverCfg.RequestTimeout()),
				httpctrl.WithReportURL(ledger.URL()),
				httpctrl.WithHealth(&httpctrl.HealthReporter{
					Version:   version,
					StartedAt: time.Now(),
					Ledger:    probe,
					Engine:    engineName,
					Tickets:   tickets,
					Cache:     coordinator,
				}),
			)

			server := &http.Server{
				Addr:              serverCfg.Addr(),
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", server.Addr, "version", version)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				probe.Stop()
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			// Evaluations already accepted still get their ledger rows.
			if err := coordinator.Wait(shutdownCtx); err != nil {
				logger.Warn("evaluations still running at shutdown",
					"in_flight", coordinator.InFlightCount(), "error", err)
			}
			probe.Stop()

			logger.Info("Server shutdown completed")
			return nil
		},
	}
}
