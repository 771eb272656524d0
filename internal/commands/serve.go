package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/worker"
)

// NewServeCommand runs the HTTP API until SIGINT or SIGTERM.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the expense API and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServiceConfig(cmd)
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(applog.ComponentApp, cfg.SlogLevel(), cmd.OutOrStdout())
			return RunAPI(cmd.Context(), cfg, logger)
		},
	}
}

// NewWorkerCommand consumes expense events into the spreadsheet mirror.
func NewWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror expense events into Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServiceConfig(cmd)
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(applog.ComponentWorker, cfg.SlogLevel(), cmd.OutOrStdout())
			return RunWorker(cmd.Context(), cfg, logger)
		},
	}
}

// Standalone turns a service command into the root of its own binary.
func Standalone(cmd *cobra.Command, use string) *cobra.Command {
	cmd.Use = use
	cmd.Version = version()
	cmd.SilenceUsage = true
	cmd.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	cmd.PersistentFlags().String("env-file", ".env", "dotenv file with configuration overrides")
	return cmd
}

func loadServiceConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile := ".env"
	if f := cmd.Flags().Lookup("env-file"); f != nil {
		envFile = f.Value.String()
	}
	if err := cli.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	return cli.LoadAndValidateConfig()
}

// RunAPI serves HTTP until ctx is cancelled or a shutdown signal arrives.
func RunAPI(parent context.Context, cfg *config.Config, logger *applog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	logger.Info("Starting expense API", "version", version(), "addr", cfg.Addr(), "db_driver", cfg.DBDriver)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentStorage).Logger).CreateBackend(parent, bcfg)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(cfg.Addr(), res.Service, apphttp.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
	})

	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	ctx, done := cli.GracefulShutdown(runCtx, logger, cfg.ShutdownTimeout, func(sctx context.Context) error {
		m := srv.Metrics()
		logger.Info("Request totals", "requests", m.TotalRequests, "server_errors", m.ServerErrors)
		return errors.Join(srv.Shutdown(sctx), res.Cleanup())
	})

	var g errgroup.Group
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel()
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	<-ctx.Done()
	<-done
	return g.Wait()
}

// RunWorker consumes expense events until ctx is cancelled or a shutdown
// signal arrives.
func RunWorker(parent context.Context, cfg *config.Config, logger *applog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	if !cfg.EventsEnabled() {
		return errors.New("AMQP_URL is required for the worker")
	}
	logger.Info("Starting expense worker", "version", version(), "queue", cfg.AMQPQueue)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	mirror, err := backend.NewFactory(logger.WithComponent(applog.ComponentSheets).Logger).CreateMirror(parent, bcfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to initialize AMQP client: %w", err)
	}

	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	ctx, done := cli.GracefulShutdown(runCtx, logger, cfg.ShutdownTimeout, func(context.Context) error {
		return client.Close()
	})

	w := worker.NewMirrorWorker(mirror, logger.WithComponent(applog.ComponentAMQP).Logger)
	err = client.ConsumeEvents(ctx, w.HandleEvent)
	cancel()
	<-done

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
