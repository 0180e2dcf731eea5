package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"recertify-fraud-service/internal/config"
	transport "recertify-fraud-service/internal/transport/http"
	"recertify-fraud-service/internal/worker"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the fraud check HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()
	logger := c.logger

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var enqueuer transport.CheckEnqueuer
	var workerServer *asynq.Server
	if opt, ok := c.redisConnOpt(); ok {
		e := worker.NewEnqueuer(asynq.NewClient(opt), cfg.WorkerQueue())
		defer e.Close()
		enqueuer = e

		if cfg.Worker.Embedded {
			workerServer = worker.NewServer(opt, cfg.WorkerQueue(), cfg.Worker.Concurrency, logger)
			if err := workerServer.Start(worker.NewServeMux(worker.NewHandler(c.service, logger))); err != nil {
				return err
			}
			logger.Info("embedded fraud worker started", slog.String("queue", cfg.WorkerQueue()))
		}
	}

	fraudHandler := transport.NewFraudHandler(c.service, enqueuer, logger)
	wsHandler := transport.NewWSHandler(c.service, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(fraudHandler, wsHandler, c.metrics.Handler(), cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting fraud service", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	if workerServer != nil {
		workerServer.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
