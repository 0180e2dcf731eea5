package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"recertify-fraud-service/internal/config"
	"recertify-fraud-service/internal/worker"
)

// NewWorkerCmd runs a standalone asynq worker for queued fraud checks.
func NewWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued fraud checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			c, err := buildComponents(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.close()

			opt, ok := c.redisConnOpt()
			if !ok {
				return fmt.Errorf("worker requires redis.addr to be configured")
			}
			srv := worker.NewServer(opt, cfg.WorkerQueue(), cfg.Worker.Concurrency, c.logger)
			c.logger.Info("fraud worker starting",
				slog.String("queue", cfg.WorkerQueue()),
				slog.Int("concurrency", cfg.Worker.Concurrency),
			)
			// Run blocks until SIGINT/SIGTERM.
			return srv.Run(worker.NewServeMux(worker.NewHandler(c.service, c.logger)))
		},
	}
}
