package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/pipeline"
	"github.com/forPelevin/viralscan/internal/queue"
	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume extraction jobs from RabbitMQ and publish results",
		Args:  cobra.NoArgs,
		RunE:  runWorker,
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateQueue(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	log := logger.New(cfg.Logging.Level, cmd.ErrOrStderr())

	svc, closeFn, err := pipeline.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	broker, err := queue.Dial(cfg.Queue.URL, cfg.Queue.Prefetch)
	if err != nil {
		return err
	}
	defer broker.Close()

	msgs, err := broker.Consume(cfg.Queue.Jobs)
	if err != nil {
		return err
	}
	log.Info(ctx, "worker started: %s -> %s", cfg.Queue.Jobs, cfg.Queue.Results)

	w := queue.NewWorker(svc, broker, cfg.Queue.Results, log)
	if err := w.Run(ctx, msgs); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info(context.Background(), "worker stopped")
	return nil
}
