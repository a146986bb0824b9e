package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/pipeline"
	"github.com/forPelevin/viralscan/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process transcript records dropped into an inbox directory",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().String("inbox", "", "Directory to watch (overrides watch.inbox)")
	cmd.Flags().String("out", "", "Directory for <name>.moments.json results (default: inbox)")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("inbox"); v != "" {
		cfg.Watch.Inbox = v
	}
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		cfg.Watch.Output = v
	}
	if err := cfg.ValidateWatch(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, dir := range []string{cfg.Watch.Inbox, cfg.Watch.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	ctx, stop := signalContext()
	defer stop()
	log := logger.New(cfg.Logging.Level, cmd.ErrOrStderr())

	svc, closeFn, err := pipeline.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	clip := cfg.ClipDuration
	handler := func(ctx context.Context, in, out string) error {
		_, err := svc.ExtractFile(ctx, in, out, clip, "")
		return err
	}
	w, err := watcher.New(cfg.Watch.Inbox, cfg.Watch.Output, handler, log, cfg.Watch.MaxConcurrent)
	if err != nil {
		return err
	}
	defer w.Stop()

	log.Info(ctx, "press Ctrl+C to stop")
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info(context.Background(), "watcher stopped")
	return nil
}
