package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/forPelevin/viralscan/internal/config"
	"github.com/forPelevin/viralscan/internal/logger"
	"github.com/forPelevin/viralscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	clipDuration, _ := cmd.Flags().GetInt("clip-duration")
	media, _ := cmd.Flags().GetString("media")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("clip-duration") {
		clipDuration = cfg.ClipDuration
	}
	if outDir == "" {
		outDir = cfg.Paths.Output
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if media != "" {
		if media, err = filepath.Abs(media); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pcfg := pipeline.Config{
		Input:        absIn,
		OutDir:       outDir,
		ClipDuration: clipDuration,
		MediaPath:    media,
		App:          cfg,
		Log:          logger.New(cfg.Logging.Level, cmd.ErrOrStderr()),
	}
	if err := pcfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	out, err := pipeline.Run(ctx, pcfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
