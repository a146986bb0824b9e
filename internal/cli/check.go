package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/forPelevin/viralscan/internal/pipeline"
	"github.com/forPelevin/viralscan/internal/ports"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Send a tiny request to the configured provider to verify credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			llm, err := pipeline.NewCompleter(ctx, cfg)
			if err != nil {
				return err
			}
			p, ok := llm.(ports.Pinger)
			if !ok {
				return fmt.Errorf("provider %s does not support check", cfg.Provider)
			}
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("%s: %w", cfg.Provider, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.Provider)
			return nil
		},
	}
}
