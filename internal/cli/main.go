package cli

import (
	"fmt"
	"os"

	"github.com/forPelevin/viralscan/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "viralscan <transcript.json>",
		Short:         "Find the most shareable moments in a video transcript",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.PersistentFlags().String("config", "", "Path to a YAML config file")

	root.Flags().String("out", "", "Output directory (default from config, else \"out\")")
	root.Flags().Int("clip-duration", config.DefaultClipDuration, "Target clip length in seconds (5-60)")
	root.Flags().String("media", "", "Media file to probe for duration when the transcript has none")

	root.AddCommand(
		newCheckCmd(),
		newWatchCmd(),
		newWorkerCmd(),
		newGradeCmd(),
	)
	return root
}
