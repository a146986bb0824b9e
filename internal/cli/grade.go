package cli

import (
	"fmt"
	"strconv"

	"github.com/forPelevin/viralscan/internal/domain/moments"
	"github.com/spf13/cobra"
)

func newGradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grade <score>...",
		Short: "Convert virality scores in [0, 1] to letter grades",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				score, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", a, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", a, moments.Grade(score), moments.PercentScore(score))
			}
			return nil
		},
	}
}
