package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"quiz-arena/internal/app"
	"quiz-arena/internal/config"
)

// NewLeaderboardCmd prints the leaderboard from the configured result sink.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			sink, err := b.resultSink(ctx, cfg)
			if err != nil {
				return err
			}
			records, err := sink.ReadAll(ctx)
			if err != nil {
				return err
			}
			lb := app.BuildLeaderboard(records, limit, time.Now())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPLAYER\tXP\tBEST %\tSESSIONS")
			for i, e := range lb.Entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%.1f\t%d\n", i+1, e.Participant, e.ExperiencePoints, e.BestPercentage, e.Sessions)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of entries to show (0 for all)")
	return cmd
}
