package commands

import (
	"github.com/spf13/cobra"

	service "github.com/ffbrank/ffbrank/internal/app"
)

var rankingsFlags struct { //nolint:gochecknoglobals // cobra flag storage
	year        int
	week        int
	startExpert int
	positions   []string
	scorings    []string
}

func init() { //nolint:gochecknoinits // cobra command registration
	f := rankingsCmd.Flags()
	f.IntVar(&rankingsFlags.year, "year", 0, "Season year (default: current season)")
	f.IntVar(&rankingsFlags.week, "week", -1, "Week number, 0 for the draft (default: current week)")
	f.IntVar(&rankingsFlags.startExpert, "start-expert", 0, "Skip experts with a lower id")
	f.StringSliceVar(&rankingsFlags.positions, "positions", nil, "Limit the batch to these positions (e.g. QB,RB)")
	f.StringSliceVar(&rankingsFlags.scorings, "scorings", nil, "Limit the batch to these scoring formats (STD, HALF, PPR)")
	rootCmd.AddCommand(rankingsCmd)
}

var rankingsCmd = &cobra.Command{
	Use:   "rankings [--year Y] [--week W] [--start-expert ID]",
	Short: "Downloads every registered expert's rankings.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		positions, err := parsePositions(rankingsFlags.positions)
		if err != nil {
			return err
		}
		scorings, err := parseScorings(rankingsFlags.scorings)
		if err != nil {
			return err
		}

		svc, closeStore, err := newService(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		year, period, err := svc.Resolve(ctx, rankingsFlags.year, rankingsFlags.week)
		if err != nil {
			return err
		}
		report, err := svc.ScrapeRankings(ctx, service.RankingsRequest{
			Year:        year,
			Period:      period,
			StartExpert: rankingsFlags.startExpert,
			Positions:   positions,
			Scorings:    scorings,
		})
		printReport(cmd.OutOrStdout(), report)
		return err
	},
}
