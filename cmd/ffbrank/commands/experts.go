package commands

import (
	"github.com/spf13/cobra"

	service "github.com/ffbrank/ffbrank/internal/app"
)

var expertsFlags struct { //nolint:gochecknoglobals // cobra flag storage
	year           int
	week           int
	noUpdateMaster bool
	positions      []string
	scorings       []string
}

func init() { //nolint:gochecknoinits // cobra command registration
	f := expertsCmd.Flags()
	f.IntVar(&expertsFlags.year, "year", 0, "Season year (default: current season)")
	f.IntVar(&expertsFlags.week, "week", -1, "Week number, 0 for the draft (default: current week)")
	f.BoolVar(&expertsFlags.noUpdateMaster, "no-update-master", false, "Write listing files without merging into the master registry")
	f.StringSliceVar(&expertsFlags.positions, "positions", nil, "Limit the batch to these positions (e.g. QB,RB)")
	f.StringSliceVar(&expertsFlags.scorings, "scorings", nil, "Limit the batch to these scoring formats (STD, HALF, PPR)")
	rootCmd.AddCommand(expertsCmd)
}

var expertsCmd = &cobra.Command{
	Use:   "experts [--year Y] [--week W] [--no-update-master]",
	Short: "Scrapes expert listings and merges them into the master registry.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		positions, err := parsePositions(expertsFlags.positions)
		if err != nil {
			return err
		}
		scorings, err := parseScorings(expertsFlags.scorings)
		if err != nil {
			return err
		}

		svc, closeStore, err := newService(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		year, period, err := svc.Resolve(ctx, expertsFlags.year, expertsFlags.week)
		if err != nil {
			return err
		}
		report, err := svc.ScrapeExperts(ctx, service.ExpertsRequest{
			Year:         year,
			Period:       period,
			UpdateMaster: !expertsFlags.noUpdateMaster,
			Positions:    positions,
			Scorings:     scorings,
		})
		printReport(cmd.OutOrStdout(), report)
		return err
	},
}
