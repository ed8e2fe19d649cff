package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pollutantsai/aianalysis/internal/analysis"
	"github.com/pollutantsai/aianalysis/internal/output"
)

func (a *app) analysisCommand() *cobra.Command {
	var (
		siteID      int64
		pollutantID int64
		dates       analysis.DateRange
	)

	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Compare station observations with TIF values for a site and pollutant",
		Example: `  aqanalysis analysis --site 1 --pollutant 2 --start 2024-01-01 --end 2024-01-31
  aqanalysis analysis --site 1 --pollutant 2 --start 2024-01-01 --end 2024-01-01 -o csv > day.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "site", "pollutant", "start", "end"); err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) error {
				points, err := a.source.FetchAnalysis(ctx, siteID, pollutantID, dates)
				if err != nil {
					return err
				}
				if points == nil {
					points = []analysis.ChartDataPoint{}
				}
				return a.write(cmd.Name(), points, output.ChartTable(points))
			})
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&siteID, "site", 0, "site id")
	flags.Int64Var(&pollutantID, "pollutant", 0, "pollutant id")
	flags.StringVar(&dates.StartDate, "start", "", "first day, YYYY-MM-DD")
	flags.StringVar(&dates.EndDate, "end", "", "last day (inclusive), YYYY-MM-DD")
	return cmd
}
