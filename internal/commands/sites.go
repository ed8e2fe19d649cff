package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pollutantsai/aianalysis/internal/analysis"
	"github.com/pollutantsai/aianalysis/internal/output"
)

func (a *app) sitesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List monitoring sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				sites, err := a.source.FetchSites(ctx)
				if err != nil {
					return err
				}
				if sites == nil {
					sites = []analysis.Site{}
				}
				return a.write(cmd.Name(), sites, output.SitesTable(sites))
			})
		},
	}
}

func (a *app) pollutantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pollutants",
		Short: "List measured pollutants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				pollutants, err := a.source.FetchPollutants(ctx)
				if err != nil {
					return err
				}
				if pollutants == nil {
					pollutants = []analysis.Pollutant{}
				}
				return a.write(cmd.Name(), pollutants, output.PollutantsTable(pollutants))
			})
		},
	}
}
