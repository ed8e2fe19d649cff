package commands

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/pollutantsai/aianalysis/internal/analysis/apiclient"
	"github.com/pollutantsai/aianalysis/internal/output"
)

func (a *app) healthCommand() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis API is up",
		Long: `health calls the backend health check once. With --wait it keeps
polling with exponential backoff until the backend answers or the wait
elapses, which is useful in startup scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				var (
					h   *apiclient.Health
					err error
				)
				if wait > 0 {
					h, err = a.client.WaitReady(ctx, readinessBackOff(wait))
				} else {
					h, err = a.client.Ping(ctx)
				}
				if err != nil {
					return err
				}
				return a.write(cmd.Name(), h, healthTable(a.client.BaseURL(), h))
			})
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "keep retrying the health check for up to this long")
	return cmd
}

func readinessBackOff(wait time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = wait
	return b
}

func healthTable(baseURL string, h *apiclient.Health) output.Table {
	return output.Table{
		Headers: []string{"api_base", "status", "message"},
		Rows:    [][]string{{baseURL, h.Status, h.Message}},
	}
}
