package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ISearcher/Rest4WebApi/observability"
)

func NewPingCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe every resource endpoint and print their health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				sh := s.conn.Health(ctx, s.cfg.Base.Version)
				if err := writeJSON(cmd.OutOrStdout(), sh); err != nil {
					return err
				}
				if sh.Status == observability.HealthStatusDown {
					return errUnhealthy
				}
				return nil
			})
		},
	}
}
