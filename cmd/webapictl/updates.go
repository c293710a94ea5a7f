package main

import (
	"context"

	"github.com/spf13/cobra"
)

func NewUpdatesCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates [command]",
		Short: "Fetch update packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var output string
	get := &cobra.Command{
		Use:   "get VERSION",
		Short: "Download the update package for a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				data, err := s.conn.Updates.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return writePayload(cmd, output, data)
			})
		},
	}
	get.Flags().StringVarP(&output, "output", "o", "", "Write the package to this file instead of stdout")
	cmd.AddCommand(get)

	return cmd
}
