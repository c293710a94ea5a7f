package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ISearcher/Rest4WebApi/api"
)

func NewVersionsCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions [command]",
		Short: "Manage released client versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List released client versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				list, err := s.conn.Versions.Clients(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), list)
			})
		},
	})

	cmd.AddCommand(newVersionDownloadCommand(global))
	cmd.AddCommand(newVersionCreateCommand(global))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a client version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.conn.Versions.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %s deleted\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

type VersionDownloadOptions struct {
	Output string
}

func newVersionDownloadCommand(global *GlobalOptions) *cobra.Command {
	opts := &VersionDownloadOptions{}

	cmd := &cobra.Command{
		Use:   "download VERSION",
		Short: "Download the installer of a client version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				data, err := s.conn.Versions.Download(ctx, args[0])
				if err != nil {
					return err
				}
				return writePayload(cmd, opts.Output, data)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the installer to this file instead of stdout")
	return cmd
}

type VersionCreateOptions struct {
	Version     string
	Name        string
	Description string
	Stable      []string
}

func newVersionCreateCommand(global *GlobalOptions) *cobra.Command {
	opts := &VersionCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Upload a new client version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := api.ClientVersion{
				Version:          api.Decimal(opts.Version),
				Name:             opts.Name,
				Description:      opts.Description,
				StableDeviceList: opts.Stable,
			}
			return global.run(cmd, func(ctx context.Context, s *session) error {
				if _, err := s.conn.Versions.Create(ctx, info, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %s created\n", opts.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Version, "version", "0", "Version number")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Version name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Version description")
	cmd.Flags().StringSliceVar(&opts.Stable, "stable-device", nil, "Device pinned to this version (repeatable)")
	return cmd
}

func writePayload(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), path)
	return nil
}
