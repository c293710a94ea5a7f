package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ISearcher/Rest4WebApi/api"
)

type TaskFileOptions struct {
	File string
}

func NewTasksCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks [command]",
		Short: "Manage device tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [DEVICE]",
		Short: "List all tasks, or the tasks of one device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.run(cmd, func(ctx context.Context, s *session) error {
				var (
					tasks []api.Task
					err   error
				)
				if len(args) == 1 {
					tasks, err = s.conn.Tasks.ForDevice(ctx, args[0])
				} else {
					tasks, err = s.conn.Tasks.All(ctx)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), tasks)
			})
		},
	})

	create := &TaskFileOptions{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var task api.Task
			if err := readJSONFile(create.File, &task); err != nil {
				return err
			}
			return global.run(cmd, func(ctx context.Context, s *session) error {
				if _, err := s.conn.Tasks.Create(ctx, task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "task %s created\n", task.Name)
				return nil
			})
		},
	}
	createCmd.Flags().StringVarP(&create.File, "file", "f", "", "JSON file holding the task")
	_ = createCmd.MarkFlagRequired("file")
	cmd.AddCommand(createCmd)

	update := &TaskFileOptions{}
	updateCmd := &cobra.Command{
		Use:   "update DEVICE",
		Short: "Replace a device task from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var task api.Task
			if err := readJSONFile(update.File, &task); err != nil {
				return err
			}
			return global.run(cmd, func(ctx context.Context, s *session) error {
				if err := s.conn.Tasks.Update(ctx, args[0], task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "task %s updated on %s\n", task.Name, args[0])
				return nil
			})
		},
	}
	updateCmd.Flags().StringVarP(&update.File, "file", "f", "", "JSON file holding the task")
	_ = updateCmd.MarkFlagRequired("file")
	cmd.AddCommand(updateCmd)

	del := &TaskFileOptions{}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the tasks listed in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []api.Task
			if err := readJSONFile(del.File, &tasks); err != nil {
				return err
			}
			return global.run(cmd, func(ctx context.Context, s *session) error {
				if _, err := s.conn.Tasks.Delete(ctx, tasks); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d tasks deleted\n", len(tasks))
				return nil
			})
		},
	}
	deleteCmd.Flags().StringVarP(&del.File, "file", "f", "", "JSON file holding the task list")
	_ = deleteCmd.MarkFlagRequired("file")
	cmd.AddCommand(deleteCmd)

	return cmd
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
