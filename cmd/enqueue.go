package cmd

import (
	"context"
	"fmt"

	"cluster-merge/core/config"
	"cluster-merge/core/queue"
	"cluster-merge/core/reconcile"
	"cluster-merge/feature/jobs"

	"github.com/spf13/cobra"
)

var (
	// Flags for the enqueue command
	enqueueOutput string
	enqueueDryRun bool
)

// enqueueCmd publishes a merge job for a stored object.
var enqueueCmd = &cobra.Command{
	Use:   "enqueue [object]",
	Short: "Queue a merge of a stored object for the worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		conn, err := queue.Dial(cfg.Queue)
		if err != nil {
			return err
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
		defer ch.Close()

		if err := queue.Setup(ch, cfg.Queue.Name, cfg.Queue.RetryDelay()); err != nil {
			return err
		}

		job := jobs.MergeJob{
			Object:         args[0],
			EntityColumn:   mergeEntity,
			ClusterColumns: reconcile.SplitColumns(mergeColumns),
			OutputColumn:   mergeOutputColumn,
			OutputObject:   enqueueOutput,
			DryRun:         enqueueDryRun,
		}
		id, err := jobs.Enqueue(context.Background(), ch, cfg.Queue.Name, job)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued %s as job %s\n", job.Object, id)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&mergeEntity, "entity", "", "Entity key column")
	enqueueCmd.Flags().StringVar(&mergeColumns, "columns", "", "Comma-separated cluster columns")
	enqueueCmd.Flags().StringVar(&mergeOutputColumn, "output-column", "", "Merged id column")
	enqueueCmd.Flags().StringVar(&enqueueOutput, "output", "", "Output object (default <base>.merged.<ext>)")
	enqueueCmd.Flags().BoolVar(&enqueueDryRun, "dry-run", false, "Merge without writing the result")

	RootCmd.AddCommand(enqueueCmd)
}
