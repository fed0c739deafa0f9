package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cluster-merge/core/config"
	"cluster-merge/core/logger"
	"cluster-merge/core/queue"
	"cluster-merge/core/storage"
	"cluster-merge/feature/jobs"
	"cluster-merge/feature/merge"

	"github.com/spf13/cobra"
)

// workerCmd consumes merge jobs from the queue.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the merge job worker",
	Long: `Consumes merge jobs from RabbitMQ, one at a time, until interrupted.
Failed jobs are retried through the retry queue and end up in the dead-letter queue.`,
	RunE: runWorker,
}

func init() {
	RootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Queue.Validate(); err != nil {
		return err
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
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

	svc := merge.NewService(store, cfg.Storage.Bucket, l, nil, cfg.Merge.Spec())
	consumer := jobs.NewConsumer(ch, cfg.Queue, svc, l)

	err = consumer.Run(ctx)
	l.Info("Shutdown signal received, exiting...")
	return err
}
