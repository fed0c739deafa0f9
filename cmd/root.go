package cmd

import (
	"fmt"
	"os"

	"cluster-merge/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cluster-merge",
	Short: "Cluster Merge Service",
	Long: `Cluster Merge reconciles several clustering assignments over the same
entities into one canonical cluster id per entity.
Tables can come from local files, S3/MinIO objects or a SQL database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console output with ISO8601 timestamps: failures are read by a person at a terminal
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
