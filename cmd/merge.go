package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"cluster-merge/core/config"
	"cluster-merge/core/database"
	"cluster-merge/core/logger"
	"cluster-merge/core/reconcile"
	"cluster-merge/core/storage"
	"cluster-merge/core/table"
	"cluster-merge/feature/merge/sources"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the merge command
	mergeInput        string
	mergeOutput       string
	mergeEntity       string
	mergeColumns      string
	mergeOutputColumn string
	mergeFormat       string
	yesConfirm        bool
)

// mergeCmd merges the cluster columns of one table.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge cluster id columns into one canonical id",
	Long: `Merge several clustering assignments over the same entities.

Entities sharing a non-zero cluster id in any column end up in the same group,
transitively. Each group gets the smallest non-zero id of its members.

Inputs:
  clusters.csv            local csv, json or yaml file
  s3://daily/a.csv        object in the configured bucket
  db://clusters           table in the configured database

Without --output the merged table is printed and nothing is written.

Examples:
  # Print the merge of a local file
  merge --input clusters.csv --columns id_1,id_2

  # Write the result next to a stored object
  merge --input s3://daily/a.csv --output s3://daily/a.merged.csv

  # Write (address, id) rows into a database table, non-interactive
  merge --input db://clusters --output db://clusters_merged --yes`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeInput, "input", "i", "", "Input table (path, s3://object or db://table)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output table, same kind as the input")
	mergeCmd.Flags().StringVar(&mergeEntity, "entity", "", "Entity key column (default from MERGE_ENTITY_COLUMN)")
	mergeCmd.Flags().StringVar(&mergeColumns, "columns", "", "Comma-separated cluster columns (default from MERGE_CLUSTER_COLUMNS)")
	mergeCmd.Flags().StringVar(&mergeOutputColumn, "output-column", "", "Merged id column (default from MERGE_OUTPUT_COLUMN)")
	mergeCmd.Flags().StringVarP(&mergeFormat, "format", "f", "table", "Print format without --output: table, csv, json or yaml")
	mergeCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm replacing a database table (non-interactive)")
	_ = mergeCmd.MarkFlagRequired("input")

	RootCmd.AddCommand(mergeCmd)
}

// location is a parsed --input or --output value.
type location struct {
	Scheme string // "file", "s3" or "db"
	Name   string
}

func parseLocation(raw string) location {
	for _, scheme := range []string{"s3", "db", "file"} {
		if name, ok := strings.CutPrefix(raw, scheme+"://"); ok {
			return location{Scheme: scheme, Name: name}
		}
	}
	return location{Scheme: "file", Name: raw}
}

// mergeSpec combines the configured defaults with the command flags.
func mergeSpec(defaults reconcile.Config) reconcile.Spec {
	spec := defaults.Spec()
	spec.CacheTTL = 0
	if mergeEntity != "" {
		spec.EntityColumn = mergeEntity
	}
	if cols := reconcile.SplitColumns(mergeColumns); len(cols) > 0 {
		spec.ClusterColumns = cols
	}
	if mergeOutputColumn != "" {
		spec.OutputColumn = mergeOutputColumn
	}
	return spec
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	printFormat, err := table.ParseFormat(mergeFormat)
	if err != nil {
		return err
	}

	in := parseLocation(mergeInput)
	var out location
	if mergeOutput != "" {
		out = parseLocation(mergeOutput)
		if out.Scheme != in.Scheme {
			return fmt.Errorf("output %q must be the same kind as input %q", mergeOutput, mergeInput)
		}
	}

	spec := mergeSpec(cfg.Merge)
	src, err := openSource(cfg, in, out.Name, spec)
	if err != nil {
		return err
	}

	l.Info("Merging", zap.String("input", src.Name()), zap.Strings("columns", spec.ClusterColumns))
	plan, err := reconcile.BuildPlan(ctx, spec, src)
	if err != nil {
		return fmt.Errorf("failed to merge: %w", err)
	}
	printMergeReport(l, plan)

	if mergeOutput == "" {
		return table.Encode(cmd.OutOrStdout(), plan.Table, printFormat)
	}

	if out.Scheme == "db" && !confirmDestructiveAction(cmd.InOrStdin(), cmd.OutOrStdout(), out.Name) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	if _, err := reconcile.ApplyPlan(ctx, src, plan, reconcile.RunOptions{}); err != nil {
		return err
	}
	l.Info("Merged table written", zap.String("output", mergeOutput))
	return nil
}

// openSource builds the source for in. Only the clients the scheme needs are created.
func openSource(cfg *config.Config, in location, output string, spec reconcile.Spec) (reconcile.Source, error) {
	switch in.Scheme {
	case "s3":
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		return sources.NewObject(client, cfg.Storage.Bucket, in.Name, output), nil
	case "db":
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return sources.NewDatabase(db, in.Name, spec, output), nil
	default:
		return sources.NewFile(in.Name, output), nil
	}
}

// printMergeReport logs the merge summary.
func printMergeReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary
	l.Info("Merge report",
		zap.String("source", plan.Source),
		zap.Int("rows", s.Rows),
		zap.Int("entities", s.Entities),
		zap.Int("groups", s.Groups),
		zap.Int("singletons", s.Singletons),
		zap.Int("unassigned", s.Unassigned),
		zap.Int("unions", s.Unions),
		zap.String("duration", plan.Duration),
	)
	if s.SkippedValues > 0 {
		l.Warn("Cluster values that are not integers were skipped", zap.Int("count", s.SkippedValues))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(in io.Reader, out io.Writer, target string) bool {
	if yesConfirm {
		fmt.Fprintln(out, "\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprintf(out, "\n⚠️  Table %s will be replaced. Type 'yes' to confirm: ", target)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

