package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsClearCmd = &cobra.Command{
	Use:   "clear <table>",
	Short: "Empty a prunable store table",
	Long: `Clear removes all rows from one of the maintained tables:
activity_log, file_index, undo_history or rule_metadata. Staged files
in the trash directory are not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatsClear,
}

var statsEnforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Run the storage size cap check now",
	Args:  cobra.NoArgs,
	RunE:  runStatsEnforce,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsClearCmd)
	statsCmd.AddCommand(statsEnforceCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := cli.Stats()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(stats)
		return nil
	}

	fmt.Printf("Database: %s\n", formatBytes(stats.DBSizeBytes))
	fmt.Printf("Staged:   %s\n", formatBytes(stats.TrashSizeBytes))
	for _, table := range stats.Tables {
		fmt.Printf("  %-14s %d rows\n", table.Table, table.Rows)
	}
	return nil
}

func runStatsClear(cmd *cobra.Command, args []string) error {
	removed, err := cli.ClearTable(args[0])
	if err != nil {
		return err
	}
	printSuccess("Removed %d row(s) from %s", removed, args[0])
	return nil
}

func runStatsEnforce(cmd *cobra.Command, args []string) error {
	result, err := cli.EnforceStorageLimit()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	if result.ActivityPruned == 0 && len(result.StagedDropped) == 0 {
		printSuccess("Within the storage limit (%s used)", formatBytes(result.BytesBefore))
		return nil
	}
	printWarning("Trimmed %d log entries, dropped %d staged file(s)",
		result.ActivityPruned, len(result.StagedDropped))
	return nil
}
