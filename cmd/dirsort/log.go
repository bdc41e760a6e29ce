package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dirsort/internal/models"
)

var (
	logLimit    int
	logOffset   int
	logFolderID string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the activity log, newest first",
	Example: `  dirsort log
  dirsort log --limit 100 --folder 2f1c9a...`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().IntVar(&logLimit, "limit", 50, "Entries per page")
	logCmd.Flags().IntVar(&logOffset, "offset", 0, "Entries to skip")
	logCmd.Flags().StringVar(&logFolderID, "folder", "", "Only entries for this folder")
}

func runLog(cmd *cobra.Command, args []string) error {
	entries, err := cli.ActivityLog(logLimit, logOffset, logFolderID)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entries)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No activity")
		return nil
	}
	for _, entry := range entries {
		line := fmt.Sprintf("%s  %-6s %s", formatTime(entry.Timestamp), entry.Action, entry.Path)
		if entry.RuleName != "" {
			line += " [" + entry.RuleName + "]"
		}
		if entry.Detail != "" {
			line += ": " + entry.Detail
		}
		if entry.Result == models.ResultFailure {
			printError("%s", line)
		} else {
			fmt.Println(line)
		}
	}
	return nil
}
