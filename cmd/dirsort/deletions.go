package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deletionsCmd = &cobra.Command{
	Use:   "deletions",
	Short: "Manage scheduled deletions",
}

var deletionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List files awaiting deletion, soonest first",
	Args:  cobra.NoArgs,
	RunE:  runDeletionsList,
}

var deletionsCancelCmd = &cobra.Command{
	Use:   "cancel <path>",
	Short: "Cancel a file's scheduled deletion",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeletionsCancel,
}

var deletionsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute all due deletions now",
	Args:  cobra.NoArgs,
	RunE:  runDeletionsRun,
}

func init() {
	rootCmd.AddCommand(deletionsCmd)
	deletionsCmd.AddCommand(deletionsListCmd)
	deletionsCmd.AddCommand(deletionsCancelCmd)
	deletionsCmd.AddCommand(deletionsRunCmd)
}

func runDeletionsList(cmd *cobra.Command, args []string) error {
	pending, err := cli.ScheduledDeletions()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(pending)
		return nil
	}

	if len(pending) == 0 {
		fmt.Println("No scheduled deletions")
		return nil
	}
	for _, entry := range pending {
		due := "?"
		if entry.DueAt != nil {
			due = formatTime(*entry.DueAt)
		}
		fmt.Printf("due %s  %s (%s, rule %s)\n",
			due, entry.Path, formatBytes(entry.Size), entry.RuleName)
	}
	return nil
}

func runDeletionsCancel(cmd *cobra.Command, args []string) error {
	if err := cli.CancelScheduledDeletion(args[0]); err != nil {
		return err
	}
	printSuccess("Deletion cancelled")
	return nil
}

func runDeletionsRun(cmd *cobra.Command, args []string) error {
	deleted, err := cli.RunDeletionsNow()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"deleted": deleted})
		return nil
	}

	if deleted == 0 {
		fmt.Println("Nothing due")
	} else {
		printSuccess("Deleted %d file(s)", deleted)
	}
	return nil
}
