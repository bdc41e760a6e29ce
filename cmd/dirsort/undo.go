package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo <undo-id>",
	Short: "Restore a deleted file",
	Long: `Undo moves a staged deletion back to its original location. If the
original path is occupied the restore fails and can be retried once the
path is free. Entries expire after the retention window (default 7 days).`,
	Example: `  dirsort undo list
  dirsort undo 7c0e33...`,
	Args: cobra.ExactArgs(1),
	RunE: runUndo,
}

var undoListAll bool

var undoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List restorable deletions",
	Args:  cobra.NoArgs,
	RunE:  runUndoList,
}

func init() {
	rootCmd.AddCommand(undoCmd)
	undoCmd.AddCommand(undoListCmd)

	undoListCmd.Flags().BoolVarP(&undoListAll, "all", "a", false,
		"Include already-restored entries")
}

func runUndo(cmd *cobra.Command, args []string) error {
	entry, err := cli.Undo(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entry)
		return nil
	}
	printSuccess("Restored %s", entry.OriginalPath)
	return nil
}

func runUndoList(cmd *cobra.Command, args []string) error {
	entries, err := cli.UndoHistory(undoListAll)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(entries)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("Nothing to restore")
		return nil
	}
	for _, entry := range entries {
		state := fmt.Sprintf("expires %s", formatTime(entry.ExpiresAt))
		if entry.Restored {
			state = "restored"
		}
		fmt.Printf("%s  %s (%s)\n", entry.ID, entry.OriginalPath, state)
	}
	return nil
}
