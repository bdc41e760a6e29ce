package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [folder-id]",
	Short: "Apply rules to existing files once",
	Long: `Scan walks the configured folders (or one folder) and applies their
rules to every file already present. Files no rule matches are left in
place. Scanning an unchanged folder again does nothing.`,
	Example: `  dirsort scan
  dirsort scan 2f1c9a...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	var (
		acted int
		err   error
	)
	if len(args) == 1 {
		acted, err = cli.ScanFolder(args[0])
	} else {
		acted, err = cli.ScanNow()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"acted": acted})
		return nil
	}

	if acted == 0 {
		fmt.Println("Nothing to do")
	} else {
		printSuccess("Applied rules to %d file(s)", acted)
	}
	return nil
}
