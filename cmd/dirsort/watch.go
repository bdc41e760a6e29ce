package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch configured folders and apply rules continuously",
	Long: `Watch runs the engine in the foreground: an initial scan picks up
files that arrived while dirsort was not running, then new files are
processed once they stop changing. Due deletions and daily maintenance
run in the background. Stop with Ctrl-C.`,
	Example: `  dirsort watch
  dirsort watch --verbose`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	folders := cli.ListFolders()
	if len(folders) == 0 {
		printWarning("No folders configured; add one with 'dirsort folders add <path>'")
	}
	for _, folder := range folders {
		if folder.Enabled {
			printDim("watching %s", folder.Path)
		}
	}

	err := cli.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		printSuccess("Stopped")
		return nil
	}
	return err
}
