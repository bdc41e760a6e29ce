package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage watched folders",
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched folders",
	Args:  cobra.NoArgs,
	RunE:  runFoldersList,
}

var foldersAddRecursive bool

var foldersAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Start watching a directory",
	Example: `  dirsort folders add ~/Downloads
  dirsort folders add /srv/incoming --recursive`,
	Args: cobra.ExactArgs(1),
	RunE: runFoldersAdd,
}

var foldersRemoveCmd = &cobra.Command{
	Use:   "remove <folder-id>",
	Short: "Stop watching a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runFoldersRemove,
}

var foldersEnableCmd = &cobra.Command{
	Use:   "enable <folder-id>",
	Short: "Enable a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFoldersToggle(args[0], true)
	},
}

var foldersDisableCmd = &cobra.Command{
	Use:   "disable <folder-id>",
	Short: "Disable a folder without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFoldersToggle(args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersListCmd)
	foldersCmd.AddCommand(foldersAddCmd)
	foldersCmd.AddCommand(foldersRemoveCmd)
	foldersCmd.AddCommand(foldersEnableCmd)
	foldersCmd.AddCommand(foldersDisableCmd)

	foldersAddCmd.Flags().BoolVarP(&foldersAddRecursive, "recursive", "r", false,
		"Watch subdirectories too")
}

func runFoldersList(cmd *cobra.Command, args []string) error {
	folders := cli.ListFolders()

	if jsonOutput {
		printJSON(folders)
		return nil
	}

	if len(folders) == 0 {
		fmt.Println("No folders configured")
		return nil
	}

	for _, folder := range folders {
		state := "enabled"
		if !folder.Enabled {
			state = "disabled"
		}
		mode := ""
		if folder.Recursive {
			mode = ", recursive"
		}
		fmt.Printf("%s  %s (%s%s, %d rules)\n",
			folder.ID, folder.Path, state, mode, len(folder.Rules))
	}
	return nil
}

func runFoldersAdd(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	folder, err := cli.AddFolder(path, foldersAddRecursive)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(folder)
		return nil
	}
	printSuccess("Watching %s (id %s)", folder.Path, folder.ID)
	return nil
}

func runFoldersRemove(cmd *cobra.Command, args []string) error {
	if err := cli.RemoveFolder(args[0]); err != nil {
		return err
	}
	printSuccess("Folder removed")
	return nil
}

func runFoldersToggle(id string, enabled bool) error {
	if err := cli.ToggleFolder(id, enabled); err != nil {
		return err
	}
	if enabled {
		printSuccess("Folder enabled")
	} else {
		printSuccess("Folder disabled")
	}
	return nil
}
