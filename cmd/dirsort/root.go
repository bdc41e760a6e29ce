package main

import (
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dirsort/internal/client"
	"github.com/TheMichaelB/dirsort/internal/config"
	"github.com/TheMichaelB/dirsort/internal/events"
)

var (
	cfgPath    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *events.Logger
	cli    *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "dirsort",
	Short: "Rule-driven directory organizer",
	Long: `Dirsort watches folders and applies ordered rules to arriving files:
move them by pattern, schedule deletions with a grace period, and keep
every deletion undoable for a retention window.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(cfgPath)

		var err error
		cfg, err = loader.Load()
		if err != nil {
			return err
		}

		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = events.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
		if err != nil {
			return err
		}

		cli, err = client.New(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cli != nil {
			return cli.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Config file path (default: dirsort.json, ~/.config/dirsort/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}
