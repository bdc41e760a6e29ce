package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dirsort/internal/models"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage a folder's rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list <folder-id>",
	Short: "List a folder's rules in application order",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesList,
}

var (
	ruleName        string
	ruleCondition   string
	ruleMoveDest    string
	ruleDeleteAfter int
	ruleDelete      bool
	ruleSubdirs     bool
	ruleWhitelist   []string
	ruleDescription string
)

var rulesAddCmd = &cobra.Command{
	Use:   "add <folder-id>",
	Short: "Add a rule to a folder",
	Long: `Add appends a rule to the folder's rule list. Rules apply in order;
the first matching rule wins. A rule either moves matching files to a
destination directory or deletes them, optionally after a grace period
counted from when the file was first seen.`,
	Example: `  dirsort rules add <folder-id> --name docs --condition "*.pdf OR *.docx" --move ~/Documents
  dirsort rules add <folder-id> --name cleanup --condition "*.tmp" --delete
  dirsort rules add <folder-id> --name old-zips --condition "*.zip" --delete --after-days 14`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesAdd,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <folder-id> <rule-id>",
	Short: "Remove a rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesRemove,
}

var rulesReorderCmd = &cobra.Command{
	Use:   "reorder <folder-id> <rule-id>...",
	Short: "Set a folder's rule application order",
	Long: `Reorder takes the complete list of the folder's rule ids in the
desired order.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRulesReorder,
}

var rulesStatsCmd = &cobra.Command{
	Use:   "stats <folder-id>",
	Short: "Show per-rule executions for the past week",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesStats,
}

var (
	toggleRuleEnable  bool
	toggleRuleDisable bool
)

var rulesToggleCmd = &cobra.Command{
	Use:   "toggle <folder-id> <rule-id>",
	Short: "Enable or disable a rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesToggle,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesReorderCmd)
	rulesCmd.AddCommand(rulesStatsCmd)
	rulesCmd.AddCommand(rulesToggleCmd)

	rulesAddCmd.Flags().StringVarP(&ruleName, "name", "n", "", "Rule name (required)")
	rulesAddCmd.Flags().StringVarP(&ruleCondition, "condition", "c", "*",
		"Condition text, e.g. '*.pdf AND NOT *draft*'")
	rulesAddCmd.Flags().StringVar(&ruleMoveDest, "move", "",
		"Move matches into this directory")
	rulesAddCmd.Flags().BoolVar(&ruleDelete, "delete", false,
		"Delete matches (safe-delete with undo)")
	rulesAddCmd.Flags().IntVar(&ruleDeleteAfter, "after-days", 0,
		"Grace period in days before a delete runs")
	rulesAddCmd.Flags().BoolVar(&ruleSubdirs, "match-subdirectories", false,
		"Match the condition against the folder-relative path")
	rulesAddCmd.Flags().StringSliceVar(&ruleWhitelist, "whitelist", nil,
		"Glob patterns this rule skips")
	rulesAddCmd.Flags().StringVar(&ruleDescription, "description", "", "Rule description")
	_ = rulesAddCmd.MarkFlagRequired("name")

	rulesToggleCmd.Flags().BoolVar(&toggleRuleEnable, "enable", false, "Enable the rule")
	rulesToggleCmd.Flags().BoolVar(&toggleRuleDisable, "disable", false, "Disable the rule")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	rules, err := cli.ListRules(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(rules)
		return nil
	}

	if len(rules) == 0 {
		fmt.Println("No rules configured")
		return nil
	}

	for i, rule := range rules {
		state := ""
		if !rule.Enabled {
			state = " (disabled)"
		}
		fmt.Printf("%2d. %s  %s%s\n", i+1, rule.ID, rule.Name, state)
		fmt.Printf("     when %s\n", rule.ConditionText)
		switch rule.Action.Kind {
		case models.ActionMove:
			fmt.Printf("     move to %s\n", rule.Action.Destination)
		case models.ActionDelete:
			if rule.Action.AfterDays > 0 {
				fmt.Printf("     delete after %d day(s)\n", rule.Action.AfterDays)
			} else {
				fmt.Printf("     delete\n")
			}
		}
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	if (ruleMoveDest == "") == !ruleDelete {
		return fmt.Errorf("exactly one of --move or --delete is required")
	}

	action := models.Action{}
	if ruleDelete {
		action.Kind = models.ActionDelete
		action.AfterDays = ruleDeleteAfter
	} else {
		dest, err := filepath.Abs(ruleMoveDest)
		if err != nil {
			return fmt.Errorf("resolve destination: %w", err)
		}
		action.Kind = models.ActionMove
		action.Destination = dest
	}

	rule, err := cli.AddRule(args[0], &models.Rule{
		Name:                ruleName,
		Description:         ruleDescription,
		Enabled:             true,
		ConditionText:       ruleCondition,
		Action:              action,
		Whitelist:           ruleWhitelist,
		MatchSubdirectories: ruleSubdirs,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(rule)
		return nil
	}
	printSuccess("Rule %q added (id %s)", rule.Name, rule.ID)
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	if err := cli.DeleteRule(args[0], args[1]); err != nil {
		return err
	}
	printSuccess("Rule removed")
	return nil
}

func runRulesReorder(cmd *cobra.Command, args []string) error {
	if err := cli.ReorderRules(args[0], args[1:]); err != nil {
		return err
	}
	printSuccess("Rules reordered")
	return nil
}

func runRulesStats(cmd *cobra.Command, args []string) error {
	stats, err := cli.RuleStats(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(stats)
		return nil
	}

	if len(stats) == 0 {
		fmt.Println("No rule executions this week")
		return nil
	}
	for _, st := range stats {
		last := "never"
		if st.LastExecuted != nil {
			last = formatTime(*st.LastExecuted)
		}
		fmt.Printf("%-20s %3d this week, last %s\n", st.RuleName, st.ExecutionsIn7, last)
	}
	return nil
}

func runRulesToggle(cmd *cobra.Command, args []string) error {
	if toggleRuleEnable == toggleRuleDisable {
		return fmt.Errorf("exactly one of --enable or --disable is required")
	}

	rules, err := cli.ListRules(args[0])
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if rule.ID == args[1] {
			rule.Enabled = toggleRuleEnable
			if err := cli.UpdateRule(args[0], rule); err != nil {
				return err
			}
			if rule.Enabled {
				printSuccess("Rule enabled")
			} else {
				printSuccess("Rule disabled")
			}
			return nil
		}
	}
	return models.ErrRuleNotFound
}
