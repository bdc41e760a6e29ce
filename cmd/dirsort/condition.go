package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dirsort/internal/models"
)

var conditionCmd = &cobra.Command{
	Use:   "condition",
	Short: "Work with condition expressions",
	Long: `Conditions combine glob patterns (* and ?), /regex/ literals and the
operators AND, OR and NOT, with NOT binding tightest and OR loosest.
A bare * or an empty condition matches everything.`,
}

var conditionValidateCmd = &cobra.Command{
	Use:     "validate <condition>",
	Short:   "Check condition syntax",
	Example: `  dirsort condition validate "*.pdf AND NOT *draft*"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runConditionValidate,
}

var conditionFormatCmd = &cobra.Command{
	Use:   "format <condition>",
	Short: "Print the canonical form of a condition",
	Args:  cobra.ExactArgs(1),
	RunE:  runConditionFormat,
}

var conditionTestCmd = &cobra.Command{
	Use:     "test <condition> <name>...",
	Short:   "Evaluate a condition against file names",
	Example: `  dirsort condition test "*.pdf OR /^report/" invoice.pdf report.txt notes.md`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runConditionTest,
}

func init() {
	rootCmd.AddCommand(conditionCmd)
	conditionCmd.AddCommand(conditionValidateCmd)
	conditionCmd.AddCommand(conditionFormatCmd)
	conditionCmd.AddCommand(conditionTestCmd)
}

func runConditionValidate(cmd *cobra.Command, args []string) error {
	if err := cli.ValidateCondition(args[0]); err != nil {
		var parseErr *models.ParseError
		if errors.As(err, &parseErr) && !jsonOutput {
			fmt.Println(args[0])
			fmt.Println(strings.Repeat(" ", parseErr.Pos) + "^")
		}
		return err
	}

	printSuccess("Condition is valid")
	return nil
}

func runConditionFormat(cmd *cobra.Command, args []string) error {
	cond, err := cli.ParseCondition(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(cond)
		return nil
	}
	fmt.Println(cli.SerializeCondition(cond))
	return nil
}

func runConditionTest(cmd *cobra.Command, args []string) error {
	names := args[1:]
	verdicts, err := cli.TestCondition(args[0], names)
	if err != nil {
		return err
	}

	if jsonOutput {
		result := make(map[string]bool, len(names))
		for i, name := range names {
			result[name] = verdicts[i]
		}
		printJSON(result)
		return nil
	}

	for i, name := range names {
		if verdicts[i] {
			printSuccess("match    %s", name)
		} else {
			printDim("no match %s", name)
		}
	}
	return nil
}
