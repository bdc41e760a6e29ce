package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func printSuccess(format string, args ...interface{}) {
	successColor.Printf(format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	warnColor.Printf(format+"\n", args...)
}

func printDim(format string, args ...interface{}) {
	dimColor.Printf(format+"\n", args...)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError("marshal output: %v", err)
		return
	}
	fmt.Println(string(data))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
