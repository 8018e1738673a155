package main

import (
	"fmt"
	"io"

	"collectsync/internal/preflight"
	"collectsync/internal/progress"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"

	checkLabelWidth = 20
)

// renderCheckLine formats one preflight result as "  Name:   [OK] detail".
func renderCheckLine(result preflight.Result, colorize bool) string {
	status, color := "[OK]", ansiGreen
	if !result.Passed {
		status, color = "[ERROR]", ansiRed
	}
	if result.Detail != "" {
		status += " " + result.Detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, result.Name+":", status)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	return progress.Interactive(w)
}
