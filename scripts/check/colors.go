package main

import (
	"fmt"
	"os"
	"strings"
)

type color string

const (
	reset  color = "\033[0m"
	red    color = "\033[31m"
	green  color = "\033[32m"
	yellow color = "\033[33m"
)

// colorEnabled follows the NO_COLOR convention so CI logs stay readable.
var colorEnabled = os.Getenv("NO_COLOR") == ""

func paint(c color, text string) string {
	if !colorEnabled {
		return text
	}
	return string(c) + text + string(reset)
}

func paintf(c color, format string, args ...any) string {
	return paint(c, fmt.Sprintf(format, args...))
}

// indentOutput prefixes every non-blank line of tool output.
func indentOutput(output, indent string) string {
	var b strings.Builder
	for line := range strings.Lines(output) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func printError(format string, args ...any) {
	_, _ = fmt.Fprintln(os.Stderr, paintf(red, format, args...))
}
