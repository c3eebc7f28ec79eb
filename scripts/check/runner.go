package main

import (
	"fmt"
	"strings"
	"time"
)

func showUsage() {
	fmt.Println("Usage: go run ./scripts/check [OPTIONS]")
	fmt.Println()
	fmt.Println("Run the supportdesk quality gates.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("    --check NAME                Run a single check by name")
	fmt.Println("    --ci                        Disable auto-fixing (for CI)")
	fmt.Println("    --containers                Run container-backed tests (needs Docker)")
	fmt.Println("    --verbose                   Show detailed output")
	fmt.Println("    -h, --help                  Show this help message")
	fmt.Println()
	fmt.Println("SUPPORTDESK_CONTAINER_TESTS=1 has the same effect as --containers.")
	fmt.Println()
	fmt.Println("Available check names:")
	fmt.Printf("  %s\n", strings.Join(checkNames(), ", "))
}

// runCheck runs one gate and prints its verdict with timing.
func runCheck(check Check, ctx *CheckContext) error {
	fmt.Printf("  • %s... ", check.Name())
	start := time.Now()
	err := check.Run(ctx)
	took := formatDuration(time.Since(start))

	if err != nil {
		fmt.Printf("%s (%s)\n", paint(red, "FAILED"), took)
		if ctx.Verbose {
			fmt.Printf("      Error: %v\n", err)
		}
		return err
	}
	fmt.Printf("%s (%s)\n", paint(green, "OK"), took)
	return nil
}

// runAllChecks runs every gate and returns the CLI names of the failures.
func runAllChecks(ctx *CheckContext) []string {
	var failed []string
	for _, check := range allChecks() {
		if err := runCheck(check, ctx); err != nil {
			failed = append(failed, check.CLIName())
		}
	}
	return failed
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
