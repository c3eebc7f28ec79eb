package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	var (
		checkName  = flag.String("check", "", "Run a single check by name")
		ciMode     = flag.Bool("ci", false, "Disable auto-fixing (for CI)")
		containers = flag.Bool("containers", false, "Run container-backed tests")
		verbose    = flag.Bool("verbose", false, "Show detailed output")
		help       = flag.Bool("help", false, "Show help message")
		h          = flag.Bool("h", false, "Show help message")
	)
	flag.Parse()

	if *help || *h {
		showUsage()
		return
	}

	rootDir, err := findRootDir()
	if err != nil {
		printError("Error: %v", err)
		os.Exit(1)
	}

	ctx := &CheckContext{
		CI:         *ciMode,
		Verbose:    *verbose,
		Containers: *containers || os.Getenv("SUPPORTDESK_CONTAINER_TESTS") != "",
		RootDir:    rootDir,
	}
	os.Exit(run(ctx, *checkName))
}

func run(ctx *CheckContext, checkName string) int {
	start := time.Now()
	defer func() {
		fmt.Println(paintf(yellow, "⏱️  Total runtime: %s", formatDuration(time.Since(start))))
	}()

	if checkName != "" {
		check := checkByName(checkName)
		if check == nil {
			printError("Error: unknown check name: %s", checkName)
			_, _ = fmt.Fprintln(os.Stderr, "Run with --help to see available checks")
			return 1
		}
		err := runCheck(check, ctx)
		fmt.Println()
		if err != nil {
			return 1
		}
		return 0
	}

	fmt.Println("🔍 Running all checks...")
	fmt.Println()
	failed := runAllChecks(ctx)
	fmt.Println()
	if len(failed) == 0 {
		fmt.Println(paint(green, "✅ All checks passed!"))
		return 0
	}

	fmt.Println(paint(red, "❌ Some checks failed. Please fix the issues above."))
	fmt.Println()
	fmt.Println("To rerun a specific check:")
	for _, name := range failed {
		fmt.Printf("  go run ./scripts/check --check %s\n", name)
	}
	return 1
}
