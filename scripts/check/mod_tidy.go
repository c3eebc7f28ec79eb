package main

import (
	"fmt"
	"os"
	"os/exec"
)

// modTidyCheck fails when go.mod or go.sum would change under go mod tidy.
// The -diff flag leaves both files untouched.
type modTidyCheck struct{}

func (modTidyCheck) Name() string    { return "go mod tidy" }
func (modTidyCheck) CLIName() string { return "go-mod-tidy" }

func (modTidyCheck) Run(ctx *CheckContext) error {
	cmd := exec.Command("go", "mod", "tidy", "-diff")
	cmd.Dir = ctx.RootDir
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=auto")
	output, err := runCommand(cmd, true)
	if err == nil {
		return nil
	}
	fmt.Println()
	if output != "" {
		fmt.Print(indentOutput(output, "      "))
	}
	if ctx.CI {
		return fmt.Errorf("go.mod or go.sum needs tidying")
	}

	fix := exec.Command("go", "mod", "tidy")
	fix.Dir = ctx.RootDir
	fix.Env = cmd.Env
	if out, err := runCommand(fix, true); err != nil {
		fmt.Print(indentOutput(out, "      "))
		return fmt.Errorf("go mod tidy failed: %w", err)
	}
	fmt.Println("    go.mod and go.sum were tidied, review and commit the result")
	return nil
}
