package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// gofmtCheck lists unformatted files and rewrites them outside CI.
type gofmtCheck struct{}

func (gofmtCheck) Name() string    { return "gofmt" }
func (gofmtCheck) CLIName() string { return "gofmt" }

func (gofmtCheck) Run(ctx *CheckContext) error {
	paths := ctx.sourcePaths()
	unformatted := listUnformatted(paths)
	if len(unformatted) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("    Files not formatted:")
	for _, file := range unformatted {
		fmt.Printf("      %s\n", file)
	}
	if ctx.CI {
		return fmt.Errorf("%d files need formatting", len(unformatted))
	}

	args := append([]string{"-s", "-w"}, paths...)
	if output, err := runCommand(exec.Command("gofmt", args...), true); err != nil {
		fmt.Print(indentOutput(output, "      "))
		return fmt.Errorf("gofmt -w failed: %w", err)
	}
	if remaining := listUnformatted(paths); len(remaining) > 0 {
		return fmt.Errorf("%d files still unformatted after gofmt -w", len(remaining))
	}
	return nil
}

func listUnformatted(paths []string) []string {
	args := append([]string{"-s", "-l"}, paths...)
	output, _ := runCommand(exec.Command("gofmt", args...), true)
	var files []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files
}

// toolCheck runs a Go analysis binary against the whole module.
type toolCheck struct {
	name    string
	cliName string
	binary  string
	// install is the go install target used when binary is missing.
	install string
	args    []string
	// result turns raw output into a verdict. Nil means a non-zero exit fails.
	result func(output string, err error) error
}

func (c toolCheck) Name() string    { return c.name }
func (c toolCheck) CLIName() string { return c.cliName }

func (c toolCheck) Run(ctx *CheckContext) error {
	if c.install != "" {
		addGoPathToPath()
		if err := ensureToolInstalled(c.binary, "go install "+c.install); err != nil {
			return fmt.Errorf("failed to install %s: %w", c.binary, err)
		}
	}

	cmd := exec.Command(c.binary, c.args...)
	cmd.Dir = ctx.RootDir
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=auto")
	output, err := runCommand(cmd, true)

	if c.result != nil {
		err = c.result(output, err)
	}
	if err != nil {
		fmt.Println()
		fmt.Print(indentOutput(output, "      "))
		return fmt.Errorf("%s failed: %w", c.name, err)
	}
	return nil
}

// govulnResult passes when no vulnerable symbol is reachable from our code,
// even if dependencies carry advisories we never call.
func govulnResult(output string, err error) error {
	if strings.Contains(output, "Your code is affected by 0 vulnerabilities") {
		return nil
	}
	if strings.Contains(output, "Your code is affected by") {
		return fmt.Errorf("vulnerable code paths found")
	}
	return err
}

// complexityCheck warns about functions over the gocyclo threshold. It never fails.
type complexityCheck struct {
	over int
}

func (c complexityCheck) Name() string {
	return fmt.Sprintf("gocyclo (complexity > %d, excluding tests)", c.over)
}

func (complexityCheck) CLIName() string { return "gocyclo" }

func (c complexityCheck) Run(ctx *CheckContext) error {
	addGoPathToPath()
	if !commandExists("gocyclo") {
		fmt.Print(paint(yellow, "SKIP") + " (gocyclo not found) ")
		return nil
	}

	var files []string
	for _, root := range ctx.sourcePaths() {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	if len(files) == 0 {
		return nil
	}

	args := append([]string{"-over", fmt.Sprint(c.over)}, files...)
	output, _ := runCommand(exec.Command("gocyclo", args...), true)
	output = strings.TrimSpace(output)
	if output == "" {
		return nil
	}
	lines := strings.Split(output, "\n")
	fmt.Printf("%s (%d functions)\n", paint(yellow, "WARN"), len(lines))
	for _, line := range lines[:min(5, len(lines))] {
		fmt.Printf("      %s\n", line)
	}
	return nil
}

// buildCheck compiles both binaries. The sandbox has no tests of its own,
// so this is the only gate that notices when it drifts from internal/app.
type buildCheck struct{}

func (buildCheck) Name() string    { return "build server and sandbox" }
func (buildCheck) CLIName() string { return "build" }

func (buildCheck) Run(ctx *CheckContext) error {
	cmd := exec.Command("go", "build", "./cmd/server", "./cmd/sandbox")
	cmd.Dir = ctx.RootDir
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=auto")
	if output, err := runCommand(cmd, true); err != nil {
		fmt.Println()
		fmt.Print(indentOutput(output, "      "))
		return fmt.Errorf("build failed")
	}
	return nil
}

// testsCheck runs the race-enabled suite.
type testsCheck struct{}

func (testsCheck) Name() string    { return "tests" }
func (testsCheck) CLIName() string { return "tests" }

func (testsCheck) Run(ctx *CheckContext) error {
	cmd := exec.Command("go", testArgs(ctx)...)
	cmd.Dir = ctx.RootDir
	cmd.Env = append(os.Environ(), "GOTOOLCHAIN=auto")
	output, err := runCommand(cmd, true)
	if err != nil {
		fmt.Println()
		fmt.Print(indentOutput(output, "      "))
		return fmt.Errorf("tests failed")
	}
	if ctx.Verbose {
		fmt.Println()
		fmt.Print(indentOutput(output, "      "))
	}
	return nil
}

// testArgs skips the container-backed suites unless asked for them.
func testArgs(ctx *CheckContext) []string {
	args := []string{"test", "-race"}
	if !ctx.Containers {
		args = append(args, "-short")
	}
	return append(args, "./cmd/...", "./internal/...", "./scripts/...")
}
