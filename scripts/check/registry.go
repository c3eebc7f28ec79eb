package main

import "strings"

// allChecks returns every gate in run order. Cheap file-level gates go
// first so formatting noise shows up before the slow ones.
func allChecks() []Check {
	return []Check{
		gofmtCheck{},
		modTidyCheck{},
		toolCheck{name: "go vet", cliName: "go-vet", binary: "go", args: []string{"vet", "./..."}},
		toolCheck{
			name:    "staticcheck",
			cliName: "staticcheck",
			binary:  "staticcheck",
			install: "honnef.co/go/tools/cmd/staticcheck@latest",
			args:    []string{"./..."},
		},
		toolCheck{
			name:    "govulncheck",
			cliName: "govulncheck",
			binary:  "govulncheck",
			install: "golang.org/x/vuln/cmd/govulncheck@latest",
			args:    []string{"./..."},
			result:  govulnResult,
		},
		toolCheck{
			name:    "misspell",
			cliName: "misspell",
			binary:  "misspell",
			install: "github.com/client9/misspell/cmd/misspell@latest",
			args:    append([]string{"-error"}, sourceDirs...),
		},
		complexityCheck{over: 15},
		buildCheck{},
		testsCheck{},
	}
}

// checkByName resolves a --check value against CLI names, then display names.
func checkByName(name string) Check {
	for _, check := range allChecks() {
		if strings.EqualFold(check.CLIName(), name) || strings.EqualFold(check.Name(), name) {
			return check
		}
	}
	return nil
}

func checkNames() []string {
	checks := allChecks()
	names := make([]string, 0, len(checks))
	for _, check := range checks {
		names = append(names, check.CLIName())
	}
	return names
}
