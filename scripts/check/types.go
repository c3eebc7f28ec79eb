package main

import "path/filepath"

// CheckContext carries the options shared by every gate.
type CheckContext struct {
	CI      bool
	Verbose bool
	// Containers runs the testcontainers-backed suites instead of passing -short.
	Containers bool
	RootDir    string
}

// Check is a single quality gate. CLIName is the value accepted by --check.
type Check interface {
	Name() string
	CLIName() string
	Run(ctx *CheckContext) error
}

// sourceDirs are the trees scanned by the file-level gates.
var sourceDirs = []string{"cmd", "internal", "scripts"}

func (ctx *CheckContext) sourcePaths() []string {
	paths := make([]string, 0, len(sourceDirs))
	for _, dir := range sourceDirs {
		paths = append(paths, filepath.Join(ctx.RootDir, dir))
	}
	return paths
}
