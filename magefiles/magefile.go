// Package main contains Mage build targets for pdf2word developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories pdf2word expects.
var projectDirs = []string{
	"bin",
	"data",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "pdf2word"
	cmdPkg  = "./cmd/pdf2word"
)

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	mg.Deps(Init)
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + gitVersion()
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Serve builds the binary and starts the server with history recording.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve", "--history")
}

func gitVersion() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// pkgStats is the file count of one package as reported by go list.
type pkgStats struct {
	ImportPath string
	GoFiles    int
	TestFiles  int
}

// statsFormat makes go list print one "<path> <go files> <test files>" line per package.
const statsFormat = "{{.ImportPath}} {{len .GoFiles}} {{len .TestGoFiles}}"

// Stats prints source and test file counts per pdf2word package.
func Stats() error {
	out, err := sh.Output("go", "list", "-f", statsFormat, "./...")
	if err != nil {
		return fmt.Errorf("go list: %w", err)
	}
	pkgs, err := parseStats(out)
	if err != nil {
		return err
	}

	var goFiles, testFiles int
	for _, p := range pkgs {
		fmt.Printf("%-50s %3d go  %3d test\n", p.ImportPath, p.GoFiles, p.TestFiles)
		goFiles += p.GoFiles
		testFiles += p.TestFiles
	}
	fmt.Printf("%d packages, %d go files, %d test files\n", len(pkgs), goFiles, testFiles)
	return nil
}

func parseStats(out string) ([]pkgStats, error) {
	var pkgs []pkgStats
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("unexpected go list line %q", line)
		}
		goFiles, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("parsing go file count in %q: %w", line, err)
		}
		testFiles, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("parsing test file count in %q: %w", line, err)
		}
		pkgs = append(pkgs, pkgStats{ImportPath: fields[0], GoFiles: goFiles, TestFiles: testFiles})
	}
	return pkgs, nil
}
