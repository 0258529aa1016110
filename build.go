//go:build ignore

// build.go - Report Cleaner build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, cleancsv, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "reportclean"

var (
	distDir = "dist"

	// Executable names (key = source dir under cmd/, value = output name)
	executables = map[string]string{
		"web":      "reportclean-web",
		"cleancsv": "cleancsv",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	startTime := time.Now()

	switch *target {
	case "all":
		for name := range executables {
			buildExecutable(name, *verbose)
		}
		copyConfigFiles()
	case "web", "cleancsv":
		buildExecutable(*target, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	default:
		printError(fmt.Sprintf("unknown target %q (all, web, cleancsv, test, clean)", *target))
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

// ldflags stamps build time and commit into pkg/contracts
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	} else {
		printWarning("git commit not available, using \"unknown\"")
	}

	return strings.Join([]string{
		"-s", "-w",
		fmt.Sprintf("-X %s/pkg/contracts.BuildTime=%s", module, time.Now().UTC().Format(time.RFC3339)),
		fmt.Sprintf("-X %s/pkg/contracts.GitCommit=%s", module, commit),
	}, " ")
}

func buildExecutable(name string, verbose bool) {
	output := executables[name]
	if runtime.GOOS == "windows" {
		output += ".exe"
	}
	output = filepath.Join(distDir, output)
	printInfo(fmt.Sprintf("Building %s -> %s", name, output))

	args := []string{"build", "-trimpath", "-ldflags", ldflags(), "-o", output}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./cmd/"+name)

	if err := runCommand("go", args...); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}
}

func runTests(verbose bool) {
	printInfo("Running tests...")
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	if err := runCommand("go", args...); err != nil {
		printError(fmt.Sprintf("Tests failed: %v", err))
		os.Exit(1)
	}
}

func copyConfigFiles() {
	src := filepath.Join("configs", "config.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		printWarning(fmt.Sprintf("No config to copy: %v", err))
		return
	}
	if err := os.WriteFile(filepath.Join(distDir, "config.yaml"), data, 0644); err != nil {
		printError(fmt.Sprintf("Failed to copy %s: %v", src, err))
		os.Exit(1)
	}
	printInfo("Copied " + src)
}

func clean() {
	printInfo("Removing " + distDir)
	if err := os.RemoveAll(distDir); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
