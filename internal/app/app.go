package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "rank":
		return runRank(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "fetch":
		return runFetch(args[1:])
	case "sources":
		return runSources(args[1:])
	case "presets":
		return runPresets(args[1:])
	case "serve":
		return runServe(args[1:])
	case "health":
		return runHealth(args[1:])
	case "hashpw":
		return runHashPassword(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "newsrank CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  newsrank <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  rank      Deduplicate and rank an article batch JSON file")
	fmt.Fprintln(os.Stderr, "  validate  Validate article batch JSON files against the v1 schema")
	fmt.Fprintln(os.Stderr, "  fetch     Fill empty article bodies by fetching readable text from their URLs")
	fmt.Fprintln(os.Stderr, "  sources   Inspect the source registry")
	fmt.Fprintln(os.Stderr, "  presets   List the ranking presets and their weights")
	fmt.Fprintln(os.Stderr, "  serve     Start the Echo API server")
	fmt.Fprintln(os.Stderr, "  health    Verify configuration and database connectivity")
	fmt.Fprintln(os.Stderr, "  hashpw    Generate the bcrypt hash for NR_ADMIN_PASSWORD_HASH")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"newsrank <command> -h\" for command-specific flags.")
}
