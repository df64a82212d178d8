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
	case "health":
		return runHealth(args[1:])
	case "scrape":
		return runScrape(args[1:])
	case "classify":
		return runClassify(args[1:])
	case "embed":
		return runEmbed(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "highlights":
		return runHighlights(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "newsrag CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  newsrag <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  scrape      Poll RSS feeds and store new articles")
	fmt.Fprintln(os.Stderr, "  classify    Label unclassified articles by category")
	fmt.Fprintln(os.Stderr, "  embed       Generate embeddings for articles without one")
	fmt.Fprintln(os.Stderr, "  dedup       Merge near-duplicate articles into canonical records")
	fmt.Fprintln(os.Stderr, "  highlights  Recompute highlight flags for recent articles")
	fmt.Fprintln(os.Stderr, "  process     Run scrape + classify + embed + dedup + highlights in sequence")
	fmt.Fprintln(os.Stderr, "  run-once    Alias for process")
	fmt.Fprintln(os.Stderr, "  serve       Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"newsrag <command> -h\" for command-specific flags.")
}
