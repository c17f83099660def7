package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"horse.fit/newsrank/internal/cli"
	"horse.fit/newsrank/internal/registry"
)

func runSources(args []string) int {
	fs := flag.NewFlagSet("sources", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	filter := fs.String("filter", "all", "all, active, or a tier name")
	stats := fs.Bool("stats", false, "Print registry statistics instead of the source list")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	_, _, reg, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *stats {
		if outputFormat == outputFormatJSON {
			if err := printJSON(reg.Stats()); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
				return 1
			}
			return 0
		}
		return printSourceStats(reg.Stats())
	}

	var sources []registry.Source
	switch strings.TrimSpace(strings.ToLower(*filter)) {
	case "", "all":
		sources = reg.All()
	case "active":
		sources = reg.Active()
	default:
		sources = reg.ByTier(strings.TrimSpace(strings.ToLower(*filter)))
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{"items": sources}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	headers := []string{"ID", "NAME", "TIER", "TRUST", "ACTIVE", "FAILURES", "LAST SUCCESS"}
	rows := make([][]string, 0, len(sources))
	for _, src := range sources {
		trust := "-"
		if src.BaseTrust > 0 {
			trust = strconv.FormatFloat(src.BaseTrust, 'f', 2, 64)
		}
		rows = append(rows, []string{
			truncateForTable(src.ID, 24),
			truncateForTable(src.Name, 28),
			src.Tier,
			trust,
			strconv.FormatBool(src.Active),
			strconv.Itoa(src.FailureCount),
			formatUTCTimestampPtr(src.LastSuccess),
		})
	}
	if err := writeTable(headers, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func printSourceStats(stats registry.Stats) int {
	fmt.Printf("Total sources:  %d\n", stats.Total)
	fmt.Printf("Active sources: %d\n", stats.Active)
	for tier, count := range stats.ByTier {
		fmt.Printf("  %-10s %d\n", tier, count)
	}
	if len(stats.Inactive) > 0 {
		fmt.Printf("Inactive: %s\n", strings.Join(stats.Inactive, ", "))
	}
	return 0
}
