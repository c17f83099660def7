package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"horse.fit/newsrank/internal/engine"
)

func runPresets(args []string) int {
	fs := flag.NewFlagSet("presets", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

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

	names := make([]string, 0, len(engine.DefaultPresets))
	for name := range engine.DefaultPresets {
		names = append(names, name)
	}
	sort.Strings(names)

	if outputFormat == outputFormatJSON {
		items := make([]map[string]any, 0, len(names))
		for _, name := range names {
			items = append(items, map[string]any{
				"name":    name,
				"weights": engine.DefaultPresets[name],
			})
		}
		if err := printJSON(map[string]any{"items": items}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	headers := []string{"PRESET", "POPULARITY", "RELEVANCE", "QUALITY", "CREDIBILITY"}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		weights := engine.DefaultPresets[name]
		rows = append(rows, []string{
			name,
			strconv.FormatFloat(weights.Popularity, 'f', 2, 64),
			strconv.FormatFloat(weights.Relevance, 'f', 2, 64),
			strconv.FormatFloat(weights.Quality, 'f', 2, 64),
			strconv.FormatFloat(weights.Credibility, 'f', 2, 64),
		})
	}
	if err := writeTable(headers, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
