package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/newsrank/internal/reader"
	payloadschema "horse.fit/newsrank/schema"
)

// runFetch hydrates a batch: articles submitted with an empty body get
// their readable text fetched from their URL before ranking.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	input := fs.String("input", "-", "Article batch JSON file, or - for stdin")
	timeout := fs.Duration("timeout", reader.DefaultFetchTimeout, "Per-article fetch timeout")
	userAgent := fs.String("user-agent", "", "Override the fetch User-Agent header")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	raw, err := readInput(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	batch, err := payloadschema.ValidateArticleBatch(json.RawMessage(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid article batch: %v\n", err)
		return 1
	}

	opts := reader.FetchOptions{
		Timeout:   *timeout,
		UserAgent: *userAgent,
	}

	fetched := 0
	failed := 0
	for i := range batch.Articles {
		item := &batch.Articles[i]
		if strings.TrimSpace(item.Body) != "" {
			continue
		}
		if strings.TrimSpace(item.URL) == "" {
			failed++
			fmt.Fprintf(os.Stderr, "SKIP %s: empty body and no url\n", item.ID)
			continue
		}

		page, err := reader.FetchPage(context.Background(), item.URL, opts)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", item.ID, err)
			continue
		}

		item.Body = page.Body
		fetched++
	}

	if err := printJSON(batch); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Fetched %d bodies, %d failed, %d articles total (timeout %s)\n",
		fetched, failed, len(batch.Articles), timeout.Round(time.Second))
	if failed > 0 {
		return 1
	}
	return 0
}
