package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"horse.fit/newsrank/internal/cli"
	"horse.fit/newsrank/internal/config"
	"horse.fit/newsrank/internal/db"
	"horse.fit/newsrank/internal/engine"
	payloadschema "horse.fit/newsrank/schema"
)

func runRank(args []string) int {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "-", "Article batch JSON file, or - for stdin")
	preset := fs.String("preset", "", "Ranking preset (defaults to NR_DEFAULT_PRESET)")
	limit := fs.Int("limit", 0, "Maximum results (defaults to NR_DEFAULT_LIMIT)")
	offset := fs.Int("offset", 0, "Results to skip before the window")
	diversityCap := fs.Int("diversity-cap", -1, "Per-source cap, 0 disables (defaults to NR_DIVERSITY_CAP)")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	audit := fs.Bool("audit", false, "Record the run in the database (requires DATABASE_URL)")

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

	cfg, logger, reg, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	eng, err := buildEngine(cfg, reg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
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

	opts := engine.DefaultOptions()
	opts.Preset = cfg.DefaultPreset
	opts.Limit = cfg.DefaultLimit
	opts.DiversityCap = cfg.DiversityCap
	opts.SimilarityThreshold = cfg.SimilarityThreshold
	if *preset != "" {
		opts.Preset = *preset
	}
	if *limit > 0 {
		opts.Limit = *limit
	}
	if *offset > 0 {
		opts.Offset = *offset
	}
	if *diversityCap >= 0 {
		opts.DiversityCap = *diversityCap
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ranked, report, err := eng.Rank(ctx, batch.EngineArticles(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ranking failed: %v\n", err)
		return 1
	}

	if *audit {
		if !cfg.HasDatabase() {
			fmt.Fprintln(os.Stderr, "Warning: --audit requires DATABASE_URL, skipping audit")
		} else if err := auditRankingRun(ctx, cfg, report); err != nil {
			logger.Error().Err(err).Msg("ranking run audit failed")
			fmt.Fprintf(os.Stderr, "Warning: audit failed: %v\n", err)
		}
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"results": ranked,
			"report":  report,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
			return 1
		}
		return 0
	}

	if err := writeRankTable(ranked, report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func writeRankTable(ranked []engine.RankedArticle, report engine.Report) error {
	headers := []string{"POS", "SCORE", "SOURCE", "CLUSTER", "CRED", "TITLE", "FLAGS"}
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		flags := append([]string{}, r.Scores.IntegrityFlags...)
		flags = append(flags, r.Scores.CredibilityFlags...)
		flags = append(flags, r.PolicyFlags...)

		rows = append(rows, []string{
			strconv.Itoa(r.RankPosition),
			strconv.FormatFloat(r.FinalScore, 'f', 1, 64),
			truncateForTable(r.Article.SourceID, 20),
			strconv.Itoa(r.ClusterSize),
			strconv.FormatFloat(r.Scores.Credibility, 'f', 2, 64),
			truncateForTable(r.Article.Title, 60),
			truncateForTable(joinFlags(flags), 40),
		})
	}

	if err := writeTable(headers, rows); err != nil {
		return err
	}

	fmt.Printf("\n%d articles in, %d clusters, %d excluded, %d returned (preset %s, %s)\n",
		report.InputCount, report.ClusterCount, report.ExcludedCount, report.ReturnedCount,
		report.Preset, report.Elapsed.Round(time.Millisecond))
	return nil
}

func joinFlags(flags []string) string {
	if len(flags) == 0 {
		return "-"
	}
	out := flags[0]
	for _, f := range flags[1:] {
		out += "," + f
	}
	return out
}

func auditRankingRun(ctx context.Context, cfg *config.Config, report engine.Report) error {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, err = pool.InsertRankingRun(ctx, report)
	return err
}
