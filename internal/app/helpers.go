package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/newsrank/internal/cli"
	"horse.fit/newsrank/internal/config"
	"horse.fit/newsrank/internal/engine"
	"horse.fit/newsrank/internal/logging"
	"horse.fit/newsrank/internal/registry"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

func parseOutputFormat(raw, defaultFormat string) (string, error) {
	format := strings.TrimSpace(strings.ToLower(raw))
	if format == "" {
		format = strings.TrimSpace(strings.ToLower(defaultFormat))
	}
	switch format {
	case outputFormatTable, outputFormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("--format must be table or json")
	}
}

func truncateForTable(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 {
		return trimmed
	}
	if utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}

	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func formatUTCTimestampPtr(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeTable(headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(writer, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// readInput reads an article batch from a file, or stdin when the path
// is "-" or empty.
func readInput(path string) ([]byte, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	return raw, nil
}

// loadRuntime loads env, config, logger, and the source registry in the
// order every command needs them.
func loadRuntime(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, *registry.Registry, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, err := registry.Load(cfg.SourcesFile, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SourcesFile).Msg("sources file not loaded, all sources treated as unknown")
		reg = registry.Empty(logger)
	}

	return cfg, logger, reg, nil
}

func buildEngine(cfg *config.Config, reg *registry.Registry, logger zerolog.Logger) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		Trust:                  reg,
		CorroborationThreshold: cfg.CorroborationThreshold,
		FreshnessHalfLife:      time.Duration(cfg.FreshnessHalfLifeHours) * time.Hour,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return eng, nil
}
