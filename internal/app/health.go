package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/newsrank/internal/cli"
	"horse.fit/newsrank/internal/db"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, reg, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	stats := reg.Stats()
	fmt.Printf("config: ok (environment %s)\n", cfg.Environment)
	fmt.Printf("sources: %d loaded, %d active\n", stats.Total, stats.Active)

	if !cfg.HasDatabase() {
		fmt.Println("database: not configured")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Printf("database: unreachable (%v)\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Printf("database: ping failed (%v)\n", err)
		return 1
	}

	fmt.Println("database: ok")
	return 0
}
