package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"horse.fit/newsrank/internal/auth"
	"horse.fit/newsrank/internal/cli"
	"horse.fit/newsrank/internal/db"
	"horse.fit/newsrank/internal/httpapi"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	addr := fs.String("addr", "", "Listen address (defaults to NR_LISTEN_ADDR)")

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

	eng, err := buildEngine(cfg, reg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("engine initialization failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *db.Pool
	if cfg.HasDatabase() {
		pool, err = db.NewPool(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("database connection failed")
			return 1
		}
		defer pool.Close()

		if err := pool.SyncSources(ctx, reg.All()); err != nil {
			logger.Warn().Err(err).Msg("source sync failed, continuing with in-memory registry")
		} else if persisted, err := pool.LoadSources(ctx); err != nil {
			logger.Warn().Err(err).Msg("loading persisted source health failed")
		} else {
			for _, row := range persisted {
				reg.RestoreHealth(row.SourceID, row.Active, row.FailureCount, row.LastSuccess, row.LastAttempt)
			}
		}
	} else {
		logger.Info().Msg("DATABASE_URL not set, ranking runs will not be audited")
	}

	listenAddr := cfg.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}

	server := httpapi.NewServer(eng, reg, pool, logger, httpapi.Options{
		Addr:           listenAddr,
		DefaultPreset:  cfg.DefaultPreset,
		DefaultLimit:   cfg.DefaultLimit,
		MaxLimit:       cfg.MaxLimit,
		DiversityCap:   cfg.DiversityCap,
		AllowedOrigins: cfg.CORSAllowedOriginsList(),
		Admin: auth.AdminCredentials{
			Username:     cfg.AdminUser,
			PasswordHash: cfg.AdminPasswordHash,
		},
	})

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("api server failed")
		return 1
	}
	return 0
}
