package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alphaScope/internal/config"
	"alphaScope/internal/storage"
	"alphaScope/internal/storage/postgres"
	"alphaScope/internal/tournament"
)

type tournamentDeps struct {
	cfg     config.TournamentConfig
	records *postgres.Store
	store   *storage.BlobStore
	logger  *zap.Logger
}

func runBaseData(cmd *cobra.Command, _ []string) error {
	return runTournament(cmd, "base-data", func(ctx context.Context, deps tournamentDeps) error {
		exporter := tournament.NewBaseExporter(tournament.BaseExporterConfig{
			Key: deps.cfg.BaseKey,
			Now: clock(deps.cfg.AsOf),
		}, deps.records, newSource(deps.cfg.Upstream, deps.logger), deps.store, deps.logger)

		_, err := exporter.Export(ctx)
		return err
	})
}

func runFinalizeHistory(cmd *cobra.Command, _ []string) error {
	return runTournament(cmd, "finalize-history", func(ctx context.Context, deps tournamentDeps) error {
		exporter := tournament.NewHistoryExporter(tournament.HistoryExporterConfig{
			Key: deps.cfg.HistoryKey,
			Now: clock(deps.cfg.AsOf),
		}, deps.records, deps.store, deps.logger)

		_, err := exporter.Export(ctx)
		return err
	})
}

func runTournament(cmd *cobra.Command, name string, run func(context.Context, tournamentDeps) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTournament(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, flush, err := newLogger(cfg.LogLevel, cfg.SentryDSN, name)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer records.Close()

	bucket, err := storage.OpenBucket(ctx, bucketConfig(cfg.Storage))
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	store := storage.NewBlobStore(bucket, storage.Keys{}, logger)
	defer store.Close()

	logger.Info("job start", zap.String("backend", cfg.Storage.Backend))

	if err := run(ctx, tournamentDeps{cfg: cfg, records: records, store: store, logger: logger}); err != nil {
		logger.Error("job failed", zap.Error(err))
		return err
	}
	return nil
}
