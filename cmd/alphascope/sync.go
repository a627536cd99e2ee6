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
	"alphaScope/internal/job"
	"alphaScope/internal/storage"
	"alphaScope/internal/upstream"
)

func runSync(cmd *cobra.Command, _ []string) error {
	return runJob(cmd, "sync", func(ctx context.Context, runner *job.Runner, logger *zap.Logger) error {
		summary, err := runner.Sync(ctx)
		logger.Info("sync complete",
			zap.Int("tokens", summary.Tokens),
			zap.Int("records", summary.Records),
			zap.Int("fetched", summary.Fetched),
			zap.Int("delisted", summary.Delisted),
			zap.Int("tails", summary.Tails),
		)
		return err
	})
}

func runTails(cmd *cobra.Command, _ []string) error {
	return runJob(cmd, "tails", func(ctx context.Context, runner *job.Runner, logger *zap.Logger) error {
		n, err := runner.Tails(ctx)
		logger.Info("tails complete", zap.Int("tokens", n))
		return err
	})
}

func runJob(cmd *cobra.Command, name string, run func(context.Context, *job.Runner, *zap.Logger) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, flush, err := newLogger(cfg.LogLevel, cfg.SentryDSN, name)
	if err != nil {
		return err
	}
	defer flush()

	if cfg.Upstream.KlinesURL == "" {
		logger.Warn("klines-url not set, volume fetches will degrade")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bucket, err := storage.OpenBucket(ctx, bucketConfig(cfg.Storage))
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	store := storage.NewBlobStore(bucket, storage.Keys{
		Snapshot:      cfg.SnapshotKey,
		HistoryPrefix: cfg.HistoryPrefix,
		Tails:         cfg.TailsKey,
	}, logger)
	defer store.Close()

	var audit storage.DecisionSink
	if cfg.AuditOut != "" {
		audit = storage.NewJsonlAuditSink(cfg.AuditOut)
	}

	runner := job.NewRunner(job.RunConfig{
		Pause:     cfg.Pause,
		TailPause: cfg.TailPause,
		Label:     cfg.Label,
		SkipTails: cfg.SkipTails,
		Now:       clock(cfg.AsOf),
	}, newSource(cfg.Upstream, logger), store, audit, logger)

	logger.Info("job start",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("snapshot_key", cfg.SnapshotKey),
		zap.Bool("proxy", cfg.Upstream.ProxyURL != ""),
		zap.Duration("pause", cfg.Pause),
		zap.Bool("skip_tails", cfg.SkipTails),
		zap.String("audit_out", cfg.AuditOut),
	)

	if err := run(ctx, runner, logger); err != nil {
		logger.Error("job failed", zap.Error(err))
		return err
	}
	return nil
}

func newSource(cfg config.UpstreamConfig, logger *zap.Logger) *upstream.Source {
	client := upstream.NewClient(upstream.Config{
		ProxyURL:          cfg.ProxyURL,
		ProxyTimeout:      cfg.ProxyTimeout,
		RequestTimeout:    cfg.RequestTimeout,
		MaxAttempts:       cfg.MaxRetries,
		RetryWait:         retryWait,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Referer:           cfg.Referer,
	}, logger)

	return upstream.NewSource(client, upstream.Endpoints{
		TickerURL:       cfg.TickerURL,
		KlinesURL:       cfg.KlinesURL,
		SymbolKlinesURL: cfg.SymbolKlinesURL,
		SpotURL:         cfg.SpotURL,
	}, cfg.PreserveCaseChains, logger)
}

func bucketConfig(cfg config.StorageConfig) storage.BucketConfig {
	return storage.BucketConfig{
		Backend:         cfg.Backend,
		Endpoint:        cfg.Endpoint,
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		LocalDir:        cfg.LocalDir,
	}
}
