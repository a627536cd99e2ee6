package main

import (
	"os"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"alphaScope/internal/config"
)

// retryWait separates upstream request attempts.
const retryWait = time.Second

func main() {
	config.LoadDotEnv("")

	root := &cobra.Command{
		Use:          "alphascope",
		Short:        "Alpha token lifecycle reconciliation",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the token universe and publish the market snapshot",
		RunE:  runSync,
	}
	addStorageFlags(syncCmd.Flags())
	addUpstreamFlags(syncCmd.Flags())
	addOutputFlags(syncCmd.Flags())
	syncCmd.Flags().Duration("pause", 500*time.Millisecond, "pause after each token that hit the network")
	syncCmd.Flags().Duration("tail-pause", 100*time.Millisecond, "pause after each token in the tail pass")
	syncCmd.Flags().String("audit-out", "", "optional JSONL path for reconciliation decisions")
	syncCmd.Flags().Bool("skip-tails", false, "publish the snapshot only")
	addRunFlags(syncCmd.Flags())

	root.AddCommand(syncCmd)

	tailsCmd := &cobra.Command{
		Use:   "tails",
		Short: "Rebuild yesterday's per-minute volume tails",
		RunE:  runTails,
	}
	addStorageFlags(tailsCmd.Flags())
	addUpstreamFlags(tailsCmd.Flags())
	addOutputFlags(tailsCmd.Flags())
	tailsCmd.Flags().Duration("tail-pause", 100*time.Millisecond, "pause after each token")
	addRunFlags(tailsCmd.Flags())

	root.AddCommand(tailsCmd)

	baseCmd := &cobra.Command{
		Use:   "base-data",
		Short: "Export base volumes of active tournaments",
		RunE:  runBaseData,
	}
	addStorageFlags(baseCmd.Flags())
	addUpstreamFlags(baseCmd.Flags())
	addTournamentFlags(baseCmd.Flags())
	addRunFlags(baseCmd.Flags())

	root.AddCommand(baseCmd)

	historyCmd := &cobra.Command{
		Use:   "finalize-history",
		Short: "Export finished tournaments to the history archive",
		RunE:  runFinalizeHistory,
	}
	addStorageFlags(historyCmd.Flags())
	addTournamentFlags(historyCmd.Flags())
	addRunFlags(historyCmd.Flags())

	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStorageFlags(fs *pflag.FlagSet) {
	fs.String("storage-backend", "s3", "object store backend (s3, file, mem)")
	fs.String("r2-endpoint", "", "S3-compatible endpoint URL")
	fs.String("r2-bucket", "", "bucket name")
	fs.String("r2-access-key-id", "", "access key id")
	fs.String("r2-secret-access-key", "", "secret access key")
	fs.String("r2-region", "auto", "bucket region")
	fs.String("local-dir", "", "directory for the file backend")
}

func addUpstreamFlags(fs *pflag.FlagSet) {
	fs.String("ticker-url", "", "aggregated ticker URL")
	fs.String("klines-url", "", "token kline URL")
	fs.String("symbol-klines-url", "", "symbol kline URL")
	fs.String("spot-url", "", "spot exchange info URL")
	fs.String("proxy-url", "", "proxy tried before direct requests")
	fs.Duration("request-timeout", 15*time.Second, "direct request timeout")
	fs.Duration("proxy-timeout", 30*time.Second, "proxied request timeout")
	fs.Int("max-retries", 3, "attempts per request")
	fs.Float64("requests-per-second", 0, "request pacing, 0 disables")
	fs.StringSlice("preserve-case-chains", []string{"CT_501", "CT_784"}, "chains whose addresses are case sensitive")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.String("snapshot-key", "market-data.json", "latest snapshot object key")
	fs.String("history-prefix", "history/", "dated snapshot key prefix")
	fs.String("tails-key", "tails_cache.json", "tail table object key")
	fs.String("snapshot-label", "WaveAlpha Data", "snapshot label")
}

func addTournamentFlags(fs *pflag.FlagSet) {
	fs.String("pg-dsn", "", "Postgres DSN of the tournament store")
	fs.String("base-key", "tournaments-base.json", "base data object key")
	fs.String("history-key", "finalized_history.json", "finalized history object key")
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("as-of", "", "run time override (unix seconds or RFC3339)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("sentry-dsn", "", "optional Sentry DSN for error reporting")
}

// newLogger builds the production logger tagged with a fresh run id. When
// sentryDSN is set, error entries are also sent to Sentry; call flush before
// exiting.
func newLogger(level, sentryDSN, command string) (*zap.Logger, func(), error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()), zap.String("command", command))

	flush := func() { _ = logger.Sync() }
	if sentryDSN == "" {
		return logger, flush, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: sentryDSN})
	if err != nil {
		return nil, nil, err
	}
	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags:              map[string]string{"command": command},
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return nil, nil, err
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

	return logger, func() {
		_ = logger.Sync()
		client.Flush(2 * time.Second)
	}, nil
}

func clock(asOf time.Time) func() time.Time {
	if asOf.IsZero() {
		return time.Now
	}
	return func() time.Time { return asOf }
}
