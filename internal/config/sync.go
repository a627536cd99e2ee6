package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// SyncConfig holds configuration for the sync and tails commands.
type SyncConfig struct {
	Storage       StorageConfig
	Upstream      UpstreamConfig
	SnapshotKey   string
	HistoryPrefix string
	TailsKey      string
	Label         string
	AuditOut      string
	AsOf          time.Time
	Pause         time.Duration
	TailPause     time.Duration
	SkipTails     bool
	LogLevel      string
	SentryDSN     string
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SyncConfig{}, err
	}

	v.SetDefault("snapshot-key", "market-data.json")
	v.SetDefault("history-prefix", "history/")
	v.SetDefault("tails-key", "tails_cache.json")
	v.SetDefault("snapshot-label", "WaveAlpha Data")
	v.SetDefault("pause", 500*time.Millisecond)
	v.SetDefault("tail-pause", 100*time.Millisecond)

	asOf, err := ParseAsOf(v.GetString("as-of"))
	if err != nil {
		return SyncConfig{}, fmt.Errorf("parse as-of: %w", err)
	}

	cfg := SyncConfig{
		Storage:       storageConfig(v),
		Upstream:      upstreamConfig(v),
		SnapshotKey:   v.GetString("snapshot-key"),
		HistoryPrefix: v.GetString("history-prefix"),
		TailsKey:      v.GetString("tails-key"),
		Label:         v.GetString("snapshot-label"),
		AuditOut:      v.GetString("audit-out"),
		AsOf:          asOf,
		Pause:         v.GetDuration("pause"),
		TailPause:     v.GetDuration("tail-pause"),
		SkipTails:     v.GetBool("skip-tails"),
		LogLevel:      v.GetString("log-level"),
		SentryDSN:     v.GetString("sentry-dsn"),
	}

	if err := cfg.Storage.Validate(); err != nil {
		return SyncConfig{}, err
	}
	if cfg.Upstream.TickerURL == "" {
		return SyncConfig{}, fmt.Errorf("ticker-url is required")
	}
	return cfg, nil
}
