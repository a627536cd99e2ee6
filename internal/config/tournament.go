package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// TournamentConfig holds configuration for the base-data and finalize-history commands.
type TournamentConfig struct {
	Storage    StorageConfig
	Upstream   UpstreamConfig
	PGDSN      string
	BaseKey    string
	HistoryKey string
	AsOf       time.Time
	LogLevel   string
	SentryDSN  string
}

// LoadTournament merges config file, environment variables, and flags into TournamentConfig.
func LoadTournament(cfgFile string, flags *pflag.FlagSet) (TournamentConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return TournamentConfig{}, err
	}

	v.SetDefault("base-key", "tournaments-base.json")
	v.SetDefault("history-key", "finalized_history.json")

	asOf, err := ParseAsOf(v.GetString("as-of"))
	if err != nil {
		return TournamentConfig{}, fmt.Errorf("parse as-of: %w", err)
	}

	cfg := TournamentConfig{
		Storage:    storageConfig(v),
		Upstream:   upstreamConfig(v),
		PGDSN:      v.GetString("pg-dsn"),
		BaseKey:    v.GetString("base-key"),
		HistoryKey: v.GetString("history-key"),
		AsOf:       asOf,
		LogLevel:   v.GetString("log-level"),
		SentryDSN:  v.GetString("sentry-dsn"),
	}

	if err := cfg.Storage.Validate(); err != nil {
		return TournamentConfig{}, err
	}
	if cfg.PGDSN == "" {
		return TournamentConfig{}, fmt.Errorf("pg-dsn is required")
	}
	return cfg, nil
}
