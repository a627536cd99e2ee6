// Package job runs the scheduled passes: the reconciliation sync that
// publishes the market snapshot, and the tail pass.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alphaScope/internal/alpha"
	"alphaScope/internal/model"
	"alphaScope/internal/storage"
)

const updatedAtLayout = "2006-01-02 15:04:05"

// Source is everything the passes need from upstream.
type Source interface {
	ListTokens(ctx context.Context) ([]model.RawTokenEntry, error)
	SpotSymbols(ctx context.Context) (model.SpotSet, error)
	alpha.VolumeFetcher
	alpha.IntradayFetcher
}

// RunConfig holds runtime settings for the passes.
type RunConfig struct {
	Pause     time.Duration
	TailPause time.Duration
	Label     string
	SkipTails bool
	Now       func() time.Time
}

// Summary reports what a run produced.
type Summary struct {
	Tokens   int
	Records  int
	Fetched  int
	Delisted int
	Tails    int
}

// Runner wires upstream, the reconciliation core and storage together.
type Runner struct {
	cfg    RunConfig
	source Source
	store  storage.SnapshotStore
	audit  storage.DecisionSink
	logger *zap.Logger
}

// NewRunner builds a Runner. audit may be nil.
func NewRunner(cfg RunConfig, source Source, store storage.SnapshotStore, audit storage.DecisionSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg, source: source, store: store, audit: audit, logger: logger}
}

// Sync reconciles the token universe against the previous snapshot, publishes
// the new snapshot and, unless skipped, the tail table. Only the token list,
// the prior snapshot read and cancellation abort the run; a failed snapshot
// upload still lets the tail pass run and is reported at the end.
func (r *Runner) Sync(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := r.validate(); err != nil {
		return summary, err
	}

	now := r.cfg.Now().UTC()
	r.logger.Info("sync start", zap.Time("as_of", now))

	prior, err := r.store.LoadPrior(ctx)
	if err != nil {
		return summary, fmt.Errorf("load prior snapshot: %w", err)
	}

	spot, err := r.source.SpotSymbols(ctx)
	if err != nil {
		r.logger.Warn("spot membership unavailable, assuming none", zap.Error(err))
		spot = model.NewSpotSet()
	}
	r.logger.Info("spot membership loaded", zap.Int("symbols", len(spot)))

	tokens, err := r.source.ListTokens(ctx)
	if err != nil {
		return summary, fmt.Errorf("list tokens: %w", err)
	}
	summary.Tokens = len(tokens)
	r.logger.Info("token universe loaded", zap.Int("tokens", len(tokens)))

	reconciler := alpha.NewReconciler(alpha.ReconcilerConfig{Pause: r.cfg.Pause, Now: r.cfg.Now}, prior, spot, r.source, r.logger)
	records, decisions, err := reconciler.ReconcileAll(ctx, tokens)
	if err != nil {
		return summary, fmt.Errorf("reconcile: %w", err)
	}
	summary.Records = len(records)
	for _, d := range decisions {
		if d.Fetched {
			summary.Fetched++
		}
		if d.Final == model.StatusDelisted {
			summary.Delisted++
		}
	}

	if r.audit != nil {
		if err := r.audit.PutDecisions(decisions); err != nil {
			r.logger.Warn("write decision audit failed", zap.Error(err))
		}
	}

	snapshot := BuildSnapshot(records, now, r.cfg.Label)
	publishErr := r.store.PublishSnapshot(ctx, snapshot, now)
	if publishErr != nil {
		r.logger.Error("publish snapshot failed", zap.Error(publishErr))
		publishErr = fmt.Errorf("publish snapshot: %w", publishErr)
	}

	if r.cfg.SkipTails {
		r.logger.Info("tails skipped")
		return summary, publishErr
	}

	tails, tailErr := r.buildAndPublishTails(ctx, tokens, now)
	summary.Tails = tails
	return summary, errors.Join(publishErr, tailErr)
}

// Tails runs only the tail pass over the current token universe.
func (r *Runner) Tails(ctx context.Context) (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}

	tokens, err := r.source.ListTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tokens: %w", err)
	}
	return r.buildAndPublishTails(ctx, tokens, r.cfg.Now().UTC())
}

func (r *Runner) buildAndPublishTails(ctx context.Context, tokens []model.RawTokenEntry, now time.Time) (int, error) {
	builder := alpha.NewTailBuilder(alpha.TailBuilderConfig{Pause: r.cfg.TailPause}, r.source, r.logger)
	table, err := builder.Build(ctx, tokens, alpha.TargetDay(now))
	if err != nil {
		return 0, fmt.Errorf("build tails: %w", err)
	}
	if err := r.store.PublishTails(ctx, table); err != nil {
		return 0, fmt.Errorf("publish tails: %w", err)
	}
	return len(table.Total), nil
}

func (r *Runner) validate() error {
	if r.source == nil {
		return fmt.Errorf("source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("snapshot store is nil")
	}
	return nil
}

// BuildSnapshot wraps records with the snapshot metadata.
func BuildSnapshot(records []model.CanonicalRecord, now time.Time, label string) model.Snapshot {
	if records == nil {
		records = []model.CanonicalRecord{}
	}
	return model.Snapshot{
		Meta: model.SnapshotMeta{
			UpdatedAt: now.UTC().Format(updatedAtLayout),
			Total:     len(records),
			Label:     label,
		},
		Data: records,
	}
}
