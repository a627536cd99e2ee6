package alpha

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"alphaScope/internal/model"
)

// VolumeFetcher returns the daily limit and aggregate volume of a token.
type VolumeFetcher interface {
	DailyVolume(ctx context.Context, chainID, contract string) (model.VolumeFetch, error)
}

// ReconcilerConfig controls reconciliation pacing.
type ReconcilerConfig struct {
	// Pause is waited after every token that went to the network.
	Pause time.Duration
	Now   func() time.Time
}

// Reconciler turns raw upstream entries into canonical records, one token at a time.
type Reconciler struct {
	cfg     ReconcilerConfig
	prior   model.PriorSnapshot
	spot    model.SpotSet
	fetcher VolumeFetcher
	logger  *zap.Logger
}

// NewReconciler builds a Reconciler over the previous run's snapshot and the
// current primary market membership. Both are only read.
func NewReconciler(cfg ReconcilerConfig, prior model.PriorSnapshot, spot model.SpotSet, fetcher VolumeFetcher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{
		cfg:     cfg,
		prior:   prior,
		spot:    spot,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Reconcile resolves one entry. It returns false for entries without an id.
// A failed fetch degrades the record instead of returning an error.
func (r *Reconciler) Reconcile(ctx context.Context, entry model.RawTokenEntry) (model.CanonicalRecord, model.Decision, bool) {
	if entry.AlphaID == "" {
		return model.CanonicalRecord{}, model.Decision{}, false
	}

	rolling := entry.Rolling24h()
	priorStatus := r.prior.Status(entry.AlphaID)
	status, limitCheck := ResolveStatus(entry, priorStatus, r.spot.Contains(entry.Symbol))

	decision := model.Decision{
		ID:          entry.AlphaID,
		Symbol:      entry.Symbol,
		PriorStatus: priorStatus,
		Tentative:   status,
		LimitCheck:  limitCheck,
	}

	var fig Figures
	if NeedsFetch(rolling, status) {
		decision.Fetched = true
		fetched, err := r.fetcher.DailyVolume(ctx, entry.ChainID, entry.ContractAddress)
		if err != nil {
			decision.Error = err.Error()
			fig.Total = rolling
			// An unanswered limit check counts as death; otherwise the status stands.
			if limitCheck {
				status = model.StatusDelisted
			}
			r.logger.Warn("volume fetch failed",
				zap.String("id", entry.AlphaID),
				zap.String("symbol", entry.Symbol),
				zap.Bool("limit_check", limitCheck),
				zap.Error(err),
			)
		} else {
			fig = Figures{Total: fetched.Total, Limit: fetched.Limit, Chart: fetched.Chart}
			if limitCheck {
				status = ResolveLimitCheck(fetched.Limit)
			}
			if fig.Total <= 0 {
				fig.Total = rolling
			}
		}
	} else {
		fig.Total = rolling
		if status == model.StatusPreDelisted {
			status = model.StatusDelisted
		}
		if status == model.StatusDelisted {
			fig.Chart = r.prior.Chart(entry.AlphaID)
		}
	}

	decision.Final = status
	decision.DecidedAt = r.cfg.Now().UTC().Format(time.RFC3339Nano)

	r.logger.Debug("token reconciled",
		zap.String("id", entry.AlphaID),
		zap.String("symbol", entry.Symbol),
		zap.Stringer("prior", priorStatus),
		zap.Stringer("status", status),
		zap.Bool("fetched", decision.Fetched),
		zap.Float64("daily_total", fig.Total),
		zap.Float64("daily_limit", fig.Limit),
	)

	return Assemble(entry, status, fig), decision, true
}

// ReconcileAll reconciles entries in descending rolling volume order and
// returns the records sorted by descending daily total. It stops early only
// when ctx is done.
func (r *Reconciler) ReconcileAll(ctx context.Context, entries []model.RawTokenEntry) ([]model.CanonicalRecord, []model.Decision, error) {
	ordered := make([]model.RawTokenEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rolling24h() > ordered[j].Rolling24h()
	})

	records := make([]model.CanonicalRecord, 0, len(ordered))
	decisions := make([]model.Decision, 0, len(ordered))
	var fetched, delisted int

	for _, entry := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rec, decision, ok := r.Reconcile(ctx, entry)
		if !ok {
			continue
		}
		records = append(records, rec)
		decisions = append(decisions, decision)
		if rec.Status == model.StatusDelisted {
			delisted++
		}

		if decision.Fetched {
			fetched++
			if err := wait(ctx, r.cfg.Pause); err != nil {
				return nil, nil, err
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Volume.DailyTotal > records[j].Volume.DailyTotal
	})

	r.logger.Info("reconcile complete",
		zap.Int("tokens", len(entries)),
		zap.Int("records", len(records)),
		zap.Int("fetched", fetched),
		zap.Int("delisted", delisted),
	)

	return records, decisions, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
