package tournament

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alphaScope/internal/model"
	"alphaScope/internal/storage"
)

const (
	baseKlineLimit = 100
	quoteAsset     = "USDT"
)

// KlineSource returns daily candles for a trading symbol.
type KlineSource interface {
	SymbolKlines(ctx context.Context, symbol string, series model.Series, limit int) ([]model.Kline, error)
}

// BaseExporterConfig configures BaseExporter.
type BaseExporterConfig struct {
	Key string
	Now func() time.Time
}

// BaseExporter publishes the volume accrued so far by every active tournament.
type BaseExporter struct {
	cfg     BaseExporterConfig
	records RecordSource
	klines  KlineSource
	writer  storage.ObjectWriter
	logger  *zap.Logger
}

func NewBaseExporter(cfg BaseExporterConfig, records RecordSource, klines KlineSource, writer storage.ObjectWriter, logger *zap.Logger) *BaseExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = "tournaments-base.json"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &BaseExporter{cfg: cfg, records: records, klines: klines, writer: writer, logger: logger}
}

// Build computes base volumes keyed by alpha id. Tournaments that fail are
// logged and left out.
func (e *BaseExporter) Build(ctx context.Context) (map[string]model.BaseVolume, error) {
	tournaments, err := e.records.ListTournaments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	now := e.cfg.Now().UTC()
	todayStart := startOfDay(now)
	out := make(map[string]model.BaseVolume)

	for _, t := range tournaments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsActive(t, now) {
			continue
		}

		alphaID := t.AlphaID()
		start, err := StartTime(t)
		if err != nil {
			e.logger.Warn("skip tournament", zap.Int64("id", t.ID), zap.String("alpha_id", alphaID), zap.Error(err))
			continue
		}

		e.logger.Debug("computing base volume", zap.String("alpha_id", alphaID), zap.String("name", t.DataString("name")))
		total := e.history(ctx, alphaID, model.SeriesAggregate, start, todayStart)
		limit := e.history(ctx, alphaID, model.SeriesLimit, start, todayStart)

		out[alphaID] = model.BaseVolume{
			BaseTotalVol: sumVolumes(total),
			BaseLimitVol: sumVolumes(limit),
			HistoryTotal: total,
			HistoryLimit: limit,
			StartTS:      start.UnixMilli(),
		}
	}
	return out, nil
}

// Export builds and uploads the base volumes, returning how many were written.
func (e *BaseExporter) Export(ctx context.Context) (int, error) {
	base, err := e.Build(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.writer.PutJSON(ctx, e.cfg.Key, base, storage.LatestCacheControl); err != nil {
		return 0, fmt.Errorf("upload base data: %w", err)
	}
	e.logger.Info("exported base data", zap.String("key", e.cfg.Key), zap.Int("tournaments", len(base)))
	return len(base), nil
}

func (e *BaseExporter) history(ctx context.Context, alphaID string, series model.Series, from, until time.Time) []model.DailyVolume {
	rows, err := e.klines.SymbolKlines(ctx, alphaID+quoteAsset, series, baseKlineLimit)
	if err != nil {
		e.logger.Warn("symbol klines unavailable", zap.String("alpha_id", alphaID), zap.String("series", string(series)), zap.Error(err))
		return []model.DailyVolume{}
	}
	return dailyHistory(rows, from, until)
}

// dailyHistory keeps candles opening in [from, until).
func dailyHistory(rows []model.Kline, from, until time.Time) []model.DailyVolume {
	out := make([]model.DailyVolume, 0, len(rows))
	for _, row := range rows {
		openTime, err := row.OpenTime()
		if err != nil {
			continue
		}
		if openTime.Before(from) || !openTime.Before(until) {
			continue
		}
		vol, err := row.Volume()
		if err != nil {
			continue
		}
		out = append(out, model.DailyVolume{Date: openTime.Format(dateLayout), Vol: vol})
	}
	return out
}

func sumVolumes(days []model.DailyVolume) float64 {
	var sum float64
	for _, d := range days {
		sum += d.Vol
	}
	return sum
}
