package alpha

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"alphaScope/internal/model"
)

const (
	candleMinutes   = 5
	progressEvery   = 50
	tailDecimalsOut = 2
)

// IntradayFetcher returns the 5-minute klines of a token for one series.
type IntradayFetcher interface {
	IntradayKlines(ctx context.Context, chainID, contract string, series model.Series) ([]model.Kline, error)
}

// TargetDay returns the UTC calendar day before now, at midnight.
func TargetDay(now time.Time) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildSuffixSum spreads each 5-minute candle of day evenly over its minutes
// and returns, for every minute of the day, the volume from that minute to the
// end of the day, rounded to 2 decimals. Malformed candles are skipped.
func BuildSuffixSum(klines []model.Kline, day time.Time) []float64 {
	out := make([]float64, model.MinutesPerDay)
	if len(klines) == 0 {
		return out
	}

	var minutes [model.MinutesPerDay]float64
	dayY, dayM, dayD := day.UTC().Date()

	for _, k := range klines {
		openTime, err := k.OpenTime()
		if err != nil {
			continue
		}
		vol, err := k.Volume()
		if err != nil || vol < 0 || math.IsInf(vol, 0) || math.IsNaN(vol) {
			continue
		}
		if y, m, d := openTime.Date(); y != dayY || m != dayM || d != dayD {
			continue
		}

		start := openTime.Hour()*60 + openTime.Minute()
		perMinute := vol / candleMinutes
		for i := 0; i < candleMinutes && start+i < model.MinutesPerDay; i++ {
			minutes[start+i] += perMinute
		}
	}

	var running float64
	for i := model.MinutesPerDay - 1; i >= 0; i-- {
		running += minutes[i]
		out[i] = round2(running)
	}
	return out
}

// round2 rounds to cents. Sums that overflow are clamped to the largest float.
func round2(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return decimal.NewFromFloat(v).Round(tailDecimalsOut).InexactFloat64()
}

// TailBuilderConfig controls tail building pacing.
type TailBuilderConfig struct {
	// Pause is waited after every token.
	Pause time.Duration
}

// TailBuilder builds the tail table of a whole token universe.
type TailBuilder struct {
	cfg     TailBuilderConfig
	fetcher IntradayFetcher
	logger  *zap.Logger
}

func NewTailBuilder(cfg TailBuilderConfig, fetcher IntradayFetcher, logger *zap.Logger) *TailBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TailBuilder{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Build fetches both series for every token with positive rolling volume and
// reconstructs their tails for day. Tokens whose series cannot be fetched are
// left out of that series' table.
func (b *TailBuilder) Build(ctx context.Context, entries []model.RawTokenEntry, day time.Time) (model.TailTable, error) {
	table := model.NewTailTable()

	eligible := make([]model.RawTokenEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Rolling24h() > 0 {
			eligible = append(eligible, entry)
		}
	}

	b.logger.Info("tails start", zap.Int("tokens", len(eligible)), zap.String("day", day.Format(time.DateOnly)))

	for idx, entry := range eligible {
		if err := ctx.Err(); err != nil {
			return model.TailTable{}, err
		}
		if entry.AlphaID == "" || entry.ContractAddress == "" {
			continue
		}
		if idx%progressEvery == 0 {
			b.logger.Info("tails progress", zap.Int("done", idx), zap.Int("total", len(eligible)))
		}

		if klines, err := b.fetcher.IntradayKlines(ctx, entry.ChainID, entry.ContractAddress, model.SeriesAggregate); err != nil {
			b.logger.Debug("aggregate tail fetch failed", zap.String("id", entry.AlphaID), zap.Error(err))
		} else {
			table.Total[entry.AlphaID] = BuildSuffixSum(klines, day)
		}

		if klines, err := b.fetcher.IntradayKlines(ctx, entry.ChainID, entry.ContractAddress, model.SeriesLimit); err != nil {
			b.logger.Debug("limit tail fetch failed", zap.String("id", entry.AlphaID), zap.Error(err))
		} else {
			table.Limit[entry.AlphaID] = BuildSuffixSum(klines, day)
		}

		if err := wait(ctx, b.cfg.Pause); err != nil {
			return model.TailTable{}, err
		}
	}

	b.logger.Info("tails complete", zap.Int("total", len(table.Total)), zap.Int("limit", len(table.Limit)))
	return table, nil
}
