package alpha

import (
	"math"

	"alphaScope/internal/model"
)

// Figures are the volume figures merged into a record, either fetched or
// carried from fallbacks.
type Figures struct {
	Total float64
	Limit float64
	Chart []model.ChartPoint
}

// Assemble merges the raw entry, its resolved status and the volume figures
// into the published record.
func Assemble(entry model.RawTokenEntry, status model.LifecycleStatus, fig Figures) model.CanonicalRecord {
	chart := fig.Chart
	if chart == nil {
		chart = []model.ChartPoint{}
	}

	return model.CanonicalRecord{
		ID:            entry.AlphaID,
		Symbol:        entry.Symbol,
		Name:          entry.Name,
		Icon:          entry.IconURL,
		Chain:         entry.ChainName,
		ChainIcon:     entry.ChainIconURL,
		Contract:      entry.ContractAddress,
		Status:        status,
		Price:         entry.Price.Float64(),
		Change24h:     entry.PercentChange24h.Float64(),
		MulPoint:      entry.MulPoint.Float64(),
		MarketCap:     truncate(entry.MarketCap.Float64()),
		Holders:       truncate(entry.Holders.Float64()),
		Liquidity:     truncate(entry.Liquidity.Float64()),
		TxCount:       truncate(entry.Count24h.Float64()),
		ListingTime:   truncate(entry.ListingTime.Float64()),
		Offline:       entry.Offline,
		ListingCex:    entry.ListingCex,
		OnlineTge:     entry.OnlineTge,
		OnlineAirdrop: entry.OnlineAirdrop,
		Volume: model.Volume{
			Rolling24h:   entry.Rolling24h(),
			DailyTotal:   fig.Total,
			DailyLimit:   fig.Limit,
			DailyOnchain: max(0, fig.Total-fig.Limit),
		},
		Chart: chart,
	}
}

// truncate drops the fraction of v, saturating at the int64 bounds.
func truncate(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}
