package alpha

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphaScope/internal/model"
)

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name       string
		entry      model.RawTokenEntry
		prior      model.LifecycleStatus
		spotListed bool
		want       model.LifecycleStatus
		limitCheck bool
	}{
		{name: "online", entry: model.RawTokenEntry{}, want: model.StatusAlpha},
		{name: "offline listed on cex", entry: model.RawTokenEntry{Offline: true, ListingCex: true}, want: model.StatusSpot},
		{name: "offline on spot", entry: model.RawTokenEntry{Offline: true}, spotListed: true, want: model.StatusSpot},
		{name: "offline elsewhere", entry: model.RawTokenEntry{Offline: true}, want: model.StatusPreDelisted, limitCheck: true},
		{name: "prior delisted online", entry: model.RawTokenEntry{}, prior: model.StatusDelisted, want: model.StatusDelisted},
		{name: "prior delisted offline", entry: model.RawTokenEntry{Offline: true}, prior: model.StatusDelisted, want: model.StatusDelisted},
		{name: "prior spot offline", entry: model.RawTokenEntry{Offline: true}, prior: model.StatusSpot, want: model.StatusPreDelisted, limitCheck: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, limitCheck := ResolveStatus(tt.entry, tt.prior, tt.spotListed)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.limitCheck, limitCheck)
		})
	}
}

func TestNeedsFetch(t *testing.T) {
	assert.True(t, NeedsFetch(1, model.StatusAlpha))
	assert.True(t, NeedsFetch(1, model.StatusPreDelisted))
	assert.False(t, NeedsFetch(1, model.StatusSpot))
	assert.False(t, NeedsFetch(1, model.StatusDelisted))
	assert.False(t, NeedsFetch(0, model.StatusAlpha))
	assert.False(t, NeedsFetch(-5, model.StatusPreDelisted))
}

func TestResolveLimitCheck(t *testing.T) {
	assert.Equal(t, model.StatusAlpha, ResolveLimitCheck(0.01))
	assert.Equal(t, model.StatusDelisted, ResolveLimitCheck(0))
}

func TestAssembleParsesDefensively(t *testing.T) {
	entry := model.RawTokenEntry{
		AlphaID:     "A1",
		MarketCap:   model.Number(1234.9),
		Holders:     model.Number(0),
		Count24h:    model.Number(42.7),
		ListingTime: model.Number(1700000000000),
		Volume24h:   model.Number(10),
	}

	rec := Assemble(entry, model.StatusAlpha, Figures{Total: 5, Limit: 8})
	assert.Equal(t, int64(1234), rec.MarketCap)
	assert.Equal(t, int64(42), rec.TxCount)
	assert.Equal(t, int64(1700000000000), rec.ListingTime)
	assert.Equal(t, 0.0, rec.Volume.DailyOnchain)
	assert.NotNil(t, rec.Chart)
}

func TestAssembleSaturatesIntegers(t *testing.T) {
	entry := model.RawTokenEntry{
		AlphaID:     "A2",
		MarketCap:   model.Number(1e300),
		Liquidity:   model.Number(-1e300),
		Holders:     model.Number(math.MaxInt64),
		ListingTime: model.Number(12.5),
	}

	rec := Assemble(entry, model.StatusAlpha, Figures{})
	assert.Equal(t, int64(math.MaxInt64), rec.MarketCap)
	assert.Equal(t, int64(math.MinInt64), rec.Liquidity)
	assert.Equal(t, int64(math.MaxInt64), rec.Holders)
	assert.Equal(t, int64(12), rec.ListingTime)
}

func TestAssembleOutOfRangeFieldsStayEncodable(t *testing.T) {
	var entry model.RawTokenEntry
	require.NoError(t, json.Unmarshal([]byte(`{"alphaId":"A3","price":"1e400","marketCap":"-1e400","offline":true,"listingCex":true}`), &entry))

	status, _ := ResolveStatus(entry, model.StatusUnknown, false)
	rec := Assemble(entry, status, Figures{})
	assert.Equal(t, model.StatusSpot, rec.Status)
	assert.Equal(t, 0.0, rec.Price)
	assert.Equal(t, int64(0), rec.MarketCap)

	_, err := json.Marshal(rec)
	require.NoError(t, err)
}
