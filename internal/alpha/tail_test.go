package alpha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphaScope/internal/model"
)

var testDay = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func kline(t *testing.T, openTime time.Time, volume string) model.Kline {
	t.Helper()
	row := fmt.Sprintf(`[%d,"1","1","1","1",%q]`, openTime.UnixMilli(), volume)
	var k model.Kline
	require.NoError(t, json.Unmarshal([]byte(row), &k))
	return k
}

func assertTailShape(t *testing.T, tail []float64) {
	t.Helper()
	require.Len(t, tail, model.MinutesPerDay)
	for i, v := range tail {
		assert.GreaterOrEqual(t, v, 0.0, "slot %d", i)
		if i < model.MinutesPerDay-1 {
			assert.GreaterOrEqual(t, v, tail[i+1], "slot %d", i)
		}
	}
}

func TestBuildSuffixSumSingleCandle(t *testing.T) {
	tail := BuildSuffixSum([]model.Kline{kline(t, testDay, "50")}, testDay)

	assertTailShape(t, tail)
	assert.Equal(t, []float64{50, 40, 30, 20, 10, 0}, tail[:6])
	assert.Equal(t, 0.0, tail[model.MinutesPerDay-1])
}

func TestBuildSuffixSumAccumulatesAndClips(t *testing.T) {
	klines := []model.Kline{
		kline(t, testDay.Add(10*time.Minute), "25"),
		kline(t, testDay.Add(10*time.Minute), "25"),
		kline(t, testDay.Add(23*time.Hour+58*time.Minute), "50"),
	}
	tail := BuildSuffixSum(klines, testDay)

	assertTailShape(t, tail)
	assert.Equal(t, 10.0, tail[1439])
	assert.Equal(t, 20.0, tail[1438])
	assert.Equal(t, 20.0, tail[1437])
	assert.Equal(t, 70.0, tail[10])
	assert.Equal(t, 70.0, tail[0])
	assert.Equal(t, 20.0, tail[15])
}

func TestBuildSuffixSumIgnoresOtherDaysAndMalformed(t *testing.T) {
	var missingVolume model.Kline
	require.NoError(t, json.Unmarshal([]byte(`[1760745600000,"1"]`), &missingVolume))
	var badTime model.Kline
	require.NoError(t, json.Unmarshal([]byte(`["soon","1","1","1","1","5"]`), &badTime))

	klines := []model.Kline{
		kline(t, testDay.Add(-5*time.Minute), "1000"),
		kline(t, testDay.Add(24*time.Hour), "1000"),
		missingVolume,
		badTime,
		kline(t, testDay.Add(time.Hour), "not-a-number"),
		kline(t, testDay.Add(time.Hour), "-30"),
		kline(t, testDay.Add(2*time.Hour), "5"),
	}
	tail := BuildSuffixSum(klines, testDay)

	assertTailShape(t, tail)
	assert.Equal(t, 5.0, tail[0])
	assert.Equal(t, 5.0, tail[120])
	assert.Equal(t, 0.0, tail[125])
}

func TestBuildSuffixSumRoundsToCents(t *testing.T) {
	tail := BuildSuffixSum([]model.Kline{kline(t, testDay, "0.01"), kline(t, testDay.Add(5*time.Minute), "1")}, testDay)

	assertTailShape(t, tail)
	assert.Equal(t, 1.01, tail[0])
	assert.Equal(t, 1.0, tail[4])
	assert.Equal(t, 0.8, tail[6])
}

func TestBuildSuffixSumOutOfRangeVolumes(t *testing.T) {
	t.Run("unrepresentable volume skipped", func(t *testing.T) {
		klines := []model.Kline{
			kline(t, testDay, "1e400"),
			kline(t, testDay.Add(time.Hour), "5"),
		}
		var tail []float64
		require.NotPanics(t, func() { tail = BuildSuffixSum(klines, testDay) })
		assertTailShape(t, tail)
		assert.Equal(t, 5.0, tail[0])
	})

	t.Run("overflowing sum clamped", func(t *testing.T) {
		klines := []model.Kline{
			kline(t, testDay, "1e308"),
			kline(t, testDay.Add(time.Hour), "1e308"),
		}
		var tail []float64
		require.NotPanics(t, func() { tail = BuildSuffixSum(klines, testDay) })
		assertTailShape(t, tail)
		assert.Equal(t, math.MaxFloat64, tail[0])
		assert.Equal(t, 0.0, tail[model.MinutesPerDay-1])

		_, err := json.Marshal(tail)
		require.NoError(t, err)
	})
}

func TestBuildSuffixSumEmpty(t *testing.T) {
	tail := BuildSuffixSum(nil, testDay)
	assertTailShape(t, tail)
	assert.Equal(t, 0.0, tail[0])
}

func TestTargetDay(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 30, 0, 0, time.FixedZone("UTC+7", 7*3600))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), TargetDay(now))
	assert.Equal(t, testDay, TargetDay(time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)))
}

type fakeIntradayFetcher struct {
	klines map[string][]model.Kline
	fail   map[string]bool
	calls  int
}

func (f *fakeIntradayFetcher) IntradayKlines(_ context.Context, _ string, contract string, series model.Series) ([]model.Kline, error) {
	f.calls++
	key := contract + "/" + string(series)
	if f.fail[key] {
		return nil, errors.New("no data")
	}
	return f.klines[key], nil
}

func TestTailBuilderBuild(t *testing.T) {
	fetcher := &fakeIntradayFetcher{
		klines: map[string][]model.Kline{
			"0xa/aggregate": {kline(t, testDay, "50")},
			"0xa/limit":     {kline(t, testDay, "5")},
			"0xb/aggregate": {kline(t, testDay.Add(time.Hour), "10")},
		},
		fail: map[string]bool{"0xb/limit": true},
	}
	builder := NewTailBuilder(TailBuilderConfig{}, fetcher, nil)

	entries := []model.RawTokenEntry{
		{AlphaID: "A", ContractAddress: "0xa", Volume24h: 10},
		{AlphaID: "B", ContractAddress: "0xb", Volume24h: 5},
		{AlphaID: "C", ContractAddress: "0xc", Volume24h: 0},
		{AlphaID: "D", ContractAddress: "", Volume24h: 3},
	}

	table, err := builder.Build(context.Background(), entries, testDay)
	require.NoError(t, err)

	assert.Equal(t, 4, fetcher.calls)
	require.Contains(t, table.Total, "A")
	require.Contains(t, table.Total, "B")
	assert.NotContains(t, table.Total, "C")
	assert.NotContains(t, table.Total, "D")
	assert.Contains(t, table.Limit, "A")
	assert.NotContains(t, table.Limit, "B")

	assert.Equal(t, 50.0, table.Total["A"][0])
	assert.Equal(t, 5.0, table.Limit["A"][0])
	assert.Equal(t, 10.0, table.Total["B"][0])
	for _, tail := range table.Total {
		assertTailShape(t, tail)
	}
}
