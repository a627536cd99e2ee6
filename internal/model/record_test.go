package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalRecordWireRoundTrip(t *testing.T) {
	original := CanonicalRecord{
		ID:            "ALPHA_42",
		Symbol:        "FOO",
		Name:          "Foo Token",
		Icon:          "https://example.com/foo.png",
		Chain:         "BSC",
		ChainIcon:     "https://example.com/bsc.png",
		Contract:      "0x1111111111111111111111111111111111111111",
		Status:        StatusPreDelisted,
		Price:         0.0123,
		Change24h:     -4.5,
		MulPoint:      2,
		MarketCap:     1200000,
		Holders:       3456,
		Liquidity:     78000,
		TxCount:       910,
		ListingTime:   1700000000000,
		Offline:       true,
		ListingCex:    false,
		OnlineTge:     true,
		OnlineAirdrop: false,
		Volume: Volume{
			Rolling24h:   1000.5,
			DailyTotal:   900.25,
			DailyLimit:   100.75,
			DailyOnchain: 799.5,
		},
		Chart: []ChartPoint{{Price: 0.01, Volume: 500}, {Price: 0.012, Volume: 900.25}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded CanonicalRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestCanonicalRecordWireKeys(t *testing.T) {
	rec := CanonicalRecord{ID: "a", Status: StatusDelisted, Offline: true, Chart: []ChartPoint{}}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"DELISTED"`, string(raw["st"]))
	assert.JSONEq(t, `1`, string(raw["off"]))
	assert.JSONEq(t, `0`, string(raw["cex"]))
	assert.JSONEq(t, `[]`, string(raw["ch"]))
	assert.JSONEq(t, `{"r24":0,"dt":0,"dl":0,"do":0}`, string(raw["v"]))
}

func TestCanonicalRecordWireKeysUnique(t *testing.T) {
	seen := make(map[string]string)
	collectTags(t, reflect.TypeOf(CanonicalRecord{}), seen)
	collectTags(t, reflect.TypeOf(Volume{}), make(map[string]string))
	collectTags(t, reflect.TypeOf(ChartPoint{}), make(map[string]string))
	assert.Len(t, seen, reflect.TypeOf(CanonicalRecord{}).NumField())
}

func collectTags(t *testing.T, typ reflect.Type, seen map[string]string) {
	t.Helper()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		key := strings.Split(field.Tag.Get("json"), ",")[0]
		require.NotEmpty(t, key, "field %s has no wire key", field.Name)
		if prev, ok := seen[key]; ok {
			t.Fatalf("wire key %q used by %s and %s", key, prev, field.Name)
		}
		seen[key] = field.Name
	}
}

func TestRawTokenEntryLooseFields(t *testing.T) {
	payload := `{
		"alphaId": "ALPHA_1",
		"symbol": "FOO",
		"volume24h": "12345.678",
		"offline": true,
		"listingCex": null,
		"price": "not-a-number",
		"holders": 321,
		"marketCap": "",
		"mulPoint": "4"
	}`

	var entry RawTokenEntry
	require.NoError(t, json.Unmarshal([]byte(payload), &entry))

	assert.Equal(t, "ALPHA_1", entry.AlphaID)
	assert.InDelta(t, 12345.678, entry.Rolling24h(), 1e-9)
	assert.True(t, bool(entry.Offline))
	assert.False(t, bool(entry.ListingCex))
	assert.False(t, bool(entry.OnlineTge))
	assert.Zero(t, entry.Price.Float64())
	assert.Equal(t, 321.0, entry.Holders.Float64())
	assert.Zero(t, entry.MarketCap.Float64())
	assert.Equal(t, 4.0, entry.MulPoint.Float64())
}

func TestParseNumberOutOfRange(t *testing.T) {
	assert.Equal(t, 0.0, ParseNumber(`"1e400"`))
	assert.Equal(t, 0.0, ParseNumber("-1e400"))
	assert.Equal(t, 1e308, ParseNumber("1e308"))

	var entry RawTokenEntry
	require.NoError(t, json.Unmarshal([]byte(`{"alphaId":"ALPHA_9","volume24h":"1e999","price":1e400}`), &entry))
	assert.Equal(t, 0.0, entry.Rolling24h())
	assert.Equal(t, 0.0, entry.Price.Float64())
}

func TestFlagDecoding(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`1`:       true,
		`0`:       false,
		`"true"`:  true,
		`null`:    false,
		`"maybe"`: false,
	}
	for input, want := range cases {
		var f Flag
		require.NoError(t, json.Unmarshal([]byte(input), &f), input)
		assert.Equal(t, want, bool(f), input)
	}
}

func TestPriorSnapshotLookup(t *testing.T) {
	prior := NewPriorSnapshot([]CanonicalRecord{
		{ID: "A", Status: StatusDelisted, Chart: []ChartPoint{{Price: 1, Volume: 2}}},
		{ID: "", Status: StatusAlpha},
		{ID: "B", Status: StatusSpot},
	})

	assert.Equal(t, 2, prior.Len())
	assert.Equal(t, StatusDelisted, prior.Status("A"))
	assert.Equal(t, StatusUnknown, prior.Status("missing"))
	assert.Equal(t, []ChartPoint{{Price: 1, Volume: 2}}, prior.Chart("A"))
	assert.Nil(t, prior.Chart("missing"))

	_, ok := prior.Lookup("B")
	assert.True(t, ok)
}
