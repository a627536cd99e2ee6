package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	klineOpenTime = 0
	klineClose    = 4
	klineVolume   = 5
)

// Kline is one candle row: [openTime(ms), open, high, low, close, volume, ...].
// Fields arrive as numbers or numeric strings.
type Kline []json.RawMessage

// OpenTime returns the candle open time in UTC.
func (k Kline) OpenTime() (time.Time, error) {
	if len(k) <= klineOpenTime {
		return time.Time{}, fmt.Errorf("kline is empty")
	}
	text := unquote(string(k[klineOpenTime]))
	ms, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("kline open time %q: %w", text, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ClosePrice returns the close price; absent or null values are 0.
func (k Kline) ClosePrice() (float64, error) {
	return k.field(klineClose)
}

// Volume returns the candle volume; absent or null values are 0.
func (k Kline) Volume() (float64, error) {
	return k.field(klineVolume)
}

func (k Kline) field(idx int) (float64, error) {
	if idx >= len(k) {
		return 0, fmt.Errorf("kline has %d fields, need %d", len(k), idx+1)
	}
	text := unquote(string(k[idx]))
	if text == "" || text == "null" {
		return 0, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("kline field %d: %w", idx, err)
	}
	f, ok := finite(d)
	if !ok {
		return 0, fmt.Errorf("kline field %d: %s out of range", idx, text)
	}
	return f, nil
}

// KlineResponse is the envelope returned by the kline endpoints.
type KlineResponse struct {
	Code    string       `json:"code"`
	Success bool         `json:"success"`
	Data    KlinePayload `json:"data"`
}

// KlinePayload accepts both payload shapes served upstream: a bare array of
// rows, or an object carrying them under klineInfos.
type KlinePayload struct {
	Infos []Kline `json:"klineInfos"`
}

func (p *KlinePayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		p.Infos = nil
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Infos)
	}
	type alias KlinePayload
	var a alias
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return err
	}
	*p = KlinePayload(a)
	return nil
}

// Series selects which volume category a kline request returns.
type Series string

const (
	// SeriesAggregate is the combined on-chain plus limit volume.
	SeriesAggregate Series = "aggregate"
	// SeriesLimit is the limit-path volume only.
	SeriesLimit Series = "limit"
)
