package model

// CanonicalRecord is the published record for one token. JSON keys are the
// abbreviated wire keys; snapshots are read back with the same type.
type CanonicalRecord struct {
	ID            string          `json:"i"`
	Symbol        string          `json:"s"`
	Name          string          `json:"n"`
	Icon          string          `json:"ic"`
	Chain         string          `json:"cn"`
	ChainIcon     string          `json:"ci"`
	Contract      string          `json:"ct"`
	Status        LifecycleStatus `json:"st"`
	Price         float64         `json:"p"`
	Change24h     float64         `json:"c"`
	MulPoint      float64         `json:"mp"`
	MarketCap     int64           `json:"mc"`
	Holders       int64           `json:"h"`
	Liquidity     int64           `json:"l"`
	TxCount       int64           `json:"tx"`
	ListingTime   int64           `json:"lt"`
	Offline       Flag            `json:"off"`
	ListingCex    Flag            `json:"cex"`
	OnlineTge     Flag            `json:"tge"`
	OnlineAirdrop Flag            `json:"air"`
	Volume        Volume          `json:"v"`
	Chart         []ChartPoint    `json:"ch"`
}

// Volume is the volume breakdown of a record.
// DailyOnchain is always max(0, DailyTotal-DailyLimit).
type Volume struct {
	Rolling24h   float64 `json:"r24"`
	DailyTotal   float64 `json:"dt"`
	DailyLimit   float64 `json:"dl"`
	DailyOnchain float64 `json:"do"`
}

// ChartPoint is one daily close/volume pair of the intraday chart.
type ChartPoint struct {
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
}

// VolumeFetch is the result of a daily volume lookup for one token.
type VolumeFetch struct {
	Total float64
	Limit float64
	Chart []ChartPoint
}
