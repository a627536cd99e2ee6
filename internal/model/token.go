package model

// RawTokenEntry is one token as listed by the upstream aggregated ticker.
type RawTokenEntry struct {
	AlphaID          string `json:"alphaId"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	IconURL          string `json:"iconUrl"`
	ChainID          string `json:"chainId"`
	ChainName        string `json:"chainName"`
	ChainIconURL     string `json:"chainIconUrl"`
	ContractAddress  string `json:"contractAddress"`
	Volume24h        Number `json:"volume24h"`
	Offline          Flag   `json:"offline"`
	ListingCex       Flag   `json:"listingCex"`
	OnlineTge        Flag   `json:"onlineTge"`
	OnlineAirdrop    Flag   `json:"onlineAirdrop"`
	MulPoint         Number `json:"mulPoint"`
	ListingTime      Number `json:"listingTime"`
	Count24h         Number `json:"count24h"`
	Price            Number `json:"price"`
	PercentChange24h Number `json:"percentChange24h"`
	Liquidity        Number `json:"liquidity"`
	MarketCap        Number `json:"marketCap"`
	Holders          Number `json:"holders"`
}

// Rolling24h returns the rolling 24h volume reported by the ticker.
func (e RawTokenEntry) Rolling24h() float64 {
	return e.Volume24h.Float64()
}

// SpotSet is the set of base assets currently trading on the primary market.
type SpotSet map[string]struct{}

// NewSpotSet builds a SpotSet from symbols.
func NewSpotSet(symbols ...string) SpotSet {
	set := make(SpotSet, len(symbols))
	for _, symbol := range symbols {
		set[symbol] = struct{}{}
	}
	return set
}

// Contains reports whether symbol trades on the primary market.
func (s SpotSet) Contains(symbol string) bool {
	_, ok := s[symbol]
	return ok
}
