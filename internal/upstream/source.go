package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"alphaScope/internal/model"
)

const (
	dailyInterval    = "1d"
	dailyLimit       = 30
	intradayInterval = "5m"
	intradayLimit    = 1000
	spotTrading      = "TRADING"
)

// Endpoints are the provider URLs used by Source.
type Endpoints struct {
	TickerURL       string
	KlinesURL       string
	SymbolKlinesURL string
	SpotURL         string
}

// Source exposes the provider calls the jobs need on top of Client.
type Source struct {
	client       *Client
	endpoints    Endpoints
	preserveCase map[string]struct{}
	logger       *zap.Logger
}

func NewSource(client *Client, endpoints Endpoints, preserveCaseChains []string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if preserveCaseChains == nil {
		preserveCaseChains = DefaultPreserveCaseChains
	}
	return &Source{
		client:       client,
		endpoints:    endpoints,
		preserveCase: chainSet(preserveCaseChains),
		logger:       logger,
	}
}

type tickerResponse struct {
	Code string                `json:"code"`
	Data []model.RawTokenEntry `json:"data"`
}

// ListTokens returns the current token universe. An empty universe is an error.
func (s *Source) ListTokens(ctx context.Context) ([]model.RawTokenEntry, error) {
	if s.endpoints.TickerURL == "" {
		return nil, fmt.Errorf("ticker url is not configured")
	}
	var resp tickerResponse
	if err := s.client.GetJSON(ctx, s.endpoints.TickerURL, &resp); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("list tokens: %w", ErrNoData)
	}
	return resp.Data, nil
}

type exchangeInfo struct {
	Symbols []struct {
		BaseAsset string `json:"baseAsset"`
		Status    string `json:"status"`
	} `json:"symbols"`
}

// SpotSymbols returns the base assets currently trading on the spot market.
func (s *Source) SpotSymbols(ctx context.Context) (model.SpotSet, error) {
	if s.endpoints.SpotURL == "" {
		return model.NewSpotSet(), fmt.Errorf("spot url is not configured")
	}
	var info exchangeInfo
	if err := s.client.GetJSON(ctx, s.endpoints.SpotURL, &info); err != nil {
		return model.NewSpotSet(), fmt.Errorf("spot symbols: %w", err)
	}
	set := make(model.SpotSet, len(info.Symbols))
	for _, sym := range info.Symbols {
		if sym.Status == spotTrading && sym.BaseAsset != "" {
			set[sym.BaseAsset] = struct{}{}
		}
	}
	return set, nil
}

// DailyVolume returns yesterday's aggregate and limit volume and the 30-day
// aggregate chart. A failing series leaves its figures at zero.
func (s *Source) DailyVolume(ctx context.Context, chainID, contract string) (model.VolumeFetch, error) {
	var fetch model.VolumeFetch
	if s.endpoints.KlinesURL == "" {
		return fetch, fmt.Errorf("klines url is not configured")
	}

	limitRows, err := s.tokenKlines(ctx, chainID, contract, dailyInterval, dailyLimit, model.SeriesLimit)
	if err != nil {
		s.logger.Debug("limit klines unavailable", zap.String("chain", chainID), zap.String("contract", contract), zap.Error(err))
	} else if n := len(limitRows); n > 0 {
		fetch.Limit, _ = limitRows[n-1].Volume()
	}

	aggRows, err := s.tokenKlines(ctx, chainID, contract, dailyInterval, dailyLimit, model.SeriesAggregate)
	if err != nil {
		s.logger.Debug("aggregate klines unavailable", zap.String("chain", chainID), zap.String("contract", contract), zap.Error(err))
	} else if n := len(aggRows); n > 0 {
		fetch.Total, _ = aggRows[n-1].Volume()
		fetch.Chart = make([]model.ChartPoint, 0, n)
		for _, row := range aggRows {
			price, _ := row.ClosePrice()
			vol, _ := row.Volume()
			fetch.Chart = append(fetch.Chart, model.ChartPoint{Price: price, Volume: vol})
		}
	}

	return fetch, ctx.Err()
}

// IntradayKlines returns the 5-minute candles of one series in a single attempt.
func (s *Source) IntradayKlines(ctx context.Context, chainID, contract string, series model.Series) ([]model.Kline, error) {
	if s.endpoints.KlinesURL == "" {
		return nil, fmt.Errorf("klines url is not configured")
	}
	return s.tokenKlines(ctx, chainID, contract, intradayInterval, intradayLimit, series, WithAttempts(1))
}

// SymbolKlines returns daily candles for a trading symbol such as ALPHA_1USDT.
func (s *Source) SymbolKlines(ctx context.Context, symbol string, series model.Series, limit int) ([]model.Kline, error) {
	if s.endpoints.SymbolKlinesURL == "" {
		return nil, fmt.Errorf("symbol klines url is not configured")
	}
	target, err := withQuery(s.endpoints.SymbolKlinesURL, map[string]string{
		"symbol":   symbol,
		"interval": dailyInterval,
		"limit":    strconv.Itoa(limit),
		"dataType": string(series),
	})
	if err != nil {
		return nil, err
	}

	var resp model.KlineResponse
	if err := s.client.GetJSON(ctx, target, &resp, WithAcceptor(AcceptJSON)); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("symbol klines %s: %w", symbol, ErrNoData)
	}
	return resp.Data.Infos, nil
}

func (s *Source) tokenKlines(ctx context.Context, chainID, contract, interval string, limit int, series model.Series, opts ...CallOption) ([]model.Kline, error) {
	address, err := NormalizeContract(chainID, contract, s.preserveCase)
	if err != nil {
		s.logger.Warn("contract address failed validation", zap.String("chain", chainID), zap.Error(err))
	}

	target, err := withQuery(s.endpoints.KlinesURL, map[string]string{
		"chainId":      chainID,
		"interval":     interval,
		"limit":        strconv.Itoa(limit),
		"tokenAddress": address,
		"dataType":     string(series),
	})
	if err != nil {
		return nil, err
	}

	var resp model.KlineResponse
	if err := s.client.GetJSON(ctx, target, &resp, opts...); err != nil {
		return nil, err
	}
	if resp.Data.Infos == nil {
		return nil, fmt.Errorf("%s klines for %s: %w", series, address, ErrNoData)
	}
	return resp.Data.Infos, nil
}

func withQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("url must be absolute: " + base)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
