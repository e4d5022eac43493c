package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
)

// MockMarketData is a mock implementation of the MarketData interface
// for testing the service layer.
type MockMarketData struct {
	QuoteFunc        func(ctx context.Context, symbol string) (market.Quote, error)
	HistoryFunc      func(ctx context.Context, symbol string, from, to time.Time, interval market.Interval) ([]market.Candle, error)
	NewsFunc         func(ctx context.Context, symbol string, limit int) ([]market.Article, error)
	FundamentalsFunc func(ctx context.Context, symbol string) (ratios.MetricSet, error)
}

// Quote implements the MarketData interface
func (m *MockMarketData) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, symbol)
	}
	return market.Quote{}, errors.New("QuoteFunc not implemented")
}

// History implements the MarketData interface
func (m *MockMarketData) History(ctx context.Context, symbol string, from, to time.Time, interval market.Interval) ([]market.Candle, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, symbol, from, to, interval)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

// News implements the MarketData interface
func (m *MockMarketData) News(ctx context.Context, symbol string, limit int) ([]market.Article, error) {
	if m.NewsFunc != nil {
		return m.NewsFunc(ctx, symbol, limit)
	}
	return nil, errors.New("NewsFunc not implemented")
}

// Fundamentals implements the MarketData interface
func (m *MockMarketData) Fundamentals(ctx context.Context, symbol string) (ratios.MetricSet, error) {
	if m.FundamentalsFunc != nil {
		return m.FundamentalsFunc(ctx, symbol)
	}
	return ratios.MetricSet{}, errors.New("FundamentalsFunc not implemented")
}
