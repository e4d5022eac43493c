package mocks

import (
	"context"
	"errors"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
)

// MockStockService is a mock implementation of the StockService interface
// for testing the REST handlers.
type MockStockService struct {
	QuoteFunc        func(ctx context.Context, symbol string) (market.Quote, error)
	HistoryFunc      func(ctx context.Context, symbol string) ([]market.Candle, error)
	NewsFunc         func(ctx context.Context, symbol string) ([]market.Article, error)
	RatiosFunc       func(ctx context.Context, symbol string) (service.RatioReport, error)
	PredictFunc      func(ctx context.Context, symbol string) (service.Prediction, error)
	OverviewFunc     func(ctx context.Context, symbol string) (service.Overview, error)
	ScoreHistoryFunc func(ctx context.Context, symbol string, limit int) ([]service.ScoreHistoryEntry, error)
}

func (m *MockStockService) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, symbol)
	}
	return market.Quote{}, errors.New("QuoteFunc not implemented")
}

func (m *MockStockService) History(ctx context.Context, symbol string) ([]market.Candle, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, symbol)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

func (m *MockStockService) News(ctx context.Context, symbol string) ([]market.Article, error) {
	if m.NewsFunc != nil {
		return m.NewsFunc(ctx, symbol)
	}
	return nil, errors.New("NewsFunc not implemented")
}

func (m *MockStockService) Ratios(ctx context.Context, symbol string) (service.RatioReport, error) {
	if m.RatiosFunc != nil {
		return m.RatiosFunc(ctx, symbol)
	}
	return service.RatioReport{}, errors.New("RatiosFunc not implemented")
}

func (m *MockStockService) Predict(ctx context.Context, symbol string) (service.Prediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, symbol)
	}
	return service.Prediction{}, errors.New("PredictFunc not implemented")
}

func (m *MockStockService) Overview(ctx context.Context, symbol string) (service.Overview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx, symbol)
	}
	return service.Overview{}, errors.New("OverviewFunc not implemented")
}

func (m *MockStockService) ScoreHistory(ctx context.Context, symbol string, limit int) ([]service.ScoreHistoryEntry, error) {
	if m.ScoreHistoryFunc != nil {
		return m.ScoreHistoryFunc(ctx, symbol, limit)
	}
	return nil, errors.New("ScoreHistoryFunc not implemented")
}
