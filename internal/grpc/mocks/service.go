package mocks

import (
	"context"
	"errors"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
)

// MockStockService is a mock implementation of the StockService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockStockService struct {
	QuoteFunc   func(ctx context.Context, symbol string) (market.Quote, error)
	RatiosFunc  func(ctx context.Context, symbol string) (service.RatioReport, error)
	PredictFunc func(ctx context.Context, symbol string) (service.Prediction, error)
}

// Quote implements the StockService interface
func (m *MockStockService) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, symbol)
	}
	return market.Quote{}, errors.New("QuoteFunc not implemented")
}

// Ratios implements the StockService interface
func (m *MockStockService) Ratios(ctx context.Context, symbol string) (service.RatioReport, error) {
	if m.RatiosFunc != nil {
		return m.RatiosFunc(ctx, symbol)
	}
	return service.RatioReport{}, errors.New("RatiosFunc not implemented")
}

// Predict implements the StockService interface
func (m *MockStockService) Predict(ctx context.Context, symbol string) (service.Prediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, symbol)
	}
	return service.Prediction{}, errors.New("PredictFunc not implemented")
}
