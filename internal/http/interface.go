package http

import (
	"context"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
)

// StockService is the service layer as seen by the REST handlers.
type StockService interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	History(ctx context.Context, symbol string) ([]market.Candle, error)
	News(ctx context.Context, symbol string) ([]market.Article, error)
	Ratios(ctx context.Context, symbol string) (service.RatioReport, error)
	Predict(ctx context.Context, symbol string) (service.Prediction, error)
	Overview(ctx context.Context, symbol string) (service.Overview, error)
	ScoreHistory(ctx context.Context, symbol string, limit int) ([]service.ScoreHistoryEntry, error)
}
