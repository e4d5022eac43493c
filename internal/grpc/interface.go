package grpc

import (
	"context"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
)

// StockService is the part of the service layer exposed over gRPC.
type StockService interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	Ratios(ctx context.Context, symbol string) (service.RatioReport, error)
	Predict(ctx context.Context, symbol string) (service.Prediction, error)
}
