package service

import (
	"context"
	"time"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
	"github.com/godilite/stock-advisor/internal/repository/models"
)

// MarketData defines the upstream calls the service depends on.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	History(ctx context.Context, symbol string, from, to time.Time, interval market.Interval) ([]market.Candle, error)
	News(ctx context.Context, symbol string, limit int) ([]market.Article, error)
	Fundamentals(ctx context.Context, symbol string) (ratios.MetricSet, error)
}

// SnapshotRepository defines the database operations for score history.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap models.ScoreSnapshot) (int64, error)
	ListSnapshots(ctx context.Context, symbol string, limit int) ([]models.ScoreSnapshot, error)
}
