package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/godilite/stock-advisor/internal/forecast"
	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
	"github.com/godilite/stock-advisor/internal/repository/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dbTimeout              = 1 * time.Second
	defaultUpstreamTimeout = 10 * time.Second

	defaultNewsLimit    = 5
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
	predictionCurrency  = "USD"
)

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrNoData        = errors.New("no data available")
	ErrRateLimited   = errors.New("rate limited")
	ErrUpstream      = errors.New("upstream failure")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,19}$`)

// NormalizeSymbol trims and upper-cases s and rejects anything that cannot be
// a ticker.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// StockService fetches market data and evaluates fundamentals.
type StockService struct {
	market    MarketData
	snapshots SnapshotRepository
	logger    *zap.Logger

	historyStart    time.Time
	newsLimit       int
	upstreamTimeout time.Duration
	now             func() time.Time
}

type Option func(*StockService)

// WithHistoryStart sets the first date of the chart and prediction window.
func WithHistoryStart(t time.Time) Option {
	return func(s *StockService) { s.historyStart = t }
}

func WithNewsLimit(n int) Option {
	return func(s *StockService) {
		if n > 0 {
			s.newsLimit = n
		}
	}
}

// WithUpstreamTimeout bounds each provider call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *StockService) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *StockService) { s.now = now }
}

// NewStockService creates a new StockService instance.
func NewStockService(md MarketData, snapshots SnapshotRepository, logger *zap.Logger, opts ...Option) *StockService {
	if md == nil {
		panic("market data must not be nil")
	}
	if snapshots == nil {
		panic("snapshot repository must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &StockService{
		market:          md,
		snapshots:       snapshots,
		logger:          logger,
		historyStart:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		newsLimit:       defaultNewsLimit,
		upstreamTimeout: defaultUpstreamTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// upstreamErr maps provider failures onto the service's sentinels. Context
// errors pass through only when the caller's ctx is done; otherwise the
// provider call hit its own timeout and counts as an upstream failure.
func upstreamErr(ctx context.Context, op string, err error) error {
	switch {
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: provider timed out: %v", ErrUpstream, op, err)
	case errors.Is(err, market.ErrSymbolNotFound):
		return fmt.Errorf("%s: %w", op, ErrNoData)
	case errors.Is(err, market.ErrRateLimited):
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
}

// Quote returns the latest price for symbol.
func (s *StockService) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return market.Quote{}, err
	}

	upCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	q, err := s.market.Quote(upCtx, sym)
	if err != nil {
		return market.Quote{}, upstreamErr(ctx, "quote", err)
	}

	s.logger.Info("fetched quote",
		zap.String("symbol", sym),
		zap.Float64("price", q.Price),
		zap.String("currency", q.Currency))

	return q, nil
}

// History returns monthly candles from the configured start date until now.
func (s *StockService) History(ctx context.Context, symbol string) ([]market.Candle, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return s.history(ctx, sym)
}

func (s *StockService) history(ctx context.Context, sym string) ([]market.Candle, error) {
	upCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	candles, err := s.market.History(upCtx, sym, s.historyStart, s.now(), market.IntervalMonth)
	if err != nil {
		return nil, upstreamErr(ctx, "history", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("history: %w", ErrNoData)
	}
	return candles, nil
}

// News returns the most recent articles for symbol.
func (s *StockService) News(ctx context.Context, symbol string) ([]market.Article, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	upCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	articles, err := s.market.News(upCtx, sym, s.newsLimit)
	if err != nil {
		return nil, upstreamErr(ctx, "news", err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("news: %w", ErrNoData)
	}
	return articles, nil
}

// Ratios fetches fundamentals, evaluates them and records the score.
func (s *StockService) Ratios(ctx context.Context, symbol string) (RatioReport, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return RatioReport{}, err
	}

	upCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	metrics, err := s.market.Fundamentals(upCtx, sym)
	if err != nil {
		return RatioReport{}, upstreamErr(ctx, "fundamentals", err)
	}

	ev := ratios.Evaluate(metrics)

	s.logger.Info("evaluated ratios",
		zap.String("symbol", sym),
		zap.Int("metrics", metrics.Len()),
		zap.Float64("total_points", ev.Result.TotalPoints),
		zap.String("score", ev.Result.PercentageString()))

	s.recordSnapshot(ctx, sym, ev.Result)

	return RatioReport{Symbol: sym, Evaluation: ev}, nil
}

// recordSnapshot stores the score. Failures are logged, not returned.
func (s *StockService) recordSnapshot(ctx context.Context, sym string, res ratios.Result) {
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dbTimeout)
	defer cancel()

	_, err := s.snapshots.SaveSnapshot(dbCtx, models.ScoreSnapshot{
		Symbol:      sym,
		TotalPoints: res.TotalPoints,
		MaxPoints:   res.MaxPoints,
		Percentage:  res.Percentage,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to record score snapshot", zap.String("symbol", sym), zap.Error(err))
	}
}

// Predict projects the price one year past the last monthly close.
func (s *StockService) Predict(ctx context.Context, symbol string) (Prediction, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return Prediction{}, err
	}

	candles, err := s.history(ctx, sym)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}

	points := make([]forecast.Point, len(candles))
	for i, c := range candles {
		points[i] = forecast.Point{Date: c.Date, Close: c.Close}
	}

	price, err := forecast.Project(points, forecast.DefaultHorizon)
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			return Prediction{}, fmt.Errorf("predict: %w: %v", ErrNoData, err)
		}
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}

	return Prediction{
		Symbol:         sym,
		PredictedPrice: price,
		Currency:       predictionCurrency,
		HorizonDays:    int(forecast.DefaultHorizon.Hours() / 24),
		Observations:   len(points),
	}, nil
}

// Overview fetches quote, ratios and news concurrently. News is optional:
// its failure yields an empty list.
func (s *StockService) Overview(ctx context.Context, symbol string) (Overview, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return Overview{}, err
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q, err := s.Quote(gctx, sym)
		out.Quote = q
		return err
	})
	g.Go(func() error {
		r, err := s.Ratios(gctx, sym)
		out.Ratios = r
		return err
	})
	g.Go(func() error {
		news, err := s.News(gctx, sym)
		if err != nil {
			s.logger.Warn("overview without news", zap.String("symbol", sym), zap.Error(err))
			news = []market.Article{}
		}
		out.News = news
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	return out, nil
}

// ScoreHistory returns up to limit recorded scores for symbol, newest first.
func (s *StockService) ScoreHistory(ctx context.Context, symbol string, limit int) ([]ScoreHistoryEntry, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	snaps, err := s.snapshots.ListSnapshots(dbCtx, sym, limit)
	if err != nil {
		s.logger.Error("failed to list score snapshots", zap.Error(err))
		return nil, fmt.Errorf("list score snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, ErrNoData
	}

	out := make([]ScoreHistoryEntry, len(snaps))
	for i, snap := range snaps {
		out[i] = ScoreHistoryEntry{
			TotalPoints:     snap.TotalPoints,
			MaxPoints:       snap.MaxPoints,
			ScorePercentage: ratios.Result{Percentage: snap.Percentage}.PercentageString(),
			CreatedAt:       snap.CreatedAt,
		}
	}
	return out, nil
}
