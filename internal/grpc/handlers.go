package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/stock-advisor/internal/cachex"
	"github.com/godilite/stock-advisor/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	defaultGRPCTimeout = 10 * time.Second
	cacheScope         = "grpc"
)

type CacheKeyType string

const (
	cacheKeyRatios     CacheKeyType = "ratios"
	cacheKeyQuote      CacheKeyType = "quote"
	cacheKeyPrediction CacheKeyType = "predict"
)

type GRPCHandlers struct {
	stocks StockService
	loader *cachex.Loader
	logger *zap.Logger
}

var _ StockAdvisorServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(stocks StockService, loader *cachex.Loader, logger *zap.Logger) *GRPCHandlers {
	if stocks == nil {
		panic("nil StockService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = cachex.NewLoader(nil, 0, logger)
	}
	return &GRPCHandlers{
		stocks: stocks,
		loader: loader,
		logger: logger.Named("grpc-handler"),
	}
}

func (s *GRPCHandlers) parseSymbol(req *wrapperspb.StringValue) (string, error) {
	sym, err := service.NormalizeSymbol(req.GetValue())
	if err != nil {
		return "", status.Error(codes.InvalidArgument, "a valid ticker symbol is required")
	}
	return sym, nil
}

func cacheKey(kind CacheKeyType, symbol string) string {
	return cachex.Key(cacheScope, string(kind), symbol)
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidSymbol):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNoData):
		s.logger.Info("no data", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, "no data found for symbol")
	case errors.Is(err, service.ErrRateLimited):
		s.logger.Warn("upstream rate limited", zap.String("op", op))
		return status.Error(codes.ResourceExhausted, "upstream rate limit reached, retry later")
	case errors.Is(err, service.ErrUpstream):
		s.logger.Error("upstream failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "market data provider unavailable")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

// respond loads a value through the cache and encodes it as a Struct.
func respond[T any](ctx context.Context, s *GRPCHandlers, op string, kind CacheKeyType, req *wrapperspb.StringValue, fetch func(context.Context, string) (T, error)) (*structpb.Struct, error) {
	sym, err := s.parseSymbol(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := cachex.Load(ctx, s.loader, cacheKey(kind, sym), func(fetchCtx context.Context) (T, error) {
		return fetch(fetchCtx, sym)
	})
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}

	out, err := toStruct(v)
	if err != nil {
		s.logger.Error("encode response", zap.String("op", op), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func (s *GRPCHandlers) GetRatios(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return respond(ctx, s, "GetRatios", cacheKeyRatios, req, s.stocks.Ratios)
}

func (s *GRPCHandlers) GetQuote(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return respond(ctx, s, "GetQuote", cacheKeyQuote, req, s.stocks.Quote)
}

func (s *GRPCHandlers) GetPrediction(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return respond(ctx, s, "GetPrediction", cacheKeyPrediction, req, s.stocks.Predict)
}
