package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/godilite/stock-advisor/internal/cachex"
	cachemocks "github.com/godilite/stock-advisor/internal/cachex/mocks"
	"github.com/godilite/stock-advisor/internal/http/mocks"
	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
	"github.com/godilite/stock-advisor/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(stocks StockService, loader *cachex.Loader, opts ...RouterOption) http.Handler {
	return NewRouter(NewHandlers(stocks, loader, zap.NewNop()), zap.NewNop(), opts...)
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// TestNewHandlers tests the constructor
func TestNewHandlers(t *testing.T) {
	t.Run("nil stock service panics", func(t *testing.T) {
		assert.Panics(t, func() { NewHandlers(nil, nil, nil) })
	})

	t.Run("defaults", func(t *testing.T) {
		h := NewHandlers(&mocks.MockStockService{}, nil, nil)
		assert.NotNil(t, h.loader)
		assert.NotNil(t, h.logger)
	})
}

func TestHealth(t *testing.T) {
	rec := doGet(t, newTestRouter(&mocks.MockStockService{}, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()

	writeJSON(rec, http.StatusOK, map[string]float64{"price": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to encode response", decodeBody(t, rec)["error"])
}

func TestRatiosRoute_NonFiniteMetrics(t *testing.T) {
	stocks := &mocks.MockStockService{
		RatiosFunc: func(ctx context.Context, symbol string) (service.RatioReport, error) {
			return service.RatioReport{
				Symbol: symbol,
				Evaluation: ratios.Evaluate(ratios.NewMetricSet(map[ratios.Metric]float64{
					ratios.PriceEarningsRatio: math.Inf(1),
					ratios.CurrentRatio:       math.NaN(),
				})),
			}, nil
		},
	}

	rec := doGet(t, newTestRouter(stocks, nil), "/ratios/AAPL")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	table, ok := body["ratios"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ratios.Placeholder, table["P/E Ratio"])
	assert.Equal(t, ratios.Placeholder, table["Current Ratio"])
	assert.Equal(t, "0.00%", body["scorePercentage"])
}

func TestQuoteRoute(t *testing.T) {
	stocks := &mocks.MockStockService{
		QuoteFunc: func(ctx context.Context, symbol string) (market.Quote, error) {
			assert.Equal(t, "AAPL", symbol)
			return market.Quote{Symbol: symbol, Name: "Apple Inc.", Price: 187.5, Currency: "USD"}, nil
		},
	}

	rec := doGet(t, newTestRouter(stocks, nil), "/stock/aapl")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, 187.5, body["price"])
	assert.Nil(t, body["marketTime"])
}

func TestRatiosRoute(t *testing.T) {
	t.Run("flat report", func(t *testing.T) {
		stocks := &mocks.MockStockService{
			RatiosFunc: func(ctx context.Context, symbol string) (service.RatioReport, error) {
				return service.RatioReport{
					Symbol: symbol,
					Evaluation: ratios.Evaluate(ratios.NewMetricSet(map[ratios.Metric]float64{
						ratios.PriceEarningsRatio: 15,
					})),
				}, nil
			},
		}

		rec := doGet(t, newTestRouter(stocks, nil), "/ratios/MSFT")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "MSFT", body["symbol"])
		assert.Equal(t, 2.0, body["totalPoints"])
		assert.Equal(t, 20.0, body["maxPoints"])
		assert.Equal(t, "10.00%", body["scorePercentage"])

		table, ok := body["ratios"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 15.0, table["P/E Ratio"])
		assert.Equal(t, ratios.Placeholder, table["ROE"])
	})

	t.Run("served from cache on repeat", func(t *testing.T) {
		calls := 0
		stocks := &mocks.MockStockService{
			RatiosFunc: func(ctx context.Context, symbol string) (service.RatioReport, error) {
				calls++
				return service.RatioReport{Symbol: symbol, Evaluation: ratios.Evaluate(ratios.NewMetricSet(nil))}, nil
			},
		}
		cache := cachemocks.NewMemoryCache()
		loader := cachex.NewLoader(cache, time.Minute, zap.NewNop(), cachex.WithRefreshJitter(time.Hour))
		router := newTestRouter(stocks, loader)

		first := doGet(t, router, "/ratios/MSFT")
		require.Eventually(t, func() bool { return cache.Has("http:ratios:MSFT") }, time.Second, 5*time.Millisecond)
		second := doGet(t, router, "/ratios/msft")

		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, 1, calls)
		assert.JSONEq(t, first.Body.String(), second.Body.String())
	})
}

// TestErrorMapping tests that service errors become status codes
func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"no data", fmt.Errorf("history: %w", service.ErrNoData), http.StatusNotFound, "no data found for symbol"},
		{"rate limited", fmt.Errorf("history: %w", service.ErrRateLimited), http.StatusTooManyRequests, "upstream rate limit reached, retry later"},
		{"upstream", fmt.Errorf("%w: history: reset", service.ErrUpstream), http.StatusServiceUnavailable, "market data provider unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stocks := &mocks.MockStockService{
				HistoryFunc: func(ctx context.Context, symbol string) ([]market.Candle, error) {
					return nil, tc.err
				},
			}

			rec := doGet(t, newTestRouter(stocks, nil), "/history/IBM")

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.msg, decodeBody(t, rec)["error"])
		})
	}

	t.Run("invalid symbol", func(t *testing.T) {
		called := false
		stocks := &mocks.MockStockService{
			NewsFunc: func(ctx context.Context, symbol string) ([]market.Article, error) {
				called = true
				return nil, nil
			},
		}

		rec := doGet(t, newTestRouter(stocks, nil), "/news/$$$")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["error"], "invalid symbol")
		assert.False(t, called)
	})

	t.Run("request timeout", func(t *testing.T) {
		stocks := &mocks.MockStockService{
			PredictFunc: func(ctx context.Context, symbol string) (service.Prediction, error) {
				<-ctx.Done()
				return service.Prediction{}, ctx.Err()
			},
		}

		rec := doGet(t, newTestRouter(stocks, nil, WithRequestTimeout(20*time.Millisecond)), "/predict/IBM")

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := doGet(t, newTestRouter(&mocks.MockStockService{}, nil), "/nope")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "route not found", decodeBody(t, rec)["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stock/AAPL", nil)
		rec := httptest.NewRecorder()
		newTestRouter(&mocks.MockStockService{}, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestOverviewRoute(t *testing.T) {
	stocks := &mocks.MockStockService{
		OverviewFunc: func(ctx context.Context, symbol string) (service.Overview, error) {
			return service.Overview{
				Quote:  market.Quote{Symbol: symbol, Price: 10},
				Ratios: service.RatioReport{Symbol: symbol, Evaluation: ratios.Evaluate(ratios.NewMetricSet(nil))},
				News:   []market.Article{},
			}, nil
		},
	}

	rec := doGet(t, newTestRouter(stocks, nil), "/overview/NVDA")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "quote")
	assert.Contains(t, body, "ratios")
	assert.Equal(t, []any{}, body["news"])
}

func TestScoresRoute(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("passes limit", func(t *testing.T) {
		stocks := &mocks.MockStockService{
			ScoreHistoryFunc: func(ctx context.Context, symbol string, limit int) ([]service.ScoreHistoryEntry, error) {
				assert.Equal(t, "aapl", symbol)
				assert.Equal(t, 2, limit)
				return []service.ScoreHistoryEntry{
					{TotalPoints: 5, MaxPoints: 20, ScorePercentage: "25.00%", CreatedAt: created},
				}, nil
			},
		}

		rec := doGet(t, newTestRouter(stocks, nil), "/scores/aapl?limit=2")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"totalPoints":5,"maxPoints":20,"scorePercentage":"25.00%","createdAt":"2025-06-01T12:00:00Z"}]`, rec.Body.String())
	})

	t.Run("default limit", func(t *testing.T) {
		stocks := &mocks.MockStockService{
			ScoreHistoryFunc: func(ctx context.Context, symbol string, limit int) ([]service.ScoreHistoryEntry, error) {
				assert.Equal(t, 0, limit)
				return nil, service.ErrNoData
			},
		}

		rec := doGet(t, newTestRouter(stocks, nil), "/scores/AAPL")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	for _, raw := range []string{"abc", "0", "-3"} {
		t.Run("bad limit "+raw, func(t *testing.T) {
			rec := doGet(t, newTestRouter(&mocks.MockStockService{}, nil), "/scores/AAPL?limit="+raw)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(&mocks.MockStockService{}, nil, WithAllowedOrigins("https://app.example.com"))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/stock/AAPL", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/stock/AAPL", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer(t *testing.T) {
	srv, err := NewServer(0, newTestRouter(&mocks.MockStockService{}, nil), zap.NewNop())
	require.NoError(t, err)
	srv.Start()

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))

	_, err = NewServer(-1, nil, nil)
	assert.Error(t, err)
}
