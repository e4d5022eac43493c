package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/godilite/stock-advisor/internal/cachex"
	"github.com/godilite/stock-advisor/internal/service"
	"go.uber.org/zap"
)

const cacheScope = "http"

type CacheKeyType string

const (
	cacheKeyQuote    CacheKeyType = "stock"
	cacheKeyHistory  CacheKeyType = "history"
	cacheKeyNews     CacheKeyType = "news"
	cacheKeyRatios   CacheKeyType = "ratios"
	cacheKeyPredict  CacheKeyType = "predict"
	cacheKeyOverview CacheKeyType = "overview"
)

// Handlers serves the REST API. Responses other than score history go
// through the read-through cache.
type Handlers struct {
	stocks StockService
	loader *cachex.Loader
	logger *zap.Logger
}

func NewHandlers(stocks StockService, loader *cachex.Loader, logger *zap.Logger) *Handlers {
	if stocks == nil {
		panic("nil StockService provided to NewHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = cachex.NewLoader(nil, 0, logger)
	}
	return &Handlers{
		stocks: stocks,
		loader: loader,
		logger: logger.Named("http-handler"),
	}
}

func cacheKey(kind CacheKeyType, symbol string) string {
	return cachex.Key(cacheScope, string(kind), symbol)
}

// serve validates the path symbol, loads the value through the cache and
// writes it as JSON.
func serve[T any](h *Handlers, w http.ResponseWriter, r *http.Request, op string, kind CacheKeyType, fetch func(context.Context, string) (T, error)) {
	sym, err := service.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		h.handleError(w, r, op, err)
		return
	}

	v, err := cachex.Load(r.Context(), h.loader, cacheKey(kind, sym), func(ctx context.Context) (T, error) {
		return fetch(ctx, sym)
	})
	if err != nil {
		h.handleError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "Quote", cacheKeyQuote, h.stocks.Quote)
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "History", cacheKeyHistory, h.stocks.History)
}

func (h *Handlers) News(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "News", cacheKeyNews, h.stocks.News)
}

func (h *Handlers) Ratios(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "Ratios", cacheKeyRatios, h.stocks.Ratios)
}

func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "Predict", cacheKeyPredict, h.stocks.Predict)
}

func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "Overview", cacheKeyOverview, h.stocks.Overview)
}

// Scores lists recorded evaluations. It reads storage directly.
func (h *Handlers) Scores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.stocks.ScoreHistory(r.Context(), chi.URLParam(r, "symbol"), limit)
	if err != nil {
		h.handleError(w, r, "Scores", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
