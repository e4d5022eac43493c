// Package market is a client for the Yahoo Finance JSON API.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultCookieURL = "https://fc.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
)

var (
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrRateLimited         = errors.New("upstream rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// APIError is a non-2xx upstream response that maps to no sentinel.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

const crumbPath = "/v1/test/getcrumb"

type Client struct {
	baseURL    string
	cookieURL  string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	crumbMu sync.Mutex
	crumb   string
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCookieURL sets the page that hands out the session cookie the crumb is
// bound to.
func WithCookieURL(cookieURL string) ClientOption {
	return func(c *Client) {
		c.cookieURL = cookieURL
	}
}

// WithHTTPClient sets the transport. A client without a cookie jar is copied
// and given one.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables the limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client with a browser user agent and a default rate limit.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		cookieURL:  DefaultCookieURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		hc := *c.httpClient
		hc.Jar = jar
		c.httpClient = &hc
	}
	c.logger = c.logger.Named("market")
	return c
}

// send performs a rate-limited GET. The caller closes the body.
func (c *Client) send(ctx context.Context, reqURL, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/html")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnReset(err) {
			c.logger.Warn("connection reset by upstream", zap.String("path", path))
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}

	c.logger.Debug("upstream request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.send(ctx, reqURL, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrSymbolNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("upstream rate limit hit", zap.String("path", path))
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isConnReset(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && strings.Contains(opErr.Error(), "connection reset")
}

// getCrumb returns the cached crumb, or performs the cookie and crumb
// handshake when there is none or the cached one equals stale.
func (c *Client) getCrumb(ctx context.Context, stale string) (string, error) {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()

	if c.crumb != "" && c.crumb != stale {
		return c.crumb, nil
	}
	c.crumb = ""

	// The cookie page answers with an error status but still sets the cookie.
	if c.cookieURL != "" {
		resp, err := c.send(ctx, c.cookieURL, "cookie")
		if err != nil {
			return "", fmt.Errorf("fetch cookie: %w", err)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
	}

	resp, err := c.send(ctx, c.baseURL+crumbPath, crumbPath)
	if err != nil {
		return "", fmt.Errorf("fetch crumb: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: crumb status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "{<") {
		return "", fmt.Errorf("%w: empty crumb", ErrUpstreamUnavailable)
	}
	c.crumb = crumb
	c.logger.Debug("crumb acquired")
	return crumb, nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) quoteSummary(ctx context.Context, symbol string, modules ...string) (map[string]map[string]any, error) {
	params := url.Values{}
	params.Set("modules", strings.Join(modules, ","))
	params.Set("formatted", "false")
	path := "/v10/finance/quoteSummary/" + url.PathEscape(symbol)

	var env quoteSummaryEnvelope
	err := c.withCrumb(ctx, func(crumb string) error {
		params.Set("crumb", crumb)
		env = quoteSummaryEnvelope{}
		return c.get(ctx, path, params, &env)
	})
	if err != nil {
		return nil, err
	}
	if env.QuoteSummary.Error != nil {
		if strings.EqualFold(env.QuoteSummary.Error.Code, "Not Found") {
			return nil, ErrSymbolNotFound
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: env.QuoteSummary.Error.Description, Endpoint: "quoteSummary"}
	}
	if len(env.QuoteSummary.Result) == 0 {
		return nil, ErrSymbolNotFound
	}
	return env.QuoteSummary.Result[0], nil
}

// withCrumb runs call with the session crumb. A 401 answer discards the crumb
// and retries once with a fresh one.
func (c *Client) withCrumb(ctx context.Context, call func(crumb string) error) error {
	crumb, err := c.getCrumb(ctx, "")
	if err != nil {
		return err
	}
	err = call(crumb)
	if !isUnauthorized(err) {
		return err
	}

	c.logger.Info("crumb rejected, renewing")
	if crumb, err = c.getCrumb(ctx, crumb); err != nil {
		return err
	}
	return call(crumb)
}

// Quote returns the latest price of symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	modules, err := c.quoteSummary(ctx, symbol, "price")
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
	}

	price := modules["price"]
	p, ok := number(price, "regularMarketPrice")
	if !ok {
		return Quote{}, fmt.Errorf("quote %s: %w", symbol, ErrSymbolNotFound)
	}

	q := Quote{
		Symbol:   str(price, "symbol"),
		Name:     str(price, "longName"),
		Price:    p,
		Currency: str(price, "currency"),
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if ts, ok := number(price, "regularMarketTime"); ok && ts > 0 {
		mt := time.Unix(int64(ts), 0).UTC()
		q.MarketTime = &mt
	}
	return q, nil
}

// History returns candles between from and to at the given interval.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time, interval Interval) ([]Candle, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", string(interval))
	params.Set("events", "div,split")

	var env chartEnvelope
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, &env); err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	if env.Chart.Error != nil || len(env.Chart.Result) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, ErrSymbolNotFound)
	}

	candles := toCandles(env.Chart.Result[0])
	if len(candles) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, ErrSymbolNotFound)
	}
	return candles, nil
}

func toCandles(r chartResult) []Candle {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	out := make([]Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		c := Candle{
			Date:     time.Unix(ts, 0).UTC(),
			Open:     deref(at(q.Open, i)),
			High:     deref(at(q.High, i)),
			Low:      deref(at(q.Low, i)),
			Close:    *cl,
			AdjClose: *cl,
		}
		if a := at(adj, i); a != nil {
			c.AdjClose = *a
		}
		if v := at(q.Volume, i); v != nil {
			c.Volume = *v
		}
		out = append(out, c)
	}
	return out
}

// News returns up to limit recent articles mentioning symbol.
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]Article, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("quotesCount", "0")
	params.Set("newsCount", strconv.Itoa(limit))

	var env searchEnvelope
	if err := c.get(ctx, "/v1/finance/search", params, &env); err != nil {
		return nil, fmt.Errorf("news %s: %w", symbol, err)
	}
	if len(env.News) == 0 {
		return nil, fmt.Errorf("news %s: %w", symbol, ErrSymbolNotFound)
	}

	n := len(env.News)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Article, 0, n)
	for _, a := range env.News[:n] {
		published := "Unknown"
		if a.ProviderPublishTime > 0 {
			published = time.Unix(a.ProviderPublishTime, 0).UTC().Format(time.RFC3339)
		}
		out = append(out, Article{
			Title:         a.Title,
			Link:          a.Link,
			Publisher:     a.Publisher,
			PublishedDate: published,
		})
	}
	return out, nil
}

func at[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// number reads a numeric field, accepting both plain and {"raw": n} encodings.
func number(module map[string]any, key string) (float64, bool) {
	switch v := module[key].(type) {
	case float64:
		return v, true
	case map[string]any:
		raw, ok := v["raw"].(float64)
		return raw, ok
	default:
		return 0, false
	}
}

func str(module map[string]any, key string) string {
	s, _ := module[key].(string)
	return s
}
