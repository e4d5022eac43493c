package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
	"github.com/godilite/stock-advisor/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type fakeBackend struct {
	quoteErr error
}

func (f *fakeBackend) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if f.quoteErr != nil {
		return market.Quote{}, f.quoteErr
	}
	at := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	return market.Quote{Symbol: symbol, Name: "Apple Inc.", Price: 187.5, Currency: "USD", MarketTime: &at}, nil
}

func (f *fakeBackend) Ratios(ctx context.Context, symbol string) (service.RatioReport, error) {
	return service.RatioReport{
		Symbol: symbol,
		Evaluation: ratios.Evaluate(ratios.NewMetricSet(map[ratios.Metric]float64{
			ratios.PriceEarningsRatio: 15,
			ratios.ReturnOnEquity:     0.20,
		})),
	}, nil
}

func (f *fakeBackend) Predict(ctx context.Context, symbol string) (service.Prediction, error) {
	return service.Prediction{Symbol: symbol, PredictedPrice: 292.5, Currency: "USD", HorizonDays: 365, Observations: 3}, nil
}

type nopCloser struct{ closed *bool }

func (c nopCloser) Close() error {
	*c.closed = true
	return nil
}

func runCommand(t *testing.T, backend Backend, args ...string) (string, bool, error) {
	t.Helper()
	closed := false
	open := func(ctx context.Context, remote string) (Backend, io.Closer, error) {
		return backend, nopCloser{&closed}, nil
	}

	root := NewRootCommand(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), closed, err
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, "Strong", Verdict(70))
	assert.Equal(t, "Fair", Verdict(69.99))
	assert.Equal(t, "Fair", Verdict(40))
	assert.Equal(t, "Weak", Verdict(39.99))
	assert.Equal(t, "Weak", Verdict(0))
}

func TestRatiosCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		out, closed, err := runCommand(t, &fakeBackend{}, "ratios", "MSFT")

		require.NoError(t, err)
		assert.True(t, closed)
		assert.Contains(t, out, "P/E Ratio")
		assert.Contains(t, out, "15")
		assert.Contains(t, out, ratios.Placeholder)
		assert.Contains(t, out, "MSFT: 4.00 / 20.00 points (20.00%) Weak")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := runCommand(t, &fakeBackend{}, "ratios", "MSFT", "-o", "json")

		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &body))
		assert.Equal(t, "MSFT", body["symbol"])
		assert.Equal(t, "20.00%", body["scorePercentage"])
	})

	t.Run("missing symbol", func(t *testing.T) {
		_, _, err := runCommand(t, &fakeBackend{}, "ratios")
		assert.Error(t, err)
	})

	t.Run("bad output", func(t *testing.T) {
		_, _, err := runCommand(t, &fakeBackend{}, "ratios", "MSFT", "-o", "xml")
		assert.EqualError(t, err, `unknown output format "xml"`)
	})
}

func TestQuoteCommand(t *testing.T) {
	out, _, err := runCommand(t, &fakeBackend{}, "quote", "AAPL")

	require.NoError(t, err)
	assert.Contains(t, out, "Apple Inc.")
	assert.Contains(t, out, "187.50")
	assert.Contains(t, out, "2025-06-01 20:00 UTC")

	_, _, err = runCommand(t, &fakeBackend{quoteErr: service.ErrNoData}, "quote", "AAPL")
	assert.True(t, errors.Is(err, service.ErrNoData))
}

func TestPredictCommand(t *testing.T) {
	out, _, err := runCommand(t, &fakeBackend{}, "predict", "IBM")

	require.NoError(t, err)
	assert.Equal(t, "IBM: projected 292.50 USD in 365 days (from 3 monthly closes)\n", out)
}

func TestRemoteFlag(t *testing.T) {
	var gotRemote string
	open := func(ctx context.Context, remote string) (Backend, io.Closer, error) {
		gotRemote = remote
		return nil, nil, errors.New("dial failed")
	}

	root := NewRootCommand(open)
	root.SetOut(io.Discard)
	root.SetArgs([]string{"quote", "AAPL", "--remote", "localhost:50051"})

	err := root.Execute()

	assert.EqualError(t, err, "dial failed")
	assert.Equal(t, "localhost:50051", gotRemote)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCommand(t, &fakeBackend{}, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
}

func TestWriteRatios(t *testing.T) {
	var buf bytes.Buffer
	report := service.RatioReport{Symbol: "X", Evaluation: ratios.Evaluate(ratios.NewMetricSet(nil))}

	require.NoError(t, WriteRatios(&buf, report))

	assert.Contains(t, buf.String(), "Free Cash Flow")
	assert.Contains(t, buf.String(), "X: 0.00 / 20.00 points (0.00%) Weak")
}
