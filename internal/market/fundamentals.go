package market

import (
	"context"
	"fmt"

	"github.com/godilite/stock-advisor/internal/ratios"
)

type field struct {
	module string
	key    string
}

// fundamentalFields maps each metric to where the quoteSummary payload keeps it.
// Values are copied as-is; percent conversion belongs to the ratios package.
var fundamentalFields = map[ratios.Metric]field{
	ratios.PriceEarningsRatio:        {"defaultKeyStatistics", "forwardPE"},
	ratios.PriceToBookRatio:          {"defaultKeyStatistics", "priceToBook"},
	ratios.ReturnOnEquity:            {"financialData", "returnOnEquity"},
	ratios.ReturnOnAssets:            {"financialData", "returnOnAssets"},
	ratios.ReturnOnCapitalEmployed:   {"financialData", "returnOnCapitalEmployed"},
	ratios.DebtEquityRatio:           {"financialData", "debtToEquity"},
	ratios.CurrentRatio:              {"financialData", "currentRatio"},
	ratios.QuickRatio:                {"financialData", "quickRatio"},
	ratios.CashRatio:                 {"financialData", "cashRatio"},
	ratios.OperatingCashFlowPerShare: {"financialData", "operatingCashflowPerShare"},
	ratios.DividendYield:             {"summaryDetail", "dividendYield"},
	ratios.GrossProfitMargin:         {"financialData", "grossMargins"},
	ratios.OperatingProfitMargin:     {"financialData", "operatingMargins"},
	ratios.NetProfitMargin:           {"financialData", "profitMargins"},
	ratios.EbitPerRevenue:            {"financialData", "ebitdaMargins"},
	ratios.InterestCoverage:          {"financialData", "interestCoverage"},
	ratios.AssetTurnover:             {"financialData", "assetTurnover"},
	ratios.FreeCashFlowPerShare:      {"financialData", "freeCashflowPerShare"},
}

var fundamentalModules = []string{"financialData", "defaultKeyStatistics", "summaryDetail"}

// Fundamentals returns the raw ratio inputs for symbol. Null or missing
// fields are left out of the set.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (ratios.MetricSet, error) {
	modules, err := c.quoteSummary(ctx, symbol, fundamentalModules...)
	if err != nil {
		return ratios.MetricSet{}, fmt.Errorf("fundamentals %s: %w", symbol, err)
	}

	found := false
	for _, name := range fundamentalModules {
		if modules[name] != nil {
			found = true
			break
		}
	}
	if !found {
		return ratios.MetricSet{}, fmt.Errorf("fundamentals %s: %w", symbol, ErrSymbolNotFound)
	}

	return extractMetrics(modules), nil
}

func extractMetrics(modules map[string]map[string]any) ratios.MetricSet {
	values := make(map[ratios.Metric]float64, len(fundamentalFields))
	for metric, f := range fundamentalFields {
		if v, ok := number(modules[f.module], f.key); ok {
			values[metric] = v
		}
	}
	return ratios.NewMetricSet(values)
}
