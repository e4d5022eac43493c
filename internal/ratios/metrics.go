package ratios

import "math"

// Metric names a fundamental ratio as the upstream provider reports it.
type Metric string

const (
	PriceEarningsRatio        Metric = "priceEarningsRatio"
	PriceToBookRatio          Metric = "priceToBookRatio"
	ReturnOnEquity            Metric = "returnOnEquity"
	ReturnOnAssets            Metric = "returnOnAssets"
	ReturnOnCapitalEmployed   Metric = "returnOnCapitalEmployed"
	DebtEquityRatio           Metric = "debtEquityRatio"
	CurrentRatio              Metric = "currentRatio"
	QuickRatio                Metric = "quickRatio"
	CashRatio                 Metric = "cashRatio"
	OperatingCashFlowPerShare Metric = "operatingCashFlowPerShare"
	DividendYield             Metric = "dividendYield"
	GrossProfitMargin         Metric = "grossProfitMargin"
	OperatingProfitMargin     Metric = "operatingProfitMargin"
	NetProfitMargin           Metric = "netProfitMargin"
	EbitPerRevenue            Metric = "ebitPerRevenue"
	InterestCoverage          Metric = "interestCoverage"
	AssetTurnover             Metric = "assetTurnover"
	FreeCashFlowPerShare      Metric = "freeCashFlowPerShare"
)

// metricOrder is the display order of the ratio table.
var metricOrder = [...]Metric{
	PriceEarningsRatio,
	PriceToBookRatio,
	ReturnOnEquity,
	ReturnOnAssets,
	ReturnOnCapitalEmployed,
	DebtEquityRatio,
	CurrentRatio,
	QuickRatio,
	CashRatio,
	OperatingCashFlowPerShare,
	DividendYield,
	GrossProfitMargin,
	OperatingProfitMargin,
	NetProfitMargin,
	EbitPerRevenue,
	InterestCoverage,
	AssetTurnover,
	FreeCashFlowPerShare,
}

var labels = map[Metric]string{
	PriceEarningsRatio:        "P/E Ratio",
	PriceToBookRatio:          "P/B Ratio",
	ReturnOnEquity:            "ROE",
	ReturnOnAssets:            "ROA",
	ReturnOnCapitalEmployed:   "ROCE",
	DebtEquityRatio:           "Debt-to-Equity",
	CurrentRatio:              "Current Ratio",
	QuickRatio:                "Quick Ratio",
	CashRatio:                 "Cash Ratio",
	OperatingCashFlowPerShare: "EPS",
	DividendYield:             "Dividend Yield",
	GrossProfitMargin:         "Gross Profit Margin",
	OperatingProfitMargin:     "Operating Profit Margin",
	NetProfitMargin:           "Net Profit Margin",
	EbitPerRevenue:            "EBIT Margin",
	InterestCoverage:          "Interest Coverage",
	AssetTurnover:             "Asset Turnover Ratio",
	FreeCashFlowPerShare:      "Free Cash Flow Per Share",
}

// percentScaled metrics arrive as fractions and are compared as percentages.
var percentScaled = map[Metric]bool{
	ReturnOnEquity:          true,
	ReturnOnAssets:          true,
	ReturnOnCapitalEmployed: true,
	DividendYield:           true,
	GrossProfitMargin:       true,
	OperatingProfitMargin:   true,
	NetProfitMargin:         true,
	EbitPerRevenue:          true,
}

// Metrics returns every known metric in display order.
func Metrics() []Metric {
	out := make([]Metric, len(metricOrder))
	copy(out, metricOrder[:])
	return out
}

// Label returns the human-readable label for m, or the metric name itself
// for unknown metrics.
func (m Metric) Label() string {
	if l, ok := labels[m]; ok {
		return l
	}
	return string(m)
}

// Valid reports whether m is one of the known metrics.
func (m Metric) Valid() bool {
	_, ok := labels[m]
	return ok
}

// MetricSet holds the fundamentals of one ticker. A metric missing from the
// set has no value, which is distinct from a value of zero.
type MetricSet struct {
	values map[Metric]float64
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NewMetricSet builds a MetricSet from a plain map. The map is copied.
// NaN and infinite values are treated as absent.
func NewMetricSet(values map[Metric]float64) MetricSet {
	out := MetricSet{values: make(map[Metric]float64, len(values))}
	for k, v := range values {
		if finite(v) {
			out.values[k] = v
		}
	}
	return out
}

// With returns a copy of s with m set to v. A NaN or infinite v removes m.
func (s MetricSet) With(m Metric, v float64) MetricSet {
	out := NewMetricSet(s.values)
	if finite(v) {
		out.values[m] = v
	} else {
		delete(out.values, m)
	}
	return out
}

// Get returns the value of m and whether it is present.
func (s MetricSet) Get(m Metric) (float64, bool) {
	v, ok := s.values[m]
	return v, ok
}

// Len returns the number of metrics that carry a value.
func (s MetricSet) Len() int { return len(s.values) }

// Normalized returns a copy with fraction-scale metrics converted to percent.
func (s MetricSet) Normalized() MetricSet {
	out := MetricSet{values: make(map[Metric]float64, len(s.values))}
	for k, v := range s.values {
		if percentScaled[k] {
			v *= 100
		}
		if finite(v) {
			out.values[k] = v
		}
	}
	return out
}
