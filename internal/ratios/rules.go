package ratios

// Range is an inclusive numeric interval.
type Range struct {
	Lo float64
	Hi float64
}

// Contains reports whether lo <= v <= hi.
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Rule describes how one metric earns points.
type Rule struct {
	Ideal     Range
	Tolerable Range
	// Weighted rules earn 2.0/1.7 points instead of 1.0/0.8.
	Weighted bool
}

const (
	idealPoints             = 1.0
	tolerablePoints         = 0.8
	weightedIdealPoints     = 2.0
	weightedTolerablePoints = 1.7
)

// Points returns the points v earns under r. Ideal is checked before
// tolerable, so a value inside both ranges always scores as ideal.
func (r Rule) Points(v float64) float64 {
	switch {
	case r.Ideal.Contains(v):
		if r.Weighted {
			return weightedIdealPoints
		}
		return idealPoints
	case r.Tolerable.Contains(v):
		if r.Weighted {
			return weightedTolerablePoints
		}
		return tolerablePoints
	default:
		return 0
	}
}

// Max returns the most points any value can earn under r.
func (r Rule) Max() float64 {
	if r.Weighted {
		return weightedIdealPoints
	}
	return idealPoints
}

// defaultRules is read-only after package init. Percent-scale metrics are
// expressed in percent here.
var defaultRules = map[Metric]Rule{
	PriceEarningsRatio:        {Ideal: Range{10, 25}, Tolerable: Range{5, 50}, Weighted: true},
	ReturnOnEquity:            {Ideal: Range{15, 100}, Tolerable: Range{5, 15}, Weighted: true},
	PriceToBookRatio:          {Ideal: Range{1, 5}, Tolerable: Range{5, 10}},
	ReturnOnAssets:            {Ideal: Range{7, 100}, Tolerable: Range{1, 7}},
	ReturnOnCapitalEmployed:   {Ideal: Range{10, 35}, Tolerable: Range{5, 10}},
	DebtEquityRatio:           {Ideal: Range{0.5, 1.5}, Tolerable: Range{1.5, 3.5}},
	CurrentRatio:              {Ideal: Range{1.5, 3}, Tolerable: Range{1, 1.5}},
	QuickRatio:                {Ideal: Range{1, 2}, Tolerable: Range{0.5, 1}},
	CashRatio:                 {Ideal: Range{1, 2}, Tolerable: Range{0.5, 1}},
	OperatingCashFlowPerShare: {Ideal: Range{5, 20}, Tolerable: Range{2, 5}},
	DividendYield:             {Ideal: Range{1, 100}, Tolerable: Range{0.5, 2}},
	GrossProfitMargin:         {Ideal: Range{20, 100}, Tolerable: Range{10, 20}},
	OperatingProfitMargin:     {Ideal: Range{12, 30}, Tolerable: Range{2, 12}},
	NetProfitMargin:           {Ideal: Range{6, 100}, Tolerable: Range{1.5, 6}},
	EbitPerRevenue:            {Ideal: Range{10, 40}, Tolerable: Range{2, 10}},
	InterestCoverage:          {Ideal: Range{3, 20}, Tolerable: Range{1.5, 3}},
	AssetTurnover:             {Ideal: Range{0.8, 3.5}, Tolerable: Range{0.5, 0.8}},
	FreeCashFlowPerShare:      {Ideal: Range{5, 20}, Tolerable: Range{2, 5}},
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() map[Metric]Rule {
	out := make(map[Metric]Rule, len(defaultRules))
	for k, v := range defaultRules {
		out[k] = v
	}
	return out
}

// RuleFor returns the default rule for m.
func RuleFor(m Metric) (Rule, bool) {
	r, ok := defaultRules[m]
	return r, ok
}
