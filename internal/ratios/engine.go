// Package ratios turns raw fundamentals into a display table and a quality
// score.
//
// Scoring and display treat a missing metric differently: the score counts
// it as zero against a fixed maximum, the display shows a placeholder.
package ratios

import (
	"fmt"
	"math"
)

// Result is the aggregated score of one MetricSet.
type Result struct {
	TotalPoints float64
	MaxPoints   float64
	// Percentage is TotalPoints/MaxPoints*100 rounded to two decimals.
	Percentage float64
}

// PercentageString renders Percentage as e.g. "73.50%".
func (r Result) PercentageString() string {
	return fmt.Sprintf("%.2f%%", r.Percentage)
}

// Evaluation is the output of Evaluate.
type Evaluation struct {
	Ratios DisplayTable
	Result Result
}

// Evaluate normalises raw (fraction-scale) fundamentals, then scores them and
// builds the display table. It never fails; an empty set scores zero.
func Evaluate(raw MetricSet) Evaluation {
	metrics := raw.Normalized()
	return Evaluation{
		Ratios: Display(metrics),
		Result: Score(metrics),
	}
}

// Score scores already-normalised metrics against the default rules.
func Score(metrics MetricSet) Result {
	return ScoreWith(defaultRules, metrics)
}

// ScoreWith scores metrics against rules. A missing metric is scored as 0.
// Metrics without a rule do not contribute.
func ScoreWith(rules map[Metric]Rule, metrics MetricSet) Result {
	var total, maxPoints float64
	for _, m := range metricOrder {
		rule, ok := rules[m]
		if !ok {
			continue
		}
		v, _ := metrics.Get(m)
		total += rule.Points(v)
		maxPoints += rule.Max()
	}

	res := Result{
		TotalPoints: round2(total),
		MaxPoints:   maxPoints,
	}
	if maxPoints > 0 {
		res.Percentage = round2(total / maxPoints * 100)
	}
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
