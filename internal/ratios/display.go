package ratios

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Placeholder is shown instead of a value for a missing metric.
const Placeholder = "–"

// DisplayValue is either a number or the placeholder.
type DisplayValue struct {
	Value   float64
	Present bool
}

func (v DisplayValue) String() string {
	if !v.Present {
		return Placeholder
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}

func (v DisplayValue) MarshalJSON() ([]byte, error) {
	if !v.Present || !finite(v.Value) {
		return json.Marshal(Placeholder)
	}
	return json.Marshal(v.Value)
}

func (v *DisplayValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = DisplayValue{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("display value: %w", err)
	}
	*v = DisplayValue{Value: f, Present: true}
	return nil
}

// DisplayRow is one labelled entry of a DisplayTable.
type DisplayRow struct {
	Label string
	Value DisplayValue
}

// DisplayTable is the ordered label → value projection of a MetricSet. It
// encodes as a JSON object that keeps row order.
type DisplayTable []DisplayRow

// Display builds the table for metrics. Missing metrics show the placeholder.
func Display(metrics MetricSet) DisplayTable {
	out := make(DisplayTable, 0, len(metricOrder))
	for _, m := range metricOrder {
		v, ok := metrics.Get(m)
		out = append(out, DisplayRow{
			Label: m.Label(),
			Value: DisplayValue{Value: v, Present: ok},
		})
	}
	return out
}

// Lookup returns the value displayed under label.
func (t DisplayTable) Lookup(label string) (DisplayValue, bool) {
	for _, row := range t {
		if row.Label == label {
			return row.Value, true
		}
	}
	return DisplayValue{}, false
}

func (t DisplayTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(row.Label)
		if err != nil {
			return nil, err
		}
		val, err := row.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (t *DisplayTable) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("display table: expected object, got %v", tok)
	}

	out := DisplayTable{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("display table: unexpected key %v", tok)
		}
		var v DisplayValue
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("display table %q: %w", label, err)
		}
		out = append(out, DisplayRow{Label: label, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	// Objects that passed through a map (protobuf Struct, for one) lose
	// their key order.
	slices.SortStableFunc(out, func(a, b DisplayRow) int {
		return labelRank(a.Label) - labelRank(b.Label)
	})
	*t = out
	return nil
}

// labelRank is the display position of label; unknown labels sort last.
func labelRank(label string) int {
	for i, m := range metricOrder {
		if m.Label() == label {
			return i
		}
	}
	return len(metricOrder)
}

type evaluationJSON struct {
	Ratios          DisplayTable `json:"ratios"`
	TotalPoints     float64      `json:"totalPoints"`
	MaxPoints       float64      `json:"maxPoints"`
	ScorePercentage string       `json:"scorePercentage"`
}

func (e Evaluation) MarshalJSON() ([]byte, error) {
	return json.Marshal(evaluationJSON{
		Ratios:          e.Ratios,
		TotalPoints:     e.Result.TotalPoints,
		MaxPoints:       e.Result.MaxPoints,
		ScorePercentage: e.Result.PercentageString(),
	})
}

func (e *Evaluation) UnmarshalJSON(b []byte) error {
	var raw evaluationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(raw.ScorePercentage, "%"), 64)
	if err != nil {
		return fmt.Errorf("score percentage %q: %w", raw.ScorePercentage, err)
	}
	*e = Evaluation{
		Ratios: raw.Ratios,
		Result: Result{
			TotalPoints: raw.TotalPoints,
			MaxPoints:   raw.MaxPoints,
			Percentage:  pct,
		},
	}
	return nil
}
