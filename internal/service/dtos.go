package service

import (
	"encoding/json"
	"time"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/ratios"
)

// RatioReport is the evaluation of one symbol. It encodes flat:
// {"symbol", "ratios", "totalPoints", "maxPoints", "scorePercentage"}.
type RatioReport struct {
	Symbol     string
	Evaluation ratios.Evaluation
}

func (r RatioReport) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(r.Evaluation)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	sym, err := json.Marshal(r.Symbol)
	if err != nil {
		return nil, err
	}
	fields["symbol"] = sym
	return json.Marshal(fields)
}

func (r *RatioReport) UnmarshalJSON(b []byte) error {
	var head struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	var ev ratios.Evaluation
	if err := json.Unmarshal(b, &ev); err != nil {
		return err
	}
	*r = RatioReport{Symbol: head.Symbol, Evaluation: ev}
	return nil
}

type Prediction struct {
	Symbol         string  `json:"symbol"`
	PredictedPrice float64 `json:"predicted_price"`
	Currency       string  `json:"currency"`
	HorizonDays    int     `json:"horizon_days"`
	Observations   int     `json:"observations"`
}

type Overview struct {
	Quote  market.Quote     `json:"quote"`
	Ratios RatioReport      `json:"ratios"`
	News   []market.Article `json:"news"`
}

type ScoreHistoryEntry struct {
	TotalPoints     float64   `json:"totalPoints"`
	MaxPoints       float64   `json:"maxPoints"`
	ScorePercentage string    `json:"scorePercentage"`
	CreatedAt       time.Time `json:"createdAt"`
}
