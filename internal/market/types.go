package market

import "time"

type Quote struct {
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	Currency   string     `json:"currency"`
	MarketTime *time.Time `json:"marketTime"`
}

type Candle struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjClose"`
	Volume   int64     `json:"volume"`
}

type Article struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"publishedDate"`
}

// Interval is a chart bar size accepted by the history endpoint.
type Interval string

const (
	IntervalDay   Interval = "1d"
	IntervalWeek  Interval = "1wk"
	IntervalMonth Interval = "1mo"
)

// wire shapes

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *upstreamError              `json:"error"`
	} `json:"quoteSummary"`
}

type chartEnvelope struct {
	Chart struct {
		Result []chartResult  `json:"result"`
		Error  *upstreamError `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type searchEnvelope struct {
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

type upstreamError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
