package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Score bands for the colour-coded verdict.
const (
	strongThreshold = 70.0
	fairThreshold   = 40.0
)

var (
	strongColor = color.New(color.FgGreen, color.Bold)
	fairColor   = color.New(color.FgYellow)
	weakColor   = color.New(color.FgRed, color.Bold)
)

// Verdict names the score band of a percentage.
func Verdict(pct float64) string {
	switch {
	case pct >= strongThreshold:
		return "Strong"
	case pct >= fairThreshold:
		return "Fair"
	default:
		return "Weak"
	}
}

func colorVerdict(pct float64) string {
	v := Verdict(pct)
	switch v {
	case "Strong":
		return strongColor.Sprint(v)
	case "Fair":
		return fairColor.Sprint(v)
	default:
		return weakColor.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRatios prints the ratio table followed by the score line.
func WriteRatios(w io.Writer, r service.RatioReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Ratio", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(r.Evaluation.Ratios))
	for _, row := range r.Evaluation.Ratios {
		data = append(data, []string{row.Label, row.Value.String()})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	res := r.Evaluation.Result
	_, err := fmt.Fprintf(w, "%s: %s / %s points (%s) %s\n",
		r.Symbol, formatFloat(res.TotalPoints), formatFloat(res.MaxPoints), res.PercentageString(), colorVerdict(res.Percentage))
	return err
}

func WriteQuote(w io.Writer, q market.Quote) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Symbol", "Name", "Price", "Currency", "Market Time"})

	marketTime := "Unknown"
	if q.MarketTime != nil {
		marketTime = q.MarketTime.UTC().Format("2006-01-02 15:04 MST")
	}
	if err := table.Bulk([][]string{{q.Symbol, q.Name, formatFloat(q.Price), q.Currency, marketTime}}); err != nil {
		return err
	}
	return table.Render()
}

func WritePrediction(w io.Writer, p service.Prediction) error {
	_, err := fmt.Fprintf(w, "%s: projected %s %s in %d days (from %d monthly closes)\n",
		p.Symbol, formatFloat(p.PredictedPrice), p.Currency, p.HorizonDays, p.Observations)
	return err
}
