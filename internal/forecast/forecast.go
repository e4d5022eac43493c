// Package forecast projects a price from its historical closes with an
// ordinary least-squares line.
package forecast

import (
	"errors"
	"math"
	"sort"
	"time"
)

// DefaultHorizon is how far past the last observation Project looks.
const DefaultHorizon = 365 * 24 * time.Hour

var ErrInsufficientData = errors.New("insufficient price history")

// Point is one dated close.
type Point struct {
	Date  time.Time
	Close float64
}

// Project fits close ~ days-since-first-point and evaluates the line at the
// last day plus horizon. The result is rounded to two decimals.
func Project(points []Point, horizon time.Duration) (float64, error) {
	if len(points) < 2 {
		return 0, ErrInsufficientData
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	origin := sorted[0].Date
	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	for i, p := range sorted {
		xs[i] = math.Floor(p.Date.Sub(origin).Hours() / 24)
		ys[i] = p.Close
	}

	slope, intercept, err := fit(xs, ys)
	if err != nil {
		return 0, err
	}

	target := xs[len(xs)-1] + math.Floor(horizon.Hours()/24)
	return math.Round((intercept+slope*target)*100) / 100, nil
}

func fit(xs, ys []float64) (slope, intercept float64, err error) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, 0, ErrInsufficientData
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept, nil
}
