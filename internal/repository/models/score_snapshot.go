package models

import "time"

type ScoreSnapshot struct {
	ID          int64
	Symbol      string
	TotalPoints float64
	MaxPoints   float64
	Percentage  float64
	CreatedAt   time.Time
}
