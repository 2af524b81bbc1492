package domain

import "time"

// MonthlyPoint is the last observed price within a calendar month.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Price float64 `json:"price"`
}

const MaxMonthlyPoints = 12

func MonthLabel(t time.Time) string {
	return t.UTC().Month().String()[:3]
}

// LastMonthlyPoints keeps the most recent MaxMonthlyPoints entries.
func LastMonthlyPoints(points []MonthlyPoint) []MonthlyPoint {
	if len(points) <= MaxMonthlyPoints {
		return points
	}
	return points[len(points)-MaxMonthlyPoints:]
}
