package provider

import (
	"sort"
	"time"

	"marketdata-service/internal/domain"
)

// PricePoint is one observed price of a series.
type PricePoint struct {
	At    time.Time
	Price float64
}

// MonthlyReduce sorts points ascending and keeps, for each calendar month, the
// latest point observed in it. Only the last domain.MaxMonthlyPoints months
// are returned, oldest first.
func MonthlyReduce(points []PricePoint) []domain.MonthlyPoint {
	if len(points) == 0 {
		return nil
	}
	sorted := append([]PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	out := make([]domain.MonthlyPoint, 0, domain.MaxMonthlyPoints+1)
	cur := monthOf(sorted[0].At)
	last := sorted[0]
	for _, p := range sorted[1:] {
		if m := monthOf(p.At); m != cur {
			out = append(out, domain.MonthlyPoint{Month: domain.MonthLabel(last.At), Price: last.Price})
			cur = m
		}
		last = p
	}
	out = append(out, domain.MonthlyPoint{Month: domain.MonthLabel(last.At), Price: last.Price})
	return domain.LastMonthlyPoints(out)
}

func monthOf(t time.Time) int {
	t = t.UTC()
	return t.Year()*12 + int(t.Month())
}
