package provider

import (
	"context"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
)

// Ensure Fake implements application.MarketDataProvider.
var _ application.MarketDataProvider = (*Fake)(nil)

// Fake answers every asset with the same price and a flat twelve-month
// series. PROVIDER_MODE=fake registers it under the real provider names.
type Fake struct {
	name  string
	price float64
	now   func() time.Time
}

func NewFake(name string, price float64) *Fake {
	return &Fake{name: name, price: price, now: time.Now}
}

func (f *Fake) Name() string { return f.name }

func (f *Fake) FetchPrice(context.Context, domain.Asset) (string, error) {
	return domain.FormatPrice(f.price), nil
}

func (f *Fake) FetchHistorical(context.Context, domain.Asset) ([]domain.MonthlyPoint, error) {
	now := f.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, 0, domain.MaxMonthlyPoints)
	for i := domain.MaxMonthlyPoints - 1; i >= 0; i-- {
		points = append(points, PricePoint{At: first.AddDate(0, -i, 0), Price: f.price})
	}
	return MonthlyReduce(points), nil
}
