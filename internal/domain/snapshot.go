package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshot is the last persisted price of an asset.
type PriceSnapshot struct {
	Symbol    string
	Type      AssetType
	Price     decimal.Decimal
	Source    string
	UpdatedAt time.Time
}

type PriceHistory struct {
	ID         int64
	Symbol     string
	Type       AssetType
	Price      decimal.Decimal
	QuotedAt   time.Time
	Source     string
	UpdateID   *string
	InsertedAt time.Time
}
