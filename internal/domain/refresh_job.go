package domain

import "time"

type RefreshStatus string

const (
	RefreshStatusQueued     RefreshStatus = "queued"
	RefreshStatusProcessing RefreshStatus = "processing"
	RefreshStatusDone       RefreshStatus = "done"
	RefreshStatusFailed     RefreshStatus = "failed"
)

func ParseRefreshStatus(s string) RefreshStatus {
	switch RefreshStatus(s) {
	case RefreshStatusQueued, RefreshStatusProcessing, RefreshStatusDone:
		return RefreshStatus(s)
	default:
		return RefreshStatusFailed
	}
}

// RefreshJob asks the worker to resolve and persist the price of Asset.
type RefreshJob struct {
	ID        string
	Asset     Asset
	Status    RefreshStatus
	Error     *string
	UpdatedAt time.Time
}
