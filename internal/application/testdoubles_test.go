package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketdata-service/internal/domain"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// tickClock is a settable clock shared with the caches.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *tickClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func snapshotKey(symbol string, t domain.AssetType) string { return string(t) + "/" + symbol }

type fakeSnapshotRepo struct {
	store   map[string]domain.PriceSnapshot
	history []domain.PriceHistory
	err     error
}

func (f *fakeSnapshotRepo) GetLast(_ context.Context, symbol string, t domain.AssetType) (domain.PriceSnapshot, error) {
	if f.err != nil {
		return domain.PriceSnapshot{}, f.err
	}
	s, ok := f.store[snapshotKey(symbol, t)]
	if !ok {
		return domain.PriceSnapshot{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeSnapshotRepo) Upsert(_ context.Context, s domain.PriceSnapshot) error {
	if f.err != nil {
		return f.err
	}
	if f.store == nil {
		f.store = map[string]domain.PriceSnapshot{}
	}
	f.store[snapshotKey(s.Symbol, s.Type)] = s
	return nil
}

func (f *fakeSnapshotRepo) AppendHistory(_ context.Context, h domain.PriceHistory) error {
	if f.err != nil {
		return f.err
	}
	f.history = append(f.history, h)
	return nil
}

type fakeJobRepo struct {
	jobs map[string]domain.RefreshJob
	err  error
}

func (f *fakeJobRepo) CreateQueued(_ context.Context, asset domain.Asset, _ *string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.jobs == nil {
		f.jobs = map[string]domain.RefreshJob{}
	}
	id := "refresh-1"
	f.jobs[id] = domain.RefreshJob{ID: id, Asset: asset, Status: domain.RefreshStatusQueued}
	return id, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (domain.RefreshJob, error) {
	if f.err != nil {
		return domain.RefreshJob{}, f.err
	}
	j, ok := f.jobs[id]
	if !ok {
		return domain.RefreshJob{}, ErrNotFound
	}
	return j, nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	if f.err != nil {
		return f.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	j, ok := f.jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.Status, j.Error = st, errMsg
	f.jobs[id] = j
	return nil
}

func (f *fakeJobRepo) ClaimQueued(_ context.Context, limit int) ([]domain.RefreshJob, error) {
	var out []domain.RefreshJob
	for id, j := range f.jobs {
		if len(out) == limit {
			break
		}
		if j.Status == domain.RefreshStatusQueued {
			j.Status = domain.RefreshStatusProcessing
			f.jobs[id] = j
			out = append(out, j)
		}
	}
	return out, nil
}

type fakeResolver struct {
	out ResolvedPrice
	err error
}

func (f *fakeResolver) ResolvePrice(context.Context, domain.Asset) (ResolvedPrice, error) {
	if f.err != nil {
		return ResolvedPrice{}, f.err
	}
	return f.out, nil
}

// blockingResolver waits for ctx to end, like an upstream that never answers.
type blockingResolver struct{}

func (blockingResolver) ResolvePrice(ctx context.Context, _ domain.Asset) (ResolvedPrice, error) {
	<-ctx.Done()
	return ResolvedPrice{}, ctx.Err()
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func strPtr(s string) *string { return &s }
