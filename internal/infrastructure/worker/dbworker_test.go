package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"

	"github.com/stretchr/testify/require"
)

type memJobs struct {
	mu   sync.RWMutex
	jobs map[string]domain.RefreshJob
}

var _ application.RefreshJobRepo = (*memJobs)(nil)

func (m *memJobs) CreateQueued(context.Context, domain.Asset, *string) (string, error) {
	return "", nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (domain.RefreshJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.RefreshJob{}, application.ErrNotFound
	}
	return j, nil
}

func (m *memJobs) UpdateStatus(ctx context.Context, id string, st domain.RefreshStatus, errMsg *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status, j.Error = st, errMsg
	m.jobs[id] = j
	return nil
}

func (m *memJobs) ClaimQueued(_ context.Context, limit int) ([]domain.RefreshJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RefreshJob
	for id, j := range m.jobs {
		if j.Status == domain.RefreshStatusQueued {
			j.Status = domain.RefreshStatusProcessing
			m.jobs[id] = j
			out = append(out, j)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memJobs) status(id string) domain.RefreshStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id].Status
}

// markDone completes every job it is handed, or panics for symbol "BOOM".
type markDone struct {
	jobs *memJobs
	mu   sync.Mutex
	seen []string
}

func (p *markDone) ProcessRefresh(ctx context.Context, j domain.RefreshJob) error {
	if j.Asset.Symbol == "BOOM" {
		panic("provider exploded")
	}
	p.mu.Lock()
	p.seen = append(p.seen, j.ID)
	p.mu.Unlock()
	return p.jobs.UpdateStatus(ctx, j.ID, domain.RefreshStatusDone, nil)
}

func queued(id, symbol string) domain.RefreshJob {
	return domain.RefreshJob{ID: id, Asset: domain.Asset{Symbol: symbol, Type: domain.AssetTypeCrypto}, Status: domain.RefreshStatusQueued}
}

func TestDbWorker_ProcessesClaimedJobs(t *testing.T) {
	j := &memJobs{jobs: map[string]domain.RefreshJob{
		"r-1": queued("r-1", "BTC"),
		"r-2": queued("r-2", "ETH"),
		"r-3": queued("r-3", "SOL"),
	}}
	p := &markDone{jobs: j}
	w := &DbWorker{Jobs: j, Processor: p, PollEvery: 5 * time.Millisecond, BatchLimit: 2, Concurrency: 2}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		return j.status("r-1") == domain.RefreshStatusDone &&
			j.status("r-2") == domain.RefreshStatusDone &&
			j.status("r-3") == domain.RefreshStatusDone
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	require.Len(t, p.seen, 3)
}

func TestDbWorker_PanicMarksJobFailed(t *testing.T) {
	j := &memJobs{jobs: map[string]domain.RefreshJob{
		"r-1": queued("r-1", "BOOM"),
	}}
	w := &DbWorker{Jobs: j, Processor: &markDone{jobs: j}, PollEvery: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool {
		return j.status("r-1") == domain.RefreshStatusFailed
	}, time.Second, 5*time.Millisecond)

	got, err := j.GetByID(context.Background(), "r-1")
	require.NoError(t, err)
	require.Contains(t, *got.Error, "provider exploded")
}

type nopSnapshots struct{}

func (nopSnapshots) GetLast(context.Context, string, domain.AssetType) (domain.PriceSnapshot, error) {
	return domain.PriceSnapshot{}, application.ErrNotFound
}
func (nopSnapshots) Upsert(context.Context, domain.PriceSnapshot) error       { return nil }
func (nopSnapshots) AppendHistory(context.Context, domain.PriceHistory) error { return nil }

// hangingResolver blocks until ctx ends. started is closed on the first call.
type hangingResolver struct {
	once    sync.Once
	started chan struct{}
}

func (h *hangingResolver) ResolvePrice(ctx context.Context, _ domain.Asset) (application.ResolvedPrice, error) {
	h.once.Do(func() { close(h.started) })
	<-ctx.Done()
	return application.ResolvedPrice{}, ctx.Err()
}

func TestDbWorker_JobTimeoutMarksFailed(t *testing.T) {
	j := &memJobs{jobs: map[string]domain.RefreshJob{
		"r-1": queued("r-1", "BTC"),
	}}
	svc := application.NewSnapshotService(nopSnapshots{}, j, &hangingResolver{started: make(chan struct{})})
	w := &DbWorker{Jobs: j, Processor: svc, PollEvery: 5 * time.Millisecond, JobTimeout: 30 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool {
		return j.status("r-1") == domain.RefreshStatusFailed
	}, time.Second, 5*time.Millisecond)

	got, err := j.GetByID(context.Background(), "r-1")
	require.NoError(t, err)
	require.Contains(t, *got.Error, "deadline exceeded")
}

func TestDbWorker_ShutdownFailsInFlightJob(t *testing.T) {
	j := &memJobs{jobs: map[string]domain.RefreshJob{
		"r-1": queued("r-1", "BTC"),
	}}
	res := &hangingResolver{started: make(chan struct{})}
	svc := application.NewSnapshotService(nopSnapshots{}, j, res)
	w := &DbWorker{Jobs: j, Processor: svc, PollEvery: 5 * time.Millisecond, JobTimeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	select {
	case <-res.started:
	case <-time.After(time.Second):
		t.Fatal("job was not picked up")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	got, err := j.GetByID(context.Background(), "r-1")
	require.NoError(t, err)
	require.Equal(t, domain.RefreshStatusFailed, got.Status)
	require.Contains(t, *got.Error, "context canceled")
}
