package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemory_FreshWithinTTL(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory[string](30*time.Minute, WithClock(clk.Now))
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "coingecko-price-btc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "coingecko-price-btc", "64232"))
	clk.Advance(29 * time.Minute)
	v, ok, err := c.Get(ctx, "coingecko-price-btc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "64232", v)
}

func TestMemory_StaleEntryIsMissButRetained(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory[string](30*time.Minute, WithClock(clk.Now))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "1.00"))
	clk.Advance(30 * time.Minute)
	_, ok, _ := c.Get(ctx, "k")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())

	require.NoError(t, c.Set(ctx, "k", "2.00"))
	v, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, "2.00", v)
	require.Equal(t, 1, c.Len())
}

func TestMemory_Concurrent(t *testing.T) {
	t.Parallel()
	c := NewMemory[int](time.Minute)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "k", i)
			_, _, _ = c.Get(ctx, "k")
		}(i)
	}
	wg.Wait()
	_, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
}
