package sweeper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

type countingEntrySweeper struct {
	calls    atomic.Int32
	archived int
	active   int
}

func (c *countingEntrySweeper) ArchiveExpired(_ context.Context, _ time.Time) (int, error) {
	c.calls.Add(1)
	return c.archived, nil
}

func (c *countingEntrySweeper) Stats(_ context.Context) (models.Stats, error) {
	return models.Stats{Active: c.active, Archived: c.archived}, nil
}

type countingAuthSweeper struct {
	calls atomic.Int32
}

func (c *countingAuthSweeper) PurgeExpired(_ context.Context, _ time.Time) (int64, int64, error) {
	c.calls.Add(1)
	return 0, 0, nil
}

type countingObserver struct {
	archived    atomic.Int32
	gaugeActive atomic.Int32
	gaugeCalls  atomic.Int32
}

func (c *countingObserver) ObserveSweep(archived int) {
	c.archived.Add(int32(archived))
}

func (c *countingObserver) SetEntryGauges(active, _ int) {
	c.gaugeActive.Store(int32(active))
	c.gaugeCalls.Add(1)
}

func TestSweeperRunsImmediatelyAndOnTicks(t *testing.T) {
	entries := &countingEntrySweeper{archived: 2}
	auth := &countingAuthSweeper{}
	observer := &countingObserver{}

	s := New(entries, auth, observer, 20*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return entries.calls.Load() >= 3 && auth.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, observer.archived.Load(), int32(6))
}

func TestSweeperPublishesEntryGauges(t *testing.T) {
	entries := &countingEntrySweeper{archived: 1, active: 4}
	auth := &countingAuthSweeper{}
	observer := &countingObserver{}

	s := New(entries, auth, observer, 20*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return observer.gaugeCalls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(4), observer.gaugeActive.Load())
}

func TestSweeperStopHaltsLoop(t *testing.T) {
	entries := &countingEntrySweeper{}
	auth := &countingAuthSweeper{}

	s := New(entries, auth, nil, 10*time.Millisecond, nil)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return entries.calls.Load() >= 1 }, time.Second, 2*time.Millisecond)
	s.Stop()

	settled := entries.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, entries.calls.Load())

	// Stop twice is safe
	s.Stop()
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	entries := &countingEntrySweeper{}
	auth := &countingAuthSweeper{}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(entries, auth, nil, 10*time.Millisecond, nil)
	s.Start(ctx)

	assert.Eventually(t, func() bool { return entries.calls.Load() >= 1 }, time.Second, 2*time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	settled := entries.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, entries.calls.Load())
}
