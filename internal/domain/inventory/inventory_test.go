package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
)

// memoryLedger is a mutex-guarded reference implementation of Ledger. The
// conditional check-and-decrement under one lock mirrors the conditional
// UPDATE the postgres ledger issues.
type memoryLedger struct {
	mu    sync.Mutex
	stock map[string]int
}

func newMemoryLedger(stock map[string]int) *memoryLedger {
	return &memoryLedger{stock: stock}
}

func (m *memoryLedger) Reserve(_ context.Context, bikeID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stock, ok := m.stock[bikeID]
	if !ok {
		return bike.ErrNotFound
	}
	if stock < quantity {
		return ErrInsufficientStock
	}
	m.stock[bikeID] -= quantity
	return nil
}

func (m *memoryLedger) Release(_ context.Context, bikeID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stock[bikeID] += quantity
	return nil
}

func (m *memoryLedger) current(bikeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[bikeID]
}

func TestReserveRelease_Inverse(t *testing.T) {
	ledger := newMemoryLedger(map[string]int{"b1": 5})
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, "b1", 3))
	assert.Equal(t, 2, ledger.current("b1"))

	require.NoError(t, ledger.Release(ctx, "b1", 3))
	assert.Equal(t, 5, ledger.current("b1"))
}

func TestReserve_Insufficient(t *testing.T) {
	ledger := newMemoryLedger(map[string]int{"b1": 2})

	err := ledger.Reserve(context.Background(), "b1", 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, ledger.current("b1"), "failed reservation must not change stock")
}

// An unknown bike must surface as not-found, never as out of stock: the
// callers map the two to different HTTP statuses.
func TestReserve_UnknownBike(t *testing.T) {
	ledger := newMemoryLedger(map[string]int{"b1": 0})

	err := ledger.Reserve(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, bike.ErrNotFound)

	err = ledger.Reserve(context.Background(), "b1", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

// Committed reservations against a bike must never exceed its initial stock,
// no matter how the reservations interleave.
func TestReserve_ConcurrentNeverOversells(t *testing.T) {
	const (
		initialStock = 100
		workers      = 50
		perWorker    = 5 // each worker tries 5 reservations of quantity 1..3
	)

	ledger := newMemoryLedger(map[string]int{"b1": initialStock})
	ctx := context.Background()

	var (
		mu        sync.Mutex
		committed int
		wg        sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				qty := (w+i)%3 + 1
				if err := ledger.Reserve(ctx, "b1", qty); err == nil {
					mu.Lock()
					committed += qty
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, committed, initialStock)
	assert.Equal(t, initialStock-committed, ledger.current("b1"))
}
