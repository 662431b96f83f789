package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testTenant    = "tenant-1"
	testActor     = "user-1"
	testProduct   = "product-1"
	testWarehouse = "warehouse-1"
)

var ctx = context.Background()

// stepClock avanza un segundo en cada lectura para que el orden de recepción sea determinista.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(t *testing.T, opts ...appinv.Option) (*appinv.Service, *memory.Store, *stepClock) {
	t.Helper()
	store := memory.NewStore(2 * time.Second)
	clock := newStepClock()
	opts = append([]appinv.Option{appinv.WithClock(clock.Now)}, opts...)
	return appinv.NewService(store, store.Reader(), logger.Nop(), opts...), store, clock
}

func qty(s string) valueobject.Quantity { return valueobject.MustQuantity(s) }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func receiptInput(q, cost string) appinv.TransactionInput {
	return appinv.TransactionInput{
		TenantID:    testTenant,
		ActorID:     testActor,
		Type:        entity.TransactionTypePurchaseReceipt,
		WarehouseID: testWarehouse,
		ProductID:   testProduct,
		UomID:       "unit",
		Quantity:    qty(q),
		UnitCost:    dec(cost),
	}
}

func receive(t *testing.T, svc *appinv.Service, q, cost string, mods ...func(*appinv.TransactionInput)) *entity.LedgerEntry {
	t.Helper()
	in := receiptInput(q, cost)
	for _, m := range mods {
		m(&in)
	}
	e, err := svc.RecordTransaction(ctx, in)
	require.NoError(t, err)
	return e
}

func withBatch(number string, expiry *time.Time) func(*appinv.TransactionInput) {
	return func(in *appinv.TransactionInput) {
		in.BatchNumber = number
		in.ExpiryDate = expiry
	}
}

func level(t *testing.T, svc *appinv.Service, warehouseID string) appinv.StockLevel {
	t.Helper()
	lvl, err := svc.GetStockLevel(ctx, testTenant, testProduct, warehouseID)
	require.NoError(t, err)
	return lvl
}

func requireBalanced(t *testing.T, store *memory.Store) {
	t.Helper()
	items, err := store.Reader().StockItems.ListByProductWarehouse(ctx, testTenant, testProduct, testWarehouse)
	require.NoError(t, err)
	for _, it := range items {
		require.Truef(t, it.Balanced(), "available != on_hand - reserved en %s", it.ID)
		require.False(t, it.QuantityReserved.IsNegative())
	}
}

// spyRunner falla si se abre una unidad de trabajo.
type spyRunner struct{ calls int }

func (s *spyRunner) Run(context.Context, func(appinv.Repos) error) error {
	s.calls++
	return errors.New("store should not be touched")
}

type memIdempotency struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
}

func newMemIdempotency() *memIdempotency { return &memIdempotency{keys: map[string]bool{}} }

func (m *memIdempotency) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

type capturePublisher struct {
	mu      sync.Mutex
	entries []*entity.LedgerEntry
	err     error
}

func (p *capturePublisher) Publish(_ context.Context, entries []*entity.LedgerEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries...)
	return p.err
}
