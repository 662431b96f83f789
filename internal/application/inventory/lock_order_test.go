package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Registro de bloqueos por unidad de trabajo
// ──────────────────────────────────────────────────────────────────────────────

type lockLog struct {
	mu    sync.Mutex
	locks []string
}

func (l *lockLog) add(what string) {
	l.mu.Lock()
	l.locks = append(l.locks, what)
	l.mu.Unlock()
}

// take devuelve lo registrado y vacía el registro.
func (l *lockLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.locks
	l.locks = nil
	return out
}

// lockingRunner envuelve el store y registra cada bloqueo que pide el servicio.
type lockingRunner struct {
	inner appinv.TxRunner
	log   *lockLog
}

func (r *lockingRunner) Run(ctx context.Context, fn func(appinv.Repos) error) error {
	return r.inner.Run(ctx, func(repos appinv.Repos) error {
		repos.StockItems = lockedItems{repos.StockItems, r.log}
		repos.Batches = lockedBatches{repos.Batches, r.log}
		repos.Reservations = lockedReservations{repos.Reservations, r.log}
		return fn(repos)
	})
}

type lockedItems struct {
	repository.StockItemRepository
	log *lockLog
}

func (l lockedItems) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	l.log.add("item")
	return l.StockItemRepository.GetByIDForUpdate(ctx, tenantID, id)
}

func (l lockedItems) FindByKeyForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, error) {
	l.log.add("item")
	return l.StockItemRepository.FindByKeyForUpdate(ctx, key)
}

func (l lockedItems) ListForUpdate(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	l.log.add("items")
	return l.StockItemRepository.ListForUpdate(ctx, tenantID, productID, warehouseID)
}

type lockedBatches struct {
	repository.BatchRepository
	log *lockLog
}

func (l lockedBatches) FindByFIFO(ctx context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	l.log.add("batches")
	return l.BatchRepository.FindByFIFO(ctx, q)
}

func (l lockedBatches) FindByFEFO(ctx context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	l.log.add("batches")
	return l.BatchRepository.FindByFEFO(ctx, q)
}

type lockedReservations struct {
	repository.ReservationRepository
	log *lockLog
}

func (l lockedReservations) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Reservation, error) {
	l.log.add("reservation")
	return l.ReservationRepository.GetByIDForUpdate(ctx, tenantID, id)
}

func newLockingService(t *testing.T) (*appinv.Service, *memory.Store, *lockLog) {
	t.Helper()
	store := memory.NewStore(2 * time.Second)
	log := &lockLog{}
	runner := &lockingRunner{inner: store, log: log}
	return appinv.NewService(runner, store.Reader(), logger.Nop(), appinv.WithClock(newStepClock().Now)), store, log
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden de bloqueo: reserva, items del producto, lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestOrdenDeBloqueo_DeduccionQueCumpleReserva(t *testing.T) {
	svc, store, log := newLockingService(t)
	receive(t, svc, "10", "1")
	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReferenceType: "sales_order", ReferenceID: "SO-1",
	})
	require.NoError(t, err)
	log.take()

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReservationID: res.ID,
	})
	require.NoError(t, err)

	// el item de la reserva se libera sobre la lista ya bloqueada, sin un bloqueo individual previo
	assert.Equal(t, []string{"reservation", "items", "batches"}, log.take())
	lvl := level(t, svc, testWarehouse)
	assert.Equal(t, "6.0000", lvl.QuantityOnHand.String())
	assert.True(t, lvl.QuantityReserved.IsZero())
	requireBalanced(t, store)
}

func TestOrdenDeBloqueo_LiberarYDeducirSinReserva(t *testing.T) {
	svc, _, log := newLockingService(t)
	receive(t, svc, "10", "1")
	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReferenceType: "sales_order", ReferenceID: "SO-2",
	})
	require.NoError(t, err)
	log.take()

	released, err := svc.ReleaseReservation(ctx, testTenant, testActor, res.ID)
	require.NoError(t, err)
	require.True(t, released)
	assert.Equal(t, []string{"reservation", "item"}, log.take())

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"items", "batches"}, log.take())
}

func TestOrdenDeBloqueo_ReservaDeOtroProductoNoBloqueaItems(t *testing.T) {
	svc, _, log := newLockingService(t)
	receive(t, svc, "10", "1")
	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReferenceType: "sales_order", ReferenceID: "SO-3",
	})
	require.NoError(t, err)
	log.take()

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: "otro-producto", WarehouseID: testWarehouse,
		Quantity: qty("1"), ReservationID: res.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "reservation_id", domain.FieldOf(err))
	assert.Equal(t, []string{"reservation"}, log.take())
	assert.Equal(t, "4.0000", level(t, svc, testWarehouse).QuantityReserved.String())
}
