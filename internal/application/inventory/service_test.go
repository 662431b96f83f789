package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenario_RecibirReservarDeducir(t *testing.T) {
	svc, store, _ := newService(t)

	entry := receive(t, svc, "100", "5")
	assert.Equal(t, "100.0000", entry.BalanceAfter.String())
	assert.Equal(t, "500.0000", entry.TotalCost.StringFixed(4))
	lvl := level(t, svc, testWarehouse)
	assert.Equal(t, "100.0000", lvl.QuantityOnHand.String())

	_, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("20"), ReferenceType: "sales_order", ReferenceID: "SO-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "80.0000", level(t, svc, testWarehouse).QuantityAvailable.String())

	res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("30"), Strategy: domaininv.StrategyFIFO,
	})
	require.NoError(t, err)
	assert.Equal(t, "30.0000", res.TotalQuantity.String())
	assert.Equal(t, "5.0000 USD", res.WeightedCost.String())
	lvl = level(t, svc, testWarehouse)
	assert.Equal(t, "70.0000", lvl.QuantityOnHand.String())
	assert.Equal(t, "50.0000", lvl.QuantityAvailable.String())

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("1000"), Strategy: domaininv.StrategyFIFO,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Equal(t, "70.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
	requireBalanced(t, store)
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordTransaction
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordTransaction_CostoPromedioMovil(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "100", "5")
	receive(t, svc, "50", "8")

	items, err := svc.GetStockByFEFO(ctx, testTenant, testProduct, testWarehouse)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "6.0000", items[0].AverageCost.StringFixed(4))
	assert.Equal(t, "900.0000 USD", level(t, svc, testWarehouse).Valuation.String())
}

func TestRecordTransaction_GuardaDeStockNegativo(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "10", "2")

	out := receiptInput("10.0001", "0")
	out.Type = entity.TransactionTypeIssue
	_, err := svc.RecordTransaction(ctx, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.Equal(t, "10.0000", level(t, svc, testWarehouse).QuantityOnHand.String())

	out.Quantity = qty("4")
	e, err := svc.RecordTransaction(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, "6.0000", e.BalanceAfter.String())
	assert.Equal(t, "2.0000", e.UnitCost.StringFixed(4), "la salida se valoriza con el costo de la capa")
	requireBalanced(t, store)
}

func TestRecordTransaction_SalidaSinSaldoPrevio(t *testing.T) {
	svc, _, _ := newService(t)
	out := receiptInput("1", "0")
	out.Type = entity.TransactionTypeSale
	_, err := svc.RecordTransaction(ctx, out)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestRecordTransaction_NoSacaLoReservado(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "10", "1")
	_, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("8"), ReferenceType: "order", ReferenceID: "1",
	})
	require.NoError(t, err)

	out := receiptInput("3", "0")
	out.Type = entity.TransactionTypeIssue
	_, err = svc.RecordTransaction(ctx, out)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestRecordTransaction_SalidaSinLoteTomaDeTodosLosItems(t *testing.T) {
	pub := &capturePublisher{}
	svc, store, _ := newService(t, appinv.WithPublisher(pub))
	receive(t, svc, "50", "2", withBatch("A", date("2027-01-01")))
	receive(t, svc, "50", "3", withBatch("B", date("2027-06-01")))
	pub.entries = nil

	sale := receiptInput("10", "0")
	sale.Type = entity.TransactionTypeSale
	sale.UnitCost = nil
	e, err := svc.RecordTransaction(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, "A", e.BatchNumber, "fifo: la capa más antigua")
	assert.Equal(t, "10.0000", e.Quantity.String())
	assert.Equal(t, "40.0000", e.BalanceAfter.String())
	assert.Equal(t, "2.0000", e.UnitCost.StringFixed(4))
	assert.Equal(t, "90.0000", level(t, svc, testWarehouse).QuantityOnHand.String())

	// 60 abarca los dos items: un asiento por item, se devuelve el primero
	pub.entries = nil
	sale.Quantity = qty("60")
	e, err = svc.RecordTransaction(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, "A", e.BatchNumber)
	assert.Equal(t, "40.0000", e.Quantity.String())
	assert.True(t, e.BalanceAfter.IsZero())
	require.Len(t, pub.entries, 2)
	second := pub.entries[1]
	assert.Equal(t, "B", second.BatchNumber)
	assert.Equal(t, "20.0000", second.Quantity.String())
	assert.Equal(t, "30.0000", second.BalanceAfter.String())
	assert.Equal(t, "60.0000", second.TotalCost.StringFixed(4))
	assert.Equal(t, "30.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
	requireBalanced(t, store)
}

func TestRecordTransaction_SalidaSinLoteReportaElDisponibleTotal(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "50", "2", withBatch("A", nil))
	receive(t, svc, "50", "3", withBatch("B", nil))

	sale := receiptInput("100.0001", "0")
	sale.Type = entity.TransactionTypeSale
	_, err := svc.RecordTransaction(ctx, sale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "requested 100.0001, available 100.0000")
	assert.Equal(t, "100.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
}

func TestRecordTransaction_SalidaSinLoteRespetaLaUbicacion(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "5", "1", func(in *appinv.TransactionInput) { in.LocationID = "L1" })
	receive(t, svc, "5", "1", func(in *appinv.TransactionInput) { in.LocationID = "L2" })

	sale := receiptInput("6", "0")
	sale.Type = entity.TransactionTypeSale
	sale.LocationID = "L1"
	_, err := svc.RecordTransaction(ctx, sale)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available 5.0000")

	sale.Quantity = qty("5")
	e, err := svc.RecordTransaction(ctx, sale)
	require.NoError(t, err)
	assert.True(t, e.BalanceAfter.IsZero())
	assert.Equal(t, "5.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
}

func TestRecordTransaction_ValidaEntrada(t *testing.T) {
	svc, _, _ := newService(t)
	cases := map[string]func(*appinv.TransactionInput){
		"cantidad cero":      func(in *appinv.TransactionInput) { in.Quantity = qty("0") },
		"tipo desconocido":   func(in *appinv.TransactionInput) { in.Type = "teleport" },
		"sin actor":          func(in *appinv.TransactionInput) { in.ActorID = "" },
		"costo negativo":     func(in *appinv.TransactionInput) { in.UnitCost = dec("-1") },
		"método inexistente": func(in *appinv.TransactionInput) { in.CostingMethod = "avg" },
	}
	for name, mod := range cases {
		t.Run(name, func(t *testing.T) {
			in := receiptInput("1", "1")
			mod(&in)
			_, err := svc.RecordTransaction(ctx, in)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Cumplimiento farmacéutico
// ──────────────────────────────────────────────────────────────────────────────

func TestCumplimiento_ExigeLoteAntesDeTocarElAlmacen(t *testing.T) {
	spy := &spyRunner{}
	svc := appinv.NewService(spy, appinv.Repos{}, nil)

	in := receiptInput("5", "1")
	in.IsPharmaceuticalCompliant = true
	_, err := svc.RecordTransaction(ctx, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Equal(t, "batch_number", domain.FieldOf(err))
	assert.Contains(t, err.Error(), "batch_number")

	in.BatchNumber = "L-1"
	_, err = svc.RecordTransaction(ctx, in)
	assert.Equal(t, "expiry_date", domain.FieldOf(err))
	assert.Zero(t, spy.calls, "la guarda debe fallar antes de abrir la unidad de trabajo")
}

func TestCumplimiento_SinBanderaNoExigeLote(t *testing.T) {
	svc, _, _ := newService(t)
	e := receive(t, svc, "5", "1")
	assert.False(t, e.IsPharmaceuticalCompliant)
}

func TestCumplimiento_TenantFarmaceuticoFuerzaFEFO(t *testing.T) {
	svc, _, _ := newService(t, appinv.WithCompliance(domaininv.NewCompliancePolicy([]string{testTenant})))
	receive(t, svc, "10", "5", withBatch("OLD", date("2027-06-01")))
	receive(t, svc, "10", "6", withBatch("SOON", date("2026-09-01")))

	_, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("3"), Strategy: domaininv.StrategyFIFO,
	})
	require.Error(t, err)
	assert.Equal(t, "strategy", domain.FieldOf(err))

	res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, domaininv.StrategyFEFO, res.Strategy)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "SOON", res.Lines[0].BatchNumber)
	assert.True(t, res.Entries[0].IsPharmaceuticalCompliant)
}

// ──────────────────────────────────────────────────────────────────────────────
// DeductByStrategy
// ──────────────────────────────────────────────────────────────────────────────

func tresRecepciones(t *testing.T, svc *appinv.Service) {
	t.Helper()
	receive(t, svc, "10", "5", withBatch("A", date("2027-06-01")))
	receive(t, svc, "10", "6", withBatch("B", date("2026-12-01")))
	receive(t, svc, "10", "7", withBatch("C", nil))
}

func TestDeductByStrategy_OrdenDeterminista(t *testing.T) {
	cases := []struct {
		strategy domaininv.Strategy
		lines    []string
		weighted string
	}{
		{domaininv.StrategyFIFO, []string{"A:10.0000", "B:5.0000"}, "5.3333 USD"},
		{domaininv.StrategyLIFO, []string{"C:10.0000", "B:5.0000"}, "6.6667 USD"},
		{domaininv.StrategyFEFO, []string{"B:10.0000", "A:5.0000"}, "5.6667 USD"},
	}
	for _, tc := range cases {
		t.Run(string(tc.strategy), func(t *testing.T) {
			svc, store, _ := newService(t)
			tresRecepciones(t, svc)

			res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
				TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
				Quantity: qty("15"), Strategy: tc.strategy,
			})
			require.NoError(t, err)
			got := make([]string, 0, len(res.Lines))
			for _, l := range res.Lines {
				got = append(got, l.BatchNumber+":"+l.Quantity.String())
			}
			assert.Equal(t, tc.lines, got)
			assert.Equal(t, tc.weighted, res.WeightedCost.String())
			assert.Equal(t, "15.0000", res.TotalQuantity.String())
			require.Len(t, res.Entries, len(res.Lines), "un asiento por línea")
			for _, e := range res.Entries {
				assert.Equal(t, entity.TransactionTypeIssue, e.TransactionType)
			}
			assert.Equal(t, "15.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
			requireBalanced(t, store)
		})
	}
}

func TestDeductByStrategy_ManualSinLoteFallaAntesDeBuscar(t *testing.T) {
	spy := &spyRunner{}
	svc := appinv.NewService(spy, appinv.Repos{}, nil)
	_, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("1"), Strategy: domaininv.StrategyManual,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Equal(t, "batch_number is required when using the manual deduction strategy", err.Error())
	assert.Zero(t, spy.calls)
}

func TestDeductByStrategy_ManualConsumeElLoteIndicado(t *testing.T) {
	svc, _, _ := newService(t)
	tresRecepciones(t, svc)

	res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), Strategy: domaininv.StrategyManual, BatchNumber: "C",
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "C", res.Lines[0].BatchNumber)
	assert.Equal(t, "7.0000 USD", res.WeightedCost.String())

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("1"), Strategy: domaininv.StrategyManual, BatchNumber: "Z",
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeductByStrategy_TodoONada(t *testing.T) {
	svc, store, _ := newService(t)
	tresRecepciones(t, svc)

	_, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("30.0001"),
	})
	require.True(t, errors.Is(err, domain.ErrInsufficientStock))

	batches, err := store.Reader().Batches.FindByFIFO(ctx, repository.BatchQuery{
		TenantID: testTenant, ProductID: testProduct, WarehouseID: testWarehouse,
	})
	require.NoError(t, err)
	require.Len(t, batches, 3)
	for _, b := range batches {
		assert.Equal(t, "10.0000", b.Quantity.String(), "ningún lote debe quedar descontado")
	}
	page, err := svc.ListTransactions(ctx, appinv.TransactionFilter{TenantID: testTenant, ProductID: testProduct})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "solo los tres asientos de recepción")
}

func TestDeductByStrategy_RechazaTipoDeEntrada(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("1"), TransactionType: entity.TransactionTypeReceipt,
	})
	assert.Equal(t, "transaction_type", domain.FieldOf(err))
}

func TestDeductByStrategy_CumpleReserva(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "10", "1")
	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("10"), ReferenceType: "sales_order", ReferenceID: "SO-9",
	})
	require.NoError(t, err)

	_, err = svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("10"), TransactionType: entity.TransactionTypeShipment, ReservationID: res.ID,
	})
	require.NoError(t, err)
	lvl := level(t, svc, testWarehouse)
	assert.True(t, lvl.QuantityOnHand.IsZero())
	assert.True(t, lvl.QuantityReserved.IsZero())

	released, err := svc.ReleaseReservation(ctx, testTenant, testActor, res.ID)
	require.NoError(t, err)
	assert.False(t, released, "la reserva ya se consumió")
	requireBalanced(t, store)
}

func TestDeductByStrategy_CostoDeRespaldoEntraEnElPonderado(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "10", "0")

	res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), UnitCost: dec("5"),
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "5.0000", res.Lines[0].UnitCost.StringFixed(4))
	assert.Equal(t, "20.0000", res.Entries[0].TotalCost.StringFixed(4))
	assert.Equal(t, "5.0000 USD", res.WeightedCost.String())
	assert.Equal(t, "20.0000 USD", res.TotalCost.String())
}

func TestDeductByStrategy_CostoDeRespaldoSoloEnCapasSinCosto(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "10", "0", withBatch("A", nil))
	receive(t, svc, "10", "3", withBatch("B", nil))

	res, err := svc.DeductByStrategy(ctx, appinv.DeductInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("15"), Strategy: domaininv.StrategyFIFO, UnitCost: dec("5"),
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "5.0000", res.Lines[0].UnitCost.StringFixed(4))
	assert.Equal(t, "3.0000", res.Lines[1].UnitCost.StringFixed(4))
	// 10×5 + 5×3 = 65
	assert.Equal(t, "65.0000 USD", res.TotalCost.String())
	assert.Equal(t, "4.3333 USD", res.WeightedCost.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_NoSuperaElDisponible(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "5", "1")
	_, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("5.0001"), ReferenceType: "order", ReferenceID: "1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.True(t, level(t, svc, testWarehouse).QuantityReserved.IsZero())
}

func TestReserve_SeRetieneSobreUnSoloItem(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "5", "1", withBatch("A", date("2027-01-01")))
	receive(t, svc, "5", "1", withBatch("B", date("2026-12-01")))

	// 8 cabe en el agregado pero no en un item: se informa el mejor item individual
	_, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("8"), ReferenceType: "order", ReferenceID: "1",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "requested 8.0000, available 5.0000")

	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReferenceType: "order", ReferenceID: "1",
	})
	require.NoError(t, err)
	item, err := svc.GetStockItem(ctx, testTenant, res.StockItemID)
	require.NoError(t, err)
	assert.Equal(t, "B", item.BatchNumber, "fefo: el item que vence primero")
	requireBalanced(t, store)
}

func TestReleaseReservation_Idempotente(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "10", "1")
	res, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("4"), ReferenceType: "order", ReferenceID: "1",
	})
	require.NoError(t, err)

	ok, err := svc.ReleaseReservation(ctx, testTenant, testActor, res.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10.0000", level(t, svc, testWarehouse).QuantityAvailable.String())

	ok, err = svc.ReleaseReservation(ctx, testTenant, testActor, res.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.ReleaseReservation(ctx, testTenant, testActor, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
	requireBalanced(t, store)
}

func TestReleaseExpiredReservations(t *testing.T) {
	svc, _, clock := newService(t)
	receive(t, svc, "10", "1")
	exp := clock.Now().Add(time.Hour)
	_, err := svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("3"), ReferenceType: "cart", ReferenceID: "c1", ExpiresAt: &exp,
	})
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, appinv.ReserveInput{
		TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
		Quantity: qty("2"), ReferenceType: "order", ReferenceID: "o1",
	})
	require.NoError(t, err)

	n, err := svc.ReleaseExpiredReservations(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.Advance(2 * time.Hour)
	n, err = svc.ReleaseExpiredReservations(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "2.0000", level(t, svc, testWarehouse).QuantityReserved.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_ConcurrenteNoSobreReserva(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "100", "1")

	var g errgroup.Group
	results := make([]error, 10)
	for i := 0; i < 10; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = svc.Reserve(ctx, appinv.ReserveInput{
				TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
				Quantity: qty("20"), ReferenceType: "order", ReferenceID: "o",
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	}
	assert.Equal(t, 5, ok)
	lvl := level(t, svc, testWarehouse)
	assert.Equal(t, "100.0000", lvl.QuantityReserved.String())
	assert.True(t, lvl.QuantityAvailable.IsZero())
	requireBalanced(t, store)
}

func TestDeductByStrategy_ConcurrenteNuncaNegativo(t *testing.T) {
	svc, store, _ := newService(t)
	receive(t, svc, "100", "1")

	var g errgroup.Group
	results := make([]error, 10)
	for i := 0; i < 10; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = svc.DeductByStrategy(ctx, appinv.DeductInput{
				TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
				Quantity: qty("15"),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	}
	assert.Equal(t, 6, ok)
	assert.Equal(t, "10.0000", level(t, svc, testWarehouse).QuantityOnHand.String())
	requireBalanced(t, store)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetStockLevel_SumaExacta(t *testing.T) {
	svc, _, _ := newService(t)
	receive(t, svc, "10", "1", withBatch("A", nil))
	receive(t, svc, "5", "1", withBatch("B", nil))
	for _, r := range []struct{ batch, q string }{{"A", "2"}, {"B", "1"}} {
		_, err := svc.Reserve(ctx, appinv.ReserveInput{
			TenantID: testTenant, ActorID: testActor, ProductID: testProduct, WarehouseID: testWarehouse,
			BatchNumber: r.batch, Quantity: qty(r.q), ReferenceType: "order", ReferenceID: r.batch,
		})
		require.NoError(t, err)
	}

	lvl := level(t, svc, testWarehouse)
	assert.Equal(t, "15.0000", lvl.QuantityOnHand.String())
	assert.Equal(t, "3.0000", lvl.QuantityReserved.String())
	assert.Equal(t, "12.0000", lvl.QuantityAvailable.String())
	assert.Equal(t, 2, lvl.Items)
}

func TestGetStockLevel_SinItemsDevuelveCeros(t *testing.T) {
	svc, _, _ := newService(t)
	lvl := level(t, svc, "empty")
	assert.Equal(t, "0.0000", lvl.QuantityOnHand.String())
	assert.Equal(t, "0.0000", lvl.QuantityAvailable.String())
}

func TestGetStockByFEFO_OrdenEstable(t *testing.T) {
	svc, _, _ := newService(t)
	tresRecepciones(t, svc)

	first, err := svc.GetStockByFEFO(ctx, testTenant, testProduct, testWarehouse)
	require.NoError(t, err)
	second, err := svc.GetStockByFEFO(ctx, testTenant, testProduct, testWarehouse)
	require.NoError(t, err)

	names := func(items []*entity.StockItem) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.BatchNumber)
		}
		return out
	}
	assert.Equal(t, []string{"B", "A", "C"}, names(first))
	assert.Equal(t, names(first), names(second))
}

func TestListTransactions_PaginaPorDefecto15(t *testing.T) {
	svc, _, _ := newService(t)
	for i := 0; i < 17; i++ {
		receive(t, svc, "1", "1")
	}
	page, err := svc.ListTransactions(ctx, appinv.TransactionFilter{TenantID: testTenant, ProductID: testProduct})
	require.NoError(t, err)
	assert.Len(t, page.Items, 15)
	assert.Equal(t, 17, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, "17.0000", page.Items[0].BalanceAfter.String(), "más reciente primero")

	_, err = svc.ListTransactions(ctx, appinv.TransactionFilter{TenantID: testTenant})
	assert.Equal(t, "product_id", domain.FieldOf(err))
}
