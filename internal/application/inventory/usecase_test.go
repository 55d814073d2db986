package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/inventory"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/internal/infrastructure/memory"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	orgA tenant.ID = "00000000-0000-0000-0000-00000000000a"
	orgB tenant.ID = "00000000-0000-0000-0000-00000000000b"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []ports.LowStockEvent
	err    error
}

func (f *fakeNotifier) NotifyLowStock(_ context.Context, evt ports.LowStockEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newLedger(t *testing.T) (*inventory.LedgerUseCase, *memory.Store, *fakeNotifier) {
	t.Helper()
	store := memory.New()
	n := &fakeNotifier{}
	return inventory.NewLedgerUseCase(store, n, logger.Nop()), store, n
}

type productOpt func(*entity.Product)

func seedProduct(t *testing.T, store *memory.Store, org tenant.ID, id string, qty int64, opts ...productOpt) {
	t.Helper()
	repos, err := store.Scope(org)
	require.NoError(t, err)
	now := time.Now().UTC()
	p := &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id,
		MRP: decimal.NewFromInt(10), QuantityInStock: qty,
		Status: entity.ProductStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
}

func stockOf(t *testing.T, store *memory.Store, org tenant.ID, id string) int64 {
	t.Helper()
	repos, err := store.Scope(org)
	require.NoError(t, err)
	p, err := repos.Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.QuantityInStock
}

// ──────────────────────────────────────────────────────────────────────────────
// StockIn / StockOut
// ──────────────────────────────────────────────────────────────────────────────

func TestStockIn_SumaYRegistraTransaccion(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 5)

	res, err := uc.StockIn(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 7, ReferenceType: entity.ReferencePurchase, ReferenceID: "OC-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.QuantityInStock)
	assert.Equal(t, "in", res.Transaction.Type)
	assert.Equal(t, int64(7), res.Transaction.Quantity)
	assert.Equal(t, int64(12), res.Transaction.BalanceAfter)
	assert.Equal(t, entity.ReferencePurchase, res.Transaction.ReferenceType)
	assert.Equal(t, int64(12), stockOf(t, store, orgA, "p1"))
}

func TestStockIn_ReferenciaPorDefectoManual(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 0)

	res, err := uc.StockIn(context.Background(), orgA, inventory.StockInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, entity.ReferenceManual, res.Transaction.ReferenceType)
}

func TestStockInOut_CantidadInvalida(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 5)

	for _, q := range []int64{0, -3} {
		_, err := uc.StockIn(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: q})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
		_, err = uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: q})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
	assert.Equal(t, int64(5), stockOf(t, store, orgA, "p1"))
}

func TestStockOut_StockInsuficienteNoModifica(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 6})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), stockOf(t, store, orgA, "p1"))

	txs, err := uc.ListTransactions(ctx, orgA, "p1", dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, txs, "un rechazo no deja registro en el log")
}

func TestStockOut_ProductoDeOtraOrganizacion(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.StockOut(context.Background(), orgB, inventory.StockInput{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(5), stockOf(t, store, orgA, "p1"))
}

func TestStockOut_SinOrganizacion(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.StockOut(context.Background(), "", inventory.StockInput{ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrMissingTenantContext)
}

func TestStockIn_ProductoArchivadoAceptaMovimientos(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 1, func(p *entity.Product) { p.Status = entity.ProductStatusArchived })

	res, err := uc.StockIn(context.Background(), orgA, inventory.StockInput{ProductID: "p1", Quantity: 2, ReferenceType: entity.ReferenceReturn})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.QuantityInStock)
}

// Escenario: stock 10, dos StockOut(7) concurrentes -> exactamente uno gana, stock final 3.
func TestStockOut_ConcurrenteSoloUnoGana(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 10)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 7})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(3), stockOf(t, store, orgA, "p1"))
}

// Invariante: tras cualquier intercalado, stock = inicial + Σ deltas del log y nunca negativo.
func TestLedger_InvarianteBajoConcurrencia(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 20)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		i := i
		g.Go(func() error {
			var err error
			switch i % 3 {
			case 0:
				_, err = uc.StockIn(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 2})
			case 1:
				_, err = uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 5})
			default:
				_, err = uc.Adjust(ctx, orgA, inventory.AdjustInput{ProductID: "p1", Delta: -3, Reason: "merma"})
			}
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrNegativeStockViolation) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	txs, err := uc.ListTransactions(ctx, orgA, "p1", dto.PageRequest{Limit: 100})
	require.NoError(t, err)
	sum := int64(20)
	for _, tx := range txs {
		switch tx.Type {
		case string(entity.TransactionTypeIn):
			sum += tx.Quantity
		default:
			sum -= tx.Quantity
		}
		assert.GreaterOrEqual(t, tx.BalanceAfter, int64(0))
	}
	final := stockOf(t, store, orgA, "p1")
	assert.Equal(t, sum, final)
	assert.GreaterOrEqual(t, final, int64(0))
	if len(txs) > 0 {
		assert.Equal(t, final, txs[0].BalanceAfter, "el registro más reciente refleja el saldo actual")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust
// ──────────────────────────────────────────────────────────────────────────────

// Escenario: delta 0 -> InvalidAdjustment; delta -1000 con stock 5 -> NegativeStockViolation.
func TestAdjust_CeroYNegativo(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.Adjust(ctx, orgA, inventory.AdjustInput{ProductID: "p1", Delta: 0, Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	_, err = uc.Adjust(ctx, orgA, inventory.AdjustInput{ProductID: "p1", Delta: -1000, Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrNegativeStockViolation)
	assert.Equal(t, int64(5), stockOf(t, store, orgA, "p1"))
}

func TestLedger_DesbordeDeSaldoSeRechaza(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.StockIn(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: math.MaxInt64})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.NotErrorIs(t, err, domain.ErrNegativeStockViolation)

	_, err = uc.Adjust(ctx, orgA, inventory.AdjustInput{ProductID: "p1", Delta: math.MaxInt64, Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	_, err = uc.Adjust(ctx, orgA, inventory.AdjustInput{ProductID: "p1", Delta: math.MinInt64, Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)

	assert.Equal(t, int64(5), stockOf(t, store, orgA, "p1"))
	txs, err := uc.ListTransactions(ctx, orgA, "p1", dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestAdjust_RegistraDeltaConSigno(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 5)

	res, err := uc.Adjust(context.Background(), orgA, inventory.AdjustInput{ProductID: "p1", Delta: -5, Reason: "vencido"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.QuantityInStock)
	assert.Equal(t, "adjustment", res.Transaction.Type)
	assert.Equal(t, int64(5), res.Transaction.Quantity)
	assert.Equal(t, entity.ReferenceAdjustment, res.Transaction.ReferenceType)
	assert.Equal(t, "vencido", res.Transaction.Notes)
}

func TestAdjust_RequiereMotivo(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "p1", 5)

	_, err := uc.Adjust(context.Background(), orgA, inventory.AdjustInput{ProductID: "p1", Delta: 1, Reason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas derivadas y alertas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockOut_NotificaStockBajo(t *testing.T) {
	uc, store, n := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 10, func(p *entity.Product) { p.MinStockLevel = 5 })

	_, err := uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, n.count(), "6 >= 5 no está bajo mínimo")

	res, err := uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 2})
	require.NoError(t, err)
	assert.True(t, res.LowStock)
	require.Equal(t, 1, n.count())
	assert.Equal(t, "p1", n.events[0].ProductID)
	assert.Equal(t, int64(4), n.events[0].Quantity)
	assert.Equal(t, orgA.String(), n.events[0].OrgID)
}

func TestStockOut_FallaDelNotificadorNoFallaLaOperacion(t *testing.T) {
	uc, store, n := newLedger(t)
	n.err = errors.New("redis caído")
	seedProduct(t, store, orgA, "p1", 3, func(p *entity.Product) { p.MinStockLevel = 5 })

	_, err := uc.StockOut(context.Background(), orgA, inventory.StockInput{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stockOf(t, store, orgA, "p1"))
}

func TestIsLowStock(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "bajo", 2, func(p *entity.Product) { p.MinStockLevel = 3 })
	seedProduct(t, store, orgA, "ok", 3, func(p *entity.Product) { p.MinStockLevel = 3 })

	low, err := uc.IsLowStock(ctx, orgA, "bajo")
	require.NoError(t, err)
	assert.True(t, low)

	low, err = uc.IsLowStock(ctx, orgA, "ok")
	require.NoError(t, err)
	assert.False(t, low)

	_, err = uc.IsLowStock(ctx, orgB, "bajo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindLowStock_OrdenYSugerido(t *testing.T) {
	uc, store, _ := newLedger(t)
	seedProduct(t, store, orgA, "a", 4, func(p *entity.Product) { p.MinStockLevel = 10 })
	seedProduct(t, store, orgA, "b", 0, func(p *entity.Product) { p.MinStockLevel = 3 })
	seedProduct(t, store, orgA, "c", 8, func(p *entity.Product) { p.MinStockLevel = 10 })
	seedProduct(t, store, orgA, "d", 50, func(p *entity.Product) { p.MinStockLevel = 10 })
	seedProduct(t, store, orgA, "e", 0, func(p *entity.Product) {
		p.MinStockLevel = 10
		p.Status = entity.ProductStatusArchived
	})
	seedProduct(t, store, orgB, "x", 0, func(p *entity.Product) { p.MinStockLevel = 10 })

	items, err := uc.FindLowStock(context.Background(), orgA)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "b", items[0].ProductID, "los agotados van primero")
	assert.Equal(t, int64(5), items[0].SuggestedOrderQty) // ceil(3*1.5)=5
	assert.Equal(t, "a", items[1].ProductID)
	assert.Equal(t, int64(6), items[1].Deficit)
	assert.Equal(t, int64(11), items[1].SuggestedOrderQty)
	assert.Equal(t, "c", items[2].ProductID)
	for i, it := range items {
		assert.Equal(t, i+1, it.Priority)
	}
}

func TestFindNearExpiry(t *testing.T) {
	uc, store, _ := newLedger(t)
	now := time.Now().UTC()
	in3 := now.AddDate(0, 0, 3)
	in30 := now.AddDate(0, 0, 30)
	past := now.AddDate(0, 0, -1)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day7 := today.AddDate(0, 0, 7)
	seedProduct(t, store, orgA, "hoy", 1, func(p *entity.Product) { p.ExpiryDate = &today })
	seedProduct(t, store, orgA, "dia7", 1, func(p *entity.Product) { p.ExpiryDate = &day7 })
	seedProduct(t, store, orgA, "pronto", 1, func(p *entity.Product) { p.ExpiryDate = &in3 })
	seedProduct(t, store, orgA, "lejos", 1, func(p *entity.Product) { p.ExpiryDate = &in30 })
	seedProduct(t, store, orgA, "vencido", 1, func(p *entity.Product) { p.ExpiryDate = &past })
	seedProduct(t, store, orgA, "sin-fecha", 1)

	list, err := uc.FindNearExpiry(context.Background(), orgA, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "hoy", list[0].ID)
	assert.Equal(t, "pronto", list[1].ID)
	assert.Equal(t, "dia7", list[2].ID)

	list, err = uc.FindNearExpiry(context.Background(), orgA, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hoy", list[0].ID)

	_, err = uc.FindNearExpiry(context.Background(), orgA, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListTransactions_MasRecientePrimero(t *testing.T) {
	uc, store, _ := newLedger(t)
	ctx := context.Background()
	seedProduct(t, store, orgA, "p1", 0)

	_, err := uc.StockIn(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 5})
	require.NoError(t, err)
	_, err = uc.StockOut(ctx, orgA, inventory.StockInput{ProductID: "p1", Quantity: 2, ReferenceType: entity.ReferenceSale, ReferenceID: "B-1"})
	require.NoError(t, err)

	txs, err := uc.ListTransactions(ctx, orgA, "p1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "out", txs[0].Type)
	assert.Equal(t, int64(3), txs[0].BalanceAfter)
	assert.Equal(t, "in", txs[1].Type)

	_, err = uc.ListTransactions(ctx, orgB, "p1", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
