package memory_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/internal/infrastructure/memory"
)

const (
	orgA tenant.ID = "org-a"
	orgB tenant.ID = "org-b"
)

func seedProduct(t *testing.T, s *memory.Store, org tenant.ID, id, sku string, qty int64) {
	t.Helper()
	repos, err := s.Scope(org)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, repos.Products.Create(context.Background(), &entity.Product{
		ID: id, SKU: sku, Name: sku, MRP: decimal.NewFromInt(10),
		QuantityInStock: qty, Status: entity.ProductStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

func TestScope_SinOrganizacionFallaRapido(t *testing.T) {
	s := memory.New()

	_, err := s.Scope("")
	assert.ErrorIs(t, err, domain.ErrMissingTenantContext)

	called := false
	err = s.RunInTx(context.Background(), "", func(context.Context, repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrMissingTenantContext)
	assert.False(t, called, "el callback no debe ejecutarse sin organización")
}

func TestScope_AislamientoEntreOrganizaciones(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedProduct(t, s, orgA, "p-1", "SKU-1", 5)

	reposB, err := s.Scope(orgB)
	require.NoError(t, err)

	_, err = reposB.Products.GetByID(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reposB.Products.GetBySKU(ctx, "SKU-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	list, err := reposB.Products.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = reposB.Products.ApplyStockDelta(ctx, "p-1", -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// El mismo SKU en otra organización no es duplicado.
	seedProduct(t, s, orgB, "p-2", "SKU-1", 1)
}

func TestRunInTx_ErrorDescartaCambios(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedProduct(t, s, orgA, "p-1", "SKU-1", 5)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, orgA, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Products.ApplyStockDelta(ctx, "p-1", -3)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	repos, _ := s.Scope(orgA)
	p, err := repos.Products.GetByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.QuantityInStock, "un rollback no deja rastro")
}

func TestRunInTx_ContextoCanceladoEsTransitorio(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	seedProduct(t, s, orgA, "p-1", "SKU-1", 5)

	err := s.RunInTx(ctx, orgA, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Products.ApplyStockDelta(ctx, "p-1", -1)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, domain.ErrTransientStorage)

	repos, _ := s.Scope(orgA)
	p, _ := repos.Products.GetByID(context.Background(), "p-1")
	assert.Equal(t, int64(5), p.QuantityInStock)
}

func TestApplyStockDelta_GuardaNoNegativo(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedProduct(t, s, orgA, "p-1", "SKU-1", 2)
	repos, _ := s.Scope(orgA)

	_, err := repos.Products.ApplyStockDelta(ctx, "p-1", -3)
	assert.ErrorIs(t, err, domain.ErrNegativeStockViolation)

	_, err = repos.Products.ApplyStockDelta(ctx, "p-1", math.MaxInt64)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	qty, err := repos.Products.ApplyStockDelta(ctx, "p-1", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestBills_EscriturasSobreFacturaFinalizada(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	repos, _ := s.Scope(orgA)
	now := time.Now().UTC()

	bill := &entity.Bill{ID: "b-1", BillNumber: "B-1", PaymentMethod: entity.PaymentCash, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repos.Bills.Create(ctx, bill))
	assert.ErrorIs(t, repos.Bills.Create(ctx, &entity.Bill{ID: "b-2", BillNumber: "B-1"}), domain.ErrDuplicate)

	item := entity.NewBillItem("i-1", "b-1", "p-1", 2, decimal.NewFromInt(10), now)
	require.NoError(t, repos.Bills.AddItem(ctx, item))

	bill.FinalizedAt = &now
	bill.FinalizedBy = "cajero"
	require.NoError(t, repos.Bills.MarkFinalized(ctx, bill))

	assert.ErrorIs(t, repos.Bills.MarkFinalized(ctx, bill), domain.ErrBillFinalized)
	assert.ErrorIs(t, repos.Bills.AddItem(ctx, entity.NewBillItem("i-2", "b-1", "p-1", 1, decimal.NewFromInt(10), now)), domain.ErrBillFinalized)
	assert.ErrorIs(t, repos.Bills.RemoveItem(ctx, "b-1", "i-1"), domain.ErrBillFinalized)
	assert.ErrorIs(t, repos.Bills.DeleteDraft(ctx, "b-1"), domain.ErrBillFinalized)

	got, err := repos.Bills.GetByID(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, got.IsFinalized())
	assert.Len(t, got.Items, 1)
}

func TestBills_NextNumberPorOrganizacionYDia(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a, _ := s.Scope(orgA)
	b, _ := s.Scope(orgB)

	n1, _ := a.Bills.NextNumber(ctx, day)
	n2, _ := a.Bills.NextNumber(ctx, day)
	n3, _ := b.Bills.NextNumber(ctx, day)
	n4, _ := a.Bills.NextNumber(ctx, day.AddDate(0, 0, 1))

	assert.Equal(t, []int64{1, 2, 1, 1}, []int64{n1, n2, n3, n4})
}

func TestLockForUpdate_FaltanteEsNotFound(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	seedProduct(t, s, orgA, "p-2", "SKU-2", 1)
	seedProduct(t, s, orgA, "p-1", "SKU-1", 1)

	err := s.RunInTx(ctx, orgA, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Products.LockForUpdate(ctx, []string{"p-2", "p-1", "p-2"})
		require.NoError(t, err)
		assert.Len(t, locked, 2)

		_, err = repos.Products.LockForUpdate(ctx, []string{"p-1", "p-x"})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
