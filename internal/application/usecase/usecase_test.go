package usecase_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/inventory"
	"github.com/jhoicas/retail-core/internal/application/usecase"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/internal/infrastructure/memory"
	"github.com/jhoicas/retail-core/pkg/logger"
)

const (
	orgA tenant.ID = "org-a"
	orgB tenant.ID = "org-b"
)

func newProductUC() (*usecase.ProductUseCase, *inventory.LedgerUseCase) {
	store := memory.New()
	ledger := inventory.NewLedgerUseCase(store, nil, logger.Nop())
	return usecase.NewProductUseCase(store, ledger), ledger
}

func TestProductCreate_StockInicialQuedaEnElLibro(t *testing.T) {
	uc, ledger := newProductUC()
	ctx := context.Background()

	p, err := uc.Create(ctx, orgA, dto.CreateProductRequest{
		SKU: "ARROZ-1", Name: "Arroz 1kg", MRP: decimal.RequireFromString("4.50"),
		InitialStock: 12, MinStockLevel: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.QuantityInStock)
	assert.Equal(t, string(entity.ProductStatusActive), p.Status)
	assert.Equal(t, orgA.String(), p.OrgID)

	txs, err := ledger.ListTransactions(ctx, orgA, p.ID, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.ReferenceOpening, txs[0].ReferenceType)
	assert.Equal(t, int64(12), txs[0].BalanceAfter)
}

func TestProductCreate_SKUUnicoPorOrganizacion(t *testing.T) {
	uc, _ := newProductUC()
	ctx := context.Background()
	in := dto.CreateProductRequest{SKU: "X-1", Name: "X"}

	_, err := uc.Create(ctx, orgA, in)
	require.NoError(t, err)
	_, err = uc.Create(ctx, orgA, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.Create(ctx, orgB, in)
	assert.NoError(t, err, "otra organización puede usar el mismo SKU")

	_, err = uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "N", Name: "N", MRP: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductCreate_MontosConDosDecimales(t *testing.T) {
	uc, _ := newProductUC()
	ctx := context.Background()

	_, err := uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "M-1", Name: "M", MRP: decimal.RequireFromString("4.505")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "M-1", Name: "M", Cost: decimal.RequireFromString("0.001")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "M-1", Name: "M", MRP: decimal.RequireFromString("4.500")})
	require.NoError(t, err)
	assert.True(t, p.MRP.Equal(decimal.RequireFromString("4.5")))
}

// skuLookupFails simula una falla transitoria al buscar el SKU dentro de la transacción.
type skuLookupFails struct {
	repository.ProductRepository
}

func (skuLookupFails) GetBySKU(context.Context, string) (*entity.Product, error) {
	return nil, fmt.Errorf("%w: lock timeout", domain.ErrTransientStorage)
}

type flakyStore struct {
	*memory.Store
}

func (s flakyStore) RunInTx(ctx context.Context, org tenant.ID, fn func(context.Context, repository.Repositories) error) error {
	return s.Store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		repos.Products = skuLookupFails{repos.Products}
		return fn(ctx, repos)
	})
}

func TestProductCreate_ErrorAlBuscarSKUSePropaga(t *testing.T) {
	store := memory.New()
	ledger := inventory.NewLedgerUseCase(store, nil, logger.Nop())
	uc := usecase.NewProductUseCase(flakyStore{store}, ledger)
	ctx := context.Background()

	_, err := uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "T-1", Name: "T"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientStorage)
	assert.True(t, domain.IsRetryable(err))
	assert.NotErrorIs(t, err, domain.ErrDuplicate)

	list, err := usecase.NewProductUseCase(store, ledger).List(ctx, orgA, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestProduct_AislamientoYArchivo(t *testing.T) {
	uc, _ := newProductUC()
	ctx := context.Background()
	p, err := uc.Create(ctx, orgA, dto.CreateProductRequest{SKU: "S-1", Name: "Sal"})
	require.NoError(t, err)

	_, err = uc.GetByID(ctx, orgB, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.GetBySKU(ctx, orgB, "S-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	list, err := uc.List(ctx, orgB, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.ErrorIs(t, uc.Archive(ctx, orgB, p.ID), domain.ErrNotFound)

	require.NoError(t, uc.Archive(ctx, orgA, p.ID))
	got, err := uc.GetBySKU(ctx, orgA, "S-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ProductStatusArchived), got.Status)
}

func TestCustomer_CodigoUnicoYAislamiento(t *testing.T) {
	uc := usecase.NewCustomerUseCase(memory.New())
	ctx := context.Background()

	c, err := uc.Create(ctx, orgA, dto.CreateCustomerRequest{Code: "3001234567", Name: "Ana"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, orgA, dto.CreateCustomerRequest{Code: "3001234567", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := uc.GetByCode(ctx, orgA, "3001234567")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = uc.GetByID(ctx, orgB, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.GetByCode(ctx, orgB, "3001234567")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	list, err := uc.List(ctx, orgB, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = uc.Create(ctx, "", dto.CreateCustomerRequest{Code: "1", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingTenantContext)
}
