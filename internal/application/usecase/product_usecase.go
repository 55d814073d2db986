package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// OpeningStockRecorder registra el stock inicial en el libro dentro de la transacción de alta.
type OpeningStockRecorder interface {
	StockInInTx(
		ctx context.Context,
		repos repository.Repositories,
		product *entity.Product,
		quantity int64,
		referenceType, referenceID, notes string,
	) (*entity.InventoryTransaction, error)
}

// ProductUseCase casos de uso del catálogo. El stock solo cambia vía el libro de stock.
type ProductUseCase struct {
	store  ports.Store
	ledger OpeningStockRecorder
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(store ports.Store, ledger OpeningStockRecorder) *ProductUseCase {
	return &ProductUseCase{store: store, ledger: ledger}
}

// Create crea un nuevo producto. Si InitialStock > 0 se registra una entrada con referencia "opening".
func (uc *ProductUseCase) Create(ctx context.Context, org tenant.ID, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidAmount(in.MRP) || !entity.ValidAmount(in.Cost) || in.InitialStock < 0 || in.MinStockLevel < 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:            uuid.New().String(),
		OrgID:         org.String(),
		SKU:           in.SKU,
		Name:          in.Name,
		Category:      strings.TrimSpace(in.Category),
		MRP:           in.MRP,
		Cost:          in.Cost,
		MinStockLevel: in.MinStockLevel,
		ExpiryDate:    in.ExpiryDate,
		Status:        entity.ProductStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Products.GetBySKU(ctx, product.SKU)
		switch {
		case err == nil:
			return domain.ErrDuplicate
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if in.InitialStock > 0 {
			_, err := uc.ledger.StockInInTx(ctx, repos, product, in.InitialStock, entity.ReferenceOpening, "", "stock inicial")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, org tenant.ID, id string) (*dto.ProductResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	product, err := repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// GetBySKU obtiene un producto por SKU dentro de la organización.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, org tenant.ID, sku string) (*dto.ProductResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	product, err := repos.Products.GetBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(product)
	return &resp, nil
}

// List lista productos de la organización con paginación.
func (uc *ProductUseCase) List(ctx context.Context, org tenant.ID, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	list, err := repos.Products.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Items: dto.NewProductResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Archive borrado lógico: el producto deja de venderse pero conserva su historial.
func (uc *ProductUseCase) Archive(ctx context.Context, org tenant.ID, id string) error {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return err
	}
	return repos.Products.SetStatus(ctx, id, entity.ProductStatusArchived)
}
