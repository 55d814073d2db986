package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las implementaciones están atadas a un org_id: ningún método recibe el tenant porque ya está fijado.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// LockForUpdate bloquea varias filas en orden ascendente de id (evita deadlocks entre facturas).
	// Devuelve ErrNotFound si falta alguno.
	LockForUpdate(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Product, error)
	// ApplyStockDelta aplica quantity = quantity + delta solo si el resultado es >= 0.
	// Devuelve la nueva cantidad o ErrNegativeStockViolation si la guarda no se cumple.
	ApplyStockDelta(ctx context.Context, id string, delta int64) (int64, error)
	SetStatus(ctx context.Context, id string, status entity.ProductStatus) error
}
