package repository

import (
	"context"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// InventoryTransactionRepository puerto del log de auditoría de stock. Solo inserción y lectura.
type InventoryTransactionRepository interface {
	Append(ctx context.Context, tx *entity.InventoryTransaction) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryTransaction, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.InventoryTransaction, error)
}
