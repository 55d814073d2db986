package repository

import (
	"context"
	"time"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// BillRepository puerto de persistencia para Bill y sus ítems.
// Las escrituras sobre la cabecera o los ítems exigen finalized_at IS NULL en la propia sentencia;
// si la factura ya está cerrada devuelven ErrBillFinalized.
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	// NextNumber reserva el siguiente consecutivo del día para la organización.
	NextNumber(ctx context.Context, day time.Time) (int64, error)
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	// GetForUpdate carga la factura con sus ítems y bloquea la fila de cabecera.
	GetForUpdate(ctx context.Context, id string) (*entity.Bill, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Bill, error)
	UpdateDraft(ctx context.Context, bill *entity.Bill) error
	MarkFinalized(ctx context.Context, bill *entity.Bill) error
	DeleteDraft(ctx context.Context, id string) error
	AddItem(ctx context.Context, item *entity.BillItem) error
	RemoveItem(ctx context.Context, billID, itemID string) error
}
