package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// CreditNoteRepository puerto append-only para notas crédito.
type CreditNoteRepository interface {
	Create(ctx context.Context, note *entity.CreditNote) error
	ListByBill(ctx context.Context, billID string) ([]*entity.CreditNote, error)
	SumByBill(ctx context.Context, billID string) (decimal.Decimal, error)
}
