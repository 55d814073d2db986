package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// StockLedger integra facturación con el libro de stock.
// StockOutInTx ejecuta una salida usando los repositorios del caller (misma transacción).
// Si retorna error (ej: ErrInsufficientStock), el caller debe hacer rollback.
type StockLedger interface {
	StockOutInTx(
		ctx context.Context,
		repos repository.Repositories,
		product *entity.Product,
		quantity int64,
		referenceType, referenceID, notes string,
	) (*entity.InventoryTransaction, error)
	// NotifyIfLow se llama después del commit con los productos afectados.
	NotifyIfLow(ctx context.Context, org tenant.ID, products ...*entity.Product)
}

// ReceiptLine línea de factura enriquecida con datos del producto para el comprobante.
type ReceiptLine struct {
	entity.BillItem
	SKU         string
	ProductName string
}

// ReceiptData todo lo que necesita el generador para dibujar el comprobante.
type ReceiptData struct {
	Bill          *entity.Bill
	Customer      *entity.Customer // nil = consumidor final
	Lines         []ReceiptLine
	CreditNotes   []*entity.CreditNote
	CreditedTotal decimal.Decimal
}

// ReceiptRenderer genera el PDF del comprobante de una factura finalizada.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}
