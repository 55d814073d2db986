package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus estado derivado del ciclo de vida (Draft -> Finalized, terminal).
type BillStatus string

// Estados de factura.
const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusFinalized BillStatus = "finalized"
)

// Métodos de pago admitidos.
const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentUPI    = "upi"
	PaymentOnline = "online"
	PaymentCredit = "credit"
)

// ValidPaymentMethod indica si el método de pago es conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentOnline, PaymentCredit:
		return true
	}
	return false
}

// Bill cabecera de una venta. Una vez FinalizedAt != nil la factura y sus ítems son inmutables.
type Bill struct {
	ID             string
	OrgID          string
	BillNumber     string // único por organización
	CustomerID     string // vacío = consumidor final
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
	PaymentMethod  string
	FinalizedAt    *time.Time
	FinalizedBy    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []*BillItem
}

// IsFinalized indica si la factura ya fue cerrada.
func (b *Bill) IsFinalized() bool { return b.FinalizedAt != nil }

// Status estado actual.
func (b *Bill) Status() BillStatus {
	if b.IsFinalized() {
		return BillStatusFinalized
	}
	return BillStatusDraft
}

// Recalculate recalcula los totales a partir de los ítems (sumas simples, sin motor de impuestos).
func (b *Bill) Recalculate() {
	total := decimal.Zero
	for _, it := range b.Items {
		total = total.Add(it.TotalPrice)
	}
	b.TotalAmount = total
	b.FinalAmount = total.Sub(b.DiscountAmount).Add(b.TaxAmount)
}

// BillItem línea de factura; pertenece exclusivamente a su Bill (hereda el tenant de ella).
type BillItem struct {
	ID         string
	BillID     string
	ProductID  string
	Quantity   int64
	UnitPrice  decimal.Decimal // snapshot del MRP al momento de agregar
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// NewBillItem construye la línea calculando total = precio * cantidad.
func NewBillItem(id, billID, productID string, qty int64, unitPrice decimal.Decimal, now time.Time) *BillItem {
	return &BillItem{
		ID:         id,
		BillID:     billID,
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(qty)),
		CreatedAt:  now,
	}
}
