package entity

import "time"

// TransactionType dirección de un movimiento del libro de stock.
type TransactionType string

// Tipos de transacción de inventario.
const (
	TransactionTypeIn         TransactionType = "in"
	TransactionTypeOut        TransactionType = "out"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Tipos de referencia usados por el núcleo.
const (
	ReferencePurchase   = "purchase"
	ReferenceSale       = "sale"
	ReferenceAdjustment = "adjustment"
	ReferenceReturn     = "return"
	ReferenceOpening    = "opening"
	ReferenceManual     = "manual"
)

// InventoryTransaction registro inmutable (append-only) de una mutación de stock.
// Quantity siempre es positiva; la dirección la da Type. Para ajustes, Delta conserva el signo.
type InventoryTransaction struct {
	ID            string
	OrgID         string
	ProductID     string
	Type          TransactionType
	Quantity      int64
	Delta         int64 // +/-; igual a Quantity en "in", -Quantity en "out"
	BalanceAfter  int64
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedAt     time.Time
}

