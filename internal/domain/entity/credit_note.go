package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNote corrección financiera append-only sobre una factura finalizada.
// No modifica stock: las devoluciones físicas se registran como StockIn con referencia "return".
type CreditNote struct {
	ID        string
	OrgID     string
	BillID    string
	Amount    decimal.Decimal
	Reason    string
	CreatedAt time.Time
}
