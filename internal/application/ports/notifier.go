package ports

import (
	"context"
	"time"
)

// LowStockEvent se emite cuando un producto queda por debajo de su stock mínimo.
type LowStockEvent struct {
	OrgID         string    `json:"org_id"`
	ProductID     string    `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Quantity      int64     `json:"quantity"`
	MinStockLevel int64     `json:"min_stock_level"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// LowStockNotifier encola la notificación; la entrega (email/SMS) vive fuera del núcleo.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, evt LowStockEvent) error
}
