package dto

import (
	"time"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// StockMovementRequest body para POST /api/inventory/:productId/in|out.
type StockMovementRequest struct {
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	ReferenceType string `json:"reference_type" validate:"omitempty,max=50"`
	ReferenceID   string `json:"reference_id,omitempty" validate:"max=100"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

// StockAdjustmentRequest body para POST /api/inventory/:productId/adjust.
// Delta puede ser negativo; cero se rechaza con INVALID_ADJUSTMENT en el caso de uso.
type StockAdjustmentRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// InventoryTransactionResponse registro del log de stock.
type InventoryTransactionResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	BalanceAfter  int64     `json:"balance_after"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockMovementResponse resultado de una mutación del libro.
type StockMovementResponse struct {
	ProductID       string                       `json:"product_id"`
	QuantityInStock int64                        `json:"quantity_in_stock"`
	LowStock        bool                         `json:"low_stock"`
	Transaction     InventoryTransactionResponse `json:"transaction"`
}

// NewInventoryTransactionResponse convierte la entidad en DTO.
func NewInventoryTransactionResponse(t *entity.InventoryTransaction) InventoryTransactionResponse {
	return InventoryTransactionResponse{
		ID:            t.ID,
		ProductID:     t.ProductID,
		Type:          string(t.Type),
		Quantity:      t.Quantity,
		BalanceAfter:  t.BalanceAfter,
		ReferenceType: t.ReferenceType,
		ReferenceID:   t.ReferenceID,
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt,
	}
}

// LowStockItemDTO producto por debajo de su stock mínimo con la cantidad sugerida de reposición.
type LowStockItemDTO struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	QuantityInStock   int64  `json:"quantity_in_stock"`
	MinStockLevel     int64  `json:"min_stock_level"`
	Deficit           int64  `json:"deficit"`             // MinStockLevel - QuantityInStock
	SuggestedOrderQty int64  `json:"suggested_order_qty"` // ceil(MinStockLevel * 1.5) - QuantityInStock
	Priority          int    `json:"priority"`            // 1 = más urgente
}
