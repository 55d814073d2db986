package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto.
// InitialStock se registra como transacción "in" con referencia "opening".
type CreateProductRequest struct {
	SKU           string          `json:"sku" validate:"required,min=1,max=100"`
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	Category      string          `json:"category" validate:"max=100"`
	MRP           decimal.Decimal `json:"mrp"`
	Cost          decimal.Decimal `json:"cost"`
	InitialStock  int64           `json:"initial_stock" validate:"min=0"`
	MinStockLevel int64           `json:"min_stock_level" validate:"min=0"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	OrgID           string          `json:"org_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	MRP             decimal.Decimal `json:"mrp"`
	Cost            decimal.Decimal `json:"cost"`
	QuantityInStock int64           `json:"quantity_in_stock"`
	MinStockLevel   int64           `json:"min_stock_level"`
	LowStock        bool            `json:"low_stock"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewProductResponse convierte la entidad en DTO.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		OrgID:           p.OrgID,
		SKU:             p.SKU,
		Name:            p.Name,
		Category:        p.Category,
		MRP:             p.MRP,
		Cost:            p.Cost,
		QuantityInStock: p.QuantityInStock,
		MinStockLevel:   p.MinStockLevel,
		LowStock:        p.IsLowStock(),
		ExpiryDate:      p.ExpiryDate,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// NewProductResponses convierte una lista.
func NewProductResponses(list []*entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewProductResponse(p))
	}
	return out
}
