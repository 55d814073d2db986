package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus reemplaza el flag booleano is_active (borrado lógico).
type ProductStatus string

// Estados posibles de un producto.
const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Valid indica si el estado es uno de los conocidos.
func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusArchived
}

// Product representa un producto del catálogo de una organización.
// QuantityInStock solo cambia vía el libro de stock (in/out/adjustment) y nunca es negativo.
type Product struct {
	ID              string
	OrgID           string
	SKU             string // código único por organización
	Name            string
	Category        string
	MRP             decimal.Decimal // precio de venta; se copia al ítem de factura al agregarlo
	Cost            decimal.Decimal
	QuantityInStock int64
	MinStockLevel   int64
	ExpiryDate      *time.Time // nil = no perecedero
	Status          ProductStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive indica si el producto puede venderse.
func (p *Product) IsActive() bool { return p.Status == ProductStatusActive }

// IsLowStock stock por debajo del mínimo configurado.
func (p *Product) IsLowStock() bool { return p.QuantityInStock < p.MinStockLevel }

// StockAfter saldo resultante de aplicar delta; ok=false si el resultado desborda int64.
func (p *Product) StockAfter(delta int64) (after int64, ok bool) {
	after = p.QuantityInStock + delta
	if (delta > 0 && after < p.QuantityInStock) || (delta < 0 && after > p.QuantityInStock) {
		return 0, false
	}
	return after, true
}

// ExpiresBetween indica si vence entre los días de from y to (inclusive).
// Compara fechas de calendario UTC, igual que el cast ::date de la consulta SQL.
func (p *Product) ExpiresBetween(from, to time.Time) bool {
	if p.ExpiryDate == nil {
		return false
	}
	d := utcDay(*p.ExpiryDate)
	return !d.Before(utcDay(from)) && !d.After(utcDay(to))
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
