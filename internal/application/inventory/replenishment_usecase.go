package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// FindLowStock devuelve los productos activos con stock < mínimo, con la cantidad sugerida de pedido
// y un ranking de prioridad. Es lectura pura: no toma locks.
func (uc *LedgerUseCase) FindLowStock(ctx context.Context, org tenant.ID) ([]dto.LowStockItemDTO, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	products, err := repos.Products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return buildReplenishmentList(products), nil
}

func buildReplenishmentList(products []*entity.Product) []dto.LowStockItemDTO {
	items := make([]dto.LowStockItemDTO, 0, len(products))
	for _, p := range products {
		if !p.IsLowStock() {
			continue
		}
		// Stock ideal = 1.5 * mínimo, redondeado hacia arriba
		ideal := (p.MinStockLevel*3 + 1) / 2
		suggested := ideal - p.QuantityInStock
		if suggested < 0 {
			suggested = 0
		}
		items = append(items, dto.LowStockItemDTO{
			ProductID:         p.ID,
			SKU:               p.SKU,
			Name:              p.Name,
			QuantityInStock:   p.QuantityInStock,
			MinStockLevel:     p.MinStockLevel,
			Deficit:           p.MinStockLevel - p.QuantityInStock,
			SuggestedOrderQty: suggested,
		})
	}

	// Ordenar: primero los agotados, luego mayor déficit relativo, finalmente mayor déficit absoluto.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		aOut, bOut := a.QuantityInStock == 0, b.QuantityInStock == 0
		if aOut != bOut {
			return aOut
		}
		// déficit relativo: a.Deficit/a.Min > b.Deficit/b.Min (sin división)
		ra, rb := a.Deficit*b.MinStockLevel, b.Deficit*a.MinStockLevel
		if ra != rb {
			return ra > rb
		}
		if a.Deficit != b.Deficit {
			return a.Deficit > b.Deficit
		}
		return a.SKU < b.SKU
	})

	// Asignar prioridad (1 = más urgente)
	for i := range items {
		items[i].Priority = i + 1
	}
	return items
}
