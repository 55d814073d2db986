package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, org_id, sku, name, category, mrp, cost, quantity_in_stock, min_stock_level,
	expiry_date, status, created_at, updated_at`

// ProductRepo implementación de ProductRepository sobre PostgreSQL (usable con pool o tx).
// Todas las sentencias filtran por org_id.
type ProductRepo struct {
	q   Querier
	org string
}

// NewProductRepository construye el adaptador atado a una organización.
func NewProductRepository(q Querier, org string) *ProductRepo {
	return &ProductRepo{q: q, org: org}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p      entity.Product
		status string
	)
	err := row.Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.Category, &p.MRP, &p.Cost,
		&p.QuantityInStock, &p.MinStockLevel, &p.ExpiryDate, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = entity.ProductStatus(status)
	return &p, nil
}

func (r *ProductRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, op)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return list, nil
}

// Create persiste un nuevo producto. SKU duplicado en la organización -> ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		p.ID, r.org, p.SKU, p.Name, p.Category, p.MRP, p.Cost, p.QuantityInStock, p.MinStockLevel,
		p.ExpiryDate, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert product")
	}
	p.OrgID = r.org
	return nil
}

// GetByID obtiene un producto de la organización.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1 AND id = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, r.org, id))
	if err != nil {
		return nil, mapError(err, "get product")
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU dentro de la organización.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1 AND sku = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, r.org, sku))
	if err != nil {
		return nil, mapError(err, "get product by sku")
	}
	return p, nil
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1 AND id = $2 FOR UPDATE`
	p, err := scanProduct(r.q.QueryRow(ctx, query, r.org, id))
	if err != nil {
		return nil, mapError(err, "lock product")
	}
	return p, nil
}

// LockForUpdate bloquea una fila a la vez en orden ascendente de id.
// Dos facturas que comparten productos adquieren los locks en el mismo orden.
func (r *ProductRepo) LockForUpdate(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make(map[string]*entity.Product, len(sorted))
	for _, id := range sorted {
		if _, done := out[id]; done {
			continue
		}
		p, err := r.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

// List productos de la organización ordenados por SKU. limit <= 0 no limita.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1
		ORDER BY sku LIMIT $2 OFFSET $3`
	return r.queryList(ctx, "list products", query, r.org, sqlLimit(limit), offset)
}

// ListLowStock productos activos con stock por debajo del mínimo.
func (r *ProductRepo) ListLowStock(ctx context.Context) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE org_id = $1 AND status = 'active' AND quantity_in_stock < min_stock_level
		ORDER BY sku`
	return r.queryList(ctx, "list low stock", query, r.org)
}

// ListExpiringBetween productos activos que vencen en [from, to], los más próximos primero.
func (r *ProductRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE org_id = $1 AND status = 'active' AND expiry_date IS NOT NULL
		  AND expiry_date BETWEEN $2::date AND $3::date
		ORDER BY expiry_date, sku`
	return r.queryList(ctx, "list expiring", query, r.org, from, to)
}

// ApplyStockDelta actualización guardada: nunca deja quantity_in_stock < 0.
// Si no afecta filas distingue entre producto inexistente y guarda incumplida.
func (r *ProductRepo) ApplyStockDelta(ctx context.Context, id string, delta int64) (int64, error) {
	if !validID(id) {
		return 0, domain.ErrNotFound
	}
	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock + $3, updated_at = now()
		WHERE org_id = $1 AND id = $2 AND quantity_in_stock + $3 >= 0
		RETURNING quantity_in_stock`
	var qty int64
	err := r.q.QueryRow(ctx, query, r.org, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !noRows(err) {
		return 0, mapError(err, "apply stock delta")
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return 0, err
	}
	return 0, domain.ErrNegativeStockViolation
}

// SetStatus cambia el estado (archivado lógico).
func (r *ProductRepo) SetStatus(ctx context.Context, id string, status entity.ProductStatus) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET status = $3, updated_at = now() WHERE org_id = $1 AND id = $2`,
		r.org, id, string(status))
	if err != nil {
		return mapError(err, "set product status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// sqlLimit traduce "sin límite" a NULL (LIMIT NULL = LIMIT ALL).
func sqlLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
