package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

const transactionColumns = `id, org_id, product_id, type, quantity, delta, balance_after,
	reference_type, reference_id, notes, created_at`

// InventoryTransactionRepo log de auditoría de stock; solo INSERT y SELECT.
type InventoryTransactionRepo struct {
	q   Querier
	org string
}

// NewInventoryTransactionRepository construye el adaptador atado a una organización.
func NewInventoryTransactionRepository(q Querier, org string) *InventoryTransactionRepo {
	return &InventoryTransactionRepo{q: q, org: org}
}

// Append inserta el movimiento.
func (r *InventoryTransactionRepo) Append(ctx context.Context, t *entity.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, r.org, t.ProductID, string(t.Type), t.Quantity, t.Delta, t.BalanceAfter,
		t.ReferenceType, t.ReferenceID, t.Notes, t.CreatedAt,
	)
	if err != nil {
		return mapError(err, "insert inventory transaction")
	}
	t.OrgID = r.org
	return nil
}

// ListByProduct movimientos de un producto, el más reciente primero.
func (r *InventoryTransactionRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryTransaction, error) {
	if !validID(productID) {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions
		WHERE org_id = $1 AND product_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	return r.queryList(ctx, "list transactions", query, r.org, productID, sqlLimit(limit), offset)
}

// ListByReference movimientos originados por un documento (ej. sale + id de factura).
func (r *InventoryTransactionRepo) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.InventoryTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions
		WHERE org_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY created_at, id`
	return r.queryList(ctx, "list transactions by reference", query, r.org, referenceType, referenceID)
}

func (r *InventoryTransactionRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryTransaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()
	var list []*entity.InventoryTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapError(err, op)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return list, nil
}

func scanTransaction(row pgx.Row) (*entity.InventoryTransaction, error) {
	var (
		t   entity.InventoryTransaction
		typ string
	)
	err := row.Scan(&t.ID, &t.OrgID, &t.ProductID, &typ, &t.Quantity, &t.Delta, &t.BalanceAfter,
		&t.ReferenceType, &t.ReferenceID, &t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = entity.TransactionType(typ)
	return &t, nil
}
