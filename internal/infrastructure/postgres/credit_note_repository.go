package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

// CreditNoteRepo notas crédito append-only (sin UPDATE ni DELETE).
type CreditNoteRepo struct {
	q   Querier
	org string
}

// NewCreditNoteRepository construye el adaptador atado a una organización.
func NewCreditNoteRepository(q Querier, org string) *CreditNoteRepo {
	return &CreditNoteRepo{q: q, org: org}
}

// Create inserta la nota solo si la factura pertenece a la organización.
func (r *CreditNoteRepo) Create(ctx context.Context, n *entity.CreditNote) error {
	if !validID(n.BillID) {
		return domain.ErrNotFound
	}
	query := `
		INSERT INTO credit_notes (id, org_id, bill_id, amount, reason, created_at)
		SELECT $3, b.org_id, b.id, $4, $5, $6 FROM bills b WHERE b.org_id = $1 AND b.id = $2`
	tag, err := r.q.Exec(ctx, query, r.org, n.BillID, n.ID, n.Amount, n.Reason, n.CreatedAt)
	if err != nil {
		return mapError(err, "insert credit note")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	n.OrgID = r.org
	return nil
}

// ListByBill notas de una factura en orden de creación.
func (r *CreditNoteRepo) ListByBill(ctx context.Context, billID string) ([]*entity.CreditNote, error) {
	if !validID(billID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, org_id, bill_id, amount, reason, created_at FROM credit_notes
		WHERE org_id = $1 AND bill_id = $2 ORDER BY created_at, id`, r.org, billID)
	if err != nil {
		return nil, mapError(err, "list credit notes")
	}
	defer rows.Close()
	var list []*entity.CreditNote
	for rows.Next() {
		var n entity.CreditNote
		if err := rows.Scan(&n.ID, &n.OrgID, &n.BillID, &n.Amount, &n.Reason, &n.CreatedAt); err != nil {
			return nil, mapError(err, "scan credit note")
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list credit notes")
	}
	return list, nil
}

// SumByBill total acreditado sobre la factura (0 si no hay notas).
func (r *CreditNoteRepo) SumByBill(ctx context.Context, billID string) (decimal.Decimal, error) {
	if !validID(billID) {
		return decimal.Zero, nil
	}
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_notes WHERE org_id = $1 AND bill_id = $2`,
		r.org, billID).Scan(&sum)
	if err != nil {
		return decimal.Zero, mapError(err, "sum credit notes")
	}
	return sum, nil
}
