package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

const billColumns = `id, org_id, bill_number, COALESCE(customer_id::text, ''), total_amount, discount_amount,
	tax_amount, final_amount, payment_method, finalized_at, finalized_by, created_at, updated_at`

const billItemColumns = `i.id, i.bill_id, i.product_id, i.quantity, i.unit_price, i.total_price, i.created_at`

// BillRepo cabecera e ítems de factura. Los ítems no tienen org_id propio:
// se alcanzan siempre a través de un JOIN con bills filtrado por organización.
type BillRepo struct {
	q   Querier
	org string
}

// NewBillRepository construye el adaptador atado a una organización.
func NewBillRepository(q Querier, org string) *BillRepo {
	return &BillRepo{q: q, org: org}
}

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	err := row.Scan(&b.ID, &b.OrgID, &b.BillNumber, &b.CustomerID, &b.TotalAmount, &b.DiscountAmount,
		&b.TaxAmount, &b.FinalAmount, &b.PaymentMethod, &b.FinalizedAt, &b.FinalizedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserta la cabecera (y los ítems si ya trae alguno).
func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	query := `
		INSERT INTO bills (id, org_id, bill_number, customer_id, total_amount, discount_amount, tax_amount,
			final_amount, payment_method, finalized_at, finalized_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, r.org, b.BillNumber, nullable(b.CustomerID), b.TotalAmount, b.DiscountAmount, b.TaxAmount,
		b.FinalAmount, b.PaymentMethod, b.FinalizedAt, b.FinalizedBy, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert bill")
	}
	b.OrgID = r.org
	for _, it := range b.Items {
		if err := r.AddItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// NextNumber incrementa el consecutivo (org, día) con un upsert; la fila queda bloqueada hasta el commit.
func (r *BillRepo) NextNumber(ctx context.Context, day time.Time) (int64, error) {
	query := `
		INSERT INTO bill_sequences (org_id, day, last_value) VALUES ($1, $2::date, 1)
		ON CONFLICT (org_id, day) DO UPDATE SET last_value = bill_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, r.org, day.Format("2006-01-02")).Scan(&n); err != nil {
		return 0, mapError(err, "next bill number")
	}
	return n, nil
}

// GetByID factura con sus ítems.
func (r *BillRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate factura con sus ítems; bloquea la cabecera.
func (r *BillRepo) GetForUpdate(ctx context.Context, id string) (*entity.Bill, error) {
	return r.get(ctx, id, true)
}

func (r *BillRepo) get(ctx context.Context, id string, lock bool) (*entity.Bill, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	query := `SELECT ` + billColumns + ` FROM bills WHERE org_id = $1 AND id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	b, err := scanBill(r.q.QueryRow(ctx, query, r.org, id))
	if err != nil {
		return nil, mapError(err, "get bill")
	}
	items, err := r.items(ctx, []string{b.ID})
	if err != nil {
		return nil, err
	}
	b.Items = items[b.ID]
	return b, nil
}

// items carga los ítems de varias facturas de la organización en una sola consulta.
func (r *BillRepo) items(ctx context.Context, billIDs []string) (map[string][]*entity.BillItem, error) {
	query := `SELECT ` + billItemColumns + `
		FROM bill_items i JOIN bills b ON b.id = i.bill_id
		WHERE b.org_id = $1 AND i.bill_id = ANY($2::uuid[])
		ORDER BY i.created_at, i.id`
	rows, err := r.q.Query(ctx, query, r.org, billIDs)
	if err != nil {
		return nil, mapError(err, "list bill items")
	}
	defer rows.Close()
	out := make(map[string][]*entity.BillItem, len(billIDs))
	for rows.Next() {
		var it entity.BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
			return nil, mapError(err, "scan bill item")
		}
		out[it.BillID] = append(out[it.BillID], &it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list bill items")
	}
	return out, nil
}

// List facturas de la organización, las más recientes primero.
func (r *BillRepo) List(ctx context.Context, limit, offset int) ([]*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE org_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, r.org, sqlLimit(limit), offset)
	if err != nil {
		return nil, mapError(err, "list bills")
	}
	var (
		list []*entity.Bill
		ids  []string
	)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "scan bill")
		}
		list = append(list, b)
		ids = append(ids, b.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list bills")
	}
	if len(list) == 0 {
		return list, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		b.Items = items[b.ID]
	}
	return list, nil
}

// UpdateDraft actualiza cliente, totales y método de pago mientras la factura siga abierta.
func (r *BillRepo) UpdateDraft(ctx context.Context, b *entity.Bill) error {
	if !validID(b.ID) {
		return domain.ErrNotFound
	}
	query := `
		UPDATE bills SET customer_id = $3, total_amount = $4, discount_amount = $5, tax_amount = $6,
			final_amount = $7, payment_method = $8, updated_at = $9
		WHERE org_id = $1 AND id = $2 AND finalized_at IS NULL`
	tag, err := r.q.Exec(ctx, query, r.org, b.ID, nullable(b.CustomerID), b.TotalAmount, b.DiscountAmount,
		b.TaxAmount, b.FinalAmount, b.PaymentMethod, b.UpdatedAt)
	if err != nil {
		return mapError(err, "update bill")
	}
	if tag.RowsAffected() == 0 {
		return r.whyNotDraft(ctx, b.ID)
	}
	return nil
}

// MarkFinalized cierra la factura; la guarda finalized_at IS NULL impide un segundo cierre.
func (r *BillRepo) MarkFinalized(ctx context.Context, b *entity.Bill) error {
	if b.FinalizedAt == nil {
		return domain.ErrInvalidInput
	}
	if !validID(b.ID) {
		return domain.ErrNotFound
	}
	query := `
		UPDATE bills SET finalized_at = $3, finalized_by = $4, total_amount = $5, final_amount = $6, updated_at = $7
		WHERE org_id = $1 AND id = $2 AND finalized_at IS NULL`
	tag, err := r.q.Exec(ctx, query, r.org, b.ID, *b.FinalizedAt, b.FinalizedBy, b.TotalAmount, b.FinalAmount, b.UpdatedAt)
	if err != nil {
		return mapError(err, "finalize bill")
	}
	if tag.RowsAffected() == 0 {
		return r.whyNotDraft(ctx, b.ID)
	}
	return nil
}

// DeleteDraft borra una factura abierta (los ítems caen por ON DELETE CASCADE).
func (r *BillRepo) DeleteDraft(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx,
		`DELETE FROM bills WHERE org_id = $1 AND id = $2 AND finalized_at IS NULL`, r.org, id)
	if err != nil {
		return mapError(err, "delete bill")
	}
	if tag.RowsAffected() == 0 {
		return r.whyNotDraft(ctx, id)
	}
	return nil
}

// AddItem inserta la línea solo si la factura existe en la organización y sigue abierta.
func (r *BillRepo) AddItem(ctx context.Context, it *entity.BillItem) error {
	if !validID(it.BillID) || !validID(it.ProductID) {
		return domain.ErrNotFound
	}
	query := `
		INSERT INTO bill_items (id, bill_id, product_id, quantity, unit_price, total_price, created_at)
		SELECT $3, b.id, $4, $5, $6, $7, $8
		FROM bills b WHERE b.org_id = $1 AND b.id = $2 AND b.finalized_at IS NULL`
	tag, err := r.q.Exec(ctx, query, r.org, it.BillID,
		it.ID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.CreatedAt)
	if err != nil {
		return mapError(err, "insert bill item")
	}
	if tag.RowsAffected() == 0 {
		return r.whyNotDraft(ctx, it.BillID)
	}
	return nil
}

// RemoveItem borra una línea de una factura abierta.
func (r *BillRepo) RemoveItem(ctx context.Context, billID, itemID string) error {
	if !validID(billID) || !validID(itemID) {
		return domain.ErrNotFound
	}
	query := `
		DELETE FROM bill_items i USING bills b
		WHERE i.bill_id = b.id AND b.org_id = $1 AND b.id = $2 AND i.id = $3 AND b.finalized_at IS NULL`
	tag, err := r.q.Exec(ctx, query, r.org, billID, itemID)
	if err != nil {
		return mapError(err, "delete bill item")
	}
	if tag.RowsAffected() == 0 {
		if err := r.whyNotDraft(ctx, billID); err != nil {
			return err
		}
		return domain.ErrNotFound
	}
	return nil
}

// whyNotDraft explica por qué una escritura guardada no afectó filas:
// ErrNotFound si la factura no existe en la organización, ErrBillFinalized si ya está cerrada, nil si sigue abierta.
func (r *BillRepo) whyNotDraft(ctx context.Context, id string) error {
	var finalized bool
	err := r.q.QueryRow(ctx,
		`SELECT finalized_at IS NOT NULL FROM bills WHERE org_id = $1 AND id = $2`, r.org, id).Scan(&finalized)
	if err != nil {
		return mapError(err, "check bill")
	}
	if finalized {
		return domain.ErrBillFinalized
	}
	return nil
}
