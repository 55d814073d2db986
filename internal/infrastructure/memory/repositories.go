package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

// acquire devuelve el estado a usar y la función que lo libera.
type acquire func() (*state, func())

func newRepositories(org string, acq acquire) repository.Repositories {
	return repository.Repositories{
		Products:     &productRepo{org: org, acq: acq},
		Transactions: &transactionRepo{org: org, acq: acq},
		Bills:        &billRepo{org: org, acq: acq},
		CreditNotes:  &creditNoteRepo{org: org, acq: acq},
		Customers:    &customerRepo{org: org, acq: acq},
	}
}

func page[T any](list []T, limit, offset int) []T {
	if offset > len(list) {
		offset = len(list)
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

// ── Products ────────────────────────────────────────────────────────────────

type productRepo struct {
	org string
	acq acquire
}

func (r *productRepo) find(st *state, id string) (*entity.Product, error) {
	p, ok := st.products[id]
	if !ok || p.OrgID != r.org {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	st, release := r.acq()
	defer release()
	if _, exists := st.products[p.ID]; exists {
		return domain.ErrDuplicate
	}
	for _, other := range st.products {
		if other.OrgID == r.org && other.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	cp := copyProduct(p)
	cp.OrgID = r.org
	st.products[p.ID] = cp
	p.OrgID = r.org
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	st, release := r.acq()
	defer release()
	p, err := r.find(st, id)
	if err != nil {
		return nil, err
	}
	return copyProduct(p), nil
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	st, release := r.acq()
	defer release()
	for _, p := range st.products {
		if p.OrgID == r.org && p.SKU == sku {
			return copyProduct(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetForUpdate en memoria el lock es el mutex del store que RunInTx ya mantiene.
func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) LockForUpdate(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	st, release := r.acq()
	defer release()
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make(map[string]*entity.Product, len(sorted))
	for _, id := range sorted {
		if _, done := out[id]; done {
			continue
		}
		p, err := r.find(st, id)
		if err != nil {
			return nil, err
		}
		out[id] = copyProduct(p)
	}
	return out, nil
}

func (r *productRepo) filter(keep func(*entity.Product) bool) []*entity.Product {
	st, release := r.acq()
	defer release()
	var out []*entity.Product
	for _, p := range st.products {
		if p.OrgID == r.org && keep(p) {
			out = append(out, copyProduct(p))
		}
	}
	return out
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	list := r.filter(func(*entity.Product) bool { return true })
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return page(list, limit, offset), nil
}

func (r *productRepo) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	list := r.filter(func(p *entity.Product) bool { return p.IsActive() && p.IsLowStock() })
	sort.Slice(list, func(i, j int) bool { return list[i].SKU < list[j].SKU })
	return list, nil
}

func (r *productRepo) ListExpiringBetween(_ context.Context, from, to time.Time) ([]*entity.Product, error) {
	list := r.filter(func(p *entity.Product) bool {
		return p.IsActive() && p.ExpiresBetween(from, to)
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].ExpiryDate.Equal(*list[j].ExpiryDate) {
			return list[i].ExpiryDate.Before(*list[j].ExpiryDate)
		}
		return list[i].SKU < list[j].SKU
	})
	return list, nil
}

func (r *productRepo) ApplyStockDelta(_ context.Context, id string, delta int64) (int64, error) {
	st, release := r.acq()
	defer release()
	p, err := r.find(st, id)
	if err != nil {
		return 0, err
	}
	after, ok := p.StockAfter(delta)
	if !ok {
		return 0, domain.ErrInvalidQuantity
	}
	if after < 0 {
		return 0, domain.ErrNegativeStockViolation
	}
	p.QuantityInStock = after
	p.UpdatedAt = time.Now().UTC()
	return p.QuantityInStock, nil
}

func (r *productRepo) SetStatus(_ context.Context, id string, status entity.ProductStatus) error {
	st, release := r.acq()
	defer release()
	p, err := r.find(st, id)
	if err != nil {
		return err
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ── Inventory transactions ──────────────────────────────────────────────────

type transactionRepo struct {
	org string
	acq acquire
}

func (r *transactionRepo) Append(_ context.Context, t *entity.InventoryTransaction) error {
	st, release := r.acq()
	defer release()
	cp := *t
	cp.OrgID = r.org
	st.transactions = append(st.transactions, &cp)
	return nil
}

func (r *transactionRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.InventoryTransaction, error) {
	st, release := r.acq()
	defer release()
	var out []*entity.InventoryTransaction
	for i := len(st.transactions) - 1; i >= 0; i-- {
		t := st.transactions[i]
		if t.OrgID == r.org && t.ProductID == productID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func (r *transactionRepo) ListByReference(_ context.Context, referenceType, referenceID string) ([]*entity.InventoryTransaction, error) {
	st, release := r.acq()
	defer release()
	var out []*entity.InventoryTransaction
	for _, t := range st.transactions {
		if t.OrgID == r.org && t.ReferenceType == referenceType && t.ReferenceID == referenceID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── Bills ───────────────────────────────────────────────────────────────────

type billRepo struct {
	org string
	acq acquire
}

func (r *billRepo) find(st *state, id string) (*entity.Bill, error) {
	b, ok := st.bills[id]
	if !ok || b.OrgID != r.org {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (r *billRepo) draft(st *state, id string) (*entity.Bill, error) {
	b, err := r.find(st, id)
	if err != nil {
		return nil, err
	}
	if b.IsFinalized() {
		return nil, domain.ErrBillFinalized
	}
	return b, nil
}

func (r *billRepo) Create(_ context.Context, b *entity.Bill) error {
	st, release := r.acq()
	defer release()
	if _, exists := st.bills[b.ID]; exists {
		return domain.ErrDuplicate
	}
	for _, other := range st.bills {
		if other.OrgID == r.org && other.BillNumber == b.BillNumber {
			return domain.ErrDuplicate
		}
	}
	cp := copyBill(b)
	cp.OrgID = r.org
	st.bills[b.ID] = cp
	b.OrgID = r.org
	return nil
}

func (r *billRepo) NextNumber(_ context.Context, day time.Time) (int64, error) {
	st, release := r.acq()
	defer release()
	key := r.org + "|" + day.Format("20060102")
	st.billSeq[key]++
	return st.billSeq[key], nil
}

func (r *billRepo) GetByID(_ context.Context, id string) (*entity.Bill, error) {
	st, release := r.acq()
	defer release()
	b, err := r.find(st, id)
	if err != nil {
		return nil, err
	}
	return copyBill(b), nil
}

func (r *billRepo) GetForUpdate(ctx context.Context, id string) (*entity.Bill, error) {
	return r.GetByID(ctx, id)
}

func (r *billRepo) List(_ context.Context, limit, offset int) ([]*entity.Bill, error) {
	st, release := r.acq()
	defer release()
	var out []*entity.Bill
	for _, b := range st.bills {
		if b.OrgID == r.org {
			out = append(out, copyBill(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

func (r *billRepo) UpdateDraft(_ context.Context, b *entity.Bill) error {
	st, release := r.acq()
	defer release()
	cur, err := r.draft(st, b.ID)
	if err != nil {
		return err
	}
	cur.CustomerID = b.CustomerID
	cur.TotalAmount = b.TotalAmount
	cur.DiscountAmount = b.DiscountAmount
	cur.TaxAmount = b.TaxAmount
	cur.FinalAmount = b.FinalAmount
	cur.PaymentMethod = b.PaymentMethod
	cur.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *billRepo) MarkFinalized(_ context.Context, b *entity.Bill) error {
	st, release := r.acq()
	defer release()
	cur, err := r.draft(st, b.ID)
	if err != nil {
		return err
	}
	if b.FinalizedAt == nil {
		return domain.ErrInvalidInput
	}
	at := *b.FinalizedAt
	cur.FinalizedAt = &at
	cur.FinalizedBy = b.FinalizedBy
	cur.TotalAmount = b.TotalAmount
	cur.FinalAmount = b.FinalAmount
	cur.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *billRepo) DeleteDraft(_ context.Context, id string) error {
	st, release := r.acq()
	defer release()
	if _, err := r.draft(st, id); err != nil {
		return err
	}
	delete(st.bills, id)
	return nil
}

func (r *billRepo) AddItem(_ context.Context, item *entity.BillItem) error {
	st, release := r.acq()
	defer release()
	b, err := r.draft(st, item.BillID)
	if err != nil {
		return err
	}
	for _, it := range b.Items {
		if it.ID == item.ID {
			return domain.ErrDuplicate
		}
	}
	cp := *item
	b.Items = append(b.Items, &cp)
	return nil
}

func (r *billRepo) RemoveItem(_ context.Context, billID, itemID string) error {
	st, release := r.acq()
	defer release()
	b, err := r.draft(st, billID)
	if err != nil {
		return err
	}
	for i, it := range b.Items {
		if it.ID == itemID {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── Credit notes ────────────────────────────────────────────────────────────

type creditNoteRepo struct {
	org string
	acq acquire
}

func (r *creditNoteRepo) Create(_ context.Context, n *entity.CreditNote) error {
	st, release := r.acq()
	defer release()
	if b, ok := st.bills[n.BillID]; !ok || b.OrgID != r.org {
		return domain.ErrNotFound
	}
	cp := *n
	cp.OrgID = r.org
	st.creditNotes = append(st.creditNotes, &cp)
	n.OrgID = r.org
	return nil
}

func (r *creditNoteRepo) ListByBill(_ context.Context, billID string) ([]*entity.CreditNote, error) {
	st, release := r.acq()
	defer release()
	var out []*entity.CreditNote
	for _, n := range st.creditNotes {
		if n.OrgID == r.org && n.BillID == billID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *creditNoteRepo) SumByBill(_ context.Context, billID string) (decimal.Decimal, error) {
	st, release := r.acq()
	defer release()
	sum := decimal.Zero
	for _, n := range st.creditNotes {
		if n.OrgID == r.org && n.BillID == billID {
			sum = sum.Add(n.Amount)
		}
	}
	return sum, nil
}

// ── Customers ───────────────────────────────────────────────────────────────

type customerRepo struct {
	org string
	acq acquire
}

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	st, release := r.acq()
	defer release()
	if _, exists := st.customers[c.ID]; exists {
		return domain.ErrDuplicate
	}
	for _, other := range st.customers {
		if other.OrgID == r.org && other.Code == c.Code {
			return domain.ErrDuplicate
		}
	}
	cp := *c
	cp.OrgID = r.org
	st.customers[c.ID] = &cp
	c.OrgID = r.org
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	st, release := r.acq()
	defer release()
	c, ok := st.customers[id]
	if !ok || c.OrgID != r.org {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepo) GetByCode(_ context.Context, code string) (*entity.Customer, error) {
	st, release := r.acq()
	defer release()
	for _, c := range st.customers {
		if c.OrgID == r.org && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *customerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	st, release := r.acq()
	defer release()
	var out []*entity.Customer
	for _, c := range st.customers {
		if c.OrgID == r.org {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return page(out, limit, offset), nil
}
