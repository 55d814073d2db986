package billing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// BillNumberPrefix prefijo de los consecutivos generados (B-YYYYMMDD-000001).
const BillNumberPrefix = "B"

// BillUseCase ciclo de vida de la factura: borrador editable -> finalizada (terminal).
type BillUseCase struct {
	store  ports.Store
	ledger StockLedger
	log    *logger.Logger
	now    func() time.Time
}

// NewBillUseCase construye el caso de uso.
func NewBillUseCase(store ports.Store, ledger StockLedger, log *logger.Logger) *BillUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &BillUseCase{
		store:  store,
		ledger: ledger,
		log:    log.Named("billing"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateBill crea una factura en borrador sin ítems.
func (uc *BillUseCase) CreateBill(ctx context.Context, org tenant.ID, in dto.CreateBillRequest) (*dto.BillResponse, error) {
	if !entity.ValidAmount(in.DiscountAmount) || !entity.ValidAmount(in.TaxAmount) {
		return nil, domain.ErrInvalidInput
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = entity.PaymentCash
	}
	if !entity.ValidPaymentMethod(method) {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	bill := &entity.Bill{
		ID:             uuid.New().String(),
		OrgID:          org.String(),
		BillNumber:     strings.TrimSpace(in.BillNumber),
		CustomerID:     strings.TrimSpace(in.CustomerID),
		DiscountAmount: in.DiscountAmount,
		TaxAmount:      in.TaxAmount,
		PaymentMethod:  method,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	bill.Recalculate()

	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		if bill.CustomerID != "" {
			if _, err := repos.Customers.GetByID(ctx, bill.CustomerID); err != nil {
				return err
			}
		}
		if bill.BillNumber == "" {
			seq, err := repos.Bills.NextNumber(ctx, now)
			if err != nil {
				return err
			}
			bill.BillNumber = FormatBillNumber(now, seq)
		}
		return repos.Bills.Create(ctx, bill)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("org_id", org.String()).Str("bill_id", bill.ID).Str("bill_number", bill.BillNumber).Msg("factura creada")
	return dto.NewBillResponse(bill), nil
}

// FormatBillNumber arma el consecutivo B-YYYYMMDD-NNNNNN.
func FormatBillNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", BillNumberPrefix, day.Format("20060102"), seq)
}

// GetBill devuelve la factura con sus ítems.
func (uc *BillUseCase) GetBill(ctx context.Context, org tenant.ID, billID string) (*dto.BillResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	bill, err := repos.Bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	return dto.NewBillResponse(bill), nil
}

// ListBills lista facturas de la organización, más recientes primero.
func (uc *BillUseCase) ListBills(ctx context.Context, org tenant.ID, page dto.PageRequest) ([]*dto.BillResponse, error) {
	page.DefaultPage()
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	list, err := repos.Bills.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.BillResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.NewBillResponse(b))
	}
	return out, nil
}

// AddItem agrega una línea al borrador. La validación de stock aquí es optimista (no descuenta);
// la autoritativa es la de Finalize.
func (uc *BillUseCase) AddItem(ctx context.Context, org tenant.ID, billID string, in dto.AddBillItemRequest) (*dto.BillResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.ErrInvalidInput
	}

	var bill *entity.Bill
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		// Bloquear la cabecera serializa AddItem contra un Finalize concurrente.
		b, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.IsFinalized() {
			return domain.ErrBillFinalized
		}
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive() {
			return domain.ErrProductArchived
		}
		if in.Quantity > product.QuantityInStock {
			return domain.ErrInsufficientStock
		}

		now := uc.now()
		item := entity.NewBillItem(uuid.New().String(), b.ID, product.ID, in.Quantity, product.MRP, now)
		if err := repos.Bills.AddItem(ctx, item); err != nil {
			return err
		}
		b.Items = append(b.Items, item)
		b.Recalculate()
		b.UpdatedAt = now
		if err := repos.Bills.UpdateDraft(ctx, b); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewBillResponse(bill), nil
}

// RemoveItem elimina una línea del borrador. El ítem debe pertenecer a la factura.
func (uc *BillUseCase) RemoveItem(ctx context.Context, org tenant.ID, billID, itemID string) (*dto.BillResponse, error) {
	var bill *entity.Bill
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.IsFinalized() {
			return domain.ErrBillFinalized
		}
		if err := repos.Bills.RemoveItem(ctx, b.ID, itemID); err != nil {
			return err
		}
		kept := b.Items[:0]
		for _, it := range b.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		b.Items = kept
		b.Recalculate()
		b.UpdatedAt = uc.now()
		if err := repos.Bills.UpdateDraft(ctx, b); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewBillResponse(bill), nil
}

// UpdateDraft cambia cliente, descuento, impuesto o método de pago de un borrador.
func (uc *BillUseCase) UpdateDraft(ctx context.Context, org tenant.ID, billID string, in dto.UpdateBillRequest) (*dto.BillResponse, error) {
	if in.DiscountAmount != nil && !entity.ValidAmount(*in.DiscountAmount) {
		return nil, domain.ErrInvalidInput
	}
	if in.TaxAmount != nil && !entity.ValidAmount(*in.TaxAmount) {
		return nil, domain.ErrInvalidInput
	}
	if in.PaymentMethod != nil && !entity.ValidPaymentMethod(*in.PaymentMethod) {
		return nil, domain.ErrInvalidInput
	}

	var bill *entity.Bill
	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.IsFinalized() {
			return domain.ErrBillFinalized
		}
		if in.CustomerID != nil {
			id := strings.TrimSpace(*in.CustomerID)
			if id != "" {
				if _, err := repos.Customers.GetByID(ctx, id); err != nil {
					return err
				}
			}
			b.CustomerID = id
		}
		if in.DiscountAmount != nil {
			b.DiscountAmount = *in.DiscountAmount
		}
		if in.TaxAmount != nil {
			b.TaxAmount = *in.TaxAmount
		}
		if in.PaymentMethod != nil {
			b.PaymentMethod = *in.PaymentMethod
		}
		b.Recalculate()
		b.UpdatedAt = uc.now()
		if err := repos.Bills.UpdateDraft(ctx, b); err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewBillResponse(bill), nil
}

// DeleteDraft elimina un borrador con sus ítems. Las facturas finalizadas no se borran nunca.
func (uc *BillUseCase) DeleteDraft(ctx context.Context, org tenant.ID, billID string) error {
	return uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		b, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.IsFinalized() {
			return domain.ErrBillFinalized
		}
		return repos.Bills.DeleteDraft(ctx, b.ID)
	})
}

// Finalize cierra la factura y descuenta el stock de todas sus líneas en una sola transacción:
// o se confirman todos los descuentos y el cierre, o nada.
func (uc *BillUseCase) Finalize(ctx context.Context, org tenant.ID, billID, finalizedBy string) (*dto.BillResponse, error) {
	var bill *entity.Bill
	var touched []*entity.Product

	err := uc.store.RunInTx(ctx, org, func(ctx context.Context, repos repository.Repositories) error {
		// 1) Bloquear la cabecera: un Finalize repetido espera y luego ve finalized_at.
		b, err := repos.Bills.GetForUpdate(ctx, billID)
		if err != nil {
			return err
		}
		if b.IsFinalized() {
			return domain.ErrBillFinalized
		}
		if len(b.Items) == 0 {
			return domain.ErrEmptyBill
		}
		b.Recalculate()
		if b.FinalAmount.IsNegative() {
			return fmt.Errorf("%w: el descuento supera el total de la factura", domain.ErrInvalidInput)
		}

		// 2) Bloquear productos en orden ascendente de id (LockForUpdate ordena).
		ids := make([]string, 0, len(b.Items))
		for _, it := range b.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := repos.Products.LockForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		// 3) Re-validar contra el stock actual, acumulando por producto, en el orden de los ítems.
		remaining := make(map[string]int64, len(products))
		for id, p := range products {
			remaining[id] = p.QuantityInStock
		}
		for _, it := range b.Items {
			if it.Quantity > remaining[it.ProductID] {
				return &domain.StockValidationError{
					ProductID: it.ProductID,
					Requested: it.Quantity,
					Available: remaining[it.ProductID],
				}
			}
			remaining[it.ProductID] -= it.Quantity
		}

		// 4) Descontar cada línea con el mismo primitivo del libro de stock.
		for _, it := range b.Items {
			if _, err := uc.ledger.StockOutInTx(ctx, repos, products[it.ProductID], it.Quantity,
				entity.ReferenceSale, b.ID, "factura "+b.BillNumber); err != nil {
				return err
			}
		}

		// 5) Cerrar la factura (la sentencia exige finalized_at IS NULL).
		now := uc.now()
		b.FinalizedAt = &now
		b.FinalizedBy = finalizedBy
		b.UpdatedAt = now
		if err := repos.Bills.MarkFinalized(ctx, b); err != nil {
			return err
		}

		bill = b
		touched = touched[:0]
		for _, id := range sortedKeys(products) {
			touched = append(touched, products[id])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("org_id", org.String()).
		Str("bill_id", bill.ID).
		Str("bill_number", bill.BillNumber).
		Int("items", len(bill.Items)).
		Str("final_amount", bill.FinalAmount.StringFixed(2)).
		Msg("factura finalizada")
	uc.ledger.NotifyIfLow(ctx, org, touched...)
	return dto.NewBillResponse(bill), nil
}

func sortedKeys(m map[string]*entity.Product) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

