package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// ReceiptUseCase genera el comprobante PDF de una factura finalizada.
type ReceiptUseCase struct {
	store     ports.Store
	generator ReceiptRenderer
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(store ports.Store, generator ReceiptRenderer) *ReceiptUseCase {
	return &ReceiptUseCase{store: store, generator: generator}
}

// Render recupera factura, cliente, productos y notas crédito y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)   si todo sale bien.
//   - domain.ErrNotFound          si la factura no existe en la organización.
//   - domain.ErrBillNotFinalized  si la factura sigue en borrador.
func (uc *ReceiptUseCase) Render(ctx context.Context, org tenant.ID, billID string) (pdfBytes []byte, filename string, err error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, "", err
	}

	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	bill, err := repos.Bills.GetByID(ctx, billID)
	if err != nil {
		return nil, "", err
	}
	if !bill.IsFinalized() {
		return nil, "", domain.ErrBillNotFinalized
	}

	data := ReceiptData{Bill: bill, CreditedTotal: decimal.Zero}

	// ── 2. Cliente (opcional) ─────────────────────────────────────────────────
	if bill.CustomerID != "" {
		customer, cErr := repos.Customers.GetByID(ctx, bill.CustomerID)
		if cErr != nil && !errors.Is(cErr, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("receipt: obtener cliente: %w", cErr)
		}
		data.Customer = customer
	}

	// ── 3. Líneas + nombre de producto ────────────────────────────────────────
	data.Lines = make([]ReceiptLine, 0, len(bill.Items))
	for _, it := range bill.Items {
		line := ReceiptLine{BillItem: *it, ProductName: "Producto " + it.ProductID}
		if p, pErr := repos.Products.GetByID(ctx, it.ProductID); pErr == nil {
			line.SKU = p.SKU
			line.ProductName = p.Name
		}
		data.Lines = append(data.Lines, line)
	}

	// ── 4. Notas crédito ──────────────────────────────────────────────────────
	data.CreditNotes, err = repos.CreditNotes.ListByBill(ctx, bill.ID)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: obtener notas crédito: %w", err)
	}
	for _, n := range data.CreditNotes {
		data.CreditedTotal = data.CreditedTotal.Add(n.Amount)
	}

	// ── 5. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.RenderReceipt(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("comprobante_%s.pdf", bill.BillNumber), nil
}
