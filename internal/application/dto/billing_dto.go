package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-core/internal/domain/entity"
)

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Code  string `json:"code" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"max=30"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CreateBillRequest body para POST /api/bills. La factura nace en borrador y sin ítems.
type CreateBillRequest struct {
	BillNumber     string          `json:"bill_number,omitempty" validate:"max=50"`
	CustomerID     string          `json:"customer_id,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	PaymentMethod  string          `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card upi online credit"`
}

// UpdateBillRequest body para PATCH /api/bills/:id (solo borradores).
type UpdateBillRequest struct {
	CustomerID     *string          `json:"customer_id,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	TaxAmount      *decimal.Decimal `json:"tax_amount,omitempty"`
	PaymentMethod  *string          `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card upi online credit"`
}

// AddBillItemRequest body para POST /api/bills/:id/items.
type AddBillItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateCreditNoteRequest body para POST /api/bills/:id/credit-notes.
type CreateCreditNoteRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

// BillItemResponse línea en la respuesta.
type BillItemResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// BillResponse factura con detalle.
type BillResponse struct {
	ID             string             `json:"id"`
	OrgID          string             `json:"org_id"`
	BillNumber     string             `json:"bill_number"`
	CustomerID     string             `json:"customer_id,omitempty"`
	Status         string             `json:"status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	FinalAmount    decimal.Decimal    `json:"final_amount"`
	PaymentMethod  string             `json:"payment_method"`
	FinalizedAt    *time.Time         `json:"finalized_at,omitempty"`
	FinalizedBy    string             `json:"finalized_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Items          []BillItemResponse `json:"items"`
}

// CreditNoteResponse nota crédito en respuestas.
type CreditNoteResponse struct {
	ID        string          `json:"id"`
	BillID    string          `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreditNoteListResponse notas de una factura con el acumulado y el saldo acreditable.
type CreditNoteListResponse struct {
	BillID        string               `json:"bill_id"`
	FinalAmount   decimal.Decimal      `json:"final_amount"`
	CreditedTotal decimal.Decimal      `json:"credited_total"`
	Remaining     decimal.Decimal      `json:"remaining"`
	Items         []CreditNoteResponse `json:"items"`
}

// NewBillResponse convierte la entidad en DTO.
func NewBillResponse(b *entity.Bill) *BillResponse {
	resp := &BillResponse{
		ID:             b.ID,
		OrgID:          b.OrgID,
		BillNumber:     b.BillNumber,
		CustomerID:     b.CustomerID,
		Status:         string(b.Status()),
		TotalAmount:    b.TotalAmount,
		DiscountAmount: b.DiscountAmount,
		TaxAmount:      b.TaxAmount,
		FinalAmount:    b.FinalAmount,
		PaymentMethod:  b.PaymentMethod,
		FinalizedAt:    b.FinalizedAt,
		FinalizedBy:    b.FinalizedBy,
		CreatedAt:      b.CreatedAt,
		Items:          make([]BillItemResponse, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, BillItemResponse{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return resp
}

// NewCreditNoteResponse convierte la entidad en DTO.
func NewCreditNoteResponse(n *entity.CreditNote) CreditNoteResponse {
	return CreditNoteResponse{
		ID:        n.ID,
		BillID:    n.BillID,
		Amount:    n.Amount,
		Reason:    n.Reason,
		CreatedAt: n.CreatedAt,
	}
}

// NewCustomerResponse convierte la entidad en DTO.
func NewCustomerResponse(c *entity.Customer) CustomerResponse {
	return CustomerResponse{
		ID:    c.ID,
		OrgID: c.OrgID,
		Code:  c.Code,
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
	}
}
