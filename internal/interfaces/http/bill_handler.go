package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/billing"
	"github.com/jhoicas/retail-core/internal/application/dto"
)

// BillHandler ciclo de vida de la factura, notas crédito y comprobante PDF.
type BillHandler struct {
	bills   *billing.BillUseCase
	credits *billing.CreditNoteUseCase
	receipt *billing.ReceiptUseCase
}

// NewBillHandler construye el handler.
func NewBillHandler(bills *billing.BillUseCase, credits *billing.CreditNoteUseCase, receipt *billing.ReceiptUseCase) *BillHandler {
	return &BillHandler{bills: bills, credits: credits, receipt: receipt}
}

// Create godoc
// @Summary      Crear factura en borrador
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreateBillRequest  true  "Cabecera"
// @Success      201  {object}  dto.BillResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills [post]
func (h *BillHandler) Create(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateBillRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.bills.CreateBill(c.UserContext(), org, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura con ítems
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID de la factura"
// @Success      200  {object}  dto.BillResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [get]
func (h *BillHandler) GetByID(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.bills.GetBill(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/bills [get]
func (h *BillHandler) List(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}
	out, err := h.bills.ListBills(c.UserContext(), org, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Update godoc
// @Summary      Actualizar borrador
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        id    path  string  true  "ID de la factura"
// @Param        body  body  dto.UpdateBillRequest  true  "Campos a cambiar"
// @Success      200  {object}  dto.BillResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [patch]
func (h *BillHandler) Update(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateBillRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.bills.UpdateDraft(c.UserContext(), org, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar borrador
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID de la factura"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [delete]
func (h *BillHandler) Delete(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.bills.DeleteDraft(c.UserContext(), org, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddItem godoc
// @Summary      Agregar ítem a un borrador
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        id    path  string  true  "ID de la factura"
// @Param        body  body  dto.AddBillItemRequest  true  "Producto y cantidad"
// @Success      201  {object}  dto.BillResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/items [post]
func (h *BillHandler) AddItem(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.AddBillItemRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.bills.AddItem(c.UserContext(), org, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RemoveItem godoc
// @Summary      Quitar ítem de un borrador
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID de la factura"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      200  {object}  dto.BillResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/items/{itemId} [delete]
func (h *BillHandler) RemoveItem(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.bills.RemoveItem(c.UserContext(), org, c.Params("id"), c.Params("itemId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Finalize godoc
// @Summary      Finalizar factura y descontar stock
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        id    path  string  true  "ID de la factura"
// @Success      200  {object}  dto.BillResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/finalize [post]
func (h *BillHandler) Finalize(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.bills.Finalize(c.UserContext(), org, c.Params("id"), UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCreditNote godoc
// @Summary      Emitir nota crédito
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        id    path  string  true  "ID de la factura"
// @Param        body  body  dto.CreateCreditNoteRequest  true  "Monto y motivo"
// @Success      201  {object}  dto.CreditNoteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/credit-notes [post]
func (h *BillHandler) CreateCreditNote(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateCreditNoteRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.credits.CreateCreditNote(c.UserContext(), org, c.Params("id"), in.Amount, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListCreditNotes godoc
// @Summary      Notas crédito de la factura
// @Tags         bills
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID de la factura"
// @Success      200  {object}  dto.CreditNoteListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/credit-notes [get]
func (h *BillHandler) ListCreditNotes(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.credits.ListCreditNotes(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Recibo PDF de una factura finalizada
// @Tags         bills
// @Security     Bearer
// @Produce      application/pdf
// @Param        id    path  string  true  "ID de la factura"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/receipt.pdf [get]
func (h *BillHandler) Receipt(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	pdf, filename, err := h.receipt.Render(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(pdf)
}
