package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/inventory"
)

// InventoryHandler movimientos del libro de stock.
type InventoryHandler struct {
	uc *inventory.LedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.LedgerUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

func (h *InventoryHandler) movement(c *fiber.Ctx, apply func(inventory.StockInput) (*dto.StockMovementResponse, error)) error {
	var in dto.StockMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := apply(inventory.StockInput{
		ProductID:     c.Params("productId"),
		Quantity:      in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// StockIn godoc
// @Summary      Entrada de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        productId  path  string  true  "ID del producto"
// @Param        body  body  dto.StockMovementRequest  true  "Movimiento"
// @Success      201  {object}  dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/in [post]
func (h *InventoryHandler) StockIn(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.movement(c, func(in inventory.StockInput) (*dto.StockMovementResponse, error) {
		return h.uc.StockIn(c.UserContext(), org, in)
	})
}

// StockOut godoc
// @Summary      Salida de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        productId  path  string  true  "ID del producto"
// @Param        body  body  dto.StockMovementRequest  true  "Movimiento"
// @Success      201  {object}  dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/out [post]
func (h *InventoryHandler) StockOut(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.movement(c, func(in inventory.StockInput) (*dto.StockMovementResponse, error) {
		return h.uc.StockOut(c.UserContext(), org, in)
	})
}

// Adjust godoc
// @Summary      Ajuste de stock con delta firmado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        productId  path  string  true  "ID del producto"
// @Param        body  body  dto.StockAdjustmentRequest  true  "Ajuste"
// @Success      201  {object}  dto.StockMovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.StockAdjustmentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Adjust(c.UserContext(), org, inventory.AdjustInput{
		ProductID: c.Params("productId"),
		Delta:     in.Delta,
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transactions godoc
// @Summary      Historial de movimientos del producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/{productId}/transactions [get]
func (h *InventoryHandler) Transactions(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}
	out, err := h.uc.ListTransactions(c.UserContext(), org, c.Params("productId"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
