package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/inventory"
	"github.com/jhoicas/retail-core/internal/application/usecase"
)

// ProductHandler catálogo de productos y consultas de stock bajo / vencimiento.
type ProductHandler struct {
	uc     *usecase.ProductUseCase
	ledger *inventory.LedgerUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase, ledger *inventory.LedgerUseCase) *ProductHandler {
	return &ProductHandler{uc: uc, ledger: ledger}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201  {object}  dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), org, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), org, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBySKU godoc
// @Summary      Obtener producto por SKU
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        sku  path  string  true  "SKU"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/sku/{sku} [get]
func (h *ProductHandler) GetBySKU(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetBySKU(c.UserContext(), org, c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.ProductListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), org, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Archive godoc
// @Summary      Archivar producto (borrado lógico)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Archive(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Archive(c.UserContext(), org, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LowStock godoc
// @Summary      Productos bajo stock mínimo con cantidad sugerida
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string][]dto.LowStockItemDTO
// @Router       /api/products/low-stock [get]
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.FindLowStock(c.UserContext(), org)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out})
}

// NearExpiry godoc
// @Summary      Productos próximos a vencer
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Días hacia adelante"  default(30)
// @Success      200  {object}  map[string][]dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/near-expiry [get]
func (h *ProductHandler) NearExpiry(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.FindNearExpiry(c.UserContext(), org, c.QueryInt("days", 30))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out})
}
