package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/usecase"
)

// CustomerHandler clientes de la organización.
type CustomerHandler struct {
	uc *usecase.CustomerUseCase
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *usecase.CustomerUseCase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

// Create godoc
// @Summary      Crear cliente
// @Tags         customers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreateCustomerRequest  true  "Datos del cliente"
// @Success      201  {object}  dto.CustomerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CreateCustomerRequest
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
// @Summary      Obtener cliente por ID
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del cliente"
// @Success      200  {object}  dto.CustomerResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
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

// List godoc
// @Summary      Listar clientes (code filtra por código exacto)
// @Tags         customers
// @Security     Bearer
// @Produce      json
// @Param        code  query  string  false  "Código del cliente"
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	org, err := OrgID(c)
	if err != nil {
		return writeError(c, err)
	}
	if code := c.Query("code"); code != "" {
		out, err := h.uc.GetByCode(c.UserContext(), org, code)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"items": []*dto.CustomerResponse{out}})
	}
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), org, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
