package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/domain"
)

// errorMapping estado HTTP, código estable y mensaje para el usuario.
type errorMapping struct {
	status  int
	code    string
	message string
}

// errorTable en orden: se usa la primera coincidencia de errors.Is.
var errorTable = []struct {
	target error
	errorMapping
}{
	{domain.ErrMissingTenantContext, errorMapping{fiber.StatusUnauthorized, "MISSING_TENANT", "la petición no tiene organización"}},
	{domain.ErrNotFound, errorMapping{fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"}},
	{domain.ErrInvalidQuantity, errorMapping{fiber.StatusBadRequest, "INVALID_QUANTITY", "la cantidad debe ser mayor que cero"}},
	{domain.ErrInvalidAdjustment, errorMapping{fiber.StatusBadRequest, "INVALID_ADJUSTMENT", "el ajuste no puede ser cero"}},
	{domain.ErrInvalidInput, errorMapping{fiber.StatusBadRequest, "VALIDATION", "datos de entrada inválidos"}},
	{domain.ErrDuplicate, errorMapping{fiber.StatusConflict, "DUPLICATE", "el recurso ya existe"}},
	{domain.ErrInsufficientStock, errorMapping{fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"}},
	{domain.ErrNegativeStockViolation, errorMapping{fiber.StatusConflict, "NEGATIVE_STOCK", "el ajuste dejaría el stock en negativo"}},
	{domain.ErrProductArchived, errorMapping{fiber.StatusConflict, "PRODUCT_ARCHIVED", "el producto está archivado"}},
	{domain.ErrBillFinalized, errorMapping{fiber.StatusConflict, "BILL_FINALIZED", "la factura ya está finalizada"}},
	{domain.ErrEmptyBill, errorMapping{fiber.StatusUnprocessableEntity, "EMPTY_BILL", "la factura no tiene ítems"}},
	{domain.ErrBillNotFinalized, errorMapping{fiber.StatusConflict, "BILL_NOT_FINALIZED", "la factura aún está en borrador"}},
	{domain.ErrCreditExceedsBill, errorMapping{fiber.StatusUnprocessableEntity, "CREDIT_EXCEEDS_BILL", "las notas crédito superan el valor de la factura"}},
	{domain.ErrIdempotencyConflict, errorMapping{fiber.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "hay una solicitud igual en curso"}},
	{domain.ErrTransientStorage, errorMapping{fiber.StatusServiceUnavailable, "TRANSIENT", "servicio ocupado, reintente"}},
}

// writeError traduce cualquier error a una respuesta JSON estable.
// Los errores desconocidos salen como INTERNAL sin exponer el detalle.
func writeError(c *fiber.Ctx, err error) error {
	var sve *domain.StockValidationError
	if errors.As(err, &sve) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "STOCK_VALIDATION_FAILED",
			Message:   "stock insuficiente para uno de los productos de la factura",
			ProductID: sve.ProductID,
		})
	}
	for _, e := range errorTable {
		if !errors.Is(err, e.target) {
			continue
		}
		body := dto.ErrorResponse{Code: e.code, Message: e.message}
		if e.target == domain.ErrTransientStorage {
			body.Retryable = true
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		return c.Status(e.status).JSON(body)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// ErrorHandler para fiber.Config: errores de fiber conservan su estado, el resto pasa por writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
