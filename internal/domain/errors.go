package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Todos son resultados esperados de la lógica de negocio; la capa HTTP los traduce a códigos estables.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// Libro de stock
	ErrInvalidQuantity        = errors.New("la cantidad debe ser mayor que cero")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrNegativeStockViolation = errors.New("el ajuste dejaría el stock en negativo")
	ErrInvalidAdjustment      = errors.New("el ajuste no puede ser cero")
	ErrProductArchived        = errors.New("el producto está archivado")

	// Ciclo de vida de la factura
	ErrBillFinalized         = errors.New("la factura ya está finalizada")
	ErrEmptyBill             = errors.New("la factura no tiene ítems")
	ErrStockValidationFailed = errors.New("validación de stock fallida al finalizar")

	// Notas crédito
	ErrBillNotFinalized  = errors.New("la factura aún está en borrador")
	ErrCreditExceedsBill = errors.New("las notas crédito superan el valor final de la factura")

	// Infraestructura
	ErrMissingTenantContext = errors.New("falta el contexto de organización")
	ErrTransientStorage     = errors.New("falla transitoria de almacenamiento, reintentar")
	ErrIdempotencyConflict  = errors.New("solicitud idempotente en curso")
)

// StockValidationError detalla el primer producto que no pasó la re-validación de Finalize.
type StockValidationError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *StockValidationError) Error() string {
	return fmt.Sprintf("%s: producto %s solicita %d, disponible %d",
		ErrStockValidationFailed.Error(), e.ProductID, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrStockValidationFailed).
func (e *StockValidationError) Unwrap() error { return ErrStockValidationFailed }

// IsRetryable indica si el error es transitorio (timeout de lock, conflicto de serialización, conexión).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}
