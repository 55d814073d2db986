package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/retail-core/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeInvalidTextRepr      = "22P02"
	codeNumericOutOfRange    = "22003"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// stockCheckConstraint nombre del CHECK (quantity_in_stock >= 0) en schema.sql.
const stockCheckConstraint = "products_quantity_non_negative"

// mapError traduce errores de pgx/Postgres a la taxonomía del dominio.
// Los errores ya traducidos (sentinelas de dominio) pasan sin cambios.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transient(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.ErrDuplicate
		case codeCheckViolation:
			if pgErr.ConstraintName == stockCheckConstraint {
				return domain.ErrNegativeStockViolation
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		case codeNumericOutOfRange:
			return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, op, pgErr.Message)
		case codeForeignKeyViolation, codeInvalidTextRepr:
			return domain.ErrNotFound
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
			return transient(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return transient(op, err)
	}
	// Algunos wrappers pierden el tipo; último recurso por texto.
	if strings.Contains(err.Error(), codeUniqueViolation) {
		return domain.ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrTransientStorage, op, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrDuplicate, domain.ErrInvalidInput,
		domain.ErrNegativeStockViolation, domain.ErrBillFinalized,
		domain.ErrTransientStorage, domain.ErrMissingTenantContext,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validID los ids son UUID; cualquier otro valor no puede existir.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// nullable convierte "" en NULL para columnas opcionales.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
