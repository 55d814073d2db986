// Package tenant resuelve el identificador de organización (org_id) de una petición ya autenticada.
// El resto del núcleo confía en el valor sin volver a validarlo.
package tenant

import (
	"context"
	"strings"

	"github.com/jhoicas/retail-core/internal/domain"
)

// ID identificador de la organización dueña de los datos.
type ID string

// String devuelve el valor crudo.
func (id ID) String() string { return string(id) }

// IsZero indica si el ID está vacío.
func (id ID) IsZero() bool { return id == "" }

// Parse normaliza el valor recibido del middleware de autenticación.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrMissingTenantContext
	}
	return ID(s), nil
}

// Require falla rápido si el ID está vacío (error de programación, no de negocio).
func Require(id ID) error {
	if id.IsZero() {
		return domain.ErrMissingTenantContext
	}
	return nil
}

type ctxKey struct{}

// WithID guarda el org_id en el contexto.
func WithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext recupera el org_id; ErrMissingTenantContext si no existe.
func FromContext(ctx context.Context) (ID, error) {
	id, _ := ctx.Value(ctxKey{}).(ID)
	if id.IsZero() {
		return "", domain.ErrMissingTenantContext
	}
	return id, nil
}
