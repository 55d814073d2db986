package ports

import (
	"context"

	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// Store entrega repositorios con alcance de organización.
// Ambos métodos fallan con ErrMissingTenantContext antes de tocar el almacenamiento si org está vacío.
type Store interface {
	// Scope devuelve repositorios de solo lectura atados al pool.
	Scope(org tenant.ID) (repository.Repositories, error)
	// RunInTx ejecuta fn en una transacción con timeout acotado; Commit si fn retorna nil, Rollback si no.
	RunInTx(ctx context.Context, org tenant.ID, fn func(ctx context.Context, repos repository.Repositories) error) error
}
