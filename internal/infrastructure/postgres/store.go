package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
	"github.com/jhoicas/retail-core/pkg/config"
)

var _ ports.Store = (*Store)(nil)

// rollbackTimeout tope del Rollback; usa un contexto propio porque el de la tx puede estar vencido.
const rollbackTimeout = 2 * time.Second

// txOptions READ COMMITTED: SELECT ... FOR UPDATE espera el lock y relee la última versión confirmada.
// La guarda del UPDATE y el CHECK de products sostienen stock >= 0.
var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// Store implementa ports.Store sobre un pool pgx.
// Cada transacción corre en READ COMMITTED con locks de fila y timeouts de lock y de sentencia acotados.
type Store struct {
	pool        *pgxpool.Pool
	txTimeout   time.Duration
	lockTimeout time.Duration
}

// NewStore construye el Store con los timeouts de la configuración.
func NewStore(pool *pgxpool.Pool, cfg config.DBConfig) *Store {
	s := &Store{pool: pool, txTimeout: cfg.TxTimeout, lockTimeout: cfg.LockTimeout}
	if s.txTimeout <= 0 {
		s.txTimeout = 5 * time.Second
	}
	if s.lockTimeout <= 0 || s.lockTimeout > s.txTimeout {
		s.lockTimeout = s.txTimeout
	}
	return s
}

// Scope repositorios atados al pool y a la organización.
func (s *Store) Scope(org tenant.ID) (repository.Repositories, error) {
	if err := tenant.Require(org); err != nil {
		return repository.Repositories{}, err
	}
	return newRepositories(s.pool, org), nil
}

// RunInTx abre la transacción, fija los timeouts locales y ejecuta fn.
// Commit si fn retorna nil; Rollback en cualquier otro caso (incluido panic).
func (s *Store) RunInTx(ctx context.Context, org tenant.ID, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := tenant.Require(org); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, txOptions)
	if err != nil {
		return mapError(err, "begin tx")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		rbCtx, rbCancel := context.WithTimeout(context.Background(), rollbackTimeout)
		defer rbCancel()
		_ = tx.Rollback(rbCtx)
	}()

	if err := s.setLocalTimeouts(ctx, tx); err != nil {
		return mapError(err, "set timeouts")
	}
	// Los repositorios ya traducen sus errores; aquí solo se cubre el vencimiento del contexto.
	if err := fn(ctx, newRepositories(tx, org)); err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrTransientStorage) {
			return transient("tx", err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit")
	}
	committed = true
	return nil
}

func (s *Store) setLocalTimeouts(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`SELECT set_config('lock_timeout', $1, true), set_config('statement_timeout', $2, true)`,
		millis(s.lockTimeout), millis(s.txTimeout))
	return err
}

// Ping verifica la conexión (health check).
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapError(err, "ping")
	}
	return nil
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func newRepositories(q Querier, org tenant.ID) repository.Repositories {
	o := org.String()
	return repository.Repositories{
		Products:     NewProductRepository(q, o),
		Transactions: NewInventoryTransactionRepository(q, o),
		Bills:        NewBillRepository(q, o),
		CreditNotes:  NewCreditNoteRepository(q, o),
		Customers:    NewCustomerRepository(q, o),
	}
}

// noRows indica si el error es pgx.ErrNoRows.
func noRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
