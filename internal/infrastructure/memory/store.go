// Package memory implementa ports.Store en memoria. Se usa en tests y con DB_DRIVER=memory.
// RunInTx es serializable: mantiene el mutex del store durante todo el callback y trabaja sobre
// una copia del estado que solo se publica si el callback retorna nil.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

type state struct {
	products     map[string]*entity.Product
	transactions []*entity.InventoryTransaction
	bills        map[string]*entity.Bill
	billSeq      map[string]int64 // org|YYYYMMDD -> último consecutivo
	creditNotes  []*entity.CreditNote
	customers    map[string]*entity.Customer
}

func newState() *state {
	return &state{
		products:  make(map[string]*entity.Product),
		bills:     make(map[string]*entity.Bill),
		billSeq:   make(map[string]int64),
		customers: make(map[string]*entity.Customer),
	}
}

// clone copia profunda; los registros append-only se comparten porque nunca se mutan.
func (s *state) clone() *state {
	c := &state{
		products:     make(map[string]*entity.Product, len(s.products)),
		transactions: append([]*entity.InventoryTransaction(nil), s.transactions...),
		bills:        make(map[string]*entity.Bill, len(s.bills)),
		billSeq:      make(map[string]int64, len(s.billSeq)),
		creditNotes:  append([]*entity.CreditNote(nil), s.creditNotes...),
		customers:    make(map[string]*entity.Customer, len(s.customers)),
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range s.bills {
		c.bills[k] = copyBill(v)
	}
	for k, v := range s.billSeq {
		c.billSeq[k] = v
	}
	for k, v := range s.customers {
		cp := *v
		c.customers[k] = &cp
	}
	return c
}

// Store almacén en memoria multi-organización.
type Store struct {
	mu        sync.Mutex
	st        *state
	txTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithTxTimeout acota la duración de RunInTx (igual que el adaptador Postgres).
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) { s.txTimeout = d }
}

// New crea un store vacío.
func New(opts ...Option) *Store {
	s := &Store{st: newState()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scope devuelve repositorios atados a org; cada llamada toma el mutex del store.
func (s *Store) Scope(org tenant.ID) (repository.Repositories, error) {
	if err := tenant.Require(org); err != nil {
		return repository.Repositories{}, err
	}
	return newRepositories(org.String(), func() (*state, func()) {
		s.mu.Lock()
		return s.st, s.mu.Unlock
	}), nil
}

// RunInTx ejecuta fn con acceso exclusivo sobre una copia del estado.
func (s *Store) RunInTx(ctx context.Context, org tenant.ID, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if err := tenant.Require(org); err != nil {
		return err
	}
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return transient(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	repos := newRepositories(org.String(), func() (*state, func()) {
		return work, func() {}
	})
	if err := fn(ctx, repos); err != nil {
		return err
	}
	// Un contexto cancelado durante el callback descarta el trabajo, como un rollback.
	if err := ctx.Err(); err != nil {
		return transient(err)
	}
	s.st = work
	return nil
}

func transient(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrTransientStorage, err)
}

func copyProduct(p *entity.Product) *entity.Product {
	cp := *p
	if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		cp.ExpiryDate = &d
	}
	return &cp
}

func copyBill(b *entity.Bill) *entity.Bill {
	cp := *b
	if b.FinalizedAt != nil {
		t := *b.FinalizedAt
		cp.FinalizedAt = &t
	}
	cp.Items = make([]*entity.BillItem, 0, len(b.Items))
	for _, it := range b.Items {
		ic := *it
		cp.Items = append(cp.Items, &ic)
	}
	return &cp
}
