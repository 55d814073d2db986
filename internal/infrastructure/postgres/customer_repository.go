package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `id, org_id, code, name, email, phone, created_at, updated_at`

// CustomerRepo implementación de CustomerRepository sobre PostgreSQL.
type CustomerRepo struct {
	q   Querier
	org string
}

// NewCustomerRepository construye el adaptador atado a una organización.
func NewCustomerRepository(q Querier, org string) *CustomerRepo {
	return &CustomerRepo{q: q, org: org}
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	if err := row.Scan(&c.ID, &c.OrgID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persiste un cliente. Código repetido en la organización -> ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `INSERT INTO customers (` + customerColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, c.ID, r.org, c.Code, c.Name, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapError(err, "insert customer")
	}
	c.OrgID = r.org
	return nil
}

// GetByID obtiene un cliente de la organización.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	c, err := scanCustomer(r.q.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 AND id = $2`, r.org, id))
	if err != nil {
		return nil, mapError(err, "get customer")
	}
	return c, nil
}

// GetByCode obtiene un cliente por código (teléfono o documento).
func (r *CustomerRepo) GetByCode(ctx context.Context, code string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 AND code = $2`, r.org, code))
	if err != nil {
		return nil, mapError(err, "get customer by code")
	}
	return c, nil
}

// List clientes ordenados por nombre.
func (r *CustomerRepo) List(ctx context.Context, limit, offset int) ([]*entity.Customer, error) {
	rows, err := r.q.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE org_id = $1
		ORDER BY name, code LIMIT $2 OFFSET $3`, r.org, sqlLimit(limit), offset)
	if err != nil {
		return nil, mapError(err, "list customers")
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, mapError(err, "scan customer")
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list customers")
	}
	return list, nil
}
