package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-core/internal/application/dto"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/domain"
	"github.com/jhoicas/retail-core/internal/domain/entity"
	"github.com/jhoicas/retail-core/internal/domain/tenant"
)

// CustomerUseCase casos de uso para clientes (facturación).
type CustomerUseCase struct {
	store ports.Store
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(store ports.Store) *CustomerUseCase {
	return &CustomerUseCase{store: store}
}

// Create crea un nuevo cliente. Code (teléfono o documento) es único por organización.
func (uc *CustomerUseCase) Create(ctx context.Context, org tenant.ID, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Code == "" {
		return nil, domain.ErrInvalidInput
	}
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	if existing, _ := repos.Customers.GetByCode(ctx, in.Code); existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now().UTC()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		OrgID:     org.String(),
		Code:      in.Code,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	resp := dto.NewCustomerResponse(customer)
	return &resp, nil
}

// GetByID obtiene un cliente por ID.
func (uc *CustomerUseCase) GetByID(ctx context.Context, org tenant.ID, id string) (*dto.CustomerResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	c, err := repos.Customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCustomerResponse(c)
	return &resp, nil
}

// GetByCode obtiene un cliente por teléfono/documento.
func (uc *CustomerUseCase) GetByCode(ctx context.Context, org tenant.ID, code string) (*dto.CustomerResponse, error) {
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	c, err := repos.Customers.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	resp := dto.NewCustomerResponse(c)
	return &resp, nil
}

// List lista clientes de la organización.
func (uc *CustomerUseCase) List(ctx context.Context, org tenant.ID, page dto.PageRequest) ([]dto.CustomerResponse, error) {
	page.DefaultPage()
	repos, err := uc.store.Scope(org)
	if err != nil {
		return nil, err
	}
	list, err := repos.Customers.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.NewCustomerResponse(c))
	}
	return out, nil
}
