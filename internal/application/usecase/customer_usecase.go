package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// CustomerUseCase clientes del taller.
type CustomerUseCase struct {
	tx stock.TxRunner
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(tx stock.TxRunner) *CustomerUseCase {
	return &CustomerUseCase{tx: tx}
}

// Create registra un cliente.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*entity.Customer, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Customer
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		now := time.Now()
		c := &entity.Customer{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			Name:           in.Name,
			Email:          in.Email,
			Phone:          in.Phone,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Customers.Create(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// GetByID devuelve el cliente del tenant.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		c, err := r.Customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		out = c
		return nil
	})
	return out, err
}

// List devuelve la página de clientes del tenant.
func (uc *CustomerUseCase) List(ctx context.Context, page dto.PageRequest) ([]*entity.Customer, error) {
	page.DefaultPage()
	var out []*entity.Customer
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Customers.List(ctx, page.Limit, page.Offset)
		return err
	})
	return out, err
}
