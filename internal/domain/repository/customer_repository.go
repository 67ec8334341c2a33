package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// CustomerRepository puerto de clientes del taller.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Customer, error)
}
