package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// ProductRepository puerto del catálogo de productos.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	// GetByID devuelve el producto o nil si no existe en el tenant.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
}
