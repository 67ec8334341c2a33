package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// SaleRepository puerto de ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, s *entity.Sale) error
	// GetByID devuelve la venta con sus ítems, o nil.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	Update(ctx context.Context, s *entity.Sale) error
	UpdateItem(ctx context.Context, i *entity.SaleItem) error
}
