package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// PurchaseOrderRepository puerto de órdenes de compra y sus líneas.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	// GetByID devuelve la orden con sus líneas, o nil.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	UpdateLine(ctx context.Context, l *entity.PurchaseOrderLine) error
	UpdateStatus(ctx context.Context, id, status string) error
}
