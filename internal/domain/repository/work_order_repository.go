package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// WorkOrderRepository puerto de órdenes de trabajo y sus partes.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *entity.WorkOrder) error
	// GetByID devuelve la orden con sus partes, o nil.
	GetByID(ctx context.Context, id string) (*entity.WorkOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.WorkOrder, error)
	GetPartForUpdate(ctx context.Context, partID string) (*entity.WorkOrderPart, error)
	UpdatePart(ctx context.Context, p *entity.WorkOrderPart) error
	UpdateStatus(ctx context.Context, id, status string) error
	AppendStatusLog(ctx context.Context, l *entity.WorkOrderStatusLog) error
	ListStatusLog(ctx context.Context, workOrderID string) ([]*entity.WorkOrderStatusLog, error)
}
