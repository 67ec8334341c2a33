package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// SerialRepository puerto del tracker de unidades serializadas.
type SerialRepository interface {
	// GetForUpdate devuelve el serial bloqueado o nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.SerialItem, error)
	GetBySerialForUpdate(ctx context.Context, productID, serial string) (*entity.SerialItem, error)
	// ListByIDsForUpdate bloquea en orden (product_id, id) ascendente.
	ListByIDsForUpdate(ctx context.Context, ids []string) ([]*entity.SerialItem, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.SerialItem, error)
	Create(ctx context.Context, s *entity.SerialItem) error
	Update(ctx context.Context, s *entity.SerialItem) error
	// UpsertAvailable registra (o reactiva) un serial como disponible en un bin,
	// usado en recepciones de compra y registro manual.
	UpsertAvailable(ctx context.Context, productID, serial, binID string) (*entity.SerialItem, error)
	CreateAssignment(ctx context.Context, a *entity.SerialAssignment) error
	// LatestAssignment última asignación del par (serial, parte) o nil.
	LatestAssignment(ctx context.Context, serialItemID, workOrderPartID string) (*entity.SerialAssignment, error)
}
