package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// MovementRepository puerto del log append-only de movimientos.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
	// ReservedDistribution reconstruye la reserva vigente del dueño por bin:
	// suma con signo reserve(+) / release(-) / pick(-) / invoice_sale(-) de los
	// movimientos etiquetados con ese dueño. Clave: bin_id.
	ReservedDistribution(ctx context.Context, owner entity.OwnerRef, productID string) (map[string]int64, error)
}
