package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Store aplica las primitivas guardadas del almacén de cantidades sobre
// niveles ya bloqueados dentro de la unidad de trabajo.
//
// Garantías: toda primitiva falla con ErrInsufficientStock si dejaría
// on_hand < 0 u on_hand < reserved, y con ErrInvariantViolation si reserved
// quedaría negativo. Si la primitiva retorna nil, la mutación quedó escrita
// en la tx y participa del commit.
type Store struct {
	r Repos
}

// NewStore construye el store sobre los repos de la transacción en curso.
func NewStore(r Repos) *Store {
	return &Store{r: r}
}

// Ensure crea la fila (producto, bin) en cero si no existe y la devuelve bloqueada.
func (s *Store) Ensure(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	return s.r.Levels.Ensure(ctx, productID, binID)
}

// IncOnHand suma n unidades físicas al nivel.
func (s *Store) IncOnHand(ctx context.Context, lvl *entity.QuantityLevel, n int64) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	lvl.OnHand += n
	return s.r.Levels.Update(ctx, lvl)
}

// DecOnHand resta n unidades físicas. Nunca deja on_hand < reserved.
func (s *Store) DecOnHand(ctx context.Context, lvl *entity.QuantityLevel, n int64) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	if lvl.OnHand-n < 0 || lvl.OnHand-n < lvl.Reserved {
		return domain.ErrInsufficientStock
	}
	lvl.OnHand -= n
	return s.r.Levels.Update(ctx, lvl)
}

// IncReserved aparta n unidades. Nunca deja reserved > on_hand.
func (s *Store) IncReserved(ctx context.Context, lvl *entity.QuantityLevel, n int64) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	if lvl.Reserved+n > lvl.OnHand {
		return domain.ErrInsufficientStock
	}
	lvl.Reserved += n
	return s.r.Levels.Update(ctx, lvl)
}

// DecReserved libera n unidades apartadas. Un reserved negativo indica bug o
// anomalía concurrente: ErrInvariantViolation, nunca se reintenta en silencio.
func (s *Store) DecReserved(ctx context.Context, lvl *entity.QuantityLevel, n int64) error {
	if n <= 0 {
		return domain.ErrInvalidInput
	}
	if lvl.Reserved-n < 0 {
		return domain.ErrInvariantViolation
	}
	lvl.Reserved -= n
	return s.r.Levels.Update(ctx, lvl)
}

// RecordMove agrega el movimiento inmutable en la misma tx que la mutación del nivel.
func (s *Store) RecordMove(ctx context.Context, m *entity.Movement) error {
	if m.Qty <= 0 || (m.FromBinID == nil && m.ToBinID == nil) {
		return domain.ErrInvalidInput
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return s.r.Movements.Create(ctx, m)
}
