package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// BinRepository puerto de bins (ubicaciones físicas). Nunca se auto-borran.
type BinRepository interface {
	Create(ctx context.Context, b *entity.Bin) error
	GetByID(ctx context.Context, id string) (*entity.Bin, error)
	GetByCode(ctx context.Context, code string) (*entity.Bin, error)
	List(ctx context.Context) ([]*entity.Bin, error)
}
