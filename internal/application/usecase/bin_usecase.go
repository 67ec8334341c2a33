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

// BinUseCase catálogo de bins. Los bins no se borran: los movimientos
// históricos los referencian.
type BinUseCase struct {
	tx stock.TxRunner
}

// NewBinUseCase construye el caso de uso.
func NewBinUseCase(tx stock.TxRunner) *BinUseCase {
	return &BinUseCase{tx: tx}
}

// Create registra un bin. El código se normaliza y es único por tenant.
func (uc *BinUseCase) Create(ctx context.Context, in dto.CreateBinRequest) (*entity.Bin, error) {
	code := entity.NormalizeBinCode(in.Code)
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Bin
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		if existing, err := r.Bins.GetByCode(ctx, code); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDuplicate
		}
		b := &entity.Bin{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			Code:           code,
			Location:       in.Location,
			CreatedAt:      time.Now(),
		}
		if err := r.Bins.Create(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// List devuelve los bins del tenant ordenados por código.
func (uc *BinUseCase) List(ctx context.Context) ([]*entity.Bin, error) {
	var out []*entity.Bin
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Bins.List(ctx)
		return err
	})
	return out, err
}
