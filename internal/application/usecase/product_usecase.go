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

// ProductUseCase catálogo de productos. Archivar nunca borra: deja el
// producto inactivo y da de baja sus existencias en la misma unidad de trabajo.
type ProductUseCase struct {
	tx    stock.TxRunner
	coord *stock.Coordinator
	bus   stock.Publisher
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(tx stock.TxRunner, coord *stock.Coordinator, bus stock.Publisher) *ProductUseCase {
	return &ProductUseCase{tx: tx, coord: coord, bus: bus}
}

// Create registra un producto nuevo. El SKU es único por tenant.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*entity.Product, error) {
	if in.SKU == "" || in.Name == "" || in.ReorderPoint < 0 || in.LeadTimeDays < 0 || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Product
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		if existing, err := r.Products.GetBySKU(ctx, in.SKU); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDuplicate
		}
		now := time.Now()
		p := &entity.Product{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			SKU:            in.SKU,
			Name:           in.Name,
			Description:    in.Description,
			UnitMeasure:    in.UnitMeasure,
			TrackSerial:    in.TrackSerial,
			ReorderPoint:   in.ReorderPoint,
			LeadTimeDays:   in.LeadTimeDays,
			UnitPrice:      in.UnitPrice,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Products.Create(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// GetByID devuelve el producto del tenant.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

// List devuelve la página de productos del tenant.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) ([]*entity.Product, error) {
	page.DefaultPage()
	var out []*entity.Product
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Products.List(ctx, page.Limit, page.Offset)
		return err
	})
	return out, err
}

// Update edita los campos mutables del producto (TrackSerial no se cambia).
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*entity.Product, error) {
	var out *entity.Product
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.UnitMeasure != nil {
			p.UnitMeasure = *in.UnitMeasure
		}
		if in.ReorderPoint != nil {
			if *in.ReorderPoint < 0 {
				return domain.ErrInvalidInput
			}
			p.ReorderPoint = *in.ReorderPoint
		}
		if in.LeadTimeDays != nil {
			if *in.LeadTimeDays < 0 {
				return domain.ErrInvalidInput
			}
			p.LeadTimeDays = *in.LeadTimeDays
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.IsNegative() {
				return domain.ErrInvalidInput
			}
			p.UnitPrice = *in.UnitPrice
		}
		if err := r.Products.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// Archive desactiva el producto y da de baja todas sus existencias con
// movimientos de ajuste. El historial queda intacto.
func (uc *ProductUseCase) Archive(ctx context.Context, id string) error {
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if !p.Active {
			return nil
		}
		if err := uc.coord.WriteOffProduct(ctx, r, p.ID); err != nil {
			return err
		}
		p.Active = false
		return r.Products.Update(ctx, p)
	})
	if err != nil {
		return err
	}
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           stock.KindAdjust,
		Refs:           map[string]string{"product_id": id},
		Hint:           "archive",
	})
	return nil
}
