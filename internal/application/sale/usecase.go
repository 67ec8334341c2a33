// Package sale adapta las ventas al motor de stock: la creación reserva
// (parcial permitido, el faltante queda en backorder), el cierre consume la
// reserva como salida facturada y la cancelación la libera.
package sale

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

// UseCase casos de uso de ventas.
type UseCase struct {
	tx    stock.TxRunner
	coord *stock.Coordinator
	bus   stock.Publisher
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx stock.TxRunner, coord *stock.Coordinator, bus stock.Publisher) *UseCase {
	return &UseCase{tx: tx, coord: coord, bus: bus}
}

// Create registra la venta y reserva stock de inmediato. Queda reserved si
// todas las líneas se cubrieron al completo, backorder si alguna quedó corta.
// Solo productos a granel; los serializados se mueven por su propio ciclo.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateSaleRequest) (*entity.Sale, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Qty <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		now := time.Now()
		s := &entity.Sale{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			Status:         entity.SaleStatusPending,
			Notes:          in.Notes,
			CreatedBy:      tenant.UserID(ctx),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if in.CustomerID != "" {
			c, err := r.Customers.GetByID(ctx, in.CustomerID)
			if err != nil {
				return err
			}
			if c == nil {
				return domain.ErrNotFound
			}
			s.CustomerID = &c.ID
		}
		for _, it := range in.Items {
			prod, err := r.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if prod == nil {
				return domain.ErrNotFound
			}
			if !prod.Active {
				return domain.NewDomainError(domain.CodeProductArchived, "el producto %s está archivado", prod.SKU)
			}
			if prod.TrackSerial {
				return domain.NewDomainError(domain.CodeSerialsRequired,
					"el producto %s es serializado: usar el ciclo de seriales", prod.SKU)
			}
			price := it.UnitPrice
			if price.IsZero() {
				price = prod.UnitPrice
			}
			s.Items = append(s.Items, &entity.SaleItem{
				ID:         uuid.New().String(),
				SaleID:     s.ID,
				ProductID:  it.ProductID,
				QtyOrdered: it.Qty,
				UnitPrice:  price,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		if err := r.Sales.Create(ctx, s); err != nil {
			return err
		}
		for _, item := range s.Items {
			taken, err := uc.coord.Reserve(ctx, r, item.ProductID, item.QtyOrdered,
				entity.OwnerSaleItem(s.ID, item.ID), true)
			if err != nil {
				return err
			}
			item.QtyReserved = taken
			if err := r.Sales.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		uc.refreshStatus(s, now)
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		out, _ = r.Sales.GetByID(ctx, s.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindSaleCreated, out.ID)
	return out, nil
}

// GetByID devuelve la venta con sus líneas.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		s, err := r.Sales.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		out = s
		return nil
	})
	return out, err
}

// Reserve reintenta cubrir el faltante de una venta en backorder (se invoca
// manualmente o tras una recepción de compra).
func (uc *UseCase) Reserve(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		s, err := uc.lockOpenSale(ctx, r, id)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, item := range s.Items {
			missing := item.QtyOrdered - item.QtyReserved - item.QtyShipped
			if missing <= 0 {
				continue
			}
			prod, err := r.Products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if prod != nil && prod.TrackSerial {
				return domain.NewDomainError(domain.CodeSerialsRequired,
					"el producto %s es serializado: usar el ciclo de seriales", prod.SKU)
			}
			taken, err := uc.coord.Reserve(ctx, r, item.ProductID, missing,
				entity.OwnerSaleItem(s.ID, item.ID), true)
			if err != nil {
				return err
			}
			if taken > 0 {
				item.QtyReserved += taken
				if err := r.Sales.UpdateItem(ctx, item); err != nil {
					return err
				}
			}
		}
		uc.refreshStatus(s, now)
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		out, _ = r.Sales.GetByID(ctx, s.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindSaleReserve, id)
	return out, nil
}

// Complete cierra la venta consumiendo toda la reserva como salida facturada.
// Exige todas las líneas reservadas al completo.
func (uc *UseCase) Complete(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		s, err := uc.lockOpenSale(ctx, r, id)
		if err != nil {
			return err
		}
		for _, item := range s.Items {
			if !item.FullyReserved() {
				return domain.ErrInsufficientStock
			}
		}
		for _, item := range s.Items {
			if item.QtyReserved == 0 {
				continue
			}
			shipped, err := uc.coord.Consume(ctx, r, item.ProductID,
				entity.OwnerSaleItem(s.ID, item.ID))
			if err != nil {
				return err
			}
			if shipped != item.QtyReserved {
				return domain.ErrInvariantViolation
			}
			item.QtyShipped += shipped
			item.QtyReserved -= shipped
			if err := r.Sales.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		now := time.Now()
		s.Status = entity.SaleStatusComplete
		s.CompletedAt = &now
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		out, _ = r.Sales.GetByID(ctx, s.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindSaleComplete, id)
	return out, nil
}

// Cancel libera toda la reserva vigente de la venta. Prohibido tras complete;
// cancelar dos veces es un no-op.
func (uc *UseCase) Cancel(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	canceledAlready := false
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		s, err := r.Sales.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		if s.Status == entity.SaleStatusComplete {
			return domain.NewDomainError(domain.CodeCompletedSaleLocked, "la venta ya fue completada")
		}
		if s.Status == entity.SaleStatusCanceled {
			canceledAlready = true
			out = s
			return nil
		}
		for _, item := range s.Items {
			if item.QtyReserved == 0 {
				continue
			}
			released, err := uc.coord.Release(ctx, r, item.ProductID,
				entity.OwnerSaleItem(s.ID, item.ID))
			if err != nil {
				return err
			}
			if released != item.QtyReserved {
				return domain.ErrInvariantViolation
			}
			item.QtyReserved = 0
			if err := r.Sales.UpdateItem(ctx, item); err != nil {
				return err
			}
		}
		now := time.Now()
		s.Status = entity.SaleStatusCanceled
		s.CanceledAt = &now
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		out, _ = r.Sales.GetByID(ctx, s.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !canceledAlready {
		uc.publish(ctx, stock.KindSaleCancel, id)
	}
	return out, nil
}

// UpdateDetails edita notas y cliente de una venta abierta.
func (uc *UseCase) UpdateDetails(ctx context.Context, id string, in dto.UpdateSaleRequest) (*entity.Sale, error) {
	var out *entity.Sale
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		s, err := uc.lockOpenSale(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Notes != nil {
			s.Notes = *in.Notes
		}
		if in.CustomerID != nil {
			if *in.CustomerID == "" {
				s.CustomerID = nil
			} else {
				c, err := r.Customers.GetByID(ctx, *in.CustomerID)
				if err != nil {
					return err
				}
				if c == nil {
					return domain.ErrNotFound
				}
				s.CustomerID = &c.ID
			}
		}
		if err := r.Sales.Update(ctx, s); err != nil {
			return err
		}
		out, _ = r.Sales.GetByID(ctx, s.ID)
		return nil
	})
	return out, err
}

// lockOpenSale bloquea la venta y rechaza mutaciones sobre complete/canceled.
func (uc *UseCase) lockOpenSale(ctx context.Context, r stock.Repos, id string) (*entity.Sale, error) {
	s, err := r.Sales.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	switch s.Status {
	case entity.SaleStatusComplete:
		return nil, domain.NewDomainError(domain.CodeCompletedSaleLocked, "la venta ya fue completada")
	case entity.SaleStatusCanceled:
		return nil, domain.NewDomainError(domain.CodeCanceledSaleLocked, "la venta fue cancelada")
	}
	return s, nil
}

// refreshStatus recalcula el estado y los sellos de tiempo de reserva.
func (uc *UseCase) refreshStatus(s *entity.Sale, now time.Time) {
	full := true
	var reserved int64
	for _, item := range s.Items {
		reserved += item.QtyReserved + item.QtyShipped
		if !item.FullyReserved() {
			full = false
		}
	}
	if reserved > 0 && s.ReservedAt == nil {
		s.ReservedAt = &now
	}
	if full {
		s.Status = entity.SaleStatusReserved
	} else {
		s.Status = entity.SaleStatusBackorder
		if s.BackorderedAt == nil {
			s.BackorderedAt = &now
		}
	}
	s.UpdatedAt = now
}

func (uc *UseCase) publish(ctx context.Context, kind, saleID string) {
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           kind,
		Refs:           map[string]string{"sale_id": saleID},
	})
}
