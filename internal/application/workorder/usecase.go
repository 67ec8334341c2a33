// Package workorder adapta las órdenes de trabajo del taller al motor de
// stock: crear la orden con sus partes y reservar, retirar y devolver
// repuestos manteniendo los contadores de cada parte en la misma unidad de
// trabajo que los niveles.
package workorder

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

// UseCase casos de uso de órdenes de trabajo.
type UseCase struct {
	tx    stock.TxRunner
	coord *stock.Coordinator
	bus   stock.Publisher
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx stock.TxRunner, coord *stock.Coordinator, bus stock.Publisher) *UseCase {
	return &UseCase{tx: tx, coord: coord, bus: bus}
}

// Create abre una orden de trabajo con sus partes en estado open.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateWorkOrderRequest) (*entity.WorkOrder, error) {
	if len(in.Parts) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, p := range in.Parts {
		if p.ProductID == "" || p.Qty <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		now := time.Now()
		wo := &entity.WorkOrder{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			Status:         entity.WorkOrderStatusOpen,
			Description:    in.Description,
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
			wo.CustomerID = &c.ID
		}
		for _, p := range in.Parts {
			prod, err := r.Products.GetByID(ctx, p.ProductID)
			if err != nil {
				return err
			}
			if prod == nil {
				return domain.ErrNotFound
			}
			if !prod.Active {
				return domain.NewDomainError(domain.CodeProductArchived, "el producto %s está archivado", prod.SKU)
			}
			wo.Parts = append(wo.Parts, &entity.WorkOrderPart{
				ID:          uuid.New().String(),
				WorkOrderID: wo.ID,
				ProductID:   p.ProductID,
				QtyNeeded:   p.Qty,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		if err := r.WorkOrders.Create(ctx, wo); err != nil {
			return err
		}
		if err := r.WorkOrders.AppendStatusLog(ctx, &entity.WorkOrderStatusLog{
			ID:          uuid.New().String(),
			WorkOrderID: wo.ID,
			ToStatus:    entity.WorkOrderStatusOpen,
			PerformedBy: tenant.UserID(ctx),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		out = wo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID devuelve la orden con sus partes.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := r.WorkOrders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if wo == nil {
			return domain.ErrNotFound
		}
		out = wo
		return nil
	})
	return out, err
}

// StatusLog devuelve el historial de transiciones de la orden.
func (uc *UseCase) StatusLog(ctx context.Context, id string) ([]*entity.WorkOrderStatusLog, error) {
	var out []*entity.WorkOrderStatusLog
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := r.WorkOrders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if wo == nil {
			return domain.ErrNotFound
		}
		out, err = r.WorkOrders.ListStatusLog(ctx, id)
		return err
	})
	return out, err
}

// ReserveParts aparta stock para las partes indicadas. Productos serializados
// reservan seriales concretos; granel reserva qty sin permitir parcial.
// Todo o nada: si una parte falla, ninguna queda reservada.
func (uc *UseCase) ReserveParts(ctx context.Context, workOrderID string, in dto.ReservePartsRequest) (*entity.WorkOrder, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := uc.lockOpenOrder(ctx, r, workOrderID)
		if err != nil {
			return err
		}
		for _, item := range in.Items {
			part, prod, err := uc.lockPart(ctx, r, wo.ID, item.PartID)
			if err != nil {
				return err
			}
			if prod.TrackSerial {
				if len(item.SerialIDs) == 0 {
					return domain.NewDomainError(domain.CodeSerialsRequired,
						"el producto %s es serializado: indicar serial_ids", prod.SKU)
				}
				if item.Qty > 0 && item.Qty != int64(len(item.SerialIDs)) {
					return domain.ErrInvalidInput
				}
				qty := int64(len(item.SerialIDs))
				if part.QtyReserved+part.QtyPicked+qty > part.QtyNeeded {
					return domain.ErrInvalidInput
				}
				if err := uc.coord.ReserveSerials(ctx, r, prod.ID, item.SerialIDs, wo.ID, part.ID); err != nil {
					return err
				}
				part.QtyReserved += qty
			} else {
				if item.Qty <= 0 || len(item.SerialIDs) > 0 {
					return domain.ErrInvalidInput
				}
				if part.QtyReserved+part.QtyPicked+item.Qty > part.QtyNeeded {
					return domain.ErrInvalidInput
				}
				taken, err := uc.coord.Reserve(ctx, r, prod.ID, item.Qty,
					entity.OwnerWorkOrderPart(wo.ID, part.ID), false)
				if err != nil {
					return err
				}
				part.QtyReserved += taken
			}
			if err := r.WorkOrders.UpdatePart(ctx, part); err != nil {
				return err
			}
		}
		out, err = r.WorkOrders.GetByID(ctx, wo.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindReserve, workOrderID)
	return out, nil
}

// PickPart retira físicamente unidades ya reservadas de una parte.
func (uc *UseCase) PickPart(ctx context.Context, workOrderID string, in dto.PickPartRequest) (*entity.WorkOrder, error) {
	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := uc.lockOpenOrder(ctx, r, workOrderID)
		if err != nil {
			return err
		}
		part, prod, err := uc.lockPart(ctx, r, wo.ID, in.PartID)
		if err != nil {
			return err
		}
		var qty int64
		if prod.TrackSerial {
			if len(in.SerialIDs) == 0 {
				return domain.NewDomainError(domain.CodeSerialsRequired,
					"el producto %s es serializado: indicar serial_ids", prod.SKU)
			}
			qty = int64(len(in.SerialIDs))
			if part.QtyReserved < qty {
				return domain.ErrInsufficientStock
			}
			if err := uc.coord.PickSerials(ctx, r, in.SerialIDs, wo.ID, part.ID, in.BinID); err != nil {
				return err
			}
		} else {
			qty = in.Qty
			if qty <= 0 || len(in.SerialIDs) > 0 {
				return domain.ErrInvalidInput
			}
			if part.QtyReserved < qty {
				return domain.ErrInsufficientStock
			}
			if err := uc.coord.Pick(ctx, r, prod.ID, qty, in.BinID,
				entity.OwnerWorkOrderPart(wo.ID, part.ID)); err != nil {
				return err
			}
		}
		part.QtyReserved -= qty
		part.QtyPicked += qty
		if err := r.WorkOrders.UpdatePart(ctx, part); err != nil {
			return err
		}
		out, err = r.WorkOrders.GetByID(ctx, wo.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindPick, workOrderID)
	return out, nil
}

// ReturnPart devuelve unidades de una parte al bin. source=picked reingresa lo
// retirado (salvo defectuoso); source=reserved libera la reserva.
func (uc *UseCase) ReturnPart(ctx context.Context, workOrderID string, in dto.ReturnPartRequest) (*entity.WorkOrder, error) {
	if in.Source != stock.ReturnSourcePicked && in.Source != stock.ReturnSourceReserved {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := uc.lockOpenOrder(ctx, r, workOrderID)
		if err != nil {
			return err
		}
		part, prod, err := uc.lockPart(ctx, r, wo.ID, in.PartID)
		if err != nil {
			return err
		}
		var qty int64
		if prod.TrackSerial {
			if len(in.SerialIDs) == 0 {
				return domain.NewDomainError(domain.CodeSerialsRequired,
					"el producto %s es serializado: indicar serial_ids", prod.SKU)
			}
			qty = int64(len(in.SerialIDs))
			if err := uc.coord.ReturnSerials(ctx, r, in.SerialIDs, wo.ID, part.ID, in.BinID, in.Source, in.Faulty); err != nil {
				return err
			}
		} else {
			qty = in.Qty
			if qty <= 0 || len(in.SerialIDs) > 0 {
				return domain.ErrInvalidInput
			}
			if err := uc.coord.Return(ctx, r, prod.ID, qty, in.BinID, in.Source, in.Faulty,
				entity.OwnerWorkOrderPart(wo.ID, part.ID)); err != nil {
				return err
			}
		}
		switch in.Source {
		case stock.ReturnSourcePicked:
			if part.QtyPicked < qty {
				return domain.ErrInvariantViolation
			}
			part.QtyPicked -= qty
		case stock.ReturnSourceReserved:
			if part.QtyReserved < qty {
				return domain.ErrInvariantViolation
			}
			part.QtyReserved -= qty
		}
		if err := r.WorkOrders.UpdatePart(ctx, part); err != nil {
			return err
		}
		out, err = r.WorkOrders.GetByID(ctx, wo.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, stock.KindReturn, workOrderID)
	return out, nil
}

// UpdateStatus transiciona la orden y deja la fila de historial con la nota.
func (uc *UseCase) UpdateStatus(ctx context.Context, workOrderID string, in dto.UpdateWorkOrderStatusRequest) (*entity.WorkOrder, error) {
	switch in.Status {
	case entity.WorkOrderStatusOpen, entity.WorkOrderStatusInProgress,
		entity.WorkOrderStatusDone, entity.WorkOrderStatusCanceled:
	default:
		return nil, domain.ErrInvalidInput
	}
	var out *entity.WorkOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		wo, err := r.WorkOrders.GetForUpdate(ctx, workOrderID)
		if err != nil {
			return err
		}
		if wo == nil {
			return domain.ErrNotFound
		}
		if wo.Status == in.Status {
			out = wo
			return nil
		}
		if err := r.WorkOrders.UpdateStatus(ctx, wo.ID, in.Status); err != nil {
			return err
		}
		if err := r.WorkOrders.AppendStatusLog(ctx, &entity.WorkOrderStatusLog{
			ID:          uuid.New().String(),
			WorkOrderID: wo.ID,
			FromStatus:  wo.Status,
			ToStatus:    in.Status,
			Note:        in.Note,
			PerformedBy: tenant.UserID(ctx),
			CreatedAt:   time.Now(),
		}); err != nil {
			return err
		}
		out, err = r.WorkOrders.GetByID(ctx, wo.ID)
		return err
	})
	return out, err
}

// lockOpenOrder bloquea la orden y rechaza verbos de stock sobre done/canceled.
func (uc *UseCase) lockOpenOrder(ctx context.Context, r stock.Repos, id string) (*entity.WorkOrder, error) {
	wo, err := r.WorkOrders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	if wo.Status == entity.WorkOrderStatusDone || wo.Status == entity.WorkOrderStatusCanceled {
		return nil, domain.ErrConflict
	}
	return wo, nil
}

// lockPart bloquea la parte, valida que pertenezca a la orden y trae el producto.
func (uc *UseCase) lockPart(ctx context.Context, r stock.Repos, workOrderID, partID string) (*entity.WorkOrderPart, *entity.Product, error) {
	part, err := r.WorkOrders.GetPartForUpdate(ctx, partID)
	if err != nil {
		return nil, nil, err
	}
	if part == nil {
		return nil, nil, domain.ErrNotFound
	}
	if part.WorkOrderID != workOrderID {
		return nil, nil, domain.NewDomainError(domain.CodePartMismatch,
			"la parte %s no pertenece a la orden %s", partID, workOrderID)
	}
	prod, err := r.Products.GetByID(ctx, part.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if prod == nil {
		return nil, nil, domain.ErrNotFound
	}
	return part, prod, nil
}

func (uc *UseCase) publish(ctx context.Context, kind, workOrderID string) {
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           kind,
		Refs:           map[string]string{"work_order_id": workOrderID},
	})
}
