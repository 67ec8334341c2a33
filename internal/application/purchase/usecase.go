// Package purchase adapta las órdenes de compra al motor de stock: cada
// recepción ingresa unidades (y seriales) al bin y re-evalúa el estado de la
// orden según el avance de sus líneas.
package purchase

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

// UseCase casos de uso de órdenes de compra.
type UseCase struct {
	tx    stock.TxRunner
	coord *stock.Coordinator
	bus   stock.Publisher
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx stock.TxRunner, coord *stock.Coordinator, bus stock.Publisher) *UseCase {
	return &UseCase{tx: tx, coord: coord, bus: bus}
}

// Create abre la orden de compra con sus líneas en estado ordered.
func (uc *UseCase) Create(ctx context.Context, in dto.CreatePurchaseOrderRequest) (*entity.PurchaseOrder, error) {
	if in.Supplier == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Qty <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	var out *entity.PurchaseOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		now := time.Now()
		po := &entity.PurchaseOrder{
			ID:             uuid.New().String(),
			OrganizationID: tenant.OrganizationID(ctx),
			Supplier:       in.Supplier,
			Status:         entity.PurchaseOrderStatusOrdered,
			CreatedBy:      tenant.UserID(ctx),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, l := range in.Lines {
			prod, err := r.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if prod == nil {
				return domain.ErrNotFound
			}
			po.Lines = append(po.Lines, &entity.PurchaseOrderLine{
				ID:              uuid.New().String(),
				PurchaseOrderID: po.ID,
				ProductID:       l.ProductID,
				QtyOrdered:      l.Qty,
				UnitCost:        l.UnitCost,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		if err := r.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID devuelve la orden con sus líneas.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var out *entity.PurchaseOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		po, err := r.PurchaseOrders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		out = po
		return nil
	})
	return out, err
}

// Receive ingresa las recepciones indicadas y re-evalúa el estado de la orden:
// received si toda línea se completó, partially_received si algo entró,
// ordered si aún no entró nada.
func (uc *UseCase) Receive(ctx context.Context, poID string, in dto.ReceiveRequest) (*entity.PurchaseOrder, error) {
	if len(in.Receipts) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.PurchaseOrder
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		po, err := r.PurchaseOrders.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if po.Status == entity.PurchaseOrderStatusReceived {
			return domain.ErrConflict
		}
		lines := make(map[string]*entity.PurchaseOrderLine, len(po.Lines))
		for _, l := range po.Lines {
			lines[l.ID] = l
		}
		for _, rec := range in.Receipts {
			line, ok := lines[rec.LineID]
			if !ok {
				return domain.ErrNotFound
			}
			bin, err := r.Bins.GetByID(ctx, rec.BinID)
			if err != nil {
				return err
			}
			if bin == nil {
				return domain.NewDomainError(domain.CodeBinMissingForProduct, "el bin %s no existe", rec.BinID)
			}
			prod, err := r.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if prod == nil {
				return domain.ErrNotFound
			}
			if err := uc.coord.Receive(ctx, r, line, prod, bin.ID, rec.Qty, rec.Serials); err != nil {
				return err
			}
		}
		status := entity.PurchaseOrderStatusReceived
		anyReceived := false
		for _, l := range po.Lines {
			if l.QtyReceived > 0 {
				anyReceived = true
			}
			if !l.Complete() {
				status = entity.PurchaseOrderStatusPartiallyReceived
			}
		}
		if !anyReceived {
			status = entity.PurchaseOrderStatusOrdered
		}
		if err := r.PurchaseOrders.UpdateStatus(ctx, po.ID, status); err != nil {
			return err
		}
		out, err = r.PurchaseOrders.GetByID(ctx, po.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           stock.KindReceive,
		Refs:           map[string]string{"purchase_order_id": poID},
	})
	return out, nil
}
