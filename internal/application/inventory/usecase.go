// Package inventory expone las operaciones manuales de stock (movimiento,
// ajuste, baja por defecto) y las superficies de lectura: overview agregado
// con cache, bajo stock, historial de movimientos y seriales.
package inventory

import (
	"context"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// OverviewCache puerto del cache de overview por tenant (lo implementa Redis).
type OverviewCache interface {
	Get(ctx context.Context, organizationID string) ([]repository.ProductStockOverview, bool)
	Set(ctx context.Context, organizationID string, items []repository.ProductStockOverview)
}

// NopCache cache nulo para pruebas y arranques sin Redis.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]repository.ProductStockOverview, bool) {
	return nil, false
}
func (NopCache) Set(context.Context, string, []repository.ProductStockOverview) {}

// UseCase casos de uso de inventario manual y lecturas de stock.
type UseCase struct {
	tx      stock.TxRunner
	coord   *stock.Coordinator
	bus     stock.Publisher
	cache   OverviewCache
	scanner *stock.LowStockScanner
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx stock.TxRunner, coord *stock.Coordinator, bus stock.Publisher, cache OverviewCache, scanner *stock.LowStockScanner) *UseCase {
	if cache == nil {
		cache = NopCache{}
	}
	return &UseCase{tx: tx, coord: coord, bus: bus, cache: cache, scanner: scanner}
}

// Move ejecuta un movimiento manual según la razón: transfer exige ambos bins,
// receive ingresa al bin destino, adjust sube o baja según el bin indicado y
// rma_out da de baja del bin origen. Solo productos a granel; los serializados
// se mueven por su propio ciclo.
func (uc *UseCase) Move(ctx context.Context, in dto.MoveRequest) (string, error) {
	if in.ProductID == "" || in.Qty <= 0 {
		return "", domain.ErrInvalidInput
	}
	var movementID string
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		prod, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if prod == nil {
			return domain.ErrNotFound
		}
		if prod.TrackSerial {
			return domain.NewDomainError(domain.CodeSerialsRequired,
				"el producto %s es serializado: usar el ciclo de seriales", prod.SKU)
		}
		if err := uc.checkBins(ctx, r, in.FromBinID, in.ToBinID); err != nil {
			return err
		}
		st := stock.NewStore(r)

		switch in.Reason {
		case entity.MoveReasonTransfer:
			if in.FromBinID == "" || in.ToBinID == "" {
				return domain.ErrInvalidInput
			}
			movementID, err = uc.coord.Transfer(ctx, r, prod.ID, in.Qty, in.FromBinID, in.ToBinID)
			return err

		case entity.MoveReasonReceive:
			if in.ToBinID == "" || in.FromBinID != "" {
				return domain.ErrInvalidInput
			}
			lvl, err := st.Ensure(ctx, prod.ID, in.ToBinID)
			if err != nil {
				return err
			}
			if err := st.IncOnHand(ctx, lvl, in.Qty); err != nil {
				return err
			}
			mov := &entity.Movement{
				OrganizationID: tenant.OrganizationID(ctx),
				ProductID:      prod.ID,
				Qty:            in.Qty,
				Reason:         entity.MoveReasonReceive,
				ToBinID:        &in.ToBinID,
				PerformedBy:    tenant.UserID(ctx),
			}
			if err := st.RecordMove(ctx, mov); err != nil {
				return err
			}
			movementID = mov.ID
			return nil

		case entity.MoveReasonAdjust:
			switch {
			case in.ToBinID != "" && in.FromBinID == "":
				lvl, err := st.Ensure(ctx, prod.ID, in.ToBinID)
				if err != nil {
					return err
				}
				if err := st.IncOnHand(ctx, lvl, in.Qty); err != nil {
					return err
				}
				mov := &entity.Movement{
					OrganizationID: tenant.OrganizationID(ctx),
					ProductID:      prod.ID,
					Qty:            in.Qty,
					Reason:         entity.MoveReasonAdjust,
					ToBinID:        &in.ToBinID,
					PerformedBy:    tenant.UserID(ctx),
				}
				if err := st.RecordMove(ctx, mov); err != nil {
					return err
				}
				movementID = mov.ID
				return nil
			case in.FromBinID != "" && in.ToBinID == "":
				return uc.decrease(ctx, st, r, prod.ID, in.Qty, in.FromBinID, entity.MoveReasonAdjust, &movementID)
			default:
				return domain.ErrInvalidInput
			}

		case entity.MoveReasonRMAOut:
			if in.FromBinID == "" || in.ToBinID != "" {
				return domain.ErrInvalidInput
			}
			return uc.decrease(ctx, st, r, prod.ID, in.Qty, in.FromBinID, entity.MoveReasonRMAOut, &movementID)

		default:
			return domain.ErrInvalidInput
		}
	})
	if err != nil {
		return "", err
	}
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           stock.KindMove,
		Refs:           map[string]string{"movement_id": movementID, "product_id": in.ProductID},
	})
	return movementID, nil
}

// AdjustLevels lleva los totales on_hand/reserved del producto a los objetivos.
func (uc *UseCase) AdjustLevels(ctx context.Context, productID string, in dto.AdjustLevelsRequest) error {
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		prod, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if prod == nil {
			return domain.ErrNotFound
		}
		return uc.coord.AdjustTo(ctx, r, productID, in.OnHand, in.Reserved)
	})
	if err != nil {
		return err
	}
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           stock.KindAdjust,
		Refs:           map[string]string{"product_id": productID},
	})
	return nil
}

// MarkFaulty da de baja un serial defectuoso por operación manual.
func (uc *UseCase) MarkFaulty(ctx context.Context, serialItemID string) error {
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		return stock.NewTracker(r).MarkFaulty(ctx, serialItemID)
	})
	if err != nil {
		return err
	}
	uc.bus.Publish(stock.Event{
		OrganizationID: tenant.OrganizationID(ctx),
		Kind:           stock.KindAdjust,
		Refs:           map[string]string{"serial_item_id": serialItemID},
		Hint:           "faulty",
	})
	return nil
}

// Overview devuelve el agregado de stock por producto del tenant, con cache.
func (uc *UseCase) Overview(ctx context.Context) ([]repository.ProductStockOverview, error) {
	orgID := tenant.OrganizationID(ctx)
	if items, ok := uc.cache.Get(ctx, orgID); ok {
		return items, nil
	}
	var items []repository.ProductStockOverview
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		items, err = r.Levels.Overview(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.cache.Set(ctx, orgID, items)
	return items, nil
}

// LowStock devuelve el corte bajo demanda de productos en punto de reorden.
func (uc *UseCase) LowStock(ctx context.Context) ([]repository.LowStockItem, error) {
	return uc.scanner.Snapshot(ctx, tenant.OrganizationID(ctx))
}

// Movements devuelve el historial del producto, más reciente primero.
func (uc *UseCase) Movements(ctx context.Context, productID string, page dto.PageRequest) ([]*entity.Movement, error) {
	page.DefaultPage()
	var out []*entity.Movement
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Movements.ListByProduct(ctx, productID, page.Limit, page.Offset)
		return err
	})
	return out, err
}

// Serials lista las unidades serializadas del producto.
func (uc *UseCase) Serials(ctx context.Context, productID string) ([]*entity.SerialItem, error) {
	var out []*entity.SerialItem
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Serials.ListByProduct(ctx, productID)
		return err
	})
	return out, err
}

// Levels lista los niveles por bin del producto.
func (uc *UseCase) Levels(ctx context.Context, productID string) ([]*entity.QuantityLevel, error) {
	var out []*entity.QuantityLevel
	err := uc.tx.Run(ctx, func(r stock.Repos) error {
		var err error
		out, err = r.Levels.ListByProduct(ctx, productID)
		return err
	})
	return out, err
}

func (uc *UseCase) checkBins(ctx context.Context, r stock.Repos, binIDs ...string) error {
	for _, id := range binIDs {
		if id == "" {
			continue
		}
		b, err := r.Bins.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.NewDomainError(domain.CodeBinMissingForProduct, "el bin %s no existe", id)
		}
	}
	return nil
}

func (uc *UseCase) decrease(ctx context.Context, st *stock.Store, r stock.Repos, productID string, qty int64, fromBinID, reason string, movementID *string) error {
	lvl, err := r.Levels.GetForUpdate(ctx, productID, fromBinID)
	if err != nil {
		return err
	}
	if lvl == nil {
		return domain.ErrInsufficientStock
	}
	if err := st.DecOnHand(ctx, lvl, qty); err != nil {
		return err
	}
	mov := &entity.Movement{
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		Qty:            qty,
		Reason:         reason,
		FromBinID:      &fromBinID,
		PerformedBy:    tenant.UserID(ctx),
	}
	if err := st.RecordMove(ctx, mov); err != nil {
		return err
	}
	*movementID = mov.ID
	return nil
}
