package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// Origen de una devolución de serial.
const (
	ReturnSourcePicked   = "picked"
	ReturnSourceReserved = "reserved"
)

// Tracker es la máquina de estados de unidades serializadas:
//
//	available --reserve--> reserved --pick--> assigned
//	    ^                     |                  |
//	    | return              | release          | return
//	    +---------------- available <------------+
//
// mark_faulty lleva a faulty desde available/reserved/assigned; faulty es
// terminal para el ciclo (solo un operador puede reingresarlo, no el motor).
// Un serial nunca pertenece a dos órdenes de trabajo a la vez.
type Tracker struct {
	r  Repos
	st *Store
}

// NewTracker construye el tracker sobre los repos de la transacción en curso.
func NewTracker(r Repos) *Tracker {
	return &Tracker{r: r, st: NewStore(r)}
}

// Reserve aparta el serial para una parte de orden de trabajo: exige
// status=available con bin asignado, sube reserved del nivel, registra el
// movimiento reason=reserve y agrega la asignación.
func (t *Tracker) Reserve(ctx context.Context, productID, serialID, workOrderID, partID string) error {
	s, err := t.r.Serials.GetForUpdate(ctx, serialID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}
	if s.ProductID != productID || s.Status != entity.SerialStatusAvailable || s.BinID == nil {
		return domain.ErrSerialUnavailable
	}

	lvl, err := t.st.Ensure(ctx, s.ProductID, *s.BinID)
	if err != nil {
		return err
	}
	if err := t.st.IncReserved(ctx, lvl, 1); err != nil {
		return err
	}
	mov := &entity.Movement{
		OrganizationID: s.OrganizationID,
		ProductID:      s.ProductID,
		Qty:            1,
		Reason:         entity.MoveReasonReserve,
		FromBinID:      s.BinID,
		SerialItemID:   &s.ID,
		PerformedBy:    tenant.UserID(ctx),
	}
	entity.OwnerWorkOrderPart(workOrderID, partID).Stamp(mov)
	if err := t.st.RecordMove(ctx, mov); err != nil {
		return err
	}

	s.Status = entity.SerialStatusReserved
	s.WorkOrderID = &workOrderID
	s.LastSeenAt = time.Now()
	if err := t.r.Serials.Update(ctx, s); err != nil {
		return err
	}
	return t.appendAssignment(ctx, s.ID, partID, entity.AssignmentStatusReserved)
}

// Pick convierte la reserva en salida física: exige status=reserved en el bin
// indicado y una asignación reserved abierta; baja on_hand y reserved en 1,
// deja el serial assigned sin bin.
func (t *Tracker) Pick(ctx context.Context, serialID, workOrderID, partID, binID string) error {
	s, err := t.r.Serials.GetForUpdate(ctx, serialID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}
	if s.Status != entity.SerialStatusReserved || s.WorkOrderID == nil || *s.WorkOrderID != workOrderID {
		return domain.ErrSerialUnavailable
	}
	if s.BinID == nil || *s.BinID != binID {
		return domain.ErrSerialUnavailable
	}
	open, err := t.r.Serials.LatestAssignment(ctx, s.ID, partID)
	if err != nil {
		return err
	}
	if open == nil || open.Status != entity.AssignmentStatusReserved {
		return domain.ErrSerialUnavailable
	}

	lvl, err := t.r.Levels.GetForUpdate(ctx, s.ProductID, binID)
	if err != nil {
		return err
	}
	if lvl == nil {
		return domain.ErrInsufficientStock
	}
	// reserved primero: así on_hand nunca cae por debajo de reserved
	if err := t.st.DecReserved(ctx, lvl, 1); err != nil {
		return err
	}
	if err := t.st.DecOnHand(ctx, lvl, 1); err != nil {
		return err
	}
	mov := &entity.Movement{
		OrganizationID: s.OrganizationID,
		ProductID:      s.ProductID,
		Qty:            1,
		Reason:         entity.MoveReasonPick,
		FromBinID:      &binID,
		SerialItemID:   &s.ID,
		PerformedBy:    tenant.UserID(ctx),
	}
	entity.OwnerWorkOrderPart(workOrderID, partID).Stamp(mov)
	if err := t.st.RecordMove(ctx, mov); err != nil {
		return err
	}

	s.Status = entity.SerialStatusAssigned
	s.BinID = nil
	s.LastSeenAt = time.Now()
	if err := t.r.Serials.Update(ctx, s); err != nil {
		return err
	}
	return t.appendAssignment(ctx, s.ID, partID, entity.AssignmentStatusPicked)
}

// Return es la inversa de pick/reserve según el origen:
//   - picked y no defectuoso: on_hand+1 en el bin, serial vuelve a available.
//   - picked y defectuoso: sin reingreso, serial queda faulty (rma_out).
//   - reserved: solo baja reserved (release); defectuoso además lo da de baja.
func (t *Tracker) Return(ctx context.Context, serialID, workOrderID, partID, binID, source string, faulty bool) error {
	s, err := t.r.Serials.GetForUpdate(ctx, serialID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}

	switch source {
	case ReturnSourcePicked:
		if s.Status != entity.SerialStatusAssigned || s.WorkOrderID == nil || *s.WorkOrderID != workOrderID {
			return domain.ErrSerialUnavailable
		}
		if faulty {
			mov := &entity.Movement{
				OrganizationID: s.OrganizationID,
				ProductID:      s.ProductID,
				Qty:            1,
				Reason:         entity.MoveReasonRMAOut,
				FromBinID:      &binID,
				SerialItemID:   &s.ID,
				PerformedBy:    tenant.UserID(ctx),
			}
			entity.OwnerWorkOrderPart(workOrderID, partID).Stamp(mov)
			if err := t.st.RecordMove(ctx, mov); err != nil {
				return err
			}
			s.Status = entity.SerialStatusFaulty
			s.WorkOrderID = nil
			s.LastSeenAt = time.Now()
			if err := t.r.Serials.Update(ctx, s); err != nil {
				return err
			}
			return t.appendAssignment(ctx, s.ID, partID, entity.AssignmentStatusFaulty)
		}
		lvl, err := t.st.Ensure(ctx, s.ProductID, binID)
		if err != nil {
			return err
		}
		if err := t.st.IncOnHand(ctx, lvl, 1); err != nil {
			return err
		}
		mov := &entity.Movement{
			OrganizationID: s.OrganizationID,
			ProductID:      s.ProductID,
			Qty:            1,
			Reason:         entity.MoveReasonReturn,
			ToBinID:        &binID,
			SerialItemID:   &s.ID,
			PerformedBy:    tenant.UserID(ctx),
		}
		entity.OwnerWorkOrderPart(workOrderID, partID).Stamp(mov)
		if err := t.st.RecordMove(ctx, mov); err != nil {
			return err
		}
		s.Status = entity.SerialStatusAvailable
		s.BinID = &binID
		s.WorkOrderID = nil
		s.LastSeenAt = time.Now()
		if err := t.r.Serials.Update(ctx, s); err != nil {
			return err
		}
		return t.appendAssignment(ctx, s.ID, partID, entity.AssignmentStatusReturned)

	case ReturnSourceReserved:
		if s.Status != entity.SerialStatusReserved || s.WorkOrderID == nil || *s.WorkOrderID != workOrderID {
			return domain.ErrSerialUnavailable
		}
		if s.BinID == nil {
			return domain.ErrInvariantViolation
		}
		lvl, err := t.r.Levels.GetForUpdate(ctx, s.ProductID, *s.BinID)
		if err != nil {
			return err
		}
		if lvl == nil {
			return domain.ErrInvariantViolation
		}
		if err := t.st.DecReserved(ctx, lvl, 1); err != nil {
			return err
		}
		reason := entity.MoveReasonRelease
		status := entity.AssignmentStatusReleased
		if faulty {
			// el serial estaba en bin: se da de baja físicamente
			if err := t.st.DecOnHand(ctx, lvl, 1); err != nil {
				return err
			}
			reason = entity.MoveReasonRMAOut
			status = entity.AssignmentStatusFaulty
		}
		mov := &entity.Movement{
			OrganizationID: s.OrganizationID,
			ProductID:      s.ProductID,
			Qty:            1,
			Reason:         reason,
			FromBinID:      s.BinID,
			SerialItemID:   &s.ID,
			PerformedBy:    tenant.UserID(ctx),
		}
		entity.OwnerWorkOrderPart(workOrderID, partID).Stamp(mov)
		if err := t.st.RecordMove(ctx, mov); err != nil {
			return err
		}
		if faulty {
			s.Status = entity.SerialStatusFaulty
			s.BinID = nil
		} else {
			s.Status = entity.SerialStatusAvailable
		}
		s.WorkOrderID = nil
		s.LastSeenAt = time.Now()
		if err := t.r.Serials.Update(ctx, s); err != nil {
			return err
		}
		return t.appendAssignment(ctx, s.ID, partID, status)

	default:
		return domain.ErrInvalidInput
	}
}

// MarkFaulty marca el serial como defectuoso desde available/reserved/assigned.
// Si estaba en bin se descuenta del nivel (reason=rma_out).
func (t *Tracker) MarkFaulty(ctx context.Context, serialID string) error {
	s, err := t.r.Serials.GetForUpdate(ctx, serialID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.ErrNotFound
	}

	switch s.Status {
	case entity.SerialStatusAvailable, entity.SerialStatusReserved:
		if s.BinID == nil {
			return domain.ErrInvariantViolation
		}
		lvl, err := t.r.Levels.GetForUpdate(ctx, s.ProductID, *s.BinID)
		if err != nil {
			return err
		}
		if lvl == nil {
			return domain.ErrInvariantViolation
		}
		if s.Status == entity.SerialStatusReserved {
			if err := t.st.DecReserved(ctx, lvl, 1); err != nil {
				return err
			}
		}
		if err := t.st.DecOnHand(ctx, lvl, 1); err != nil {
			return err
		}
		mov := &entity.Movement{
			OrganizationID: s.OrganizationID,
			ProductID:      s.ProductID,
			Qty:            1,
			Reason:         entity.MoveReasonRMAOut,
			FromBinID:      s.BinID,
			SerialItemID:   &s.ID,
			PerformedBy:    tenant.UserID(ctx),
		}
		if err := t.st.RecordMove(ctx, mov); err != nil {
			return err
		}
		s.BinID = nil
	case entity.SerialStatusAssigned:
		// ya está fuera de stock, solo cambia el estado
	default:
		return domain.ErrSerialUnavailable
	}

	s.Status = entity.SerialStatusFaulty
	s.WorkOrderID = nil
	s.LastSeenAt = time.Now()
	return t.r.Serials.Update(ctx, s)
}

func (t *Tracker) appendAssignment(ctx context.Context, serialItemID, partID, status string) error {
	now := time.Now()
	return t.r.Serials.CreateAssignment(ctx, &entity.SerialAssignment{
		ID:              uuid.New().String(),
		SerialItemID:    serialItemID,
		WorkOrderPartID: partID,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}
