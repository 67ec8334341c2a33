package stock

import (
	"context"
	"sort"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// Coordinator compone las primitivas del Store y el Tracker en los verbos
// transaccionales del motor: reserve, pick, return, release, consume, receive,
// transfer, adjust y write-off. Cada verbo corre dentro de una unidad de
// trabajo serializable abierta por el adaptador; los locks de fila se
// adquieren en orden determinista (product_id asc, luego bin_id asc) para
// evitar deadlocks. Un verbo que falla aborta la unidad completa y no publica
// eventos.
type Coordinator struct{}

// NewCoordinator construye el coordinador (sin estado propio).
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Reserve aparta qty unidades de un producto a granel para el dueño dado,
// llenando bins en orden descendente de disponible. Si allowPartial es false
// y el disponible total no alcanza, falla con ErrInsufficientStock; si es
// true (solo el adaptador de ventas) reserva lo que haya y devuelve el total
// apartado para que el caller registre el backorder.
func (c *Coordinator) Reserve(ctx context.Context, r Repos, productID string, qty int64, owner entity.OwnerRef, allowPartial bool) (int64, error) {
	if qty < 0 {
		return 0, domain.ErrInvalidInput
	}
	if qty == 0 {
		return 0, nil
	}
	st := NewStore(r)

	levels, err := r.Levels.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return 0, err
	}
	var available int64
	for _, l := range levels {
		if a := l.Available(); a > 0 {
			available += a
		}
	}
	if available < qty && !allowPartial {
		return 0, domain.ErrInsufficientStock
	}

	remaining := min64(qty, available)
	taken := int64(0)
	// llenado codicioso: bins con más disponible primero, bin_id como desempate
	ordered := make([]*entity.QuantityLevel, len(levels))
	copy(ordered, levels)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Available() != ordered[j].Available() {
			return ordered[i].Available() > ordered[j].Available()
		}
		return ordered[i].BinID < ordered[j].BinID
	})
	for _, lvl := range ordered {
		if remaining == 0 {
			break
		}
		amt := min64(lvl.Available(), remaining)
		if amt <= 0 {
			continue
		}
		if err := st.IncReserved(ctx, lvl, amt); err != nil {
			return taken, err
		}
		binID := lvl.BinID
		mov := &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            amt,
			Reason:         entity.MoveReasonReserve,
			FromBinID:      &binID,
			PerformedBy:    tenant.UserID(ctx),
		}
		owner.Stamp(mov)
		if err := st.RecordMove(ctx, mov); err != nil {
			return taken, err
		}
		remaining -= amt
		taken += amt
	}
	return taken, nil
}

// ReserveSerials aparta seriales concretos para una parte de orden de trabajo.
func (c *Coordinator) ReserveSerials(ctx context.Context, r Repos, productID string, serialIDs []string, workOrderID, partID string) error {
	if len(serialIDs) == 0 {
		return domain.ErrInvalidInput
	}
	tr := NewTracker(r)
	// bloquear en orden determinista antes de transicionar
	if _, err := r.Serials.ListByIDsForUpdate(ctx, serialIDs); err != nil {
		return err
	}
	for _, id := range serialIDs {
		if err := tr.Reserve(ctx, productID, id, workOrderID, partID); err != nil {
			return err
		}
	}
	return nil
}

// Pick convierte qty unidades reservadas de un bin en salida física:
// baja reserved y on_hand y registra reason=pick.
func (c *Coordinator) Pick(ctx context.Context, r Repos, productID string, qty int64, binID string, owner entity.OwnerRef) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	st := NewStore(r)
	lvl, err := r.Levels.GetForUpdate(ctx, productID, binID)
	if err != nil {
		return err
	}
	if lvl == nil || lvl.Reserved < qty || lvl.OnHand < qty {
		return domain.ErrInsufficientStock
	}
	if err := st.DecReserved(ctx, lvl, qty); err != nil {
		return err
	}
	if err := st.DecOnHand(ctx, lvl, qty); err != nil {
		return err
	}
	mov := &entity.Movement{
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		Qty:            qty,
		Reason:         entity.MoveReasonPick,
		FromBinID:      &binID,
		PerformedBy:    tenant.UserID(ctx),
	}
	owner.Stamp(mov)
	return st.RecordMove(ctx, mov)
}

// PickSerials delega el pick por serial al tracker.
func (c *Coordinator) PickSerials(ctx context.Context, r Repos, serialIDs []string, workOrderID, partID, binID string) error {
	if len(serialIDs) == 0 {
		return domain.ErrInvalidInput
	}
	tr := NewTracker(r)
	if _, err := r.Serials.ListByIDsForUpdate(ctx, serialIDs); err != nil {
		return err
	}
	for _, id := range serialIDs {
		if err := tr.Pick(ctx, id, workOrderID, partID, binID); err != nil {
			return err
		}
	}
	return nil
}

// ReturnSerials delega la devolución por serial al tracker.
func (c *Coordinator) ReturnSerials(ctx context.Context, r Repos, serialIDs []string, workOrderID, partID, binID, source string, faulty bool) error {
	if len(serialIDs) == 0 {
		return domain.ErrInvalidInput
	}
	tr := NewTracker(r)
	if _, err := r.Serials.ListByIDsForUpdate(ctx, serialIDs); err != nil {
		return err
	}
	for _, id := range serialIDs {
		if err := tr.Return(ctx, id, workOrderID, partID, binID, source, faulty); err != nil {
			return err
		}
	}
	return nil
}

// Return devuelve qty unidades a granel. source=picked y no defectuoso
// reingresa on_hand (reason=return); defectuoso no reingresa (reason=rma_out);
// source=reserved solo libera reserved (reason=release).
func (c *Coordinator) Return(ctx context.Context, r Repos, productID string, qty int64, binID, source string, faulty bool, owner entity.OwnerRef) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	st := NewStore(r)

	switch source {
	case ReturnSourcePicked:
		if faulty {
			mov := &entity.Movement{
				OrganizationID: tenant.OrganizationID(ctx),
				ProductID:      productID,
				Qty:            qty,
				Reason:         entity.MoveReasonRMAOut,
				FromBinID:      &binID,
				PerformedBy:    tenant.UserID(ctx),
			}
			owner.Stamp(mov)
			return st.RecordMove(ctx, mov)
		}
		lvl, err := st.Ensure(ctx, productID, binID)
		if err != nil {
			return err
		}
		if err := st.IncOnHand(ctx, lvl, qty); err != nil {
			return err
		}
		mov := &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            qty,
			Reason:         entity.MoveReasonReturn,
			ToBinID:        &binID,
			PerformedBy:    tenant.UserID(ctx),
		}
		owner.Stamp(mov)
		return st.RecordMove(ctx, mov)

	case ReturnSourceReserved:
		lvl, err := r.Levels.GetForUpdate(ctx, productID, binID)
		if err != nil {
			return err
		}
		if lvl == nil {
			return domain.ErrInvariantViolation
		}
		if err := st.DecReserved(ctx, lvl, qty); err != nil {
			return err
		}
		mov := &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            qty,
			Reason:         entity.MoveReasonRelease,
			FromBinID:      &binID,
			PerformedBy:    tenant.UserID(ctx),
		}
		owner.Stamp(mov)
		return st.RecordMove(ctx, mov)

	default:
		return domain.ErrInvalidInput
	}
}

// Release cancela toda la reserva vigente del dueño sobre el producto,
// reconstruyendo la distribución por bin desde el log de movimientos.
// Devuelve el total liberado.
func (c *Coordinator) Release(ctx context.Context, r Repos, productID string, owner entity.OwnerRef) (int64, error) {
	st := NewStore(r)
	dist, err := r.Movements.ReservedDistribution(ctx, owner, productID)
	if err != nil {
		return 0, err
	}
	released := int64(0)
	for _, binID := range sortedBins(dist) {
		qty := dist[binID]
		if qty <= 0 {
			continue
		}
		lvl, err := r.Levels.GetForUpdate(ctx, productID, binID)
		if err != nil {
			return released, err
		}
		if lvl == nil {
			return released, domain.ErrInvariantViolation
		}
		if err := st.DecReserved(ctx, lvl, qty); err != nil {
			return released, err
		}
		bin := binID
		mov := &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            qty,
			Reason:         entity.MoveReasonRelease,
			FromBinID:      &bin,
			PerformedBy:    tenant.UserID(ctx),
		}
		owner.Stamp(mov)
		if err := st.RecordMove(ctx, mov); err != nil {
			return released, err
		}
		released += qty
	}
	return released, nil
}

// Consume convierte la reserva vigente del dueño en salida facturada
// (cierre de venta), bin por bin en la misma distribución en que se reservó.
// Devuelve el total despachado.
func (c *Coordinator) Consume(ctx context.Context, r Repos, productID string, owner entity.OwnerRef) (int64, error) {
	st := NewStore(r)
	dist, err := r.Movements.ReservedDistribution(ctx, owner, productID)
	if err != nil {
		return 0, err
	}
	shipped := int64(0)
	for _, binID := range sortedBins(dist) {
		qty := dist[binID]
		if qty <= 0 {
			continue
		}
		lvl, err := r.Levels.GetForUpdate(ctx, productID, binID)
		if err != nil {
			return shipped, err
		}
		if lvl == nil || lvl.Reserved < qty || lvl.OnHand < qty {
			return shipped, domain.ErrInsufficientStock
		}
		if err := st.DecReserved(ctx, lvl, qty); err != nil {
			return shipped, err
		}
		if err := st.DecOnHand(ctx, lvl, qty); err != nil {
			return shipped, err
		}
		bin := binID
		mov := &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            qty,
			Reason:         entity.MoveReasonInvoiceSale,
			FromBinID:      &bin,
			PerformedBy:    tenant.UserID(ctx),
		}
		owner.Stamp(mov)
		if err := st.RecordMove(ctx, mov); err != nil {
			return shipped, err
		}
		shipped += qty
	}
	return shipped, nil
}

// Receive ingresa qty unidades de una línea de compra en el bin. Para
// productos serializados exige exactamente qty seriales y los registra
// available en ese bin. Actualiza qty_received de la línea.
func (c *Coordinator) Receive(ctx context.Context, r Repos, line *entity.PurchaseOrderLine, product *entity.Product, binID string, qty int64, serials []string) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	if line.QtyReceived+qty > line.QtyOrdered {
		return domain.NewDomainError(domain.CodeReceiptExceedsOrder,
			"recibido %d + %d supera lo ordenado %d", line.QtyReceived, qty, line.QtyOrdered)
	}
	if product.TrackSerial && int64(len(serials)) != qty {
		return domain.NewDomainError(domain.CodeSerialsRequired,
			"producto serializado: se esperaban %d seriales, llegaron %d", qty, len(serials))
	}
	if !product.TrackSerial && len(serials) > 0 {
		return domain.ErrInvalidInput
	}

	st := NewStore(r)
	lvl, err := st.Ensure(ctx, product.ID, binID)
	if err != nil {
		return err
	}
	if err := st.IncOnHand(ctx, lvl, qty); err != nil {
		return err
	}
	for _, serial := range serials {
		if _, err := r.Serials.UpsertAvailable(ctx, product.ID, serial, binID); err != nil {
			return err
		}
	}
	line.QtyReceived += qty
	if err := r.PurchaseOrders.UpdateLine(ctx, line); err != nil {
		return err
	}
	mov := &entity.Movement{
		OrganizationID:      tenant.OrganizationID(ctx),
		ProductID:           product.ID,
		Qty:                 qty,
		Reason:              entity.MoveReasonReceivePO,
		ToBinID:             &binID,
		PurchaseOrderLineID: &line.ID,
		PerformedBy:         tenant.UserID(ctx),
	}
	return st.RecordMove(ctx, mov)
}

// Transfer traslada qty unidades no reservadas entre dos bins distintos.
// Devuelve el ID del movimiento.
func (c *Coordinator) Transfer(ctx context.Context, r Repos, productID string, qty int64, fromBinID, toBinID string) (string, error) {
	if qty <= 0 || fromBinID == "" || toBinID == "" {
		return "", domain.ErrInvalidInput
	}
	if fromBinID == toBinID {
		return "", domain.NewDomainError(domain.CodeSameBinTransfer, "origen y destino no pueden ser el mismo bin")
	}
	st := NewStore(r)

	// locks en orden ascendente de bin para evitar deadlock entre traslados cruzados
	var from, to *entity.QuantityLevel
	var err error
	if fromBinID < toBinID {
		if from, err = r.Levels.GetForUpdate(ctx, productID, fromBinID); err != nil {
			return "", err
		}
		if to, err = st.Ensure(ctx, productID, toBinID); err != nil {
			return "", err
		}
	} else {
		if to, err = st.Ensure(ctx, productID, toBinID); err != nil {
			return "", err
		}
		if from, err = r.Levels.GetForUpdate(ctx, productID, fromBinID); err != nil {
			return "", err
		}
	}
	if from == nil {
		return "", domain.ErrInsufficientStock
	}
	if err := st.DecOnHand(ctx, from, qty); err != nil {
		return "", err
	}
	if err := st.IncOnHand(ctx, to, qty); err != nil {
		return "", err
	}
	mov := &entity.Movement{
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		Qty:            qty,
		Reason:         entity.MoveReasonTransfer,
		FromBinID:      &fromBinID,
		ToBinID:        &toBinID,
		PerformedBy:    tenant.UserID(ctx),
	}
	if err := st.RecordMove(ctx, mov); err != nil {
		return "", err
	}
	return mov.ID, nil
}

// AdjustTo lleva los totales del producto a los objetivos dados. Las alzas de
// on_hand aplican al bin de menor índice; las bajas se toman codiciosamente
// del bin con más stock libre. Siempre escribe reason=adjust, tanto para
// alzas como para bajas.
func (c *Coordinator) AdjustTo(ctx context.Context, r Repos, productID string, targetOnHand, targetReserved *int64) error {
	if targetOnHand == nil && targetReserved == nil {
		return domain.ErrInvalidInput
	}
	if (targetOnHand != nil && *targetOnHand < 0) || (targetReserved != nil && *targetReserved < 0) {
		return domain.ErrInvalidInput
	}
	st := NewStore(r)

	levels, err := r.Levels.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		return domain.NewDomainError(domain.CodeNoLevelsForAdjust, "el producto no tiene niveles registrados")
	}

	var curOnHand, curReserved int64
	for _, l := range levels {
		curOnHand += l.OnHand
		curReserved += l.Reserved
	}
	effOnHand := curOnHand
	if targetOnHand != nil {
		effOnHand = *targetOnHand
	}
	effReserved := curReserved
	if targetReserved != nil {
		effReserved = *targetReserved
	}
	if effReserved > effOnHand {
		return domain.ErrInvalidInput
	}

	// 1) bajar reserved primero: libera margen para las bajas de on_hand
	if effReserved < curReserved {
		remaining := curReserved - effReserved
		byReserved := make([]*entity.QuantityLevel, len(levels))
		copy(byReserved, levels)
		sort.SliceStable(byReserved, func(i, j int) bool { return byReserved[i].Reserved > byReserved[j].Reserved })
		for _, lvl := range byReserved {
			if remaining == 0 {
				break
			}
			amt := min64(lvl.Reserved, remaining)
			if amt <= 0 {
				continue
			}
			if err := st.DecReserved(ctx, lvl, amt); err != nil {
				return err
			}
			remaining -= amt
		}
	}

	// 2) delta de on_hand
	switch {
	case effOnHand > curOnHand:
		delta := effOnHand - curOnHand
		lvl := levels[0] // bin de menor índice (orden asc del listado)
		if err := st.IncOnHand(ctx, lvl, delta); err != nil {
			return err
		}
		bin := lvl.BinID
		if err := st.RecordMove(ctx, &entity.Movement{
			OrganizationID: tenant.OrganizationID(ctx),
			ProductID:      productID,
			Qty:            delta,
			Reason:         entity.MoveReasonAdjust,
			ToBinID:        &bin,
			PerformedBy:    tenant.UserID(ctx),
		}); err != nil {
			return err
		}
	case effOnHand < curOnHand:
		remaining := curOnHand - effOnHand
		byStock := make([]*entity.QuantityLevel, len(levels))
		copy(byStock, levels)
		sort.SliceStable(byStock, func(i, j int) bool { return byStock[i].OnHand > byStock[j].OnHand })
		for _, lvl := range byStock {
			if remaining == 0 {
				break
			}
			amt := min64(lvl.OnHand-lvl.Reserved, remaining)
			if amt <= 0 {
				continue
			}
			if err := st.DecOnHand(ctx, lvl, amt); err != nil {
				return err
			}
			bin := lvl.BinID
			if err := st.RecordMove(ctx, &entity.Movement{
				OrganizationID: tenant.OrganizationID(ctx),
				ProductID:      productID,
				Qty:            amt,
				Reason:         entity.MoveReasonAdjust,
				FromBinID:      &bin,
				PerformedBy:    tenant.UserID(ctx),
			}); err != nil {
				return err
			}
			remaining -= amt
		}
		if remaining > 0 {
			return domain.ErrInsufficientStock
		}
	}

	// 3) subir reserved al final, cuando ya hay on_hand suficiente
	if effReserved > curReserved {
		remaining := effReserved - curReserved
		for _, lvl := range levels {
			if remaining == 0 {
				break
			}
			amt := min64(lvl.Available(), remaining)
			if amt <= 0 {
				continue
			}
			if err := st.IncReserved(ctx, lvl, amt); err != nil {
				return err
			}
			remaining -= amt
		}
		if remaining > 0 {
			return domain.ErrInsufficientStock
		}
	}
	return nil
}

// WriteOffProduct da de baja todas las existencias del producto (archivo):
// un movimiento reason=adjust por bin con on_hand>0 y niveles en cero.
// Las lecturas posteriores tratan la ausencia como cero.
func (c *Coordinator) WriteOffProduct(ctx context.Context, r Repos, productID string) error {
	st := NewStore(r)
	levels, err := r.Levels.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	for _, lvl := range levels {
		if lvl.OnHand > 0 {
			bin := lvl.BinID
			if err := st.RecordMove(ctx, &entity.Movement{
				OrganizationID: tenant.OrganizationID(ctx),
				ProductID:      productID,
				Qty:            lvl.OnHand,
				Reason:         entity.MoveReasonAdjust,
				FromBinID:      &bin,
				PerformedBy:    tenant.UserID(ctx),
			}); err != nil {
				return err
			}
		}
		if lvl.OnHand != 0 || lvl.Reserved != 0 {
			lvl.OnHand = 0
			lvl.Reserved = 0
			if err := r.Levels.Update(ctx, lvl); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedBins(dist map[string]int64) []string {
	bins := make([]string, 0, len(dist))
	for b := range dist {
		bins = append(bins, b)
	}
	sort.Strings(bins)
	return bins
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
