package entity

// OwnerRef identifica al dueño de flujo de una reserva (parte de orden de
// trabajo o ítem de venta). Los movimientos reserve/release/pick/invoice_sale
// quedan etiquetados con estas referencias; con ellas el coordinador
// reconstruye la distribución de reservas por bin sin tabla adicional.
type OwnerRef struct {
	WorkOrderID     *string
	WorkOrderPartID *string
	SaleID          *string
	SaleItemID      *string
}

// OwnerWorkOrderPart referencia a una parte de orden de trabajo.
func OwnerWorkOrderPart(workOrderID, partID string) OwnerRef {
	return OwnerRef{WorkOrderID: &workOrderID, WorkOrderPartID: &partID}
}

// OwnerSaleItem referencia a un ítem de venta.
func OwnerSaleItem(saleID, itemID string) OwnerRef {
	return OwnerRef{SaleID: &saleID, SaleItemID: &itemID}
}

// Stamp copia las referencias del dueño al movimiento.
func (o OwnerRef) Stamp(m *Movement) {
	m.WorkOrderID = o.WorkOrderID
	m.WorkOrderPartID = o.WorkOrderPartID
	m.SaleID = o.SaleID
	m.SaleItemID = o.SaleItemID
}
