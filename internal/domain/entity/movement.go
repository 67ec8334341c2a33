package entity

import "time"

// Razones de movimiento de stock.
const (
	MoveReasonReceive     = "receive"      // entrada manual
	MoveReasonReceivePO   = "receive_po"   // recepción de orden de compra
	MoveReasonAdjust      = "adjust"       // ajuste manual (alzas y bajas)
	MoveReasonTransfer    = "transfer"     // traslado entre bins
	MoveReasonReserve     = "reserve"      // reserva (sube reserved)
	MoveReasonRelease     = "release"      // cancelación de reserva
	MoveReasonPick        = "pick"         // salida física de una reserva
	MoveReasonReturn      = "return"       // devolución no defectuosa
	MoveReasonInvoiceSale = "invoice_sale" // consumo por cierre de venta
	MoveReasonRMAOut      = "rma_out"      // baja por defecto (sin reingreso)
)

// Movement es el registro append-only de un cambio de cantidad con su razón.
// Siempre lleva al menos uno de FromBinID/ToBinID. Se inserta en la misma
// unidad de trabajo que la mutación del nivel, y el log completo alcanza para
// reconstruir los contadores desde cero.
type Movement struct {
	ID                  string
	OrganizationID      string
	ProductID           string
	Qty                 int64 // siempre > 0; el signo lo da la razón y los bins
	Reason              string
	FromBinID           *string
	ToBinID             *string
	WorkOrderID         *string
	WorkOrderPartID     *string
	SaleID              *string
	SaleItemID          *string
	PurchaseOrderLineID *string
	SerialItemID        *string
	PerformedBy         string
	CreatedAt           time.Time
}
