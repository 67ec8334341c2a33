package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra.
const (
	PurchaseOrderStatusOrdered           = "ordered"
	PurchaseOrderStatusPartiallyReceived = "partially_received"
	PurchaseOrderStatusReceived          = "received"
)

// PurchaseOrder orden de compra a proveedor; se re-evalúa tras cada recepción.
type PurchaseOrder struct {
	ID             string
	OrganizationID string
	Supplier       string
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []*PurchaseOrderLine
}

// PurchaseOrderLine línea de compra. QtyReceived nunca supera QtyOrdered.
type PurchaseOrderLine struct {
	ID              string
	PurchaseOrderID string
	ProductID       string
	QtyOrdered      int64
	QtyReceived     int64
	UnitCost        decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Complete indica si la línea ya se recibió al completo.
func (l *PurchaseOrderLine) Complete() bool {
	return l.QtyReceived >= l.QtyOrdered
}
