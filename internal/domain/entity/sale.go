package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusPending   = "pending"
	SaleStatusReserved  = "reserved"  // todas las líneas reservadas al completo
	SaleStatusBackorder = "backorder" // alguna línea con faltante
	SaleStatusComplete  = "complete"
	SaleStatusCanceled  = "canceled"
)

// Sale es una venta cuyas líneas reservan stock al crearse (parcial permitido)
// y lo consumen al completarse.
type Sale struct {
	ID             string
	OrganizationID string
	CustomerID     *string
	Status         string
	Notes          string
	ReservedAt     *time.Time // primera reserva, parcial o total
	BackorderedAt  *time.Time // primer faltante registrado
	CompletedAt    *time.Time
	CanceledAt     *time.Time
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []*SaleItem
}

// SaleItem línea de venta. Invariantes: 0 <= QtyReserved <= QtyOrdered;
// QtyShipped <= QtyOrdered.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	QtyOrdered  int64
	QtyReserved int64
	QtyShipped  int64
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullyReserved indica si la línea quedó reservada al completo.
func (i *SaleItem) FullyReserved() bool {
	return i.QtyReserved+i.QtyShipped >= i.QtyOrdered
}
