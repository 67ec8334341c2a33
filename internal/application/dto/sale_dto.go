package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleItemRequest línea de venta nueva.
type CreateSaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Qty       int64           `json:"qty" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest entrada para crear una venta. La creación reserva stock
// (parcial permitido): el faltante queda en backorder.
type CreateSaleRequest struct {
	CustomerID string                  `json:"customer_id"`
	Notes      string                  `json:"notes" validate:"max=500"`
	Items      []CreateSaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateSaleRequest detalle editable de una venta abierta.
type UpdateSaleRequest struct {
	CustomerID *string `json:"customer_id"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

// SaleItemResponse línea de venta con sus contadores.
type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	QtyOrdered  int64           `json:"qty_ordered"`
	QtyReserved int64           `json:"qty_reserved"`
	QtyShipped  int64           `json:"qty_shipped"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes,omitempty"`
	ReservedAt    *time.Time         `json:"reserved_at,omitempty"`
	BackorderedAt *time.Time         `json:"backordered_at,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	CanceledAt    *time.Time         `json:"canceled_at,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
