package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseOrderLineRequest línea de compra nueva.
type CreatePurchaseOrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Qty       int64           `json:"qty" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest entrada para abrir una orden de compra.
type CreatePurchaseOrderRequest struct {
	Supplier string                           `json:"supplier" validate:"required,min=1,max=200"`
	Lines    []CreatePurchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiveLineRequest recepción parcial o total de una línea en un bin.
// Para productos serializados Serials debe traer exactamente qty seriales.
type ReceiveLineRequest struct {
	LineID  string   `json:"line_id" validate:"required,uuid"`
	BinID   string   `json:"bin_id" validate:"required,uuid"`
	Qty     int64    `json:"qty" validate:"required,gt=0"`
	Serials []string `json:"serials"`
}

// ReceiveRequest entrada del verbo receive de la orden de compra.
type ReceiveRequest struct {
	Receipts []ReceiveLineRequest `json:"receipts" validate:"required,min=1,dive"`
}

// PurchaseOrderLineResponse línea de compra con su avance.
type PurchaseOrderLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	QtyOrdered  int64           `json:"qty_ordered"`
	QtyReceived int64           `json:"qty_received"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID        string                      `json:"id"`
	Supplier  string                      `json:"supplier"`
	Status    string                      `json:"status"`
	Lines     []PurchaseOrderLineResponse `json:"lines"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
