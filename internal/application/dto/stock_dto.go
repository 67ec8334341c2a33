package dto

import "time"

// MoveRequest entrada del movimiento manual de stock.
// Reglas por razón: transfer exige from_bin y to_bin distintos; receive exige
// to_bin; rma_out exige from_bin; adjust admite uno u otro según el signo.
type MoveRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required,oneof=receive adjust transfer rma_out"`
	FromBinID string `json:"from_bin_id"`
	ToBinID   string `json:"to_bin_id"`
}

// MoveResponse salida del movimiento manual.
type MoveResponse struct {
	OK         bool   `json:"ok"`
	MovementID string `json:"movement_id"`
}

// AdjustLevelsRequest lleva los totales del producto a los objetivos dados.
// Un campo nulo deja ese total como está.
type AdjustLevelsRequest struct {
	OnHand   *int64 `json:"on_hand" validate:"omitempty,min=0"`
	Reserved *int64 `json:"reserved" validate:"omitempty,min=0"`
}

// MovementResponse fila del historial de movimientos.
type MovementResponse struct {
	ID                  string    `json:"id"`
	ProductID           string    `json:"product_id"`
	Qty                 int64     `json:"qty"`
	Reason              string    `json:"reason"`
	FromBinID           *string   `json:"from_bin_id,omitempty"`
	ToBinID             *string   `json:"to_bin_id,omitempty"`
	WorkOrderID         *string   `json:"work_order_id,omitempty"`
	WorkOrderPartID     *string   `json:"work_order_part_id,omitempty"`
	SaleID              *string   `json:"sale_id,omitempty"`
	SaleItemID          *string   `json:"sale_item_id,omitempty"`
	PurchaseOrderLineID *string   `json:"purchase_order_line_id,omitempty"`
	SerialItemID        *string   `json:"serial_item_id,omitempty"`
	PerformedBy         string    `json:"performed_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// SerialItemResponse fila del tracker de seriales.
type SerialItemResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	Serial      string    `json:"serial"`
	Status      string    `json:"status"`
	BinID       *string   `json:"bin_id,omitempty"`
	WorkOrderID *string   `json:"work_order_id,omitempty"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// MarkFaultyRequest baja manual de un serial defectuoso.
type MarkFaultyRequest struct {
	SerialItemID string `json:"serial_item_id" validate:"required,uuid"`
}
