package dto

import "time"

// CreateWorkOrderPartRequest línea de repuesto de una orden nueva.
type CreateWorkOrderPartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
}

// CreateWorkOrderRequest entrada para abrir una orden de trabajo.
type CreateWorkOrderRequest struct {
	CustomerID  string                        `json:"customer_id"`
	Description string                        `json:"description" validate:"max=500"`
	Parts       []CreateWorkOrderPartRequest  `json:"parts" validate:"required,min=1,dive"`
}

// ReservePartRequest reserva stock para una parte. Para productos serializados
// van los seriales concretos; para granel va qty.
type ReservePartRequest struct {
	PartID    string   `json:"part_id" validate:"required,uuid"`
	Qty       int64    `json:"qty"`
	SerialIDs []string `json:"serial_ids"`
}

// ReservePartsRequest entrada del verbo reserve de la orden.
type ReservePartsRequest struct {
	Items []ReservePartRequest `json:"items" validate:"required,min=1,dive"`
}

// PickPartRequest retiro físico de unidades ya reservadas de un bin.
type PickPartRequest struct {
	PartID    string   `json:"part_id" validate:"required,uuid"`
	BinID     string   `json:"bin_id" validate:"required,uuid"`
	Qty       int64    `json:"qty"`
	SerialIDs []string `json:"serial_ids"`
}

// ReturnPartRequest devolución de unidades al bin. Source indica de dónde
// vuelven (picked o reserved); Faulty evita el reingreso.
type ReturnPartRequest struct {
	PartID    string   `json:"part_id" validate:"required,uuid"`
	BinID     string   `json:"bin_id" validate:"required,uuid"`
	Qty       int64    `json:"qty"`
	Source    string   `json:"source" validate:"required,oneof=picked reserved"`
	Faulty    bool     `json:"faulty"`
	SerialIDs []string `json:"serial_ids"`
}

// UpdateWorkOrderStatusRequest transición de estado con nota opcional.
type UpdateWorkOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress done canceled"`
	Note   string `json:"note" validate:"max=500"`
}

// WorkOrderPartResponse línea de repuesto con sus contadores.
type WorkOrderPartResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	QtyNeeded   int64  `json:"qty_needed"`
	QtyReserved int64  `json:"qty_reserved"`
	QtyPicked   int64  `json:"qty_picked"`
}

// WorkOrderResponse salida de una orden de trabajo.
type WorkOrderResponse struct {
	ID          string                  `json:"id"`
	CustomerID  *string                 `json:"customer_id,omitempty"`
	Status      string                  `json:"status"`
	Description string                  `json:"description"`
	Parts       []WorkOrderPartResponse `json:"parts"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// WorkOrderStatusLogResponse fila del historial de estados.
type WorkOrderStatusLogResponse struct {
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	Note        string    `json:"note,omitempty"`
	PerformedBy string    `json:"performed_by"`
	CreatedAt   time.Time `json:"created_at"`
}
