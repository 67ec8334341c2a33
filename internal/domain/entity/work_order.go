package entity

import "time"

// Estados de una orden de trabajo (taller).
const (
	WorkOrderStatusOpen       = "open"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusDone       = "done"
	WorkOrderStatusCanceled   = "canceled"
)

// WorkOrder es una orden de reparación con partes (repuestos) asociadas.
type WorkOrder struct {
	ID             string
	OrganizationID string
	CustomerID     *string
	Status         string
	Description    string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Parts          []*WorkOrderPart
}

// WorkOrderPart es la línea de flujo de una orden: qué repuesto y cuánto.
// Invariantes: 0 <= QtyReserved <= QtyNeeded; QtyPicked <= QtyNeeded.
// Los contadores solo se mutan en la misma unidad de trabajo que los niveles.
type WorkOrderPart struct {
	ID          string
	WorkOrderID string
	ProductID   string
	QtyNeeded   int64
	QtyReserved int64
	QtyPicked   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkOrderStatusLog historial de transiciones de estado con quién las hizo.
type WorkOrderStatusLog struct {
	ID          string
	WorkOrderID string
	FromStatus  string
	ToStatus    string
	Note        string
	PerformedBy string
	CreatedAt   time.Time
}
