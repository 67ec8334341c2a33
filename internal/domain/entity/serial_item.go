package entity

import "time"

// Estados de un SerialItem.
const (
	SerialStatusAvailable = "available"
	SerialStatusReserved  = "reserved"
	SerialStatusAssigned  = "assigned"
	SerialStatusReturned  = "returned"
	SerialStatusFaulty    = "faulty"
)

// SerialItem es la máquina de estados por unidad de un producto serializado.
// Invariantes: status=available implica BinID asignado; status=assigned
// implica BinID nulo. Un serial nunca pertenece a dos órdenes a la vez.
// Nunca se borra físicamente.
type SerialItem struct {
	ID             string
	OrganizationID string
	ProductID      string
	Serial         string // único por organización+producto
	BinID          *string
	Status         string
	WorkOrderID    *string
	LastSeenAt     time.Time
	CreatedAt      time.Time
}

// Estados de un SerialAssignment.
const (
	AssignmentStatusReserved = "reserved"
	AssignmentStatusPicked   = "picked"
	AssignmentStatusReturned = "returned"
	AssignmentStatusReleased = "released"
	AssignmentStatusFaulty   = "faulty"
)

// SerialAssignment vincula un serial con una parte de orden de trabajo.
// Se agrega una fila por reserve/pick/return; la última por (serial, parte)
// refleja la intención vigente.
type SerialAssignment struct {
	ID              string
	SerialItemID    string
	WorkOrderPartID string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
