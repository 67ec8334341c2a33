package entity

import "time"

// Organization es el límite de aislamiento multi-tenant: toda cantidad y
// movimiento pertenece a una organización.
type Organization struct {
	ID                    string
	Name                  string
	LowStockAlertsEnabled bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
