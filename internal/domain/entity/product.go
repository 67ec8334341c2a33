package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-bin).
// El stock se maneja por bin en QuantityLevel; archivar nunca borra:
// Active=false y las existencias se dan de baja vía write-off.
type Product struct {
	ID             string
	OrganizationID string
	SKU            string // único por organización
	Name           string
	Description    string
	UnitMeasure    string
	TrackSerial    bool  // true: cada unidad tiene SerialItem propio
	ReorderPoint   int64 // >= 0
	LeadTimeDays   int   // >= 0
	UnitPrice      decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
