package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Description  string          `json:"description"`
	UnitMeasure  string          `json:"unit_measure" validate:"required"`
	TrackSerial  bool            `json:"track_serial"`
	ReorderPoint int64           `json:"reorder_point" validate:"min=0"`
	LeadTimeDays int             `json:"lead_time_days" validate:"min=0"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// UpdateProductRequest entrada para actualizar un producto (TrackSerial no se
// cambia una vez creado).
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	UnitMeasure  *string          `json:"unit_measure"`
	ReorderPoint *int64           `json:"reorder_point" validate:"omitempty,min=0"`
	LeadTimeDays *int             `json:"lead_time_days" validate:"omitempty,min=0"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	UnitMeasure  string          `json:"unit_measure"`
	TrackSerial  bool            `json:"track_serial"`
	ReorderPoint int64           `json:"reorder_point"`
	LeadTimeDays int             `json:"lead_time_days"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
