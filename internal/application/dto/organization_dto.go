package dto

import "time"

// CreateOrganizationRequest alta de un tenant.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// UpdateOrganizationRequest configuración editable del tenant.
type UpdateOrganizationRequest struct {
	Name                  *string `json:"name" validate:"omitempty,min=1,max=200"`
	LowStockAlertsEnabled *bool   `json:"low_stock_alerts_enabled"`
}

// OrganizationResponse salida de un tenant.
type OrganizationResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	LowStockAlertsEnabled bool      `json:"low_stock_alerts_enabled"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
