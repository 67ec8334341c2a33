package entity

import "time"

// Customer cliente del taller; las órdenes de trabajo y ventas lo referencian.
type Customer struct {
	ID             string
	OrganizationID string
	Name           string
	Email          string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
