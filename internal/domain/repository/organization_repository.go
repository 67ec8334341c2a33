package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// OrganizationRepository puerto de organizaciones (tenants).
type OrganizationRepository interface {
	Create(ctx context.Context, o *entity.Organization) error
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	Update(ctx context.Context, o *entity.Organization) error
	// ListIDs devuelve todos los tenants; solo para jobs con scope-bypass.
	ListIDs(ctx context.Context) ([]string, error)
}
