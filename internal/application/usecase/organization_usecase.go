package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// OrganizationUseCase administración de tenants. El alta corre con bypass de
// scope porque todavía no hay tenant en el contexto.
type OrganizationUseCase struct {
	orgs repository.OrganizationRepository
}

// NewOrganizationUseCase construye el caso de uso.
func NewOrganizationUseCase(orgs repository.OrganizationRepository) *OrganizationUseCase {
	return &OrganizationUseCase{orgs: orgs}
}

// Create da de alta una organización con alertas de bajo stock habilitadas.
func (uc *OrganizationUseCase) Create(ctx context.Context, in dto.CreateOrganizationRequest) (*entity.Organization, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	o := &entity.Organization{
		ID:                    uuid.New().String(),
		Name:                  in.Name,
		LowStockAlertsEnabled: true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.orgs.Create(tenant.WithBypass(ctx), o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get devuelve la organización del contexto.
func (uc *OrganizationUseCase) Get(ctx context.Context) (*entity.Organization, error) {
	o, err := uc.orgs.GetByID(ctx, tenant.OrganizationID(ctx))
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// Update edita nombre y preferencia de alertas de la organización del contexto.
func (uc *OrganizationUseCase) Update(ctx context.Context, in dto.UpdateOrganizationRequest) (*entity.Organization, error) {
	o, err := uc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, domain.ErrInvalidInput
		}
		o.Name = *in.Name
	}
	if in.LowStockAlertsEnabled != nil {
		o.LowStockAlertsEnabled = *in.LowStockAlertsEnabled
	}
	o.UpdatedAt = time.Now()
	if err := uc.orgs.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
