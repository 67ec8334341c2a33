package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

func TestScopeOrg_ContextoConTenant(t *testing.T) {
	ctx := tenant.WithOrganization(context.Background(), "org-1")
	assert.Equal(t, "org-1", scopeOrg(ctx))
}

func TestScopeOrg_BypassAbreElFiltro(t *testing.T) {
	// solo el bypass explícito devuelve "", que es el brazo abierto del patrón
	// ($n = '' OR organization_id = $n)
	ctx := tenant.WithBypass(context.Background())
	assert.Equal(t, "", scopeOrg(ctx))

	// el bypass gana aunque haya tenant (sweeps que recorren organizaciones)
	ctx = tenant.WithBypass(tenant.WithOrganization(context.Background(), "org-1"))
	assert.Equal(t, "", scopeOrg(ctx))
}

func TestScopeOrg_SinTenantNiBypassCierraLaQuery(t *testing.T) {
	got := scopeOrg(context.Background())
	assert.NotEqual(t, "", got, "un contexto sin tenant no puede abrir el filtro")
	assert.Equal(t, unscopedOrg, got)
}
