// Package tenant porta el organization_id de forma implícita en el context.
// El middleware de auth lo fija al entrar al adaptador; los repositorios lo
// exigen en cada lectura y escritura salvo que se active el bypass explícito
// (bootstrap, barridos administrativos, scanner de bajo stock).
package tenant

import "context"

type ctxKey int

const (
	orgKey ctxKey = iota
	userKey
	bypassKey
)

// WithOrganization fija el tenant activo en el context.
func WithOrganization(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrganizationID devuelve el tenant activo, o "" si no hay binding.
func OrganizationID(ctx context.Context) string {
	if v, ok := ctx.Value(orgKey).(string); ok {
		return v
	}
	return ""
}

// WithUser fija el usuario que ejecuta la operación (performed_by en movimientos).
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// UserID devuelve el usuario activo, o "" si no hay binding.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userKey).(string); ok {
		return v
	}
	return ""
}

// WithBypass marca el context para lecturas cross-tenant (solo jobs administrativos).
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey, true)
}

// Bypassed indica si el context permite saltar el filtro de tenant.
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey).(bool)
	return v
}
