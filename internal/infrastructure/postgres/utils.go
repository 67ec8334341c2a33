package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// Querier es el común denominador de pgxpool.Pool y pgx.Tx: los repos aceptan
// cualquiera de los dos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isSerializationFailure verifica si un error es un fallo de serialización (40001),
// el caso reintentable de las transacciones serializables.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" // serialization_failure
	}
	return strings.Contains(err.Error(), "40001")
}

// unscopedOrg nunca coincide con un organization_id real (son UUIDs): un
// contexto sin tenant y sin bypass no lee ninguna fila.
const unscopedOrg = "tenant-unscoped"

// scopeOrg devuelve el tenant a filtrar, o "" cuando el contexto trae bypass.
// Las queries usan el patrón ($n = '' OR organization_id = $n); solo el bypass
// puede abrir el filtro, un contexto sin tenant cierra la query.
func scopeOrg(ctx context.Context) string {
	if tenant.Bypassed(ctx) {
		return ""
	}
	if org := tenant.OrganizationID(ctx); org != "" {
		return org
	}
	return unscopedOrg
}
