package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

var _ repository.QuantityLevelRepository = (*QuantityLevelRepo)(nil)

// QuantityLevelRepo implementación del almacén de niveles sobre PostgreSQL
// (usable con pool o tx).
type QuantityLevelRepo struct {
	q Querier
}

// NewQuantityLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuantityLevelRepository(q Querier) *QuantityLevelRepo {
	return &QuantityLevelRepo{q: q}
}

const levelColumns = `organization_id, product_id, bin_id, on_hand, reserved, updated_at`

func scanLevel(row pgx.Row) (*entity.QuantityLevel, error) {
	var l entity.QuantityLevel
	err := row.Scan(&l.OrganizationID, &l.ProductID, &l.BinID, &l.OnHand, &l.Reserved, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Get devuelve el nivel o nil: la ausencia de fila equivale a cero.
func (r *QuantityLevelRepo) Get(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM quantity_levels
		WHERE product_id = $1 AND bin_id = $2 AND ($3 = '' OR organization_id = $3)`
	l, err := scanLevel(r.q.QueryRow(ctx, query, productID, binID, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get level: %w", err)
	}
	return l, nil
}

// GetForUpdate bloquea y devuelve el nivel, o nil si no hay fila.
func (r *QuantityLevelRepo) GetForUpdate(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM quantity_levels
		WHERE product_id = $1 AND bin_id = $2 AND ($3 = '' OR organization_id = $3)
		FOR UPDATE`
	l, err := scanLevel(r.q.QueryRow(ctx, query, productID, binID, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get level for update: %w", err)
	}
	return l, nil
}

// Ensure crea la fila en cero si falta y la devuelve bloqueada.
func (r *QuantityLevelRepo) Ensure(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	query := `
		INSERT INTO quantity_levels (organization_id, product_id, bin_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (product_id, bin_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, tenant.OrganizationID(ctx), productID, binID); err != nil {
		return nil, fmt.Errorf("ensure level: %w", err)
	}
	return r.GetForUpdate(ctx, productID, binID)
}

// ListByProduct lista los niveles del producto ordenados por bin.
func (r *QuantityLevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.QuantityLevel, error) {
	return r.listByProduct(ctx, productID, false)
}

// ListByProductForUpdate bloquea todos los niveles del producto en orden
// (product_id, bin_id) ascendente: todos los escritores adquieren los locks
// en el mismo orden.
func (r *QuantityLevelRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.QuantityLevel, error) {
	return r.listByProduct(ctx, productID, true)
}

func (r *QuantityLevelRepo) listByProduct(ctx context.Context, productID string, forUpdate bool) ([]*entity.QuantityLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM quantity_levels
		WHERE product_id = $1 AND ($2 = '' OR organization_id = $2)
		ORDER BY product_id, bin_id`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, productID, scopeOrg(ctx))
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	var out []*entity.QuantityLevel
	for rows.Next() {
		var l entity.QuantityLevel
		if err := rows.Scan(&l.OrganizationID, &l.ProductID, &l.BinID, &l.OnHand, &l.Reserved, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Update persiste los contadores del nivel.
func (r *QuantityLevelRepo) Update(ctx context.Context, level *entity.QuantityLevel) error {
	query := `
		UPDATE quantity_levels
		SET on_hand = $3, reserved = $4, updated_at = now()
		WHERE product_id = $1 AND bin_id = $2`
	tag, err := r.q.Exec(ctx, query, level.ProductID, level.BinID, level.OnHand, level.Reserved)
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update level: fila inexistente %s/%s", level.ProductID, level.BinID)
	}
	return nil
}

// Overview agrega on_hand/reserved por producto activo del tenant.
func (r *QuantityLevelRepo) Overview(ctx context.Context) ([]repository.ProductStockOverview, error) {
	query := `
		SELECT p.id, p.sku, p.name, p.track_serial,
		       COALESCE(SUM(l.on_hand), 0), COALESCE(SUM(l.reserved), 0), p.reorder_point
		FROM products p
		LEFT JOIN quantity_levels l ON l.product_id = p.id
		WHERE p.organization_id = $1 AND p.active
		GROUP BY p.id, p.sku, p.name, p.track_serial, p.reorder_point
		ORDER BY p.sku`
	rows, err := r.q.Query(ctx, query, tenant.OrganizationID(ctx))
	if err != nil {
		return nil, fmt.Errorf("stock overview: %w", err)
	}
	defer rows.Close()

	var out []repository.ProductStockOverview
	for rows.Next() {
		var o repository.ProductStockOverview
		if err := rows.Scan(&o.ProductID, &o.SKU, &o.Name, &o.TrackSerial, &o.OnHand, &o.Reserved, &o.ReorderPoint); err != nil {
			return nil, fmt.Errorf("scan overview: %w", err)
		}
		o.Available = o.OnHand - o.Reserved
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListAtOrBelowReorderPoint productos activos con disponible <= punto de
// reorden. El tenant viene explícito porque lo usan barridos con bypass.
func (r *QuantityLevelRepo) ListAtOrBelowReorderPoint(ctx context.Context, organizationID string) ([]repository.LowStockItem, error) {
	query := `
		SELECT p.id, p.sku, p.name,
		       COALESCE(SUM(l.on_hand - l.reserved), 0) AS available,
		       p.reorder_point, p.lead_time_days
		FROM products p
		LEFT JOIN quantity_levels l ON l.product_id = p.id
		WHERE p.organization_id = $1 AND p.active
		GROUP BY p.id, p.sku, p.name, p.reorder_point, p.lead_time_days
		HAVING COALESCE(SUM(l.on_hand - l.reserved), 0) <= p.reorder_point
		ORDER BY p.sku`
	rows, err := r.q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	defer rows.Close()

	var out []repository.LowStockItem
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Name, &it.Available, &it.ReorderPoint, &it.LeadTimeDays); err != nil {
			return nil, fmt.Errorf("scan low stock: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
