package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log append-only de movimientos sobre PostgreSQL (pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta el movimiento; nunca hay updates ni deletes sobre esta tabla.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements
			(id, organization_id, product_id, qty, reason, from_bin_id, to_bin_id,
			 work_order_id, work_order_part_id, sale_id, sale_item_id,
			 purchase_order_line_id, serial_item_id, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	performedBy := (*string)(nil)
	if m.PerformedBy != "" {
		performedBy = &m.PerformedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OrganizationID, m.ProductID, m.Qty, m.Reason, m.FromBinID, m.ToBinID,
		m.WorkOrderID, m.WorkOrderPartID, m.SaleID, m.SaleItemID,
		m.PurchaseOrderLineID, m.SerialItemID, performedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByProduct devuelve el historial del producto, más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT id, organization_id, product_id, qty, reason, from_bin_id, to_bin_id,
		       work_order_id, work_order_part_id, sale_id, sale_item_id,
		       purchase_order_line_id, serial_item_id, COALESCE(performed_by, ''), created_at
		FROM stock_movements
		WHERE product_id = $1 AND ($2 = '' OR organization_id = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, productID, scopeOrg(ctx), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(
			&m.ID, &m.OrganizationID, &m.ProductID, &m.Qty, &m.Reason, &m.FromBinID, &m.ToBinID,
			&m.WorkOrderID, &m.WorkOrderPartID, &m.SaleID, &m.SaleItemID,
			&m.PurchaseOrderLineID, &m.SerialItemID, &m.PerformedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ReservedDistribution reconstruye la reserva vigente del dueño por bin con la
// suma con signo reserve(+) / release(-) / pick(-) / invoice_sale(-). No hace
// falta cursor ni tabla auxiliar: el log completo es la fuente de verdad.
func (r *MovementRepo) ReservedDistribution(ctx context.Context, owner entity.OwnerRef, productID string) (map[string]int64, error) {
	query := `
		SELECT from_bin_id,
		       SUM(CASE WHEN reason = 'reserve' THEN qty ELSE -qty END) AS pending
		FROM stock_movements
		WHERE product_id = $1
		  AND reason IN ('reserve', 'release', 'pick', 'invoice_sale')
		  AND from_bin_id IS NOT NULL
		  AND ($2::text IS NULL OR work_order_id = $2)
		  AND ($3::text IS NULL OR work_order_part_id = $3)
		  AND ($4::text IS NULL OR sale_id = $4)
		  AND ($5::text IS NULL OR sale_item_id = $5)
		  AND ($6 = '' OR organization_id = $6)
		GROUP BY from_bin_id
		HAVING SUM(CASE WHEN reason = 'reserve' THEN qty ELSE -qty END) > 0`
	rows, err := r.q.Query(ctx, query,
		productID, owner.WorkOrderID, owner.WorkOrderPartID, owner.SaleID, owner.SaleItemID, scopeOrg(ctx))
	if err != nil {
		return nil, fmt.Errorf("reserved distribution: %w", err)
	}
	defer rows.Close()

	dist := map[string]int64{}
	for rows.Next() {
		var bin string
		var qty int64
		if err := rows.Scan(&bin, &qty); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		dist[bin] = qty
	}
	return dist, rows.Err()
}
