package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var _ repository.WorkOrderRepository = (*WorkOrderRepo)(nil)

// WorkOrderRepo órdenes de trabajo y sus partes sobre PostgreSQL (pool o tx).
type WorkOrderRepo struct {
	q Querier
}

// NewWorkOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWorkOrderRepository(q Querier) *WorkOrderRepo {
	return &WorkOrderRepo{q: q}
}

// Create persiste la orden con sus partes.
func (r *WorkOrderRepo) Create(ctx context.Context, wo *entity.WorkOrder) error {
	query := `
		INSERT INTO work_orders (id, organization_id, customer_id, status, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	createdBy := (*string)(nil)
	if wo.CreatedBy != "" {
		createdBy = &wo.CreatedBy
	}
	if _, err := r.q.Exec(ctx, query,
		wo.ID, wo.OrganizationID, wo.CustomerID, wo.Status, wo.Description, createdBy, wo.CreatedAt, wo.UpdatedAt); err != nil {
		return fmt.Errorf("insert work order: %w", err)
	}
	for _, p := range wo.Parts {
		partQuery := `
			INSERT INTO work_order_parts (id, work_order_id, product_id, qty_needed, qty_reserved, qty_picked, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := r.q.Exec(ctx, partQuery,
			p.ID, p.WorkOrderID, p.ProductID, p.QtyNeeded, p.QtyReserved, p.QtyPicked, p.CreatedAt, p.UpdatedAt); err != nil {
			return fmt.Errorf("insert work order part: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus partes, o nil.
func (r *WorkOrderRepo) GetByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea y devuelve la orden con sus partes, o nil.
func (r *WorkOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return r.get(ctx, id, true)
}

func (r *WorkOrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.WorkOrder, error) {
	query := `
		SELECT id, organization_id, customer_id, status, description, COALESCE(created_by, ''), created_at, updated_at
		FROM work_orders
		WHERE id = $1 AND ($2 = '' OR organization_id = $2)`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var wo entity.WorkOrder
	err := r.q.QueryRow(ctx, query, id, scopeOrg(ctx)).Scan(
		&wo.ID, &wo.OrganizationID, &wo.CustomerID, &wo.Status, &wo.Description, &wo.CreatedBy, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get work order: %w", err)
	}

	partsQuery := `
		SELECT id, work_order_id, product_id, qty_needed, qty_reserved, qty_picked, created_at, updated_at
		FROM work_order_parts
		WHERE work_order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, partsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list work order parts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.WorkOrderPart
		if err := rows.Scan(&p.ID, &p.WorkOrderID, &p.ProductID, &p.QtyNeeded, &p.QtyReserved, &p.QtyPicked, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan work order part: %w", err)
		}
		wo.Parts = append(wo.Parts, &p)
	}
	return &wo, rows.Err()
}

// GetPartForUpdate bloquea y devuelve la parte, o nil. El scope del tenant se
// valida a través de la orden dueña.
func (r *WorkOrderRepo) GetPartForUpdate(ctx context.Context, partID string) (*entity.WorkOrderPart, error) {
	query := `
		SELECT p.id, p.work_order_id, p.product_id, p.qty_needed, p.qty_reserved, p.qty_picked, p.created_at, p.updated_at
		FROM work_order_parts p
		JOIN work_orders wo ON wo.id = p.work_order_id
		WHERE p.id = $1 AND ($2 = '' OR wo.organization_id = $2)
		FOR UPDATE OF p`
	var p entity.WorkOrderPart
	err := r.q.QueryRow(ctx, query, partID, scopeOrg(ctx)).Scan(
		&p.ID, &p.WorkOrderID, &p.ProductID, &p.QtyNeeded, &p.QtyReserved, &p.QtyPicked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get part for update: %w", err)
	}
	return &p, nil
}

// UpdatePart persiste los contadores de la parte.
func (r *WorkOrderRepo) UpdatePart(ctx context.Context, p *entity.WorkOrderPart) error {
	query := `
		UPDATE work_order_parts
		SET qty_needed = $2, qty_reserved = $3, qty_picked = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.QtyNeeded, p.QtyReserved, p.QtyPicked)
	if err != nil {
		return fmt.Errorf("update part: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus persiste el estado de la orden.
func (r *WorkOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE work_orders SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendStatusLog agrega la fila de historial de la transición.
func (r *WorkOrderRepo) AppendStatusLog(ctx context.Context, l *entity.WorkOrderStatusLog) error {
	query := `
		INSERT INTO work_order_status_log (id, work_order_id, from_status, to_status, note, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	performedBy := (*string)(nil)
	if l.PerformedBy != "" {
		performedBy = &l.PerformedBy
	}
	if _, err := r.q.Exec(ctx, query, l.ID, l.WorkOrderID, l.FromStatus, l.ToStatus, l.Note, performedBy, l.CreatedAt); err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return nil
}

// ListStatusLog devuelve el historial de la orden en orden cronológico.
func (r *WorkOrderRepo) ListStatusLog(ctx context.Context, workOrderID string) ([]*entity.WorkOrderStatusLog, error) {
	query := `
		SELECT id, work_order_id, from_status, to_status, note, COALESCE(performed_by, ''), created_at
		FROM work_order_status_log
		WHERE work_order_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}
	defer rows.Close()

	var out []*entity.WorkOrderStatusLog
	for rows.Next() {
		var l entity.WorkOrderStatusLog
		if err := rows.Scan(&l.ID, &l.WorkOrderID, &l.FromStatus, &l.ToStatus, &l.Note, &l.PerformedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
