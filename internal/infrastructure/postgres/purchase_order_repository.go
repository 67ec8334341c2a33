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

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL (pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, organization_id, supplier, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	createdBy := (*string)(nil)
	if po.CreatedBy != "" {
		createdBy = &po.CreatedBy
	}
	if _, err := r.q.Exec(ctx, query,
		po.ID, po.OrganizationID, po.Supplier, po.Status, createdBy, po.CreatedAt, po.UpdatedAt); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	for _, l := range po.Lines {
		lineQuery := `
			INSERT INTO purchase_order_lines (id, purchase_order_id, product_id, qty_ordered, qty_received, unit_cost, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.PurchaseOrderID, l.ProductID, l.QtyOrdered, l.QtyReceived, l.UnitCost, l.CreatedAt, l.UpdatedAt); err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden con sus líneas, o nil.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea y devuelve la orden con sus líneas, o nil.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, organization_id, supplier, status, COALESCE(created_by, ''), created_at, updated_at
		FROM purchase_orders
		WHERE id = $1 AND ($2 = '' OR organization_id = $2)`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var po entity.PurchaseOrder
	err := r.q.QueryRow(ctx, query, id, scopeOrg(ctx)).Scan(
		&po.ID, &po.OrganizationID, &po.Supplier, &po.Status, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	linesQuery := `
		SELECT id, purchase_order_id, product_id, qty_ordered, qty_received, unit_cost, created_at, updated_at
		FROM purchase_order_lines
		WHERE purchase_order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.QtyOrdered, &l.QtyReceived, &l.UnitCost, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		po.Lines = append(po.Lines, &l)
	}
	return &po, rows.Err()
}

// UpdateLine persiste el avance de recepción de la línea.
func (r *PurchaseOrderRepo) UpdateLine(ctx context.Context, l *entity.PurchaseOrderLine) error {
	query := `
		UPDATE purchase_order_lines
		SET qty_received = $2, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, l.ID, l.QtyReceived)
	if err != nil {
		return fmt.Errorf("update purchase order line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus persiste el estado re-evaluado de la orden.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE purchase_orders SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
