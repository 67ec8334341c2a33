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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y sus líneas sobre PostgreSQL (pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta con sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, organization_id, customer_id, status, notes,
			reserved_at, backordered_at, completed_at, canceled_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	createdBy := (*string)(nil)
	if s.CreatedBy != "" {
		createdBy = &s.CreatedBy
	}
	if _, err := r.q.Exec(ctx, query,
		s.ID, s.OrganizationID, s.CustomerID, s.Status, s.Notes,
		s.ReservedAt, s.BackorderedAt, s.CompletedAt, s.CanceledAt, createdBy, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, i := range s.Items {
		itemQuery := `
			INSERT INTO sale_items (id, sale_id, product_id, qty_ordered, qty_reserved, qty_shipped, unit_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		if _, err := r.q.Exec(ctx, itemQuery,
			i.ID, i.SaleID, i.ProductID, i.QtyOrdered, i.QtyReserved, i.QtyShipped, i.UnitPrice, i.CreatedAt, i.UpdatedAt); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la venta con sus líneas, o nil.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea y devuelve la venta con sus líneas, o nil.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, id, true)
}

func (r *SaleRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Sale, error) {
	query := `
		SELECT id, organization_id, customer_id, status, notes,
		       reserved_at, backordered_at, completed_at, canceled_at, COALESCE(created_by, ''), created_at, updated_at
		FROM sales
		WHERE id = $1 AND ($2 = '' OR organization_id = $2)`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id, scopeOrg(ctx)).Scan(
		&s.ID, &s.OrganizationID, &s.CustomerID, &s.Status, &s.Notes,
		&s.ReservedAt, &s.BackorderedAt, &s.CompletedAt, &s.CanceledAt, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	itemsQuery := `
		SELECT id, sale_id, product_id, qty_ordered, qty_reserved, qty_shipped, unit_price, created_at, updated_at
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var i entity.SaleItem
		if err := rows.Scan(&i.ID, &i.SaleID, &i.ProductID, &i.QtyOrdered, &i.QtyReserved, &i.QtyShipped, &i.UnitPrice, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		s.Items = append(s.Items, &i)
	}
	return &s, rows.Err()
}

// Update persiste estado, detalle y sellos de tiempo de la venta.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales
		SET customer_id = $2, status = $3, notes = $4,
		    reserved_at = $5, backordered_at = $6, completed_at = $7, canceled_at = $8, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.CustomerID, s.Status, s.Notes, s.ReservedAt, s.BackorderedAt, s.CompletedAt, s.CanceledAt)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItem persiste los contadores de la línea.
func (r *SaleRepo) UpdateItem(ctx context.Context, i *entity.SaleItem) error {
	query := `
		UPDATE sale_items
		SET qty_reserved = $2, qty_shipped = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, i.ID, i.QtyReserved, i.QtyShipped)
	if err != nil {
		return fmt.Errorf("update sale item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
