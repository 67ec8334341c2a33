package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

var _ repository.SerialRepository = (*SerialRepo)(nil)

// SerialRepo tracker de unidades serializadas sobre PostgreSQL (pool o tx).
type SerialRepo struct {
	q Querier
}

// NewSerialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSerialRepository(q Querier) *SerialRepo {
	return &SerialRepo{q: q}
}

const serialColumns = `id, organization_id, product_id, serial, bin_id, status, work_order_id, last_seen_at, created_at`

func scanSerial(row pgx.Row) (*entity.SerialItem, error) {
	var s entity.SerialItem
	err := row.Scan(&s.ID, &s.OrganizationID, &s.ProductID, &s.Serial, &s.BinID, &s.Status, &s.WorkOrderID, &s.LastSeenAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetForUpdate bloquea y devuelve el serial, o nil.
func (r *SerialRepo) GetForUpdate(ctx context.Context, id string) (*entity.SerialItem, error) {
	query := `
		SELECT ` + serialColumns + `
		FROM serial_items
		WHERE id = $1 AND ($2 = '' OR organization_id = $2)
		FOR UPDATE`
	s, err := scanSerial(r.q.QueryRow(ctx, query, id, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get serial for update: %w", err)
	}
	return s, nil
}

// GetBySerialForUpdate bloquea por (producto, serial), o nil.
func (r *SerialRepo) GetBySerialForUpdate(ctx context.Context, productID, serial string) (*entity.SerialItem, error) {
	query := `
		SELECT ` + serialColumns + `
		FROM serial_items
		WHERE product_id = $1 AND serial = $2 AND ($3 = '' OR organization_id = $3)
		FOR UPDATE`
	s, err := scanSerial(r.q.QueryRow(ctx, query, productID, serial, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get serial by code for update: %w", err)
	}
	return s, nil
}

// ListByIDsForUpdate bloquea los seriales en orden (product_id, id) ascendente.
func (r *SerialRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]*entity.SerialItem, error) {
	query := `
		SELECT ` + serialColumns + `
		FROM serial_items
		WHERE id = ANY($1) AND ($2 = '' OR organization_id = $2)
		ORDER BY product_id, id
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, ids, scopeOrg(ctx))
	if err != nil {
		return nil, fmt.Errorf("list serials for update: %w", err)
	}
	defer rows.Close()
	return collectSerials(rows)
}

// ListByProduct lista los seriales del producto.
func (r *SerialRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.SerialItem, error) {
	query := `
		SELECT ` + serialColumns + `
		FROM serial_items
		WHERE product_id = $1 AND ($2 = '' OR organization_id = $2)
		ORDER BY serial`
	rows, err := r.q.Query(ctx, query, productID, scopeOrg(ctx))
	if err != nil {
		return nil, fmt.Errorf("list serials: %w", err)
	}
	defer rows.Close()
	return collectSerials(rows)
}

func collectSerials(rows pgx.Rows) ([]*entity.SerialItem, error) {
	var out []*entity.SerialItem
	for rows.Next() {
		var s entity.SerialItem
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.ProductID, &s.Serial, &s.BinID, &s.Status, &s.WorkOrderID, &s.LastSeenAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan serial: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Create inserta el serial.
func (r *SerialRepo) Create(ctx context.Context, s *entity.SerialItem) error {
	query := `
		INSERT INTO serial_items (id, organization_id, product_id, serial, bin_id, status, work_order_id, last_seen_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.OrganizationID, s.ProductID, s.Serial, s.BinID, s.Status, s.WorkOrderID, s.LastSeenAt, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert serial: %w", err)
	}
	return nil
}

// Update persiste estado, bin y orden del serial.
func (r *SerialRepo) Update(ctx context.Context, s *entity.SerialItem) error {
	query := `
		UPDATE serial_items
		SET bin_id = $2, status = $3, work_order_id = $4, last_seen_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.BinID, s.Status, s.WorkOrderID, s.LastSeenAt)
	if err != nil {
		return fmt.Errorf("update serial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update serial: fila inexistente %s", s.ID)
	}
	return nil
}

// UpsertAvailable registra (o reactiva) el serial como disponible en el bin.
func (r *SerialRepo) UpsertAvailable(ctx context.Context, productID, serial, binID string) (*entity.SerialItem, error) {
	existing, err := r.GetBySerialForUpdate(ctx, productID, serial)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if existing != nil {
		existing.Status = entity.SerialStatusAvailable
		existing.BinID = &binID
		existing.WorkOrderID = nil
		existing.LastSeenAt = now
		if err := r.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	s := &entity.SerialItem{
		ID:             uuid.New().String(),
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		Serial:         serial,
		BinID:          &binID,
		Status:         entity.SerialStatusAvailable,
		LastSeenAt:     now,
		CreatedAt:      now,
	}
	if err := r.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateAssignment agrega la fila de asignación (serial, parte).
func (r *SerialRepo) CreateAssignment(ctx context.Context, a *entity.SerialAssignment) error {
	query := `
		INSERT INTO serial_assignments (id, serial_item_id, work_order_part_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, a.ID, a.SerialItemID, a.WorkOrderPartID, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// LatestAssignment última asignación del par (serial, parte), o nil.
func (r *SerialRepo) LatestAssignment(ctx context.Context, serialItemID, workOrderPartID string) (*entity.SerialAssignment, error) {
	query := `
		SELECT id, serial_item_id, work_order_part_id, status, created_at, updated_at
		FROM serial_assignments
		WHERE serial_item_id = $1 AND work_order_part_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var a entity.SerialAssignment
	err := r.q.QueryRow(ctx, query, serialItemID, workOrderPartID).Scan(
		&a.ID, &a.SerialItemID, &a.WorkOrderPartID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest assignment: %w", err)
	}
	return &a, nil
}
