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

var _ repository.BinRepository = (*BinRepo)(nil)

// BinRepo catálogo de bins sobre PostgreSQL (pool o tx).
type BinRepo struct {
	q Querier
}

// NewBinRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBinRepository(q Querier) *BinRepo {
	return &BinRepo{q: q}
}

func scanBin(row pgx.Row) (*entity.Bin, error) {
	var b entity.Bin
	err := row.Scan(&b.ID, &b.OrganizationID, &b.Code, &b.Location, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Create persiste un bin. El código es único por organización.
func (r *BinRepo) Create(ctx context.Context, b *entity.Bin) error {
	query := `
		INSERT INTO bins (id, organization_id, code, location, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, b.ID, b.OrganizationID, b.Code, b.Location, b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert bin: %w", err)
	}
	return nil
}

// GetByID devuelve el bin del tenant, o nil.
func (r *BinRepo) GetByID(ctx context.Context, id string) (*entity.Bin, error) {
	query := `
		SELECT id, organization_id, code, location, created_at
		FROM bins
		WHERE id = $1 AND ($2 = '' OR organization_id = $2)`
	b, err := scanBin(r.q.QueryRow(ctx, query, id, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get bin: %w", err)
	}
	return b, nil
}

// GetByCode devuelve el bin por código normalizado, o nil.
func (r *BinRepo) GetByCode(ctx context.Context, code string) (*entity.Bin, error) {
	query := `
		SELECT id, organization_id, code, location, created_at
		FROM bins
		WHERE code = $1 AND ($2 = '' OR organization_id = $2)`
	b, err := scanBin(r.q.QueryRow(ctx, query, code, scopeOrg(ctx)))
	if err != nil {
		return nil, fmt.Errorf("get bin by code: %w", err)
	}
	return b, nil
}

// List devuelve los bins del tenant ordenados por código.
func (r *BinRepo) List(ctx context.Context) ([]*entity.Bin, error) {
	query := `
		SELECT id, organization_id, code, location, created_at
		FROM bins
		WHERE ($1 = '' OR organization_id = $1)
		ORDER BY code`
	rows, err := r.q.Query(ctx, query, scopeOrg(ctx))
	if err != nil {
		return nil, fmt.Errorf("list bins: %w", err)
	}
	defer rows.Close()

	var out []*entity.Bin
	for rows.Next() {
		var b entity.Bin
		if err := rows.Scan(&b.ID, &b.OrganizationID, &b.Code, &b.Location, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bin: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
