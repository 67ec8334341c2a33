package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/pkg/logger"
)

var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta unidades de trabajo del motor de stock en transacciones
// serializables. Un fallo de serialización (40001) se reintenta con backoff
// hasta el límite configurado; agotados los reintentos devuelve
// domain.ErrConflict, y si el context venció, domain.ErrTimeout.
type TxRunner struct {
	pool    *pgxpool.Pool
	retries int
	log     *logger.Logger
}

// NewTxRunner construye el runner con el pool y el límite de reintentos.
func NewTxRunner(pool *pgxpool.Pool, retries int, log *logger.Logger) *TxRunner {
	if retries < 0 {
		retries = 0
	}
	return &TxRunner{pool: pool, retries: retries, log: log}
}

// Run inicia la transacción serializable, arma los repos atados a la tx y
// ejecuta fn. Commit o Rollback según el resultado.
func (r *TxRunner) Run(ctx context.Context, fn func(repos stock.Repos) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 25 * time.Millisecond
			select {
			case <-ctx.Done():
				return domain.ErrTimeout
			case <-time.After(backoff):
			}
			r.log.Warn().
				Int("attempt", attempt).
				Msg("reintento por fallo de serialización")
		}
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if isSerializationFailure(err) {
			lastErr = err
			continue
		}
		if ctx.Err() != nil {
			return domain.ErrTimeout
		}
		return err
	}
	return fmt.Errorf("%w: transacción abortada tras %d reintentos: %v", domain.ErrConflict, r.retries, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos stock.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := stock.Repos{
		Levels:         NewQuantityLevelRepository(tx),
		Movements:      NewMovementRepository(tx),
		Serials:        NewSerialRepository(tx),
		Products:       NewProductRepository(tx),
		Bins:           NewBinRepository(tx),
		WorkOrders:     NewWorkOrderRepository(tx),
		Sales:          NewSaleRepository(tx),
		PurchaseOrders: NewPurchaseOrderRepository(tx),
		Customers:      NewCustomerRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
