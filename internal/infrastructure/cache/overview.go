// Package cache implementa sobre Redis el cache del overview de stock por
// tenant. La invalidación llega por el bus de eventos: cualquier cambio de
// stock del tenant borra su entrada.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

var _ inventory.OverviewCache = (*OverviewCache)(nil)

// NewClient construye el cliente Redis desde la configuración.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// OverviewCache cache por tenant del agregado de stock, con TTL corto.
// Un fallo de Redis nunca rompe la lectura: se loguea y se sigue a la base.
type OverviewCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewOverviewCache construye el cache con el TTL efectivo.
func NewOverviewCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *OverviewCache {
	return &OverviewCache{rdb: rdb, ttl: ttl, log: log}
}

func overviewKey(organizationID string) string {
	return "stock:overview:" + organizationID
}

// Get devuelve el overview cacheado del tenant, si existe.
func (c *OverviewCache) Get(ctx context.Context, organizationID string) ([]repository.ProductStockOverview, bool) {
	raw, err := c.rdb.Get(ctx, overviewKey(organizationID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("organization_id", organizationID).Msg("cache de overview: get")
		}
		return nil, false
	}
	var items []repository.ProductStockOverview
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warn().Err(err).Str("organization_id", organizationID).Msg("cache de overview: payload inválido")
		return nil, false
	}
	return items, true
}

// Set guarda el overview del tenant con el TTL configurado.
func (c *OverviewCache) Set(ctx context.Context, organizationID string, items []repository.ProductStockOverview) {
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, overviewKey(organizationID), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("organization_id", organizationID).Msg("cache de overview: set")
	}
}

// Invalidate borra la entrada del tenant.
func (c *OverviewCache) Invalidate(ctx context.Context, organizationID string) {
	if err := c.rdb.Del(ctx, overviewKey(organizationID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("organization_id", organizationID).Msg("cache de overview: invalidate")
	}
}

// HandleEvent es el suscriptor del bus: todo cambio de stock invalida el
// overview del tenant. Los low-stock no mueven cantidades y se ignoran.
func (c *OverviewCache) HandleEvent(evt stock.Event) {
	if evt.Kind == stock.KindLowStock {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Invalidate(ctx, evt.OrganizationID)
}
