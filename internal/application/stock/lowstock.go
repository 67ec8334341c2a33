package stock

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// LowStockScanner calcula por tenant los productos activos con
// disponible <= punto de reorden y emite low-stock al canal de hints.
// Corre periódicamente (barrido con scope-bypass) y bajo demanda vía el
// trigger del bus, con debounce por tenant: pedidos concurrentes del mismo
// tenant colapsan en un solo job.
type LowStockScanner struct {
	levels   repository.QuantityLevelRepository
	orgs     repository.OrganizationRepository
	bus      Publisher
	log      *logger.Logger
	debounce time.Duration
	interval time.Duration
	alerts   bool // default global; la organización puede apagarlo

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewLowStockScanner construye el scanner con repos atados al pool (no a una tx).
func NewLowStockScanner(
	levels repository.QuantityLevelRepository,
	orgs repository.OrganizationRepository,
	bus Publisher,
	log *logger.Logger,
	debounce, interval time.Duration,
	alertsEnabled bool,
) *LowStockScanner {
	return &LowStockScanner{
		levels:   levels,
		orgs:     orgs,
		bus:      bus,
		log:      log,
		debounce: debounce,
		interval: interval,
		alerts:   alertsEnabled,
		pending:  make(map[string]*time.Timer),
	}
}

// HandleEvent es el suscriptor del bus: todo cambio de stock encola un scan
// debounceado del tenant. Ignora los low-stock propios para no retroalimentarse.
func (s *LowStockScanner) HandleEvent(evt Event) {
	if evt.Kind == KindLowStock {
		return
	}
	s.Trigger(evt.OrganizationID)
}

// Trigger agenda un scan del tenant tras la ventana de debounce. Si ya hay
// uno pendiente, lo reusa (deduplicación por tenant).
func (s *LowStockScanner) Trigger(orgID string) {
	if orgID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[orgID]; ok {
		return
	}
	s.pending[orgID] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.pending, orgID)
		s.mu.Unlock()
		s.scan(orgID)
	})
}

// Run ejecuta el barrido periódico sobre todos los tenants hasta que ctx se cancela.
func (s *LowStockScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := s.orgs.ListIDs(tenant.WithBypass(ctx))
			if err != nil {
				s.log.Error().Err(err).Msg("barrido de bajo stock: listar tenants")
				continue
			}
			for _, orgID := range ids {
				s.scan(orgID)
			}
		}
	}
}

// Snapshot calcula el corte de bajo stock del tenant bajo demanda (GET /api/stock/low).
func (s *LowStockScanner) Snapshot(ctx context.Context, orgID string) ([]repository.LowStockItem, error) {
	return s.levels.ListAtOrBelowReorderPoint(ctx, orgID)
}

func (s *LowStockScanner) scan(orgID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = tenant.WithBypass(tenant.WithOrganization(ctx, orgID))

	items, err := s.levels.ListAtOrBelowReorderPoint(ctx, orgID)
	if err != nil {
		s.log.Error().Err(err).Str("organization_id", orgID).Msg("scan de bajo stock")
		return
	}
	if len(items) == 0 {
		return
	}

	enabled := s.alerts
	if org, err := s.orgs.GetByID(ctx, orgID); err == nil && org != nil {
		enabled = org.LowStockAlertsEnabled
	}
	if !enabled {
		return
	}

	s.log.Info().
		Str("organization_id", orgID).
		Int("items", len(items)).
		Msg("productos en punto de reorden")
	s.bus.Publish(Event{
		OrganizationID: orgID,
		Kind:           KindLowStock,
		Refs:           map[string]string{"count": strconv.Itoa(len(items))},
		Hint:           "reorder",
	})
}
