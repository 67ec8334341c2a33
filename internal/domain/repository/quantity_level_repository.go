package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// ProductStockOverview agregado de stock por producto (todas las ubicaciones).
type ProductStockOverview struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	TrackSerial  bool   `json:"track_serial"`
	OnHand       int64  `json:"on_hand"`
	Reserved     int64  `json:"reserved"`
	Available    int64  `json:"available"`
	ReorderPoint int64  `json:"reorder_point"`
}

// LowStockItem producto en o por debajo de su punto de reorden.
type LowStockItem struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Available    int64  `json:"available"`
	ReorderPoint int64  `json:"reorder_point"`
	LeadTimeDays int    `json:"lead_time_days"`
}

// QuantityLevelRepository puerto del almacén de niveles (on_hand/reserved por
// producto y bin). Las variantes ForUpdate bloquean la fila dentro de la
// transacción; el listado bloqueante ordena por (product_id, bin_id) ascendente
// para que todos los escritores adquieran locks en el mismo orden.
type QuantityLevelRepository interface {
	// Get devuelve el nivel o nil si no existe fila (cero implícito).
	Get(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error)
	GetForUpdate(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error)
	// Ensure crea la fila en cero si falta y la devuelve bloqueada.
	Ensure(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.QuantityLevel, error)
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.QuantityLevel, error)
	Update(ctx context.Context, level *entity.QuantityLevel) error
	// Overview agrega on_hand/reserved por producto activo del tenant.
	Overview(ctx context.Context) ([]ProductStockOverview, error)
	// ListAtOrBelowReorderPoint productos activos con disponible <= punto de
	// reorden. Recibe el tenant explícito porque lo usan barridos con bypass.
	ListAtOrBelowReorderPoint(ctx context.Context, organizationID string) ([]LowStockItem, error)
}
