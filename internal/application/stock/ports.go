package stock

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// Repos es el juego de repositorios atados a una misma transacción.
// TxRunner los construye sobre la tx y los pasa al callback.
type Repos struct {
	Levels         repository.QuantityLevelRepository
	Movements      repository.MovementRepository
	Serials        repository.SerialRepository
	Products       repository.ProductRepository
	Bins           repository.BinRepository
	WorkOrders     repository.WorkOrderRepository
	Sales          repository.SaleRepository
	PurchaseOrders repository.PurchaseOrderRepository
	Customers      repository.CustomerRepository
}

// TxRunner ejecuta fn dentro de una unidad de trabajo serializable con
// Commit/Rollback. Reintenta ante fallo de serialización (hasta el límite
// configurado) y traduce el agotamiento a domain.ErrConflict y el vencimiento
// del context a domain.ErrTimeout. Si fn falla no se publica ningún evento.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// Publisher puerto de publicación de eventos de stock (lo implementa Bus).
type Publisher interface {
	Publish(e Event)
}
