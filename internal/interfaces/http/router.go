package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/purchase"
	"github.com/jhoicas/taller-api/internal/application/sale"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/application/workorder"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrganizationUC *usecase.OrganizationUseCase
	ProductUC      *usecase.ProductUseCase
	BinUC          *usecase.BinUseCase
	CustomerUC     *usecase.CustomerUseCase
	InventoryUC    *inventory.UseCase
	WorkOrderUC    *workorder.UseCase
	SaleUC         *sale.UseCase
	PurchaseUC     *purchase.UseCase
	WSUpgrade      fiber.Handler
	WSHandler      fiber.Handler
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Alta de tenant (público)
	organizationHandler := NewOrganizationHandler(deps.OrganizationUC)
	api.Post("/organizations", organizationHandler.Create)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Organización del token (protegido)
	protected.Get("/organization", organizationHandler.Get)
	protected.Patch("/organization", organizationHandler.Update)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Archive)

	// Bins (protegido)
	bins := protected.Group("/bins")
	binHandler := NewBinHandler(deps.BinUC)
	bins.Post("/", binHandler.Create)
	bins.Get("/", binHandler.List)

	// Customers (protegido)
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)

	// Stock: movimientos manuales y lecturas (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.InventoryUC)
	stockGroup.Post("/move", stockHandler.Move)
	stockGroup.Post("/adjust/:productID", stockHandler.Adjust)
	stockGroup.Get("/overview", stockHandler.Overview)
	stockGroup.Get("/low", stockHandler.LowStock)
	stockGroup.Get("/movements/:productID", stockHandler.Movements)
	stockGroup.Get("/levels/:productID", stockHandler.Levels)
	stockGroup.Post("/serials/faulty", stockHandler.MarkFaulty)
	stockGroup.Get("/serials/:productID", stockHandler.Serials)

	// Work orders (protegido)
	workOrders := protected.Group("/work-orders")
	workOrderHandler := NewWorkOrderHandler(deps.WorkOrderUC)
	workOrders.Post("/", workOrderHandler.Create)
	workOrders.Get("/:id", workOrderHandler.GetByID)
	workOrders.Get("/:id/status-log", workOrderHandler.StatusLog)
	workOrders.Post("/:id/reserve", workOrderHandler.ReserveParts)
	workOrders.Post("/:id/pick", workOrderHandler.PickPart)
	workOrders.Post("/:id/return", workOrderHandler.ReturnPart)
	workOrders.Patch("/:id/status", workOrderHandler.UpdateStatus)

	// Sales (protegido)
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	sales.Post("/", saleHandler.Create)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Post("/:id/reserve", saleHandler.Reserve)
	sales.Post("/:id/complete", saleHandler.Complete)
	sales.Post("/:id/cancel", saleHandler.Cancel)
	sales.Patch("/:id", saleHandler.Update)

	// Purchase orders (protegido)
	purchases := protected.Group("/purchase-orders")
	purchaseHandler := NewPurchaseOrderHandler(deps.PurchaseUC)
	purchases.Post("/", purchaseHandler.Create)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Post("/:id/receive", purchaseHandler.Receive)

	// Canal realtime de hints de stock (protegido)
	if deps.WSHandler != nil {
		protected.Use("/ws/stock", deps.WSUpgrade)
		protected.Get("/ws/stock", deps.WSHandler)
	}
}
