package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// StockHandler maneja las operaciones manuales de stock y sus lecturas (protegido).
type StockHandler struct {
	uc *inventory.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Move godoc
// @Summary      Movimiento manual de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveRequest  true  "product_id, qty, reason (receive|adjust|transfer|rma_out), from_bin_id/to_bin_id según razón"
// @Success      201   {object}  dto.MoveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/move [post]
func (h *StockHandler) Move(c *fiber.Ctx) error {
	var in dto.MoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movementID, err := h.uc.Move(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MoveResponse{OK: true, MovementID: movementID})
}

// Adjust godoc
// @Summary      Ajustar totales on_hand/reserved de un producto
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productID  path  string  true  "ID del producto"
// @Param        body  body  dto.AdjustLevelsRequest  true  "objetivos on_hand y/o reserved"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust/{productID} [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustLevelsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.AdjustLevels(c.UserContext(), c.Params("productID"), in); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// MarkFaulty godoc
// @Summary      Dar de baja un serial defectuoso
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MarkFaultyRequest  true  "serial_item_id"
// @Success      200   {object}  map[string]bool
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/serials/faulty [post]
func (h *StockHandler) MarkFaulty(c *fiber.Ctx) error {
	var in dto.MarkFaultyRequest
	if err := c.BodyParser(&in); err != nil || in.SerialItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.MarkFaulty(c.UserContext(), in.SerialItemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Overview godoc
// @Summary      Agregado de stock por producto del tenant (cacheado)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  repository.ProductStockOverview
// @Router       /api/stock/overview [get]
func (h *StockHandler) Overview(c *fiber.Ctx) error {
	items, err := h.uc.Overview(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// LowStock godoc
// @Summary      Productos en o por debajo del punto de reorden
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  repository.LowStockItem
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.uc.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// Movements godoc
// @Summary      Historial de movimientos de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID  path   string  true   "ID del producto"
// @Param        limit      query  int     false  "tamaño de página"
// @Param        offset     query  int     false  "desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock/movements/{productID} [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	movs, err := h.uc.Movements(c.UserContext(), c.Params("productID"), page)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(fiber.Map{"items": out})
}

// Levels godoc
// @Summary      Niveles por bin de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID  path  string  true  "ID del producto"
// @Success      200  {array}  map[string]any
// @Router       /api/stock/levels/{productID} [get]
func (h *StockHandler) Levels(c *fiber.Ctx) error {
	levels, err := h.uc.Levels(c.UserContext(), c.Params("productID"))
	if err != nil {
		return respondError(c, err)
	}
	type levelRow struct {
		BinID     string `json:"bin_id"`
		OnHand    int64  `json:"on_hand"`
		Reserved  int64  `json:"reserved"`
		Available int64  `json:"available"`
	}
	out := make([]levelRow, 0, len(levels))
	for _, l := range levels {
		out = append(out, levelRow{BinID: l.BinID, OnHand: l.OnHand, Reserved: l.Reserved, Available: l.Available()})
	}
	return c.JSON(fiber.Map{"items": out})
}

// Serials godoc
// @Summary      Unidades serializadas de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productID  path  string  true  "ID del producto"
// @Success      200  {array}  dto.SerialItemResponse
// @Router       /api/stock/serials/{productID} [get]
func (h *StockHandler) Serials(c *fiber.Ctx) error {
	serials, err := h.uc.Serials(c.UserContext(), c.Params("productID"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.SerialItemResponse, 0, len(serials))
	for _, s := range serials {
		out = append(out, dto.SerialItemResponse{
			ID:          s.ID,
			ProductID:   s.ProductID,
			Serial:      s.Serial,
			Status:      s.Status,
			BinID:       s.BinID,
			WorkOrderID: s.WorkOrderID,
			LastSeenAt:  s.LastSeenAt,
		})
	}
	return c.JSON(fiber.Map{"items": out})
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                  m.ID,
		ProductID:           m.ProductID,
		Qty:                 m.Qty,
		Reason:              m.Reason,
		FromBinID:           m.FromBinID,
		ToBinID:             m.ToBinID,
		WorkOrderID:         m.WorkOrderID,
		WorkOrderPartID:     m.WorkOrderPartID,
		SaleID:              m.SaleID,
		SaleItemID:          m.SaleItemID,
		PurchaseOrderLineID: m.PurchaseOrderLineID,
		SerialItemID:        m.SerialItemID,
		PerformedBy:         m.PerformedBy,
		CreatedAt:           m.CreatedAt,
	}
}
