package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// WorkOrderHandler maneja las órdenes de trabajo (protegido).
type WorkOrderHandler struct {
	uc *workorder.UseCase
}

// NewWorkOrderHandler construye el handler.
func NewWorkOrderHandler(uc *workorder.UseCase) *WorkOrderHandler {
	return &WorkOrderHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir una orden de trabajo con sus partes
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWorkOrderRequest  true  "descripción, cliente opcional y partes"
// @Success      201   {object}  dto.WorkOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/work-orders [post]
func (h *WorkOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	wo, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toWorkOrderResponse(wo))
}

// GetByID godoc
// @Summary      Obtener una orden de trabajo
// @Tags         work-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.WorkOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id} [get]
func (h *WorkOrderHandler) GetByID(c *fiber.Ctx) error {
	wo, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toWorkOrderResponse(wo))
}

// StatusLog godoc
// @Summary      Historial de estados de la orden
// @Tags         work-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {array}  dto.WorkOrderStatusLogResponse
// @Router       /api/work-orders/{id}/status-log [get]
func (h *WorkOrderHandler) StatusLog(c *fiber.Ctx) error {
	rows, err := h.uc.StatusLog(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.WorkOrderStatusLogResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.WorkOrderStatusLogResponse{
			FromStatus:  row.FromStatus,
			ToStatus:    row.ToStatus,
			Note:        row.Note,
			PerformedBy: row.PerformedBy,
			CreatedAt:   row.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"items": out})
}

// ReserveParts godoc
// @Summary      Reservar stock para partes de la orden
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReservePartsRequest  true  "partes y cantidades o seriales"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/reserve [post]
func (h *WorkOrderHandler) ReserveParts(c *fiber.Ctx) error {
	var in dto.ReservePartsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	wo, err := h.uc.ReserveParts(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toWorkOrderResponse(wo))
}

// PickPart godoc
// @Summary      Retirar físicamente unidades reservadas de una parte
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.PickPartRequest  true  "parte, bin y cantidad o seriales"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/pick [post]
func (h *WorkOrderHandler) PickPart(c *fiber.Ctx) error {
	var in dto.PickPartRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	wo, err := h.uc.PickPart(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toWorkOrderResponse(wo))
}

// ReturnPart godoc
// @Summary      Devolver unidades de una parte al bin
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReturnPartRequest  true  "parte, bin, origen (picked|reserved) y faulty"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/return [post]
func (h *WorkOrderHandler) ReturnPart(c *fiber.Ctx) error {
	var in dto.ReturnPartRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	wo, err := h.uc.ReturnPart(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toWorkOrderResponse(wo))
}

// UpdateStatus godoc
// @Summary      Transicionar el estado de la orden
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.UpdateWorkOrderStatusRequest  true  "nuevo estado y nota"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/status [patch]
func (h *WorkOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateWorkOrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	wo, err := h.uc.UpdateStatus(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toWorkOrderResponse(wo))
}

func toWorkOrderResponse(wo *entity.WorkOrder) dto.WorkOrderResponse {
	out := dto.WorkOrderResponse{
		ID:          wo.ID,
		CustomerID:  wo.CustomerID,
		Status:      wo.Status,
		Description: wo.Description,
		Parts:       make([]dto.WorkOrderPartResponse, 0, len(wo.Parts)),
		CreatedAt:   wo.CreatedAt,
		UpdatedAt:   wo.UpdatedAt,
	}
	for _, p := range wo.Parts {
		out.Parts = append(out.Parts, dto.WorkOrderPartResponse{
			ID:          p.ID,
			ProductID:   p.ProductID,
			QtyNeeded:   p.QtyNeeded,
			QtyReserved: p.QtyReserved,
			QtyPicked:   p.QtyPicked,
		})
	}
	return out
}
