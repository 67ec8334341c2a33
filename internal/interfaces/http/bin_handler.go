package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// BinHandler maneja las ubicaciones físicas (protegido).
type BinHandler struct {
	uc *usecase.BinUseCase
}

// NewBinHandler construye el handler.
func NewBinHandler(uc *usecase.BinUseCase) *BinHandler {
	return &BinHandler{uc: uc}
}

// Create godoc
// @Summary      Crear un bin
// @Tags         bins
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBinRequest  true  "código y ubicación"
// @Success      201   {object}  dto.BinResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bins [post]
func (h *BinHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBinRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	b, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBinResponse(b))
}

// List godoc
// @Summary      Listar bins del tenant
// @Tags         bins
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BinResponse
// @Router       /api/bins [get]
func (h *BinHandler) List(c *fiber.Ctx) error {
	bins, err := h.uc.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BinResponse, 0, len(bins))
	for _, b := range bins {
		out = append(out, toBinResponse(b))
	}
	return c.JSON(fiber.Map{"items": out})
}

func toBinResponse(b *entity.Bin) dto.BinResponse {
	return dto.BinResponse{
		ID:        b.ID,
		Code:      b.Code,
		Location:  b.Location,
		CreatedAt: b.CreatedAt,
	}
}
