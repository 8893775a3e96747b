package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductionHandler lotes de producción.
type ProductionHandler struct {
	uc *inventory.ProductionUseCase
}

// NewProductionHandler construye el handler.
func NewProductionHandler(uc *inventory.ProductionUseCase) *ProductionHandler {
	return &ProductionHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar lote de producción
// @Description  Solo valida y guarda el lote en estado Pending; el stock cambia al procesarlo.
// @Tags         productions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductionRequest  true  "Lote"
// @Success      201   {object}  dto.ProductionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/productions [post]
func (h *ProductionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	materials := make([]entity.MaterialUsage, 0, len(in.Materials))
	for _, m := range in.Materials {
		materials = append(materials, entity.MaterialUsage{ProductID: m.ProductID, Quantity: m.Quantity})
	}
	pr, err := h.uc.Register(c.UserContext(), inventory.RegisterProductionInput{
		CompanyID:  GetCompanyID(c),
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		LocationID: in.LocationID,
		Materials:  materials,
		Actor:      GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToProductionResponse(pr))
}

// List godoc
// @Summary      Listar lotes de producción
// @Tags         productions
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Pending | Transferred"
// @Success      200  {array}  dto.ProductionResponse
// @Router       /api/productions [get]
func (h *ProductionHandler) List(c *fiber.Ctx) error {
	var status entity.ProductionStatus
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		switch {
		case strings.EqualFold(s, string(entity.ProductionStatusPending)):
			status = entity.ProductionStatusPending
		case strings.EqualFold(s, string(entity.ProductionStatusTransferred)):
			status = entity.ProductionStatusTransferred
		default:
			return writeError(c, domain.NewValidationError("status", "estado de producción desconocido"))
		}
	}
	items, err := h.uc.List(c.UserContext(), GetCompanyID(c), status)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductionResponse, 0, len(items))
	for _, p := range items {
		out = append(out, inventory.ToProductionResponse(p))
	}
	return c.JSON(out)
}

// Process godoc
// @Summary      Procesar lote de producción
// @Description  Consume materias primas, ingresa lo producido y, si se indica destino, lo traslada.
// @Tags         productions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true   "ID del lote"
// @Param        body  body  dto.ProcessProductionRequest  false  "Destino opcional"
// @Success      200   {object}  dto.ProductionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/productions/{id}/process [post]
func (h *ProductionHandler) Process(c *fiber.Ctx) error {
	var in dto.ProcessProductionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	pr, err := h.uc.Process(c.UserContext(), GetCompanyID(c), c.Params("id"), in.ToLocationID, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToProductionResponse(pr))
}
