package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SaleHandler ventas: reserva al crear, salida al cumplir, liberación al cancelar.
type SaleHandler struct {
	reservations *inventory.ReservationManager
}

// NewSaleHandler construye el handler.
func NewSaleHandler(reservations *inventory.ReservationManager) *SaleHandler {
	return &SaleHandler{reservations: reservations}
}

// Create godoc
// @Summary      Registrar venta y reservar stock
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Venta"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sale, err := h.reservations.Reserve(c.UserContext(), inventory.ReserveInput{
		CompanyID:  GetCompanyID(c),
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Actor:      GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToSaleResponse(sale))
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Pending | Fulfilled | Cancelled"
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	status, err := parseSaleStatus(c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	sales, err := h.reservations.List(c.UserContext(), GetCompanyID(c), status)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, inventory.ToSaleResponse(s))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.reservations.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToSaleResponse(sale))
}

// Fulfill godoc
// @Summary      Cumplir venta (despacho)
// @Description  Libera la reserva y registra la salida. Repetirlo no descuenta dos veces.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/fulfill [post]
func (h *SaleHandler) Fulfill(c *fiber.Ctx) error {
	sale, err := h.reservations.Fulfill(c.UserContext(), GetCompanyID(c), c.Params("id"), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToSaleResponse(sale))
}

// Cancel godoc
// @Summary      Cancelar venta pendiente
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	sale, err := h.reservations.Cancel(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToSaleResponse(sale))
}

// Recalculate godoc
// @Summary      Recalcular reservado desde las ventas pendientes
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/recalculate/{product_id} [post]
func (h *SaleHandler) Recalculate(c *fiber.Ctx) error {
	st, err := h.reservations.RecalculateReserved(c.UserContext(), GetCompanyID(c), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToStateResponse(st))
}

func parseSaleStatus(s string) (entity.SaleStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, st := range []entity.SaleStatus{entity.SaleStatusPending, entity.SaleStatusFulfilled, entity.SaleStatusCancelled} {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", domain.NewValidationError("status", "estado de venta desconocido")
}
