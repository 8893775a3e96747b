package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/report"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// InventoryHandler movimientos, historial, traslados, auditorías y la foto de stock.
type InventoryHandler struct {
	ledger     *inventory.StockLedger
	transfers  *inventory.TransferCoordinator
	audits     *inventory.AuditReconciler
	movements  *inventory.MovementLog
	projection *inventory.StockProjection
	reports    *report.ReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	ledger *inventory.StockLedger,
	transfers *inventory.TransferCoordinator,
	audits *inventory.AuditReconciler,
	movements *inventory.MovementLog,
	projection *inventory.StockProjection,
	reports *report.ReportUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		ledger:     ledger,
		transfers:  transfers,
		audits:     audits,
		movements:  movements,
		projection: projection,
		reports:    reports,
	}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario (IN, OUT, ADJUSTMENT)
// @Description  Aplica el movimiento en una sola unidad de trabajo. Los traslados van por /api/inventory/transfers.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mt := entity.MovementType(strings.ToUpper(strings.TrimSpace(in.Type)))
	switch mt {
	case entity.MovementTypeIN, entity.MovementTypeOUT, entity.MovementTypeADJUSTMENT:
	case entity.MovementTypeTRANSFER:
		return writeError(c, domain.NewValidationError("type", "los traslados se registran en /api/inventory/transfers"))
	default:
		return writeError(c, domain.NewValidationError("type", "debe ser IN, OUT o ADJUSTMENT"))
	}

	st, err := h.ledger.ApplyMovement(c.UserContext(), entity.StockMovement{
		CompanyID:      GetCompanyID(c),
		Type:           mt,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Reason:         in.Reason,
	}, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resultResponse(st))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Traslado"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.transfers.Transfer(c.UserContext(), inventory.TransferInput{
		CompanyID:      GetCompanyID(c),
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		Actor:          GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resultResponse(st))
}

// Audit godoc
// @Summary      Reconciliar un conteo físico
// @Description  Si el conteo difiere del sistema se anexa un ADJUSTMENT de auditoría por la diferencia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AuditRequest  true  "Conteo físico"
// @Success      200   {object}  dto.AuditResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/audits [post]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	var in dto.AuditRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.audits.Reconcile(c.UserContext(), inventory.ReconcileInput{
		CompanyID:     GetCompanyID(c),
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		PhysicalCount: in.PhysicalCount,
		Reason:        in.Reason,
		Actor:         GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToAuditResponse(res))
}

// History godoc
// @Summary      Historial de movimientos (keyset)
// @Description  Orden descendente por fecha. next_cursor se pasa tal cual para la página siguiente.
// @Description  q y filter se aplican sobre la página leída.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        cursor       query  string  false  "Cursor opaco de la página anterior"
// @Param        page_size    query  int     false  "Tamaño de página (default 20, max 100)"
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación (origen o destino)"
// @Param        type         query  string  false  "IN | OUT | TRANSFER | ADJUSTMENT"
// @Param        q            query  string  false  "Texto libre (ignora tildes y mayúsculas)"
// @Param        filter       query  string  false  "all | in | out | transfer | adjustment | deficit | audit"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	q, err := historyQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	tf, err := inventory.ParseTypeFilter(c.Query("filter"))
	if err != nil {
		return writeError(c, err)
	}
	pageSize := inventory.NormalizePageSize(c.QueryInt("page_size", inventory.DefaultPageSize))

	page, err := h.movements.Page(c.UserContext(), q, c.Query("cursor"), pageSize)
	if err != nil {
		return writeError(c, err)
	}
	items := inventory.FilterMovements(page.Items, c.Query("q"), tf)
	return c.JSON(dto.HistoryResponse{
		Items: inventory.ToMovementResponses(items),
		Page: dto.CursorPage{
			PageSize:   pageSize,
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	})
}

// Export godoc
// @Summary      Exportar movimientos a XLSX
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        type         query  string  false  "IN | OUT | TRANSFER | ADJUSTMENT"
// @Param        q            query  string  false  "Texto libre"
// @Param        filter       query  string  false  "Filtro de tipo"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export [get]
func (h *InventoryHandler) Export(c *fiber.Ctx) error {
	q, err := historyQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	tf, err := inventory.ParseTypeFilter(c.Query("filter"))
	if err != nil {
		return writeError(c, err)
	}
	out, filename, err := h.reports.MovementsXLSX(c.UserContext(), report.ExportInput{Query: q, Text: c.Query("q"), Filter: tf})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}

// Snapshot godoc
// @Summary      Foto de stock de la empresa
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SnapshotResponse
// @Router       /api/inventory/snapshot [get]
func (h *InventoryHandler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.projection.Snapshot(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.SnapshotResponse{RefreshedAt: snap.RefreshedAt, Products: make([]dto.ProductResponse, 0, snap.Len())}
	for _, p := range snap.List() {
		resp.Products = append(resp.Products, inventory.ToProductResponse(p, snap.Levels(p.ID)))
	}
	return c.JSON(resp)
}

// Verify godoc
// @Summary      Verificar contadores contra el log
// @Description  Recalcula el stock del producto desde sus movimientos y lista las diferencias. No escribe.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	productID := c.Params("id")
	drifts, err := h.ledger.Verify(c.UserContext(), GetCompanyID(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.VerifyResponse{ProductID: productID, Consistent: len(drifts) == 0, Drifts: make([]dto.DriftResponse, 0, len(drifts))}
	for _, d := range drifts {
		resp.Drifts = append(resp.Drifts, dto.DriftResponse{LocationID: d.LocationID, Recorded: d.Recorded, Replayed: d.Replayed})
	}
	return c.JSON(resp)
}

// historyQuery filtros de servidor comunes a historial y exportación.
func historyQuery(c *fiber.Ctx) (repository.MovementQuery, error) {
	q := repository.MovementQuery{
		CompanyID:  GetCompanyID(c),
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
	}
	if t := strings.ToUpper(strings.TrimSpace(c.Query("type"))); t != "" {
		mt := entity.MovementType(t)
		switch mt {
		case entity.MovementTypeIN, entity.MovementTypeOUT, entity.MovementTypeTRANSFER, entity.MovementTypeADJUSTMENT:
			q.Type = mt
		default:
			return q, domain.NewValidationError("type", "tipo de movimiento desconocido")
		}
	}
	return q, nil
}

func resultResponse(st *inventory.ProductState) dto.MovementResultResponse {
	resp := dto.MovementResultResponse{Product: inventory.ToStateResponse(st)}
	if st.Movement != nil {
		resp.Movement = inventory.ToMovementResponse(st.Movement)
	}
	return resp
}
