package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/report"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
)

// newAPI arma la API completa sobre el almacenamiento en memoria, sin proveedor de IA.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	repos := store.Repos()
	notifier := memory.NewNotifier()
	ledger := inventory.NewStockLedger(store, notifier, inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}, log)
	movements := inventory.NewMovementLog(repos.Movements)
	projection := inventory.NewStockProjection(repos.Products, repos.Levels, log)
	dashboard := appanalytics.NewDashboardUseCase(projection, store.Analytics(), nil, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		LocationUC:    usecase.NewLocationUseCase(repos.Locations),
		ProductUC:     usecase.NewProductUseCase(ledger, repos.Products, repos.Levels, repos.Locations),
		Ledger:        ledger,
		Transfers:     inventory.NewTransferCoordinator(ledger),
		Audits:        inventory.NewAuditReconciler(ledger, log),
		Reservations:  inventory.NewReservationManager(ledger, repos.Sales, log),
		Productions:   inventory.NewProductionUseCase(ledger, repos.Productions, log),
		Movements:     movements,
		Projection:    projection,
		DashboardUC:   dashboard,
		Replenishment: appanalytics.NewReplenishmentUseCase(projection, store.Analytics()),
		InsightUC:     usecase.NewInsightUseCase(dashboard, nil),
		ReportUC:      report.NewReportUseCase(dashboard, projection, movements, pdf.NewMarotoPDFGenerator(), xlsx.NewMovementExporter()),
		JWTSecret:     testJWTSecret,
	})
	return app
}

// call envía una petición con el rol indicado y decodifica la respuesta en out si no es nil.
func call(t *testing.T, app *fiber.App, role, method, path string, body any, out any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		defer resp.Body.Close()
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Code
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func requireDec(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "%s: esperado %d, obtenido %s", msg, want, got)
}

type world struct {
	app       *fiber.App
	locA      string
	locB      string
	productID string
}

func newWorld(t *testing.T, initial int64) *world {
	t.Helper()
	w := &world{app: newAPI(t)}

	var a, b dto.LocationResponse
	resp := call(t, w.app, "admin", http.MethodPost, "/api/locations", dto.CreateLocationRequest{Name: "Bodega A", MultiLocation: true}, &a)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	call(t, w.app, "admin", http.MethodPost, "/api/locations", dto.CreateLocationRequest{Name: "Bodega B", MultiLocation: true}, &b)
	w.locA, w.locB = a.ID, b.ID

	var p dto.ProductResponse
	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/products", dto.CreateProductRequest{
		Name: "Café molido", Unit: "kg", LocationID: w.locA, InitialStock: dec(initial), LowStockThreshold: dec(10),
	}, &p)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	requireDec(t, initial, p.Stock, "stock inicial")
	w.productID = p.ID
	return w
}

func (w *world) product(t *testing.T) dto.ProductResponse {
	t.Helper()
	var p dto.ProductResponse
	resp := call(t, w.app, "vendedor", http.MethodGet, "/api/products/"+w.productID, nil, &p)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return p
}

func levelOf(p dto.ProductResponse, locationID string) decimal.Decimal {
	for _, l := range p.Levels {
		if l.LocationID == locationID {
			return l.Quantity
		}
	}
	return decimal.Zero
}

// ── Escenario completo ────────────────────────────────────────────────────────

func TestAPI_ReservaDespachoTrasladoYAuditoria(t *testing.T) {
	w := newWorld(t, 100)

	var sale dto.SaleResponse
	resp := call(t, w.app, "vendedor", http.MethodPost, "/api/sales", dto.CreateSaleRequest{ProductID: w.productID, Quantity: dec(30)}, &sale)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Pending", sale.Status)
	p := w.product(t)
	requireDec(t, 100, p.Stock, "stock tras reservar")
	requireDec(t, 30, p.ReservedStock, "reservado tras reservar")
	requireDec(t, 70, p.Available, "disponible tras reservar")

	var fulfilled dto.SaleResponse
	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/sales/"+sale.ID+"/fulfill", nil, &fulfilled)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Fulfilled", fulfilled.Status)
	assert.NotEmpty(t, fulfilled.MovementID)

	// Repetir el despacho no descuenta dos veces.
	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/sales/"+sale.ID+"/fulfill", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p = w.product(t)
	requireDec(t, 70, p.Stock, "stock tras despachar")
	requireDec(t, 0, p.ReservedStock, "reservado tras despachar")

	var moved dto.MovementResultResponse
	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/inventory/transfers", dto.TransferRequest{
		ProductID: w.productID, FromLocationID: w.locA, ToLocationID: w.locB, Quantity: dec(20),
	}, &moved)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "TRANSFER", moved.Movement.Type)
	requireDec(t, 70, moved.Product.Stock, "stock tras trasladar")

	var audit dto.AuditResponse
	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/inventory/audits", dto.AuditRequest{
		ProductID: w.productID, PhysicalCount: dec(65), Reason: "Conteo mensual",
	}, &audit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	requireDec(t, 70, audit.SystemCountBefore, "conteo del sistema")
	requireDec(t, -5, audit.Delta, "diferencia")
	require.NotNil(t, audit.Movement)
	assert.True(t, audit.Movement.IsAudit)

	p = w.product(t)
	requireDec(t, 65, p.Stock, "stock final")
	requireDec(t, 45, levelOf(p, w.locA), "nivel A")
	requireDec(t, 20, levelOf(p, w.locB), "nivel B")

	// Historial: IN inicial, OUT, TRANSFER, ADJUSTMENT en orden descendente.
	var page dto.HistoryResponse
	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/movements?page_size=3&product_id="+w.productID, nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Items, 3)
	assert.True(t, page.Page.HasMore)
	assert.Equal(t, "ADJUSTMENT", page.Items[0].Type)
	assert.Equal(t, "TRANSFER", page.Items[1].Type)
	assert.Equal(t, "OUT", page.Items[2].Type)

	var rest dto.HistoryResponse
	call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/movements?page_size=3&cursor="+page.Page.NextCursor, nil, &rest)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "IN", rest.Items[0].Type)
	assert.False(t, rest.Page.HasMore)

	var audits dto.HistoryResponse
	call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/movements?filter=deficit", nil, &audits)
	require.Len(t, audits.Items, 1)
	assert.Equal(t, "Conteo mensual", audits.Items[0].Reason)

	// Los contadores coinciden con el replay del log.
	var verify dto.VerifyResponse
	resp = call(t, w.app, "admin", http.MethodGet, "/api/inventory/products/"+w.productID+"/verify", nil, &verify)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, verify.Consistent)
	assert.Empty(t, verify.Drifts)

	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/products/"+w.productID+"/verify", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ── Metadata ──────────────────────────────────────────────────────────────────

func TestAPI_ActualizarMetadataNoTocaContadores(t *testing.T) {
	w := newWorld(t, 50)

	resp := call(t, w.app, "vendedor", http.MethodPost, "/api/sales", dto.CreateSaleRequest{ProductID: w.productID, Quantity: dec(12)}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	name := "Café de origen"
	threshold := dec(40)
	var updated dto.ProductResponse
	resp = call(t, w.app, "bodeguero", http.MethodPut, "/api/products/"+w.productID, dto.UpdateProductRequest{
		Name: &name, LowStockThreshold: &threshold, LocationID: &w.locB,
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, name, updated.Name)
	requireDec(t, 40, updated.LowStockThreshold, "umbral actualizado")
	assert.Equal(t, w.locB, updated.LocationID)
	requireDec(t, 50, updated.Stock, "stock tras editar")
	requireDec(t, 12, updated.ReservedStock, "reservado tras editar")
	assert.True(t, updated.LowStock, "38 disponibles quedan bajo el nuevo umbral")

	p := w.product(t)
	requireDec(t, 50, p.Stock, "stock leído")
	requireDec(t, 12, p.ReservedStock, "reservado leído")
	requireDec(t, 50, levelOf(p, w.locA), "el nivel sigue en la ubicación original")

	resp = call(t, w.app, "vendedor", http.MethodPut, "/api/products/"+w.productID, dto.UpdateProductRequest{Name: &name}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var loc dto.LocationResponse
	resp = call(t, w.app, "admin", http.MethodPut, "/api/locations/"+w.locA, dto.UpdateLocationRequest{Name: "Bodega Norte"}, &loc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, w.locA, loc.ID)
	assert.Equal(t, "Bodega Norte", loc.Name)

	p = w.product(t)
	requireDec(t, 50, p.Stock, "stock tras renombrar")
	requireDec(t, 12, p.ReservedStock, "reservado tras renombrar")
	requireDec(t, 50, levelOf(p, w.locA), "nivel tras renombrar")
}

// ── Traducción de errores ─────────────────────────────────────────────────────

func TestAPI_TraduceErroresDeDominio(t *testing.T) {
	w := newWorld(t, 10)

	resp := call(t, w.app, "bodeguero", http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{
		ProductID: w.productID, Type: "OUT", Quantity: dec(11), FromLocationID: w.locA,
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))

	resp = call(t, w.app, "vendedor", http.MethodPost, "/api/sales", dto.CreateSaleRequest{ProductID: w.productID, Quantity: dec(11)}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_AVAILABLE_STOCK", errorCode(t, resp))

	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{
		ProductID: w.productID, Type: "TRANSFER", Quantity: dec(1),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))

	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/inventory/transfers", dto.TransferRequest{
		ProductID: w.productID, FromLocationID: w.locA, ToLocationID: w.locA, Quantity: dec(1),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_LOCATION", errorCode(t, resp))

	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/products/no-existe", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/movements?filter=todo", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/movements?cursor=%25%25", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, w.app, "vendedor", http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{
		ProductID: w.productID, Type: "IN", Quantity: dec(1), ToLocationID: w.locA,
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, w.app, "admin", http.MethodPost, "/api/ai/insights", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UNAVAILABLE", errorCode(t, resp))

	// Ningún fallo dejó rastro en el ledger.
	p := w.product(t)
	requireDec(t, 10, p.Stock, "stock")
	requireDec(t, 0, p.ReservedStock, "reservado")
}

// ── Lectura, producción y documentos ──────────────────────────────────────────

func TestAPI_ProduccionYFoto(t *testing.T) {
	w := newWorld(t, 10)

	var barra dto.ProductResponse
	call(t, w.app, "admin", http.MethodPost, "/api/products", dto.CreateProductRequest{Name: "Barra", LocationID: w.locA}, &barra)

	var pr dto.ProductionResponse
	resp := call(t, w.app, "bodeguero", http.MethodPost, "/api/productions", dto.CreateProductionRequest{
		ProductID: barra.ID, Quantity: dec(4),
		Materials: []dto.MaterialRequest{{ProductID: w.productID, Quantity: dec(2)}},
	}, &pr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Pending", pr.Status)

	resp = call(t, w.app, "bodeguero", http.MethodPost, "/api/productions/"+pr.ID+"/process", dto.ProcessProductionRequest{ToLocationID: w.locB}, &pr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Transferred", pr.Status)

	var snap dto.SnapshotResponse
	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/inventory/snapshot", nil, &snap)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, snap.Products, 2)
	assert.Equal(t, "Barra", snap.Products[0].Name)
	requireDec(t, 4, snap.Products[0].Stock, "barra")
	requireDec(t, 8, snap.Products[1].Stock, "café")

	var summary dto.DashboardSummaryDTO
	resp = call(t, w.app, "vendedor", http.MethodGet, "/api/dashboard/summary", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, summary.ProductCount)
	requireDec(t, 12, summary.TotalStock, "total")
	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, w.productID, summary.LowStock[0].ProductID)

	var list []dto.ReplenishmentSuggestionDTO
	resp = call(t, w.app, "admin", http.MethodGet, "/api/dashboard/replenishment", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)

	resp = call(t, w.app, "admin", http.MethodGet, "/api/reports/stock.pdf", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp = call(t, w.app, "admin", http.MethodGet, "/api/inventory/movements/export?filter=out", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}

func TestAPI_Health(t *testing.T) {
	app := newAPI(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
