// Package inventory contiene las reglas puras del ledger: validación de movimientos,
// tabla de efectos por tipo y chequeo de invariantes. No hace I/O.
package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// QuantityScale decimales que guardan los contadores y las cantidades (NUMERIC(18,4)).
const QuantityScale = 4

// CheckScale rechaza cantidades con más decimales de los que se guardan; redondearlas
// en la base daría movimientos distintos a los validados, incluso de cantidad cero.
func CheckScale(field string, q decimal.Decimal) error {
	if !q.Round(QuantityScale).Equal(q) {
		return domain.NewValidationError(field, "admite como máximo 4 decimales")
	}
	return nil
}

// Validate aplica las reglas estructurales de un movimiento antes de anexarlo al log.
func Validate(m *entity.StockMovement) error {
	if !m.Type.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if m.ProductID == "" {
		return domain.NewValidationError("product_id", "obligatorio")
	}
	if m.Quantity.IsZero() {
		return domain.NewValidationError("quantity", "no puede ser cero")
	}
	if err := CheckScale("quantity", m.Quantity); err != nil {
		return err
	}
	if m.Type != entity.MovementTypeADJUSTMENT && m.Quantity.IsNegative() {
		return domain.NewValidationError("quantity", "debe ser positiva")
	}
	if m.IsAudit && m.Type != entity.MovementTypeADJUSTMENT {
		return domain.NewValidationError("is_audit", "solo aplica a ajustes")
	}

	switch m.Type {
	case entity.MovementTypeIN:
		if m.ToLocationID == "" {
			return domain.NewValidationError("to_location_id", "obligatorio en entradas")
		}
	case entity.MovementTypeOUT:
		if m.FromLocationID == "" {
			return domain.NewValidationError("from_location_id", "obligatorio en salidas")
		}
	case entity.MovementTypeTRANSFER:
		if m.FromLocationID == "" || m.ToLocationID == "" {
			return domain.NewValidationError("location", "una transferencia requiere origen y destino")
		}
		if m.FromLocationID == m.ToLocationID {
			return &domain.InvalidLocationError{LocationID: m.FromLocationID, Reason: "origen y destino son iguales"}
		}
	case entity.MovementTypeADJUSTMENT:
		if m.FromLocationID == "" && m.ToLocationID == "" {
			return domain.NewValidationError("location", "un ajuste requiere al menos una ubicación")
		}
	}
	return nil
}

// Effect variación firmada del on-hand en una ubicación.
type Effect struct {
	LocationID string
	Delta      decimal.Decimal
}

// Effects traduce un movimiento válido a sus efectos por ubicación.
//
//	IN          +q en destino
//	OUT         -q en origen
//	TRANSFER    -q en origen, +q en destino
//	ADJUSTMENT  +delta en destino (u origen si es la única informada)
func Effects(m *entity.StockMovement) []Effect {
	switch m.Type {
	case entity.MovementTypeIN:
		return []Effect{{LocationID: m.ToLocationID, Delta: m.Quantity}}
	case entity.MovementTypeOUT:
		return []Effect{{LocationID: m.FromLocationID, Delta: m.Quantity.Neg()}}
	case entity.MovementTypeTRANSFER:
		return []Effect{
			{LocationID: m.FromLocationID, Delta: m.Quantity.Neg()},
			{LocationID: m.ToLocationID, Delta: m.Quantity},
		}
	case entity.MovementTypeADJUSTMENT:
		loc := m.ToLocationID
		if loc == "" {
			loc = m.FromLocationID
		}
		return []Effect{{LocationID: loc, Delta: m.Quantity}}
	}
	return nil
}

// NetEffect cambio total del stock del producto. Una transferencia suma cero.
func NetEffect(m *entity.StockMovement) decimal.Decimal {
	net := decimal.Zero
	for _, e := range Effects(m) {
		net = net.Add(e.Delta)
	}
	return net
}

// Replay reconstruye el stock por producto sumando los efectos de los movimientos
// desde una base vacía.
func Replay(movements []*entity.StockMovement) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, m := range movements {
		out[m.ProductID] = out[m.ProductID].Add(NetEffect(m))
	}
	return out
}

// ReplayLevels igual que Replay pero por (producto, ubicación).
func ReplayLevels(movements []*entity.StockMovement) map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal)
	for _, m := range movements {
		byLoc, ok := out[m.ProductID]
		if !ok {
			byLoc = make(map[string]decimal.Decimal)
			out[m.ProductID] = byLoc
		}
		for _, e := range Effects(m) {
			byLoc[e.LocationID] = byLoc[e.LocationID].Add(e.Delta)
		}
	}
	return out
}
