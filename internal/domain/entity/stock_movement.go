package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

const (
	MovementTypeIN         MovementType = "IN"
	MovementTypeOUT        MovementType = "OUT"
	MovementTypeTRANSFER   MovementType = "TRANSFER"
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT"
)

// Valid indica si el tipo es uno de los cuatro conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeTRANSFER, MovementTypeADJUSTMENT:
		return true
	}
	return false
}

// StockMovement registro inmutable de un evento que afecta el stock.
// Quantity es magnitud positiva salvo en ADJUSTMENT, donde lleva signo.
type StockMovement struct {
	ID                string
	Seq               int64 // orden de inserción; desempata timestamps iguales
	CompanyID         string
	Type              MovementType
	ProductID         string
	ProductName       string
	Quantity          decimal.Decimal
	FromLocationID    string
	ToLocationID      string
	Timestamp         time.Time
	UserID            string
	UserName          string
	Reason            string
	Reference         string // venta o producción que lo originó
	IsAudit           bool
	SystemCountBefore *decimal.Decimal
	PhysicalCount     *decimal.Decimal
}

// IsDeficit ajuste negativo (faltante detectado).
func (m *StockMovement) IsDeficit() bool {
	return m.Type == MovementTypeADJUSTMENT && m.Quantity.IsNegative()
}
