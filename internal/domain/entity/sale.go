package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus estado del ciclo de vida de una venta.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "Pending"
	SaleStatusFulfilled SaleStatus = "Fulfilled"
	SaleStatusCancelled SaleStatus = "Cancelled"
)

// Sale venta registrada. Mientras está Pending su cantidad está reservada.
// Nunca se borra; solo cambia de estado.
type Sale struct {
	ID          string
	CompanyID   string
	ProductID   string
	ProductName string
	LocationID  string
	Quantity    decimal.Decimal
	Status      SaleStatus
	GuideNumber string
	MovementID  string // movimiento OUT al cumplirse
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// FormatGuideNumber número de guía secuencial por empresa: GT-000001.
func FormatGuideNumber(n int64) string {
	return fmt.Sprintf("GT-%06d", n)
}
