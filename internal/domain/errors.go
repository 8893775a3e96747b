package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                   = errors.New("recurso no encontrado")
	ErrInvalidInput               = errors.New("entrada inválida")
	ErrDuplicate                  = errors.New("recurso duplicado")
	ErrUnauthorized               = errors.New("no autorizado")
	ErrForbidden                  = errors.New("acceso denegado")
	ErrConflict                   = errors.New("conflicto con el estado actual")
	ErrInsufficientStock          = errors.New("stock insuficiente")
	ErrInsufficientAvailableStock = errors.New("stock disponible insuficiente")
	ErrInvalidLocation            = errors.New("ubicación inválida")
	ErrConcurrentModification     = errors.New("el inventario cambió durante la operación, intente de nuevo")
	ErrUnavailable                = errors.New("almacenamiento no disponible")
)

// ValidationError movimiento o entrada mal formada. Nunca se reintenta.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validación: %s", e.Reason)
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError una salida dejaría el stock por debajo de cero o de lo reservado.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	loc := e.LocationID
	if loc == "" {
		loc = "todas"
	}
	return fmt.Sprintf("stock insuficiente para %s en ubicación %s: solicitado %s, disponible %s",
		e.ProductID, loc, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientAvailableStockError una reserva supera stock - reservado.
type InsufficientAvailableStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientAvailableStockError) Error() string {
	return fmt.Sprintf("stock disponible insuficiente para %s: solicitado %s, disponible %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientAvailableStockError) Unwrap() error { return ErrInsufficientAvailableStock }

// InvalidLocationError origen igual a destino o ubicación desconocida.
type InvalidLocationError struct {
	LocationID string
	Reason     string
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("ubicación inválida %q: %s", e.LocationID, e.Reason)
}

func (e *InvalidLocationError) Unwrap() error { return ErrInvalidLocation }

// ConcurrentModificationError el registro cambió entre la lectura y la escritura.
type ConcurrentModificationError struct {
	Entity string
	ID     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("modificación concurrente en %s %s", e.Entity, e.ID)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// IsRetryable reporta si el error es transitorio (solo conflictos de concurrencia optimista).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
