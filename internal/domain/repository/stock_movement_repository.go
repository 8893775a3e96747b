package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementKey posición de un movimiento en el orden (Timestamp DESC, Seq DESC).
type MovementKey struct {
	Timestamp time.Time
	Seq       int64
}

// Before indica si m va después de la clave en orden descendente.
func (k MovementKey) Before(m *entity.StockMovement) bool {
	if m.Timestamp.Equal(k.Timestamp) {
		return m.Seq < k.Seq
	}
	return m.Timestamp.Before(k.Timestamp)
}

// MovementQuery filtros de lectura del log. Campos vacíos no filtran.
type MovementQuery struct {
	CompanyID   string
	ProductID   string
	LocationID  string // coincide con origen o destino
	Type        entity.MovementType
	From        *time.Time
	To          *time.Time
	OnlyAudit   bool
	OnlyDeficit bool
	After       *MovementKey // keyset: solo movimientos posteriores a la clave
	Limit       int          // 0 = sin límite
}

// StockMovementRepository log de movimientos: solo inserción y lectura.
type StockMovementRepository interface {
	// Append asigna ID, Seq y Timestamp (del servidor, monótono por escritura).
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// Query devuelve los movimientos ordenados por Timestamp DESC, Seq DESC.
	Query(ctx context.Context, q MovementQuery) ([]*entity.StockMovement, error)
}
