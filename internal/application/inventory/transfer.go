package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransferCoordinator traslado entre ubicaciones como un único movimiento TRANSFER:
// ambos lados se actualizan en la misma unidad de trabajo o ninguno.
type TransferCoordinator struct {
	ledger *StockLedger
}

func NewTransferCoordinator(ledger *StockLedger) *TransferCoordinator {
	return &TransferCoordinator{ledger: ledger}
}

type TransferInput struct {
	CompanyID      string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Reason         string
	Actor          Actor
}

// Transfer mueve Quantity de origen a destino. El origen debe tener esa cantidad libre de reservas.
func (c *TransferCoordinator) Transfer(ctx context.Context, in TransferInput) (*ProductState, error) {
	if in.FromLocationID != "" && in.FromLocationID == in.ToLocationID {
		return nil, &domain.InvalidLocationError{LocationID: in.FromLocationID, Reason: "origen y destino son iguales"}
	}
	reason := in.Reason
	if reason == "" {
		reason = "Transferencia manual"
	}
	return c.ledger.ApplyMovement(ctx, entity.StockMovement{
		CompanyID:      in.CompanyID,
		Type:           entity.MovementTypeTRANSFER,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Reason:         reason,
	}, in.Actor)
}
