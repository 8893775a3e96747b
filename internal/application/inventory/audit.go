package inventory

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AuditReconciler concilia un conteo físico con el conteo del sistema mediante un ADJUSTMENT.
type AuditReconciler struct {
	ledger *StockLedger
	log    zerolog.Logger
}

func NewAuditReconciler(ledger *StockLedger, log zerolog.Logger) *AuditReconciler {
	return &AuditReconciler{ledger: ledger, log: log}
}

type ReconcileInput struct {
	CompanyID     string
	ProductID     string
	LocationID    string // vacío = conteo de todo el producto, ajustado en su ubicación principal
	PhysicalCount decimal.Decimal
	Reason        string
	Actor         Actor
}

// ReconcileResult Movement es nil cuando el conteo coincide.
type ReconcileResult struct {
	SystemCountBefore decimal.Decimal
	PhysicalCount     decimal.Decimal
	Delta             decimal.Decimal
	Movement          *entity.StockMovement
	State             *ProductState
}

// Reconcile lee el conteo del sistema y, si difiere, anexa el ajuste por la diferencia
// dentro de la misma unidad de trabajo. Nunca toca lo reservado.
func (r *AuditReconciler) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "requerido")
	}
	if in.PhysicalCount.IsNegative() {
		return nil, domain.NewValidationError("physical_count", "no puede ser negativo")
	}
	if err := domaininv.CheckScale("physical_count", in.PhysicalCount); err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = "Auditoría de inventario"
	}

	var res *ReconcileResult
	err := r.ledger.Atomically(ctx, "reconcile", func(ctx context.Context, u *Unit) error {
		p, err := u.Product(ctx, in.CompanyID, in.ProductID)
		if err != nil {
			return err
		}

		var system decimal.Decimal
		target := in.LocationID
		if target == "" {
			target = p.LocationID
			system = p.Stock
			if target == "" {
				return domain.NewValidationError("location_id", "requerido: el producto no tiene ubicación principal")
			}
		} else {
			if err := u.CheckLocation(ctx, in.CompanyID, target); err != nil {
				return err
			}
			level, err := u.Levels.Get(ctx, p.ID, target)
			if err != nil {
				return err
			}
			system = level.Quantity
		}

		delta := in.PhysicalCount.Sub(system)
		res = &ReconcileResult{SystemCountBefore: system, PhysicalCount: in.PhysicalCount, Delta: delta}
		if delta.IsZero() {
			st, err := u.State(ctx, p)
			if err != nil {
				return err
			}
			res.State = st
			return nil
		}

		before, physical := system, in.PhysicalCount
		st, err := u.Apply(ctx, &entity.StockMovement{
			CompanyID:         in.CompanyID,
			Type:              entity.MovementTypeADJUSTMENT,
			ProductID:         p.ID,
			Quantity:          delta,
			ToLocationID:      target,
			UserID:            in.Actor.UserID,
			UserName:          in.Actor.UserName,
			Reason:            reason,
			IsAudit:           true,
			SystemCountBefore: &before,
			PhysicalCount:     &physical,
		})
		if err != nil {
			return err
		}
		res.Movement = st.Movement
		res.State = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Movement != nil {
		r.log.Info().
			Str("product_id", in.ProductID).
			Str("system", res.SystemCountBefore.String()).
			Str("physical", res.PhysicalCount.String()).
			Str("delta", res.Delta.String()).
			Msg("auditoría conciliada")
	}
	return res, nil
}
