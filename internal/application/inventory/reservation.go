package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ReservationManager ciclo de vida de ventas: Pending -> Fulfilled | Cancelled.
// Mientras una venta está Pending su cantidad está reservada en el ledger.
type ReservationManager struct {
	ledger *StockLedger
	sales  repository.SaleRepository
	log    zerolog.Logger
}

func NewReservationManager(ledger *StockLedger, sales repository.SaleRepository, log zerolog.Logger) *ReservationManager {
	return &ReservationManager{ledger: ledger, sales: sales, log: log}
}

// ReserveInput datos de una nueva venta.
type ReserveInput struct {
	CompanyID  string
	ProductID  string
	LocationID string // vacío = ubicación principal del producto
	Quantity   decimal.Decimal
	Actor      Actor
}

// Reserve crea la venta Pending y reserva su cantidad en la misma unidad de trabajo.
// No anexa movimientos.
func (m *ReservationManager) Reserve(ctx context.Context, in ReserveInput) (*entity.Sale, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	if err := domaininv.CheckScale("quantity", in.Quantity); err != nil {
		return nil, err
	}

	var sale *entity.Sale
	err := m.ledger.Atomically(ctx, "reserve", func(ctx context.Context, u *Unit) error {
		p, err := u.Product(ctx, in.CompanyID, in.ProductID)
		if err != nil {
			return err
		}
		locationID := in.LocationID
		if locationID == "" {
			locationID = p.LocationID
		}
		if locationID == "" {
			return domain.NewValidationError("location_id", "requerido: el producto no tiene ubicación principal")
		}
		if err := u.CheckLocation(ctx, in.CompanyID, locationID); err != nil {
			return err
		}
		if err := u.Reserve(ctx, p, locationID, in.Quantity); err != nil {
			return err
		}

		n, err := u.Sales.NextGuideNumber(ctx, in.CompanyID)
		if err != nil {
			return fmt.Errorf("número de guía: %w", err)
		}
		now := u.now()
		s := &entity.Sale{
			ID:          uuid.New().String(),
			CompanyID:   in.CompanyID,
			ProductID:   p.ID,
			ProductName: p.Name,
			LocationID:  locationID,
			Quantity:    in.Quantity,
			Status:      entity.SaleStatusPending,
			GuideNumber: entity.FormatGuideNumber(n),
			CreatedBy:   in.Actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := u.Sales.Create(ctx, s); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("sale_id", sale.ID).
		Str("guide", sale.GuideNumber).
		Str("product_id", sale.ProductID).
		Str("quantity", sale.Quantity.String()).
		Msg("venta reservada")
	return sale, nil
}

// Fulfill libera la reserva y anexa la salida OUT. Idempotente sobre ventas ya cumplidas.
func (m *ReservationManager) Fulfill(ctx context.Context, companyID, saleID string, actor Actor) (*entity.Sale, error) {
	var sale *entity.Sale
	err := m.ledger.Atomically(ctx, "fulfill", func(ctx context.Context, u *Unit) error {
		s, err := loadSale(ctx, u, companyID, saleID)
		if err != nil {
			return err
		}
		switch s.Status {
		case entity.SaleStatusFulfilled:
			sale = s
			return nil
		case entity.SaleStatusCancelled:
			return fmt.Errorf("%w: la venta %s está cancelada", domain.ErrConflict, s.GuideNumber)
		}

		p, err := u.Product(ctx, companyID, s.ProductID)
		if err != nil {
			return err
		}
		if err := u.Release(ctx, p, s.LocationID, s.Quantity); err != nil {
			return err
		}
		st, err := u.Apply(ctx, &entity.StockMovement{
			CompanyID:      companyID,
			Type:           entity.MovementTypeOUT,
			ProductID:      s.ProductID,
			Quantity:       s.Quantity,
			FromLocationID: s.LocationID,
			UserID:         actor.UserID,
			UserName:       actor.UserName,
			Reason:         "Venta " + s.GuideNumber,
			Reference:      s.ID,
		})
		if err != nil {
			return err
		}

		s.Status = entity.SaleStatusFulfilled
		s.MovementID = st.Movement.ID
		s.UpdatedAt = u.now()
		if err := u.Sales.Update(ctx, s); err != nil {
			return fmt.Errorf("actualizar venta: %w", err)
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Cancel libera la reserva sin movimiento. Idempotente sobre ventas ya canceladas.
func (m *ReservationManager) Cancel(ctx context.Context, companyID, saleID string) (*entity.Sale, error) {
	var sale *entity.Sale
	err := m.ledger.Atomically(ctx, "cancel", func(ctx context.Context, u *Unit) error {
		s, err := loadSale(ctx, u, companyID, saleID)
		if err != nil {
			return err
		}
		switch s.Status {
		case entity.SaleStatusCancelled:
			sale = s
			return nil
		case entity.SaleStatusFulfilled:
			return fmt.Errorf("%w: la venta %s ya fue despachada", domain.ErrConflict, s.GuideNumber)
		}

		p, err := u.Product(ctx, companyID, s.ProductID)
		if err != nil {
			return err
		}
		if err := u.Release(ctx, p, s.LocationID, s.Quantity); err != nil {
			return err
		}
		s.Status = entity.SaleStatusCancelled
		s.UpdatedAt = u.now()
		if err := u.Sales.Update(ctx, s); err != nil {
			return fmt.Errorf("actualizar venta: %w", err)
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// RecalculateReserved reconstruye lo reservado del producto a partir de sus ventas Pending.
func (m *ReservationManager) RecalculateReserved(ctx context.Context, companyID, productID string) (*ProductState, error) {
	var state *ProductState
	err := m.ledger.Atomically(ctx, "recalculate_reserved", func(ctx context.Context, u *Unit) error {
		p, err := u.Product(ctx, companyID, productID)
		if err != nil {
			return err
		}
		pending, err := u.Sales.ListPendingByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("listar ventas pendientes: %w", err)
		}
		byLocation := make(map[string]decimal.Decimal)
		for _, s := range pending {
			byLocation[s.LocationID] = byLocation[s.LocationID].Add(s.Quantity)
		}
		before := p.ReservedStock
		st, err := u.ResetReserved(ctx, p, byLocation)
		if err != nil {
			return err
		}
		if !before.Equal(st.Product.ReservedStock) {
			m.log.Warn().
				Str("product_id", productID).
				Str("before", before.String()).
				Str("after", st.Product.ReservedStock.String()).
				Msg("reservado recalculado")
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Get devuelve una venta de la empresa.
func (m *ReservationManager) Get(ctx context.Context, companyID, saleID string) (*entity.Sale, error) {
	s, err := m.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("leer venta: %w", err)
	}
	if s == nil || s.CompanyID != companyID {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	return s, nil
}

// List ventas de la empresa, opcionalmente por estado.
func (m *ReservationManager) List(ctx context.Context, companyID string, status entity.SaleStatus) ([]*entity.Sale, error) {
	switch status {
	case "", entity.SaleStatusPending, entity.SaleStatusFulfilled, entity.SaleStatusCancelled:
	default:
		return nil, domain.NewValidationError("status", "estado desconocido")
	}
	list, err := m.sales.ListByCompany(ctx, companyID, status)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	return list, nil
}

func loadSale(ctx context.Context, u *Unit, companyID, saleID string) (*entity.Sale, error) {
	s, err := u.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("leer venta: %w", err)
	}
	if s == nil || s.CompanyID != companyID {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	return s, nil
}
