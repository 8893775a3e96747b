package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductionUseCase registro y procesamiento de lotes de producción.
type ProductionUseCase struct {
	ledger      *StockLedger
	productions repository.ProductionRepository
	log         zerolog.Logger
}

func NewProductionUseCase(ledger *StockLedger, productions repository.ProductionRepository, log zerolog.Logger) *ProductionUseCase {
	return &ProductionUseCase{ledger: ledger, productions: productions, log: log}
}

type RegisterProductionInput struct {
	CompanyID  string
	ProductID  string
	Quantity   decimal.Decimal
	LocationID string // vacío = ubicación principal del producto
	Materials  []entity.MaterialUsage
	Actor      Actor
}

// Register crea el lote en estado Pending. No mueve stock.
func (uc *ProductionUseCase) Register(ctx context.Context, in RegisterProductionInput) (*entity.Production, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser positiva")
	}
	if err := domaininv.CheckScale("quantity", in.Quantity); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(in.Materials))
	for i, mat := range in.Materials {
		field := fmt.Sprintf("materials[%d]", i)
		switch {
		case mat.ProductID == "":
			return nil, domain.NewValidationError(field, "product_id requerido")
		case mat.ProductID == in.ProductID:
			return nil, domain.NewValidationError(field, "un producto no puede consumirse a sí mismo")
		case !mat.Quantity.IsPositive():
			return nil, domain.NewValidationError(field, "la cantidad debe ser positiva")
		case domaininv.CheckScale(field, mat.Quantity) != nil:
			return nil, domain.NewValidationError(field, "admite como máximo 4 decimales")
		case seen[mat.ProductID]:
			return nil, domain.NewValidationError(field, "materia prima repetida")
		}
		seen[mat.ProductID] = true
	}

	var prod *entity.Production
	err := uc.ledger.Atomically(ctx, "register_production", func(ctx context.Context, u *Unit) error {
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
		for _, mat := range in.Materials {
			if _, err := u.Product(ctx, in.CompanyID, mat.ProductID); err != nil {
				return err
			}
		}
		prod = &entity.Production{
			ID:           uuid.New().String(),
			CompanyID:    in.CompanyID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			Quantity:     in.Quantity,
			LocationID:   locationID,
			Materials:    in.Materials,
			Status:       entity.ProductionStatusPending,
			Date:         u.now(),
			RegisteredBy: in.Actor.UserID,
		}
		if err := u.Productions.Create(ctx, prod); err != nil {
			return fmt.Errorf("crear producción: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prod, nil
}

// Process consume materias primas, ingresa lo producido y opcionalmente lo traslada,
// todo en una unidad de trabajo. Procesar un lote ya trasladado no hace nada.
func (uc *ProductionUseCase) Process(ctx context.Context, companyID, productionID, toLocationID string, actor Actor) (*entity.Production, error) {
	var prod *entity.Production
	err := uc.ledger.Atomically(ctx, "process_production", func(ctx context.Context, u *Unit) error {
		pr, err := u.Productions.GetByID(ctx, productionID)
		if err != nil {
			return fmt.Errorf("leer producción: %w", err)
		}
		if pr == nil || pr.CompanyID != companyID {
			return fmt.Errorf("producción %s: %w", productionID, domain.ErrNotFound)
		}
		if pr.Status == entity.ProductionStatusTransferred {
			prod = pr
			return nil
		}

		for _, mat := range pr.Materials {
			if _, err := u.Apply(ctx, &entity.StockMovement{
				CompanyID:      companyID,
				Type:           entity.MovementTypeOUT,
				ProductID:      mat.ProductID,
				Quantity:       mat.Quantity,
				FromLocationID: pr.LocationID,
				UserID:         actor.UserID,
				UserName:       actor.UserName,
				Reason:         "Consumo de producción",
				Reference:      pr.ID,
			}); err != nil {
				return err
			}
		}

		p, err := u.Product(ctx, companyID, pr.ProductID)
		if err != nil {
			return err
		}
		in, err := u.Apply(ctx, &entity.StockMovement{
			CompanyID:    companyID,
			Type:         entity.MovementTypeIN,
			ProductID:    pr.ProductID,
			Quantity:     pr.Quantity,
			ToLocationID: pr.LocationID,
			UserID:       actor.UserID,
			UserName:     actor.UserName,
			Reason:       strings.TrimSpace(fmt.Sprintf("Producción: %s %s", pr.Quantity, p.Unit)),
			Reference:    pr.ID,
		})
		if err != nil {
			return err
		}
		pr.MovementID = in.Movement.ID

		if toLocationID != "" && toLocationID != pr.LocationID {
			if _, err := u.Apply(ctx, &entity.StockMovement{
				CompanyID:      companyID,
				Type:           entity.MovementTypeTRANSFER,
				ProductID:      pr.ProductID,
				Quantity:       pr.Quantity,
				FromLocationID: pr.LocationID,
				ToLocationID:   toLocationID,
				UserID:         actor.UserID,
				UserName:       actor.UserName,
				Reason:         "Traslado de producción",
				Reference:      pr.ID,
			}); err != nil {
				return err
			}
		}

		pr.Status = entity.ProductionStatusTransferred
		if err := u.Productions.Update(ctx, pr); err != nil {
			return fmt.Errorf("actualizar producción: %w", err)
		}
		prod = pr
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("production_id", prod.ID).Str("status", string(prod.Status)).Msg("producción procesada")
	return prod, nil
}

// Get devuelve un lote de la empresa.
func (uc *ProductionUseCase) Get(ctx context.Context, companyID, id string) (*entity.Production, error) {
	pr, err := uc.productions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer producción: %w", err)
	}
	if pr == nil || pr.CompanyID != companyID {
		return nil, fmt.Errorf("producción %s: %w", id, domain.ErrNotFound)
	}
	return pr, nil
}

func (uc *ProductionUseCase) List(ctx context.Context, companyID string, status entity.ProductionStatus) ([]*entity.Production, error) {
	list, err := uc.productions.ListByCompany(ctx, companyID, status)
	if err != nil {
		return nil, fmt.Errorf("listar producciones: %w", err)
	}
	return list, nil
}
