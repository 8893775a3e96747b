package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Stock y reservado se manejan vía ledger.
type ProductUseCase struct {
	ledger    *inventory.StockLedger
	products  repository.ProductRepository
	levels    repository.StockLevelRepository
	locations repository.LocationRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	ledger *inventory.StockLedger,
	products repository.ProductRepository,
	levels repository.StockLevelRepository,
	locations repository.LocationRepository,
) *ProductUseCase {
	return &ProductUseCase{ledger: ledger, products: products, levels: levels, locations: locations}
}

// Create crea un producto con contadores en cero. Si trae stock inicial, éste entra como
// IN en la ubicación principal dentro de la misma unidad de trabajo.
func (uc *ProductUseCase) Create(ctx context.Context, companyID string, actor inventory.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	if in.LowStockThreshold.IsNegative() {
		return nil, domain.NewValidationError("low_stock_threshold", "no puede ser negativo")
	}
	if in.InitialStock.IsNegative() {
		return nil, domain.NewValidationError("initial_stock", "no puede ser negativo")
	}
	if in.InitialStock.IsPositive() && in.LocationID == "" {
		return nil, domain.NewValidationError("location_id", "requerido para registrar stock inicial")
	}
	unit := in.Unit
	if unit == "" {
		unit = "und"
	}

	now := time.Now().UTC()
	product := &entity.Product{
		ID:                uuid.New().String(),
		CompanyID:         companyID,
		Name:              name,
		Category:          in.Category,
		Unit:              unit,
		Stock:             decimal.Zero,
		ReservedStock:     decimal.Zero,
		LowStockThreshold: in.LowStockThreshold,
		LocationID:        in.LocationID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var state *inventory.ProductState
	err := uc.ledger.Atomically(ctx, "create_product", func(ctx context.Context, u *inventory.Unit) error {
		if product.LocationID != "" {
			if err := u.CheckLocation(ctx, companyID, product.LocationID); err != nil {
				return err
			}
		}
		p := *product
		p.Version = 0
		if err := u.Products.Create(ctx, &p); err != nil {
			return fmt.Errorf("crear producto: %w", err)
		}
		u.Touch(&p)
		if !in.InitialStock.IsPositive() {
			st, err := u.State(ctx, &p)
			state = st
			return err
		}
		st, err := u.Apply(ctx, &entity.StockMovement{
			CompanyID:    companyID,
			Type:         entity.MovementTypeIN,
			ProductID:    p.ID,
			Quantity:     in.InitialStock,
			ToLocationID: p.LocationID,
			UserID:       actor.UserID,
			UserName:     actor.UserName,
			Reason:       "Stock inicial",
		})
		state = st
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := inventory.ToStateResponse(state)
	return &resp, nil
}

// GetByID obtiene un producto con su reparto por ubicación.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	p, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	levels, err := uc.levels.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listar niveles de stock: %w", err)
	}
	resp := inventory.ToProductResponse(p, levels)
	return &resp, nil
}

// Update actualiza metadata. No permite modificar stock ni reservado (se manejan vía ledger).
// El producto se relee dentro de la unidad de trabajo para que el aviso posterior al
// commit vea los contadores vigentes.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "requerido")
		}
	}
	if in.LowStockThreshold != nil && in.LowStockThreshold.IsNegative() {
		return nil, domain.NewValidationError("low_stock_threshold", "no puede ser negativo")
	}
	var locationID string
	if in.LocationID != nil && *in.LocationID != "" {
		loc, err := uc.locations.GetByID(ctx, *in.LocationID)
		if err != nil {
			return nil, fmt.Errorf("leer ubicación: %w", err)
		}
		if loc == nil || loc.CompanyID != companyID {
			return nil, &domain.InvalidLocationError{LocationID: *in.LocationID, Reason: "desconocida"}
		}
		locationID = loc.ID
	}

	err := uc.ledger.Atomically(ctx, "update_product", func(ctx context.Context, u *inventory.Unit) error {
		p, err := u.Product(ctx, companyID, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			p.Name = name
		}
		if in.Category != nil {
			p.Category = *in.Category
		}
		if in.Unit != nil {
			p.Unit = *in.Unit
		}
		if in.LowStockThreshold != nil {
			p.LowStockThreshold = *in.LowStockThreshold
		}
		if locationID != "" {
			p.LocationID = locationID
		}
		p.UpdatedAt = time.Now().UTC()
		if err := u.Products.UpdateMetadata(ctx, p); err != nil {
			return fmt.Errorf("actualizar producto: %w", err)
		}
		u.Touch(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, companyID, id)
}

// List lista productos de la empresa.
func (uc *ProductUseCase) List(ctx context.Context, companyID string) ([]dto.ProductResponse, error) {
	list, err := uc.products.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, inventory.ToProductResponse(p, nil))
	}
	return items, nil
}

func (uc *ProductUseCase) get(ctx context.Context, companyID, id string) (*entity.Product, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer producto: %w", err)
	}
	if p == nil || p.CompanyID != companyID {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}
