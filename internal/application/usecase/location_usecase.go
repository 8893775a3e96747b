package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// LocationUseCase casos de uso CRUD para ubicaciones. No hay borrado: los movimientos las referencian.
type LocationUseCase struct {
	repo repository.LocationRepository
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo}
}

// Create crea una nueva ubicación.
func (uc *LocationUseCase) Create(ctx context.Context, companyID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	now := time.Now().UTC()
	loc := &entity.Location{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Name:          name,
		MultiLocation: in.MultiLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("crear ubicación: %w", err)
	}
	return toLocationResponse(loc), nil
}

// GetByID obtiene una ubicación de la empresa.
func (uc *LocationUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.LocationResponse, error) {
	loc, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// Rename actualiza el nombre, única metadata editable.
func (uc *LocationUseCase) Rename(ctx context.Context, companyID, id string, in dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	loc, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	loc.Name = name
	loc.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, loc); err != nil {
		return nil, fmt.Errorf("actualizar ubicación: %w", err)
	}
	return toLocationResponse(loc), nil
}

// List lista las ubicaciones de la empresa.
func (uc *LocationUseCase) List(ctx context.Context, companyID string) ([]dto.LocationResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar ubicaciones: %w", err)
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return items, nil
}

func (uc *LocationUseCase) get(ctx context.Context, companyID, id string) (*entity.Location, error) {
	loc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer ubicación: %w", err)
	}
	if loc == nil || loc.CompanyID != companyID {
		return nil, fmt.Errorf("ubicación %s: %w", id, domain.ErrNotFound)
	}
	return loc, nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	if l == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:            l.ID,
		CompanyID:     l.CompanyID,
		Name:          l.Name,
		MultiLocation: l.MultiLocation,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}
