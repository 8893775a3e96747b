package inventory

import (
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID,
		Type:              string(m.Type),
		ProductID:         m.ProductID,
		ProductName:       m.ProductName,
		Quantity:          m.Quantity,
		FromLocationID:    m.FromLocationID,
		ToLocationID:      m.ToLocationID,
		Timestamp:         m.Timestamp,
		UserID:            m.UserID,
		UserName:          m.UserName,
		Reason:            m.Reason,
		Reference:         m.Reference,
		IsAudit:           m.IsAudit,
		SystemCountBefore: m.SystemCountBefore,
		PhysicalCount:     m.PhysicalCount,
	}
}

func ToMovementResponses(items []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToProductResponse incluye el reparto por ubicación si levels no es nil.
func ToProductResponse(p *entity.Product, levels []*entity.StockLevel) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:                p.ID,
		CompanyID:         p.CompanyID,
		Name:              p.Name,
		Category:          p.Category,
		Unit:              p.Unit,
		Stock:             p.Stock,
		ReservedStock:     p.ReservedStock,
		Available:         p.Available(),
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		LocationID:        p.LocationID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	for _, l := range levels {
		resp.Levels = append(resp.Levels, dto.StockLevelResponse{
			LocationID: l.LocationID,
			Quantity:   l.Quantity,
			Reserved:   l.Reserved,
			Available:  l.Available(),
		})
	}
	return resp
}

func ToStateResponse(st *ProductState) dto.ProductResponse {
	return ToProductResponse(st.Product, st.Levels)
}

func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:          s.ID,
		GuideNumber: s.GuideNumber,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		LocationID:  s.LocationID,
		Quantity:    s.Quantity,
		Status:      string(s.Status),
		MovementID:  s.MovementID,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToProductionResponse(p *entity.Production) dto.ProductionResponse {
	resp := dto.ProductionResponse{
		ID:           p.ID,
		ProductID:    p.ProductID,
		ProductName:  p.ProductName,
		Quantity:     p.Quantity,
		LocationID:   p.LocationID,
		Status:       string(p.Status),
		Date:         p.Date,
		RegisteredBy: p.RegisteredBy,
		MovementID:   p.MovementID,
	}
	for _, m := range p.Materials {
		resp.Materials = append(resp.Materials, dto.MaterialRequest{ProductID: m.ProductID, Quantity: m.Quantity})
	}
	return resp
}

func ToAuditResponse(r *ReconcileResult) dto.AuditResponse {
	resp := dto.AuditResponse{
		SystemCountBefore: r.SystemCountBefore,
		PhysicalCount:     r.PhysicalCount,
		Delta:             r.Delta,
	}
	if r.Movement != nil {
		m := ToMovementResponse(r.Movement)
		resp.Movement = &m
	}
	return resp
}
