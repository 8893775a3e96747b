package dto

import "time"

// StockReportData insumos del PDF de existencias: agregados, productos y un tramo del log.
type StockReportData struct {
	CompanyID   string
	GeneratedAt time.Time
	Summary     *DashboardSummaryDTO
	Products    []ProductResponse
	Movements   []MovementResponse
}
