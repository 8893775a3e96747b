package dto

// InsightDTO texto generado por IA a partir del resumen del dashboard.
type InsightDTO struct {
	Provider        string   `json:"provider"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}
