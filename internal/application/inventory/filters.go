package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TypeFilter filtro por tipo de la vista de historial.
type TypeFilter string

const (
	FilterAll        TypeFilter = "all"
	FilterIn         TypeFilter = "in"
	FilterOut        TypeFilter = "out"
	FilterTransfer   TypeFilter = "transfer"
	FilterAdjustment TypeFilter = "adjustment"
	FilterDeficit    TypeFilter = "deficit"
	FilterAudit      TypeFilter = "audit"
)

// ParseTypeFilter vacío equivale a "all".
func ParseTypeFilter(s string) (TypeFilter, error) {
	f := TypeFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterIn, FilterOut, FilterTransfer, FilterAdjustment, FilterDeficit, FilterAudit:
		return f, nil
	}
	return "", domain.NewValidationError("filter", "filtro desconocido")
}

// Match predicado puro sobre un movimiento.
func (f TypeFilter) Match(m *entity.StockMovement) bool {
	switch f {
	case FilterIn:
		return m.Type == entity.MovementTypeIN
	case FilterOut:
		return m.Type == entity.MovementTypeOUT
	case FilterTransfer:
		return m.Type == entity.MovementTypeTRANSFER
	case FilterAdjustment:
		return m.Type == entity.MovementTypeADJUSTMENT
	case FilterDeficit:
		return m.IsDeficit()
	case FilterAudit:
		return m.IsAudit
	}
	return true
}

// FilterMovements aplica búsqueda de texto y filtro de tipo conservando el orden.
// La búsqueda ignora mayúsculas y tildes sobre producto, motivo, usuario y ubicaciones.
func FilterMovements(items []*entity.StockMovement, text string, tf TypeFilter) []*entity.StockMovement {
	needle := Fold(strings.TrimSpace(text))
	out := make([]*entity.StockMovement, 0, len(items))
	for _, m := range items {
		if !tf.Match(m) {
			continue
		}
		if needle != "" && !matchesText(m, needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matchesText(m *entity.StockMovement, needle string) bool {
	for _, field := range []string{m.ProductName, m.Reason, m.UserName, m.FromLocationID, m.ToLocationID} {
		if field != "" && strings.Contains(Fold(field), needle) {
			return true
		}
	}
	return false
}

// Fold minúsculas sin marcas diacríticas ("Café" -> "cafe").
func Fold(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
