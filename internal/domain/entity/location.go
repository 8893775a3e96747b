package entity

import "time"

// Location bodega, tienda o planta donde se guarda stock.
// Una vez referenciada por movimientos solo cambia su metadata (nombre).
type Location struct {
	ID            string
	CompanyID     string
	Name          string
	MultiLocation bool // la empresa opera con varias ubicaciones
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
