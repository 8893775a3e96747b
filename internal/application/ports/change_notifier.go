package ports

import (
	"context"
	"time"
)

// ChangeEvent aviso de que el ledger confirmó cambios sobre estos productos.
type ChangeEvent struct {
	CompanyID  string    `json:"company_id"`
	ProductIDs []string  `json:"product_ids"`
	At         time.Time `json:"at"`
}

// ChangeNotifier difunde los cambios confirmados a los lectores (proyecciones, dashboards).
// Publish se llama después del commit; un fallo no deshace la operación.
type ChangeNotifier interface {
	Publish(ctx context.Context, event ChangeEvent) error
	// Subscribe entrega eventos hasta que ctx se cancela; entonces cierra el canal.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}
