package dto

import "time"

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Name          string `json:"name"`
	MultiLocation bool   `json:"multi_location"`
}

// UpdateLocationRequest solo la metadata es editable.
type UpdateLocationRequest struct {
	Name string `json:"name"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id"`
	Name          string    `json:"name"`
	MultiLocation bool      `json:"multi_location"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
