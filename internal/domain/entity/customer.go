package entity

import "time"

// Customer representa un cliente de la organización (opcional en la factura).
type Customer struct {
	ID        string
	OrgID     string
	Code      string // teléfono o documento; único por organización
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
