package entity

import "time"

// Category representa una categoría de productos. El nombre es único; no se
// puede eliminar mientras algún producto la referencie.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
