package entity

import "time"

// Product representa un producto del almacén. Stock es la cantidad disponible
// (entera, nunca negativa) y solo se modifica vía el motor de retiros o el
// ajuste guardado ApplyStockDelta; MinStock es el umbral de alerta.
// CategoryName viene denormalizado en las lecturas (JOIN) y es la fuente del
// snapshot de categoría en los ítems de retiro.
type Product struct {
	ID           int64
	Name         string // único, sin distinguir mayúsculas
	CategoryID   int64
	CategoryName string // solo lectura, llenado por el repositorio
	Stock        int64
	MinStock     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BelowMinStock indica si el producto está por debajo de su stock mínimo.
func (p *Product) BelowMinStock() bool {
	return p.Stock < p.MinStock
}
