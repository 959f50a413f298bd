package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto de transacción")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrCategoryInUse     = errors.New("la categoría tiene productos asociados")
)

// InsufficientStockError indica que un producto no tiene stock suficiente para
// cubrir la cantidad solicitada. Lleva el detalle que el cliente necesita:
// qué producto falló, cuánto pidió y cuánto había disponible.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d (%s): solicitado %d, disponible %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

// Is permite usar errors.Is(err, ErrInsufficientStock) sobre el error tipado.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
