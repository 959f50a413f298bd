package repository

import "github.com/tu-usuario/almacen-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
//
// ApplyStockDelta es la primitiva guardada de stock: aplica un delta con
// piso en cero de forma condicional y atómica en el store, devolviendo el
// stock resultante. Debe fallar con domain.InsufficientStockError si el
// resultado sería negativo y con domain.ErrNotFound si el producto no existe,
// sin aplicar nada en ninguno de los dos casos. Es segura bajo invocación
// concurrente sobre el mismo producto (el store serializa las escrituras en
// conflicto).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id int64) (*entity.Product, error)
	GetByName(name string) (*entity.Product, error)
	Update(product *entity.Product) error
	List(limit, offset int) ([]*entity.Product, error)
	Delete(id int64) error
	ApplyStockDelta(productID, delta int64) (int64, error)
}
