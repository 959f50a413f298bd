package repository

import "github.com/tu-usuario/almacen-api/internal/domain/entity"

// CategoryRepository define el puerto de persistencia para Category (DIP).
// Delete debe fallar con domain.ErrCategoryInUse si algún producto referencia
// la categoría.
type CategoryRepository interface {
	Create(category *entity.Category) error
	GetByID(id int64) (*entity.Category, error)
	Update(category *entity.Category) error
	List(limit, offset int) ([]*entity.Category, error)
	Delete(id int64) error
}
