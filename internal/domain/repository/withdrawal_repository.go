package repository

import "github.com/tu-usuario/almacen-api/internal/domain/entity"

// WithdrawalRepository define el puerto de persistencia para el libro de
// retiros (append-only salvo la reversión, que elimina retiro e ítems juntos).
type WithdrawalRepository interface {
	// Create persiste el retiro y todas sus líneas; asigna w.ID al confirmar.
	Create(w *entity.Withdrawal) error
	// GetByID devuelve el retiro con sus líneas en orden de entrada,
	// o nil si no existe.
	GetByID(id int64) (*entity.Withdrawal, error)
	// List devuelve los retiros más recientes primero, con líneas resueltas.
	List(limit, offset int) ([]*entity.Withdrawal, error)
	// Delete elimina las líneas y el registro. No restaura stock; eso es
	// responsabilidad del motor dentro de la misma transacción.
	Delete(id int64) error
}
