package withdrawal

import (
	"context"
	"fmt"

	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// Reverse es la transacción compensatoria de Submit: devuelve cada cantidad
// al stock del producto correspondiente y elimina líneas y registro, todo en
// una transacción. Opera sobre productId, no sobre los snapshots, así
// funciona aunque el producto haya sido renombrado o cambiado de categoría
// después del retiro. El incremento nunca viola el piso de stock.
func (uc *UseCase) Reverse(ctx context.Context, id int64) error {
	var reversed *entity.Withdrawal
	err := uc.txRunner.Run(ctx, func(
		withdrawalRepo repository.WithdrawalRepository,
		productRepo repository.ProductRepository,
	) error {
		w, err := withdrawalRepo.GetByID(id)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("retiro %d: %w", id, domain.ErrNotFound)
		}
		for _, it := range w.Items {
			if _, err := productRepo.ApplyStockDelta(it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if err := withdrawalRepo.Delete(w.ID); err != nil {
			return err
		}
		reversed = w
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(EventReversed, reversed)
	return nil
}
