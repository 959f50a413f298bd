package withdrawal

import (
	"context"

	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del store, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de retiros:
// o se confirma todo (registro, líneas y decrementos) o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		withdrawalRepo repository.WithdrawalRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// EventPublisher publica eventos de dominio ya confirmados (best-effort,
// fuera de la transacción). pkg/rabbitmq lo implementa.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}
