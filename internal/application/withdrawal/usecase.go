package withdrawal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// Routing keys de los eventos publicados tras confirmar.
const (
	EventCreated  = "withdrawal.created"
	EventReversed = "withdrawal.reversed"
)

// UseCase es el motor transaccional de retiros: valida, aplica y revierte
// movimientos multi-producto como una sola unidad atómica. No mantiene locks
// en proceso ni stock cacheado entre envíos; la serialización de escrituras
// en conflicto la da el store (fila de producto), así el motor puede correr
// en varios procesos a la vez.
type UseCase struct {
	txRunner       TxRunner
	productRepo    repository.ProductRepository
	withdrawalRepo repository.WithdrawalRepository
	validate       *validator.Validate
	events         EventPublisher // opcional; nil desactiva la publicación
}

// NewUseCase construye el motor. events puede ser nil.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	withdrawalRepo repository.WithdrawalRepository,
	events EventPublisher,
) *UseCase {
	return &UseCase{
		txRunner:       txRunner,
		productRepo:    productRepo,
		withdrawalRepo: withdrawalRepo,
		validate:       validator.New(),
		events:         events,
	}
}

// Submit registra un retiro completo o nada:
//
//  1. valida campos y líneas (cantidad > 0, lista no vacía, sin productos
//     repetidos);
//  2. resuelve todos los productos y verifica stock a la lectura; cualquier
//     falla aborta sin efecto observable;
//  3. recién entonces abre la transacción y aplica los decrementos con la
//     primitiva condicional del repositorio, que re-verifica contra el stock
//     actual al momento de aplicar (un decremento concurrente entre chequeo
//     y aplicación termina en InsufficientStockError, nunca en stock
//     negativo), inserta las líneas con snapshots y el registro padre;
//  4. publica withdrawal.created después del commit.
//
// TotalItems se calcula siempre en el servidor.
func (uc *UseCase) Submit(ctx context.Context, in dto.CreateWithdrawalRequest) (*entity.Withdrawal, error) {
	if err := uc.validateRequest(in); err != nil {
		return nil, err
	}

	// Resolver y verificar todas las líneas antes de tocar nada: aplicar
	// decrementos de a uno y fallar a mitad dejaría un retiro parcial.
	items := make([]entity.WithdrawalItem, 0, len(in.Items))
	for _, line := range in.Items {
		product, err := uc.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("producto %d: %w", line.ProductID, domain.ErrNotFound)
		}
		if product.Stock < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}
		items = append(items, entity.WithdrawalItem{
			ProductID:    product.ID,
			Quantity:     line.Quantity,
			ProductName:  product.Name,     // snapshot al confirmar
			CategoryName: product.CategoryName,
		})
	}

	w := &entity.Withdrawal{
		UserID:           in.UserID,
		UserName:         strings.TrimSpace(in.UserName),
		UserSection:      strings.TrimSpace(in.UserSection),
		RecipientName:    strings.TrimSpace(in.RecipientName),
		RecipientSection: strings.TrimSpace(in.RecipientSection),
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        time.Now(),
		Items:            items,
	}
	w.TotalItems = w.ComputeTotal()

	err := uc.txRunner.Run(ctx, func(
		withdrawalRepo repository.WithdrawalRepository,
		productRepo repository.ProductRepository,
	) error {
		for _, it := range w.Items {
			if _, err := productRepo.ApplyStockDelta(it.ProductID, -it.Quantity); err != nil {
				return err
			}
		}
		return withdrawalRepo.Create(w)
	})
	if err != nil {
		return nil, err
	}

	uc.publish(EventCreated, w)
	return w, nil
}

// Get devuelve un retiro materializado por ID.
func (uc *UseCase) Get(ctx context.Context, id int64) (*entity.Withdrawal, error) {
	w, err := uc.withdrawalRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("retiro %d: %w", id, domain.ErrNotFound)
	}
	return w, nil
}

// List devuelve retiros con líneas resueltas, más recientes primero.
func (uc *UseCase) List(ctx context.Context, limit, offset int) ([]*entity.Withdrawal, error) {
	return uc.withdrawalRepo.List(limit, offset)
}

// validateRequest aplica las reglas de entrada: tags del DTO, campos
// obligatorios no en blanco y productos no repetidos entre líneas.
func (uc *UseCase) validateRequest(in dto.CreateWithdrawalRequest) error {
	if err := uc.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for _, field := range []string{in.UserName, in.UserSection, in.RecipientName, in.RecipientSection} {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: campo obligatorio en blanco", domain.ErrInvalidInput)
		}
	}
	seen := make(map[int64]struct{}, len(in.Items))
	for _, line := range in.Items {
		if _, dup := seen[line.ProductID]; dup {
			return fmt.Errorf("%w: producto %d repetido en las líneas", domain.ErrInvalidInput, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

// publish emite el evento fuera de la transacción; una falla solo se loguea,
// el retiro ya está confirmado.
func (uc *UseCase) publish(routingKey string, w *entity.Withdrawal) {
	if uc.events == nil {
		return
	}
	body, err := json.Marshal(map[string]any{
		"event_id":      uuid.New().String(),
		"type":          routingKey,
		"withdrawal_id": w.ID,
		"user_id":       w.UserID,
		"total_items":   w.TotalItems,
		"occurred_at":   time.Now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("event", routingKey).Msg("serializar evento de retiro")
		return
	}
	if err := uc.events.Publish(routingKey, body); err != nil {
		log.Warn().Err(err).Str("event", routingKey).Int64("withdrawal_id", w.ID).
			Msg("publicar evento de retiro")
	}
}
