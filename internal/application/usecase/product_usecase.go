package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// ProductUseCase administra el catálogo de productos. El stock no se edita
// por Update: todo movimiento pasa por AdjustStock o por el motor de retiros.
type ProductUseCase struct {
	productRepo repository.ProductRepository
	validate    *validator.Validate
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(productRepo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo, validate: validator.New()}
}

// Create da de alta un producto. Nombre único (ErrDuplicate si choca).
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*entity.Product, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre en blanco", domain.ErrInvalidInput)
	}
	now := time.Now()
	p := &entity.Product{
		Name:       name,
		CategoryID: in.CategoryID,
		Stock:      in.Stock,
		MinStock:   in.MinStock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.productRepo.Create(p); err != nil {
		return nil, err
	}
	return uc.Get(ctx, p.ID)
}

// Get devuelve un producto por ID.
func (uc *ProductUseCase) Get(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Update modifica nombre, categoría y stock mínimo.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*entity.Product, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	p, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.CategoryID = in.CategoryID
	p.MinStock = in.MinStock
	p.UpdatedAt = time.Now()
	if err := uc.productRepo.Update(p); err != nil {
		return nil, err
	}
	return uc.Get(ctx, id)
}

// AdjustStock aplica un delta con signo al stock del producto usando la
// primitiva guardada (piso en cero, condicional en el store). Devuelve el
// stock resultante. La usan los ajustes administrativos; el motor de retiros
// usa la misma primitiva con delta negativo dentro de su transacción.
func (uc *ProductUseCase) AdjustStock(ctx context.Context, id, delta int64) (int64, error) {
	if delta == 0 {
		return 0, fmt.Errorf("%w: delta cero", domain.ErrInvalidInput)
	}
	return uc.productRepo.ApplyStockDelta(id, delta)
}

// List lista productos paginados.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return uc.productRepo.List(limit, offset)
}

// Delete elimina un producto sin historial de retiros.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.productRepo.Delete(id)
}
