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

// CategoryUseCase administra las categorías del catálogo.
type CategoryUseCase struct {
	categoryRepo repository.CategoryRepository
	validate     *validator.Validate
}

// NewCategoryUseCase construye el caso de uso.
func NewCategoryUseCase(categoryRepo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{categoryRepo: categoryRepo, validate: validator.New()}
}

// Create da de alta una categoría de nombre único.
func (uc *CategoryUseCase) Create(ctx context.Context, in dto.CreateCategoryRequest) (*entity.Category, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre en blanco", domain.ErrInvalidInput)
	}
	now := time.Now()
	c := &entity.Category{Name: name, CreatedAt: now, UpdatedAt: now}
	if err := uc.categoryRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get devuelve una categoría por ID.
func (uc *CategoryUseCase) Get(ctx context.Context, id int64) (*entity.Category, error) {
	c, err := uc.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("categoría %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// Update renombra una categoría.
func (uc *CategoryUseCase) Update(ctx context.Context, id int64, in dto.CreateCategoryRequest) (*entity.Category, error) {
	if err := uc.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.UpdatedAt = time.Now()
	if err := uc.categoryRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// List lista categorías paginadas.
func (uc *CategoryUseCase) List(ctx context.Context, limit, offset int) ([]*entity.Category, error) {
	return uc.categoryRepo.List(limit, offset)
}

// Delete elimina una categoría sin productos asociados (ErrCategoryInUse si
// alguno la referencia).
func (uc *CategoryUseCase) Delete(ctx context.Context, id int64) error {
	return uc.categoryRepo.Delete(id)
}
