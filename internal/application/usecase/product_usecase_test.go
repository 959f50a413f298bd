package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/usecase"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/infrastructure/memstore"
)

func newProductUC(t *testing.T) (*usecase.ProductUseCase, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	cat := &entity.Category{Name: "Limpieza", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Categories().Create(cat))
	return usecase.NewProductUseCase(store.Products()), store
}

func TestProductCreate_ResuelveCategoria(t *testing.T) {
	uc, _ := newProductUC(t)

	p, err := uc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Detergente", CategoryID: 1, Stock: 12, MinStock: 3,
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Limpieza", p.CategoryName)
	assert.Equal(t, int64(12), p.Stock)
}

func TestProductCreate_NombreDuplicado(t *testing.T) {
	uc, _ := newProductUC(t)

	_, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "Detergente", CategoryID: 1})
	require.NoError(t, err)

	// Mismo nombre con otra capitalización: también choca.
	_, err = uc.Create(context.Background(), dto.CreateProductRequest{Name: "DETERGENTE", CategoryID: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductCreate_CategoriaInexistente(t *testing.T) {
	uc, _ := newProductUC(t)

	_, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "Detergente", CategoryID: 99})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// La primitiva de ajuste: delta con signo, piso en cero, devuelve el stock nuevo.
func TestAdjustStock_DeltaConSignoYPiso(t *testing.T) {
	uc, _ := newProductUC(t)
	p, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "Detergente", CategoryID: 1, Stock: 10})
	require.NoError(t, err)

	newStock, err := uc.AdjustStock(context.Background(), p.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), newStock)

	newStock, err = uc.AdjustStock(context.Background(), p.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(15), newStock)

	// Un delta que dejaría stock negativo se rechaza completo.
	_, err = uc.AdjustStock(context.Background(), p.ID, -20)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(20), stockErr.Requested)
	assert.Equal(t, int64(15), stockErr.Available)

	got, err := uc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), got.Stock, "el rechazo no debe aplicar nada")
}

func TestAdjustStock_ProductoInexistente(t *testing.T) {
	uc, _ := newProductUC(t)
	_, err := uc.AdjustStock(context.Background(), 99, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustStock_DeltaCero_Validacion(t *testing.T) {
	uc, _ := newProductUC(t)
	_, err := uc.AdjustStock(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Update no toca el stock aunque el producto cambie de nombre y categoría.
func TestProductUpdate_NoTocaStock(t *testing.T) {
	uc, store := newProductUC(t)
	otra := &entity.Category{Name: "Oficina", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Categories().Create(otra))

	p, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "Detergente", CategoryID: 1, Stock: 10})
	require.NoError(t, err)

	got, err := uc.Update(context.Background(), p.ID, dto.UpdateProductRequest{
		Name: "Limpiavidrios", CategoryID: otra.ID, MinStock: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Limpiavidrios", got.Name)
	assert.Equal(t, "Oficina", got.CategoryName)
	assert.Equal(t, int64(10), got.Stock)
}
