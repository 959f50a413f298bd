package withdrawal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-api/internal/application/dto"
	"github.com/tu-usuario/almacen-api/internal/application/withdrawal"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/infrastructure/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// fakePublisher acumula las routing keys publicadas.
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) Publish(routingKey string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, routingKey)
	return nil
}

type engineFixture struct {
	uc     *withdrawal.UseCase
	store  *memstore.Store
	events *fakePublisher
}

// newEngine arma el motor sobre el store en memoria con una categoría base.
func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	store := memstore.New()
	cat := &entity.Category{Name: "Papelería", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, store.Categories().Create(cat))

	events := &fakePublisher{}
	uc := withdrawal.NewUseCase(store, store.Products(), store.Withdrawals(), events)
	return &engineFixture{uc: uc, store: store, events: events}
}

// seedProduct da de alta un producto con el stock indicado y devuelve su ID.
func (f *engineFixture) seedProduct(t *testing.T, name string, stock int64) int64 {
	t.Helper()
	p := &entity.Product{
		Name:       name,
		CategoryID: 1,
		Stock:      stock,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, f.store.Products().Create(p))
	return p.ID
}

// stockOf lee el stock actual de un producto.
func (f *engineFixture) stockOf(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

// validRequest construye una petición bien formada con las líneas dadas.
func validRequest(items ...dto.WithdrawalItemRequest) dto.CreateWithdrawalRequest {
	return dto.CreateWithdrawalRequest{
		UserID:           7,
		UserName:         "Laura Méndez",
		UserSection:      "Compras",
		RecipientName:    "Equipo de campo",
		RecipientSection: "Operaciones",
		Items:            items,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Submit
// ──────────────────────────────────────────────────────────────────────────────

// Escenario base: retirar 4 de un producto con stock 10 deja stock 6 y un
// registro con total 4.
func TestSubmit_DescuentaStockYRegistraElRetiro(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 4},
	))
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.NotZero(t, w.ID, "el ID lo asigna el store al confirmar")
	assert.Equal(t, int64(4), w.TotalItems, "el total debe calcularse en el servidor")
	assert.Equal(t, int64(6), f.stockOf(t, id), "el stock debe quedar descontado")

	require.Len(t, w.Items, 1)
	assert.Equal(t, "Resma A4", w.Items[0].ProductName, "la línea lleva snapshot del nombre")
	assert.Equal(t, "Papelería", w.Items[0].CategoryName, "la línea lleva snapshot de la categoría")
}

// El total es siempre Σ cantidades, con varias líneas y en el orden de entrada.
func TestSubmit_VariasLineas_TotalYOrden(t *testing.T) {
	f := newEngine(t)
	a := f.seedProduct(t, "Lapiceras", 20)
	b := f.seedProduct(t, "Cuadernos", 15)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: b, Quantity: 5},
		dto.WithdrawalItemRequest{ProductID: a, Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, int64(7), w.TotalItems)
	require.Len(t, w.Items, 2)
	assert.Equal(t, b, w.Items[0].ProductID, "las líneas conservan el orden de entrada")
	assert.Equal(t, a, w.Items[1].ProductID)

	got, err := f.uc.Get(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got.Items[0].ProductID, "el orden debe hacer round-trip por el store")
	assert.Equal(t, a, got.Items[1].ProductID)
}

// Un producto inexistente aborta todo: las líneas válidas de la misma
// petición no deben tocar stock ni dejar registro.
func TestSubmit_ProductoInexistente_SinEfectoParcial(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	_, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 4},
		dto.WithdrawalItemRequest{ProductID: 999, Quantity: 1},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "999", "el error debe nombrar el producto faltante")

	assert.Equal(t, int64(10), f.stockOf(t, id), "la línea válida no debe haberse aplicado")
	list, err := f.uc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "no debe quedar registro alguno")
}

// Stock insuficiente: el error tipado lleva producto, solicitado y disponible,
// y el stock no cambia.
func TestSubmit_StockInsuficiente_DetalleDelError(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Tóner", 3)

	_, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 5},
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, id, stockErr.ProductID)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(3), stockErr.Available)

	assert.Equal(t, int64(3), f.stockOf(t, id), "el stock debe quedar intacto")
}

// Falla en una línea posterior: la primera línea, que sola habría alcanzado,
// tampoco se aplica.
func TestSubmit_FallaTardia_NoAplicaLineasAnteriores(t *testing.T) {
	f := newEngine(t)
	ok := f.seedProduct(t, "Lapiceras", 20)
	corto := f.seedProduct(t, "Tóner", 2)

	_, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: ok, Quantity: 5},
		dto.WithdrawalItemRequest{ProductID: corto, Quantity: 4},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(20), f.stockOf(t, ok))
	assert.Equal(t, int64(2), f.stockOf(t, corto))
}

// Lista de líneas vacía → validación, nada persiste.
func TestSubmit_ListaVacia_Validacion(t *testing.T) {
	f := newEngine(t)

	_, err := f.uc.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.uc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Campos obligatorios en blanco (aunque no estén vacíos) → validación.
func TestSubmit_CamposEnBlanco_Validacion(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	in := validRequest(dto.WithdrawalItemRequest{ProductID: id, Quantity: 1})
	in.RecipientName = "   "
	_, err := f.uc.Submit(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stockOf(t, id))
}

// Cantidades no positivas → validación.
func TestSubmit_CantidadNoPositiva_Validacion(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	for _, qty := range []int64{0, -3} {
		_, err := f.uc.Submit(context.Background(), validRequest(
			dto.WithdrawalItemRequest{ProductID: id, Quantity: qty},
		))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad %d debe rechazarse", qty)
	}
	assert.Equal(t, int64(10), f.stockOf(t, id))
}

// El mismo producto repetido en dos líneas → validación.
func TestSubmit_ProductoRepetido_Validacion(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	_, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 1},
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 2},
	))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), f.stockOf(t, id))
}

// Renombrar el producto después del retiro no reescribe el snapshot.
func TestSubmit_SnapshotInmuneARenombres(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 1},
	))
	require.NoError(t, err)

	p, err := f.store.Products().GetByID(id)
	require.NoError(t, err)
	p.Name = "Resma Carta"
	p.UpdatedAt = time.Now()
	require.NoError(t, f.store.Products().Update(p))

	got, err := f.uc.Get(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resma A4", got.Items[0].ProductName,
		"el snapshot no debe refrescarse desde el producto vivo")
}

// Tras confirmar se publica withdrawal.created; las fallas no publican nada.
func TestSubmit_PublicaEventoSoloAlConfirmar(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	_, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 20},
	))
	require.Error(t, err)
	assert.Empty(t, f.events.events, "una falla no debe publicar eventos")

	_, err = f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{withdrawal.EventCreated}, f.events.events)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reverse
// ──────────────────────────────────────────────────────────────────────────────

// Round-trip: revertir restaura el stock exacto y elimina registro y líneas.
func TestReverse_RestauraStockYEliminaRegistro(t *testing.T) {
	f := newEngine(t)
	a := f.seedProduct(t, "Lapiceras", 20)
	b := f.seedProduct(t, "Cuadernos", 15)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: a, Quantity: 6},
		dto.WithdrawalItemRequest{ProductID: b, Quantity: 3},
	))
	require.NoError(t, err)
	require.Equal(t, int64(14), f.stockOf(t, a))
	require.Equal(t, int64(12), f.stockOf(t, b))

	require.NoError(t, f.uc.Reverse(context.Background(), w.ID))

	assert.Equal(t, int64(20), f.stockOf(t, a), "el stock debe volver al valor previo")
	assert.Equal(t, int64(15), f.stockOf(t, b))

	_, err = f.uc.Get(context.Background(), w.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el registro debe haberse eliminado")
}

// Revertir un retiro inexistente → NotFound, sin tocar nada.
func TestReverse_Inexistente_NotFound(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	err := f.uc.Reverse(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(10), f.stockOf(t, id))
}

// La reversión opera por productId: funciona aunque el producto haya sido
// renombrado o cambiado de categoría después del retiro.
func TestReverse_FuncionaTrasEditarElProducto(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 4},
	))
	require.NoError(t, err)

	p, err := f.store.Products().GetByID(id)
	require.NoError(t, err)
	p.Name = "Resma Carta"
	require.NoError(t, f.store.Products().Update(p))

	require.NoError(t, f.uc.Reverse(context.Background(), w.ID))
	assert.Equal(t, int64(10), f.stockOf(t, id))
}

// Y publica withdrawal.reversed al confirmar.
func TestReverse_PublicaEvento(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 10)

	w, err := f.uc.Submit(context.Background(), validRequest(
		dto.WithdrawalItemRequest{ProductID: id, Quantity: 1},
	))
	require.NoError(t, err)
	require.NoError(t, f.uc.Reverse(context.Background(), w.ID))

	assert.Equal(t, []string{withdrawal.EventCreated, withdrawal.EventReversed}, f.events.events)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listados y concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// List devuelve los retiros más recientes primero, con líneas resueltas.
func TestList_MasRecientesPrimero(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Resma A4", 100)

	var ids []int64
	for i := 0; i < 3; i++ {
		w, err := f.uc.Submit(context.Background(), validRequest(
			dto.WithdrawalItemRequest{ProductID: id, Quantity: 1},
		))
		require.NoError(t, err)
		ids = append(ids, w.ID)
	}

	list, err := f.uc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID, "el más reciente va primero")
	assert.Equal(t, ids[0], list[2].ID)
	for _, w := range list {
		assert.NotEmpty(t, w.Items, "cada retiro debe venir con sus líneas")
	}
}

// Dos envíos concurrentes por 3 unidades sobre stock 5: exactamente uno gana,
// el otro recibe stock insuficiente y el stock final es 2.
func TestConcurrencia_UnExitoUnaFallaStockFinalDos(t *testing.T) {
	f := newEngine(t)
	id := f.seedProduct(t, "Tóner", 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Submit(context.Background(), validRequest(
				dto.WithdrawalItemRequest{ProductID: id, Quantity: 3},
			))
		}(i)
	}
	wg.Wait()

	var oks, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			oks++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, oks, "exactamente un envío debe ganar")
	assert.Equal(t, 1, insufficient, "el otro debe fallar por stock")
	assert.Equal(t, int64(2), f.stockOf(t, id), "nunca negativo, nunca doble descuento")

	list, err := f.uc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1, "solo el envío ganador deja registro")
}

// Retiros sobre productos disjuntos avanzan en paralelo sin interferirse.
func TestConcurrencia_ProductosDisjuntosAmbosGanan(t *testing.T) {
	f := newEngine(t)
	a := f.seedProduct(t, "Lapiceras", 10)
	b := f.seedProduct(t, "Cuadernos", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pid := range []int64{a, b} {
		wg.Add(1)
		go func(i int, pid int64) {
			defer wg.Done()
			_, errs[i] = f.uc.Submit(context.Background(), validRequest(
				dto.WithdrawalItemRequest{ProductID: pid, Quantity: 4},
			))
		}(i, pid)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int64(6), f.stockOf(t, a))
	assert.Equal(t, int64(6), f.stockOf(t, b))
}
