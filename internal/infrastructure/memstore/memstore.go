// Package memstore implementa los puertos de persistencia en memoria, con la
// misma semántica transaccional que el adaptador PostgreSQL: Run serializa
// los commits y revierte todo el estado si el callback falla. Se usa en tests
// y para desarrollo local sin base de datos. La granularidad es gruesa (un
// mutex para todo el store); suficiente para esos usos.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tu-usuario/almacen-api/internal/application/withdrawal"
	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

// Ensure Store implementa el TxRunner del motor y las fachadas los puertos.
var (
	_ withdrawal.TxRunner             = (*Store)(nil)
	_ repository.ProductRepository    = (*lockedProductRepo)(nil)
	_ repository.CategoryRepository   = (*lockedCategoryRepo)(nil)
	_ repository.WithdrawalRepository = (*lockedWithdrawalRepo)(nil)
)

// Store contiene todo el estado en memoria.
type Store struct {
	mu sync.Mutex

	categories  map[int64]entity.Category
	products    map[int64]entity.Product
	withdrawals map[int64]entity.Withdrawal

	nextCategoryID   int64
	nextProductID    int64
	nextWithdrawalID int64
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		categories:  make(map[int64]entity.Category),
		products:    make(map[int64]entity.Product),
		withdrawals: make(map[int64]entity.Withdrawal),
	}
}

type memSnapshot struct {
	categories  map[int64]entity.Category
	products    map[int64]entity.Product
	withdrawals map[int64]entity.Withdrawal

	nextCategoryID   int64
	nextProductID    int64
	nextWithdrawalID int64
}

func (s *Store) snapshot() memSnapshot {
	snap := memSnapshot{
		categories:       make(map[int64]entity.Category, len(s.categories)),
		products:         make(map[int64]entity.Product, len(s.products)),
		withdrawals:      make(map[int64]entity.Withdrawal, len(s.withdrawals)),
		nextCategoryID:   s.nextCategoryID,
		nextProductID:    s.nextProductID,
		nextWithdrawalID: s.nextWithdrawalID,
	}
	for id, c := range s.categories {
		snap.categories[id] = c
	}
	for id, p := range s.products {
		snap.products[id] = p
	}
	for id, w := range s.withdrawals {
		w.Items = append([]entity.WithdrawalItem(nil), w.Items...)
		snap.withdrawals[id] = w
	}
	return snap
}

func (s *Store) restore(snap memSnapshot) {
	s.categories = snap.categories
	s.products = snap.products
	s.withdrawals = snap.withdrawals
	s.nextCategoryID = snap.nextCategoryID
	s.nextProductID = snap.nextProductID
	s.nextWithdrawalID = snap.nextWithdrawalID
}

// Run implementa withdrawal.TxRunner: toma el lock, saca un snapshot y
// ejecuta fn con repos sin lock propio; si fn falla se restaura el snapshot,
// así el caller nunca observa aplicación parcial.
func (s *Store) Run(ctx context.Context, fn func(
	withdrawalRepo repository.WithdrawalRepository,
	productRepo repository.ProductRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&withdrawalRepo{s}, &productRepo{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Products devuelve el repositorio de productos con locking por llamada.
func (s *Store) Products() repository.ProductRepository { return &lockedProductRepo{s} }

// Categories devuelve el repositorio de categorías con locking por llamada.
func (s *Store) Categories() repository.CategoryRepository { return &lockedCategoryRepo{s} }

// Withdrawals devuelve el repositorio de retiros con locking por llamada.
func (s *Store) Withdrawals() repository.WithdrawalRepository { return &lockedWithdrawalRepo{s} }

// ──────────────────────────────────────────────────────────────────────────────
// Productos (sin lock; se usan dentro de Run o detrás de lockedProductRepo)
// ──────────────────────────────────────────────────────────────────────────────

type productRepo struct{ s *Store }

func (r *productRepo) Create(p *entity.Product) error {
	cat, ok := r.s.categories[p.CategoryID]
	if !ok {
		return fmt.Errorf("categoría %d: %w", p.CategoryID, domain.ErrNotFound)
	}
	for _, existing := range r.s.products {
		if strings.EqualFold(existing.Name, p.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.nextProductID++
	p.ID = r.s.nextProductID
	p.CategoryName = cat.Name
	r.s.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(id int64) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	p.CategoryName = r.s.categories[p.CategoryID].Name
	return &p, nil
}

func (r *productRepo) GetByName(name string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if strings.EqualFold(p.Name, name) {
			p.CategoryName = r.s.categories[p.CategoryID].Name
			return &p, nil
		}
	}
	return nil, nil
}

func (r *productRepo) Update(p *entity.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return fmt.Errorf("producto %d: %w", p.ID, domain.ErrNotFound)
	}
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return fmt.Errorf("categoría %d: %w", p.CategoryID, domain.ErrNotFound)
	}
	for id, existing := range r.s.products {
		if id != p.ID && strings.EqualFold(existing.Name, p.Name) {
			return domain.ErrDuplicate
		}
	}
	stored := r.s.products[p.ID]
	stored.Name = p.Name
	stored.CategoryID = p.CategoryID
	stored.MinStock = p.MinStock
	stored.UpdatedAt = p.UpdatedAt
	r.s.products[p.ID] = stored
	return nil
}

func (r *productRepo) ApplyStockDelta(productID, delta int64) (int64, error) {
	p, ok := r.s.products[productID]
	if !ok {
		return 0, fmt.Errorf("producto %d: %w", productID, domain.ErrNotFound)
	}
	newStock := p.Stock + delta
	if newStock < 0 {
		return 0, &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   -delta,
			Available:   p.Stock,
		}
	}
	p.Stock = newStock
	p.UpdatedAt = time.Now()
	r.s.products[productID] = p
	return newStock, nil
}

func (r *productRepo) List(limit, offset int) ([]*entity.Product, error) {
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		p.CategoryName = r.s.categories[p.CategoryID].Name
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, limit, offset), nil
}

func (r *productRepo) Delete(id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("producto %d: %w", id, domain.ErrNotFound)
	}
	for _, w := range r.s.withdrawals {
		for _, it := range w.Items {
			if it.ProductID == id {
				return domain.ErrConflict
			}
		}
	}
	delete(r.s.products, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Categorías
// ──────────────────────────────────────────────────────────────────────────────

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(c *entity.Category) error {
	for _, existing := range r.s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.nextCategoryID++
	c.ID = r.s.nextCategoryID
	r.s.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) GetByID(id int64) (*entity.Category, error) {
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) Update(c *entity.Category) error {
	if _, ok := r.s.categories[c.ID]; !ok {
		return fmt.Errorf("categoría %d: %w", c.ID, domain.ErrNotFound)
	}
	for id, existing := range r.s.categories {
		if id != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) List(limit, offset int) ([]*entity.Category, error) {
	all := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		c := c
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, limit, offset), nil
}

func (r *categoryRepo) Delete(id int64) error {
	if _, ok := r.s.categories[id]; !ok {
		return fmt.Errorf("categoría %d: %w", id, domain.ErrNotFound)
	}
	for _, p := range r.s.products {
		if p.CategoryID == id {
			return domain.ErrCategoryInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Retiros
// ──────────────────────────────────────────────────────────────────────────────

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(w *entity.Withdrawal) error {
	r.s.nextWithdrawalID++
	w.ID = r.s.nextWithdrawalID
	for i := range w.Items {
		w.Items[i].WithdrawalID = w.ID
		w.Items[i].Position = i
	}
	stored := *w
	stored.Items = append([]entity.WithdrawalItem(nil), w.Items...)
	r.s.withdrawals[w.ID] = stored
	return nil
}

func (r *withdrawalRepo) GetByID(id int64) (*entity.Withdrawal, error) {
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	w.Items = append([]entity.WithdrawalItem(nil), w.Items...)
	return &w, nil
}

func (r *withdrawalRepo) List(limit, offset int) ([]*entity.Withdrawal, error) {
	all := make([]*entity.Withdrawal, 0, len(r.s.withdrawals))
	for _, w := range r.s.withdrawals {
		w := w
		w.Items = append([]entity.WithdrawalItem(nil), w.Items...)
		all = append(all, &w)
	}
	// Más recientes primero; el ID es monotónico, desempata CreatedAt iguales.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, limit, offset), nil
}

func (r *withdrawalRepo) Delete(id int64) error {
	if _, ok := r.s.withdrawals[id]; !ok {
		return fmt.Errorf("retiro %d: %w", id, domain.ErrNotFound)
	}
	delete(r.s.withdrawals, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fachadas con lock por llamada (uso fuera de Run)
// ──────────────────────────────────────────────────────────────────────────────

type lockedProductRepo struct{ s *Store }

func (r *lockedProductRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).Create(p)
}

func (r *lockedProductRepo) GetByID(id int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).GetByID(id)
}

func (r *lockedProductRepo) GetByName(name string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).GetByName(name)
}

func (r *lockedProductRepo) Update(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).Update(p)
}

func (r *lockedProductRepo) ApplyStockDelta(productID, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).ApplyStockDelta(productID, delta)
}

func (r *lockedProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).List(limit, offset)
}

func (r *lockedProductRepo) Delete(id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&productRepo{r.s}).Delete(id)
}

type lockedCategoryRepo struct{ s *Store }

func (r *lockedCategoryRepo) Create(c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&categoryRepo{r.s}).Create(c)
}

func (r *lockedCategoryRepo) GetByID(id int64) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&categoryRepo{r.s}).GetByID(id)
}

func (r *lockedCategoryRepo) Update(c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&categoryRepo{r.s}).Update(c)
}

func (r *lockedCategoryRepo) List(limit, offset int) ([]*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&categoryRepo{r.s}).List(limit, offset)
}

func (r *lockedCategoryRepo) Delete(id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&categoryRepo{r.s}).Delete(id)
}

type lockedWithdrawalRepo struct{ s *Store }

func (r *lockedWithdrawalRepo) Create(w *entity.Withdrawal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&withdrawalRepo{r.s}).Create(w)
}

func (r *lockedWithdrawalRepo) GetByID(id int64) (*entity.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&withdrawalRepo{r.s}).GetByID(id)
}

func (r *lockedWithdrawalRepo) List(limit, offset int) ([]*entity.Withdrawal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&withdrawalRepo{r.s}).List(limit, offset)
}

func (r *lockedWithdrawalRepo) Delete(id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&withdrawalRepo{r.s}).Delete(id)
}

func paginate[T any](all []*T, limit, offset int) []*T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
