package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/almacen-api/internal/domain"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
	"github.com/tu-usuario/almacen-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL
// (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos.
// Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. El nombre es único sin distinguir
// mayúsculas (índice sobre lower(name)); la violación se traduce a ErrDuplicate.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (name, category_id, stock, min_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		product.Name, product.CategoryID, product.Stock, product.MinStock,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("categoría %d: %w", product.CategoryID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID, con el nombre de su categoría resuelto.
func (r *ProductRepo) GetByID(id int64) (*entity.Product, error) {
	query := `
		SELECT p.id, p.name, p.category_id, c.name, p.stock, p.min_stock, p.created_at, p.updated_at
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`
	return r.scanOne(r.q.QueryRow(context.Background(), query, id))
}

// GetByName obtiene un producto por nombre (sin distinguir mayúsculas).
func (r *ProductRepo) GetByName(name string) (*entity.Product, error) {
	query := `
		SELECT p.id, p.name, p.category_id, c.name, p.stock, p.min_stock, p.created_at, p.updated_at
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE lower(p.name) = lower($1)`
	return r.scanOne(r.q.QueryRow(context.Background(), query, name))
}

func (r *ProductRepo) scanOne(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName,
		&p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Update actualiza nombre, categoría y stock mínimo. No toca Stock: el stock
// solo se modifica con ApplyStockDelta.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, category_id = $3, min_stock = $4, updated_at = $5
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.CategoryID, product.MinStock, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %d: %w", product.ID, domain.ErrNotFound)
	}
	return nil
}

// ApplyStockDelta aplica un delta al stock con piso en cero, de forma
// condicional en un solo UPDATE: la re-verificación contra el stock actual
// ocurre en el store, no en memoria, así dos decrementos concurrentes nunca
// parten del mismo valor leído. Devuelve el stock resultante.
func (r *ProductRepo) ApplyStockDelta(productID, delta int64) (int64, error) {
	query := `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`
	var newStock int64
	err := r.q.QueryRow(context.Background(), query, productID, delta).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("apply stock delta: %w", err)
	}
	// Cero filas: o el producto no existe o el piso bloqueó el decremento.
	// Se distingue con una lectura dentro de la misma transacción.
	var name string
	var available int64
	err = r.q.QueryRow(context.Background(),
		`SELECT name, stock FROM products WHERE id = $1`, productID,
	).Scan(&name, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("producto %d: %w", productID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("apply stock delta: %w", err)
	}
	return 0, &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Requested:   -delta,
		Available:   available,
	}
}

// List lista productos con paginación, más recientes primero.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT p.id, p.name, p.category_id, c.name, p.stock, p.min_stock, p.created_at, p.updated_at
		FROM products p JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.CategoryName,
			&p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Delete elimina un producto por ID. Los ítems históricos de retiros lo
// referencian por FK: mientras exista historial la baja se rechaza como
// conflicto en lugar de romper el libro.
func (r *ProductRepo) Delete(id int64) error {
	cmd, err := r.q.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("producto %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
