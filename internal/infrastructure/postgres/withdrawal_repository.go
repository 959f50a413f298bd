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

var _ repository.WithdrawalRepository = (*WithdrawalRepo)(nil)

// WithdrawalRepo implementación del puerto WithdrawalRepository sobre
// PostgreSQL (usable con pool o tx). Las escrituras solo tienen sentido
// dentro de la transacción del motor; las lecturas sirven también con pool.
type WithdrawalRepo struct {
	q Querier
}

// NewWithdrawalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWithdrawalRepository(q Querier) *WithdrawalRepo {
	return &WithdrawalRepo{q: q}
}

// Create inserta el registro y todas sus líneas. El ID lo asigna el store al
// confirmar (BIGSERIAL: monotónico y único). Position conserva el orden de
// entrada de las líneas.
func (r *WithdrawalRepo) Create(w *entity.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, user_name, user_section, recipient_name, recipient_section, notes, total_items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	notes := (*string)(nil)
	if w.Notes != "" {
		notes = &w.Notes
	}
	err := r.q.QueryRow(context.Background(), query,
		w.UserID, w.UserName, w.UserSection, w.RecipientName, w.RecipientSection,
		notes, w.TotalItems, w.CreatedAt,
	).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	for i := range w.Items {
		it := &w.Items[i]
		it.WithdrawalID = w.ID
		it.Position = i
		_, err := r.q.Exec(context.Background(), `
			INSERT INTO withdrawal_items (withdrawal_id, product_id, quantity, product_name, category_name, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.WithdrawalID, it.ProductID, it.Quantity, it.ProductName, it.CategoryName, it.Position,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert withdrawal item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve el retiro con sus líneas en orden de entrada, o nil si no existe.
func (r *WithdrawalRepo) GetByID(id int64) (*entity.Withdrawal, error) {
	query := `
		SELECT id, user_id, user_name, user_section, recipient_name, recipient_section, notes, total_items, created_at
		FROM withdrawals WHERE id = $1`
	var w entity.Withdrawal
	var notes *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&w.ID, &w.UserID, &w.UserName, &w.UserSection,
		&w.RecipientName, &w.RecipientSection, &notes, &w.TotalItems, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	if notes != nil {
		w.Notes = *notes
	}
	items, err := r.itemsFor([]int64{w.ID})
	if err != nil {
		return nil, err
	}
	w.Items = items[w.ID]
	return &w, nil
}

// List devuelve los retiros más recientes primero, con sus líneas resueltas.
// Dos consultas: registros paginados y luego todas sus líneas de un tiro.
func (r *WithdrawalRepo) List(limit, offset int) ([]*entity.Withdrawal, error) {
	query := `
		SELECT id, user_id, user_name, user_section, recipient_name, recipient_section, notes, total_items, created_at
		FROM withdrawals ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var list []*entity.Withdrawal
	var ids []int64
	for rows.Next() {
		var w entity.Withdrawal
		var notes *string
		if err := rows.Scan(&w.ID, &w.UserID, &w.UserName, &w.UserSection,
			&w.RecipientName, &w.RecipientSection, &notes, &w.TotalItems, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		if notes != nil {
			w.Notes = *notes
		}
		list = append(list, &w)
		ids = append(ids, w.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}
	items, err := r.itemsFor(ids)
	if err != nil {
		return nil, err
	}
	for _, w := range list {
		w.Items = items[w.ID]
	}
	return list, nil
}

func (r *WithdrawalRepo) itemsFor(withdrawalIDs []int64) (map[int64][]entity.WithdrawalItem, error) {
	query := `
		SELECT withdrawal_id, product_id, quantity, product_name, category_name, position
		FROM withdrawal_items WHERE withdrawal_id = ANY($1)
		ORDER BY withdrawal_id, position`
	rows, err := r.q.Query(context.Background(), query, withdrawalIDs)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal items: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]entity.WithdrawalItem, len(withdrawalIDs))
	for rows.Next() {
		var it entity.WithdrawalItem
		if err := rows.Scan(&it.WithdrawalID, &it.ProductID, &it.Quantity,
			&it.ProductName, &it.CategoryName, &it.Position); err != nil {
			return nil, fmt.Errorf("scan withdrawal item: %w", err)
		}
		out[it.WithdrawalID] = append(out[it.WithdrawalID], it)
	}
	return out, rows.Err()
}

// Delete elimina las líneas y luego el registro (misma transacción del motor).
func (r *WithdrawalRepo) Delete(id int64) error {
	if _, err := r.q.Exec(context.Background(),
		`DELETE FROM withdrawal_items WHERE withdrawal_id = $1`, id); err != nil {
		return fmt.Errorf("delete withdrawal items: %w", err)
	}
	cmd, err := r.q.Exec(context.Background(), `DELETE FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete withdrawal: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("retiro %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
