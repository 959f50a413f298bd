package dto

import (
	"time"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// WithdrawalItemRequest una línea del retiro: producto + cantidad positiva.
type WithdrawalItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// CreateWithdrawalRequest body para POST /api/withdrawals.
// Los campos de usuario son la identidad de quien retira (snapshot);
// recipient es para quién se retira. Items no puede ser vacío.
type CreateWithdrawalRequest struct {
	UserID           int64                   `json:"user_id" validate:"required,gt=0"`
	UserName         string                  `json:"user_name" validate:"required"`
	UserSection      string                  `json:"user_section" validate:"required"`
	RecipientName    string                  `json:"recipient_name" validate:"required"`
	RecipientSection string                  `json:"recipient_section" validate:"required"`
	Notes            string                  `json:"notes"`
	Items            []WithdrawalItemRequest `json:"items" validate:"required,min=1,dive"`
}

// WithdrawalItemResponse línea materializada con snapshots.
type WithdrawalItemResponse struct {
	ProductID    int64  `json:"product_id"`
	Quantity     int64  `json:"quantity"`
	ProductName  string `json:"product_name"`
	CategoryName string `json:"category_name"`
}

// WithdrawalResponse retiro materializado.
type WithdrawalResponse struct {
	ID               int64                    `json:"id"`
	UserID           int64                    `json:"user_id"`
	UserName         string                   `json:"user_name"`
	UserSection      string                   `json:"user_section"`
	RecipientName    string                   `json:"recipient_name"`
	RecipientSection string                   `json:"recipient_section"`
	Notes            string                   `json:"notes,omitempty"`
	TotalItems       int64                    `json:"total_items"`
	CreatedAt        time.Time                `json:"created_at"`
	Items            []WithdrawalItemResponse `json:"items"`
}

// FromWithdrawal convierte la entidad al DTO de respuesta.
func FromWithdrawal(w *entity.Withdrawal) WithdrawalResponse {
	items := make([]WithdrawalItemResponse, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, WithdrawalItemResponse{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			ProductName:  it.ProductName,
			CategoryName: it.CategoryName,
		})
	}
	return WithdrawalResponse{
		ID:               w.ID,
		UserID:           w.UserID,
		UserName:         w.UserName,
		UserSection:      w.UserSection,
		RecipientName:    w.RecipientName,
		RecipientSection: w.RecipientSection,
		Notes:            w.Notes,
		TotalItems:       w.TotalItems,
		CreatedAt:        w.CreatedAt,
		Items:            items,
	}
}
