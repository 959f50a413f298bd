package dto

import (
	"time"

	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	Name       string `json:"name" validate:"required"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Stock      int64  `json:"stock" validate:"min=0"`
	MinStock   int64  `json:"min_stock" validate:"min=0"`
}

// UpdateProductRequest body para PUT /api/products/:id. No incluye stock:
// el stock se mueve solo con retiros o con el ajuste de stock.
type UpdateProductRequest struct {
	Name       string `json:"name" validate:"required"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	MinStock   int64  `json:"min_stock" validate:"min=0"`
}

// AdjustStockRequest body para POST /api/products/:id/stock. Delta con signo;
// un delta que dejaría el stock negativo se rechaza completo.
type AdjustStockRequest struct {
	Delta int64 `json:"delta" validate:"required"`
}

// ProductResponse producto con su categoría resuelta.
type ProductResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Stock        int64     `json:"stock"`
	MinStock     int64     `json:"min_stock"`
	BelowMin     bool      `json:"below_min_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromProduct convierte la entidad al DTO de respuesta.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Stock:        p.Stock,
		MinStock:     p.MinStock,
		BelowMin:     p.BelowMinStock(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
