package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// CreateProductRequest body para POST /api/productos.
type CreateProductRequest struct {
	SKU       string          `json:"sku"`
	Nombre    string          `json:"nombre"`
	Categoria string          `json:"categoria"`
	Unidad    string          `json:"unidad"`
	Precio    decimal.Decimal `json:"precio"`
	IVA       decimal.Decimal `json:"iva"`
	Estado    string          `json:"estado,omitempty"` // por defecto ACTIVO
	Stock     *int            `json:"stock,omitempty"`
}

// UpdateProductRequest body para PUT /api/productos/:id (campos omitidos no cambian).
type UpdateProductRequest struct {
	SKU       *string          `json:"sku,omitempty"`
	Nombre    *string          `json:"nombre,omitempty"`
	Categoria *string          `json:"categoria,omitempty"`
	Unidad    *string          `json:"unidad,omitempty"`
	Precio    *decimal.Decimal `json:"precio,omitempty"`
	IVA       *decimal.Decimal `json:"iva,omitempty"`
	Estado    *string          `json:"estado,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID                 string          `json:"id"`
	SKU                string          `json:"sku"`
	Nombre             string          `json:"nombre"`
	Categoria          string          `json:"categoria"`
	Unidad             string          `json:"unidad"`
	Precio             decimal.Decimal `json:"precio"`
	IVA                decimal.Decimal `json:"iva"`
	Estado             string          `json:"estado"`
	Stock              *int            `json:"stock,omitempty"`
	FechaCreacion      time.Time       `json:"fechaCreacion"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

// ProductListResponse lista de productos.
type ProductListResponse struct {
	Productos []ProductResponse `json:"productos"`
}

// CategoriesResponse categorías distintas del catálogo.
type CategoriesResponse struct {
	Categorias []string `json:"categorias"`
}

// FromProduct mapea la entidad a la respuesta.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Nombre:             p.Name,
		Categoria:          p.Category,
		Unidad:             p.Unit,
		Precio:             p.Price,
		IVA:                p.TaxRate,
		Estado:             p.Status,
		Stock:              p.Stock,
		FechaCreacion:      p.CreatedAt,
		FechaActualizacion: p.UpdatedAt,
	}
}
