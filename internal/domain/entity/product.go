package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de catálogo (productos y clientes).
const (
	StatusActivo   = "ACTIVO"
	StatusInactivo = "INACTIVO"
)

// Product representa un producto del catálogo de venta.
// Stock es informativo: las ventas no lo descuentan.
type Product struct {
	ID        string
	SKU       string // único entre productos activos e inactivos
	Name      string
	Category  string
	Unit      string
	Price     decimal.Decimal // precio unitario, >= 0
	TaxRate   decimal.Decimal // IVA como fracción: 0.13 = 13 %
	Status    string
	Stock     *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductFilter criterios de listado de productos.
type ProductFilter struct {
	Search   string
	Category string
	Status   string
}

// ProductPatch campos opcionales para actualizar un producto; nil = sin cambio.
type ProductPatch struct {
	SKU      *string
	Name     *string
	Category *string
	Unit     *string
	Price    *decimal.Decimal
	TaxRate  *decimal.Decimal
	Status   *string
	Stock    *int
}

// Apply aplica el patch sobre una copia del producto.
func (p ProductPatch) Apply(prod Product) Product {
	if p.SKU != nil {
		prod.SKU = *p.SKU
	}
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Unit != nil {
		prod.Unit = *p.Unit
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.TaxRate != nil {
		prod.TaxRate = *p.TaxRate
	}
	if p.Status != nil {
		prod.Status = *p.Status
	}
	if p.Stock != nil {
		s := *p.Stock
		prod.Stock = &s
	}
	return prod
}
