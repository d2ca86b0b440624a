package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// SaleItemRequest línea enviada al registrar una venta.
type SaleItemRequest struct {
	ProductID string          `json:"productId"`
	Nombre    string          `json:"nombre"`
	Cantidad  int             `json:"cantidad"`
	Precio    decimal.Decimal `json:"precio"`
	IVA       decimal.Decimal `json:"iva"`
}

// CreateSaleRequest body para POST /api/ventas. Los totales son opcionales;
// si vienen deben coincidir con los recalculados.
type CreateSaleRequest struct {
	ClienteID  string            `json:"clienteId"`
	VendedorID string            `json:"vendedorId,omitempty"` // por defecto el usuario autenticado
	Items      []SaleItemRequest `json:"items"`
	Subtotal   *decimal.Decimal  `json:"subtotal,omitempty"`
	TotalIva   *decimal.Decimal  `json:"totalIva,omitempty"`
	Total      *decimal.Decimal  `json:"total,omitempty"`
}

// SaleItemResponse línea de venta en respuestas.
type SaleItemResponse struct {
	ProductID string          `json:"productId"`
	Nombre    string          `json:"nombre"`
	Cantidad  int             `json:"cantidad"`
	Precio    decimal.Decimal `json:"precio"`
	IVA       decimal.Decimal `json:"iva"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SellerRef vendedor resumido.
type SellerRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// SaleResponse venta en respuestas; Cliente y Vendedor se incluyen en listados.
type SaleResponse struct {
	ID                 string             `json:"id"`
	Numero             string             `json:"numero"`
	Fecha              time.Time          `json:"fecha"`
	ClienteID          string             `json:"clienteId"`
	VendedorID         string             `json:"vendedorId"`
	Items              []SaleItemResponse `json:"items"`
	Subtotal           decimal.Decimal    `json:"subtotal"`
	TotalIva           decimal.Decimal    `json:"totalIva"`
	Total              decimal.Decimal    `json:"total"`
	Estado             string             `json:"estado"`
	FechaCreacion      time.Time          `json:"fechaCreacion"`
	FechaActualizacion time.Time          `json:"fechaActualizacion"`
	Cliente            *ClientResponse    `json:"cliente,omitempty"`
	Vendedor           *SellerRef         `json:"vendedor,omitempty"`
}

// SaleListResponse lista de ventas.
type SaleListResponse struct {
	Ventas []SaleResponse `json:"ventas"`
}

// FromLineItems mapea las líneas de venta.
func FromLineItems(items []entity.SaleLineItem) []SaleItemResponse {
	out := make([]SaleItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, SaleItemResponse{
			ProductID: it.ProductID,
			Nombre:    it.Name,
			Cantidad:  it.Quantity,
			Precio:    it.Price,
			IVA:       it.TaxRate,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}

// FromSale mapea la venta; client y seller pueden ser nil.
func FromSale(s *entity.Sale, client *entity.Client, seller *entity.User) SaleResponse {
	out := SaleResponse{
		ID:                 s.ID,
		Numero:             s.Number,
		Fecha:              s.Date,
		ClienteID:          s.ClientID,
		VendedorID:         s.SellerID,
		Items:              FromLineItems(s.Items),
		Subtotal:           s.Subtotal,
		TotalIva:           s.TaxTotal,
		Total:              s.Total,
		Estado:             s.Status,
		FechaCreacion:      s.CreatedAt,
		FechaActualizacion: s.UpdatedAt,
	}
	if client != nil {
		c := FromClient(client)
		out.Cliente = &c
	}
	if seller != nil {
		out.Vendedor = &SellerRef{ID: seller.ID, Nombre: seller.Name}
	}
	return out
}
