package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/domain/cart"
)

// CartClientRequest body para PUT /api/carrito/cliente.
type CartClientRequest struct {
	ClienteID string `json:"clienteId"`
}

// CartAddItemRequest body para POST /api/carrito/items.
type CartAddItemRequest struct {
	ProductID string `json:"productId"`
	Cantidad  int    `json:"cantidad"`
}

// CartQuantityRequest body para PATCH /api/carrito/items/:productId.
type CartQuantityRequest struct {
	Cantidad int `json:"cantidad"`
}

// CartResponse estado del carrito.
type CartResponse struct {
	Cliente  *ClientResponse    `json:"cliente"`
	Items    []SaleItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	TotalIva decimal.Decimal    `json:"totalIva"`
	Total    decimal.Decimal    `json:"total"`
}

// FromCart mapea el carrito.
func FromCart(c *cart.Cart) CartResponse {
	tot := c.Totals()
	out := CartResponse{
		Items:    FromLineItems(c.Items()),
		Subtotal: tot.Subtotal,
		TotalIva: tot.TaxTotal,
		Total:    tot.Total,
	}
	if cl := c.Client(); cl != nil {
		r := FromClient(cl)
		out.Cliente = &r
	}
	return out
}
