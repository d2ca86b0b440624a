// Package cart acumula líneas de venta antes de registrar la venta.
// Es un agregado en memoria sin persistencia; no es seguro para uso concurrente.
package cart

import (
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// Cart carrito de venta con a lo sumo un cliente seleccionado.
type Cart struct {
	client *entity.Client
	lines  []entity.SaleLineItem
	totals entity.Totals
}

// New crea un carrito vacío.
func New() *Cart {
	c := &Cart{}
	c.recompute()
	return c
}

// SelectClient reemplaza el cliente seleccionado.
func (c *Cart) SelectClient(client *entity.Client) {
	if client == nil {
		c.client = nil
		return
	}
	cp := *client
	c.client = &cp
}

// Client cliente seleccionado o nil.
func (c *Cart) Client() *entity.Client { return c.client }

// AddItem suma quantity a la línea del producto o agrega una línea nueva con
// nombre, precio e IVA copiados del producto en este momento.
func (c *Cart) AddItem(p *entity.Product, quantity int) error {
	if p == nil {
		return domain.Invalid("producto", "requerido")
	}
	if quantity < 1 {
		return domain.Invalid("cantidad", "debe ser mayor o igual a 1")
	}
	if i := c.indexOf(p.ID); i >= 0 {
		l := c.lines[i]
		c.lines[i] = entity.NewLineItem(l.ProductID, l.Name, l.Quantity+quantity, l.Price, l.TaxRate)
	} else {
		c.lines = append(c.lines, entity.NewLineItem(p.ID, p.Name, quantity, p.Price, p.TaxRate))
	}
	c.recompute()
	return nil
}

// SetQuantity fija la cantidad de una línea; quantity <= 0 elimina la línea.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return domain.ErrNotFound
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	} else {
		l := c.lines[i]
		c.lines[i] = entity.NewLineItem(l.ProductID, l.Name, quantity, l.Price, l.TaxRate)
	}
	c.recompute()
	return nil
}

// RemoveItem elimina la línea del producto si existe.
func (c *Cart) RemoveItem(productID string) {
	_ = c.SetQuantity(productID, 0)
}

// Clear vacía cliente y líneas.
func (c *Cart) Clear() {
	c.client = nil
	c.lines = nil
	c.recompute()
}

// Items copia de las líneas en orden de inserción.
func (c *Cart) Items() []entity.SaleLineItem {
	out := make([]entity.SaleLineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Totals totales derivados de las líneas actuales.
func (c *Cart) Totals() entity.Totals { return c.totals }

// Empty indica si no hay líneas.
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) recompute() {
	c.totals = entity.ComputeTotals(c.lines)
}
