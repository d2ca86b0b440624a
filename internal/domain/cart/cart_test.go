package cart_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/cart"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

func product(id, name, price, iva string) *entity.Product {
	return &entity.Product{
		ID:      id,
		SKU:     "SKU-" + id,
		Name:    name,
		Price:   decimal.RequireFromString(price),
		TaxRate: decimal.RequireFromString(iva),
		Status:  entity.StatusActivo,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Totales
// ──────────────────────────────────────────────────────────────────────────────

func TestCart_EscenarioLaptopYMouse(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(product("A", "Laptop Dell Inspiron 15", "850.00", "0.13"), 2))
	require.NoError(t, c.AddItem(product("B", "Mouse Inalámbrico Logitech", "45.99", "0.13"), 2))

	tot := c.Totals()
	assert.Equal(t, "1791.98", tot.Subtotal.String())
	assert.Equal(t, "232.9574", tot.TaxTotal.String())
	assert.Equal(t, "2024.9374", tot.Total.String())
	assert.Equal(t, "232.96", tot.TaxTotal.Round(2).StringFixed(2))
	assert.Equal(t, "2024.94", tot.Total.Round(2).StringFixed(2))
}

func TestCart_TotalEsSubtotalMasIva(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(product("A", "A", "19.99", "0.13"), 3))
	require.NoError(t, c.AddItem(product("B", "B", "7.35", "0"), 5))
	require.NoError(t, c.AddItem(product("C", "C", "0.10", "0.05"), 7))

	tot := c.Totals()
	sum := decimal.Zero
	for _, l := range c.Items() {
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, tot.Subtotal.Equal(sum), "subtotal debe ser la suma de las líneas")
	assert.True(t, tot.Total.Equal(tot.Subtotal.Add(tot.TaxTotal)))
	// IVA por línea: 59.97*0.13 + 0 + 0.70*0.05
	assert.Equal(t, "7.8311", tot.TaxTotal.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCart_AddItemMismoProductoSumaCantidad(t *testing.T) {
	c := cart.New()
	p := product("A", "A", "10", "0.13")
	require.NoError(t, c.AddItem(p, 2))
	require.NoError(t, c.AddItem(p, 3))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, "50", items[0].Subtotal.String())
}

func TestCart_AddItemCopiaPrecioAlAgregar(t *testing.T) {
	c := cart.New()
	p := product("A", "Original", "10", "0.13")
	require.NoError(t, c.AddItem(p, 1))

	p.Name = "Renombrado"
	p.Price = decimal.NewFromInt(99)
	require.NoError(t, c.AddItem(p, 1))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Original", items[0].Name)
	assert.Equal(t, "20", items[0].Subtotal.String())
}

func TestCart_AddItemCantidadInvalida(t *testing.T) {
	c := cart.New()
	err := c.AddItem(product("A", "A", "10", "0.13"), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.True(t, c.Empty())
}

func TestCart_SetQuantityCeroEliminaLinea(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(product("A", "A", "10", "0.13"), 2))
	require.NoError(t, c.AddItem(product("B", "B", "5", "0.13"), 1))

	require.NoError(t, c.SetQuantity("A", 0))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ProductID)
	assert.Equal(t, "5", c.Totals().Subtotal.String())

	assert.ErrorIs(t, c.SetQuantity("X", 1), domain.ErrNotFound)
}

func TestCart_SelectClientReemplaza(t *testing.T) {
	c := cart.New()
	c.SelectClient(&entity.Client{ID: "1", Name: "Uno"})
	c.SelectClient(&entity.Client{ID: "2", Name: "Dos"})
	require.NotNil(t, c.Client())
	assert.Equal(t, "2", c.Client().ID)
}

func TestCart_ClearReiniciaTodo(t *testing.T) {
	c := cart.New()
	c.SelectClient(&entity.Client{ID: "1"})
	require.NoError(t, c.AddItem(product("A", "A", "10", "0.13"), 1))

	c.Clear()
	assert.Nil(t, c.Client())
	assert.True(t, c.Empty())
	assert.True(t, c.Totals().Total.IsZero())
}
