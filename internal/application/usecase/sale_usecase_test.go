package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

func TestSaleUseCase_CreaPendienteConTotales(t *testing.T) {
	h := newHarness(t)
	laptop := h.product(t, "LAP-001", "Laptop Dell Inspiron 15", "850.00")
	mouse := h.product(t, "MOU-001", "Mouse Inalámbrico Logitech", "45.99")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")

	s := h.saleFor(t, c.ID, laptop, mouse)
	assert.Equal(t, "V-000001", s.Numero)
	assert.Equal(t, entity.SaleStatusPendiente, s.Estado)
	assert.Equal(t, "1791.98", s.Subtotal.String())
	assert.Equal(t, "232.9574", s.TotalIva.String())
	assert.Equal(t, "2024.9374", s.Total.String())
	assert.True(t, s.Total.Equal(s.Subtotal.Add(s.TotalIva)))
	assert.Equal(t, "u2", s.VendedorID, "el vendedor por defecto es el usuario autenticado")
	require.NotNil(t, s.Vendedor)
	assert.Equal(t, "María González", s.Vendedor.Nombre)
}

func TestSaleUseCase_NumerosEstrictamenteCrecientes(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "", "Consumidor Final")

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := map[string]bool{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := h.saleUC.Create(context.Background(), h.cashier, dto.CreateSaleRequest{
				ClienteID: c.ID,
				Items:     []dto.SaleItemRequest{{ProductID: p.ID, Cantidad: 1, Precio: p.Precio, IVA: p.IVA}},
			})
			if assert.NoError(t, err) {
				mu.Lock()
				numbers[s.Numero] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, numbers, n)
	for i := 1; i <= n; i++ {
		assert.True(t, numbers[fmt.Sprintf("V-%06d", i)])
	}

	list, err := h.saleUC.List(context.Background(), entity.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("V-%06d", n), list.Ventas[0].Numero, "más reciente primero")
}

func TestSaleUseCase_Validaciones(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "", "Consumidor Final")
	item := dto.SaleItemRequest{ProductID: p.ID, Cantidad: 1, Precio: p.Precio, IVA: p.IVA}
	wrong := decimal.RequireFromString("100")

	cases := []struct {
		name  string
		req   dto.CreateSaleRequest
		field string
	}{
		{"sin items", dto.CreateSaleRequest{ClienteID: c.ID}, "items"},
		{"cliente inexistente", dto.CreateSaleRequest{ClienteID: "nope", Items: []dto.SaleItemRequest{item}}, "clienteId"},
		{"cantidad cero", dto.CreateSaleRequest{ClienteID: c.ID, Items: []dto.SaleItemRequest{{ProductID: p.ID, Cantidad: 0, Precio: p.Precio}}}, "items[0].cantidad"},
		{"producto inexistente", dto.CreateSaleRequest{ClienteID: c.ID, Items: []dto.SaleItemRequest{{ProductID: "nope", Cantidad: 1}}}, "items[0].productId"},
		{"vendedor inexistente", dto.CreateSaleRequest{ClienteID: c.ID, VendedorID: "nope", Items: []dto.SaleItemRequest{item}}, "vendedorId"},
		{"total declarado distinto", dto.CreateSaleRequest{ClienteID: c.ID, Items: []dto.SaleItemRequest{item}, Total: &wrong}, "total"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.saleUC.Create(ctx, h.cashier, tc.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSaleUseCase_TotalDeclaradoDentroDeTolerancia(t *testing.T) {
	h := newHarness(t)
	laptop := h.product(t, "LAP-001", "Laptop", "850.00")
	mouse := h.product(t, "MOU-001", "Mouse", "45.99")
	c := h.client(t, "", "Consumidor Final")
	displayed := decimal.RequireFromString("2024.94")

	s, err := h.saleUC.Create(context.Background(), h.cashier, dto.CreateSaleRequest{
		ClienteID: c.ID,
		Items: []dto.SaleItemRequest{
			{ProductID: laptop.ID, Cantidad: 2, Precio: laptop.Precio, IVA: laptop.IVA},
			{ProductID: mouse.ID, Cantidad: 2, Precio: mouse.Precio, IVA: mouse.IVA},
		},
		Total: &displayed,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024.9374", s.Total.String(), "se guarda el total sin redondear")
}

func TestSaleUseCase_ClienteInactivoRechazado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "", "Inactivo")
	_, err := h.clients.Update(ctx, h.cashier, c.ID, dto.UpdateClientRequest{Estado: strPtr(entity.StatusInactivo)})
	require.NoError(t, err)

	_, err = h.saleUC.Create(ctx, h.cashier, dto.CreateSaleRequest{
		ClienteID: c.ID, Items: []dto.SaleItemRequest{{ProductID: p.ID, Cantidad: 1, Precio: p.Precio}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaleUseCase_AnularSoloPendiente(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "", "Consumidor Final")
	s := h.saleFor(t, c.ID, p)

	voided, err := h.saleUC.Void(ctx, h.cashier, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusAnulada, voided.Estado)

	_, err = h.saleUC.Void(ctx, h.cashier, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.saleUC.Void(ctx, h.cashier, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := h.saleUC.PendingForInvoicing(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Ventas)
}

func TestSaleUseCase_PendientesIncluyenClienteYVendedor(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")
	h.saleFor(t, c.ID, p)

	pending, err := h.saleUC.PendingForInvoicing(context.Background())
	require.NoError(t, err)
	require.Len(t, pending.Ventas, 1)
	require.NotNil(t, pending.Ventas[0].Cliente)
	assert.Equal(t, "Juan Pérez", pending.Ventas[0].Cliente.Nombre)
	require.NotNil(t, pending.Ventas[0].Vendedor)
	assert.Equal(t, "u2", pending.Ventas[0].Vendedor.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Carrito
// ──────────────────────────────────────────────────────────────────────────────

func TestCartUseCase_CheckoutRegistraVentaYVacia(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	laptop := h.product(t, "LAP-001", "Laptop Dell Inspiron 15", "850.00")
	mouse := h.product(t, "MOU-001", "Mouse Inalámbrico Logitech", "45.99")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")

	_, err := h.cartUC.SelectClient(ctx, "u2", c.ID)
	require.NoError(t, err)
	_, err = h.cartUC.AddItem(ctx, "u2", dto.CartAddItemRequest{ProductID: laptop.ID, Cantidad: 1})
	require.NoError(t, err)
	_, err = h.cartUC.AddItem(ctx, "u2", dto.CartAddItemRequest{ProductID: laptop.ID, Cantidad: 1})
	require.NoError(t, err)
	state, err := h.cartUC.AddItem(ctx, "u2", dto.CartAddItemRequest{ProductID: mouse.ID, Cantidad: 2})
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	assert.Equal(t, "2024.94", state.Total.Round(2).StringFixed(2))

	sale, err := h.cartUC.Checkout(ctx, h.cashier)
	require.NoError(t, err)
	assert.Equal(t, "V-000001", sale.Numero)
	assert.Equal(t, "2024.9374", sale.Total.String())

	after := h.cartUC.Get("u2")
	assert.Empty(t, after.Items)
	assert.Nil(t, after.Cliente)
}

func TestCartUseCase_CarritosPorUsuario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	_, err := h.cartUC.AddItem(ctx, "u1", dto.CartAddItemRequest{ProductID: p.ID, Cantidad: 1})
	require.NoError(t, err)

	assert.Empty(t, h.cartUC.Get("u2").Items)
	assert.Len(t, h.cartUC.Get("u1").Items, 1)
}

func TestCartUseCase_CheckoutSinClienteOVacio(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "", "Consumidor Final")

	_, err := h.cartUC.Checkout(ctx, h.cashier)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.cartUC.SelectClient(ctx, "u2", c.ID)
	require.NoError(t, err)
	_, err = h.cartUC.Checkout(ctx, h.cashier)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCartUseCase_CantidadCeroQuitaLinea(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	_, err := h.cartUC.AddItem(ctx, "u2", dto.CartAddItemRequest{ProductID: p.ID, Cantidad: 3})
	require.NoError(t, err)

	state, err := h.cartUC.SetQuantity("u2", p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.True(t, state.Total.IsZero())

	_, err = h.cartUC.SetQuantity("u2", p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
