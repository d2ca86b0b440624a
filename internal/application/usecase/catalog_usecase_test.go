package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

func TestProductUseCase_ValoresPorDefectoYValidacion(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "LAP-001", "Laptop Dell Inspiron 15", "850.00")
	assert.Equal(t, "UNI", p.Unidad)
	assert.Equal(t, entity.StatusActivo, p.Estado)

	_, err := h.products.Create(context.Background(), h.admin, dto.CreateProductRequest{
		SKU: "X-1", Nombre: "X", Categoria: "Varios", Precio: decimal.NewFromInt(1), IVA: decimal.RequireFromString("13"),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "iva", verr.Field)

	_, err = h.products.Create(context.Background(), h.admin, dto.CreateProductRequest{
		SKU: "X-2", Nombre: "Sin categoría", Categoria: "  ", Precio: decimal.NewFromInt(1),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "categoria", verr.Field)

	_, err = h.products.Update(context.Background(), h.admin, p.ID, dto.UpdateProductRequest{Categoria: strPtr("")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "categoria", verr.Field)

	_, err = h.products.Update(context.Background(), h.admin, p.ID, dto.UpdateProductRequest{Unidad: strPtr(" ")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unidad", verr.Field)

	_, err = h.products.Create(context.Background(), h.admin, dto.CreateProductRequest{
		SKU: "LAP-001", Nombre: "Otra", Categoria: "Electrónica", Precio: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestProductUseCase_EliminarReferenciadoYLibre(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	used := h.product(t, "LAP-001", "Laptop", "850.00")
	free := h.product(t, "MON-001", "Monitor Samsung 24 pulgadas", "299.99")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")
	h.saleFor(t, c.ID, used)

	err := h.products.Delete(ctx, h.admin, used.ID)
	assert.ErrorIs(t, err, domain.ErrReferentialIntegrity)
	assert.NoError(t, h.products.Delete(ctx, h.admin, free.ID))

	_, err = h.products.GetByID(ctx, free.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_EliminarAnuladaTambienBloquea(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "", "Consumidor Final")
	s := h.saleFor(t, c.ID, p)
	_, err := h.saleUC.Void(ctx, h.cashier, s.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, h.products.Delete(ctx, h.admin, p.ID), domain.ErrReferentialIntegrity)
	assert.ErrorIs(t, h.clients.Delete(ctx, h.cashier, c.ID), domain.ErrReferentialIntegrity)
}

func TestProductUseCase_UpdateParcial(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	price := decimal.RequireFromString("799.99")
	upd, err := h.products.Update(context.Background(), h.admin, p.ID, dto.UpdateProductRequest{Precio: &price})
	require.NoError(t, err)
	assert.True(t, upd.Precio.Equal(price))
	assert.Equal(t, "LAP-001", upd.SKU)

	_, err = h.products.Update(context.Background(), h.admin, "nope", dto.UpdateProductRequest{Precio: &price})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_BusquedaSinAcentosYCategorias(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.product(t, "MOU-001", "Mouse Inalámbrico Logitech", "45.99")
	_, err := h.products.Create(ctx, h.admin, dto.CreateProductRequest{
		SKU: "SIL-001", Nombre: "Silla ergonómica", Categoria: "Mobiliario", Precio: decimal.NewFromInt(120),
	})
	require.NoError(t, err)

	list, err := h.products.List(ctx, entity.ProductFilter{Search: "inalambrico"})
	require.NoError(t, err)
	require.Len(t, list.Productos, 1)
	assert.Equal(t, "MOU-001", list.Productos[0].SKU)

	cats, err := h.products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electrónica", "Mobiliario"}, cats.Categorias)
}

func TestClientUseCase_FacturadoRestringeCampos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")
	s := h.saleFor(t, c.ID, p)
	require.NoError(t, h.sales.TransitionStatus(ctx, s.ID, entity.SaleStatusPendiente, entity.SaleStatusFacturada, s.Fecha))

	_, err := h.clients.Update(ctx, h.cashier, c.ID, dto.UpdateClientRequest{Nombre: strPtr("Juan P.")})
	var restricted *domain.RestrictedFieldError
	require.ErrorAs(t, err, &restricted)
	assert.Equal(t, []string{"nombre"}, restricted.Fields)

	upd, err := h.clients.Update(ctx, h.cashier, c.ID, dto.UpdateClientRequest{Telefono: strPtr("7777-8888")})
	require.NoError(t, err)
	assert.Equal(t, "7777-8888", upd.Telefono)
	assert.Equal(t, "Juan Pérez", upd.Nombre)
}

func TestClientUseCase_PendienteNoRestringe(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "LAP-001", "Laptop", "850.00")
	c := h.client(t, "0614-010190-101-1", "Juan Pérez")
	h.saleFor(t, c.ID, p)

	upd, err := h.clients.Update(context.Background(), h.cashier, c.ID, dto.UpdateClientRequest{Nombre: strPtr("Juan Pérez López")})
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez López", upd.Nombre)
}

func TestClientUseCase_NITDuplicadoYValidaciones(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.client(t, "0614-010190-101-1", "Juan Pérez")
	other := h.client(t, "0614-020285-102-3", "Empresa ABC")

	_, err := h.clients.Update(ctx, h.cashier, other.ID, dto.UpdateClientRequest{NIT: strPtr("0614-010190-101-1")})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "nit", conflict.Field)

	_, err = h.clients.Update(ctx, h.cashier, other.ID, dto.UpdateClientRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	_, err = h.clients.Create(ctx, h.cashier, dto.CreateClientRequest{Nombre: "X", Direccion: "Soyapango", PerfilFiscal: "OTRO"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "perfilFiscal", verr.Field)

	_, err = h.clients.Create(ctx, h.cashier, dto.CreateClientRequest{Nombre: "X", Direccion: "Soyapango", Email: "no-es-correo"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = h.clients.Create(ctx, h.cashier, dto.CreateClientRequest{Nombre: "Sin Dirección"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "direccion", verr.Field)

	_, err = h.clients.Update(ctx, h.cashier, other.ID, dto.UpdateClientRequest{Direccion: strPtr("")})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "direccion", verr.Field)
}

func TestClientUseCase_AuditaMutaciones(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.client(t, "", "Cliente Auditado")
	require.NoError(t, h.clients.Delete(ctx, h.cashier, c.ID))

	logs, err := h.auditLog.List(ctx, entity.AuditFilter{Entity: "cliente"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, entity.AuditDelete, logs[0].Action)
	assert.Equal(t, "u2", logs[0].UserID)
}
