package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

func unique(constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraint})
}

func foreignKey(constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: constraint})
}

func TestClientConflict_MapeaConstraints(t *testing.T) {
	c := &entity.Client{ID: "c1", NIT: "0614-010190-101-1", NRC: "123456-7"}
	cases := []struct {
		constraint string
		field      string
		value      string
	}{
		{"clients_nit_key", "nit", c.NIT},
		{"clients_nrc_key", "nrc", c.NRC},
		{"clients_pkey", "id", c.ID},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			err := clientConflict(unique(tc.constraint), c)
			var conflict *domain.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, "cliente", conflict.Entity)
			assert.Equal(t, tc.field, conflict.Field)
			assert.Equal(t, tc.value, conflict.Value)
		})
	}

	assert.Nil(t, clientConflict(foreignKey("sales_client_id_fkey"), c), "solo 23505 es conflicto")
	assert.Nil(t, clientConflict(errors.New("conexión cerrada"), c))
}

func TestProductConflict_SKUoID(t *testing.T) {
	p := &entity.Product{ID: "p1", SKU: "LAP-001"}
	var conflict *domain.ConflictError

	require.ErrorAs(t, productConflict(unique("products_sku_key"), p), &conflict)
	assert.Equal(t, "sku", conflict.Field)
	assert.Equal(t, "LAP-001", conflict.Value)

	require.ErrorAs(t, productConflict(unique("products_pkey"), p), &conflict)
	assert.Equal(t, "id", conflict.Field)

	assert.Nil(t, productConflict(&pgconn.PgError{Code: "23514"}, p))
}

func TestSaleWriteError_MapeaLlavesForaneas(t *testing.T) {
	sale := &entity.Sale{ID: "s1"}

	err := saleWriteError(unique("sales_pkey"), sale)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "venta", conflict.Entity)
	assert.Equal(t, "s1", conflict.Value)

	cases := []struct {
		constraint string
		field      string
	}{
		{"sales_client_id_fkey", "clienteId"},
		{"sales_seller_id_fkey", "vendedorId"},
		{"sale_items_product_id_fkey", "items"},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			var verr *domain.ValidationError
			require.ErrorAs(t, saleWriteError(foreignKey(tc.constraint), sale), &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	other := saleWriteError(unique("sales_number_key"), sale)
	assert.NotErrorIs(t, other, domain.ErrConflict, "un número repetido no es un id duplicado")
	assert.ErrorContains(t, other, "insert sale")
}

func TestUserConflict_Email(t *testing.T) {
	u := &entity.User{ID: "u1", Email: "admin@adventureworks.com"}
	var conflict *domain.ConflictError

	require.ErrorAs(t, userConflict(unique("users_email_key"), u), &conflict)
	assert.Equal(t, "email", conflict.Field)
	assert.Equal(t, u.Email, conflict.Value)

	require.ErrorAs(t, userConflict(unique("users_pkey"), u), &conflict)
	assert.Equal(t, "id", conflict.Field)
}

func TestUniqueViolation_SoloCodigo23505(t *testing.T) {
	constraint, ok := uniqueViolation(unique("clients_nit_key"))
	assert.True(t, ok)
	assert.Equal(t, "clients_nit_key", constraint)

	_, ok = uniqueViolation(foreignKey("sales_client_id_fkey"))
	assert.False(t, ok)
	assert.True(t, isForeignKeyViolation(foreignKey("sales_client_id_fkey")))
	assert.False(t, isForeignKeyViolation(errors.New("otro")))
	assert.Nil(t, pgError(nil))
}
