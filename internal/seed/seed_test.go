package seed_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
	"github.com/jhoicas/billy-api/internal/seed"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func repos() (seed.Repos, *memory.UserRepository, *memory.ProductRepository) {
	s := memory.NewStore()
	users := memory.NewUserRepository(s)
	products := memory.NewProductRepository(s)
	return seed.Repos{Users: users, Products: products, Clients: memory.NewClientRepository(s)}, users, products
}

// ─── Load ───────────────────────────────────────────────────────────────────

func TestLoad_CreaUsuariosProductosYClientes(t *testing.T) {
	r, users, _ := repos()

	sum, err := seed.Load(context.Background(), r, now)
	require.NoError(t, err)
	assert.Equal(t, 4+len(seed.Products())+len(seed.Clients()), sum.Created)
	assert.Zero(t, sum.Skipped)

	admin, err := users.GetByEmail(context.Background(), "admin@adventureworks.com")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(seed.DefaultPassword)))

	inactive, err := users.GetByEmail(context.Background(), "vendedor@adventureworks.com")
	require.NoError(t, err)
	require.NotNil(t, inactive)
	assert.Equal(t, entity.StatusInactivo, inactive.Status)
}

func TestLoad_SegundaVezOmiteExistentes(t *testing.T) {
	r, _, products := repos()
	_, err := seed.Load(context.Background(), r, now)
	require.NoError(t, err)

	sum, err := seed.Load(context.Background(), r, now)
	require.NoError(t, err)
	assert.Zero(t, sum.Created)
	assert.Equal(t, 4+len(seed.Products())+len(seed.Clients()), sum.Skipped)

	list, err := products.List(context.Background(), entity.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list, len(seed.Products()))
}

func TestStableID_Determinista(t *testing.T) {
	assert.Equal(t, seed.StableID("producto", "LAP-001"), seed.StableID("producto", "LAP-001"))
	assert.NotEqual(t, seed.StableID("producto", "LAP-001"), seed.StableID("cliente", "LAP-001"))
}

// ─── Catálogo CSV ───────────────────────────────────────────────────────────

func TestReadCatalog_Latin1(t *testing.T) {
	csv := "sku;nombre;categoria;precio;iva;stock;unidad\n" +
		"CAB-001;Cable HDMI 2m;Electrónica;12,50;;40;\n" +
		"SIL-001;Silla ergonómica;Oficina;149.90;0.13;5;UNI\n"
	enc, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(csv))
	require.NoError(t, err)

	r, err := seed.DecodeReader(bytes.NewReader(enc), "ISO-8859-1")
	require.NoError(t, err)
	list, err := seed.ReadCatalog(r)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Electrónica", list[0].Category)
	assert.Equal(t, "12.5", list[0].Price.String())
	assert.Equal(t, "0.13", list[0].TaxRate.String())
	assert.Equal(t, "UNI", list[0].Unit)
	require.NotNil(t, list[0].Stock)
	assert.Equal(t, 40, *list[0].Stock)
	assert.Equal(t, "Silla ergonómica", list[1].Name)
	assert.Equal(t, seed.StableID("producto", "SIL-001"), list[1].ID)
}

func TestReadCatalog_Errores(t *testing.T) {
	_, err := seed.ReadCatalog(strings.NewReader(""))
	assert.Error(t, err)

	_, err = seed.ReadCatalog(strings.NewReader("sku;nombre\nA;B\n"))
	assert.ErrorContains(t, err, "precio")

	_, err = seed.ReadCatalog(strings.NewReader("sku;nombre;precio\nA;B;abc\n"))
	assert.ErrorContains(t, err, "línea 2")

	_, err = seed.DecodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestImportProducts_OmiteSKUExistente(t *testing.T) {
	r, _, products := repos()
	_, err := seed.Load(context.Background(), r, now)
	require.NoError(t, err)

	list, err := seed.ReadCatalog(strings.NewReader("sku;nombre;precio\nLAP-001;Laptop;900\nNEW-001;Nuevo;1\n"))
	require.NoError(t, err)
	sum, err := seed.ImportProducts(context.Background(), products, list, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
}
