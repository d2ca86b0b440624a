package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/application/usecase"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
	"github.com/jhoicas/billy-api/pkg/keylock"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type harness struct {
	store    *memory.Store
	sales    *memory.SaleRepository
	users    *memory.UserRepository
	auditLog *memory.AuditRepository
	products *usecase.ProductUseCase
	clients  *usecase.ClientUseCase
	saleUC   *usecase.SaleUseCase
	cartUC   *usecase.CartUseCase
	userUC   *usecase.UserUseCase
	cashier  entity.Actor
	admin    entity.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memory.NewStore()
	h := &harness{
		store:    s,
		sales:    memory.NewSaleRepository(s),
		users:    memory.NewUserRepository(s),
		auditLog: memory.NewAuditRepository(s),
		cashier:  entity.Actor{UserID: "u2", Role: entity.RoleCashier, IP: "127.0.0.1"},
		admin:    entity.Actor{UserID: "u1", Role: entity.RoleAdmin, IP: "127.0.0.1"},
	}
	rec := audit.NewService(h.auditLog, nil, nil)
	productRepo := memory.NewProductRepository(s)
	clientRepo := memory.NewClientRepository(s)
	h.products = usecase.NewProductUseCase(productRepo, rec)
	h.clients = usecase.NewClientUseCase(clientRepo, rec)
	h.saleUC = usecase.NewSaleUseCase(h.sales, clientRepo, productRepo, h.users, keylock.New(), rec)
	h.cartUC = usecase.NewCartUseCase(productRepo, clientRepo, h.saleUC)
	h.userUC = usecase.NewUserUseCase(h.users, rec)

	ctx := context.Background()
	require.NoError(t, h.users.Create(ctx, &entity.User{ID: "u1", Email: "admin@adventureworks.com", Name: "Administrador Sistema", Role: entity.RoleAdmin, Status: entity.StatusActivo}))
	require.NoError(t, h.users.Create(ctx, &entity.User{ID: "u2", Email: "cajero@adventureworks.com", Name: "María González", Role: entity.RoleCashier, Status: entity.StatusActivo}))
	return h
}

func (h *harness) product(t *testing.T, sku, name, price string) *dto.ProductResponse {
	t.Helper()
	p, err := h.products.Create(context.Background(), h.admin, dto.CreateProductRequest{
		SKU: sku, Nombre: name, Categoria: "Electrónica",
		Precio: decimal.RequireFromString(price), IVA: decimal.RequireFromString("0.13"),
	})
	require.NoError(t, err)
	return p
}

func (h *harness) client(t *testing.T, nit, name string) *dto.ClientResponse {
	t.Helper()
	c, err := h.clients.Create(context.Background(), h.cashier, dto.CreateClientRequest{
		NIT: nit, Nombre: name, Direccion: "San Salvador", Email: "cliente@correo.com",
	})
	require.NoError(t, err)
	return c
}

func (h *harness) saleFor(t *testing.T, clientID string, products ...*dto.ProductResponse) *dto.SaleResponse {
	t.Helper()
	req := dto.CreateSaleRequest{ClienteID: clientID}
	for _, p := range products {
		req.Items = append(req.Items, dto.SaleItemRequest{ProductID: p.ID, Nombre: p.Nombre, Cantidad: 2, Precio: p.Precio, IVA: p.IVA})
	}
	s, err := h.saleUC.Create(context.Background(), h.cashier, req)
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }
