package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/auth"
	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/application/usecase"
	"github.com/jhoicas/billy-api/internal/domain/dte"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	infradte "github.com/jhoicas/billy-api/internal/infrastructure/dte"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
	"github.com/jhoicas/billy-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/billy-api/internal/interfaces/http"
	"github.com/jhoicas/billy-api/internal/seed"
	"github.com/jhoicas/billy-api/pkg/keylock"
	"github.com/jhoicas/billy-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de prueba: almacén en memoria con los datos iniciales
// ──────────────────────────────────────────────────────────────────────────────

const (
	adminEmail      = "admin@adventureworks.com"
	cashierEmail    = "cajero@adventureworks.com"
	supervisorEmail = "supervisor@adventureworks.com"
)

type server struct {
	app     *fiber.App
	verdict float64 // < 0.7 acepta, >= 0.7 rechaza
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	users := memory.NewUserRepository(s)
	products := memory.NewProductRepository(s)
	clients := memory.NewClientRepository(s)
	sales := memory.NewSaleRepository(s)
	invoices := memory.NewInvoiceRepository(s)

	_, err := seed.Load(ctx, seed.Repos{Users: users, Products: products, Clients: clients}, time.Now().UTC())
	require.NoError(t, err)

	srv := &server{}
	log := logger.Nop()
	prom := metrics.New()
	rec := audit.NewService(memory.NewAuditRepository(s), log, prom)
	locks := keylock.New()
	emitter := dte.DefaultEmitter()

	authority := infradte.NewSimulatedAuthority(infradte.SimulatedConfig{AcceptRate: 0.7}).
		WithRand(func() float64 { return srv.verdict })
	saleUC := usecase.NewSaleUseCase(sales, clients, products, users, locks, rec)
	issuance := billing.NewIssuanceService(billing.IssuanceDeps{
		Sales:     sales,
		Clients:   clients,
		Invoices:  invoices,
		Tx:        memory.NewTxRunner(s),
		Locks:     locks,
		Renderer:  infradte.NewXMLBuilder(emitter),
		Authority: authority,
		Audit:     rec,
		Metrics:   prom,
		Log:       log,
	}, billing.IssuanceConfig{Emitter: emitter, AuthorityTimeout: time.Second})
	query := billing.NewInvoiceQuery(invoices, sales, clients)

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	app.Use(apphttp.Metrics(prom))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(users, nil, auth.LockoutPolicy{}, auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}, rec),
		ProductUC:      usecase.NewProductUseCase(products, rec),
		ClientUC:       usecase.NewClientUseCase(clients, rec),
		SaleUC:         saleUC,
		CartUC:         usecase.NewCartUseCase(products, clients, saleUC),
		UserUC:         usecase.NewUserUseCase(users, rec),
		Issuance:       issuance,
		InvoiceQuery:   query,
		Documents:      billing.NewDocumentUseCase(query, nil),
		Audit:          rec,
		MetricsHandler: prom.Handler(),
		JWTSecret:      testJWTSecret,
	})
	srv.app = app
	return srv
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (s *server) login(t *testing.T, email string) string {
	t.Helper()
	resp, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: seed.DefaultPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Token
}

func errorCode(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (s *server) createSale(t *testing.T, token string) dto.SaleResponse {
	t.Helper()
	resp, raw := s.do(t, http.MethodPost, "/api/ventas", token, map[string]any{
		"clienteId": seed.StableID("cliente", "1"),
		"items": []map[string]any{
			{"productId": seed.StableID("producto", "LAP-001"), "cantidad": 2, "precio": "850.00", "iva": "0.13"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var out dto.SaleResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas(t *testing.T) {
	s := newServer(t)
	resp, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "ADMIN@adventureworks.com", Password: seed.DefaultPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleAdmin, out.User.Rol)
	assert.NotNil(t, out.User.UltimoAcceso)
	assert.NotContains(t, string(raw), "password")

	resp, raw = s.do(t, http.MethodGet, "/api/auth/me", out.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), adminEmail)
}

func TestLogin_BloqueoTrasCincoFallos(t *testing.T) {
	s := newServer(t)
	bad := dto.LoginRequest{Email: cashierEmail, Password: "incorrecta"}

	resp, raw := s.do(t, http.MethodPost, "/api/auth/login", "", bad)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, errorCode(t, raw).Message, "4 intentos restantes")

	for i := 0; i < 4; i++ {
		s.do(t, http.MethodPost, "/api/auth/login", "", bad)
	}

	// la contraseña correcta tampoco entra mientras dura el bloqueo
	resp, raw = s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: cashierEmail, Password: seed.DefaultPassword})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	e := errorCode(t, raw)
	assert.Equal(t, "ACCOUNT_LOCKED", e.Code)
	assert.Contains(t, e.Message, "15 minutos")
}

func TestLogin_UsuarioInactivo_Retorna403(t *testing.T) {
	s := newServer(t)
	resp, raw := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "vendedor@adventureworks.com", Password: seed.DefaultPassword})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Usuario inactivo", errorCode(t, raw).Message)
}

func TestLogin_CuerpoInvalido(t *testing.T) {
	s := newServer(t)
	resp, _ := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// RBAC
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_PermisosPorRol(t *testing.T) {
	s := newServer(t)
	admin := s.login(t, adminEmail)
	cashier := s.login(t, cashierEmail)
	supervisor := s.login(t, supervisorEmail)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"sin token", http.MethodGet, "/api/productos", "", http.StatusUnauthorized},
		{"cajero lista productos", http.MethodGet, "/api/productos", cashier, http.StatusOK},
		{"supervisor lista productos", http.MethodGet, "/api/productos", supervisor, http.StatusOK},
		{"cajero no crea productos", http.MethodPost, "/api/productos", cashier, http.StatusForbidden},
		{"supervisor no lista ventas", http.MethodGet, "/api/ventas", supervisor, http.StatusForbidden},
		{"cajero lista ventas", http.MethodGet, "/api/ventas", cashier, http.StatusOK},
		{"cajero no consulta auditoría", http.MethodGet, "/api/auditoria", cashier, http.StatusForbidden},
		{"supervisor consulta auditoría", http.MethodGet, "/api/auditoria", supervisor, http.StatusOK},
		{"cajero no administra usuarios", http.MethodGet, "/api/usuarios", cashier, http.StatusForbidden},
		{"admin administra usuarios", http.MethodGet, "/api/usuarios", admin, http.StatusOK},
		{"admin accede a facturación", http.MethodGet, "/api/facturacion/dtes", admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := s.do(t, tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.want, resp.StatusCode, string(raw))
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestProductos_CrearYDuplicarSKU(t *testing.T) {
	s := newServer(t)
	admin := s.login(t, adminEmail)
	body := map[string]any{"sku": "CAB-001", "nombre": "Cable HDMI", "categoria": "Accesorios", "unidad": "UNI", "precio": "12.50", "iva": "0.13"}

	resp, raw := s.do(t, http.MethodPost, "/api/productos", admin, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var created dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, entity.StatusActivo, created.Estado)

	resp, raw = s.do(t, http.MethodPost, "/api/productos", admin, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, raw).Code)

	resp, raw = s.do(t, http.MethodGet, "/api/productos?search=hdmi", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ProductListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Productos, 1)
	assert.Equal(t, "CAB-001", list.Productos[0].SKU)
}

func TestProductos_EliminarConVentas_Retorna409(t *testing.T) {
	s := newServer(t)
	cashier := s.login(t, cashierEmail)
	s.createSale(t, cashier)

	resp, raw := s.do(t, http.MethodDelete, "/api/productos/"+seed.StableID("producto", "LAP-001"), s.login(t, adminEmail), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "REFERENTIAL_INTEGRITY", errorCode(t, raw).Code)
}

func TestProductos_NoEncontrado(t *testing.T) {
	s := newServer(t)
	resp, raw := s.do(t, http.MethodGet, "/api/productos/no-existe", s.login(t, adminEmail), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, raw).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas y facturación
// ──────────────────────────────────────────────────────────────────────────────

func TestVentas_RegistrarCalculaTotales(t *testing.T) {
	s := newServer(t)
	sale := s.createSale(t, s.login(t, cashierEmail))

	assert.Equal(t, "V-000001", sale.Numero)
	assert.Equal(t, entity.SaleStatusPendiente, sale.Estado)
	assert.Equal(t, "1700", sale.Subtotal.String())
	assert.Equal(t, "221", sale.TotalIva.String())
	assert.Equal(t, "1921", sale.Total.String())
	assert.Equal(t, seed.StableID("usuario", "2"), sale.VendedorID)
}

func TestFacturacion_EmitirAceptadoYReintentar(t *testing.T) {
	s := newServer(t)
	cashier := s.login(t, cashierEmail)
	sale := s.createSale(t, cashier)

	resp, raw := s.do(t, http.MethodPost, "/api/facturacion/"+sale.ID+"/dte", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var env dto.InvoiceEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, entity.AuthorityStatusAceptado, env.DTE.EstadoAutoridad)
	assert.NotEmpty(t, env.DTE.CodigoControl)
	assert.NotEmpty(t, env.DTE.TrackID)

	resp, raw = s.do(t, http.MethodPost, "/api/facturacion/"+sale.ID+"/dte", cashier, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "La venta ya fue procesada", errorCode(t, raw).Message)

	resp, raw = s.do(t, http.MethodGet, "/api/ventas/"+sale.ID, cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"estado":"FACTURADA"`)

	resp, raw = s.do(t, http.MethodGet, "/api/dte/"+env.DTE.ID+"/xml", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(raw)), "<?xml"))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
}

func TestFacturacion_RechazoDejaVentaPendiente(t *testing.T) {
	s := newServer(t)
	s.verdict = 0.95
	cashier := s.login(t, cashierEmail)
	sale := s.createSale(t, cashier)

	resp, raw := s.do(t, http.MethodPost, "/api/facturacion/"+sale.ID+"/dte", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), `"estadoAutoridad":"RECHAZADO"`)

	// reintento aceptado: dos intentos en el historial
	s.verdict = 0.1
	resp, _ = s.do(t, http.MethodPost, "/api/facturacion/"+sale.ID+"/dte", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = s.do(t, http.MethodGet, "/api/facturacion/"+sale.ID+"/dtes", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.DTEs, 2)
}

func TestFacturacion_VentaInexistente_Retorna404(t *testing.T) {
	s := newServer(t)
	resp, _ := s.do(t, http.MethodPost, "/api/facturacion/no-existe/dte", s.login(t, cashierEmail), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientes_CamposRestringidosTrasFacturar(t *testing.T) {
	s := newServer(t)
	cashier := s.login(t, cashierEmail)
	sale := s.createSale(t, cashier)
	resp, _ := s.do(t, http.MethodPost, "/api/facturacion/"+sale.ID+"/dte", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	clientPath := "/api/clientes/" + seed.StableID("cliente", "1")
	resp, raw := s.do(t, http.MethodPut, clientPath, cashier, map[string]any{"nit": "0614-999999-101-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := errorCode(t, raw)
	assert.Equal(t, "RESTRICTED_FIELD", e.Code)
	assert.Contains(t, e.RestrictedFields, "nit")

	// los campos de contacto siguen editables
	resp, raw = s.do(t, http.MethodPut, clientPath, cashier, map[string]any{"telefono": "2222-4444"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestAuditoria_RegistrarYConsultar(t *testing.T) {
	s := newServer(t)
	cashier := s.login(t, cashierEmail)

	resp, raw := s.do(t, http.MethodPost, "/api/auditoria", cashier, dto.CreateAuditRequest{Accion: entity.AuditView, Entidad: "reporte", Detalles: "Consulta de ventas del día"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = s.do(t, http.MethodGet, "/api/auditoria?accion=VIEW", s.login(t, supervisorEmail), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.AuditListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Logs, 1)
	assert.Equal(t, seed.StableID("usuario", "2"), list.Logs[0].UsuarioID)
	assert.Equal(t, "reporte", list.Logs[0].Entidad)
}

func TestMetrics_ExponeContadores(t *testing.T) {
	s := newServer(t)
	s.login(t, adminEmail)

	resp, raw := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}
