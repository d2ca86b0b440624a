package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/auth"
	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/application/usecase"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// RouterDeps dependencias para el router. MetricsHandler es opcional.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	ProductUC      *usecase.ProductUseCase
	ClientUC       *usecase.ClientUseCase
	SaleUC         *usecase.SaleUseCase
	CartUC         *usecase.CartUseCase
	UserUC         *usecase.UserUseCase
	Issuance       *billing.IssuanceService
	InvoiceQuery   *billing.InvoiceQuery
	Documents      *billing.DocumentUseCase
	Audit          *audit.Service
	MetricsHandler nethttp.Handler
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/logout", authHandler.Logout)

	adminOnly := RequireRole(entity.RoleAdmin)
	sellers := RequireRole(entity.RoleCashier)
	auditors := RequireRole(entity.RoleSupervisor)

	// Productos: lectura para todos los roles, escritura ADMIN
	productHandler := NewProductHandler(deps.ProductUC)
	products := protected.Group("/productos")
	products.Get("/", productHandler.List)
	products.Get("/categorias", productHandler.Categories)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", adminOnly, productHandler.Create)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Clientes
	clientHandler := NewClientHandler(deps.ClientUC)
	clients := protected.Group("/clientes")
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Post("/", sellers, clientHandler.Create)
	clients.Put("/:id", sellers, clientHandler.Update)
	clients.Delete("/:id", sellers, clientHandler.Delete)

	// Carrito
	cartHandler := NewCartHandler(deps.CartUC)
	cart := protected.Group("/carrito", sellers)
	cart.Get("/", cartHandler.Get)
	cart.Delete("/", cartHandler.Clear)
	cart.Put("/cliente", cartHandler.SelectClient)
	cart.Post("/items", cartHandler.AddItem)
	cart.Patch("/items/:productId", cartHandler.SetQuantity)
	cart.Delete("/items/:productId", cartHandler.RemoveItem)
	cart.Post("/checkout", cartHandler.Checkout)

	// Ventas
	saleHandler := NewSaleHandler(deps.SaleUC)
	sales := protected.Group("/ventas", sellers)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Post("/", saleHandler.Create)
	sales.Post("/:id/anular", saleHandler.Void)

	// Facturación electrónica
	billingHandler := NewBillingHandler(deps.Issuance, deps.InvoiceQuery, deps.Documents)
	invoicing := protected.Group("/facturacion", sellers)
	invoicing.Get("/ventas-pendientes", saleHandler.Pending)
	invoicing.Get("/dtes", billingHandler.List)
	invoicing.Post("/:ventaId/dte", billingHandler.Issue)
	invoicing.Get("/:ventaId/dte", billingHandler.Latest)
	invoicing.Get("/:ventaId/dtes", billingHandler.Attempts)

	documents := protected.Group("/dte", sellers)
	documents.Get("/:id/xml", billingHandler.DownloadXML)
	documents.Get("/:id/pdf", billingHandler.DownloadPDF)

	// Auditoría: cualquier usuario registra eventos de consulta; solo ADMIN y SUPERVISOR consultan
	auditHandler := NewAuditHandler(deps.Audit)
	protected.Post("/auditoria", auditHandler.Create)
	protected.Get("/auditoria", auditors, auditHandler.List)

	// Usuarios. cambiar-password admite al propio usuario; el use case valida el resto.
	userHandler := NewUserHandler(deps.UserUC)
	protected.Post("/usuarios/:id/cambiar-password", userHandler.ChangePassword)
	users := protected.Group("/usuarios", adminOnly)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Post("/", userHandler.Create)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
}
