package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/billy-api/docs"
	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/auth"
	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/application/usecase"
	domaindte "github.com/jhoicas/billy-api/internal/domain/dte"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/internal/infrastructure/cache"
	infradte "github.com/jhoicas/billy-api/internal/infrastructure/dte"
	"github.com/jhoicas/billy-api/internal/infrastructure/dte/signer"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
	"github.com/jhoicas/billy-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/billy-api/internal/infrastructure/pdf"
	"github.com/jhoicas/billy-api/internal/infrastructure/postgres"
	"github.com/jhoicas/billy-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/billy-api/internal/interfaces/http"
	"github.com/jhoicas/billy-api/internal/seed"
	"github.com/jhoicas/billy-api/pkg/config"
	"github.com/jhoicas/billy-api/pkg/keylock"
	"github.com/jhoicas/billy-api/pkg/logger"
)

// stores repositorios del driver elegido.
type stores struct {
	users    repository.UserRepository
	products repository.ProductRepository
	clients  repository.ClientRepository
	sales    repository.SaleRepository
	invoices repository.InvoiceRepository
	audit    repository.AuditRepository
	tx       billing.IssuanceTxRunner
	close    func()
}

// @title                       Billy API
// @version                     1.0
// @description                 Punto de venta y facturación electrónica (DTE).
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 "Bearer <token>"
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Str("authority", cfg.Authority.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer st.close()

	prom := metrics.New()
	auditSvc := audit.NewService(st.audit, log, prom)
	locks := keylock.New()
	emitter := emitterFrom(cfg.Emitter)

	// Lockout de login: Redis si está configurado, memoria en otro caso
	var lockout auth.LockoutStore
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		lockout = cache.NewRedisLockout(rdb, cfg.Lockout.Duration)
	}

	authUC := auth.NewAuthUseCase(st.users, lockout,
		auth.LockoutPolicy{MaxAttempts: cfg.Lockout.MaxAttempts, Duration: cfg.Lockout.Duration},
		auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer},
		auditSvc,
	)
	productUC := usecase.NewProductUseCase(st.products, auditSvc)
	clientUC := usecase.NewClientUseCase(st.clients, auditSvc)
	saleUC := usecase.NewSaleUseCase(st.sales, st.clients, st.products, st.users, locks, auditSvc)
	cartUC := usecase.NewCartUseCase(st.products, st.clients, saleUC)
	userUC := usecase.NewUserUseCase(st.users, auditSvc)

	deps := billing.IssuanceDeps{
		Sales:     st.sales,
		Clients:   st.clients,
		Invoices:  st.invoices,
		Tx:        st.tx,
		Locks:     locks,
		Renderer:  infradte.NewXMLBuilder(emitter),
		Authority: newAuthority(cfg.Authority),
		Audit:     auditSvc,
		Metrics:   prom,
		Log:       log,
	}
	if cfg.Signer.CertPath != "" {
		deps.Signer = mustSigner(cfg.Signer, log)
	}
	if cfg.S3.Bucket != "" {
		archive, err := storage.NewS3Archive(ctx, storage.S3Config(cfg.S3))
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3.Bucket).Msg("cliente S3")
		}
		deps.Archive = archive
	}
	issuance := billing.NewIssuanceService(deps, billing.IssuanceConfig{
		Emitter:          emitter,
		AuthorityTimeout: cfg.Authority.Timeout,
	})
	invoiceQuery := billing.NewInvoiceQuery(st.invoices, st.sales, st.clients)
	documents := billing.NewDocumentUseCase(invoiceQuery, infrapdf.NewMarotoPDFGenerator(emitter))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Authority.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))
	app.Use(httpRouter.Metrics(prom))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Billy API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ProductUC:      productUC,
		ClientUC:       clientUC,
		SaleUC:         saleUC,
		CartUC:         cartUC,
		UserUC:         userUC,
		Issuance:       issuance,
		InvoiceQuery:   invoiceQuery,
		Documents:      documents,
		Audit:          auditSvc,
		MetricsHandler: prom.Handler(),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores abre PostgreSQL o el almacén en memoria. En memoria y en
// desarrollo se cargan los datos iniciales de la consola.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StorageDriver == config.StoragePostgres {
		pool, err := postgres.NewPool(ctx, cfg.DB, postgres.DefaultPoolOptions)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			users:    postgres.NewUserRepository(pool),
			products: postgres.NewProductRepository(pool),
			clients:  postgres.NewClientRepository(pool),
			sales:    postgres.NewSaleRepository(pool),
			invoices: postgres.NewInvoiceRepository(pool),
			audit:    postgres.NewAuditRepository(pool),
			tx:       postgres.NewTxRunner(pool),
			close:    pool.Close,
		}, nil
	}

	s := memory.NewStore()
	st := &stores{
		users:    memory.NewUserRepository(s),
		products: memory.NewProductRepository(s),
		clients:  memory.NewClientRepository(s),
		sales:    memory.NewSaleRepository(s),
		invoices: memory.NewInvoiceRepository(s),
		audit:    memory.NewAuditRepository(s),
		tx:       memory.NewTxRunner(s),
		close:    func() {},
	}
	if cfg.App.IsDevelopment() {
		sum, err := seed.Load(ctx, seed.Repos{Users: st.users, Products: st.products, Clients: st.clients}, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		log.Info().Int("creados", sum.Created).Msg("datos iniciales cargados en memoria")
	}
	return st, nil
}

func newAuthority(cfg config.AuthorityConfig) billing.TaxAuthority {
	if cfg.Mode == config.AuthoritySOAP {
		return infradte.NewSOAPAuthority(cfg.URL, nil)
	}
	sim := infradte.DefaultSimulatedConfig()
	if cfg.MaxDelay > 0 {
		sim.MinDelay, sim.MaxDelay = cfg.MinDelay, cfg.MaxDelay
	}
	if cfg.AcceptRate > 0 {
		sim.AcceptRate = cfg.AcceptRate
	}
	return infradte.NewSimulatedAuthority(sim)
}

func mustSigner(cfg config.SignerConfig, log *logger.Logger) *signer.Service {
	cert, err := signer.LoadCertificate(cfg.CertPath, cfg.KeyPath, cfg.CertPassword)
	if err != nil {
		log.Fatal().Err(err).Str("cert", cfg.CertPath).Msg("cargar certificado de firma")
	}
	svc, err := signer.NewService(cert)
	if err != nil {
		log.Fatal().Err(err).Msg("firmador XML")
	}
	return svc
}

func emitterFrom(c config.EmitterConfig) domaindte.Emitter {
	e := domaindte.Emitter(c)
	if e.NIT == "" {
		return domaindte.DefaultEmitter()
	}
	return e
}
