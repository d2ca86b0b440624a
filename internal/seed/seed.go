// Package seed carga los datos iniciales de la consola: usuarios, catálogo y clientes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// DefaultPassword contraseña de los usuarios sembrados.
const DefaultPassword = "password123"

// namespace para derivar IDs estables: volver a sembrar no duplica registros.
var namespace = uuid.MustParse("5b1c7a4e-2f0d-4d8e-9a51-3c6b0f2e7d10")

// StableID id determinista para una llave de fixture.
func StableID(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}

// Repos destinos de la siembra.
type Repos struct {
	Users    repository.UserRepository
	Products repository.ProductRepository
	Clients  repository.ClientRepository
}

// Summary registros creados y omitidos (ya existentes).
type Summary struct {
	Created int
	Skipped int
}

type userFixture struct {
	key, name, email, role, status string
	createdAt                      time.Time
}

var users = []userFixture{
	{"1", "Administrador Sistema", "admin@adventureworks.com", entity.RoleAdmin, entity.StatusActivo, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	{"2", "María González", "cajero@adventureworks.com", entity.RoleCashier, entity.StatusActivo, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	{"3", "Carlos Supervisor", "supervisor@adventureworks.com", entity.RoleSupervisor, entity.StatusActivo, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	{"4", "Ana Vendedora", "vendedor@adventureworks.com", entity.RoleCashier, entity.StatusInactivo, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
}

// Products catálogo inicial.
func Products() []*entity.Product {
	p := func(sku, name, category, price string, stock int) *entity.Product {
		s := stock
		return &entity.Product{
			ID:       StableID("producto", sku),
			SKU:      sku,
			Name:     name,
			Category: category,
			Unit:     "UNI",
			Price:    decimal.RequireFromString(price),
			TaxRate:  decimal.RequireFromString("0.13"),
			Status:   entity.StatusActivo,
			Stock:    &s,
		}
	}
	return []*entity.Product{
		p("LAP-001", "Laptop Dell Inspiron 15", "Electrónica", "850.00", 15),
		p("MOU-001", "Mouse Inalámbrico Logitech", "Accesorios", "45.99", 50),
		p("TEC-001", "Teclado Mecánico RGB", "Accesorios", "89.99", 30),
		p("MON-001", "Monitor Samsung 24\"", "Electrónica", "199.99", 20),
		p("IMP-001", "Impresora HP LaserJet", "Oficina", "320.00", 8),
	}
}

// Clients clientes iniciales.
func Clients() []*entity.Client {
	return []*entity.Client{
		{ID: StableID("cliente", "1"), NIT: "0614-010190-101-1", NRC: "123456-7", Name: "Juan Pérez", Address: "Col. Escalón, San Salvador", Phone: "2222-3333", Email: "juan.perez@correo.com", FiscalProfile: entity.FiscalProfileResponsableIVA, Status: entity.StatusActivo},
		{ID: StableID("cliente", "2"), NIT: "0614-150385-102-3", Name: "Distribuidora El Sol S.A. de C.V.", Address: "Blvd. Los Héroes, San Salvador", Phone: "2250-1000", Email: "compras@elsol.com.sv", FiscalProfile: entity.FiscalProfileResponsableIVA, Status: entity.StatusActivo},
		{ID: StableID("cliente", "3"), NRC: "765432-1", Name: "Fundación Esperanza", Address: "Santa Tecla, La Libertad", Email: "info@esperanza.org.sv", FiscalProfile: entity.FiscalProfileExento, Status: entity.StatusActivo},
		{ID: StableID("cliente", "4"), Name: "Consumidor Final", Address: "San Salvador", FiscalProfile: entity.FiscalProfilePercepcion, Status: entity.StatusActivo},
	}
}

// Load siembra usuarios, productos y clientes. Los registros existentes se omiten.
func Load(ctx context.Context, r Repos, now time.Time) (Summary, error) {
	var sum Summary
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return sum, fmt.Errorf("seed: hash: %w", err)
	}
	for _, f := range users {
		u := &entity.User{
			ID:           StableID("usuario", f.key),
			Email:        f.email,
			PasswordHash: string(hash),
			Name:         f.name,
			Role:         f.role,
			Status:       f.status,
			CreatedAt:    f.createdAt,
			UpdatedAt:    f.createdAt,
		}
		if err := tally(&sum, r.Users.Create(ctx, u)); err != nil {
			return sum, fmt.Errorf("seed: usuario %s: %w", f.email, err)
		}
	}
	for _, p := range Products() {
		p.CreatedAt, p.UpdatedAt = now, now
		if err := tally(&sum, r.Products.Create(ctx, p)); err != nil {
			return sum, fmt.Errorf("seed: producto %s: %w", p.SKU, err)
		}
	}
	for _, c := range Clients() {
		c.CreatedAt, c.UpdatedAt = now, now
		if err := tally(&sum, r.Clients.Create(ctx, c)); err != nil {
			return sum, fmt.Errorf("seed: cliente %s: %w", c.Name, err)
		}
	}
	return sum, nil
}

func tally(sum *Summary, err error) error {
	switch {
	case err == nil:
		sum.Created++
	case errors.Is(err, domain.ErrConflict):
		sum.Skipped++
	default:
		return err
	}
	return nil
}
