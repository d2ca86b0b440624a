package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/keylock"
)

// totalsTolerance diferencia máxima entre totales declarados y recalculados.
var totalsTolerance = decimal.RequireFromString("0.01")

// SaleUseCase libro de ventas: registro, consulta y anulación.
type SaleUseCase struct {
	sales    repository.SaleRepository
	clients  repository.ClientRepository
	products repository.ProductRepository
	users    repository.UserRepository
	locks    *keylock.Locker
	audit    audit.Recorder
}

// NewSaleUseCase construye el caso de uso. locks debe ser el mismo que usa la emisión.
func NewSaleUseCase(
	sales repository.SaleRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	locks *keylock.Locker,
	rec audit.Recorder,
) *SaleUseCase {
	if locks == nil {
		locks = keylock.New()
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	return &SaleUseCase{sales: sales, clients: clients, products: products, users: users, locks: locks, audit: rec}
}

// Create registra una venta PENDIENTE con número consecutivo.
// Las líneas conservan nombre, precio e IVA enviados (copia al momento de agregar al carrito).
func (uc *SaleUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.Invalid("items", "la venta debe tener al menos un producto")
	}
	client, err := uc.clients.GetByID(ctx, strings.TrimSpace(in.ClienteID))
	if err != nil {
		return nil, err
	}
	if client == nil || client.Status != entity.StatusActivo {
		return nil, domain.Invalid("clienteId", "debe ser un cliente activo")
	}
	sellerID := strings.TrimSpace(in.VendedorID)
	if sellerID == "" {
		sellerID = actor.UserID
	}
	seller, err := uc.users.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil || !seller.Active() {
		return nil, domain.Invalid("vendedorId", "debe ser un usuario activo")
	}

	items := make([]entity.SaleLineItem, 0, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Cantidad < 1 {
			return nil, domain.Invalid(field+".cantidad", "debe ser mayor o igual a 1")
		}
		if it.Precio.IsNegative() {
			return nil, domain.Invalid(field+".precio", "no puede ser negativo")
		}
		if it.IVA.IsNegative() || it.IVA.GreaterThan(taxRateMax) {
			return nil, domain.Invalid(field+".iva", "debe estar entre 0 y 1")
		}
		product, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.Invalid(field+".productId", "el producto no existe")
		}
		name := strings.TrimSpace(it.Nombre)
		if name == "" {
			name = product.Name
		}
		items = append(items, entity.NewLineItem(product.ID, name, it.Cantidad, it.Precio, it.IVA))
	}

	tot := entity.ComputeTotals(items)
	if err := checkDeclared("subtotal", in.Subtotal, tot.Subtotal); err != nil {
		return nil, err
	}
	if err := checkDeclared("totalIva", in.TotalIva, tot.TaxTotal); err != nil {
		return nil, err
	}
	if err := checkDeclared("total", in.Total, tot.Total); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sale := &entity.Sale{
		ID:        uuid.New().String(),
		Date:      now,
		ClientID:  client.ID,
		SellerID:  seller.ID,
		Items:     items,
		Subtotal:  tot.Subtotal,
		TaxTotal:  tot.TaxTotal,
		Total:     tot.Total,
		Status:    entity.SaleStatusPendiente,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sales.Create(ctx, sale); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditCreate, "venta",
		fmt.Sprintf("Venta %s por %s", sale.Number, sale.Total.Round(2).StringFixed(2)))
	out := dto.FromSale(sale, client, seller)
	return &out, nil
}

func checkDeclared(field string, declared *decimal.Decimal, computed decimal.Decimal) error {
	if declared == nil {
		return nil
	}
	if declared.Sub(computed).Abs().GreaterThan(totalsTolerance) {
		return domain.Invalid(field, fmt.Sprintf("no coincide con el calculado (%s)", computed.Round(2).StringFixed(2)))
	}
	return nil
}

// GetByID venta con cliente y vendedor.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "venta", Msg: "Venta no encontrada"}
	}
	out, err := uc.join(ctx, sale)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List ventas filtradas, más recientes primero.
func (uc *SaleUseCase) List(ctx context.Context, f entity.SaleFilter) (*dto.SaleListResponse, error) {
	switch f.Status {
	case "", entity.SaleStatusPendiente, entity.SaleStatusFacturada, entity.SaleStatusAnulada:
	default:
		return nil, domain.Invalid("estado", "debe ser PENDIENTE, FACTURADA o ANULADA")
	}
	list, err := uc.sales.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		r, err := uc.join(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return &dto.SaleListResponse{Ventas: out}, nil
}

// PendingForInvoicing ventas PENDIENTE con cliente y vendedor.
func (uc *SaleUseCase) PendingForInvoicing(ctx context.Context) (*dto.SaleListResponse, error) {
	return uc.List(ctx, entity.SaleFilter{Status: entity.SaleStatusPendiente})
}

// Void anula una venta PENDIENTE; se serializa con la emisión de la misma venta.
func (uc *SaleUseCase) Void(ctx context.Context, actor entity.Actor, id string) (*dto.SaleResponse, error) {
	unlock, err := uc.locks.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("anular: esperando la venta %s: %w", id, err)
	}
	defer unlock()

	now := time.Now().UTC()
	if err := uc.sales.TransitionStatus(ctx, id, entity.SaleStatusPendiente, entity.SaleStatusAnulada, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "venta", Msg: "Venta no encontrada"}
		}
		return nil, err
	}
	sale, err := uc.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditUpdate, "venta", "Venta "+sale.Number+" anulada")
	out, err := uc.join(ctx, sale)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *SaleUseCase) join(ctx context.Context, s *entity.Sale) (dto.SaleResponse, error) {
	client, err := uc.clients.GetByID(ctx, s.ClientID)
	if err != nil {
		return dto.SaleResponse{}, err
	}
	seller, err := uc.users.GetByID(ctx, s.SellerID)
	if err != nil {
		return dto.SaleResponse{}, err
	}
	return dto.FromSale(s, client, seller), nil
}
