package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// InvoiceView DTE con su venta y cliente.
type InvoiceView struct {
	Invoice *entity.Invoice
	Sale    *entity.Sale
	Client  *entity.Client
}

// InvoiceQuery consultas de solo lectura sobre los intentos de emisión.
type InvoiceQuery struct {
	invoices repository.InvoiceRepository
	sales    repository.SaleRepository
	clients  repository.ClientRepository
}

// NewInvoiceQuery construye el servicio de consultas.
func NewInvoiceQuery(invoices repository.InvoiceRepository, sales repository.SaleRepository, clients repository.ClientRepository) *InvoiceQuery {
	return &InvoiceQuery{invoices: invoices, sales: sales, clients: clients}
}

// Get devuelve un DTE por id.
func (q *InvoiceQuery) Get(ctx context.Context, id string) (*InvoiceView, error) {
	inv, err := q.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dte: obtener: %w", err)
	}
	if inv == nil {
		return nil, &domain.NotFoundError{Entity: "dte", Msg: "DTE no encontrado"}
	}
	return q.join(ctx, inv)
}

// AttemptsForSale intentos de la venta en orden de creación.
func (q *InvoiceQuery) AttemptsForSale(ctx context.Context, saleID string) ([]*entity.Invoice, error) {
	sale, err := q.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("dte: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "venta", Msg: "Venta no encontrada"}
	}
	return q.invoices.ListBySale(ctx, saleID)
}

// LatestForSale último intento de la venta.
func (q *InvoiceQuery) LatestForSale(ctx context.Context, saleID string) (*InvoiceView, error) {
	list, err := q.AttemptsForSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &domain.NotFoundError{Entity: "dte", Msg: "La venta no tiene DTE emitido"}
	}
	return q.join(ctx, list[len(list)-1])
}

// List DTEs filtrados, más recientes primero, con venta y cliente.
func (q *InvoiceQuery) List(ctx context.Context, f entity.InvoiceFilter) ([]*InvoiceView, error) {
	switch f.AuthorityStatus {
	case "", entity.AuthorityStatusAceptado, entity.AuthorityStatusRechazado, entity.AuthorityStatusPendiente:
	default:
		return nil, domain.Invalid("estado", "debe ser ACEPTADO, RECHAZADO o PENDIENTE")
	}
	list, err := q.invoices.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("dte: listar: %w", err)
	}
	out := make([]*InvoiceView, 0, len(list))
	for _, inv := range list {
		v, err := q.join(ctx, inv)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (q *InvoiceQuery) join(ctx context.Context, inv *entity.Invoice) (*InvoiceView, error) {
	v := &InvoiceView{Invoice: inv}
	sale, err := q.sales.GetByID(ctx, inv.SaleID)
	if err != nil {
		return nil, fmt.Errorf("dte: obtener venta: %w", err)
	}
	v.Sale = sale
	if sale != nil {
		c, err := q.clients.GetByID(ctx, sale.ClientID)
		if err != nil {
			return nil, fmt.Errorf("dte: obtener cliente: %w", err)
		}
		v.Client = c
	}
	return v, nil
}
