package memory

import (
	"context"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

// InvoiceRepository implementación en memoria de los intentos de emisión.
type InvoiceRepository struct {
	s *Store
}

// NewInvoiceRepository construye el repositorio sobre el almacén.
func NewInvoiceRepository(s *Store) *InvoiceRepository {
	return &InvoiceRepository{s: s}
}

func (r *InvoiceRepository) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, err := r.s.createInvoice(inv)
	return err
}

func (r *InvoiceRepository) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.getInvoice(id), nil
}

func (r *InvoiceRepository) ListBySale(_ context.Context, saleID string) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listInvoicesBySale(saleID), nil
}

func (r *InvoiceRepository) List(_ context.Context, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listInvoices(f), nil
}

// ── operaciones sin lock (el llamador sostiene s.mu) ─────────────────────────

func (s *Store) createInvoice(inv *entity.Invoice) (undo func(), err error) {
	if _, ok := s.invoices[inv.ID]; ok {
		return nil, &domain.ConflictError{Entity: "dte", Field: "id", Value: inv.ID}
	}
	if _, ok := s.sales[inv.SaleID]; !ok {
		return nil, domain.Invalid("saleId", "la venta no existe")
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	s.invoiceOrder = append(s.invoiceOrder, inv.ID)
	id := inv.ID
	return func() {
		delete(s.invoices, id)
		s.invoiceOrder = s.invoiceOrder[:len(s.invoiceOrder)-1]
	}, nil
}

func (s *Store) getInvoice(id string) *entity.Invoice {
	inv, ok := s.invoices[id]
	if !ok {
		return nil
	}
	return cloneInvoice(inv)
}

func (s *Store) listInvoicesBySale(saleID string) []*entity.Invoice {
	out := make([]*entity.Invoice, 0)
	for _, id := range s.invoiceOrder {
		if inv := s.invoices[id]; inv.SaleID == saleID {
			out = append(out, cloneInvoice(inv))
		}
	}
	return out
}

func (s *Store) listInvoices(f entity.InvoiceFilter) []*entity.Invoice {
	out := make([]*entity.Invoice, 0)
	for i := len(s.invoiceOrder) - 1; i >= 0; i-- {
		inv := s.invoices[s.invoiceOrder[i]]
		if f.AuthorityStatus != "" && inv.AuthorityStatus != f.AuthorityStatus {
			continue
		}
		if f.SaleID != "" && inv.SaleID != f.SaleID {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	return out
}
