package memory

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.SaleRepository = (*SaleRepository)(nil)

// SaleRepository implementación en memoria del libro de ventas.
type SaleRepository struct {
	s *Store
}

// NewSaleRepository construye el repositorio sobre el almacén.
func NewSaleRepository(s *Store) *SaleRepository {
	return &SaleRepository{s: s}
}

func (r *SaleRepository) Create(_ context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, err := r.s.createSale(sale)
	return err
}

func (r *SaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.getSale(id), nil
}

func (r *SaleRepository) List(_ context.Context, f entity.SaleFilter) ([]*entity.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listSales(f), nil
}

func (r *SaleRepository) TransitionStatus(_ context.Context, id, from, to string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, err := r.s.transitionSale(id, from, to, now)
	return err
}

// ── operaciones sin lock (el llamador sostiene s.mu) ─────────────────────────

// createSale asigna el consecutivo y actualiza los índices de referencias.
// Cliente y productos deben existir, como lo haría una llave foránea.
func (s *Store) createSale(sale *entity.Sale) (undo func(), err error) {
	if _, ok := s.sales[sale.ID]; ok {
		return nil, &domain.ConflictError{Entity: "venta", Field: "id", Value: sale.ID}
	}
	if _, ok := s.clients[sale.ClientID]; !ok {
		return nil, domain.Invalid("clienteId", "el cliente no existe")
	}
	for _, it := range sale.Items {
		if _, ok := s.products[it.ProductID]; !ok {
			return nil, domain.Invalid("items", "el producto "+it.ProductID+" no existe")
		}
	}
	s.saleSeq++
	sale.Number = entity.FormatSaleNumber(s.saleSeq)
	s.sales[sale.ID] = cloneSale(sale)
	s.saleOrder = append(s.saleOrder, sale.ID)
	s.clientRefs[sale.ClientID]++
	for _, it := range sale.Items {
		s.productRefs[it.ProductID]++
	}
	if sale.Status == entity.SaleStatusFacturada {
		s.invoicedClients[sale.ClientID]++
	}
	id := sale.ID
	return func() {
		// el consecutivo no se devuelve: los números nunca se reutilizan
		stored := s.sales[id]
		delete(s.sales, id)
		s.saleOrder = s.saleOrder[:len(s.saleOrder)-1]
		s.clientRefs[stored.ClientID]--
		for _, it := range stored.Items {
			s.productRefs[it.ProductID]--
		}
		if stored.Status == entity.SaleStatusFacturada {
			s.invoicedClients[stored.ClientID]--
		}
	}, nil
}

func (s *Store) getSale(id string) *entity.Sale {
	sale, ok := s.sales[id]
	if !ok {
		return nil
	}
	return cloneSale(sale)
}

// listSales devuelve las ventas más recientes primero.
func (s *Store) listSales(f entity.SaleFilter) []*entity.Sale {
	out := make([]*entity.Sale, 0)
	for i := len(s.saleOrder) - 1; i >= 0; i-- {
		sale := s.sales[s.saleOrder[i]]
		if f.Status != "" && sale.Status != f.Status {
			continue
		}
		if f.ClientID != "" && sale.ClientID != f.ClientID {
			continue
		}
		if f.Search != "" {
			clientName := ""
			if c, ok := s.clients[sale.ClientID]; ok {
				clientName = c.Name
			}
			if !textutil.Contains(f.Search, sale.Number, clientName) {
				continue
			}
		}
		out = append(out, cloneSale(sale))
	}
	return out
}

// transitionSale compare-and-swap sobre el estado.
func (s *Store) transitionSale(id, from, to string, now time.Time) (undo func(), err error) {
	sale, ok := s.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if sale.Status != from {
		return nil, &domain.InvalidStateError{Entity: "venta", Current: sale.Status, Op: "pasar a " + to}
	}
	prevUpdated := sale.UpdatedAt
	sale.Status = to
	sale.UpdatedAt = now
	if to == entity.SaleStatusFacturada {
		s.invoicedClients[sale.ClientID]++
	}
	return func() {
		if to == entity.SaleStatusFacturada {
			s.invoicedClients[sale.ClientID]--
		}
		sale.Status = from
		sale.UpdatedAt = prevUpdated
	}, nil
}
