package memory

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

var _ billing.IssuanceTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta la unidad de trabajo de emisión con el almacén bloqueado.
// Si fn devuelve error se deshacen los cambios en orden inverso.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// RunIssuance ejecuta fn con repos de ventas y DTE atados a la transacción.
func (r *TxRunner) RunIssuance(ctx context.Context, fn func(
	sales repository.SaleRepository,
	invoices repository.InvoiceRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := &memTx{s: r.s}
	if err := fn(&txSaleRepository{tx: tx}, &txInvoiceRepository{tx: tx}); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) record(u func()) {
	if u != nil {
		t.undo = append(t.undo, u)
	}
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

type txSaleRepository struct{ tx *memTx }

func (r *txSaleRepository) Create(_ context.Context, sale *entity.Sale) error {
	u, err := r.tx.s.createSale(sale)
	r.tx.record(u)
	return err
}

func (r *txSaleRepository) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	return r.tx.s.getSale(id), nil
}

func (r *txSaleRepository) List(_ context.Context, f entity.SaleFilter) ([]*entity.Sale, error) {
	return r.tx.s.listSales(f), nil
}

func (r *txSaleRepository) TransitionStatus(_ context.Context, id, from, to string, now time.Time) error {
	u, err := r.tx.s.transitionSale(id, from, to, now)
	r.tx.record(u)
	return err
}

type txInvoiceRepository struct{ tx *memTx }

func (r *txInvoiceRepository) Create(_ context.Context, inv *entity.Invoice) error {
	u, err := r.tx.s.createInvoice(inv)
	r.tx.record(u)
	return err
}

func (r *txInvoiceRepository) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	return r.tx.s.getInvoice(id), nil
}

func (r *txInvoiceRepository) ListBySale(_ context.Context, saleID string) ([]*entity.Invoice, error) {
	return r.tx.s.listInvoicesBySale(saleID), nil
}

func (r *txInvoiceRepository) List(_ context.Context, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	return r.tx.s.listInvoices(f), nil
}
