package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, sale_id, authority_status, document_xml, control_code, receiver, messages, track_id, created_at, responded_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	if err := row.Scan(&inv.ID, &inv.SaleID, &inv.AuthorityStatus, &inv.DocumentXML, &inv.ControlCode,
		&inv.Receiver, &inv.Messages, &inv.TrackID, &inv.CreatedAt, &inv.RespondedAt); err != nil {
		return nil, err
	}
	if inv.Messages == nil {
		inv.Messages = []string{}
	}
	return &inv, nil
}

// Create inserta el intento. invoices_one_accepted_key impide un segundo ACEPTADO por venta.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	messages := inv.Messages
	if messages == nil {
		messages = []string{}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.SaleID, inv.AuthorityStatus, inv.DocumentXML, inv.ControlCode, inv.Receiver,
		messages, inv.TrackID, inv.CreatedAt, inv.RespondedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == "invoices_one_accepted_key" {
				return &domain.InvalidStateError{Entity: "venta", Current: entity.SaleStatusFacturada, Op: "emitir DTE"}
			}
			return &domain.ConflictError{Entity: "dte", Field: "id", Value: inv.ID}
		}
		if isForeignKeyViolation(err) {
			return domain.Invalid("saleId", "la venta no existe")
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Invoice, error) {
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE sale_id = $1
		ORDER BY created_at, id`, saleID)
}

func (r *InvoiceRepo) List(ctx context.Context, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE ($1 = '' OR authority_status = $1) AND ($2 = '' OR sale_id = $2)
		ORDER BY created_at DESC, id DESC`, f.AuthorityStatus, f.SaleID)
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}
