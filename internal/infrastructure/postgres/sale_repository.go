package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación del libro de ventas sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `s.id, s.number, s.date, s.client_id, s.seller_id, s.subtotal, s.tax_total, s.total, s.status, s.created_at, s.updated_at`

func scanSale(row pgx.Row, extra ...any) (*entity.Sale, error) {
	var s entity.Sale
	dest := []any{&s.ID, &s.Number, &s.Date, &s.ClientID, &s.SellerID,
		&s.Subtotal, &s.TaxTotal, &s.Total, &s.Status, &s.CreatedAt, &s.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.Items = []entity.SaleLineItem{}
	return &s, nil
}

// Create toma el consecutivo de sale_number_seq. Un rollback consume el número;
// los números nunca se reutilizan.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		var seq int64
		if err := tx.QueryRow(ctx, `SELECT nextval('sale_number_seq')`).Scan(&seq); err != nil {
			return fmt.Errorf("next sale number: %w", err)
		}
		number := entity.FormatSaleNumber(seq)

		if _, err := tx.Exec(ctx, `
			INSERT INTO sales (id, number, date, client_id, seller_id, subtotal, tax_total, total, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sale.ID, number, sale.Date, sale.ClientID, sale.SellerID,
			sale.Subtotal, sale.TaxTotal, sale.Total, sale.Status, sale.CreatedAt, sale.UpdatedAt,
		); err != nil {
			return saleWriteError(err, sale)
		}

		batch := &pgx.Batch{}
		for i, it := range sale.Items {
			batch.Queue(`
				INSERT INTO sale_items (sale_id, line_no, product_id, name, quantity, price, tax_rate, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				sale.ID, i+1, it.ProductID, it.Name, it.Quantity, it.Price, it.TaxRate, it.Subtotal,
			)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return saleWriteError(err, sale)
			}
		}
		sale.Number = number
		return nil
	})
}

func saleWriteError(err error, sale *entity.Sale) error {
	if constraint, ok := uniqueViolation(err); ok && constraint == "sales_pkey" {
		return &domain.ConflictError{Entity: "venta", Field: "id", Value: sale.ID}
	}
	if pgErr := pgError(err); pgErr != nil && pgErr.Code == codeForeignKeyViolation {
		switch pgErr.ConstraintName {
		case "sales_client_id_fkey":
			return domain.Invalid("clienteId", "el cliente no existe")
		case "sales_seller_id_fkey":
			return domain.Invalid("vendedorId", "el vendedor no existe")
		default:
			return domain.Invalid("items", "el producto no existe")
		}
	}
	return fmt.Errorf("insert sale: %w", err)
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales s WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if err := r.loadItems(ctx, map[string]*entity.Sale{s.ID: s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) List(ctx context.Context, f entity.SaleFilter) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+saleColumns+`, c.name
		FROM sales s JOIN clients c ON c.id = s.client_id
		WHERE ($1 = '' OR s.status = $1) AND ($2 = '' OR s.client_id = $2)
		ORDER BY s.created_at DESC, s.number DESC`, f.Status, f.ClientID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Sale, 0)
	byID := make(map[string]*entity.Sale)
	for rows.Next() {
		var clientName string
		s, err := scanSale(rows, &clientName)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if !textutil.Contains(f.Search, s.Number, clientName) {
			continue
		}
		list = append(list, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return list, nil
}

// loadItems carga las líneas de todas las ventas en una sola consulta.
func (r *SaleRepo) loadItems(ctx context.Context, sales map[string]*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, 0, len(sales))
	for id := range sales {
		ids = append(ids, id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT sale_id, product_id, name, quantity, price, tax_rate, subtotal
		FROM sale_items WHERE sale_id = ANY($1)
		ORDER BY sale_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var saleID string
		var it entity.SaleLineItem
		if err := rows.Scan(&saleID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.TaxRate, &it.Subtotal); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if s, ok := sales[saleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return rows.Err()
}

// TransitionStatus compare-and-swap con UPDATE ... WHERE status = from.
// Al facturar toma FOR SHARE sobre el cliente para serializarse con ClientRepo.Update.
func (r *SaleRepo) TransitionStatus(ctx context.Context, id, from, to string, now time.Time) error {
	var clientID string
	err := r.q.QueryRow(ctx, `
		UPDATE sales SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING client_id`, id, from, to, now,
	).Scan(&clientID)
	if errors.Is(err, pgx.ErrNoRows) {
		var current string
		if err := r.q.QueryRow(ctx, `SELECT status FROM sales WHERE id = $1`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("read sale status: %w", err)
		}
		return &domain.InvalidStateError{Entity: "venta", Current: current, Op: "pasar a " + to}
	}
	if err != nil {
		return fmt.Errorf("transition sale: %w", err)
	}
	if to == entity.SaleStatusFacturada {
		if _, err := r.q.Exec(ctx, `SELECT 1 FROM clients WHERE id = $1 FOR SHARE`, clientID); err != nil {
			return fmt.Errorf("lock client: %w", err)
		}
	}
	return nil
}
