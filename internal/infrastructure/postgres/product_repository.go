package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, category, unit, price, tax_rate, status, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Unit, &p.Price, &p.TaxRate,
		&p.Status, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func productConflict(err error, p *entity.Product) error {
	if c, ok := uniqueViolation(err); ok {
		if c == "products_pkey" {
			return &domain.ConflictError{Entity: "producto", Field: "id", Value: p.ID}
		}
		return &domain.ConflictError{Entity: "producto", Field: "sku", Value: p.SKU}
	}
	return nil
}

// Create persiste un nuevo producto; el índice único products_sku_key garantiza el SKU.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.SKU, p.Name, p.Category, p.Unit, p.Price, p.TaxRate, p.Status, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if cerr := productConflict(err, p); cerr != nil {
			return cerr
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List filtra categoría y estado en SQL; la búsqueda sin acentos se aplica sobre el resultado.
func (r *ProductRepo) List(ctx context.Context, f entity.ProductFilter) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at, id`, f.Category, f.Status)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if textutil.Contains(f.Search, p.Name, p.SKU, p.Category) {
			list = append(list, p)
		}
	}
	return list, rows.Err()
}

// Update reemplaza el producto.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET sku = $2, name = $3, category = $4, unit = $5, price = $6,
			tax_rate = $7, status = $8, stock = $9, updated_at = $10
		WHERE id = $1`,
		p.ID, p.SKU, p.Name, p.Category, p.Unit, p.Price, p.TaxRate, p.Status, p.Stock, p.UpdatedAt,
	)
	if err != nil {
		if cerr := productConflict(err, p); cerr != nil {
			return cerr
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el producto; sale_items lo bloquea con ON DELETE RESTRICT.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	var refs int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sale_items WHERE product_id = $1`, id).Scan(&refs); err != nil {
		return fmt.Errorf("count product refs: %w", err)
	}
	if refs > 0 {
		return productInUse(refs)
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		// una venta concurrente pudo referenciarlo entre el conteo y el borrado
		if isForeignKeyViolation(err) {
			return productInUse(1)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func productInUse(n int) error {
	return &domain.ReferentialIntegrityError{
		Entity: "producto",
		Reason: fmt.Sprintf("está incluido en %d línea(s) de venta", n),
	}
}

// Categories categorías distintas ordenadas alfabéticamente.
func (r *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
