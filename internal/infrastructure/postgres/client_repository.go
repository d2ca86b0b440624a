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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository sobre PostgreSQL.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, nit, nrc, name, address, phone, email, fiscal_profile, status, created_at, updated_at`

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	if err := row.Scan(&c.ID, &c.NIT, &c.NRC, &c.Name, &c.Address, &c.Phone, &c.Email,
		&c.FiscalProfile, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// clientConflict traduce el índice único violado al campo del cliente.
func clientConflict(err error, c *entity.Client) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case "clients_nit_key":
		return &domain.ConflictError{Entity: "cliente", Field: "nit", Value: c.NIT}
	case "clients_nrc_key":
		return &domain.ConflictError{Entity: "cliente", Field: "nrc", Value: c.NRC}
	default:
		return &domain.ConflictError{Entity: "cliente", Field: "id", Value: c.ID}
	}
}

func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.NIT, c.NRC, c.Name, c.Address, c.Phone, c.Email, c.FiscalProfile, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if cerr := clientConflict(err, c); cerr != nil {
			return cerr
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *ClientRepo) List(ctx context.Context, f entity.ClientFilter) ([]*entity.Client, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE ($1 = '' OR fiscal_profile = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at, id`, f.FiscalProfile, f.Status)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		if textutil.Contains(f.Search, c.Name, c.NIT, c.NRC, c.Email) {
			list = append(list, c)
		}
	}
	return list, rows.Err()
}

// Update bloquea la fila del cliente (FOR UPDATE) antes de comprobar si tiene
// ventas facturadas; la emisión toma FOR SHARE sobre la misma fila al facturar.
func (r *ClientRepo) Update(ctx context.Context, id string, patch entity.ClientPatch, now time.Time) (*entity.Client, error) {
	var out *entity.Client
	err := pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		cur, err := scanClient(tx.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock client: %w", err)
		}
		if fields := patch.RestrictedFields(); len(fields) > 0 {
			var invoiced bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM sales WHERE client_id = $1 AND status = 'FACTURADA')`, id,
			).Scan(&invoiced); err != nil {
				return fmt.Errorf("check invoiced sales: %w", err)
			}
			if invoiced {
				return &domain.RestrictedFieldError{Fields: fields}
			}
		}
		next := patch.Apply(*cur)
		next.UpdatedAt = now
		if _, err := tx.Exec(ctx, `
			UPDATE clients SET nit = $2, nrc = $3, name = $4, address = $5, phone = $6, email = $7,
				fiscal_profile = $8, status = $9, updated_at = $10
			WHERE id = $1`,
			id, next.NIT, next.NRC, next.Name, next.Address, next.Phone, next.Email,
			next.FiscalProfile, next.Status, next.UpdatedAt,
		); err != nil {
			if cerr := clientConflict(err, &next); cerr != nil {
				return cerr
			}
			return fmt.Errorf("update client: %w", err)
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	var refs int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sales WHERE client_id = $1`, id).Scan(&refs); err != nil {
		return fmt.Errorf("count client refs: %w", err)
	}
	if refs > 0 {
		return clientInUse(refs)
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return clientInUse(1)
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func clientInUse(n int) error {
	return &domain.ReferentialIntegrityError{
		Entity: "cliente",
		Reason: fmt.Sprintf("tiene %d venta(s) asociada(s)", n),
	}
}
