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

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, email, password_hash, name, role, status, last_access, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status,
		&u.LastAccess, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func userConflict(err error, u *entity.User) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	if constraint == "users_email_key" {
		return &domain.ConflictError{Entity: "usuario", Field: "email", Value: u.Email}
	}
	return &domain.ConflictError{Entity: "usuario", Field: "id", Value: u.ID}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status, u.LastAccess, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if cerr := userConflict(err, u); cerr != nil {
			return cerr
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail sin distinguir mayúsculas (índice users_email_key sobre lower(email)).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context, f entity.UserFilter) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR role = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at, id`, f.Role, f.Status)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if textutil.Contains(f.Search, u.Name, u.Email) {
			list = append(list, u)
		}
	}
	return list, rows.Err()
}

// Update reemplaza nombre, email, rol y estado. Los ADMIN activos se bloquean
// (FOR UPDATE) para que dos degradaciones concurrentes no dejen el sistema sin administrador.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		cur, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, u.ID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if u.Role != entity.RoleAdmin || u.Status != entity.StatusActivo {
			last, err := isLastActiveAdmin(ctx, tx, cur)
			if err != nil {
				return err
			}
			if last {
				return domain.ErrLastAdmin
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE users SET email = $2, name = $3, role = $4, status = $5, updated_at = $6
			WHERE id = $1`,
			u.ID, u.Email, u.Name, u.Role, u.Status, u.UpdatedAt,
		); err != nil {
			if cerr := userConflict(err, u); cerr != nil {
				return cerr
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) TouchLastAccess(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE users SET last_access = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last access: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el usuario salvo que sea el último ADMIN activo o tenga ventas registradas.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		cur, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		last, err := isLastActiveAdmin(ctx, tx, cur)
		if err != nil {
			return err
		}
		if last {
			return domain.ErrLastAdmin
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			if isForeignKeyViolation(err) {
				return &domain.ReferentialIntegrityError{Entity: "usuario", Reason: "tiene ventas registradas como vendedor"}
			}
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// isLastActiveAdmin bloquea los demás ADMIN activos y verifica si queda alguno.
func isLastActiveAdmin(ctx context.Context, tx pgx.Tx, u *entity.User) (bool, error) {
	if u.Role != entity.RoleAdmin || u.Status != entity.StatusActivo {
		return false, nil
	}
	rows, err := tx.Query(ctx, `
		SELECT id FROM users
		WHERE role = 'ADMIN' AND status = 'ACTIVO' AND id <> $1
		FOR UPDATE`, u.ID)
	if err != nil {
		return false, fmt.Errorf("lock admins: %w", err)
	}
	defer rows.Close()
	others := 0
	for rows.Next() {
		others++
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("lock admins: %w", err)
	}
	return others == 0, nil
}
