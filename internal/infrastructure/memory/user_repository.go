package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/textutil"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository implementación en memoria de usuarios.
type UserRepository struct {
	s *Store
}

// NewUserRepository construye el repositorio sobre el almacén.
func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := emailKey(u.Email)
	if _, ok := r.s.emails[key]; ok {
		return &domain.ConflictError{Entity: "usuario", Field: "email", Value: u.Email}
	}
	if _, ok := r.s.users[u.ID]; ok {
		return &domain.ConflictError{Entity: "usuario", Field: "id", Value: u.ID}
	}
	r.s.users[u.ID] = cloneUser(u)
	r.s.emails[key] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[emailKey(email)]
	if !ok {
		return nil, nil
	}
	return cloneUser(r.s.users[id]), nil
}

func (r *UserRepository) List(_ context.Context, f entity.UserFilter) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Search != "" && !textutil.Contains(f.Search, u.Name, u.Email) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update reemplaza nombre, email, rol y estado. Degradar o desactivar al
// último ADMIN activo devuelve domain.ErrLastAdmin.
func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	newKey, oldKey := emailKey(u.Email), emailKey(cur.Email)
	if newKey != oldKey {
		if _, taken := r.s.emails[newKey]; taken {
			return &domain.ConflictError{Entity: "usuario", Field: "email", Value: u.Email}
		}
	}
	if r.s.isLastActiveAdmin(cur) && (u.Role != entity.RoleAdmin || u.Status != entity.StatusActivo) {
		return domain.ErrLastAdmin
	}
	delete(r.s.emails, oldKey)
	r.s.emails[newKey] = u.ID
	cur.Email = u.Email
	cur.Name = u.Name
	cur.Role = u.Role
	cur.Status = u.Status
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) TouchLastAccess(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	u.LastAccess = &t
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.s.isLastActiveAdmin(u) {
		return domain.ErrLastAdmin
	}
	delete(r.s.emails, emailKey(u.Email))
	delete(r.s.users, id)
	return nil
}

func (s *Store) isLastActiveAdmin(u *entity.User) bool {
	if u.Role != entity.RoleAdmin || u.Status != entity.StatusActivo {
		return false
	}
	for _, other := range s.users {
		if other.ID != u.ID && other.Role == entity.RoleAdmin && other.Status == entity.StatusActivo {
			return false
		}
	}
	return true
}
