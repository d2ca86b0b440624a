package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// minPasswordLen longitud mínima de contraseña.
const minPasswordLen = 8

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo  repository.UserRepository
	audit audit.Recorder
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, rec audit.Recorder) *UserUseCase {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &UserUseCase{repo: repo, audit: rec}
}

func validateUser(u *entity.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return domain.Invalid("nombre", "es obligatorio")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return domain.Invalid("email", "formato inválido")
	}
	if !entity.ValidRole(u.Role) {
		return domain.Invalid("rol", "debe ser ADMIN, CASHIER o SUPERVISOR")
	}
	if u.Status != entity.StatusActivo && u.Status != entity.StatusInactivo {
		return domain.Invalid("estado", "debe ser ACTIVO o INACTIVO")
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", domain.Invalid("password", fmt.Sprintf("debe tener al menos %d caracteres", minPasswordLen))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Create crea un usuario: hashea password con bcrypt y persiste. ConflictError si el email existe.
func (uc *UserUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	now := time.Now().UTC()
	user := &entity.User{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Name:      strings.TrimSpace(in.Nombre),
		Role:      strings.ToUpper(strings.TrimSpace(in.Rol)),
		Status:    in.Estado,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Status == "" {
		user.Status = entity.StatusActivo
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditCreate, "usuario", fmt.Sprintf("Usuario %s (%s) creado", user.Email, user.Role))
	out := dto.FromUser(user)
	return &out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "usuario", Msg: "Usuario no encontrado"}
	}
	out := dto.FromUser(user)
	return &out, nil
}

// List usuarios filtrados por búsqueda, rol y estado.
func (uc *UserUseCase) List(ctx context.Context, f entity.UserFilter) (*dto.UserListResponse, error) {
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, dto.FromUser(u))
	}
	return &dto.UserListResponse{Usuarios: out}, nil
}

// Update modifica nombre, email, rol o estado. El último ADMIN activo no puede perder el rol.
func (uc *UserUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "usuario", Msg: "Usuario no encontrado"}
	}
	if in.Nombre != nil {
		user.Name = strings.TrimSpace(*in.Nombre)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Rol != nil {
		user.Role = strings.ToUpper(strings.TrimSpace(*in.Rol))
	}
	if in.Estado != nil {
		user.Status = *in.Estado
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditUpdate, "usuario", "Usuario "+user.Email+" actualizado")
	out := dto.FromUser(user)
	return &out, nil
}

// Delete elimina un usuario. Nadie puede eliminarse a sí mismo ni al último ADMIN activo.
func (uc *UserUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	if id == actor.UserID {
		return domain.Invalid("id", "no puede eliminar su propio usuario")
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Entity: "usuario", Msg: "Usuario no encontrado"}
		}
		return err
	}
	uc.audit.Record(ctx, actor, entity.AuditDelete, "usuario", "Usuario "+id+" eliminado")
	return nil
}

// ChangePassword cambia la contraseña. El propio usuario debe enviar la actual;
// un ADMIN puede cambiar la de otro sin ella.
func (uc *UserUseCase) ChangePassword(ctx context.Context, actor entity.Actor, id string, in dto.ChangePasswordRequest) error {
	self := actor.UserID == id
	if !self && actor.Role != entity.RoleAdmin {
		return domain.ErrForbidden
	}
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return &domain.NotFoundError{Entity: "usuario", Msg: "Usuario no encontrado"}
	}
	if self {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.PasswordActual)) != nil {
			return domain.Invalid("passwordActual", "la contraseña actual no es correcta")
		}
	}
	hash, err := hashPassword(in.PasswordNuevo)
	if err != nil {
		return err
	}
	if err := uc.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	uc.audit.Record(ctx, actor, entity.AuditUpdate, "usuario", "Contraseña actualizada para "+user.Email)
	return nil
}
