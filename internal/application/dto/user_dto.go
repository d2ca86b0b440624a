package dto

import (
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Rol      string `json:"rol"`
	Estado   string `json:"estado,omitempty"`
}

// UpdateUserRequest body para PUT /api/usuarios/:id.
type UpdateUserRequest struct {
	Nombre *string `json:"nombre,omitempty"`
	Email  *string `json:"email,omitempty"`
	Rol    *string `json:"rol,omitempty"`
	Estado *string `json:"estado,omitempty"`
}

// ChangePasswordRequest body para POST /api/usuarios/:id/cambiar-password.
// PasswordActual es obligatoria cuando el usuario cambia su propia contraseña.
type ChangePasswordRequest struct {
	PasswordActual string `json:"passwordActual,omitempty"`
	PasswordNuevo  string `json:"passwordNuevo"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID            string     `json:"id"`
	Nombre        string     `json:"nombre"`
	Email         string     `json:"email"`
	Rol           string     `json:"rol"`
	Estado        string     `json:"estado"`
	UltimoAcceso  *time.Time `json:"ultimoAcceso,omitempty"`
	FechaCreacion time.Time  `json:"fechaCreacion"`
}

// UserListResponse lista de usuarios.
type UserListResponse struct {
	Usuarios []UserResponse `json:"usuarios"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// FromUser mapea el usuario sin exponer el hash.
func FromUser(u *entity.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Nombre:        u.Name,
		Email:         u.Email,
		Rol:           u.Role,
		Estado:        u.Status,
		UltimoAcceso:  u.LastAccess,
		FechaCreacion: u.CreatedAt,
	}
}
