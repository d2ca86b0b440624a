package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "ADMIN"
	RoleCashier    = "CASHIER"
	RoleSupervisor = "SUPERVISOR"
)

// ValidRole indica si el rol existe.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleCashier || r == RoleSupervisor
}

// User representa un usuario de la consola.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string
	Status       string // ACTIVO, INACTIVO
	LastAccess   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active indica si el usuario puede operar.
func (u *User) Active() bool { return u.Status == StatusActivo }

// UserFilter criterios de listado de usuarios.
type UserFilter struct {
	Search string
	Role   string
	Status string
}
