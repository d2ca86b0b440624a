package entity

import "time"

// Acciones auditables.
const (
	AuditLogin       = "LOGIN"
	AuditLogout      = "LOGOUT"
	AuditLoginFailed = "LOGIN_FAILED"
	AuditCreate      = "CREATE"
	AuditUpdate      = "UPDATE"
	AuditDelete      = "DELETE"
	AuditView        = "VIEW"
)

// ValidAuditAction indica si la acción pertenece al catálogo.
func ValidAuditAction(a string) bool {
	switch a {
	case AuditLogin, AuditLogout, AuditLoginFailed, AuditCreate, AuditUpdate, AuditDelete, AuditView:
		return true
	}
	return false
}

// AuditRecord evento de auditoría, solo se agrega.
type AuditRecord struct {
	ID        string
	UserID    string
	Action    string
	Entity    string
	Details   string
	IP        string
	CreatedAt time.Time
}

// AuditFilter criterios de consulta; From y To son inclusivos.
type AuditFilter struct {
	UserID string
	Action string
	Entity string
	From   *time.Time
	To     *time.Time
}

// Matches evalúa el filtro sobre un registro.
func (f AuditFilter) Matches(r *AuditRecord) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Action != "" && r.Action != f.Action {
		return false
	}
	if f.Entity != "" && r.Entity != f.Entity {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Actor usuario que ejecuta una operación (para atribución en auditoría).
type Actor struct {
	UserID string
	Role   string
	IP     string
}
