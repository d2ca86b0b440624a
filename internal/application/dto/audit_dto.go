package dto

import (
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// CreateAuditRequest body para POST /api/auditoria (eventos de consulta de la consola).
type CreateAuditRequest struct {
	Accion   string `json:"accion"`
	Entidad  string `json:"entidad"`
	Detalles string `json:"detalles"`
}

// AuditQuery filtros de GET /api/auditoria; fechas en RFC3339 o YYYY-MM-DD.
type AuditQuery struct {
	UsuarioID   string `query:"usuarioId"`
	Accion      string `query:"accion"`
	Entidad     string `query:"entidad"`
	FechaInicio string `query:"fechaInicio"`
	FechaFin    string `query:"fechaFin"`
}

// AuditResponse registro de auditoría en respuestas.
type AuditResponse struct {
	ID            string    `json:"id"`
	UsuarioID     string    `json:"usuarioId"`
	Accion        string    `json:"accion"`
	Entidad       string    `json:"entidad"`
	Detalles      string    `json:"detalles"`
	IP            string    `json:"ip"`
	FechaCreacion time.Time `json:"fechaCreacion"`
}

// AuditListResponse lista de registros.
type AuditListResponse struct {
	Logs []AuditResponse `json:"logs"`
}

// FromAudit mapea el registro.
func FromAudit(r *entity.AuditRecord) AuditResponse {
	return AuditResponse{
		ID:            r.ID,
		UsuarioID:     r.UserID,
		Accion:        r.Action,
		Entidad:       r.Entity,
		Detalles:      r.Details,
		IP:            r.IP,
		FechaCreacion: r.CreatedAt,
	}
}
