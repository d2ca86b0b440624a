package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// AuditHandler consulta y registro de eventos de auditoría.
type AuditHandler struct {
	svc *audit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar evento de la consola
// @Tags         auditoria
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAuditRequest  true  "accion, entidad, detalles"
// @Success      201   {object}  dto.AuditResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auditoria [post]
func (h *AuditHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAuditRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	rec, err := h.svc.Create(c.UserContext(), actorFrom(c), in.Accion, in.Entidad, in.Detalles)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAudit(rec))
}

// List godoc
// @Summary      Consultar auditoría
// @Tags         auditoria
// @Security     Bearer
// @Produce      json
// @Param        usuarioId    query  string  false  "ID del usuario"
// @Param        accion       query  string  false  "LOGIN | LOGOUT | LOGIN_FAILED | CREATE | UPDATE | DELETE | VIEW"
// @Param        entidad      query  string  false  "Entidad"
// @Param        fechaInicio  query  string  false  "RFC3339 o YYYY-MM-DD (inclusivo)"
// @Param        fechaFin     query  string  false  "RFC3339 o YYYY-MM-DD (inclusivo)"
// @Success      200  {object}  dto.AuditListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/auditoria [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.AuditQuery
	if err := c.QueryParser(&q); err != nil {
		return respond(c, fiber.StatusBadRequest, "VALIDATION", "parámetros inválidos")
	}
	from, err := parseDate("fechaInicio", q.FechaInicio, false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseDate("fechaFin", q.FechaFin, true)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.svc.List(c.UserContext(), entity.AuditFilter{
		UserID: q.UsuarioID,
		Action: q.Accion,
		Entity: q.Entidad,
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AuditListResponse{Logs: make([]dto.AuditResponse, 0, len(list))}
	for _, r := range list {
		out.Logs = append(out.Logs, dto.FromAudit(r))
	}
	return c.JSON(out)
}

// parseDate acepta RFC3339 o YYYY-MM-DD; con endOfDay una fecha sin hora cubre el día completo.
func parseDate(field, s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, domain.Invalid(field, "formato de fecha inválido")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
