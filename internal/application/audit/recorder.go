// Package audit registra y consulta eventos de auditoría.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/logger"
)

// Recorder puerto que usan los casos de uso para dejar rastro de sus operaciones.
// Record nunca falla hacia el llamador: un error de escritura no revierte la operación de negocio.
type Recorder interface {
	Record(ctx context.Context, actor entity.Actor, action, entityName, details string)
}

// FailureCounter contabiliza escrituras de auditoría fallidas.
type FailureCounter interface {
	AuditWriteFailed()
}

// Service implementa Recorder y la consulta de auditoría.
type Service struct {
	repo     repository.AuditRepository
	log      *logger.Logger
	failures FailureCounter
}

// NewService construye el servicio. failures puede ser nil.
func NewService(repo repository.AuditRepository, log *logger.Logger, failures FailureCounter) *Service {
	return &Service{repo: repo, log: log, failures: failures}
}

// Record agrega un registro con id y fecha asignados aquí.
func (s *Service) Record(ctx context.Context, actor entity.Actor, action, entityName, details string) {
	rec := &entity.AuditRecord{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		Action:    action,
		Entity:    entityName,
		Details:   details,
		IP:        actor.IP,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Append(context.WithoutCancel(ctx), rec); err != nil {
		if s.failures != nil {
			s.failures.AuditWriteFailed()
		}
		if s.log != nil {
			s.log.Error().Err(err).
				Str("user_id", actor.UserID).
				Str("action", action).
				Str("entity", entityName).
				Msg("no se pudo escribir el registro de auditoría")
		}
	}
}

// Create registra un evento enviado por la consola (p. ej. VIEW).
func (s *Service) Create(ctx context.Context, actor entity.Actor, action, entityName, details string) (*entity.AuditRecord, error) {
	action = strings.ToUpper(strings.TrimSpace(action))
	if !entity.ValidAuditAction(action) {
		return nil, domain.Invalid("accion", "acción de auditoría desconocida")
	}
	if strings.TrimSpace(entityName) == "" {
		return nil, domain.Invalid("entidad", "es obligatoria")
	}
	rec := &entity.AuditRecord{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		Action:    action,
		Entity:    strings.TrimSpace(entityName),
		Details:   details,
		IP:        actor.IP,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List devuelve los registros filtrados, más recientes primero.
func (s *Service) List(ctx context.Context, f entity.AuditFilter) ([]*entity.AuditRecord, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, domain.Invalid("fechaInicio", "no puede ser posterior a fechaFin")
	}
	if f.Action != "" {
		f.Action = strings.ToUpper(f.Action)
	}
	return s.repo.List(ctx, f)
}

// Nop Recorder que descarta todo; útil en tests.
type Nop struct{}

func (Nop) Record(context.Context, entity.Actor, string, string, string) {}
