package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
)

type failingRepo struct{}

func (failingRepo) Append(context.Context, *entity.AuditRecord) error { return errors.New("disco lleno") }
func (failingRepo) List(context.Context, entity.AuditFilter) ([]*entity.AuditRecord, error) {
	return nil, nil
}

type countingFailures struct{ n int }

func (c *countingFailures) AuditWriteFailed() { c.n++ }

func TestRecord_AsignaIDYFecha(t *testing.T) {
	repo := memory.NewAuditRepository(memory.NewStore())
	svc := audit.NewService(repo, nil, nil)
	actor := entity.Actor{UserID: "u1", IP: "10.0.0.1"}

	before := time.Now().UTC()
	svc.Record(context.Background(), actor, entity.AuditCreate, "venta", "V-000001")

	list, err := svc.List(context.Background(), entity.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].ID)
	assert.Equal(t, "10.0.0.1", list[0].IP)
	assert.False(t, list[0].CreatedAt.Before(before))
}

func TestRecord_FalloNoPropagaYSeCuenta(t *testing.T) {
	failures := &countingFailures{}
	svc := audit.NewService(failingRepo{}, nil, failures)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), entity.Actor{UserID: "u1"}, entity.AuditDelete, "cliente", "c1")
	})
	assert.Equal(t, 1, failures.n)
}

func TestCreate_AccionDesconocidaEsValidacion(t *testing.T) {
	svc := audit.NewService(memory.NewAuditRepository(memory.NewStore()), nil, nil)
	_, err := svc.Create(context.Background(), entity.Actor{UserID: "u1"}, "BORRAR_TODO", "venta", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	rec, err := svc.Create(context.Background(), entity.Actor{UserID: "u1"}, "view", "reporte", "ventas del día")
	require.NoError(t, err)
	assert.Equal(t, entity.AuditView, rec.Action)
}

func TestList_RangoInvertidoEsValidacion(t *testing.T) {
	svc := audit.NewService(memory.NewAuditRepository(memory.NewStore()), nil, nil)
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err := svc.List(context.Background(), entity.AuditFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestList_FiltraPorEntidadYUsuario(t *testing.T) {
	svc := audit.NewService(memory.NewAuditRepository(memory.NewStore()), nil, nil)
	ctx := context.Background()
	svc.Record(ctx, entity.Actor{UserID: "u1"}, entity.AuditCreate, "venta", "")
	svc.Record(ctx, entity.Actor{UserID: "u2"}, entity.AuditCreate, "venta", "")
	svc.Record(ctx, entity.Actor{UserID: "u1"}, entity.AuditDelete, "cliente", "")

	list, err := svc.List(ctx, entity.AuditFilter{UserID: "u1", Entity: "venta"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.AuditCreate, list[0].Action)
}
