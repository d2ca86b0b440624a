package dte

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billy-api/internal/application/billing"
)

// SimulatedConfig parámetros de la autoridad simulada.
type SimulatedConfig struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	AcceptRate float64 // 0..1
}

// DefaultSimulatedConfig 2 a 5 segundos de latencia y 90 % de aceptación.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{MinDelay: 2 * time.Second, MaxDelay: 5 * time.Second, AcceptRate: 0.9}
}

// SimulatedAuthority autoridad de desarrollo: responde tras una demora aleatoria
// y acepta con probabilidad AcceptRate. Respeta la cancelación del contexto.
type SimulatedAuthority struct {
	cfg   SimulatedConfig
	float func() float64
}

var _ billing.TaxAuthority = (*SimulatedAuthority)(nil)

// NewSimulatedAuthority crea la autoridad simulada.
func NewSimulatedAuthority(cfg SimulatedConfig) *SimulatedAuthority {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &SimulatedAuthority{cfg: cfg, float: rand.Float64}
}

// WithRand reemplaza la fuente aleatoria (tests).
func (a *SimulatedAuthority) WithRand(f func() float64) *SimulatedAuthority {
	a.float = f
	return a
}

// Submit espera la demora simulada y emite el veredicto.
func (a *SimulatedAuthority) Submit(ctx context.Context, doc billing.Document) (*billing.AuthorityResponse, error) {
	delay := a.cfg.MinDelay
	if span := a.cfg.MaxDelay - a.cfg.MinDelay; span > 0 {
		delay += time.Duration(a.float() * float64(span))
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if a.float() < a.cfg.AcceptRate {
		return &billing.AuthorityResponse{
			Accepted: true,
			Messages: []string{"Documento aceptado por DGII", "Procesamiento exitoso"},
			TrackID:  uuid.NewString(),
		}, nil
	}
	return &billing.AuthorityResponse{
		Accepted: false,
		Messages: []string{"Error en validación de datos", "Revisar información del cliente"},
	}, nil
}
