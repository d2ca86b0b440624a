package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/dte"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
	"github.com/jhoicas/billy-api/pkg/keylock"
	"github.com/jhoicas/billy-api/pkg/logger"
)

// Resultados de un intento de emisión (etiqueta de métricas).
const (
	OutcomeAccepted    = "accepted"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// DefaultAuthorityTimeout límite de la llamada a la autoridad cuando no se configura.
const DefaultAuthorityTimeout = 30 * time.Second

// IssuanceConfig parámetros de la emisión.
type IssuanceConfig struct {
	Emitter          dte.Emitter
	AuthorityTimeout time.Duration
}

// IssuanceDeps dependencias del servicio. Signer, Archive y Metrics son opcionales.
type IssuanceDeps struct {
	Sales     repository.SaleRepository
	Clients   repository.ClientRepository
	Invoices  repository.InvoiceRepository
	Tx        IssuanceTxRunner
	Locks     *keylock.Locker
	Renderer  DocumentRenderer
	Signer    DocumentSigner
	Authority TaxAuthority
	Archive   DocumentArchive
	Audit     audit.Recorder
	Metrics   Metrics
	Log       *logger.Logger
}

// IssuanceService emite el DTE de una venta contra la autoridad tributaria.
//
//	PENDIENTE ──(aceptado)──▶ FACTURADA
//	PENDIENTE ──(rechazado / sin respuesta)──▶ PENDIENTE (reintentable)
//
// Cada intento que llega a la autoridad deja exactamente un registro de DTE.
type IssuanceService struct {
	IssuanceDeps
	cfg   IssuanceConfig
	codes *dte.ControlCodeCalculator
	now   func() time.Time
}

// NewIssuanceService construye el servicio.
func NewIssuanceService(deps IssuanceDeps, cfg IssuanceConfig) *IssuanceService {
	if cfg.AuthorityTimeout <= 0 {
		cfg.AuthorityTimeout = DefaultAuthorityTimeout
	}
	if deps.Locks == nil {
		deps.Locks = keylock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	return &IssuanceService{
		IssuanceDeps: deps,
		cfg:          cfg,
		codes:        dte.NewControlCodeCalculator(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj (tests).
func (s *IssuanceService) WithClock(now func() time.Time) *IssuanceService {
	s.now = now
	return s
}

// IssueResult intento registrado junto con la venta y el cliente.
type IssueResult struct {
	Invoice *entity.Invoice
	Sale    *entity.Sale
	Client  *entity.Client
}

// IssueInvoice emite el DTE de la venta.
//
// Retorna:
//   - *domain.NotFoundError        si la venta o su cliente no existen.
//   - *domain.InvalidStateError    si la venta no está PENDIENTE.
//   - *domain.ValidationError      si la venta no permite construir el documento.
//   - (result, nil)                con el DTE ACEPTADO, RECHAZADO o PENDIENTE (sin respuesta).
func (s *IssuanceService) IssueInvoice(ctx context.Context, saleID string, actor entity.Actor) (*IssueResult, error) {
	unlock, err := s.Locks.Lock(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("emisión: esperando la venta %s: %w", saleID, err)
	}
	defer unlock()

	// ── 1. Venta y estado ─────────────────────────────────────────────────────
	sale, err := s.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("emisión: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "venta", Msg: "Venta no encontrada"}
	}
	if sale.Status != entity.SaleStatusPendiente {
		return nil, &domain.InvalidStateError{Entity: "venta", Current: sale.Status, Op: "emitir DTE"}
	}

	// ── 2. Cliente ────────────────────────────────────────────────────────────
	client, err := s.Clients.GetByID(ctx, sale.ClientID)
	if err != nil {
		return nil, fmt.Errorf("emisión: obtener cliente: %w", err)
	}
	if client == nil {
		return nil, &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
	}
	if err := dte.ValidateSale(sale, client); err != nil {
		return nil, domain.Invalid("venta", err.Error())
	}

	// ── 3. Documento ──────────────────────────────────────────────────────────
	issuedAt := s.now()
	code, err := s.codes.Calculate(&dte.ControlCodeParams{
		SaleNumber:  sale.Number,
		IssueDate:   issuedAt.Format("2006-01-02"),
		Subtotal:    sale.Subtotal,
		TaxTotal:    sale.TaxTotal,
		Total:       sale.Total,
		EmitterNIT:  s.cfg.Emitter.NIT,
		ReceiverID:  receiverID(client),
		Environment: s.cfg.Emitter.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("emisión: código de control: %w", err)
	}
	xmlBytes, err := s.Renderer.Render(RenderInput{Sale: sale, Client: client, IssuedAt: issuedAt, ControlCode: code})
	if err != nil {
		return nil, fmt.Errorf("emisión: renderizar documento: %w", err)
	}
	if s.Signer != nil {
		if xmlBytes, err = s.Signer.Sign(xmlBytes); err != nil {
			return nil, fmt.Errorf("emisión: firmar documento: %w", err)
		}
	}

	// ── 4. Autoridad ──────────────────────────────────────────────────────────
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AuthorityTimeout)
	start := time.Now()
	resp, subErr := s.Authority.Submit(callCtx, Document{Filename: sale.Number + ".xml", XML: xmlBytes})
	cancel()
	elapsed := time.Since(start)

	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		SaleID:      sale.ID,
		DocumentXML: string(xmlBytes),
		ControlCode: code,
		Receiver:    entity.ReceiverOf(client),
		CreatedAt:   issuedAt,
	}
	respondedAt := s.now()
	outcome := applyVerdict(inv, resp, subErr, respondedAt)

	// ── 5. Persistir el intento ───────────────────────────────────────────────
	// El intento ya ocurrió: se registra aunque el cliente HTTP haya cancelado.
	persistCtx := context.WithoutCancel(ctx)
	err = s.Tx.RunIssuance(persistCtx, func(sales repository.SaleRepository, invoices repository.InvoiceRepository) error {
		if inv.Accepted() {
			if err := sales.TransitionStatus(persistCtx, sale.ID, entity.SaleStatusPendiente, entity.SaleStatusFacturada, respondedAt); err != nil {
				return err
			}
		}
		return invoices.Create(persistCtx, inv)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("emisión: persistir intento: %w", err)
	}
	if inv.Accepted() {
		sale.Status = entity.SaleStatusFacturada
		sale.UpdatedAt = respondedAt
		s.archive(persistCtx, sale, xmlBytes)
	}

	s.Metrics.ObserveIssuance(outcome, elapsed)
	if s.Log != nil {
		ev := s.Log.Info()
		switch outcome {
		case OutcomeUnavailable:
			ev = s.Log.Warn().Err(subErr)
		case OutcomeRejected:
			ev = ev.Err(inv.Err())
		}
		ev.Str("sale_id", sale.ID).
			Str("numero", sale.Number).
			Str("invoice_id", inv.ID).
			Str("estado_autoridad", inv.AuthorityStatus).
			Dur("latency", elapsed).
			Msg("intento de emisión registrado")
	}
	s.Audit.Record(ctx, actor, entity.AuditCreate, "dte",
		fmt.Sprintf("DTE %s para venta %s: %s", inv.ID, sale.Number, inv.AuthorityStatus))

	return &IssueResult{Invoice: inv, Sale: sale, Client: client}, nil
}

// applyVerdict completa el intento con la respuesta de la autoridad.
func applyVerdict(inv *entity.Invoice, resp *AuthorityResponse, subErr error, at time.Time) string {
	switch {
	case subErr != nil || resp == nil:
		inv.AuthorityStatus = entity.AuthorityStatusPendiente
		msg := "sin respuesta de la autoridad"
		if subErr != nil {
			msg = fmt.Sprintf("%s: %v", msg, subErr)
		}
		inv.Messages = []string{msg}
		return OutcomeUnavailable
	case resp.Accepted:
		inv.AuthorityStatus = entity.AuthorityStatusAceptado
	default:
		inv.AuthorityStatus = entity.AuthorityStatusRechazado
	}
	inv.Messages = append([]string(nil), resp.Messages...)
	inv.TrackID = resp.TrackID
	inv.RespondedAt = &at
	if resp.Accepted {
		return OutcomeAccepted
	}
	return OutcomeRejected
}

func (s *IssuanceService) archive(ctx context.Context, sale *entity.Sale, xmlBytes []byte) {
	if s.Archive == nil {
		return
	}
	key := fmt.Sprintf("dte/%s/%s.xml", sale.Date.Format("2006/01"), sale.Number)
	if err := s.Archive.Put(ctx, key, xmlBytes, "application/xml"); err != nil {
		s.Metrics.ArchiveFailed()
		if s.Log != nil {
			s.Log.Error().Err(err).Str("sale_id", sale.ID).Str("key", key).Msg("no se pudo archivar el DTE")
		}
	}
}

// receiverID NIT del receptor o, en su defecto, NRC.
func receiverID(c *entity.Client) string {
	if c.NIT != "" {
		return c.NIT
	}
	return c.NRC
}
