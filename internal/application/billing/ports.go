package billing

import (
	"context"
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// IssuanceTxRunner ejecuta fn en una unidad de trabajo con los repos de ventas y DTE.
// Si fn devuelve error nada de lo escrito dentro persiste.
type IssuanceTxRunner interface {
	RunIssuance(ctx context.Context, fn func(
		sales repository.SaleRepository,
		invoices repository.InvoiceRepository,
	) error) error
}

// Document documento listo para enviar a la autoridad.
type Document struct {
	Filename string
	XML      []byte
}

// AuthorityResponse veredicto de la autoridad tributaria.
type AuthorityResponse struct {
	Accepted bool
	Messages []string
	TrackID  string
}

// TaxAuthority servicio externo que acepta o rechaza documentos.
// Un error significa que no hubo veredicto (transporte, timeout).
type TaxAuthority interface {
	Submit(ctx context.Context, doc Document) (*AuthorityResponse, error)
}

// RenderInput datos del documento. El renderizado es determinista sobre estos campos.
type RenderInput struct {
	Sale        *entity.Sale
	Client      *entity.Client
	IssuedAt    time.Time
	ControlCode string
}

// DocumentRenderer construye el XML del DTE.
type DocumentRenderer interface {
	Render(in RenderInput) ([]byte, error)
}

// DocumentSigner firma el XML (firma XML enveloped).
type DocumentSigner interface {
	Sign(xml []byte) ([]byte, error)
}

// DocumentArchive almacén de documentos aceptados.
type DocumentArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// PDFInput datos de la representación gráfica.
type PDFInput struct {
	Invoice *entity.Invoice
	Sale    *entity.Sale
	Client  *entity.Client
}

// PDFGenerator genera la representación gráfica de un DTE.
type PDFGenerator interface {
	Generate(ctx context.Context, in PDFInput) ([]byte, error)
}

// Metrics observador de intentos de emisión.
type Metrics interface {
	ObserveIssuance(outcome string, elapsed time.Duration)
	ArchiveFailed()
}

type nopMetrics struct{}

func (nopMetrics) ObserveIssuance(string, time.Duration) {}
func (nopMetrics) ArchiveFailed()                        {}
