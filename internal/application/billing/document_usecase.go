package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// DocumentUseCase descarga el XML de cualquier intento y el PDF de los DTE aceptados.
type DocumentUseCase struct {
	query     *InvoiceQuery
	generator PDFGenerator
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(query *InvoiceQuery, generator PDFGenerator) *DocumentUseCase {
	return &DocumentUseCase{query: query, generator: generator}
}

// DownloadInvoicePDF genera el PDF del DTE.
//
// Retorna:
//   - (pdfBytes, filename, nil)     si todo sale bien.
//   - *domain.NotFoundError         si el DTE no existe.
//   - *domain.InvalidStateError     si la autoridad no lo aceptó.
func (uc *DocumentUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	v, err := uc.query.Get(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if !v.Invoice.Accepted() {
		return nil, "", &domain.InvalidStateError{Entity: "dte", Current: v.Invoice.AuthorityStatus, Op: "generar PDF"}
	}
	// El receptor impreso es el del documento emitido, no el cliente actual.
	client := v.Client
	if !v.Invoice.Receiver.IsZero() {
		client = v.Invoice.Receiver.Client()
	}
	if v.Sale == nil || client == nil {
		return nil, "", fmt.Errorf("pdf: venta o cliente del DTE %s inexistente", invoiceID)
	}
	pdfBytes, err = uc.generator.Generate(ctx, PDFInput{Invoice: v.Invoice, Sale: v.Sale, Client: client})
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("dte_%s.pdf", v.Sale.Number), nil
}

// DownloadInvoiceXML documento tal como se envió a la autoridad.
func (uc *DocumentUseCase) DownloadInvoiceXML(ctx context.Context, invoiceID string) ([]byte, string, error) {
	v, err := uc.query.Get(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	name := "dte_" + v.Invoice.ID + ".xml"
	if v.Sale != nil {
		name = fmt.Sprintf("dte_%s_%s.xml", v.Sale.Number, statusSuffix(v.Invoice))
	}
	return []byte(v.Invoice.DocumentXML), name, nil
}

func statusSuffix(inv *entity.Invoice) string {
	return map[string]string{
		entity.AuthorityStatusAceptado:  "aceptado",
		entity.AuthorityStatusRechazado: "rechazado",
		entity.AuthorityStatusPendiente: "pendiente",
	}[inv.AuthorityStatus]
}
