package dto

import (
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// InvoiceResponse intento de emisión (DTE) en respuestas.
type InvoiceResponse struct {
	ID              string     `json:"id"`
	SaleID          string     `json:"saleId"`
	EstadoAutoridad string     `json:"estadoAutoridad"`
	DocumentoXML    string     `json:"documentoXml"`
	CodigoControl   string     `json:"codigoControl"`
	Mensajes        []string   `json:"mensajes"`
	TrackID         string     `json:"trackId,omitempty"`
	PDFURL          string     `json:"pdfUrl"`
	FechaCreacion   time.Time  `json:"fechaCreacion"`
	FechaRespuesta  *time.Time `json:"fechaRespuesta,omitempty"`
}

// InvoiceEnvelope respuesta {dte: ...} de emisión y consulta por venta.
type InvoiceEnvelope struct {
	DTE InvoiceResponse `json:"dte"`
}

// InvoiceDetailResponse DTE con la venta y el cliente (listado general).
type InvoiceDetailResponse struct {
	InvoiceResponse
	Venta   *SaleResponse   `json:"venta,omitempty"`
	Cliente *ClientResponse `json:"cliente,omitempty"`
}

// InvoiceListResponse lista de DTEs.
type InvoiceListResponse struct {
	DTEs []InvoiceDetailResponse `json:"dtes"`
}

// FromInvoice mapea el intento de emisión.
func FromInvoice(inv *entity.Invoice) InvoiceResponse {
	msgs := inv.Messages
	if msgs == nil {
		msgs = []string{}
	}
	return InvoiceResponse{
		ID:              inv.ID,
		SaleID:          inv.SaleID,
		EstadoAutoridad: inv.AuthorityStatus,
		DocumentoXML:    inv.DocumentXML,
		CodigoControl:   inv.ControlCode,
		Mensajes:        msgs,
		TrackID:         inv.TrackID,
		PDFURL:          "/api/dte/" + inv.ID + "/pdf",
		FechaCreacion:   inv.CreatedAt,
		FechaRespuesta:  inv.RespondedAt,
	}
}
