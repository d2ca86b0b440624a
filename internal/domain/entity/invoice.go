package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/billy-api/internal/domain"
)

// Estados de la autoridad tributaria para un intento de emisión.
const (
	AuthorityStatusAceptado  = "ACEPTADO"
	AuthorityStatusRechazado = "RECHAZADO"
	AuthorityStatusPendiente = "PENDIENTE" // sin respuesta: error de transporte o timeout
)

// Invoice un intento de emisión del DTE de una venta. Nunca se modifica:
// cada reintento crea un registro nuevo.
type Invoice struct {
	ID              string
	SaleID          string
	AuthorityStatus string
	DocumentXML     string // documento tal como se envió a la autoridad
	ControlCode     string // SHA-384 de los campos clave del documento
	Receiver        Receiver
	Messages        []string
	TrackID         string
	CreatedAt       time.Time
	RespondedAt     *time.Time
}

// Accepted indica si la autoridad aceptó el documento.
func (i *Invoice) Accepted() bool {
	return i.AuthorityStatus == AuthorityStatusAceptado
}

// Err traduce el veredicto en error: nil si ACEPTADO, domain.ErrAuthorityRejected
// si RECHAZADO y domain.ErrAuthorityUnavailable si quedó PENDIENTE.
func (i *Invoice) Err() error {
	var base error
	switch i.AuthorityStatus {
	case AuthorityStatusAceptado:
		return nil
	case AuthorityStatusRechazado:
		base = domain.ErrAuthorityRejected
	default:
		base = domain.ErrAuthorityUnavailable
	}
	if len(i.Messages) == 0 {
		return base
	}
	return fmt.Errorf("%w: %s", base, strings.Join(i.Messages, "; "))
}

// Receiver datos del receptor tal como quedaron en el documento emitido.
type Receiver struct {
	NIT     string `json:"nit"`
	NRC     string `json:"nrc"`
	Name    string `json:"nombre"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
	Email   string `json:"email"`
}

// ReceiverOf copia los datos del cliente que se imprimen en el DTE.
func ReceiverOf(c *Client) Receiver {
	return Receiver{NIT: c.NIT, NRC: c.NRC, Name: c.Name, Address: c.Address, Phone: c.Phone, Email: c.Email}
}

// IsZero indica un intento registrado sin copia del receptor.
func (r Receiver) IsZero() bool {
	return r == Receiver{}
}

// Client representación del receptor como cliente, solo para imprimir.
func (r Receiver) Client() *Client {
	return &Client{NIT: r.NIT, NRC: r.NRC, Name: r.Name, Address: r.Address, Phone: r.Phone, Email: r.Email}
}

// InvoiceFilter criterios de listado de DTEs.
type InvoiceFilter struct {
	AuthorityStatus string
	SaleID          string
}
