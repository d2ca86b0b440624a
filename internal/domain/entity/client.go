package entity

import "time"

// Perfiles fiscales del cliente.
const (
	FiscalProfileResponsableIVA = "RESPONSABLE_IVA"
	FiscalProfileExento         = "EXENTO"
	FiscalProfilePercepcion     = "PERCEPCION"
)

// Client representa un cliente (receptor del DTE).
type Client struct {
	ID            string
	NIT           string // opcional, único cuando no está vacío
	NRC           string // opcional, único cuando no está vacío
	Name          string
	Address       string
	Phone         string
	Email         string
	FiscalProfile string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ClientFilter criterios de listado de clientes.
type ClientFilter struct {
	Search        string
	FiscalProfile string
	Status        string
}

// Nombres de campo expuestos al exterior; RestrictedFieldError los usa.
const (
	ClientFieldNIT           = "nit"
	ClientFieldNRC           = "nrc"
	ClientFieldName          = "nombre"
	ClientFieldAddress       = "direccion"
	ClientFieldPhone         = "telefono"
	ClientFieldEmail         = "email"
	ClientFieldFiscalProfile = "perfilFiscal"
	ClientFieldStatus        = "estado"
)

// InvoicedClientMutableFields campos editables cuando el cliente ya tiene ventas facturadas.
var InvoicedClientMutableFields = map[string]bool{
	ClientFieldPhone:   true,
	ClientFieldEmail:   true,
	ClientFieldAddress: true,
}

// ClientPatch campos opcionales para actualizar un cliente; nil = no tocado.
type ClientPatch struct {
	NIT           *string
	NRC           *string
	Name          *string
	Address       *string
	Phone         *string
	Email         *string
	FiscalProfile *string
	Status        *string
}

// Touched devuelve los nombres de los campos presentes en el patch, en orden estable.
func (p ClientPatch) Touched() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.NIT != nil, ClientFieldNIT)
	add(p.NRC != nil, ClientFieldNRC)
	add(p.Name != nil, ClientFieldName)
	add(p.Address != nil, ClientFieldAddress)
	add(p.Phone != nil, ClientFieldPhone)
	add(p.Email != nil, ClientFieldEmail)
	add(p.FiscalProfile != nil, ClientFieldFiscalProfile)
	add(p.Status != nil, ClientFieldStatus)
	return out
}

// RestrictedFields campos tocados que no se permiten en un cliente ya facturado.
func (p ClientPatch) RestrictedFields() []string {
	var out []string
	for _, f := range p.Touched() {
		if !InvoicedClientMutableFields[f] {
			out = append(out, f)
		}
	}
	return out
}

// Apply aplica el patch sobre una copia del cliente.
func (p ClientPatch) Apply(c Client) Client {
	if p.NIT != nil {
		c.NIT = *p.NIT
	}
	if p.NRC != nil {
		c.NRC = *p.NRC
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.FiscalProfile != nil {
		c.FiscalProfile = *p.FiscalProfile
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	return c
}
