package dto

import (
	"time"

	"github.com/jhoicas/billy-api/internal/domain/entity"
)

// CreateClientRequest body para POST /api/clientes.
type CreateClientRequest struct {
	NIT          string `json:"nit,omitempty"`
	NRC          string `json:"nrc,omitempty"`
	Nombre       string `json:"nombre"`
	Direccion    string `json:"direccion"`
	Telefono     string `json:"telefono,omitempty"`
	Email        string `json:"email,omitempty"`
	PerfilFiscal string `json:"perfilFiscal"`
	Estado       string `json:"estado,omitempty"`
}

// UpdateClientRequest body para PUT /api/clientes/:id. Un campo presente cuenta
// como tocado aunque conserve su valor.
type UpdateClientRequest struct {
	NIT          *string `json:"nit,omitempty"`
	NRC          *string `json:"nrc,omitempty"`
	Nombre       *string `json:"nombre,omitempty"`
	Direccion    *string `json:"direccion,omitempty"`
	Telefono     *string `json:"telefono,omitempty"`
	Email        *string `json:"email,omitempty"`
	PerfilFiscal *string `json:"perfilFiscal,omitempty"`
	Estado       *string `json:"estado,omitempty"`
}

// Patch convierte la petición en un entity.ClientPatch.
func (r UpdateClientRequest) Patch() entity.ClientPatch {
	return entity.ClientPatch{
		NIT:           r.NIT,
		NRC:           r.NRC,
		Name:          r.Nombre,
		Address:       r.Direccion,
		Phone:         r.Telefono,
		Email:         r.Email,
		FiscalProfile: r.PerfilFiscal,
		Status:        r.Estado,
	}
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID                 string    `json:"id"`
	NIT                string    `json:"nit,omitempty"`
	NRC                string    `json:"nrc,omitempty"`
	Nombre             string    `json:"nombre"`
	Direccion          string    `json:"direccion"`
	Telefono           string    `json:"telefono,omitempty"`
	Email              string    `json:"email,omitempty"`
	PerfilFiscal       string    `json:"perfilFiscal"`
	Estado             string    `json:"estado"`
	FechaCreacion      time.Time `json:"fechaCreacion"`
	FechaActualizacion time.Time `json:"fechaActualizacion"`
}

// ClientListResponse lista de clientes.
type ClientListResponse struct {
	Clientes []ClientResponse `json:"clientes"`
}

// FromClient mapea la entidad a la respuesta.
func FromClient(c *entity.Client) ClientResponse {
	return ClientResponse{
		ID:                 c.ID,
		NIT:                c.NIT,
		NRC:                c.NRC,
		Nombre:             c.Name,
		Direccion:          c.Address,
		Telefono:           c.Phone,
		Email:              c.Email,
		PerfilFiscal:       c.FiscalProfile,
		Estado:             c.Status,
		FechaCreacion:      c.CreatedAt,
		FechaActualizacion: c.UpdatedAt,
	}
}
