package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/billy-api/internal/application/audit"
	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/domain/repository"
)

// ClientUseCase casos de uso para clientes (receptores del DTE).
type ClientUseCase struct {
	repo  repository.ClientRepository
	audit audit.Recorder
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository, rec audit.Recorder) *ClientUseCase {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &ClientUseCase{repo: repo, audit: rec}
}

func validFiscalProfile(p string) bool {
	switch p {
	case entity.FiscalProfileResponsableIVA, entity.FiscalProfileExento, entity.FiscalProfilePercepcion:
		return true
	}
	return false
}

func validateClient(c *entity.Client) error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return domain.Invalid("nombre", "es obligatorio")
	case strings.TrimSpace(c.Address) == "":
		return domain.Invalid("direccion", "es obligatoria")
	case !validFiscalProfile(c.FiscalProfile):
		return domain.Invalid("perfilFiscal", "debe ser RESPONSABLE_IVA, EXENTO o PERCEPCION")
	case c.Status != entity.StatusActivo && c.Status != entity.StatusInactivo:
		return domain.Invalid("estado", "debe ser ACTIVO o INACTIVO")
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return domain.Invalid("email", "formato inválido")
		}
	}
	return nil
}

// Create registra un cliente; NIT y NRC no vacíos deben ser únicos.
func (uc *ClientUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	now := time.Now().UTC()
	c := &entity.Client{
		ID:            uuid.New().String(),
		NIT:           strings.TrimSpace(in.NIT),
		NRC:           strings.TrimSpace(in.NRC),
		Name:          strings.TrimSpace(in.Nombre),
		Address:       strings.TrimSpace(in.Direccion),
		Phone:         strings.TrimSpace(in.Telefono),
		Email:         strings.TrimSpace(in.Email),
		FiscalProfile: in.PerfilFiscal,
		Status:        in.Estado,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.FiscalProfile == "" {
		c.FiscalProfile = entity.FiscalProfileResponsableIVA
	}
	if c.Status == "" {
		c.Status = entity.StatusActivo
	}
	if err := validateClient(c); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditCreate, "cliente", fmt.Sprintf("Cliente %s creado", c.Name))
	out := dto.FromClient(c)
	return &out, nil
}

// GetByID obtiene un cliente por ID.
func (uc *ClientUseCase) GetByID(ctx context.Context, id string) (*dto.ClientResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
	}
	out := dto.FromClient(c)
	return &out, nil
}

// List lista clientes filtrados.
func (uc *ClientUseCase) List(ctx context.Context, f entity.ClientFilter) (*dto.ClientListResponse, error) {
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, dto.FromClient(c))
	}
	return &dto.ClientListResponse{Clientes: items}, nil
}

// Update aplica el patch. Con ventas facturadas solo telefono, email y direccion
// son editables; el repositorio lo verifica de forma atómica.
func (uc *ClientUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	patch := in.Patch()
	patch.NIT, patch.NRC, patch.Name = trimPtr(patch.NIT), trimPtr(patch.NRC), trimPtr(patch.Name)
	patch.Address, patch.Phone, patch.Email = trimPtr(patch.Address), trimPtr(patch.Phone), trimPtr(patch.Email)
	if len(patch.Touched()) == 0 {
		return nil, domain.Invalid("", "no hay campos para actualizar")
	}
	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
	}
	preview := patch.Apply(*current)
	if err := validateClient(&preview); err != nil {
		return nil, err
	}
	updated, err := uc.repo.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
		}
		return nil, err
	}
	uc.audit.Record(ctx, actor, entity.AuditUpdate, "cliente",
		fmt.Sprintf("Cliente %s actualizado: %s", updated.Name, strings.Join(patch.Touched(), ", ")))
	out := dto.FromClient(updated)
	return &out, nil
}

// Delete elimina un cliente sin ventas.
func (uc *ClientUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Entity: "cliente", Msg: "Cliente no encontrado"}
		}
		return err
	}
	uc.audit.Record(ctx, actor, entity.AuditDelete, "cliente", "Cliente "+id+" eliminado")
	return nil
}
